package asdf

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/robert-malhotra/go-asdf/internal/block"
)

// File is an ASDF document: a tree and the blocks its arrays refer to.
type File struct {
	fs            vfs.FS
	path          string
	file          vfs.File
	opts          *options
	metrics       *metrics
	blocks        *block.Manager
	tree          map[string]any
	closed        bool
	externalFiles map[string]*File // Cache of opened external files
}

// Open opens an ASDF file for reading.
func Open(path string, opts ...Option) (*File, error) {
	o := buildOptions(opts)
	return open(path, o, newMetrics(o.registry))
}

func open(path string, o *options, m *metrics) (*File, error) {
	vf, err := o.fs.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	st, err := vf.Stat()
	if err != nil {
		_ = vf.Close()
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	size := st.Size()

	text, end, err := readTree(vf, size)
	if err != nil {
		_ = vf.Close()
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	blocks, err := block.Read(vf, size, end, o.blockConfig(m))
	if err != nil {
		_ = vf.Close()
		return nil, errors.Wrapf(err, "reading blocks of %s", path)
	}

	f := &File{
		fs:      o.fs,
		path:    path,
		file:    vf,
		opts:    o,
		metrics: m,
		blocks:  blocks,
	}
	if f.tree, err = f.decodeTree(text); err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return f, nil
}

// readTree returns the YAML text at the start of r and the offset of the
// byte following it. The text ends at the document end marker, at the
// first block, or at the end of r.
func readTree(r io.ReaderAt, size int64) ([]byte, int64, error) {
	br := bufio.NewReader(io.NewSectionReader(r, 0, size))
	if head, err := br.Peek(len("#ASDF ")); err != nil || string(head) != "#ASDF " {
		return nil, 0, ErrNotASDF
	}

	var (
		text bytes.Buffer
		pos  int64
	)
	for {
		if peek, err := br.Peek(len(block.Magic)); err == nil && bytes.Equal(peek, block.Magic) {
			return text.Bytes(), pos, nil
		}
		line, err := br.ReadBytes('\n')
		pos += int64(len(line))
		text.Write(line)
		if strings.TrimRight(string(line), "\r\n") == treeEnd {
			return text.Bytes(), pos, nil
		}
		if err == io.EOF {
			return text.Bytes(), pos, nil
		}
		if err != nil {
			return nil, 0, err
		}
	}
}

func (o *options) blockConfig(m *metrics) block.Config {
	return block.Config{
		Memmap:            o.memmap,
		ValidateChecksums: o.validateChecksums,
		OnFetch:           func(int, int) { m.fetched() },
		OnWrite:           m.wrote,
	}
}

// New returns an unwritten file holding tree. Tree values may be
// *NDArray or *ndarray.Array values, maps, lists and scalars.
func New(tree map[string]any, opts ...Option) *File {
	o := buildOptions(opts)
	m := newMetrics(o.registry)
	if tree == nil {
		tree = map[string]any{}
	}
	return &File{
		fs:      o.fs,
		opts:    o,
		metrics: m,
		blocks:  block.NewManager(o.blockConfig(m)),
		tree:    tree,
	}
}

// Close closes the file and all opened external files. Arrays loaded
// from its blocks can no longer be read.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true

	var errs error
	for _, ext := range f.externalFiles {
		errs = errors.CombineErrors(errs, ext.Close())
	}
	f.externalFiles = nil
	errs = errors.CombineErrors(errs, f.blocks.Close())
	if f.file != nil {
		errs = errors.CombineErrors(errs, f.file.Close())
	}
	return errs
}

// Tree returns the root of the tree. Changes to it are written by Write.
func (f *File) Tree() map[string]any {
	return f.tree
}

// Path returns the path the file was opened from, or "".
func (f *File) Path() string {
	return f.path
}

// Config returns the write-side configuration of the file.
func (f *File) Config() Config {
	return f.opts.config()
}

// OpenExternal opens a file named relative to this file's directory.
// Files are cached to avoid repeated opens and closed with this file.
func (f *File) OpenExternal(name string) (*File, error) {
	if f.closed {
		return nil, ErrClosed
	}
	if ext, ok := f.externalFiles[name]; ok {
		return ext, nil
	}

	extPath := name
	if f.path != "" {
		extPath = f.fs.PathJoin(f.fs.PathDir(f.path), name)
	}
	ext, err := open(extPath, f.opts, f.metrics)
	if err != nil {
		return nil, errors.Wrapf(err, "opening external file %q", name)
	}
	f.opts.logger.Infof("asdf: opened external file %s", extPath)

	if f.externalFiles == nil {
		f.externalFiles = make(map[string]*File)
	}
	f.externalFiles[name] = ext
	return ext, nil
}

// Write writes the file to path. Arrays with external storage are written
// to their own files next to it, named after it.
func (f *File) Write(path string) error {
	if f.closed {
		return ErrClosed
	}
	if f.file != nil && path == f.path {
		return errors.Newf("cannot overwrite %s while it is open", path)
	}

	text, err := f.prepare(strings.TrimSuffix(f.fs.PathBase(path), ".asdf"))
	if err != nil {
		return err
	}
	out, err := f.fs.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	if _, err := f.emit(out, text); err != nil {
		return errors.CombineErrors(errors.Wrapf(err, "writing %s", path), out.Close())
	}

	dir := f.fs.PathDir(path)
	for _, req := range f.blocks.ExternalRequests() {
		name, _ := req.Source.(string)
		if err := f.writeExternal(f.fs.PathJoin(dir, name), req); err != nil {
			return errors.CombineErrors(err, out.Close())
		}
	}
	if err := out.Sync(); err != nil {
		return errors.CombineErrors(err, out.Close())
	}
	return out.Close()
}

// WriteTo writes the file to w. It fails if any array has external
// storage, since external blocks need a directory to live in.
func (f *File) WriteTo(w io.Writer) (int64, error) {
	if f.closed {
		return 0, ErrClosed
	}
	text, err := f.prepare("")
	if err != nil {
		return 0, err
	}
	if n := len(f.blocks.ExternalRequests()); n > 0 {
		return 0, errors.Newf("%d arrays have external storage; use Write", n)
	}
	return f.emit(w, text)
}

// prepare serializes the tree, queueing the blocks to write.
func (f *File) prepare(prefix string) ([]byte, error) {
	f.blocks.ResetWrites(prefix)
	s := &serializer{blocks: f.blocks, cfg: f.opts.config(), log: f.opts.logger}
	return s.encodeTree(f.tree)
}

func (f *File) emit(w io.Writer, text []byte) (int64, error) {
	n, err := w.Write(text)
	if err != nil {
		return int64(n), err
	}
	m, err := f.blocks.WriteTo(w)
	return int64(n) + m, err
}

func (f *File) writeExternal(path string, req *block.WriteRequest) error {
	out, err := f.fs.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating external file %s", path)
	}
	if _, err := io.WriteString(out, fileHeader+"{}\n"+treeEnd+"\n"); err != nil {
		return errors.CombineErrors(err, out.Close())
	}
	if _, err := f.blocks.WriteExternal(out, req); err != nil {
		return errors.CombineErrors(errors.Wrapf(err, "writing external file %s", path), out.Close())
	}
	if err := out.Sync(); err != nil {
		return errors.CombineErrors(err, out.Close())
	}
	f.opts.logger.Infof("asdf: wrote external block %s", path)
	return out.Close()
}

// BlockInfo describes one block of an opened file.
type BlockInfo struct {
	Index         int
	Compression   string
	AllocatedSize uint64
	UsedSize      uint64
	DataSize      uint64
	Streamed      bool
}

// Blocks describes the blocks read from the file.
func (f *File) Blocks() ([]BlockInfo, error) {
	if f.closed {
		return nil, ErrClosed
	}
	infos := make([]BlockInfo, f.blocks.Len())
	for i := range infos {
		h, err := f.blocks.Header(i)
		if err != nil {
			return nil, err
		}
		infos[i] = BlockInfo{
			Index:         i,
			Compression:   h.Compression,
			AllocatedSize: h.AllocatedSize,
			UsedSize:      h.UsedSize,
			DataSize:      h.DataSize,
			Streamed:      h.Streamed(),
		}
	}
	return infos, nil
}
