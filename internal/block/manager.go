package block

import (
	"bytes"
	"fmt"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-asdf/internal/binary"
	"github.com/robert-malhotra/go-asdf/internal/mmap"
	"github.com/robert-malhotra/go-asdf/internal/ndarray"
)

var (
	// ErrNoBlock is returned for handles that do not name a block.
	ErrNoBlock = errors.New("no such block")

	// ErrStreamedExists is returned when a second base is registered as the
	// streamed block.
	ErrStreamedExists = errors.New("a streamed block is already set")
)

// Config controls how a Manager loads blocks.
type Config struct {
	// Memmap maps uncompressed blocks instead of reading them.
	Memmap bool

	// ValidateChecksums compares loaded data against header checksums.
	ValidateChecksums bool

	// OnFetch is called after a block is loaded from the file.
	OnFetch func(handle, size int)

	// OnWrite is called with the number of bytes of each block written.
	OnWrite func(size int)
}

// Manager indexes the blocks of one file and collects the blocks to write.
type Manager struct {
	cfg    Config
	src    io.ReaderAt
	fd     mmap.Fder
	blocks []*entry

	options map[*ndarray.Buffer]*Options

	internal  []*WriteRequest
	external  []*WriteRequest
	byBase    map[*ndarray.Buffer]*WriteRequest
	streamed  *WriteRequest
	extPrefix string

	closed bool
}

type entry struct {
	header *Header
	offset int64
	used   int64
	region *mmap.Region
	buf    *ndarray.Buffer
}

// WriteRequest is one block queued for writing.
type WriteRequest struct {
	Base     *ndarray.Buffer
	Options  *Options
	Producer any

	// Source is the tree value that refers to the block: its index for
	// internal blocks or its file name for external blocks.
	Source any

	data []byte
}

// NewManager returns a manager with no blocks to read.
func NewManager(cfg Config) *Manager {
	return &Manager{
		cfg:     cfg,
		options: make(map[*ndarray.Buffer]*Options),
		byBase:  make(map[*ndarray.Buffer]*WriteRequest),
	}
}

// Read indexes the blocks of src that start at offset start. Scanning stops
// at the end of src, after the streamed block, or at the first bytes that
// are not a block header. If src exposes a file descriptor, uncompressed
// blocks may be memory-mapped.
func Read(src io.ReaderAt, size, start int64, cfg Config) (*Manager, error) {
	m := NewManager(cfg)
	m.src = src
	if fd, ok := src.(mmap.Fder); ok {
		m.fd = fd
	}

	r := binary.NewReader(src).At(start)
	for r.Pos()+int64(len(Magic)) <= size {
		peek, err := r.Peek(len(Magic))
		if err != nil {
			return nil, err
		}
		if !bytes.Equal(peek, Magic) {
			break
		}
		h, err := ReadHeader(r)
		if err != nil {
			return nil, errors.Wrapf(err, "block %d", len(m.blocks))
		}
		e := &entry{header: h, offset: r.Pos()}
		if h.Streamed() {
			e.used = size - e.offset
			m.blocks = append(m.blocks, e)
			break
		}
		e.used = int64(h.UsedSize)
		if h.UsedSize > h.AllocatedSize || e.offset+int64(h.AllocatedSize) > size {
			return nil, errors.Wrapf(ErrCorrupt, "block %d: %d used of %d allocated bytes at offset %d overruns file of %d bytes",
				len(m.blocks), h.UsedSize, h.AllocatedSize, e.offset, size)
		}
		m.blocks = append(m.blocks, e)
		r.Skip(int64(h.AllocatedSize))
	}
	return m, nil
}

// Len returns the number of blocks read from the file.
func (m *Manager) Len() int {
	return len(m.blocks)
}

func (m *Manager) entry(handle int) (*entry, error) {
	if m.closed {
		return nil, errors.Wrapf(ndarray.ErrStorageClosed, "block %d", handle)
	}
	if handle == -1 {
		for _, e := range m.blocks {
			if e.header.Streamed() {
				return e, nil
			}
		}
		return nil, errors.Wrap(ErrNoBlock, "file has no streamed block")
	}
	if handle < 0 || handle >= len(m.blocks) {
		return nil, errors.Wrapf(ErrNoBlock, "block %d of %d", handle, len(m.blocks))
	}
	return m.blocks[handle], nil
}

// Header returns the header of a block. Handle -1 names the streamed block.
func (m *Manager) Header(handle int) (Header, error) {
	e, err := m.entry(handle)
	if err != nil {
		return Header{}, err
	}
	return *e.header, nil
}

// Data returns the decompressed bytes of a block. The same buffer is
// returned on every call until its storage is closed, after which the block
// is loaded again.
func (m *Manager) Data(handle int) (*ndarray.Buffer, error) {
	e, err := m.entry(handle)
	if err != nil {
		return nil, err
	}
	if e.buf != nil && !e.buf.Closed() {
		return e.buf, nil
	}
	if m.src == nil {
		return nil, errors.Wrapf(ErrNoBlock, "block %d has no backing file", handle)
	}

	region, err := m.load(e)
	if err != nil {
		return nil, errors.Wrapf(err, "loading block %d", handle)
	}
	e.region = region
	e.buf = ndarray.BufferOf(region, region.Bytes())

	storage := Internal
	if e.header.Streamed() {
		storage = Streamed
	}
	if _, ok := m.options[e.buf]; !ok {
		m.options[e.buf] = &Options{Storage: storage, Compression: e.header.Compression}
	}
	if m.cfg.OnFetch != nil {
		m.cfg.OnFetch(handle, region.Len())
	}
	return e.buf, nil
}

func (m *Manager) load(e *entry) (*mmap.Region, error) {
	h := e.header
	if h.Compression == "" {
		n := int(e.used)
		if m.cfg.Memmap && m.fd != nil && mmap.Supported {
			if region, err := mmap.Map(m.fd, e.offset, n); err == nil {
				if err := m.verify(h, region.Bytes()); err != nil {
					_ = region.Close()
					return nil, err
				}
				return region, nil
			}
		}
		data, err := binary.NewReader(m.src).At(e.offset).ReadBytes(n)
		if err != nil {
			return nil, err
		}
		if err := m.verify(h, data); err != nil {
			return nil, err
		}
		return mmap.FromBytes(data), nil
	}

	codec, err := Lookup(h.Compression)
	if err != nil {
		return nil, err
	}
	raw, err := binary.NewReader(m.src).At(e.offset).ReadBytes(int(e.used))
	if err != nil {
		return nil, err
	}
	data, err := codec.Decompress(raw, int(h.DataSize))
	if err != nil {
		return nil, err
	}
	if err := m.verify(h, data); err != nil {
		return nil, err
	}
	return mmap.FromBytes(data), nil
}

func (m *Manager) verify(h *Header, data []byte) error {
	if !m.cfg.ValidateChecksums || h.Streamed() {
		return nil
	}
	if !binary.VerifyChecksum(data, h.Checksum) {
		return errors.Wrap(ErrCorrupt, "checksum mismatch")
	}
	return nil
}

// ReplaceData swaps a block's bytes, as an in-place rewrite of the file
// would. The old storage is closed, so arrays built over it observe
// Closed and the next Data call returns the new buffer.
func (m *Manager) ReplaceData(handle int, data []byte) error {
	e, err := m.entry(handle)
	if err != nil {
		return err
	}
	if e.region != nil {
		if err := e.region.Close(); err != nil {
			return err
		}
	}
	e.region = mmap.FromBytes(data)
	e.buf = ndarray.BufferOf(e.region, data)
	h := *e.header
	h.Compression = ""
	h.UsedSize, h.DataSize, h.AllocatedSize = uint64(len(data)), uint64(len(data)), uint64(len(data))
	h.Checksum = binary.Checksum(data)
	e.header = &h
	e.used = int64(len(data))
	return nil
}

// LookupOptions returns the options recorded for base, or nil.
func (m *Manager) LookupOptions(base *ndarray.Buffer) *Options {
	return m.options[base]
}

// SetOptions records the options for base.
func (m *Manager) SetOptions(base *ndarray.Buffer, opts *Options) {
	m.options[base] = opts
}

// Options returns a copy of the options recorded for base, or internal
// storage without compression.
func (m *Manager) Options(base *ndarray.Buffer) *Options {
	if o, ok := m.options[base]; ok {
		return o.Clone()
	}
	return &Options{Storage: Internal}
}

// ResetWrites drops every queued write. External block files will be named
// after prefix.
func (m *Manager) ResetWrites(prefix string) {
	m.internal, m.external, m.streamed = nil, nil, nil
	m.byBase = make(map[*ndarray.Buffer]*WriteRequest)
	m.extPrefix = prefix
}

// MakeWriteRequest queues base for writing and returns the tree value that
// refers to its block. A base is written once: later requests for the same
// base return the first request's source.
func (m *Manager) MakeWriteRequest(base *ndarray.Buffer, opts *Options, producer any) (any, error) {
	if req, ok := m.byBase[base]; ok {
		return req.Source, nil
	}
	if base.Closed() {
		return nil, ndarray.ErrStorageClosed
	}
	if opts.Compression != "" {
		if _, err := Lookup(opts.Compression); err != nil {
			return nil, err
		}
	}

	req := &WriteRequest{Base: base, Options: opts, Producer: producer}
	switch opts.Storage {
	case Internal:
		req.Source = len(m.internal)
		m.internal = append(m.internal, req)
	case External:
		prefix := m.extPrefix
		if prefix == "" {
			prefix = "external"
		}
		req.Source = fmt.Sprintf("%s%04d.asdf", prefix, len(m.external))
		m.external = append(m.external, req)
	default:
		return nil, errors.Newf("%s storage is not written to a block", opts.Storage)
	}
	m.byBase[base] = req
	return req.Source, nil
}

// SetStreamedBlock registers data, the row-major bytes of an array viewing
// base, as the streamed block. Only one base may be streamed per file.
func (m *Manager) SetStreamedBlock(base *ndarray.Buffer, data []byte, producer any) error {
	if m.streamed != nil && m.streamed.Base != base {
		return ErrStreamedExists
	}
	m.streamed = &WriteRequest{
		Base:     base,
		Options:  &Options{Storage: Streamed},
		Producer: producer,
		Source:   -1,
		data:     data,
	}
	return nil
}

// Requests returns the queued internal blocks in handle order.
func (m *Manager) Requests() []*WriteRequest {
	return m.internal
}

// ExternalRequests returns the queued external blocks.
func (m *Manager) ExternalRequests() []*WriteRequest {
	return m.external
}

// StreamedRequest returns the streamed block, or nil.
func (m *Manager) StreamedRequest() *WriteRequest {
	return m.streamed
}

// WriteTo writes the queued internal blocks followed by the streamed block.
func (m *Manager) WriteTo(w io.Writer) (int64, error) {
	bw := binary.NewWriter(w)
	for i, req := range m.internal {
		if req.Base.Closed() {
			return bw.Pos(), errors.Wrapf(ndarray.ErrStorageClosed, "block %d", i)
		}
		if err := m.writeBlock(bw, req.Base.Bytes(), req.Options, false); err != nil {
			return bw.Pos(), errors.Wrapf(err, "block %d", i)
		}
	}
	if m.streamed != nil {
		if err := m.writeBlock(bw, m.streamed.data, m.streamed.Options, true); err != nil {
			return bw.Pos(), errors.Wrap(err, "streamed block")
		}
	}
	return bw.Pos(), nil
}

// WriteExternal writes the block of an external request, as the only block
// of its file.
func (m *Manager) WriteExternal(w io.Writer, req *WriteRequest) (int64, error) {
	if req.Base.Closed() {
		return 0, ndarray.ErrStorageClosed
	}
	bw := binary.NewWriter(w)
	err := m.writeBlock(bw, req.Base.Bytes(), req.Options, false)
	return bw.Pos(), err
}

func (m *Manager) writeBlock(bw *binary.Writer, data []byte, opts *Options, streamed bool) error {
	h := &Header{}
	payload := data
	if streamed {
		h.Flags = FlagStreamed
	} else {
		if opts.Compression != "" {
			codec, err := Lookup(opts.Compression)
			if err != nil {
				return err
			}
			if payload, err = codec.Compress(data, opts.CompressionKwargs); err != nil {
				return err
			}
			h.Compression = codec.Label()
		}
		h.AllocatedSize = uint64(len(payload))
		h.UsedSize = uint64(len(payload))
		h.DataSize = uint64(len(data))
		h.Checksum = binary.Checksum(data)
	}
	if err := h.Write(bw); err != nil {
		return err
	}
	if err := bw.WriteBytes(payload); err != nil {
		return err
	}
	if m.cfg.OnWrite != nil {
		m.cfg.OnWrite(len(payload))
	}
	return nil
}

// Close releases every loaded block. Later reads of any block fail with
// ndarray.ErrStorageClosed.
func (m *Manager) Close() error {
	m.closed = true
	var errs error
	for _, e := range m.blocks {
		if e.region != nil {
			errs = errors.CombineErrors(errs, e.region.Close())
		}
	}
	return errs
}
