package block

import (
	"bytes"

	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-asdf/internal/binary"
)

// Magic starts every block header.
var Magic = []byte{0xd3, 'B', 'L', 'K'}

const (
	// HeaderSize is the number of header bytes after the header_size field.
	HeaderSize = 48

	// FlagStreamed marks the streamed block.
	FlagStreamed uint32 = 1

	labelSize = 4
)

// ErrCorrupt is returned for malformed block headers or data.
var ErrCorrupt = errors.New("corrupt block")

// Header describes one block.
type Header struct {
	Flags         uint32
	Compression   string
	AllocatedSize uint64
	UsedSize      uint64
	DataSize      uint64
	Checksum      [binary.ChecksumSize]byte
}

// Streamed reports whether the block is the streamed block.
func (h *Header) Streamed() bool {
	return h.Flags&FlagStreamed != 0
}

// ReadHeader reads a header at the reader's position and leaves the reader
// at the first data byte. Unknown trailing header bytes are skipped.
func ReadHeader(r *binary.Reader) (*Header, error) {
	magic, err := r.ReadBytes(len(Magic))
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(magic, Magic) {
		return nil, errors.Wrapf(ErrCorrupt, "bad block magic %x at offset %d", magic, r.Pos()-int64(len(Magic)))
	}
	size, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}
	if size < HeaderSize {
		return nil, errors.Wrapf(ErrCorrupt, "header size %d is smaller than %d", size, HeaderSize)
	}
	start := r.Pos()

	h := &Header{}
	if h.Flags, err = r.ReadUint32(); err != nil {
		return nil, err
	}
	label, err := r.ReadBytes(labelSize)
	if err != nil {
		return nil, err
	}
	h.Compression = string(bytes.TrimRight(label, "\x00"))
	if h.AllocatedSize, err = r.ReadUint64(); err != nil {
		return nil, err
	}
	if h.UsedSize, err = r.ReadUint64(); err != nil {
		return nil, err
	}
	if h.DataSize, err = r.ReadUint64(); err != nil {
		return nil, err
	}
	sum, err := r.ReadBytes(binary.ChecksumSize)
	if err != nil {
		return nil, err
	}
	copy(h.Checksum[:], sum)

	r.Skip(start + int64(size) - r.Pos())
	return h, nil
}

// Write writes the header.
func (h *Header) Write(w *binary.Writer) error {
	if len(h.Compression) > labelSize {
		return errors.Wrapf(ErrCorrupt, "compression label %q is longer than %d bytes", h.Compression, labelSize)
	}
	if err := w.WriteBytes(Magic); err != nil {
		return err
	}
	if err := w.WriteUint16(HeaderSize); err != nil {
		return err
	}
	if err := w.WriteUint32(h.Flags); err != nil {
		return err
	}
	var label [labelSize]byte
	copy(label[:], h.Compression)
	if err := w.WriteBytes(label[:]); err != nil {
		return err
	}
	for _, v := range []uint64{h.AllocatedSize, h.UsedSize, h.DataSize} {
		if err := w.WriteUint64(v); err != nil {
			return err
		}
	}
	return w.WriteBytes(h.Checksum[:])
}
