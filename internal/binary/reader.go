// Package binary provides the fixed-width integer I/O used by block headers.
package binary

import (
	"encoding/binary"
	"io"

	"github.com/cockroachdb/errors"
)

// Reader reads fixed-width fields from an io.ReaderAt. It keeps its own
// position so several readers can share one underlying file.
type Reader struct {
	r     io.ReaderAt
	order binary.ByteOrder
	pos   int64
}

// NewReader creates a reader positioned at offset 0. Block headers are always
// big-endian, so that is the default order.
func NewReader(r io.ReaderAt) *Reader {
	return &Reader{r: r, order: binary.BigEndian}
}

// At returns a new reader positioned at the given offset.
// The new reader shares the underlying io.ReaderAt but has independent position.
func (r *Reader) At(offset int64) *Reader {
	return &Reader{r: r.r, order: r.order, pos: offset}
}

// Pos returns the current read position.
func (r *Reader) Pos() int64 {
	return r.pos
}

// ReadBytes reads exactly n bytes from the current position. A short read
// is reported as io.ErrUnexpectedEOF.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	read, err := r.r.ReadAt(buf, r.pos)
	if read < n {
		if err == nil || errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, errors.Wrapf(err, "reading %d bytes at offset %d", n, r.pos)
	}
	r.pos += int64(n)
	return buf, nil
}

// ReadUint16 reads an unsigned 16-bit integer.
func (r *Reader) ReadUint16() (uint16, error) {
	buf, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return r.order.Uint16(buf), nil
}

// ReadUint32 reads an unsigned 32-bit integer.
func (r *Reader) ReadUint32() (uint32, error) {
	buf, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return r.order.Uint32(buf), nil
}

// ReadUint64 reads an unsigned 64-bit integer.
func (r *Reader) ReadUint64() (uint64, error) {
	buf, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return r.order.Uint64(buf), nil
}

// Skip advances the position by n bytes.
func (r *Reader) Skip(n int64) {
	r.pos += n
}

// Peek reads n bytes without advancing the position.
func (r *Reader) Peek(n int) ([]byte, error) {
	buf, err := r.ReadBytes(n)
	if err != nil {
		return nil, err
	}
	r.pos -= int64(n)
	return buf, nil
}
