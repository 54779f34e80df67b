package binary

import (
	"encoding/binary"
	"io"
)

// Writer writes fixed-width fields sequentially to an io.Writer and tracks
// how many bytes have been written.
type Writer struct {
	w     io.Writer
	order binary.ByteOrder
	pos   int64
}

// NewWriter creates a big-endian writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, order: binary.BigEndian}
}

// Pos returns the number of bytes written so far.
func (w *Writer) Pos() int64 {
	return w.pos
}

// WriteBytes writes the given bytes at the current position.
func (w *Writer) WriteBytes(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	n, err := w.w.Write(data)
	w.pos += int64(n)
	return err
}

// WriteUint16 writes an unsigned 16-bit integer.
func (w *Writer) WriteUint16(v uint16) error {
	buf := make([]byte, 2)
	w.order.PutUint16(buf, v)
	return w.WriteBytes(buf)
}

// WriteUint32 writes an unsigned 32-bit integer.
func (w *Writer) WriteUint32(v uint32) error {
	buf := make([]byte, 4)
	w.order.PutUint32(buf, v)
	return w.WriteBytes(buf)
}

// WriteUint64 writes an unsigned 64-bit integer.
func (w *Writer) WriteUint64(v uint64) error {
	buf := make([]byte, 8)
	w.order.PutUint64(buf, v)
	return w.WriteBytes(buf)
}

// WriteZeros writes n zero bytes.
func (w *Writer) WriteZeros(n int) error {
	if n <= 0 {
		return nil
	}
	return w.WriteBytes(make([]byte, n))
}
