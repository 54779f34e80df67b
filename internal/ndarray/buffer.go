package ndarray

// Storage owns the bytes behind a Buffer.
type Storage interface {
	Closed() bool
}

// Buffer is a flat run of bytes shared by every array viewing it.
type Buffer struct {
	data    []byte
	storage Storage
}

// NewBuffer returns a heap buffer over data. data is not copied.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

// BufferOf returns a buffer over data owned by storage.
func BufferOf(storage Storage, data []byte) *Buffer {
	return &Buffer{data: data, storage: storage}
}

// Bytes returns the buffer contents.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len returns the buffer size in bytes.
func (b *Buffer) Len() int {
	return len(b.data)
}

// ReadOnly reports whether the owning storage refuses writes. Storage opts
// in by implementing ReadOnly() bool.
func (b *Buffer) ReadOnly() bool {
	ro, ok := b.storage.(interface{ ReadOnly() bool })
	return ok && ro.ReadOnly()
}

// Closed reports whether the owning storage has been closed.
func (b *Buffer) Closed() bool {
	return b.storage != nil && b.storage.Closed()
}
