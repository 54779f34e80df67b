// Package mmap provides byte regions backed either by a read-only memory
// mapping of a file or by the heap. A region can be closed, after which its
// bytes must not be used; Closed lets holders of derived views detect that.
package mmap

import (
	"github.com/cockroachdb/errors"
)

// ErrUnsupported is returned by Map on platforms without mmap.
var ErrUnsupported = errors.New("mmap: not supported on this platform")

// Fder is implemented by files that expose an OS descriptor.
type Fder interface {
	Fd() uintptr
}

// Region is a contiguous run of bytes.
type Region struct {
	data   []byte
	mapped []byte // full page-aligned mapping, nil for heap regions
	closed bool
}

// FromBytes returns a heap region over b. b is not copied.
func FromBytes(b []byte) *Region {
	return &Region{data: b}
}

// Bytes returns the region's bytes, or nil once the region is closed.
func (r *Region) Bytes() []byte {
	if r.closed {
		return nil
	}
	return r.data
}

// Len returns the number of bytes in the region.
func (r *Region) Len() int {
	return len(r.data)
}

// Mapped reports whether the region is a file mapping.
func (r *Region) Mapped() bool {
	return r.mapped != nil
}

// ReadOnly reports whether the bytes must not be written. File mappings
// are read-only.
func (r *Region) ReadOnly() bool {
	return r.mapped != nil
}

// Closed reports whether Close has been called.
func (r *Region) Closed() bool {
	return r.closed
}

// Close releases the region. Closing twice is a no-op.
func (r *Region) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.data = nil
	if r.mapped == nil {
		return nil
	}
	m := r.mapped
	r.mapped = nil
	return unmap(m)
}
