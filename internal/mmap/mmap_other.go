//go:build !unix

package mmap

// Supported reports whether Map can create file mappings.
const Supported = false

// Map always fails; callers fall back to heap regions.
func Map(f Fder, offset int64, length int) (*Region, error) {
	return nil, ErrUnsupported
}

func unmap(m []byte) error {
	return nil
}
