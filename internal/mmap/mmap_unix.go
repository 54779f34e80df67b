//go:build unix

package mmap

import (
	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"
)

// Supported reports whether Map can create file mappings.
const Supported = true

// Map maps length bytes of f starting at offset, read-only.
func Map(f Fder, offset int64, length int) (*Region, error) {
	if length == 0 {
		return FromBytes(nil), nil
	}
	page := int64(unix.Getpagesize())
	aligned := offset &^ (page - 1)
	delta := int(offset - aligned)

	m, err := unix.Mmap(int(f.Fd()), aligned, length+delta, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, errors.Wrapf(err, "mmap %d bytes at %d", length, offset)
	}
	return &Region{data: m[delta : delta+length], mapped: m}, nil
}

func unmap(m []byte) error {
	if err := unix.Munmap(m); err != nil {
		return errors.Wrap(err, "munmap")
	}
	return nil
}
