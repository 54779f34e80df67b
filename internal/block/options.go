package block

import (
	"maps"

	"github.com/cockroachdb/errors"
)

// Storage is where an array's bytes are kept.
type Storage uint8

const (
	Internal Storage = iota // block in the same file
	External                // block in a separate file
	Inline                  // literal inside the tree
	Streamed                // the trailing streamed block
)

var storageNames = [...]string{"internal", "external", "inline", "streamed"}

func (s Storage) String() string {
	if int(s) < len(storageNames) {
		return storageNames[s]
	}
	return "unknown"
}

// ParseStorage parses a storage name.
func ParseStorage(name string) (Storage, error) {
	for i, n := range storageNames {
		if n == name {
			return Storage(i), nil
		}
	}
	return 0, errors.Newf("unknown array storage %q", name)
}

// Options are the per-base write settings.
type Options struct {
	Storage           Storage
	Compression       string
	CompressionKwargs map[string]any
}

// Clone returns a copy of o.
func (o *Options) Clone() *Options {
	c := *o
	c.CompressionKwargs = maps.Clone(o.CompressionKwargs)
	return &c
}
