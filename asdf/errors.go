// Package asdf reads and writes ASDF files: a YAML tree followed by binary
// blocks, where ndarray nodes in the tree describe how to view block bytes
// as arrays.
package asdf

import (
	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-asdf/internal/block"
	"github.com/robert-malhotra/go-asdf/internal/dtype"
	"github.com/robert-malhotra/go-asdf/internal/ndarray"
	"github.com/robert-malhotra/go-asdf/internal/shape"
)

// Common errors
var (
	ErrMalformedType = dtype.ErrMalformedType
	ErrInvalidShape  = shape.ErrInvalidShape
	ErrShapeMismatch = ndarray.ErrShapeMismatch
	ErrUnsupported   = block.ErrUnsupported
	ErrReadOnly      = ndarray.ErrReadOnly

	// ErrIO marks failures to reach the bytes behind an array.
	ErrIO = errors.New("array storage unavailable")

	ErrClosedStorage    = errors.Mark(errors.New("array storage was closed"), ErrIO)
	ErrDocumentReleased = errors.Mark(errors.New("owning document was released"), ErrIO)

	ErrNotASDF = errors.New("not an ASDF file")
	ErrClosed  = errors.New("file is closed")
)
