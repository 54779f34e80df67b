// Package shape handles array shape specifications.
//
// A shape is a list of non-negative dimensions. The leading dimension may be
// the wildcard "*", meaning the array extends to the end of its block; the
// real count is computed from the block size once the bytes are known.
package shape

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Wildcard is the tree spelling of an unknown leading dimension.
const Wildcard = "*"

// ErrInvalidShape is returned for wildcards outside the leading position,
// more than one wildcard, or dimensions that are not non-negative integers.
var ErrInvalidShape = errors.New("invalid shape")

// Spec is a declared shape. When Wildcard is set, Dims[0] is a placeholder.
type Spec struct {
	Dims     []int
	Wildcard bool
}

// Fixed returns a shape without a wildcard.
func Fixed(dims ...int) Spec {
	return Spec{Dims: dims}
}

// Streamed returns a shape whose leading dimension is the wildcard.
func Streamed(trailing ...int) Spec {
	dims := make([]int, 1+len(trailing))
	copy(dims[1:], trailing)
	return Spec{Dims: dims, Wildcard: true}
}

// Parse reads a shape from its tree form: a list of integers where the first
// entry may be the wildcard.
func Parse(node any) (Spec, error) {
	var entries []any
	switch n := node.(type) {
	case []any:
		entries = n
	case []int:
		return Fixed(append([]int(nil), n...)...), validate(n)
	default:
		return Spec{}, errors.Wrapf(ErrInvalidShape, "shape must be a list, got %T", node)
	}

	stars := 0
	for _, e := range entries {
		if s, ok := e.(string); ok && s == Wildcard {
			stars++
		}
	}
	if stars > 1 {
		return Spec{}, errors.Wrapf(ErrInvalidShape, "%v has more than one %q", entries, Wildcard)
	}

	s := Spec{Dims: make([]int, len(entries))}
	for i, e := range entries {
		if str, ok := e.(string); ok && str == Wildcard {
			if i != 0 {
				return Spec{}, errors.Wrapf(ErrInvalidShape, "%q may only be in first entry of shape", Wildcard)
			}
			s.Wildcard = true
			continue
		}
		d, ok := toInt(e)
		if !ok || d < 0 {
			return Spec{}, errors.Wrapf(ErrInvalidShape, "dimension %d is %v", i, e)
		}
		s.Dims[i] = d
	}
	return s, nil
}

func validate(dims []int) error {
	for i, d := range dims {
		if d < 0 {
			return errors.Wrapf(ErrInvalidShape, "dimension %d is %d", i, d)
		}
	}
	return nil
}

// Rank returns the number of dimensions.
func (s Spec) Rank() int {
	return len(s.Dims)
}

// Trailing returns every dimension after the leading one.
func (s Spec) Trailing() []int {
	if len(s.Dims) == 0 {
		return nil
	}
	return s.Dims[1:]
}

// Encode returns the tree form of the shape.
func (s Spec) Encode() []any {
	out := make([]any, len(s.Dims))
	for i, d := range s.Dims {
		out[i] = d
	}
	if s.Wildcard && len(out) > 0 {
		out[0] = Wildcard
	}
	return out
}

func (s Spec) String() string {
	parts := make([]string, len(s.Dims))
	for i, d := range s.Dims {
		parts[i] = strconv.Itoa(d)
	}
	if s.Wildcard && len(parts) > 0 {
		parts[0] = Wildcard
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Resolve returns the concrete shape for a block of available bytes. A spec
// without a wildcard is returned unchanged. Otherwise the leading dimension
// becomes available divided by the leading stride, which is strides[0] when
// given and the size of one trailing sub-array otherwise. A zero-sized
// block (a streamed block that has not been written yet) resolves to a
// leading dimension of zero.
func (s Spec) Resolve(strides []int, itemSize int, available int) []int {
	dims := append([]int(nil), s.Dims...)
	if !s.Wildcard {
		return dims
	}

	var stride int
	if len(strides) > 0 {
		stride = strides[0]
	} else {
		stride = Count(s.Trailing()) * itemSize
	}
	if stride < 0 {
		stride = -stride
	}
	if stride == 0 {
		dims[0] = 0
		return dims
	}
	dims[0] = available / stride
	return dims
}

// Count returns the number of elements in an array of the given dimensions.
func Count(dims []int) int {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}

// Equal reports whether two dimension lists are identical.
func Equal(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Format renders dimensions the way Spec.String does.
func Format(dims []int) string {
	return fmt.Sprint(Fixed(dims...))
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	default:
		return 0, false
	}
}
