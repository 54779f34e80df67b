// Package inline converts between nested literal lists and arrays.
//
// A literal is a tree of []any whose leaves are Go scalars. A nil leaf is a
// missing value: it is stored as the element's zero value and masked. For
// record element types one list at a fixed nesting depth holds the fields
// of one record; that depth is found by probing the first element of each
// level.
package inline

import (
	"math"

	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-asdf/internal/dtype"
	"github.com/robert-malhotra/go-asdf/internal/ndarray"
)

// ToArray builds an array from a literal. A nil t infers the element type
// from the leaves. The result is masked only when the literal holds at
// least one nil leaf.
func ToArray(literal any, t *dtype.Type) (*ndarray.Array, error) {
	if t != nil && t.IsRecord() {
		return recordArray(literal, t)
	}
	if t == nil {
		var err error
		if t, err = InferType(literal); err != nil {
			return nil, err
		}
	}

	dims := leadingDims(literal, -1)
	leaves := make([]any, 0, count(dims))
	if err := flatten(literal, dims, 0, false, &leaves); err != nil {
		return nil, err
	}

	a := ndarray.New(t, dims...)
	data := a.Buffer().Bytes()
	size := t.ItemSize()
	var mask *ndarray.Array
	for i, leaf := range leaves {
		if leaf == nil {
			if mask == nil {
				mask = ndarray.New(dtype.New(dtype.KindBool), dims...)
			}
			mask.Buffer().Bytes()[i] = 1
			continue
		}
		if err := dtype.Put(t, data[i*size:], leaf); err != nil {
			return nil, errors.Wrapf(err, "inline element %d", i)
		}
	}
	if mask == nil {
		return a, nil
	}
	return a.WithMask(mask)
}

func recordArray(literal any, t *dtype.Type) (*ndarray.Array, error) {
	depth, err := recordDepth(literal, t, 0)
	if err != nil {
		return nil, err
	}
	dims := leadingDims(literal, depth)
	leaves := make([]any, 0, count(dims))
	if err := flatten(literal, dims, 0, true, &leaves); err != nil {
		return nil, err
	}

	a := ndarray.New(t, dims...)
	data := a.Buffer().Bytes()
	size := t.ItemSize()
	for i, leaf := range leaves {
		if l, ok := leaf.([]any); !ok || len(l) != len(t.Fields) {
			return nil, errors.Wrapf(ndarray.ErrShapeMismatch, "inline record %d has %v for %d fields", i, leaf, len(t.Fields))
		}
		if err := dtype.Put(t, data[i*size:], leaf); err != nil {
			return nil, errors.Wrapf(err, "inline record %d", i)
		}
	}
	return a, nil
}

// recordDepth returns the nesting depth at which a list converts into one
// record of t.
func recordDepth(line any, t *dtype.Type, depth int) (int, error) {
	l, ok := line.([]any)
	if !ok || len(l) == 0 {
		return 0, errors.Wrap(ndarray.ErrShapeMismatch, "data can not be converted to structured array")
	}
	scratch := make([]byte, t.ItemSize())
	if dtype.Put(t, scratch, l) == nil {
		return depth, nil
	}
	return recordDepth(l[0], t, depth+1)
}

// leadingDims follows the first element of each level, at most limit
// levels deep (limit < 0 means no limit).
func leadingDims(v any, limit int) []int {
	dims := []int{}
	for limit < 0 || len(dims) < limit {
		l, ok := v.([]any)
		if !ok {
			break
		}
		dims = append(dims, len(l))
		if len(l) == 0 {
			break
		}
		v = l[0]
	}
	return dims
}

// flatten appends the leaves of v in row-major order, checking that v is
// rectangular with the given dims.
func flatten(v any, dims []int, d int, listLeaves bool, out *[]any) error {
	if d == len(dims) {
		if _, isList := v.([]any); isList && !listLeaves {
			return errors.Wrapf(ndarray.ErrShapeMismatch, "inline data is nested deeper than %d levels", len(dims))
		}
		*out = append(*out, v)
		return nil
	}
	l, ok := v.([]any)
	if !ok || len(l) != dims[d] {
		return errors.Wrapf(ndarray.ErrShapeMismatch, "inline data is not rectangular at depth %d: expected %d entries, got %v", d, dims[d], v)
	}
	for _, e := range l {
		if err := flatten(e, dims, d+1, listLeaves, out); err != nil {
			return err
		}
	}
	return nil
}

func count(dims []int) int {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}

// FromArray returns the literal form of a. Masked elements become nil and
// records become lists of their field values.
func FromArray(a *ndarray.Array) (any, error) {
	return a.ToList()
}

// NDim returns the number of dimensions of the array a literal describes.
func NDim(literal any, t *dtype.Type) (int, error) {
	a, err := ToArray(literal, t)
	if err != nil {
		return 0, err
	}
	return a.NDim(), nil
}

// InferType returns the element type a literal's leaves need: bool8 when
// all leaves are booleans, int64 for integers (uint64 for unsigned values
// beyond the int64 range), float64 once a float appears, complex128 once a
// complex number appears, and ucs4 sized to the longest string. A literal
// with no leaves is float64; one whose leaves are all missing is int64.
func InferType(literal any) (*dtype.Type, error) {
	var inf inference
	if err := inf.walk(literal); err != nil {
		return nil, err
	}
	return inf.result()
}

type inference struct {
	bools, ints, floats, complexes, strings, missing bool
	negative, hugeUnsigned                          bool
	maxLen                                          int
}

func (inf *inference) walk(v any) error {
	switch x := v.(type) {
	case []any:
		for _, e := range x {
			if err := inf.walk(e); err != nil {
				return err
			}
		}
	case nil:
		inf.missing = true
	case bool:
		inf.bools = true
	case int, int8, int16, int32, int64:
		inf.ints = true
		if f, _ := dtype.ToFloat(x); f < 0 {
			inf.negative = true
		}
	case uint, uint8, uint16, uint32:
		inf.ints = true
	case uint64:
		inf.ints = true
		if x > math.MaxInt64 {
			inf.hugeUnsigned = true
		}
	case float32, float64:
		inf.floats = true
	case complex64, complex128:
		inf.complexes = true
	case string:
		inf.strings = true
		if n := len([]rune(x)); n > inf.maxLen {
			inf.maxLen = n
		}
	default:
		return errors.Wrapf(dtype.ErrIncompatibleValue, "cannot store %T in an array", v)
	}
	return nil
}

func (inf *inference) result() (*dtype.Type, error) {
	numeric := inf.bools || inf.ints || inf.floats || inf.complexes
	switch {
	case inf.strings && numeric:
		return nil, errors.Wrap(dtype.ErrIncompatibleValue, "inline data mixes strings and numbers")
	case inf.strings:
		return dtype.FixedString(dtype.KindUCS4, inf.maxLen), nil
	case inf.complexes:
		return dtype.New(dtype.KindComplex128), nil
	case inf.floats:
		return dtype.New(dtype.KindFloat64), nil
	case inf.hugeUnsigned && inf.negative:
		return dtype.New(dtype.KindFloat64), nil
	case inf.hugeUnsigned:
		return dtype.New(dtype.KindUint64), nil
	case inf.ints:
		return dtype.New(dtype.KindInt64), nil
	case inf.bools:
		return dtype.New(dtype.KindBool), nil
	case inf.missing:
		return dtype.New(dtype.KindInt64), nil
	default:
		return dtype.New(dtype.KindFloat64), nil
	}
}
