// Package mask derives masked arrays from a mask specification.
package mask

import (
	"math/cmplx"

	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-asdf/internal/dtype"
	"github.com/robert-malhotra/go-asdf/internal/ndarray"
)

// ErrSentinelKind is returned when a scalar sentinel is applied to a
// non-numeric array.
var ErrSentinelKind = errors.New("mask sentinel requires a numeric array")

// Source yields a mask array on demand. It lets a lazily loaded array act
// as the mask of another.
type Source interface {
	Array() (*ndarray.Array, error)
}

// Spec is either a mask array or a scalar sentinel. A float NaN sentinel
// masks NaN elements; any other sentinel masks elements equal to it.
type Spec struct {
	Array Source
	Value any
}

// IsZero reports whether the spec masks nothing.
func (s *Spec) IsZero() bool {
	return s == nil || (s.Array == nil && s.Value == nil)
}

// Apply returns a masked according to spec. Elements a already masks stay
// masked. With no spec, or a sentinel that matches no element, a is
// returned unchanged.
func Apply(a *ndarray.Array, spec *Spec) (*ndarray.Array, error) {
	if spec.IsZero() {
		return a, nil
	}
	if spec.Array != nil {
		m, err := spec.Array.Array()
		if err != nil {
			return nil, errors.Wrap(err, "loading mask")
		}
		if m.DType().Kind != dtype.KindBool {
			if m, err = truthy(m); err != nil {
				return nil, err
			}
		}
		return combine(a, m)
	}
	return applySentinel(a, spec.Value)
}

func applySentinel(a *ndarray.Array, value any) (*ndarray.Array, error) {
	if !a.DType().Kind.IsNumeric() {
		return nil, errors.Wrapf(ErrSentinelKind, "cannot mask %s elements by %v", a.DType(), value)
	}
	target, ok := dtype.ToComplex(value)
	if !ok {
		return nil, errors.Wrapf(ErrSentinelKind, "sentinel %v is not a number", value)
	}
	isNaN := cmplx.IsNaN(target)

	m := ndarray.New(dtype.New(dtype.KindBool), a.Shape()...)
	bits := m.Buffer().Bytes()
	i, hits := 0, 0
	err := a.Data().Each(func(_ []int, v any) error {
		c, _ := dtype.ToComplex(v)
		if (isNaN && cmplx.IsNaN(c)) || (!isNaN && c == target) {
			bits[i] = 1
			hits++
		}
		i++
		return nil
	})
	if err != nil {
		return nil, err
	}
	if hits == 0 {
		return a, nil
	}
	return combine(a, m)
}

// combine masks a by m, keeping the elements a already masks.
func combine(a *ndarray.Array, m *ndarray.Array) (*ndarray.Array, error) {
	v, err := a.WithMask(m)
	if err != nil || !a.IsMasked() {
		return v, err
	}
	added := v.Mask()
	out := ndarray.New(dtype.New(dtype.KindBool), a.Shape()...)
	bits := out.Buffer().Bytes()
	i := 0
	err = a.Mask().Each(func(idx []int, old any) error {
		now, err := added.At(idx...)
		if err != nil {
			return err
		}
		if old.(bool) || now.(bool) {
			bits[i] = 1
		}
		i++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a.WithMask(out)
}

// truthy converts a numeric mask to bool8, true where non-zero.
func truthy(m *ndarray.Array) (*ndarray.Array, error) {
	if !m.DType().Kind.IsNumeric() {
		return nil, errors.Wrapf(ndarray.ErrShapeMismatch, "mask must be boolean or numeric, got %s", m.DType())
	}
	out := ndarray.New(dtype.New(dtype.KindBool), m.Shape()...)
	bits := out.Buffer().Bytes()
	i := 0
	err := m.Data().Each(func(_ []int, v any) error {
		if c, _ := dtype.ToComplex(v); c != 0 {
			bits[i] = 1
		}
		i++
		return nil
	})
	return out, err
}
