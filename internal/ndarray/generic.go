package ndarray

import (
	"reflect"

	"github.com/cockroachdb/errors"
	"golang.org/x/exp/constraints"

	"github.com/robert-malhotra/go-asdf/internal/dtype"
)

// Element is a Go type that maps to a scalar element kind.
type Element interface {
	constraints.Integer | constraints.Float | constraints.Complex | ~bool
}

// FromSlice returns a row-major array holding values. With no shape the
// array is one-dimensional.
func FromSlice[T Element](values []T, shape ...int) (*Array, error) {
	t, err := dtype.FromGoType(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	if len(shape) == 0 {
		shape = []int{len(values)}
	}
	a := New(t, shape...)
	if a.Size() != len(values) {
		return nil, errors.Wrapf(ErrShapeMismatch, "%d values for shape %v", len(values), shape)
	}
	size := t.ItemSize()
	for i, v := range values {
		if err := dtype.Put(t, a.buf.data[i*size:], toPlain(reflect.ValueOf(v))); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Values returns the elements of a in row-major order converted to T.
func Values[T Element](a *Array) ([]T, error) {
	if a.dtype.IsRecord() || a.dtype.Kind.IsString() {
		return nil, errors.Wrapf(dtype.ErrIncompatibleValue, "cannot convert %s elements", a.dtype)
	}
	target := reflect.TypeFor[T]()
	out := make([]T, 0, a.Size())
	err := a.Each(func(_ []int, v any) error {
		rv := reflect.ValueOf(v)
		if !rv.CanConvert(target) {
			return errors.Wrapf(dtype.ErrIncompatibleValue, "cannot convert %T to %v", v, target)
		}
		out = append(out, rv.Convert(target).Interface().(T))
		return nil
	})
	return out, err
}

// toPlain strips named types so dtype.Put sees a builtin value.
func toPlain(v reflect.Value) any {
	switch v.Kind() {
	case reflect.Bool:
		return v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint()
	case reflect.Float32, reflect.Float64:
		return v.Float()
	default:
		return v.Complex()
	}
}
