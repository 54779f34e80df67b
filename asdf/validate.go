package asdf

import (
	"fmt"
	"reflect"

	"github.com/robert-malhotra/go-asdf/internal/dtype"
	"github.com/robert-malhotra/go-asdf/internal/inline"
	"github.com/robert-malhotra/go-asdf/internal/ndarray"
)

// ValidationError is one failed schema check on an array.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...any) []*ValidationError {
	return []*ValidationError{{Message: fmt.Sprintf(format, args...)}}
}

// ndim returns the number of dimensions of an array-like instance: a
// literal list, an ndarray mapping, or an array.
func ndim(instance any) (int, bool) {
	switch x := instance.(type) {
	case []any:
		n, err := inline.NDim(x, nil)
		return n, err == nil
	case map[string]any:
		if s, ok := x["shape"].([]any); ok {
			return len(s), true
		}
		if data, ok := x["data"]; ok {
			t, _ := literalType(x)
			n, err := inline.NDim(data, t)
			return n, err == nil
		}
	case *ndarray.Array:
		return x.NDim(), true
	case *NDArray:
		s, err := x.Shape()
		return len(s), err == nil
	}
	return 0, false
}

// literalType decodes the datatype of an inline ndarray mapping, if any.
func literalType(m map[string]any) (*dtype.Type, error) {
	desc, ok := m["datatype"]
	if !ok {
		return nil, nil
	}
	return dtype.Decode(desc, dtype.HostOrder())
}

// ValidateNDim checks that instance has exactly expected dimensions.
func ValidateNDim(expected int, instance any) []*ValidationError {
	n, ok := ndim(instance)
	if !ok {
		return invalid("Not an array")
	}
	if n != expected {
		return invalid("Wrong number of dimensions: Expected %d, got %d", expected, n)
	}
	return nil
}

// ValidateMaxNDim checks that instance has at most limit dimensions.
func ValidateMaxNDim(limit int, instance any) []*ValidationError {
	n, ok := ndim(instance)
	if !ok {
		return invalid("Not an array")
	}
	if n > limit {
		return invalid("Wrong number of dimensions: Expected max of %d, got %d", limit, n)
	}
	return nil
}

// datatype returns the datatype descriptor of an array-like instance.
func datatype(instance any) (any, bool) {
	var t *dtype.Type
	switch x := instance.(type) {
	case []any:
		a, err := inline.ToArray(x, nil)
		if err != nil {
			return nil, false
		}
		t = a.DType()
	case map[string]any:
		if desc, ok := x["datatype"]; ok {
			return desc, true
		}
		data, ok := x["data"]
		if !ok {
			return nil, false
		}
		a, err := inline.ToArray(data, nil)
		if err != nil {
			return nil, false
		}
		t = a.DType()
	case *ndarray.Array:
		t = x.DType()
	case *NDArray:
		t = x.DType()
	}
	if t == nil {
		return nil, false
	}
	desc, _, err := dtype.Encode(t, true, dtype.OrderUnset)
	return desc, err == nil
}

// ValidateDatatype checks that the elements of instance can be converted
// to the expected datatype without loss. With exact set the datatypes must
// match.
func ValidateDatatype(expected any, instance any, exact bool) []*ValidationError {
	got, ok := datatype(instance)
	if !ok {
		return invalid("Not an array")
	}
	if sameDescriptor(expected, got) {
		return nil
	}

	var errs []*ValidationError
	if exact {
		errs = append(errs, invalid("Expected datatype '%v', got '%v'", expected, got)...)
	}

	want, err := dtype.Decode(expected, dtype.OrderUnset)
	if err != nil {
		return append(errs, invalid("Invalid expected datatype '%v': %v", expected, err)...)
	}
	have, err := dtype.Decode(got, dtype.OrderUnset)
	if err != nil {
		return append(errs, invalid("Invalid datatype '%v': %v", got, err)...)
	}

	if !want.IsRecord() {
		if have.IsRecord() {
			return append(errs, invalid("Expected scalar datatype '%v', got '%v'", expected, got)...)
		}
		if !dtype.CanCastSafe(have, want) {
			return append(errs, invalid("Can not safely cast from '%v' to '%v'", got, expected)...)
		}
		return errs
	}

	if !have.IsRecord() {
		return append(errs, invalid("Expected structured datatype '%v', got '%v'", expected, got)...)
	}
	if len(have.Fields) != len(want.Fields) {
		return append(errs, invalid("Mismatch in number of columns: Expected %d, got %d", len(want.Fields), len(have.Fields))...)
	}
	for i := range want.Fields {
		if !fieldCastSafe(have.Fields[i], want.Fields[i]) {
			errs = append(errs, invalid("Can not safely cast to expected datatype: Expected %v, got %v",
				fieldString(want.Fields[i]), fieldString(have.Fields[i]))...)
		}
	}
	return errs
}

func fieldCastSafe(from, to dtype.Field) bool {
	if len(from.Shape) != len(to.Shape) {
		return false
	}
	for i := range from.Shape {
		if from.Shape[i] != to.Shape[i] {
			return false
		}
	}
	return dtype.CanCastSafe(from.Type, to.Type)
}

func fieldString(f dtype.Field) string {
	return dtype.Record(f).String()
}

// sameDescriptor compares two descriptors structurally, treating all
// integer types alike.
func sameDescriptor(a, b any) bool {
	return reflect.DeepEqual(normalizeDescriptor(a), normalizeDescriptor(b))
}

func normalizeDescriptor(d any) any {
	switch x := d.(type) {
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalizeDescriptor(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = normalizeDescriptor(e)
		}
		return out
	}
	if n, ok := toInt(d); ok {
		return n
	}
	return d
}
