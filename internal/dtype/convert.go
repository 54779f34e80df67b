package dtype

// Element Codec
//
// Get and Put move a single element between its raw bytes and a Go value.
// Scalars map to the Go type of the same name; strings map to string with
// trailing NULs stripped; records map to []any holding one value per field,
// and a shaped field holds a nested []any of its sub-elements.
//
// Put accepts any Go number for a numeric kind as long as the value fits
// without loss: integers are range-checked and floats stored into integer
// kinds must be integral. Strings longer than the field are truncated.

import (
	"math"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
)

// ErrIncompatibleValue is returned by Put when a value cannot be stored in
// the element type.
var ErrIncompatibleValue = errors.New("incompatible value for datatype")

// Get decodes one element from b. b must hold at least t.ItemSize() bytes.
func Get(t *Type, b []byte) any {
	order := t.Order.Binary()

	switch t.Kind {
	case KindInt8:
		return int8(b[0])
	case KindInt16:
		return int16(order.Uint16(b))
	case KindInt32:
		return int32(order.Uint32(b))
	case KindInt64:
		return int64(order.Uint64(b))
	case KindUint8:
		return b[0]
	case KindUint16:
		return order.Uint16(b)
	case KindUint32:
		return order.Uint32(b)
	case KindUint64:
		return order.Uint64(b)
	case KindFloat32:
		return math.Float32frombits(order.Uint32(b))
	case KindFloat64:
		return math.Float64frombits(order.Uint64(b))
	case KindComplex64:
		re := math.Float32frombits(order.Uint32(b))
		im := math.Float32frombits(order.Uint32(b[4:]))
		return complex(re, im)
	case KindComplex128:
		re := math.Float64frombits(order.Uint64(b))
		im := math.Float64frombits(order.Uint64(b[8:]))
		return complex(re, im)
	case KindBool:
		return b[0] != 0
	case KindASCII:
		s := b[:t.Length]
		end := len(s)
		for end > 0 && s[end-1] == 0 {
			end--
		}
		return string(s[:end])
	case KindUCS4:
		runes := make([]rune, t.Length)
		for i := range runes {
			runes[i] = rune(order.Uint32(b[4*i:]))
		}
		end := len(runes)
		for end > 0 && runes[end-1] == 0 {
			end--
		}
		return string(runes[:end])
	case KindRecord:
		offsets := t.Offsets()
		values := make([]any, len(t.Fields))
		for i, f := range t.Fields {
			values[i] = getField(f, b[offsets[i]:])
		}
		return values
	default:
		return nil
	}
}

func getField(f Field, b []byte) any {
	if len(f.Shape) == 0 {
		return Get(f.Type, b)
	}
	return getNested(f.Type, f.Shape, b)
}

func getNested(t *Type, shape []int, b []byte) any {
	if len(shape) == 0 {
		return Get(t, b)
	}
	inner := t.ItemSize()
	for _, d := range shape[1:] {
		inner *= d
	}
	out := make([]any, shape[0])
	for i := range out {
		out[i] = getNested(t, shape[1:], b[i*inner:])
	}
	return out
}

// Put encodes v into b as one element of type t.
func Put(t *Type, b []byte, v any) error {
	order := t.Order.Binary()

	switch {
	case t.Kind.IsInteger():
		return putInteger(t, b, v)

	case t.Kind == KindFloat32:
		f, ok := toFloat(v)
		if !ok {
			return incompatible(t, v)
		}
		order.PutUint32(b, math.Float32bits(float32(f)))
	case t.Kind == KindFloat64:
		f, ok := toFloat(v)
		if !ok {
			return incompatible(t, v)
		}
		order.PutUint64(b, math.Float64bits(f))

	case t.Kind == KindComplex64:
		c, ok := toComplex(v)
		if !ok {
			return incompatible(t, v)
		}
		order.PutUint32(b, math.Float32bits(float32(real(c))))
		order.PutUint32(b[4:], math.Float32bits(float32(imag(c))))
	case t.Kind == KindComplex128:
		c, ok := toComplex(v)
		if !ok {
			return incompatible(t, v)
		}
		order.PutUint64(b, math.Float64bits(real(c)))
		order.PutUint64(b[8:], math.Float64bits(imag(c)))

	case t.Kind == KindBool:
		switch x := v.(type) {
		case bool:
			b[0] = 0
			if x {
				b[0] = 1
			}
		default:
			f, ok := toFloat(v)
			if !ok {
				return incompatible(t, v)
			}
			b[0] = 0
			if f != 0 {
				b[0] = 1
			}
		}

	case t.Kind == KindASCII:
		var s []byte
		switch x := v.(type) {
		case string:
			s = []byte(x)
		case []byte:
			s = x
		default:
			return incompatible(t, v)
		}
		for _, c := range s {
			if c >= utf8.RuneSelf {
				return errors.Wrapf(ErrIncompatibleValue, "non-ascii byte 0x%02x in %q", c, s)
			}
		}
		if len(s) > t.Length {
			s = s[:t.Length]
		}
		n := copy(b[:t.Length], s)
		clear(b[n:t.Length])

	case t.Kind == KindUCS4:
		var s string
		switch x := v.(type) {
		case string:
			s = x
		case []byte:
			s = string(x)
		default:
			return incompatible(t, v)
		}
		i := 0
		for _, r := range s {
			if i == t.Length {
				break
			}
			order.PutUint32(b[4*i:], uint32(r))
			i++
		}
		clear(b[4*i : 4*t.Length])

	case t.Kind == KindRecord:
		values, ok := v.([]any)
		if !ok || len(values) != len(t.Fields) {
			return errors.Wrapf(ErrIncompatibleValue, "record of %d fields cannot hold %v", len(t.Fields), v)
		}
		offsets := t.Offsets()
		for i, f := range t.Fields {
			if err := putField(f, b[offsets[i]:], values[i]); err != nil {
				return errors.Wrapf(err, "field %q", f.Name)
			}
		}

	default:
		return errors.Wrapf(ErrMalformedType, "cannot store values of kind %s", t.Kind)
	}
	return nil
}

func putField(f Field, b []byte, v any) error {
	if len(f.Shape) == 0 {
		if _, isList := v.([]any); isList {
			return errors.Wrapf(ErrIncompatibleValue, "scalar field cannot hold a list")
		}
		return Put(f.Type, b, v)
	}
	return putNested(f.Type, f.Shape, b, v)
}

func putNested(t *Type, shape []int, b []byte, v any) error {
	if len(shape) == 0 {
		if _, isList := v.([]any); isList {
			return errors.Wrapf(ErrIncompatibleValue, "too many nesting levels")
		}
		return Put(t, b, v)
	}
	list, ok := v.([]any)
	if !ok || len(list) != shape[0] {
		return errors.Wrapf(ErrIncompatibleValue, "expected a list of length %d, got %v", shape[0], v)
	}
	inner := t.ItemSize()
	for _, d := range shape[1:] {
		inner *= d
	}
	for i, item := range list {
		if err := putNested(t, shape[1:], b[i*inner:], item); err != nil {
			return err
		}
	}
	return nil
}

func putInteger(t *Type, b []byte, v any) error {
	order := t.Order.Binary()
	size := t.ItemSize()

	if t.Kind.IsUnsigned() {
		u, ok := toUint(v)
		if !ok {
			return incompatible(t, v)
		}
		if size < 8 && u >= 1<<(8*size) {
			return errors.Wrapf(ErrIncompatibleValue, "%d overflows %s", u, t.Kind)
		}
		switch size {
		case 1:
			b[0] = uint8(u)
		case 2:
			order.PutUint16(b, uint16(u))
		case 4:
			order.PutUint32(b, uint32(u))
		default:
			order.PutUint64(b, u)
		}
		return nil
	}

	i, ok := toInt64(v)
	if !ok {
		return incompatible(t, v)
	}
	if size < 8 {
		limit := int64(1) << (8*size - 1)
		if i < -limit || i >= limit {
			return errors.Wrapf(ErrIncompatibleValue, "%d overflows %s", i, t.Kind)
		}
	}
	switch size {
	case 1:
		b[0] = uint8(i)
	case 2:
		order.PutUint16(b, uint16(i))
	case 4:
		order.PutUint32(b, uint32(i))
	default:
		order.PutUint64(b, uint64(i))
	}
	return nil
}

// Zero returns the fill value of t.
func Zero(t *Type) any {
	switch t.Kind {
	case KindInt8:
		return int8(0)
	case KindInt16:
		return int16(0)
	case KindInt32:
		return int32(0)
	case KindInt64:
		return int64(0)
	case KindUint8:
		return uint8(0)
	case KindUint16:
		return uint16(0)
	case KindUint32:
		return uint32(0)
	case KindUint64:
		return uint64(0)
	case KindFloat32:
		return float32(0)
	case KindFloat64:
		return float64(0)
	case KindComplex64:
		return complex64(0)
	case KindComplex128:
		return complex128(0)
	case KindBool:
		return false
	case KindASCII, KindUCS4:
		return ""
	case KindRecord:
		values := make([]any, len(t.Fields))
		for i, f := range t.Fields {
			values[i] = zeroNested(f.Type, f.Shape)
		}
		return values
	default:
		return nil
	}
}

func zeroNested(t *Type, shape []int) any {
	if len(shape) == 0 {
		return Zero(t)
	}
	out := make([]any, shape[0])
	for i := range out {
		out[i] = zeroNested(t, shape[1:])
	}
	return out
}

func incompatible(t *Type, v any) error {
	return errors.Wrapf(ErrIncompatibleValue, "cannot store %T(%v) as %s", v, v, t.Kind)
}

// toInt64 converts v to int64 when that is exact.
func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case uint:
		return int64(x), uint64(x) <= math.MaxInt64
	case uint64:
		return int64(x), x <= math.MaxInt64
	case float32:
		return floatToInt64(float64(x))
	case float64:
		return floatToInt64(x)
	default:
		if n, ok := toInt(v); ok {
			return int64(n), true
		}
		return 0, false
	}
}

func floatToInt64(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// toUint converts v to uint64 when that is exact.
func toUint(v any) (uint64, bool) {
	switch x := v.(type) {
	case uint:
		return uint64(x), true
	case uint64:
		return x, true
	case float32:
		return floatToUint64(float64(x))
	case float64:
		return floatToUint64(x)
	default:
		i, ok := toInt64(v)
		if !ok || i < 0 {
			return 0, false
		}
		return uint64(i), true
	}
}

func floatToUint64(f float64) (uint64, bool) {
	if f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 {
		return 0, false
	}
	return uint64(f), true
}

// toFloat converts any real Go number to float64.
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case uint:
		return float64(x), true
	case uint64:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	default:
		if n, ok := toInt(v); ok {
			return float64(n), true
		}
		return 0, false
	}
}

// toComplex converts any Go number to complex128.
func toComplex(v any) (complex128, bool) {
	switch x := v.(type) {
	case complex64:
		return complex128(x), true
	case complex128:
		return x, true
	default:
		f, ok := toFloat(v)
		return complex(f, 0), ok
	}
}

// ToFloat converts a real Go number to float64. It is used by callers that
// compare element values numerically.
func ToFloat(v any) (float64, bool) {
	return toFloat(v)
}

// ToComplex converts any Go number to complex128.
func ToComplex(v any) (complex128, bool) {
	return toComplex(v)
}
