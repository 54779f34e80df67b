package dtype

import (
	"reflect"

	"github.com/cockroachdb/errors"
)

// Encode converts a native type into its descriptor and the byte order that
// should accompany it. When override is not OrderUnset it replaces the
// type's own order everywhere. Types whose bytes do not depend on order
// (single-byte kinds, ascii, records) report big-endian unless overridden.
func Encode(t *Type, includeByteOrder bool, override ByteOrder) (any, ByteOrder, error) {
	if t == nil {
		return nil, OrderUnset, errors.Wrap(ErrMalformedType, "nil datatype")
	}

	switch t.Kind {
	case KindRecord:
		if len(t.Fields) == 0 {
			return nil, OrderUnset, errors.Wrap(ErrMalformedType, "record has no fields")
		}
		fields := make([]any, 0, len(t.Fields))
		for _, f := range t.Fields {
			sub, order, err := Encode(f.Type, includeByteOrder, override)
			if err != nil {
				return nil, OrderUnset, errors.Wrapf(err, "field %q", f.Name)
			}
			entry := map[string]any{
				"name":     f.Name,
				"datatype": sub,
			}
			if includeByteOrder {
				entry["byteorder"] = order.String()
			}
			if len(f.Shape) > 0 {
				shape := make([]any, len(f.Shape))
				for i, d := range f.Shape {
					shape[i] = d
				}
				entry["shape"] = shape
			}
			fields = append(fields, entry)
		}
		return fields, resolveOrder(t, override), nil

	case KindASCII, KindUCS4:
		if t.Length < 0 {
			return nil, OrderUnset, errors.Wrapf(ErrMalformedType, "negative string length %d", t.Length)
		}
		return []any{t.Kind.String(), t.Length}, resolveOrder(t, override), nil

	default:
		if _, ok := scalarSizes[t.Kind]; !ok {
			return nil, OrderUnset, errors.Wrapf(ErrMalformedType, "unknown dtype %s", t.Kind)
		}
		return t.Kind.String(), resolveOrder(t, override), nil
	}
}

func resolveOrder(t *Type, override ByteOrder) ByteOrder {
	if override != OrderUnset {
		return override.Resolve()
	}
	if !t.orderMatters() {
		return OrderBig
	}
	return t.Order.Resolve()
}

// FromGoType returns the native type for a Go element type, in host order.
// Slices, arrays and pointers are unwrapped to their element type. Strings
// map to a zero-length ucs4 type; the caller sizes it from the data.
func FromGoType(rt reflect.Type) (*Type, error) {
	for rt.Kind() == reflect.Ptr || rt.Kind() == reflect.Slice || rt.Kind() == reflect.Array {
		rt = rt.Elem()
	}

	switch rt.Kind() {
	case reflect.Int8:
		return New(KindInt8), nil
	case reflect.Int16:
		return New(KindInt16), nil
	case reflect.Int32:
		return New(KindInt32), nil
	case reflect.Int64, reflect.Int:
		return New(KindInt64), nil
	case reflect.Uint8:
		return New(KindUint8), nil
	case reflect.Uint16:
		return New(KindUint16), nil
	case reflect.Uint32:
		return New(KindUint32), nil
	case reflect.Uint64, reflect.Uint:
		return New(KindUint64), nil
	case reflect.Float32:
		return New(KindFloat32), nil
	case reflect.Float64:
		return New(KindFloat64), nil
	case reflect.Complex64:
		return New(KindComplex64), nil
	case reflect.Complex128:
		return New(KindComplex128), nil
	case reflect.Bool:
		return New(KindBool), nil
	case reflect.String:
		return FixedString(KindUCS4, 0), nil
	default:
		return nil, errors.Wrapf(ErrMalformedType, "unsupported Go type: %v", rt)
	}
}
