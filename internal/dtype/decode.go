package dtype

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var datatypeNames = map[string]Kind{
	"int8":       KindInt8,
	"int16":      KindInt16,
	"int32":      KindInt32,
	"int64":      KindInt64,
	"uint8":      KindUint8,
	"uint16":     KindUint16,
	"uint32":     KindUint32,
	"uint64":     KindUint64,
	"float32":    KindFloat32,
	"float64":    KindFloat64,
	"complex64":  KindComplex64,
	"complex128": KindComplex128,
	"bool8":      KindBool,
}

var charsetNames = map[string]Kind{
	"ascii": KindASCII,
	"ucs4":  KindUCS4,
}

// Decode converts a descriptor into a native type. Byte order defaults to
// order unless a field overrides it; OrderUnset and OrderNative resolve to
// the host order.
func Decode(desc any, order ByteOrder) (*Type, error) {
	order = order.Resolve()

	switch d := desc.(type) {
	case string:
		kind, ok := datatypeNames[d]
		if !ok {
			return nil, errors.Wrapf(ErrMalformedType, "unknown datatype %q", d)
		}
		return &Type{Kind: kind, Order: order}, nil

	case []any:
		if t, ok, err := decodeFixedString(d, order); ok || err != nil {
			return t, err
		}
		return decodeRecord(d, order)

	case map[string]any:
		return nil, errors.Wrapf(ErrMalformedType, "field entry outside of a record: %v", d)

	default:
		return nil, errors.Wrapf(ErrMalformedType, "unknown datatype %v", desc)
	}
}

// decodeFixedString handles the two-element [charset, length] form. ok is
// false when d does not have that form.
func decodeFixedString(d []any, order ByteOrder) (*Type, bool, error) {
	if len(d) != 2 {
		return nil, false, nil
	}
	charset, isStr := d[0].(string)
	length, isInt := toInt(d[1])
	if !isStr || !isInt {
		return nil, false, nil
	}
	kind, ok := charsetNames[charset]
	if !ok {
		return nil, true, errors.Wrapf(ErrMalformedType, "unknown charset %q", charset)
	}
	if length < 0 {
		return nil, true, errors.Wrapf(ErrMalformedType, "negative string length %d", length)
	}
	return &Type{Kind: kind, Order: order, Length: length}, true, nil
}

func decodeRecord(entries []any, order ByteOrder) (*Type, error) {
	if len(entries) == 0 {
		return nil, errors.Wrap(ErrMalformedType, "record has no fields")
	}
	t := &Type{Kind: KindRecord, Order: order, Fields: make([]Field, 0, len(entries))}
	for i, entry := range entries {
		var (
			f   Field
			err error
		)
		if m, ok := entry.(map[string]any); ok {
			f, err = decodeField(m, order)
		} else {
			f.Type, err = Decode(entry, order)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "record field %d", i)
		}
		if f.Name == "" {
			f.Name = fmt.Sprintf("f%d", i)
		}
		if t.FieldIndex(f.Name) >= 0 {
			return nil, errors.Wrapf(ErrMalformedType, "duplicate field name %q", f.Name)
		}
		t.Fields = append(t.Fields, f)
	}
	return t, nil
}

func decodeField(m map[string]any, order ByteOrder) (Field, error) {
	var f Field
	sub, ok := m["datatype"]
	if !ok {
		return f, errors.Wrapf(ErrMalformedType, "field entry has no datatype: %v", m)
	}
	if name, ok := m["name"]; ok && name != nil {
		f.Name = fmt.Sprint(name)
	}
	if bo, ok := m["byteorder"]; ok && bo != nil {
		s, isStr := bo.(string)
		if !isStr {
			return f, errors.Wrapf(ErrMalformedType, "invalid byteorder %v", bo)
		}
		var err error
		if order, err = ParseByteOrder(s); err != nil {
			return f, err
		}
	}
	if shape, ok := m["shape"]; ok && shape != nil {
		dims, isList := shape.([]any)
		if !isList {
			return f, errors.Wrapf(ErrMalformedType, "field %q shape is not a list", f.Name)
		}
		f.Shape = make([]int, len(dims))
		for i, d := range dims {
			n, isInt := toInt(d)
			if !isInt || n < 0 {
				return f, errors.Wrapf(ErrMalformedType, "field %q shape entry %v is not a dimension", f.Name, d)
			}
			f.Shape[i] = n
		}
	}
	t, err := Decode(sub, order)
	if err != nil {
		return f, errors.Wrapf(err, "field %q", f.Name)
	}
	f.Type = t
	return f, nil
}

// toInt converts the integer spellings a tree decoder may produce.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	default:
		return 0, false
	}
}
