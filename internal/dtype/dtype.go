package dtype

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrMalformedType is returned when a descriptor cannot be decoded or a
// native type cannot be encoded.
var ErrMalformedType = errors.New("malformed datatype")

// Kind is the element kind of a Type.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindComplex64
	KindComplex128
	KindBool
	KindASCII // fixed-width byte string
	KindUCS4  // fixed-width wide-character string
	KindRecord
)

var kindNames = map[Kind]string{
	KindInt8:       "int8",
	KindInt16:      "int16",
	KindInt32:      "int32",
	KindInt64:      "int64",
	KindUint8:      "uint8",
	KindUint16:     "uint16",
	KindUint32:     "uint32",
	KindUint64:     "uint64",
	KindFloat32:    "float32",
	KindFloat64:    "float64",
	KindComplex64:  "complex64",
	KindComplex128: "complex128",
	KindBool:       "bool8",
	KindASCII:      "ascii",
	KindUCS4:       "ucs4",
	KindRecord:     "record",
}

var scalarSizes = map[Kind]int{
	KindInt8:       1,
	KindInt16:      2,
	KindInt32:      4,
	KindInt64:      8,
	KindUint8:      1,
	KindUint16:     2,
	KindUint32:     4,
	KindUint64:     8,
	KindFloat32:    4,
	KindFloat64:    8,
	KindComplex64:  8,
	KindComplex128: 16,
	KindBool:       1,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// IsSigned reports whether k is a signed integer kind.
func (k Kind) IsSigned() bool { return k >= KindInt8 && k <= KindInt64 }

// IsUnsigned reports whether k is an unsigned integer kind.
func (k Kind) IsUnsigned() bool { return k >= KindUint8 && k <= KindUint64 }

// IsInteger reports whether k is any integer kind.
func (k Kind) IsInteger() bool { return k.IsSigned() || k.IsUnsigned() }

// IsFloat reports whether k is a floating-point kind.
func (k Kind) IsFloat() bool { return k == KindFloat32 || k == KindFloat64 }

// IsComplex reports whether k is a complex kind.
func (k Kind) IsComplex() bool { return k == KindComplex64 || k == KindComplex128 }

// IsNumeric reports whether k is an integer, floating-point or complex kind.
func (k Kind) IsNumeric() bool { return k.IsInteger() || k.IsFloat() || k.IsComplex() }

// IsString reports whether k is a fixed-width string kind.
func (k Kind) IsString() bool { return k == KindASCII || k == KindUCS4 }

// ByteOrder is the byte order of a multi-byte element.
type ByteOrder uint8

const (
	OrderUnset  ByteOrder = iota // no explicit order
	OrderLittle                  // little-endian
	OrderBig                     // big-endian
	OrderNative                  // whatever the host uses
)

// hostOrder is the byte order of the running process.
var hostOrder = func() ByteOrder {
	if binary.NativeEndian.Uint16([]byte{1, 0}) == 1 {
		return OrderLittle
	}
	return OrderBig
}()

// HostOrder returns the byte order of the running process.
func HostOrder() ByteOrder {
	return hostOrder
}

// Resolve maps OrderNative and OrderUnset to the host order.
func (o ByteOrder) Resolve() ByteOrder {
	if o == OrderNative || o == OrderUnset {
		return hostOrder
	}
	return o
}

func (o ByteOrder) String() string {
	switch o {
	case OrderLittle:
		return "little"
	case OrderBig:
		return "big"
	case OrderNative:
		return "native"
	default:
		return "unset"
	}
}

// Binary returns the encoding/binary order for o.
func (o ByteOrder) Binary() binary.ByteOrder {
	if o.Resolve() == OrderBig {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// ParseByteOrder parses the tree spelling of a byte order.
func ParseByteOrder(s string) (ByteOrder, error) {
	switch s {
	case "little":
		return OrderLittle, nil
	case "big":
		return OrderBig, nil
	default:
		return OrderUnset, errors.Wrapf(ErrMalformedType, "invalid byteorder %q", s)
	}
}

// Type is a native element type.
type Type struct {
	Kind  Kind
	Order ByteOrder

	// Length is the number of characters of a string kind.
	Length int

	// Fields holds the members of a record, in layout order.
	Fields []Field
}

// Field is a named, possibly shaped, member of a record.
type Field struct {
	Name  string
	Type  *Type
	Shape []int
}

// New returns a scalar type of the given kind in host byte order.
func New(kind Kind) *Type {
	return &Type{Kind: kind, Order: OrderNative}
}

// FixedString returns a fixed-width string type of n characters.
func FixedString(kind Kind, n int) *Type {
	return &Type{Kind: kind, Order: OrderNative, Length: n}
}

// Record returns a record type with the given fields.
func Record(fields ...Field) *Type {
	return &Type{Kind: KindRecord, Fields: fields}
}

// IsRecord reports whether t is a record type.
func (t *Type) IsRecord() bool {
	return t.Kind == KindRecord
}

// ItemSize returns the size of one element in bytes.
func (t *Type) ItemSize() int {
	switch t.Kind {
	case KindASCII:
		return t.Length
	case KindUCS4:
		return 4 * t.Length
	case KindRecord:
		size := 0
		for _, f := range t.Fields {
			size += f.Size()
		}
		return size
	default:
		return scalarSizes[t.Kind]
	}
}

// Count returns the number of sub-elements held by the field.
func (f Field) Count() int {
	n := 1
	for _, d := range f.Shape {
		n *= d
	}
	return n
}

// Size returns the number of bytes occupied by the field.
func (f Field) Size() int {
	return f.Type.ItemSize() * f.Count()
}

// Offsets returns the byte offset of each record field. Records are packed.
func (t *Type) Offsets() []int {
	offsets := make([]int, len(t.Fields))
	off := 0
	for i, f := range t.Fields {
		offsets[i] = off
		off += f.Size()
	}
	return offsets
}

// FieldIndex returns the index of the named field, or -1.
func (t *Type) FieldIndex(name string) int {
	for i, f := range t.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// orderMatters reports whether the byte order affects the element bytes.
func (t *Type) orderMatters() bool {
	switch t.Kind {
	case KindASCII, KindRecord:
		return false
	case KindUCS4:
		return true
	default:
		return scalarSizes[t.Kind] > 1
	}
}

// Equal reports whether two types describe the same bytes. Byte order is
// compared after resolving the host order, and ignored where it does not
// affect the encoding.
func (t *Type) Equal(o *Type) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.Kind != o.Kind || t.Length != o.Length {
		return false
	}
	if t.orderMatters() && t.Order.Resolve() != o.Order.Resolve() {
		return false
	}
	if len(t.Fields) != len(o.Fields) {
		return false
	}
	for i := range t.Fields {
		a, b := t.Fields[i], o.Fields[i]
		if a.Name != b.Name || !intsEqual(a.Shape, b.Shape) || !a.Type.Equal(b.Type) {
			return false
		}
	}
	return true
}

// WithOrder returns a copy of t with every multi-byte element in order o.
func (t *Type) WithOrder(o ByteOrder) *Type {
	c := *t
	c.Order = o
	if t.IsRecord() {
		c.Fields = make([]Field, len(t.Fields))
		for i, f := range t.Fields {
			c.Fields[i] = Field{Name: f.Name, Type: f.Type.WithOrder(o), Shape: f.Shape}
		}
	}
	return &c
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindRecord:
		parts := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			s := f.Name + ":" + f.Type.String()
			if len(f.Shape) > 0 {
				s += fmt.Sprint(f.Shape)
			}
			parts[i] = s
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindASCII, KindUCS4:
		return fmt.Sprintf("%s%s[%d]", t.orderPrefix(), t.Kind, t.Length)
	default:
		return t.orderPrefix() + t.Kind.String()
	}
}

func (t *Type) orderPrefix() string {
	if !t.orderMatters() {
		return "|"
	}
	switch t.Order {
	case OrderLittle:
		return "<"
	case OrderBig:
		return ">"
	case OrderNative:
		return "="
	default:
		return "?"
	}
}

func intsEqual(a, b []int) bool {
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
