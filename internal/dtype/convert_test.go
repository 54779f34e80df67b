package dtype

import (
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestGetPutScalars(t *testing.T) {
	tests := []struct {
		typ  *Type
		in   any
		want any
	}{
		{New(KindInt8), -5, int8(-5)},
		{New(KindInt16).WithOrder(OrderBig), int64(-300), int16(-300)},
		{New(KindInt32).WithOrder(OrderLittle), 7.0, int32(7)},
		{New(KindInt64), uint64(1 << 40), int64(1 << 40)},
		{New(KindUint8), 255, uint8(255)},
		{New(KindUint16).WithOrder(OrderBig), 513, uint16(513)},
		{New(KindUint32), true, uint32(1)},
		{New(KindUint64), uint64(math.MaxUint64), uint64(math.MaxUint64)},
		{New(KindFloat32), 1.5, float32(1.5)},
		{New(KindFloat64).WithOrder(OrderBig), 3, float64(3)},
		{New(KindComplex64), complex(1, -2), complex64(complex(1, -2))},
		{New(KindComplex128), 2.5, complex(2.5, 0)},
		{New(KindBool), 0, false},
		{New(KindBool), true, true},
		{FixedString(KindASCII, 5), "hi", "hi"},
		{FixedString(KindASCII, 2), "hello", "he"},
		{FixedString(KindUCS4, 4).WithOrder(OrderBig), "héllo", "héll"},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			b := make([]byte, tt.typ.ItemSize())
			require.NoError(t, Put(tt.typ, b, tt.in))
			require.Equal(t, tt.want, Get(tt.typ, b))
		})
	}
}

func TestPutRejects(t *testing.T) {
	tests := []struct {
		name string
		typ  *Type
		in   any
	}{
		{"int8 overflow", New(KindInt8), 128},
		{"int16 underflow", New(KindInt16), -40000},
		{"uint8 negative", New(KindUint8), -1},
		{"uint16 overflow", New(KindUint16), 1 << 16},
		{"fractional into int", New(KindInt32), 1.5},
		{"string into float", New(KindFloat64), "1.0"},
		{"complex into float", New(KindFloat64), complex(1, 1)},
		{"non-ascii", FixedString(KindASCII, 4), "é"},
		{"number into string", FixedString(KindUCS4, 4), 3},
		{"short record", Record(Field{Name: "a", Type: New(KindInt8)}, Field{Name: "b", Type: New(KindInt8)}), []any{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := make([]byte, tt.typ.ItemSize())
			err := Put(tt.typ, b, tt.in)
			require.True(t, errors.Is(err, ErrIncompatibleValue), "got %v", err)
		})
	}
}

func TestGetPutRecord(t *testing.T) {
	typ := Record(
		Field{Name: "id", Type: New(KindUint16).WithOrder(OrderBig)},
		Field{Name: "pos", Type: New(KindFloat32).WithOrder(OrderLittle), Shape: []int{2, 2}},
		Field{Name: "tag", Type: FixedString(KindASCII, 3)},
	)
	require.Equal(t, 2+16+3, typ.ItemSize())

	value := []any{
		uint16(9),
		[]any{[]any{float32(1), float32(2)}, []any{float32(3), float32(4)}},
		"ab",
	}
	b := make([]byte, typ.ItemSize())
	require.NoError(t, Put(typ, b, value))
	require.Equal(t, []byte{0, 9}, b[:2])
	require.Equal(t, value, Get(typ, b))

	bad := []any{uint16(1), []any{float32(1)}, "x"}
	require.Error(t, Put(typ, b, bad))
}

func TestZero(t *testing.T) {
	require.Equal(t, int32(0), Zero(New(KindInt32)))
	require.Equal(t, "", Zero(FixedString(KindUCS4, 3)))
	require.Equal(t, false, Zero(New(KindBool)))

	typ := Record(
		Field{Name: "a", Type: New(KindFloat64)},
		Field{Name: "b", Type: New(KindInt8), Shape: []int{2}},
	)
	require.Equal(t, []any{float64(0), []any{int8(0), int8(0)}}, Zero(typ))
}
