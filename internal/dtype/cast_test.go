package dtype

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanCastSafe(t *testing.T) {
	tests := []struct {
		from, to *Type
		want     bool
	}{
		{New(KindInt32), New(KindInt64), true},
		{New(KindInt64), New(KindInt32), false},
		{New(KindFloat64), New(KindFloat32), false},
		{New(KindFloat32), New(KindFloat64), true},
		{New(KindInt16), New(KindFloat32), true},
		{New(KindInt32), New(KindFloat32), false},
		{New(KindInt64), New(KindFloat64), true},
		{New(KindUint8), New(KindInt16), true},
		{New(KindUint16), New(KindInt16), false},
		{New(KindInt8), New(KindUint64), false},
		{New(KindFloat64), New(KindComplex128), true},
		{New(KindFloat64), New(KindComplex64), false},
		{New(KindComplex128), New(KindFloat64), false},
		{New(KindBool), New(KindInt8), true},
		{New(KindInt8), New(KindBool), false},
		{FixedString(KindASCII, 3), FixedString(KindUCS4, 3), true},
		{FixedString(KindASCII, 4), FixedString(KindASCII, 3), false},
		{FixedString(KindUCS4, 2), FixedString(KindASCII, 8), false},
		{New(KindInt32).WithOrder(OrderBig), New(KindInt32).WithOrder(OrderLittle), true},
		{
			Record(Field{Name: "a", Type: New(KindInt8)}, Field{Name: "b", Type: New(KindFloat32)}),
			Record(Field{Name: "x", Type: New(KindInt16)}, Field{Name: "y", Type: New(KindFloat64)}),
			true,
		},
		{
			Record(Field{Name: "a", Type: New(KindInt8)}),
			Record(Field{Name: "a", Type: New(KindInt8)}, Field{Name: "b", Type: New(KindInt8)}),
			false,
		},
		{
			Record(Field{Name: "a", Type: New(KindInt8), Shape: []int{2}}),
			Record(Field{Name: "a", Type: New(KindInt8), Shape: []int{3}}),
			false,
		},
		{Record(Field{Name: "a", Type: New(KindInt8)}), New(KindInt8), false},
		{nil, New(KindInt8), false},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			require.Equal(t, tt.want, CanCastSafe(tt.from, tt.to))
		})
	}
}
