package ndarray

import (
	"math"
	"math/cmplx"

	"github.com/robert-malhotra/go-asdf/internal/dtype"
)

// Equal reports whether a and b have the same shape, the same masked
// positions and equal unmasked elements. Numbers compare by value across
// kinds, NaNs at the same position are equal, records compare field by
// field and strings compare as text.
func Equal(a, b *Array) bool {
	return compare(a, b, func(x, y any) bool { return valuesEqual(x, y, 0, 0) })
}

// AllClose is Equal with a tolerance for floating-point and complex
// elements: |x-y| <= atol + rtol*|y|. Integers still compare exactly.
func AllClose(a, b *Array, rtol, atol float64) bool {
	return compare(a, b, func(x, y any) bool { return valuesEqual(x, y, rtol, atol) })
}

func compare(a, b *Array, eq func(x, y any) bool) bool {
	if !equalInts(a.shape, b.shape) {
		return false
	}
	if a.dtype.IsRecord() != b.dtype.IsRecord() {
		return false
	}
	if a.buf.Closed() || b.buf.Closed() {
		return false
	}
	ok := true
	a.each(func(idx []int, raw []byte) bool {
		am, bm := a.MaskedAt(idx...), b.MaskedAt(idx...)
		if am != bm {
			ok = false
			return false
		}
		if am {
			return true
		}
		y, err := b.At(idx...)
		if err != nil {
			ok = false
			return false
		}
		ok = eq(dtype.Get(a.dtype, raw), y)
		return ok
	})
	return ok
}

func valuesEqual(x, y any, rtol, atol float64) bool {
	switch xv := x.(type) {
	case []any:
		yv, ok := y.([]any)
		if !ok || len(xv) != len(yv) {
			return false
		}
		for i := range xv {
			if !valuesEqual(xv[i], yv[i], rtol, atol) {
				return false
			}
		}
		return true
	case string:
		yv, ok := y.(string)
		return ok && xv == yv
	}
	if _, isList := y.([]any); isList {
		return false
	}
	if _, isStr := y.(string); isStr {
		return false
	}

	if xi, xok := integer(x); xok {
		if yi, yok := integer(y); yok {
			return xi.equal(yi)
		}
	}

	xc, xok := dtype.ToComplex(x)
	yc, yok := dtype.ToComplex(y)
	if !xok || !yok {
		return false
	}
	if cmplx.IsNaN(xc) || cmplx.IsNaN(yc) {
		return cmplx.IsNaN(xc) && cmplx.IsNaN(yc)
	}
	if xc == yc {
		return true
	}
	return cmplx.Abs(xc-yc) <= atol+rtol*cmplx.Abs(yc)
}

// intValue holds any Go integer without loss.
type intValue struct {
	neg bool
	mag uint64
}

func (i intValue) equal(o intValue) bool {
	return i.mag == o.mag && (i.neg == o.neg || i.mag == 0)
}

func integer(v any) (intValue, bool) {
	var s int64
	switch x := v.(type) {
	case int8:
		s = int64(x)
	case int16:
		s = int64(x)
	case int32:
		s = int64(x)
	case int64:
		s = x
	case int:
		s = int64(x)
	case uint8:
		return intValue{mag: uint64(x)}, true
	case uint16:
		return intValue{mag: uint64(x)}, true
	case uint32:
		return intValue{mag: uint64(x)}, true
	case uint64:
		return intValue{mag: x}, true
	case uint:
		return intValue{mag: uint64(x)}, true
	default:
		return intValue{}, false
	}
	if s < 0 {
		if s == math.MinInt64 {
			return intValue{neg: true, mag: 1 << 63}, true
		}
		return intValue{neg: true, mag: uint64(-s)}, true
	}
	return intValue{mag: uint64(s)}, true
}
