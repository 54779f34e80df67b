package ndarray

import (
	"github.com/cockroachdb/errors"
	"github.com/robert-malhotra/go-asdf/internal/dtype"
)

// Slice returns a view selecting every |step|-th element of [start, stop)
// along axis. Bounds are clamped, and negative bounds count from the end.
// A negative step visits the selected elements in reverse order.
func (a *Array) Slice(axis, start, stop, step int) (*Array, error) {
	if axis < 0 || axis >= len(a.shape) {
		return nil, errors.Wrapf(ErrIndex, "axis %d for %d dimensions", axis, len(a.shape))
	}
	if step == 0 {
		return nil, errors.Wrap(ErrIndex, "slice step cannot be zero")
	}
	n := a.shape[axis]
	start, stop = clamp(start, n), clamp(stop, n)
	abs := step
	if abs < 0 {
		abs = -abs
	}

	count := 0
	if stop > start {
		count = (stop - start + abs - 1) / abs
	}

	v := a.view()
	v.shape[axis] = count
	v.strides[axis] = a.strides[axis] * step
	if count > 0 {
		first := start
		if step < 0 {
			first = start + (count-1)*abs
		}
		v.offset += first * a.strides[axis]
	}
	if a.mask != nil {
		m, err := a.mask.Slice(axis, start, stop, step)
		if err != nil {
			return nil, err
		}
		v.mask = m
	}
	return v, nil
}

func clamp(i, n int) int {
	if i < 0 {
		i += n
	}
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

// Index returns the sub-array at position i of the leading axis.
func (a *Array) Index(i int) (*Array, error) {
	if len(a.shape) == 0 {
		return nil, errors.Wrap(ErrIndex, "cannot index a scalar")
	}
	if i < 0 {
		i += a.shape[0]
	}
	if i < 0 || i >= a.shape[0] {
		return nil, errors.Wrapf(ErrIndex, "index %d for axis 0 of size %d", i, a.shape[0])
	}
	v := &Array{
		dtype:   a.dtype,
		shape:   append([]int(nil), a.shape[1:]...),
		strides: append([]int(nil), a.strides[1:]...),
		offset:  a.offset + i*a.strides[0],
		buf:     a.buf,
	}
	if a.mask != nil {
		m, err := a.mask.Index(i)
		if err != nil {
			return nil, err
		}
		v.mask = m
	}
	return v, nil
}

// Transpose returns the view with the axes reversed.
func (a *Array) Transpose() *Array {
	v := a.view()
	for i, j := 0, len(v.shape)-1; i < j; i, j = i+1, j-1 {
		v.shape[i], v.shape[j] = v.shape[j], v.shape[i]
		v.strides[i], v.strides[j] = v.strides[j], v.strides[i]
	}
	if a.mask != nil {
		v.mask = a.mask.Transpose()
	}
	return v
}

// BroadcastTo returns a view of a with the given shape. Dimensions are
// aligned from the right; a dimension of length one stretches with a zero
// stride and missing leading dimensions are added.
func (a *Array) BroadcastTo(shape ...int) (*Array, error) {
	if len(shape) < len(a.shape) {
		return nil, errors.Wrapf(ErrShapeMismatch, "cannot broadcast %v to %v", a.shape, shape)
	}
	lead := len(shape) - len(a.shape)
	strides := make([]int, len(shape))
	for i := range shape {
		if i < lead {
			continue
		}
		d := a.shape[i-lead]
		switch {
		case d == shape[i]:
			strides[i] = a.strides[i-lead]
		case d == 1:
			strides[i] = 0
		default:
			return nil, errors.Wrapf(ErrShapeMismatch, "cannot broadcast %v to %v", a.shape, shape)
		}
	}
	v := &Array{
		dtype:   a.dtype,
		shape:   append([]int(nil), shape...),
		strides: strides,
		offset:  a.offset,
		buf:     a.buf,
	}
	if a.mask != nil {
		m, err := a.mask.BroadcastTo(shape...)
		if err != nil {
			return nil, err
		}
		v.mask = m
	}
	return v, nil
}

// Reshape returns a row-major view with a new shape of the same size. The
// array must be C-contiguous.
func (a *Array) Reshape(shape ...int) (*Array, error) {
	n := 1
	for _, d := range shape {
		n *= d
	}
	if n != a.Size() {
		return nil, errors.Wrapf(ErrShapeMismatch, "cannot reshape %v to %v", a.shape, shape)
	}
	if !a.IsCContiguous() {
		return nil, errors.Wrapf(ErrShapeMismatch, "cannot reshape a non-contiguous array")
	}
	v := &Array{
		dtype:   a.dtype,
		shape:   append([]int(nil), shape...),
		strides: CStrides(shape, a.dtype.ItemSize()),
		offset:  a.offset,
		buf:     a.buf,
	}
	if a.mask != nil {
		m, err := a.mask.Contiguous()
		if err != nil {
			return nil, err
		}
		if v.mask, err = m.Reshape(shape...); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// WithMask returns a view of a's data masked by mask. A mask of the same
// shape is used as a view; any other broadcastable mask is expanded into a
// new array so that element writes stay independent.
func (a *Array) WithMask(mask *Array) (*Array, error) {
	if mask.dtype.Kind != dtype.KindBool {
		return nil, errors.Wrapf(ErrShapeMismatch, "mask must be bool8, got %s", mask.dtype)
	}
	v := a.Data().view()
	mask = mask.Data()
	if !equalInts(mask.shape, a.shape) {
		b, err := mask.BroadcastTo(a.shape...)
		if err != nil {
			return nil, err
		}
		if mask, err = b.Contiguous(); err != nil {
			return nil, err
		}
	} else {
		mask = mask.view()
	}
	v.mask = mask
	return v, nil
}

// Contiguous returns a row-major copy of a in a new buffer. The mask, if
// any, is copied as well.
func (a *Array) Contiguous() (*Array, error) {
	if a.buf.Closed() {
		return nil, ErrStorageClosed
	}
	out := New(a.dtype, a.shape...)
	size := a.dtype.ItemSize()
	pos := 0
	a.each(func(_ []int, b []byte) bool {
		copy(out.buf.data[pos:pos+size], b)
		pos += size
		return true
	})
	if a.mask != nil {
		m, err := a.mask.Contiguous()
		if err != nil {
			return nil, err
		}
		out.mask = m
	}
	return out, nil
}

// Bytes returns the element bytes in row-major order. A C-contiguous array
// returns a sub-slice of its buffer; anything else is copied.
func (a *Array) Bytes() ([]byte, error) {
	if a.buf.Closed() {
		return nil, ErrStorageClosed
	}
	if a.IsCContiguous() {
		if a.Size() == 0 {
			return nil, nil
		}
		return a.buf.data[a.offset : a.offset+a.NBytes()], nil
	}
	c, err := a.Contiguous()
	if err != nil {
		return nil, err
	}
	return c.buf.data, nil
}

func (a *Array) view() *Array {
	return &Array{
		dtype:   a.dtype,
		shape:   append([]int(nil), a.shape...),
		strides: append([]int(nil), a.strides...),
		offset:  a.offset,
		buf:     a.buf,
		mask:    a.mask,
	}
}

func equalInts(a, b []int) bool {
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
