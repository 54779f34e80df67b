package ndarray

import (
	"github.com/cockroachdb/errors"
	"github.com/robert-malhotra/go-asdf/internal/dtype"
)

var (
	// ErrShapeMismatch is returned when a shape does not fit the data it
	// describes.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrIndex is returned for out-of-range indices.
	ErrIndex = errors.New("index out of range")

	// ErrStorageClosed is returned when an array's buffer storage has been
	// closed.
	ErrStorageClosed = errors.New("array storage is closed")

	// ErrReadOnly is returned when writing to an array over read-only
	// storage, such as a memory-mapped block.
	ErrReadOnly = errors.New("array is read-only")
)

// Array is an N-dimensional view over a Buffer.
type Array struct {
	dtype   *dtype.Type
	shape   []int
	strides []int
	offset  int
	buf     *Buffer
	mask    *Array
}

// New returns a zero-filled row-major array.
func New(t *dtype.Type, shape ...int) *Array {
	shape = append([]int(nil), shape...)
	n := t.ItemSize()
	for _, d := range shape {
		n *= d
	}
	return &Array{
		dtype:   t,
		shape:   shape,
		strides: CStrides(shape, t.ItemSize()),
		buf:     NewBuffer(make([]byte, n)),
	}
}

// FromBuffer returns a view of buf. Nil strides mean row-major. Fails with
// ErrShapeMismatch when any element would fall outside the buffer.
func FromBuffer(buf *Buffer, t *dtype.Type, shape []int, offset int, strides []int) (*Array, error) {
	shape = append([]int(nil), shape...)
	if strides == nil {
		strides = CStrides(shape, t.ItemSize())
	} else {
		strides = append([]int(nil), strides...)
	}
	if len(strides) != len(shape) {
		return nil, errors.Wrapf(ErrShapeMismatch, "%d strides for %d dimensions", len(strides), len(shape))
	}
	for _, d := range shape {
		if d < 0 {
			return nil, errors.Wrapf(ErrShapeMismatch, "negative dimension in %v", shape)
		}
	}
	a := &Array{dtype: t, shape: shape, strides: strides, offset: offset, buf: buf}
	if lo, hi, ok := a.extent(); ok && (lo < 0 || hi > buf.Len()) {
		return nil, errors.Wrapf(ErrShapeMismatch,
			"array of shape %v with offset %d and strides %v needs bytes [%d, %d) of a %d byte buffer",
			shape, offset, strides, lo, hi, buf.Len())
	}
	return a, nil
}

// extent returns the byte range touched by the array. ok is false for
// arrays with no elements.
func (a *Array) extent() (lo, hi int, ok bool) {
	lo, hi = a.offset, a.offset
	for i, d := range a.shape {
		if d == 0 {
			return 0, 0, false
		}
		span := (d - 1) * a.strides[i]
		if span > 0 {
			hi += span
		} else {
			lo += span
		}
	}
	return lo, hi + a.dtype.ItemSize(), true
}

// CStrides returns row-major strides for shape.
func CStrides(shape []int, itemSize int) []int {
	strides := make([]int, len(shape))
	s := itemSize
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = s
		if shape[i] > 1 {
			s *= shape[i]
		}
	}
	return strides
}

// DType returns the element type.
func (a *Array) DType() *dtype.Type { return a.dtype }

// Shape returns the dimensions. The caller must not modify the result.
func (a *Array) Shape() []int { return a.shape }

// Strides returns the byte strides. The caller must not modify the result.
func (a *Array) Strides() []int { return a.strides }

// Offset returns the byte offset of the first element in the buffer.
func (a *Array) Offset() int { return a.offset }

// Buffer returns the shared base buffer.
func (a *Array) Buffer() *Buffer { return a.buf }

// NDim returns the number of dimensions.
func (a *Array) NDim() int { return len(a.shape) }

// Size returns the number of elements.
func (a *Array) Size() int {
	n := 1
	for _, d := range a.shape {
		n *= d
	}
	return n
}

// Len returns the leading dimension, or 0 for a scalar.
func (a *Array) Len() int {
	if len(a.shape) == 0 {
		return 0
	}
	return a.shape[0]
}

// NBytes returns the number of bytes held by the elements.
func (a *Array) NBytes() int {
	return a.Size() * a.dtype.ItemSize()
}

// IsCContiguous reports whether the elements are laid out row-major with no
// gaps. Dimensions of length one are ignored.
func (a *Array) IsCContiguous() bool {
	if a.Size() == 0 {
		return true
	}
	want := a.dtype.ItemSize()
	for i := len(a.shape) - 1; i >= 0; i-- {
		if a.shape[i] == 1 {
			continue
		}
		if a.strides[i] != want {
			return false
		}
		want *= a.shape[i]
	}
	return true
}

// IsFContiguous reports whether the elements are laid out column-major with
// no gaps.
func (a *Array) IsFContiguous() bool {
	if a.Size() == 0 {
		return true
	}
	want := a.dtype.ItemSize()
	for i := range a.shape {
		if a.shape[i] == 1 {
			continue
		}
		if a.strides[i] != want {
			return false
		}
		want *= a.shape[i]
	}
	return true
}

// HasZeroStride reports whether any dimension longer than one repeats the
// same bytes.
func (a *Array) HasZeroStride() bool {
	for i, s := range a.strides {
		if s == 0 && a.shape[i] > 1 {
			return true
		}
	}
	return false
}

// Mask returns the mask, or nil for an unmasked array.
func (a *Array) Mask() *Array { return a.mask }

// IsMasked reports whether the array carries a mask.
func (a *Array) IsMasked() bool { return a.mask != nil }

// AnyMasked reports whether at least one element is masked.
func (a *Array) AnyMasked() bool {
	if a.mask == nil {
		return false
	}
	found := false
	a.mask.each(func(_ []int, b []byte) bool {
		found = b[0] != 0
		return !found
	})
	return found
}

// Data returns the array without its mask.
func (a *Array) Data() *Array {
	if a.mask == nil {
		return a
	}
	c := *a
	c.mask = nil
	return &c
}

// elementOffset returns the byte offset of idx, or an error when idx is out
// of range.
func (a *Array) elementOffset(idx []int) (int, error) {
	if len(idx) != len(a.shape) {
		return 0, errors.Wrapf(ErrIndex, "%d indices for %d dimensions", len(idx), len(a.shape))
	}
	off := a.offset
	for i, j := range idx {
		if j < 0 {
			j += a.shape[i]
		}
		if j < 0 || j >= a.shape[i] {
			return 0, errors.Wrapf(ErrIndex, "index %d for axis %d of size %d", idx[i], i, a.shape[i])
		}
		off += j * a.strides[i]
	}
	return off, nil
}

func (a *Array) element(idx []int) ([]byte, error) {
	if a.buf.Closed() {
		return nil, ErrStorageClosed
	}
	off, err := a.elementOffset(idx)
	if err != nil {
		return nil, err
	}
	return a.buf.data[off : off+a.dtype.ItemSize()], nil
}

// At returns the element at idx. Masked elements still return their
// underlying value; use MaskedAt to tell them apart.
func (a *Array) At(idx ...int) (any, error) {
	b, err := a.element(idx)
	if err != nil {
		return nil, err
	}
	return dtype.Get(a.dtype, b), nil
}

// MaskedAt reports whether the element at idx is masked.
func (a *Array) MaskedAt(idx ...int) bool {
	if a.mask == nil {
		return false
	}
	v, err := a.mask.At(idx...)
	if err != nil {
		return false
	}
	masked, _ := v.(bool)
	return masked
}

// Set stores v at idx. On a masked array a nil v masks the element and any
// other value unmasks it.
func (a *Array) Set(v any, idx ...int) error {
	b, err := a.element(idx)
	if err != nil {
		return err
	}
	if a.mask != nil && a.mask.buf.ReadOnly() {
		return errors.Wrap(ErrReadOnly, "mask")
	}
	if v == nil {
		if a.mask == nil {
			return errors.Wrap(dtype.ErrIncompatibleValue, "cannot mask an element of an unmasked array")
		}
		return a.mask.Set(true, idx...)
	}
	if a.buf.ReadOnly() {
		return ErrReadOnly
	}
	if err := dtype.Put(a.dtype, b, v); err != nil {
		return err
	}
	if a.mask != nil {
		return a.mask.Set(false, idx...)
	}
	return nil
}

// each calls fn for every element in row-major order until fn returns
// false. The index slice is reused between calls.
func (a *Array) each(fn func(idx []int, b []byte) bool) {
	if a.Size() == 0 {
		return
	}
	size := a.dtype.ItemSize()
	idx := make([]int, len(a.shape))
	for {
		off := a.offset
		for i, j := range idx {
			off += j * a.strides[i]
		}
		if !fn(idx, a.buf.data[off:off+size]) {
			return
		}
		d := len(idx) - 1
		for ; d >= 0; d-- {
			idx[d]++
			if idx[d] < a.shape[d] {
				break
			}
			idx[d] = 0
		}
		if d < 0 {
			return
		}
	}
}

// Each calls fn with every element value in row-major order.
func (a *Array) Each(fn func(idx []int, v any) error) error {
	if a.buf.Closed() {
		return ErrStorageClosed
	}
	var err error
	a.each(func(idx []int, b []byte) bool {
		err = fn(idx, dtype.Get(a.dtype, b))
		return err == nil
	})
	return err
}
