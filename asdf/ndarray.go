package asdf

import (
	"fmt"
	"slices"
	"weak"

	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-asdf/internal/block"
	"github.com/robert-malhotra/go-asdf/internal/dtype"
	"github.com/robert-malhotra/go-asdf/internal/inline"
	"github.com/robert-malhotra/go-asdf/internal/mask"
	"github.com/robert-malhotra/go-asdf/internal/ndarray"
	"github.com/robert-malhotra/go-asdf/internal/shape"
)

// StorageSource is where an NDArray's data comes from. It is one of
// *InlineSource, *InternalSource, *StreamedSource or *ExternalSource.
type StorageSource interface {
	materialize(v *NDArray) (*ndarray.Array, error)
	fmt.Stringer
}

// InlineSource is literal data stored in the tree.
type InlineSource struct {
	Literal any
}

// InternalSource is a block of the file the array was read from.
type InternalSource struct {
	Handle int
	blocks *block.Manager
}

// StreamedSource is the streamed block of the file the array was read from.
type StreamedSource struct {
	blocks *block.Manager
}

// ExternalSource is the first block of another file, named relative to the
// file the array was read from. That file is referenced weakly: once it is
// released the source can no longer be resolved.
type ExternalSource struct {
	Name string
	doc  weak.Pointer[File]
}

func (s *InlineSource) String() string   { return "inline data" }
func (s *InternalSource) String() string { return fmt.Sprintf("block %d", s.Handle) }
func (s *StreamedSource) String() string { return "streamed block" }
func (s *ExternalSource) String() string { return fmt.Sprintf("external file %q", s.Name) }

func (s *InlineSource) materialize(v *NDArray) (*ndarray.Array, error) {
	a, err := inline.ToArray(s.Literal, v.dtype)
	if err != nil {
		return nil, err
	}
	if v.shape != nil {
		got := a.Shape()
		want := v.shape.Dims
		if v.shape.Wildcard {
			if len(got) == 0 {
				got = nil
			} else {
				got = got[1:]
			}
			want = v.shape.Trailing()
		}
		if !shape.Equal(got, want) {
			return nil, errors.Wrapf(ErrShapeMismatch, "inline data of shape %s does not match declared shape %s",
				shape.Format(a.Shape()), v.shape)
		}
	}
	return mask.Apply(a, v.mask)
}

func (s *InternalSource) materialize(v *NDArray) (*ndarray.Array, error) {
	buf, err := s.blocks.Data(s.Handle)
	if err != nil {
		return nil, err
	}
	return v.view(buf)
}

func (s *StreamedSource) materialize(v *NDArray) (*ndarray.Array, error) {
	buf, err := s.blocks.Data(-1)
	if err != nil {
		return nil, err
	}
	return v.view(buf)
}

func (s *ExternalSource) materialize(v *NDArray) (*ndarray.Array, error) {
	doc := s.doc.Value()
	if doc == nil {
		return nil, errors.Wrapf(ErrDocumentReleased, "resolving %s", s)
	}
	ext, err := doc.OpenExternal(s.Name)
	if err != nil {
		return nil, err
	}
	buf, err := ext.blocks.Data(0)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", s)
	}
	if doc.blocks.LookupOptions(buf) == nil {
		doc.blocks.SetOptions(buf, &block.Options{Storage: block.External})
	}
	return v.view(buf)
}

// NDArray is an array node of a tree. Data stored in blocks is loaded on
// first access and cached; the cached array is dropped and rebuilt when the
// storage behind it has been closed.
type NDArray struct {
	source  StorageSource
	array   *ndarray.Array
	dtype   *dtype.Type
	shape   *shape.Spec
	offset  int
	strides []int
	mask    *mask.Spec

	log     Logger
	metrics *metrics
}

// NewNDArray wraps an array so it can be placed in a tree.
func NewNDArray(a *ndarray.Array) *NDArray {
	spec := shape.Fixed(a.Shape()...)
	return &NDArray{
		array: a,
		dtype: a.DType(),
		shape: &spec,
		log:   noopLogger{},
	}
}

// Source returns where the array's data comes from, or nil for an array
// created with NewNDArray.
func (v *NDArray) Source() StorageSource {
	return v.source
}

// Loaded reports whether the array is cached.
func (v *NDArray) Loaded() bool {
	return v.array != nil
}

// Array returns the array, loading it on first use. The same array is
// returned until its storage is closed.
func (v *NDArray) Array() (*ndarray.Array, error) {
	if v.array != nil && storageClosed(v.array) {
		v.log.Infof("asdf: storage of array from %s was closed, reloading", v.source)
		v.metrics.invalidated()
		v.array = nil
	}
	if v.array != nil {
		return v.array, nil
	}
	if v.source == nil {
		return nil, ErrClosedStorage
	}
	a, err := v.source.materialize(v)
	if err != nil {
		if errors.Is(err, ndarray.ErrStorageClosed) || errors.Is(err, ErrClosed) {
			err = ErrClosedStorage
		}
		return nil, errors.Wrapf(err, "loading array from %s", v.source)
	}
	v.array = a
	v.metrics.materialized()
	return a, nil
}

func storageClosed(a *ndarray.Array) bool {
	if a.Buffer().Closed() {
		return true
	}
	return a.Mask() != nil && a.Mask().Buffer().Closed()
}

// view builds the array described by v over buf.
func (v *NDArray) view(buf *ndarray.Buffer) (*ndarray.Array, error) {
	if buf.Closed() {
		return nil, ErrClosedStorage
	}
	dims := v.shape.Resolve(v.strides, v.dtype.ItemSize(), buf.Len())
	a, err := ndarray.FromBuffer(buf, v.dtype, dims, v.offset, v.strides)
	if err != nil {
		return nil, err
	}
	return mask.Apply(a, v.mask)
}

// Shape returns the dimensions of the array. A declared shape is returned
// without loading the data; a streamed leading dimension is computed from
// the block header when the header knows the block size.
func (v *NDArray) Shape() ([]int, error) {
	if v.array == nil && v.shape != nil {
		if !v.shape.Wildcard {
			return slices.Clone(v.shape.Dims), nil
		}
		if n, ok := v.availableBytes(); ok {
			return v.shape.Resolve(v.strides, v.dtype.ItemSize(), n), nil
		}
	}
	a, err := v.Array()
	if err != nil {
		return nil, err
	}
	return slices.Clone(a.Shape()), nil
}

func (v *NDArray) availableBytes() (int, bool) {
	var (
		h   block.Header
		err error
	)
	switch s := v.source.(type) {
	case *InternalSource:
		h, err = s.blocks.Header(s.Handle)
	case *StreamedSource:
		h, err = s.blocks.Header(-1)
	default:
		return 0, false
	}
	if err != nil || h.DataSize == 0 {
		return 0, false
	}
	return int(h.DataSize), true
}

// DType returns the element type without loading the data.
func (v *NDArray) DType() *dtype.Type {
	if v.array != nil {
		return v.array.DType()
	}
	return v.dtype
}

// Len returns the length of the leading dimension.
func (v *NDArray) Len() (int, error) {
	if v.array == nil && v.shape != nil && !v.shape.Wildcard && v.shape.Rank() > 0 {
		return v.shape.Dims[0], nil
	}
	s, err := v.Shape()
	if err != nil {
		return 0, err
	}
	if len(s) == 0 {
		return 0, errors.New("len of unsized array")
	}
	return s[0], nil
}

// At returns the element at idx.
func (v *NDArray) At(idx ...int) (any, error) {
	a, err := v.Array()
	if err != nil {
		return nil, err
	}
	return a.At(idx...)
}

// Set stores value at idx. If the store fails the cached array is dropped,
// so the next access reloads it from storage.
func (v *NDArray) Set(value any, idx ...int) error {
	a, err := v.Array()
	if err != nil {
		return err
	}
	if err := a.Set(value, idx...); err != nil {
		v.array = nil
		return err
	}
	return nil
}

// ToList returns the elements as nested lists, with nil for masked ones.
func (v *NDArray) ToList() (any, error) {
	a, err := v.Array()
	if err != nil {
		return nil, err
	}
	return a.ToList()
}

// IsMasked reports whether the array has a mask, without loading it.
func (v *NDArray) IsMasked() bool {
	if v.array != nil {
		return v.array.IsMasked()
	}
	return !v.mask.IsZero()
}

// String describes an unloaded array without loading it.
func (v *NDArray) String() string {
	if v.array == nil {
		kind := "array"
		if !v.mask.IsZero() {
			kind = "masked array"
		}
		s := "[]"
		if v.shape != nil {
			s = v.shape.String()
		}
		return fmt.Sprintf("<%s (unloaded) shape: %s dtype: %s>", kind, s, v.dtype)
	}
	return v.array.String()
}
