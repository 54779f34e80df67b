package asdf

import (
	"weak"

	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-asdf/internal/dtype"
	"github.com/robert-malhotra/go-asdf/internal/inline"
	"github.com/robert-malhotra/go-asdf/internal/mask"
	"github.com/robert-malhotra/go-asdf/internal/ndarray"
	"github.com/robert-malhotra/go-asdf/internal/shape"
)

// FromTree builds an array from an ndarray node. The node is either a
// literal list or a mapping holding inline data or a block source. Block
// sources refer to the blocks of f; external sources keep only a weak
// reference to f.
//
// Inline data is converted immediately. Other arrays are loaded on first
// access unless f was opened with WithLazyLoad(false).
func FromTree(node any, f *File) (*NDArray, error) {
	v := &NDArray{log: f.opts.logger, metrics: f.metrics}

	switch n := node.(type) {
	case []any:
		v.source = &InlineSource{Literal: n}

	case map[string]any:
		if err := v.fromMapping(n, f); err != nil {
			return nil, err
		}

	default:
		return nil, errors.Wrapf(ErrMalformedType, "invalid ndarray description: %T", node)
	}

	if _, ok := v.source.(*InlineSource); ok || !f.opts.lazyLoad {
		if _, err := v.Array(); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (v *NDArray) fromMapping(n map[string]any, f *File) error {
	source, hasSource := n["source"]
	data, hasData := n["data"]

	var order dtype.ByteOrder
	switch {
	case hasSource && hasData:
		return errors.Wrap(ErrMalformedType, "ndarray has both source and data")

	case hasData:
		v.source = &InlineSource{Literal: data}
		order = dtype.HostOrder()

	case hasSource:
		switch s := source.(type) {
		case string:
			v.source = &ExternalSource{Name: s, doc: weak.Make(f)}
		default:
			handle, ok := toInt(source)
			if !ok {
				return errors.Wrapf(ErrMalformedType, "invalid ndarray source %v", source)
			}
			if handle == -1 {
				v.source = &StreamedSource{blocks: f.blocks}
			} else {
				v.source = &InternalSource{Handle: handle, blocks: f.blocks}
			}
		}
		bo, ok := n["byteorder"].(string)
		if !ok {
			return errors.Wrap(ErrMalformedType, "ndarray source without byteorder")
		}
		var err error
		if order, err = dtype.ParseByteOrder(bo); err != nil {
			return err
		}

	default:
		return errors.Wrap(ErrMalformedType, "invalid ndarray description")
	}

	if desc, ok := n["datatype"]; ok {
		t, err := dtype.Decode(desc, order)
		if err != nil {
			return errors.Wrap(err, "decoding datatype")
		}
		v.dtype = t
	}

	if s, ok := n["shape"]; ok {
		spec, err := shape.Parse(s)
		if err != nil {
			return err
		}
		v.shape = &spec
	}

	if _, ok := v.source.(*InlineSource); !ok {
		if v.dtype == nil {
			return errors.Wrapf(ErrMalformedType, "%s has no datatype", v.source)
		}
		if v.shape == nil {
			return errors.Wrapf(ErrInvalidShape, "%s has no shape", v.source)
		}
	}

	if off, ok := n["offset"]; ok {
		o, ok := toInt(off)
		if !ok || o < 0 {
			return errors.Newf("invalid ndarray offset %v", off)
		}
		v.offset = o
	}

	if st, ok := n["strides"]; ok {
		list, ok := st.([]any)
		if !ok {
			return errors.Newf("invalid ndarray strides %v", st)
		}
		v.strides = make([]int, len(list))
		for i, e := range list {
			s, ok := toInt(e)
			if !ok {
				return errors.Newf("invalid ndarray stride %v", e)
			}
			v.strides[i] = s
		}
	}

	if m, ok := n["mask"]; ok && m != nil {
		spec, err := maskSpec(m)
		if err != nil {
			return err
		}
		v.mask = spec
	}
	return nil
}

// literalMask is a mask given as a plain list rather than an ndarray node.
type literalMask struct {
	literal []any
}

func (m literalMask) Array() (*ndarray.Array, error) {
	return inline.ToArray(m.literal, dtype.New(dtype.KindBool))
}

func maskSpec(m any) (*mask.Spec, error) {
	switch x := m.(type) {
	case *NDArray:
		return &mask.Spec{Array: x}, nil
	case []any:
		return &mask.Spec{Array: literalMask{literal: x}}, nil
	case bool, string:
		return nil, errors.Newf("invalid ndarray mask %v", m)
	default:
		if _, ok := dtype.ToComplex(m); !ok {
			return nil, errors.Newf("invalid ndarray mask %T", m)
		}
		return &mask.Spec{Value: m}, nil
	}
}

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
