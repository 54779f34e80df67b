package asdf

import (
	"maps"

	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-asdf/internal/block"
	"github.com/robert-malhotra/go-asdf/internal/dtype"
	"github.com/robert-malhotra/go-asdf/internal/inline"
	"github.com/robert-malhotra/go-asdf/internal/ndarray"
	"github.com/robert-malhotra/go-asdf/internal/shape"
)

// serializer turns arrays into ndarray nodes, queueing their bytes with a
// block manager.
type serializer struct {
	blocks *block.Manager
	cfg    Config
	log    Logger
}

// ToTree returns the ndarray node for obj, an *NDArray or *ndarray.Array,
// and queues the blocks it refers to for the next write of f.
func (f *File) ToTree(obj any) (map[string]any, error) {
	if f.closed {
		return nil, ErrClosed
	}
	s := &serializer{blocks: f.blocks, cfg: f.opts.config(), log: f.opts.logger}
	return s.toTree(obj, nil)
}

// toTree converts obj. A non-nil forced gives the options a mask inherits
// from its array; otherwise the options come from the block manager and
// the configuration.
func (s *serializer) toTree(obj any, forced *block.Options) (map[string]any, error) {
	var data *ndarray.Array
	switch x := obj.(type) {
	case *NDArray:
		a, err := x.Array()
		if err != nil {
			return nil, err
		}
		data = a
	case *ndarray.Array:
		data = x
	default:
		return nil, errors.Newf("cannot serialize %T as an ndarray", obj)
	}

	if data.HasZeroStride() {
		c, err := data.Contiguous()
		if err != nil {
			return nil, err
		}
		data = c
	}
	base := data.Buffer()

	opts := forced
	if opts == nil {
		opts = s.options(data)
	}
	s.blocks.SetOptions(base, opts)

	t := data.DType()
	node := map[string]any{}
	switch opts.Storage {
	case block.Inline:
		lit, err := inline.FromArray(data)
		if err != nil {
			return nil, err
		}
		desc, _, err := dtype.Encode(t, false, dtype.OrderUnset)
		if err != nil {
			return nil, err
		}
		node["data"] = lit
		node["datatype"] = desc
		node["shape"] = shape.Fixed(data.Shape()...).Encode()

	case block.Streamed:
		if data.NDim() == 0 {
			return nil, errors.Wrap(ErrInvalidShape, "cannot stream a zero-dimensional array")
		}
		b, err := data.Bytes()
		if err != nil {
			return nil, err
		}
		if err := s.blocks.SetStreamedBlock(base, b, obj); err != nil {
			return nil, err
		}
		desc, order, err := dtype.Encode(t, true, dtype.OrderUnset)
		if err != nil {
			return nil, err
		}
		s.log.Infof("asdf: streaming array of shape %s", shape.Format(data.Shape()))
		node["source"] = -1
		node["datatype"] = desc
		node["byteorder"] = order.String()
		node["shape"] = shape.Streamed(data.Shape()[1:]...).Encode()

	default:
		desc, order, err := dtype.Encode(t, true, dtype.OrderUnset)
		if err != nil {
			return nil, err
		}
		src, err := s.blocks.MakeWriteRequest(base, opts, obj)
		if err != nil {
			return nil, err
		}
		node["source"] = src
		node["datatype"] = desc
		node["byteorder"] = order.String()
		node["shape"] = shape.Fixed(data.Shape()...).Encode()
		if data.Offset() > 0 {
			node["offset"] = data.Offset()
		}
		if !data.IsCContiguous() {
			strides := make([]any, data.NDim())
			for i, st := range data.Strides() {
				strides[i] = st
			}
			node["strides"] = strides
		}
	}

	if data.IsMasked() && data.AnyMasked() {
		m, err := s.toTree(data.Mask(), maskOptions(opts))
		if err != nil {
			return nil, errors.Wrap(err, "mask")
		}
		node["mask"] = m
	}
	return node, nil
}

// options picks the storage of data: the options recorded for its base,
// overridden by the forced storage and compression, then by the inline
// threshold.
func (s *serializer) options(data *ndarray.Array) *block.Options {
	opts := s.blocks.Options(data.Buffer())
	if s.cfg.ForcedStorage != nil {
		opts.Storage = *s.cfg.ForcedStorage
	}
	if s.cfg.ForcedCompression != CompressionInput {
		opts.Compression = s.cfg.ForcedCompression
		opts.CompressionKwargs = maps.Clone(s.cfg.CompressionKwargs)
	}
	if s.cfg.InlineThreshold >= 0 && (opts.Storage == block.Inline || opts.Storage == block.Internal) {
		if data.Size() < s.cfg.InlineThreshold {
			opts.Storage = block.Inline
		} else {
			opts.Storage = block.Internal
		}
	}
	return opts
}

// maskOptions derives a mask's options from its array's: masks of inline
// arrays are inline and masks are never streamed.
func maskOptions(parent *block.Options) *block.Options {
	m := parent.Clone()
	if m.Storage == block.Streamed {
		m.Storage = block.Internal
	}
	return m
}
