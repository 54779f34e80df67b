package asdf

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-asdf/internal/block"
	"github.com/robert-malhotra/go-asdf/internal/dtype"
	"github.com/robert-malhotra/go-asdf/internal/ndarray"
)

func masked(t *testing.T, a *ndarray.Array, bits ...bool) *ndarray.Array {
	t.Helper()
	m, err := a.WithMask(fromSlice(t, bits, a.Shape()...))
	require.NoError(t, err)
	return m
}

func TestToTreeInternal(t *testing.T) {
	f := New(nil)
	host := dtype.HostOrder().String()
	a := arange(t, 10)

	node, err := f.ToTree(a)
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"source":    0,
		"datatype":  "int32",
		"byteorder": host,
		"shape":     []any{10},
	}, node)

	stepped, err := a.Slice(0, 1, 9, 2)
	require.NoError(t, err)
	node, err = f.ToTree(stepped)
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"source":    0,
		"datatype":  "int32",
		"byteorder": host,
		"shape":     []any{4},
		"offset":    4,
		"strides":   []any{8},
	}, node)
	require.Len(t, f.blocks.Requests(), 1)

	b := arange(t, 6, 2, 3)
	node, err = f.ToTree(b.Transpose())
	require.NoError(t, err)
	require.Equal(t, 1, node["source"])
	require.Equal(t, []any{3, 2}, node["shape"])
	require.Equal(t, []any{4, 12}, node["strides"])
	require.NotContains(t, node, "offset")
	require.Len(t, f.blocks.Requests(), 2)
}

func TestToTreeZeroStride(t *testing.T) {
	f := New(nil)
	a := arange(t, 3)
	b, err := a.BroadcastTo(2, 3)
	require.NoError(t, err)

	node, err := f.ToTree(b)
	require.NoError(t, err)
	require.Equal(t, []any{2, 3}, node["shape"])
	require.NotContains(t, node, "strides")

	reqs := f.blocks.Requests()
	require.Len(t, reqs, 1)
	require.NotSame(t, a.Buffer(), reqs[0].Base)
	require.Equal(t, 24, reqs[0].Base.Len())
}

func TestToTreeInline(t *testing.T) {
	f := New(nil, WithArrayStorage(StorageInline))
	node, err := f.ToTree(fromSlice(t, []float64{1, 2, 3, 4}, 2, 2))
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"data":     []any{[]any{1.0, 2.0}, []any{3.0, 4.0}},
		"datatype": "float64",
		"shape":    []any{2, 2},
	}, node)
	require.Empty(t, f.blocks.Requests())
}

func TestToTreeThreshold(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		size    int
		storage block.Storage
		source  any
	}{
		{"small", []Option{WithInlineThreshold(5)}, 3, block.Inline, nil},
		{"large", []Option{WithInlineThreshold(5)}, 10, block.Internal, 0},
		{"boundary", []Option{WithInlineThreshold(5)}, 5, block.Internal, 0},
		{"forced inline", []Option{WithArrayStorage(StorageInline), WithInlineThreshold(5)}, 10, block.Internal, 0},
		{"external", []Option{WithArrayStorage(StorageExternal), WithInlineThreshold(5)}, 3, block.External, "external0000.asdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(nil, tt.opts...)
			a := arange(t, tt.size)
			node, err := f.ToTree(a)
			require.NoError(t, err)
			require.Equal(t, tt.storage, f.blocks.LookupOptions(a.Buffer()).Storage)
			if tt.source == nil {
				require.NotContains(t, node, "source")
				require.Contains(t, node, "data")
			} else {
				require.Equal(t, tt.source, node["source"])
			}
		})
	}
}

func TestToTreeStreamed(t *testing.T) {
	f := New(nil, WithArrayStorage(StorageStreamed))
	a := arange(t, 6, 2, 3)

	node, err := f.ToTree(a)
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"source":    -1,
		"datatype":  "int32",
		"byteorder": dtype.HostOrder().String(),
		"shape":     []any{"*", 3},
	}, node)
	require.NotNil(t, f.blocks.StreamedRequest())

	_, err = f.ToTree(a)
	require.NoError(t, err)

	_, err = f.ToTree(arange(t, 3))
	require.True(t, errors.Is(err, block.ErrStreamedExists), "%v", err)

	scalar, err := fromSlice(t, []int32{1}).Reshape()
	require.NoError(t, err)
	_, err = New(nil, WithArrayStorage(StorageStreamed)).ToTree(scalar)
	require.True(t, errors.Is(err, ErrInvalidShape), "%v", err)
}

func TestToTreeCompression(t *testing.T) {
	f := New(nil, WithArrayCompression("zstd", map[string]any{"level": 3}))
	a := arange(t, 4)
	_, err := f.ToTree(a)
	require.NoError(t, err)
	opts := f.blocks.LookupOptions(a.Buffer())
	require.Equal(t, "zstd", opts.Compression)
	require.Equal(t, map[string]any{"level": 3}, opts.CompressionKwargs)

	f = New(nil)
	f.blocks.SetOptions(a.Buffer(), &block.Options{Storage: block.Internal, Compression: "zlib"})
	_, err = f.ToTree(a)
	require.NoError(t, err)
	require.Equal(t, "zlib", f.blocks.LookupOptions(a.Buffer()).Compression)

	_, err = New(nil, WithArrayCompression("lz4", nil)).ToTree(arange(t, 4))
	require.True(t, errors.Is(err, ErrUnsupported), "%v", err)
}

func TestToTreeMask(t *testing.T) {
	t.Run("internal", func(t *testing.T) {
		f := New(nil)
		node, err := f.ToTree(masked(t, arange(t, 3), false, true, false))
		require.NoError(t, err)
		require.Equal(t, 0, node["source"])
		require.Equal(t, map[string]any{
			"source":    1,
			"datatype":  "bool8",
			"byteorder": "big",
			"shape":     []any{3},
		}, node["mask"])
	})

	t.Run("inline", func(t *testing.T) {
		f := New(nil, WithArrayStorage(StorageInline))
		node, err := f.ToTree(masked(t, arange(t, 3), false, true, false))
		require.NoError(t, err)
		require.Equal(t, []any{int32(0), nil, int32(2)}, node["data"])
		m, ok := node["mask"].(map[string]any)
		require.True(t, ok)
		require.Equal(t, []any{false, true, false}, m["data"])
	})

	t.Run("streamed", func(t *testing.T) {
		f := New(nil, WithArrayStorage(StorageStreamed))
		node, err := f.ToTree(masked(t, arange(t, 3), true, false, false))
		require.NoError(t, err)
		require.Equal(t, -1, node["source"])
		m, ok := node["mask"].(map[string]any)
		require.True(t, ok)
		require.Equal(t, 0, m["source"])
	})

	t.Run("nothing masked", func(t *testing.T) {
		f := New(nil)
		node, err := f.ToTree(masked(t, arange(t, 3), false, false, false))
		require.NoError(t, err)
		require.NotContains(t, node, "mask")
		require.Len(t, f.blocks.Requests(), 1)
	})
}

func TestToTreeErrors(t *testing.T) {
	_, err := New(nil).ToTree("abc")
	require.Error(t, err)

	f := New(nil)
	require.NoError(t, f.Close())
	_, err = f.ToTree(arange(t, 3))
	require.True(t, errors.Is(err, ErrClosed), "%v", err)

	_, err = New(nil).ToTree(&NDArray{log: noopLogger{}})
	require.True(t, errors.Is(err, ErrClosedStorage), "%v", err)
}
