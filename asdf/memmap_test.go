package asdf

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-asdf/internal/mmap"
	"github.com/robert-malhotra/go-asdf/internal/ndarray"
)

// writeAndOpenDisk writes tree to a temporary directory on disk and opens
// it again with blocks mapped into memory.
func writeAndOpenDisk(t *testing.T, tree map[string]any, opts ...Option) *File {
	t.Helper()
	if !mmap.Supported {
		t.Skip("mmap not supported")
	}
	path := filepath.Join(t.TempDir(), "mapped.asdf")
	require.NoError(t, New(tree, opts...).Write(path))
	f, err := Open(path, append([]Option{WithMemmap(true)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, f.Close()) })
	return f
}

func TestMemmapRoundTrip(t *testing.T) {
	grid := arange(t, 12, 3, 4)
	row, err := grid.Index(1)
	require.NoError(t, err)
	f := writeAndOpenDisk(t, map[string]any{
		"grid":   grid,
		"row":    row,
		"t":      grid.Transpose(),
		"masked": masked(t, arange(t, 3), false, true, false),
	})

	tests := []struct {
		name string
		want *ndarray.Array
	}{
		{"grid", grid},
		{"row", row},
		{"t", grid.Transpose()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := load(t, f.Tree()[tt.name])
			require.True(t, a.Buffer().ReadOnly())
			require.True(t, ndarray.Equal(tt.want, a))
		})
	}

	m := load(t, f.Tree()["masked"])
	require.True(t, m.Buffer().ReadOnly())
	require.Equal(t, []any{int32(0), nil, int32(2)}, toList(t, m))
}

func TestMemmapSet(t *testing.T) {
	f := writeAndOpenDisk(t, map[string]any{
		"a": arange(t, 4),
		"m": masked(t, arange(t, 3), false, true, false),
	})
	v := nd(t, f.Tree()["a"])

	err := v.Set(int32(7), 1)
	require.True(t, errors.Is(err, ErrReadOnly), "%v", err)
	require.False(t, v.Loaded())
	got, err := v.At(1)
	require.NoError(t, err)
	require.Equal(t, int32(1), got)

	m := nd(t, f.Tree()["m"])
	require.True(t, errors.Is(m.Set(nil, 0), ErrReadOnly))
	require.False(t, m.Loaded())
	l, err := m.ToList()
	require.NoError(t, err)
	require.Equal(t, []any{int32(0), nil, int32(2)}, l)
}

func TestMemmapSetCompressed(t *testing.T) {
	f := writeAndOpenDisk(t, map[string]any{"a": arange(t, 4)}, WithArrayCompression("zlib", nil))
	v := nd(t, f.Tree()["a"])

	// Compressed blocks are decompressed onto the heap and stay writable.
	require.NoError(t, v.Set(int32(7), 1))
	got, err := v.At(1)
	require.NoError(t, err)
	require.Equal(t, int32(7), got)
}

func TestMemmapReplaceData(t *testing.T) {
	f := writeAndOpenDisk(t, map[string]any{"a": arange(t, 4)})
	v := nd(t, f.Tree()["a"])
	a1, err := v.Array()
	require.NoError(t, err)
	require.True(t, a1.Buffer().ReadOnly())

	data := make([]byte, 16)
	order := v.DType().Order.Binary()
	for i := 0; i < 4; i++ {
		order.PutUint32(data[i*4:], uint32(i+100))
	}
	require.NoError(t, f.blocks.ReplaceData(0, data))
	require.True(t, a1.Buffer().Closed())

	a2, err := v.Array()
	require.NoError(t, err)
	require.NotSame(t, a1, a2)
	require.False(t, a2.Buffer().ReadOnly())
	require.Equal(t, []any{int32(100), int32(101), int32(102), int32(103)}, toList(t, a2))
}

func TestClosedFileStorage(t *testing.T) {
	tree := func() map[string]any {
		return map[string]any{"loaded": arange(t, 4), "lazy": arange(t, 6, 2, 3)}
	}
	open := map[string]func(t *testing.T) *File{
		"disk": func(t *testing.T) *File { return writeAndOpenDisk(t, tree()) },
		"mem":  func(t *testing.T) *File { return writeAndOpen(t, tree()) },
	}
	for name, openFile := range open {
		t.Run(name, func(t *testing.T) {
			f := openFile(t)
			loaded := nd(t, f.Tree()["loaded"])
			_, err := loaded.Array()
			require.NoError(t, err)
			lazy := nd(t, f.Tree()["lazy"])

			require.NoError(t, f.Close())
			for _, v := range []*NDArray{loaded, lazy} {
				_, err := v.Array()
				require.True(t, errors.Is(err, ErrClosedStorage), "%v", err)
				require.True(t, errors.Is(err, ErrIO))
				require.False(t, errors.Is(err, ErrDocumentReleased))
			}

			// Declared metadata stays available.
			s, err := lazy.Shape()
			require.NoError(t, err)
			require.Equal(t, []int{2, 3}, s)
		})
	}
}

func TestClosedFileExternal(t *testing.T) {
	fs := vfs.NewMem()
	require.NoError(t, New(map[string]any{"ext": arange(t, 4)}, WithFS(fs), WithArrayStorage(StorageExternal)).Write("main.asdf"))
	f, err := Open("main.asdf", WithFS(fs))
	require.NoError(t, err)
	v := nd(t, f.Tree()["ext"])

	require.NoError(t, f.Close())
	_, err = v.Array()
	require.True(t, errors.Is(err, ErrClosedStorage), "%v", err)
	require.True(t, errors.Is(err, ErrIO))
	runtime.KeepAlive(f)
}
