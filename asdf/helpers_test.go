package asdf

import (
	"testing"

	"github.com/cockroachdb/pebble/vfs"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-asdf/internal/ndarray"
)

// writeAndOpen writes tree to a file system in memory and opens it again.
func writeAndOpen(t *testing.T, tree map[string]any, opts ...Option) *File {
	t.Helper()
	opts = append([]Option{WithFS(vfs.NewMem())}, opts...)
	require.NoError(t, New(tree, opts...).Write("test.asdf"))
	f, err := Open("test.asdf", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, f.Close()) })
	return f
}

func nd(t *testing.T, v any) *NDArray {
	t.Helper()
	a, ok := v.(*NDArray)
	require.True(t, ok, "%T is not an ndarray", v)
	return a
}

func load(t *testing.T, v any) *ndarray.Array {
	t.Helper()
	a, err := nd(t, v).Array()
	require.NoError(t, err)
	return a
}

func fromSlice[T ndarray.Element](t *testing.T, values []T, shape ...int) *ndarray.Array {
	t.Helper()
	a, err := ndarray.FromSlice(values, shape...)
	require.NoError(t, err)
	return a
}

func arange(t *testing.T, n int, shape ...int) *ndarray.Array {
	t.Helper()
	values := make([]int32, n)
	for i := range values {
		values[i] = int32(i)
	}
	return fromSlice(t, values, shape...)
}

func toList(t *testing.T, a *ndarray.Array) any {
	t.Helper()
	l, err := a.ToList()
	require.NoError(t, err)
	return l
}
