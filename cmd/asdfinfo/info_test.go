package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-asdf/asdf"
	"github.com/robert-malhotra/go-asdf/internal/ndarray"
)

func writeSample(t *testing.T, opts ...asdf.Option) string {
	t.Helper()
	a, err := ndarray.FromSlice([]int32{0, 1, 2, 3, 4, 5}, 2, 3)
	require.NoError(t, err)
	b, err := ndarray.FromSlice([]float64{1.5, 2.5})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "sample.asdf")
	tree := map[string]any{
		"a":     asdf.NewNDArray(a),
		"group": map[string]any{"b": asdf.NewNDArray(b)},
	}
	require.NoError(t, asdf.New(tree, opts...).Write(path))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newInfo().Root
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestArrays(t *testing.T) {
	path := writeSample(t)
	out, err := run(t, "arrays", path)
	require.NoError(t, err)
	require.Contains(t, out, "/a")
	require.Contains(t, out, "block 0")
	require.Contains(t, out, "[2 3]")
	require.Contains(t, out, "/group/b")
	require.Contains(t, out, "block 1")
	require.Contains(t, out, "float64")
}

func TestBlocks(t *testing.T) {
	path := writeSample(t, asdf.WithArrayCompression("zstd", nil))
	out, err := run(t, "blocks", path)
	require.NoError(t, err)
	require.Contains(t, out, "zstd")
	require.Contains(t, out, "24")
	require.Contains(t, out, "16")
}

func TestShow(t *testing.T) {
	path := writeSample(t)
	out, err := run(t, "show", path, "/a")
	require.NoError(t, err)
	require.Contains(t, out, "[[0 1 2] [3 4 5]]")

	_, err = run(t, "show", path, "/missing")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	path := writeSample(t)
	out, err := run(t, "validate", path)
	require.NoError(t, err)
	require.Contains(t, out, "/a: ok")
	require.Contains(t, out, "/group/b: ok")
}

func TestConvert(t *testing.T) {
	src := writeSample(t)
	dst := filepath.Join(t.TempDir(), "out.asdf")

	out, err := run(t, "convert", "--compression", "zlib", "--level", "9", "--inline-threshold", "3", src, dst)
	require.NoError(t, err)
	require.Contains(t, out, "wrote "+dst)

	f, err := asdf.Open(dst)
	require.NoError(t, err)
	defer f.Close()

	blocks, err := f.Blocks()
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	require.Equal(t, "zlib", blocks[0].Compression)

	var sources []string
	require.NoError(t, f.Walk(func(path string, v *asdf.NDArray) error {
		sources = append(sources, path+" "+v.Source().String())
		return nil
	}))
	require.Equal(t, []string{"/a block 0", "/group/b inline data"}, sources)

	_, err = run(t, "convert", "--storage", "sideways", src, dst)
	require.Error(t, err)
}
