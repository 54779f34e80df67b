package mmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeapRegion(t *testing.T) {
	r := FromBytes([]byte("hello"))
	require.False(t, r.Mapped())
	require.False(t, r.ReadOnly())
	require.False(t, r.Closed())
	require.Equal(t, 5, r.Len())
	require.Equal(t, []byte("hello"), r.Bytes())

	require.NoError(t, r.Close())
	require.True(t, r.Closed())
	require.Nil(t, r.Bytes())
	require.NoError(t, r.Close())
}

func TestMap(t *testing.T) {
	if !Supported {
		t.Skip("mmap not supported")
	}
	path := filepath.Join(t.TempDir(), "data")
	content := make([]byte, 3*os.Getpagesize()+17)
	for i := range content {
		content[i] = byte(i * 7)
	}
	require.NoError(t, os.WriteFile(path, content, 0o644))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	tests := []struct {
		offset int64
		length int
	}{
		{0, 10},
		{5, 100},
		{int64(os.Getpagesize()) + 3, os.Getpagesize()},
		{int64(len(content)) - 17, 17},
	}
	for _, tt := range tests {
		r, err := Map(f, tt.offset, tt.length)
		require.NoError(t, err)
		require.True(t, r.Mapped())
		require.True(t, r.ReadOnly())
		require.Equal(t, content[tt.offset:tt.offset+int64(tt.length)], r.Bytes())
		require.NoError(t, r.Close())
		require.True(t, r.Closed())
		require.Nil(t, r.Bytes())
	}

	r, err := Map(f, 0, 0)
	require.NoError(t, err)
	require.Equal(t, 0, r.Len())
}
