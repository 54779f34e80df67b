package block

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-asdf/internal/mmap"
	"github.com/robert-malhotra/go-asdf/internal/ndarray"
)

func writeBlocks(t *testing.T, m *Manager) []byte {
	t.Helper()
	var buf bytes.Buffer
	n, err := m.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(buf.Len()), n)
	return buf.Bytes()
}

func TestWriteRead(t *testing.T) {
	written := 0
	w := NewManager(Config{OnWrite: func(n int) { written += n }})

	plain := ndarray.NewBuffer([]byte("0123456789"))
	packed := ndarray.NewBuffer(bytes.Repeat([]byte{7}, 1000))

	src, err := w.MakeWriteRequest(plain, &Options{Storage: Internal}, "a")
	require.NoError(t, err)
	require.Equal(t, 0, src)
	src, err = w.MakeWriteRequest(packed, &Options{Storage: Internal, Compression: "zstd"}, "b")
	require.NoError(t, err)
	require.Equal(t, 1, src)

	src, err = w.MakeWriteRequest(plain, &Options{Storage: Internal}, "c")
	require.NoError(t, err)
	require.Equal(t, 0, src)
	require.Len(t, w.Requests(), 2)
	require.Equal(t, "a", w.Requests()[0].Producer)

	require.NoError(t, w.SetStreamedBlock(plain, []byte("stream"), "s"))
	file := append([]byte("tree\n"), writeBlocks(t, w)...)
	require.Greater(t, written, 0)

	fetched := 0
	r, err := Read(bytes.NewReader(file), int64(len(file)), 5, Config{
		ValidateChecksums: true,
		OnFetch:           func(int, int) { fetched++ },
	})
	require.NoError(t, err)
	require.Equal(t, 3, r.Len())

	h, err := r.Header(1)
	require.NoError(t, err)
	require.Equal(t, "zstd", h.Compression)
	require.Equal(t, uint64(1000), h.DataSize)

	b0, err := r.Data(0)
	require.NoError(t, err)
	require.Equal(t, []byte("0123456789"), b0.Bytes())
	b1, err := r.Data(1)
	require.NoError(t, err)
	require.Equal(t, packed.Bytes(), b1.Bytes())
	require.Equal(t, "zstd", r.LookupOptions(b1).Compression)

	hs, err := r.Header(-1)
	require.NoError(t, err)
	require.True(t, hs.Streamed())
	require.Zero(t, hs.DataSize)
	bs, err := r.Data(-1)
	require.NoError(t, err)
	require.Equal(t, []byte("stream"), bs.Bytes())
	require.Equal(t, Streamed, r.Options(bs).Storage)

	again, err := r.Data(0)
	require.NoError(t, err)
	require.Same(t, b0, again)
	require.Equal(t, 3, fetched)

	_, err = r.Data(3)
	require.True(t, errors.Is(err, ErrNoBlock))
	require.NoError(t, r.Close())
}

func TestReadStopsAtNonBlock(t *testing.T) {
	w := NewManager(Config{})
	_, err := w.MakeWriteRequest(ndarray.NewBuffer([]byte{1, 2}), &Options{}, nil)
	require.NoError(t, err)
	file := append(writeBlocks(t, w), []byte("#ASDF BLOCK INDEX\n")...)

	r, err := Read(bytes.NewReader(file), int64(len(file)), 0, Config{})
	require.NoError(t, err)
	require.Equal(t, 1, r.Len())
	_, err = r.Header(-1)
	require.True(t, errors.Is(err, ErrNoBlock))
}

func TestReadCorrupt(t *testing.T) {
	w := NewManager(Config{})
	_, err := w.MakeWriteRequest(ndarray.NewBuffer([]byte("abcdef")), &Options{}, nil)
	require.NoError(t, err)
	file := writeBlocks(t, w)

	_, err = Read(bytes.NewReader(file[:len(file)-2]), int64(len(file)-2), 0, Config{})
	require.True(t, errors.Is(err, ErrCorrupt))

	file[len(file)-1] ^= 0xff
	r, err := Read(bytes.NewReader(file), int64(len(file)), 0, Config{ValidateChecksums: true})
	require.NoError(t, err)
	_, err = r.Data(0)
	require.True(t, errors.Is(err, ErrCorrupt))
}

func TestStreamedBlockIsUnique(t *testing.T) {
	m := NewManager(Config{})
	a, b := ndarray.NewBuffer(nil), ndarray.NewBuffer(nil)
	require.NoError(t, m.SetStreamedBlock(a, nil, nil))
	require.NoError(t, m.SetStreamedBlock(a, nil, nil))
	require.True(t, errors.Is(m.SetStreamedBlock(b, nil, nil), ErrStreamedExists))
	require.Equal(t, -1, m.StreamedRequest().Source)

	m.ResetWrites("")
	require.Nil(t, m.StreamedRequest())
	require.NoError(t, m.SetStreamedBlock(b, nil, nil))
}

func TestExternalRequests(t *testing.T) {
	m := NewManager(Config{})
	m.ResetWrites("out")
	base := ndarray.NewBuffer([]byte("ext"))
	src, err := m.MakeWriteRequest(base, &Options{Storage: External}, nil)
	require.NoError(t, err)
	require.Equal(t, "out0000.asdf", src)
	require.Len(t, m.ExternalRequests(), 1)
	require.Empty(t, m.Requests())

	var buf bytes.Buffer
	_, err = m.WriteExternal(&buf, m.ExternalRequests()[0])
	require.NoError(t, err)
	r, err := Read(bytes.NewReader(buf.Bytes()), int64(buf.Len()), 0, Config{})
	require.NoError(t, err)
	data, err := r.Data(0)
	require.NoError(t, err)
	require.Equal(t, []byte("ext"), data.Bytes())

	_, err = m.MakeWriteRequest(ndarray.NewBuffer(nil), &Options{Storage: Inline}, nil)
	require.Error(t, err)
	_, err = m.MakeWriteRequest(ndarray.NewBuffer(nil), &Options{Compression: "lzma"}, nil)
	require.True(t, errors.Is(err, ErrUnsupported))
}

func TestOptions(t *testing.T) {
	m := NewManager(Config{})
	base := ndarray.NewBuffer(nil)
	require.Nil(t, m.LookupOptions(base))
	require.Equal(t, Internal, m.Options(base).Storage)

	opts := &Options{Storage: External, CompressionKwargs: map[string]any{"level": 3}}
	m.SetOptions(base, opts)
	require.Same(t, opts, m.LookupOptions(base))
	c := m.Options(base)
	require.NotSame(t, opts, c)
	c.CompressionKwargs["level"] = 5
	require.Equal(t, 3, opts.CompressionKwargs["level"])
}

func TestReplaceData(t *testing.T) {
	w := NewManager(Config{})
	_, err := w.MakeWriteRequest(ndarray.NewBuffer([]byte{1, 2, 3, 4}), &Options{}, nil)
	require.NoError(t, err)
	file := writeBlocks(t, w)

	r, err := Read(bytes.NewReader(file), int64(len(file)), 0, Config{})
	require.NoError(t, err)
	old, err := r.Data(0)
	require.NoError(t, err)

	require.NoError(t, r.ReplaceData(0, []byte{9, 9}))
	require.True(t, old.Closed())

	fresh, err := r.Data(0)
	require.NoError(t, err)
	require.NotSame(t, old, fresh)
	require.Equal(t, []byte{9, 9}, fresh.Bytes())
	h, err := r.Header(0)
	require.NoError(t, err)
	require.Equal(t, uint64(2), h.DataSize)
}

func TestMemmap(t *testing.T) {
	w := NewManager(Config{})
	payload := bytes.Repeat([]byte{1, 2, 3}, 5000)
	_, err := w.MakeWriteRequest(ndarray.NewBuffer(payload), &Options{}, nil)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "blocks")
	require.NoError(t, os.WriteFile(path, writeBlocks(t, w), 0o644))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	st, err := f.Stat()
	require.NoError(t, err)

	r, err := Read(f, st.Size(), 0, Config{Memmap: true, ValidateChecksums: true})
	require.NoError(t, err)
	data, err := r.Data(0)
	require.NoError(t, err)
	require.Equal(t, payload, data.Bytes())

	require.Equal(t, mmap.Supported, data.ReadOnly())
	require.NoError(t, r.Close())
	require.True(t, data.Closed())

	_, err = r.Data(0)
	require.True(t, errors.Is(err, ndarray.ErrStorageClosed), "%v", err)
	_, err = r.Header(0)
	require.True(t, errors.Is(err, ndarray.ErrStorageClosed), "%v", err)
	require.True(t, errors.Is(r.ReplaceData(0, []byte{1}), ndarray.ErrStorageClosed))
}
