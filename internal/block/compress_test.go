package block

import (
	"bytes"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestCodecs(t *testing.T) {
	data := bytes.Repeat([]byte("array bytes "), 500)
	for label := range Registry {
		for _, kwargs := range []map[string]any{nil, {"level": 1}, {"level": 9}} {
			t.Run(label, func(t *testing.T) {
				codec, err := Lookup(label)
				require.NoError(t, err)
				require.Equal(t, label, codec.Label())

				packed, err := codec.Compress(data, kwargs)
				require.NoError(t, err)
				require.Less(t, len(packed), len(data))

				got, err := codec.Decompress(packed, len(data))
				require.NoError(t, err)
				require.Equal(t, data, got)
			})
		}
	}
}

func TestCodecSizeMismatch(t *testing.T) {
	for _, label := range []string{"zstd", "snpy", "zlib"} {
		codec, err := Lookup(label)
		require.NoError(t, err)
		packed, err := codec.Compress([]byte("abc"), nil)
		require.NoError(t, err)
		_, err = codec.Decompress(packed, 10)
		require.Error(t, err, label)
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("bzp2")
	require.True(t, errors.Is(err, ErrUnsupported))
}

func TestParseStorage(t *testing.T) {
	for _, s := range []Storage{Internal, External, Inline, Streamed} {
		got, err := ParseStorage(s.String())
		require.NoError(t, err)
		require.Equal(t, s, got)
	}
	_, err := ParseStorage("cloud")
	require.Error(t, err)
}
