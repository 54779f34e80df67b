package block

import (
	"bytes"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// ErrUnsupported is returned for unknown compression labels.
var ErrUnsupported = errors.New("unsupported compression")

// Codec compresses block data.
type Codec interface {
	// Label returns the four-byte header label.
	Label() string

	// Compress returns the compressed form of data.
	Compress(data []byte, kwargs map[string]any) ([]byte, error)

	// Decompress returns size bytes of decompressed data.
	Decompress(data []byte, size int) ([]byte, error)
}

// Registry maps compression labels to codecs.
var Registry = map[string]func() Codec{
	"zlib": func() Codec { return zlibCodec{} },
	"zstd": func() Codec { return zstdCodec{} },
	"snpy": func() Codec { return snappyCodec{} },
}

// Lookup returns the codec for label.
func Lookup(label string) (Codec, error) {
	newCodec, ok := Registry[label]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupported, "compression %q", label)
	}
	return newCodec(), nil
}

func level(kwargs map[string]any, def int) int {
	switch v := kwargs["level"].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

func checkSize(label string, out []byte, size int) ([]byte, error) {
	if len(out) != size {
		return nil, errors.Wrapf(ErrCorrupt, "%s block decompressed to %d bytes, header says %d", label, len(out), size)
	}
	return out, nil
}

type zlibCodec struct{}

func (zlibCodec) Label() string { return "zlib" }

func (zlibCodec) Compress(data []byte, kwargs map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, level(kwargs, zlib.DefaultCompression))
	if err != nil {
		return nil, errors.Wrap(err, "zlib writer")
	}
	if _, err := w.Write(data); err != nil {
		return nil, errors.Wrap(err, "zlib compress")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "zlib compress")
	}
	return buf.Bytes(), nil
}

func (c zlibCodec) Decompress(data []byte, size int) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "zlib reader")
	}
	defer r.Close()

	out := make([]byte, size)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, errors.Wrap(err, "zlib decompress")
	}
	return out, nil
}

type zstdCodec struct{}

func (zstdCodec) Label() string { return "zstd" }

func (zstdCodec) Compress(data []byte, kwargs map[string]any) ([]byte, error) {
	lvl := zstd.SpeedDefault
	if n := level(kwargs, 0); n > 0 {
		lvl = zstd.EncoderLevelFromZstd(n)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(lvl))
	if err != nil {
		return nil, errors.Wrap(err, "zstd writer")
	}
	defer enc.Close()
	return enc.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

func (c zstdCodec) Decompress(data []byte, size int) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, errors.Wrap(err, "zstd reader")
	}
	defer dec.Close()

	out, err := dec.DecodeAll(data, make([]byte, 0, size))
	if err != nil {
		return nil, errors.Wrap(err, "zstd decompress")
	}
	return checkSize(c.Label(), out, size)
}

type snappyCodec struct{}

func (snappyCodec) Label() string { return "snpy" }

func (snappyCodec) Compress(data []byte, _ map[string]any) ([]byte, error) {
	return snappy.Encode(nil, data), nil
}

func (c snappyCodec) Decompress(data []byte, size int) ([]byte, error) {
	out, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, errors.Wrap(err, "snappy decompress")
	}
	return checkSize(c.Label(), out, size)
}
