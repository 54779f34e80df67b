package asdf

import (
	"maps"

	"github.com/cockroachdb/pebble/vfs"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/robert-malhotra/go-asdf/internal/block"
)

// StorageKind selects where an array's bytes are written.
type StorageKind = block.Storage

const (
	StorageInternal = block.Internal
	StorageExternal = block.External
	StorageInline   = block.Inline
	StorageStreamed = block.Streamed
)

// ParseStorageKind parses "internal", "external", "inline" or "streamed".
func ParseStorageKind(name string) (StorageKind, error) {
	return block.ParseStorage(name)
}

// CompressionInput keeps each array's own compression when writing.
const CompressionInput = "input"

// Option configures how a file is opened and written.
type Option func(*options)

type options struct {
	storage           *StorageKind
	compression       string
	compressionKwargs map[string]any
	inlineThreshold   int

	lazyLoad          bool
	memmap            bool
	validateChecksums bool

	fs       vfs.FS
	logger   Logger
	registry prometheus.Registerer
}

func defaultOptions() *options {
	return &options{
		compression:     CompressionInput,
		inlineThreshold: -1,
		lazyLoad:        true,
		fs:              vfs.Default,
		logger:          noopLogger{},
	}
}

func buildOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithArrayStorage forces every array to be written with the given storage.
func WithArrayStorage(kind StorageKind) Option {
	return func(o *options) {
		o.storage = &kind
	}
}

// WithArrayCompression forces every block to be written with the given
// compression label ("zlib", "zstd", "snpy"). The empty label writes
// uncompressed blocks and CompressionInput keeps each array's compression.
func WithArrayCompression(label string, kwargs map[string]any) Option {
	return func(o *options) {
		o.compression = label
		o.compressionKwargs = kwargs
	}
}

// WithInlineThreshold writes arrays with fewer than n elements inline and
// all others to internal blocks. A negative n disables the threshold.
func WithInlineThreshold(n int) Option {
	return func(o *options) {
		if n < 0 {
			n = -1
		}
		o.inlineThreshold = n
	}
}

// WithLazyLoad controls whether arrays are loaded on first access (the
// default) or while the file is opened.
func WithLazyLoad(lazy bool) Option {
	return func(o *options) {
		o.lazyLoad = lazy
	}
}

// WithMemmap maps uncompressed blocks into memory instead of reading them.
func WithMemmap(enabled bool) Option {
	return func(o *options) {
		o.memmap = enabled
	}
}

// WithValidateChecksums verifies block checksums as blocks are loaded.
func WithValidateChecksums(enabled bool) Option {
	return func(o *options) {
		o.validateChecksums = enabled
	}
}

// WithFS sets the file system files are opened from and written to.
func WithFS(fs vfs.FS) Option {
	return func(o *options) {
		o.fs = fs
	}
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(l Logger) Option {
	return func(o *options) {
		if l == nil {
			l = noopLogger{}
		}
		o.logger = l
	}
}

// WithMetrics registers the file's counters with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// Config is the write-side configuration seen by the serializer.
type Config struct {
	// ForcedStorage, when set, overrides every array's storage.
	ForcedStorage *StorageKind

	// ForcedCompression overrides every block's compression unless it is
	// CompressionInput.
	ForcedCompression string
	CompressionKwargs map[string]any

	// InlineThreshold is the element count below which arrays are inlined,
	// or -1.
	InlineThreshold int
}

func (o *options) config() Config {
	c := Config{
		ForcedCompression: o.compression,
		CompressionKwargs: maps.Clone(o.compressionKwargs),
		InlineThreshold:   o.inlineThreshold,
	}
	if o.storage != nil {
		kind := *o.storage
		c.ForcedStorage = &kind
	}
	return c
}
