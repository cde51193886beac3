package creedmoor

import (
	"log/slog"

	"github.com/hupe1980/creedmoor/storage"
)

type options struct {
	logger            *Logger
	metricsCollector  MetricsCollector
	compression       storage.Compression
	maxEvictionsPerOp int
	engine            storage.Engine
}

// Option configures Open behavior.
type Option func(*options)

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets
// it. Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithCompression selects the value codec applied before values reach
// the storage engine. Size accounting always uses uncompressed sizes,
// so compression only shrinks the on-disk footprint.
func WithCompression(c storage.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithMaxEvictionsPerOp bounds how many victims a single put may evict
// before it gives up with ErrInsufficientCapacity. Zero or negative
// means unbounded (the loop is still bounded by the number of cached
// entries).
func WithMaxEvictionsPerOp(n int) Option {
	return func(o *options) {
		o.maxEvictionsPerOp = n
	}
}

// withEngine swaps the storage engine. Used by tests to inject failing
// engines; the public constructor always builds a pebble engine.
func withEngine(e storage.Engine) Option {
	return func(o *options) {
		o.engine = e
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		compression:      storage.CompressionNone,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
