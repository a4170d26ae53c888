package cascade

import (
	"log/slog"
	"runtime"

	"github.com/hupe1980/cascade/internal/hasher"
	"github.com/hupe1980/cascade/resource"
)

// DefaultRatio is the default nearest-neighbor ratio-test threshold.
const DefaultRatio float32 = 0.8

type options struct {
	ratio            float32
	hash             hasher.Config
	workers          int
	logger           *Logger
	metricsCollector MetricsCollector
	progress         Progress
	memoryLimit      int64
	rc               *resource.Controller
}

func defaultOptions() options {
	return options{
		ratio:            DefaultRatio,
		hash:             hasher.DefaultConfig(),
		workers:          runtime.GOMAXPROCS(0),
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		progress:         noopProgress{},
	}
}

// Option configures a Matcher.
type Option func(*options)

// HashConfig is the cascade hashing layout.
type HashConfig = hasher.Config

// DefaultHashConfig returns the standard layout: 6 groups of 10 bits,
// 128-bit fingerprints and 10 exact candidates per query.
func DefaultHashConfig() HashConfig {
	return hasher.DefaultConfig()
}

// WithRatio sets the ratio-test threshold. A correspondence is kept when
// d1 < ratio² · d2 on squared distances. Must be in (0, 1).
func WithRatio(ratio float32) Option {
	return func(o *options) {
		o.ratio = ratio
	}
}

// WithHashConfig replaces the hashing layout.
func WithHashConfig(cfg HashConfig) Option {
	return func(o *options) {
		o.hash = cfg
	}
}

// WithSeed sets the seed of the random projections. Results are
// reproducible for a fixed seed.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.hash.Seed = seed
	}
}

// WithWorkers bounds the number of concurrent index builds and pair
// matches. Values <= 0 select runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(o *options) {
		if n <= 0 {
			n = runtime.GOMAXPROCS(0)
		}
		o.workers = n
	}
}

// WithLogger sets the logger. If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithLogLevel installs a text logger to stderr at the given level.
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector sets the metrics collector.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithProgress sets the progress observer.
func WithProgress(p Progress) Option {
	return func(o *options) {
		if p == nil {
			p = noopProgress{}
		}
		o.progress = p
	}
}

// WithMemoryLimit caps the memory held by hash indices during a job.
// Ignored when WithResourceController is also given.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithResourceController shares a resource controller between matchers,
// so concurrent jobs draw from one memory and worker budget.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}
