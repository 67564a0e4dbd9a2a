package iqdb

import "os"

// options collects the configuration every mode constructor accepts.
type options struct {
	pageSize   int
	scratchDir string
	logger     *Logger
	sketch     bool
	minStddev  float64
	clusterK   int
}

// Option configures a database constructor.
type Option func(*options)

// WithLogger installs a structured logger. Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithPageSize overrides the page size used to grow paged bucket storage.
// The default is the host's page size, queried once at startup per
// spec.md §6's "hard configuration" note.
func WithPageSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.pageSize = n
		}
	}
}

// WithScratchDir sets the directory unlinked scratch files (paged bucket
// storage, the mutable-mode signature cache) are created in. The OS default
// temp directory is used when unset.
func WithScratchDir(dir string) Option {
	return func(o *options) { o.scratchDir = dir }
}

// WithSketchDefault(true) makes every Normal and Simple query use the sketch
// (hand-drawn) weight table; a call's Flags.Sketch=false does not override it.
func WithSketchDefault(sketch bool) Option {
	return func(o *options) { o.sketch = sketch }
}

// WithClusterParams records a neighbor count and minimum standard deviation
// floor on the instance. DiscoverDuplicates takes both as arguments and
// does not read these stored values.
func WithClusterParams(k int, minStddev float64) Option {
	return func(o *options) {
		if k > 0 {
			o.clusterK = k
		}
		o.minStddev = minStddev
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		pageSize:  os.Getpagesize(),
		logger:    NoopLogger(),
		clusterK:  20,
		minStddev: 10,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
