package organelle

import "github.com/kiralab/organelle/expr"

type options struct {
	normalize bool
	cache     bool
	cachePath string
	metaPath  string
	scale     float32
	logger    *Logger
}

func defaultOptions() options {
	return options{
		scale:  expr.DefaultScale,
		logger: NoopLogger(),
	}
}

// Option configures Load behavior.
type Option func(*options)

// WithNormalize enables ln(1+count/lib*scale) normalization on the
// accessor returned by Bundle.Accessor.
func WithNormalize(enabled bool) Option {
	return func(o *options) {
		o.normalize = enabled
	}
}

// WithCache persists normalized columns in a content-addressed side file
// next to the matrix source, and restores them on later runs when every
// input fingerprint still matches. Only effective together with normalize.
func WithCache(enabled bool) Option {
	return func(o *options) {
		o.cache = enabled
	}
}

// WithCachePath overrides the default cache file location.
func WithCachePath(path string) Option {
	return func(o *options) {
		o.cachePath = path
	}
}

// WithMetaPath loads a per-cell metadata TSV alongside the matrix, aligned
// to the barcode list.
func WithMetaPath(path string) Option {
	return func(o *options) {
		o.metaPath = path
	}
}

// WithScale overrides the library-size scale factor.
//
// If zero is passed, expr.DefaultScale is used.
func WithScale(scale float32) Option {
	return func(o *options) {
		if scale == 0 {
			scale = expr.DefaultScale
		}
		o.scale = scale
	}
}

// WithLogger configures structured logging.
//
// If nil is passed, logging stays disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}
