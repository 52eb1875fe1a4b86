package pipetab

import "go.uber.org/zap"

// DefaultMaxLineBytes is the longest source line accepted by default.
const DefaultMaxLineBytes = 1 << 20

// Option configures Reformat, ConvertFile and Inspect.
type Option func(*options)

type options struct {
	logger       *zap.Logger
	strict       bool
	encoding     string
	maxLineBytes int
}

func newOptions(opts []Option) options {
	o := options{
		logger:       zap.NewNop(),
		maxLineBytes: DefaultMaxLineBytes,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger used to report progress. A nil logger
// disables logging.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l == nil {
			l = zap.NewNop()
		}
		o.logger = l
	}
}

// WithStrict makes a missing trailing pipe fail the run with
// ErrMissingTrailingPipe instead of silently dropping the line's last field.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// WithEncoding sets the character encoding of the source. The empty string
// and "utf-8" read the source as-is. See charset.Lookup for accepted names.
func WithEncoding(name string) Option {
	return func(o *options) {
		o.encoding = name
	}
}

// WithMaxLineBytes sets the longest source line accepted. Values <= 0 keep
// DefaultMaxLineBytes.
func WithMaxLineBytes(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxLineBytes = n
		}
	}
}
