package store

import "log/slog"

// DefaultMaxKeyBytes bounds key length, and with it index memory, unless
// Options override it.
const DefaultMaxKeyBytes = 256

// Options configure Open.
type Options struct {
	// MaxKeyBytes is the largest accepted key length in bytes.
	// Zero means DefaultMaxKeyBytes.
	MaxKeyBytes int

	// Strict makes replay fail with ErrCorruption on the first invalid
	// record instead of truncating the log at the last valid offset.
	Strict bool

	// Logger receives replay warnings and compaction stats.
	// Nil means slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns the recovering-mode defaults.
func DefaultOptions() Options {
	return Options{MaxKeyBytes: DefaultMaxKeyBytes}
}

func (o Options) withDefaults() Options {
	if o.MaxKeyBytes <= 0 {
		o.MaxKeyBytes = DefaultMaxKeyBytes
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}
