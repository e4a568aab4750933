package dedupe

// Option applies a configuration option to the deduper.
type Option func(*window)

// WithMaxSize sets how many ids are remembered. Values <= 0 disable eviction.
func WithMaxSize(maxSize int) Option {
	return func(d *window) {
		d.maxSize = maxSize
	}
}
