package export

import (
	"time"

	"github.com/okian/juryrank/pkg/logger"
)

// Option configures an Exporter.
type Option func(*Exporter)

// WithSchedule sets a five-field cron expression (descriptors like
// "@hourly" and "@every 10m" are accepted). Empty disables scheduling.
func WithSchedule(spec string) Option {
	return func(e *Exporter) { e.spec = spec }
}

// WithSkipUnchanged makes scheduled runs skip writing when the rankings
// version has not moved since the last export.
func WithSkipUnchanged(skip bool) Option {
	return func(e *Exporter) { e.skipUnchanged = skip }
}

// WithLogger sets the exporter logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Exporter) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock overrides time.Now for export timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) {
		if now != nil {
			e.now = now
		}
	}
}
