package export

import "errors"

var (
	// ErrNoPath is returned when the exporter has no destination.
	ErrNoPath = errors.New("export: path is required")
	// ErrSchedule wraps an invalid cron expression.
	ErrSchedule = errors.New("export: invalid schedule")
)
