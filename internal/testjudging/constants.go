package testjudging

import "time"

// HTTP status code constants.
const (
	StatusOK              = 200
	StatusCreated         = 201
	StatusAccepted        = 202
	StatusTooManyRequests = 429
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	DrainPollInterval    = 200 * time.Millisecond
	DrainStablePolls     = 10
	PercentageMultiplier = 100
	DefaultTolerance     = 1e-9
)
