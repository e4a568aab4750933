package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrBackpressure = errors.New("submission queue is full")
	ErrConflict     = errors.New("already exists")
	ErrNotRanked    = errors.New("project has no scores yet")
)
