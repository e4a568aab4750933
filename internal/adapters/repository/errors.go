package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrEmpty         = errors.New("store is empty")
	ErrUnknownDriver = errors.New("unknown storage driver")
	ErrCorruptState  = errors.New("stored state is corrupt")
)
