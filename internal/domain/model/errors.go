package model

import "errors"

// ErrInvalid is wrapped by every validation failure in this package.
var ErrInvalid = errors.New("invalid input")
