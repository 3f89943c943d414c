package wserrors

import "errors"

// Common errors
var (
	ErrClosed  = errors.New("connection closed")
	ErrTimeout = errors.New("receive timed out")
)
