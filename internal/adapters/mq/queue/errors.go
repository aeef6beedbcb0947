package queue

import "errors"

// Sentinel errors returned by Enqueue.
var (
	ErrFull   = errors.New("write queue full")
	ErrClosed = errors.New("write queue closed")
)
