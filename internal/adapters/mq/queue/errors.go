package queue

import "errors"

// Sentinel errors returned by Sink.Publish.
var (
	ErrClosed = errors.New("queue closed")
	ErrFull   = errors.New("queue full")
)
