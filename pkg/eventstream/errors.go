package eventstream

import "errors"

// ErrNilMemoryEvent indicates a nil memory event payload was provided to a publisher.
var ErrNilMemoryEvent = errors.New("nil memory event")

// ErrQueueFull is returned by asynchronous publishers that drop events under load.
var ErrQueueFull = errors.New("event queue full")
