package memory

import "errors"

// ErrStoreFull is returned when a Put would exceed the configured MaxSize
var ErrStoreFull = errors.New("memory store is full")
