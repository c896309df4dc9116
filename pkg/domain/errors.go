package domain

import "errors"

// ErrNotFound is returned when a namespace, chapter, or task does not exist.
var ErrNotFound = errors.New("not found")

// ErrCorruptState is returned when persisted state exists but does not parse
// into the expected shape. It is never downgraded to a default state.
var ErrCorruptState = errors.New("corrupt state")

// ErrWrite is returned when a durable-storage write fails. Callers must not
// assume partial success.
var ErrWrite = errors.New("write failed")

// ErrGeneration is returned when the external generation capability fails.
// Transport details are wrapped, never leaked as raw errors.
var ErrGeneration = errors.New("generation failed")

// ErrUsage is returned for caller mistakes, such as advancing a session that
// has no chapters yet or draining a queue that is already draining.
var ErrUsage = errors.New("usage error")
