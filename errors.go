package queue

import "errors"

// ErrNoJob is returned by Reserve when the waiting list is empty (non-blocking)
// or nothing became available within the timeout (blocking).
var ErrNoJob = errors.New("queue: no job found")

// ErrInvalidTTR is returned by Reserve when a message record's ttr prefix does
// not parse as a non-negative integer. The record is left in place so an
// operator can inspect it.
var ErrInvalidTTR = errors.New("queue: invalid ttr")

// ErrUnknownJobType is returned when decoding a payload whose type tag has no
// registered job factory.
var ErrUnknownJobType = errors.New("queue: unknown job type")

// ErrDuplicateJobType is returned by Registry.Register when a factory for the
// same tag is already registered.
var ErrDuplicateJobType = errors.New("queue: duplicate job type")
