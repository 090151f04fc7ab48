package queue

import "errors"

// Status describes where a message currently is in its lifecycle. The values
// are small integers shared with other processes reading the same store, so
// they must never be renumbered.
//
// Status is derived, not stored: an attempts entry means RESERVED, otherwise
// a message record means WAITING, otherwise DONE. The attempts check comes
// first, so an in-flight job whose record still exists reports RESERVED.
type Status uint8

const (
	// StatusWaiting means the job is waiting to be reserved.
	StatusWaiting Status = 1
	// StatusReserved means the job has been reserved at least once and is not done.
	StatusReserved Status = 2
	// StatusDone means no record of the job remains.
	StatusDone Status = 3
)

// ErrUnknownStatus is returned by ParseStatus for values outside the known set.
var ErrUnknownStatus = errors.New("queue: unknown status")

// String returns the human-readable name of the status.
func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "waiting"
	case StatusReserved:
		return "reserved"
	case StatusDone:
		return "done"
	default:
		return "unknown"
	}
}

// ParseStatus converts a raw integer into a Status, returning an error for
// unknown values.
func ParseStatus(v uint8) (Status, error) {
	switch Status(v) {
	case StatusWaiting, StatusReserved, StatusDone:
		return Status(v), nil
	default:
		return 0, ErrUnknownStatus
	}
}
