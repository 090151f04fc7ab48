package queue

import "time"

type options struct {
	ttr         time.Duration
	delay       time.Duration
	maxAttempts int64
	registry    *Registry
	logger      Logger
}

// Option configures a Queue at construction time.
type Option func(*options)

// TTR sets the default time-to-reserve: how long a reservation is valid
// before the recovery sweep treats the job as abandoned and requeues it.
// Sub-second durations are rounded down to whole seconds on the wire.
func TTR(d time.Duration) Option {
	return func(o *options) {
		o.ttr = d
	}
}

// Delay schedules pushed jobs to become ready only after the given duration.
func Delay(d time.Duration) Option {
	return func(o *options) {
		o.delay = d
	}
}

// MaxAttempts sets the advisory maximum number of reservations per job. The
// queue records attempts but does not enforce the cutoff; callers inspect
// Message.Attempts against Queue.MaxAttempts to apply their own policy.
func MaxAttempts(n int64) Option {
	return func(o *options) {
		o.maxAttempts = n
	}
}

// WithRegistry sets the job registry used to serialize pushed jobs and decode
// reserved payloads. Queues that share a channel should share a registry.
func WithRegistry(r *Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithLogger enables logging of queue operations. The default is silent.
func WithLogger(l Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
