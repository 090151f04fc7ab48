package queue

import (
	"context"
	"encoding/json"
	"fmt"
)

// Job is the capability a work item must provide: a stable type tag used for
// polymorphic decoding, and the work itself. The queue never inspects a job's
// fields; it serializes it on Push, stores it, and decodes it back into the
// concrete type by tag before invoking Execute.
//
// A job type must also be serializable by the configured Encoder (for the
// default JSONEncoder this means exported fields, JSON-taggable).
type Job interface {
	// Tag returns the discriminant stored inside the serialized payload.
	// It must be stable across processes and releases.
	Tag() string
	// Execute runs the job. A non-nil error marks the attempt as failed;
	// whether that leads to a retry is the consumer loop's policy.
	Execute(ctx context.Context) error
}

// Registry maps type tags to job factories so payloads can be decoded back
// into their concrete types without the caller knowing the type in advance.
// A Registry is not safe for concurrent mutation; register every job type
// before sharing it with queues and workers.
type Registry struct {
	factories map[string]func() Job
	encoder   Encoder
}

// NewRegistry creates an empty job registry using the default JSONEncoder.
func NewRegistry() *Registry {
	return NewRegistryWithEncoder(&JSONEncoder{})
}

// NewRegistryWithEncoder creates an empty job registry using a custom
// encoder. Producers and consumers of a channel must agree on the encoding.
func NewRegistryWithEncoder(e Encoder) *Registry {
	return &Registry{
		factories: make(map[string]func() Job),
		encoder:   e,
	}
}

// Register adds a factory for one job type. The tag is taken from a fresh
// instance produced by the factory. Registering the same tag twice returns
// ErrDuplicateJobType.
func (r *Registry) Register(fn func() Job) error {
	tag := fn().Tag()
	if _, ok := r.factories[tag]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateJobType, tag)
	}
	r.factories[tag] = fn
	return nil
}

// Marshal serializes a job into its self-describing form: the job's own JSON
// object with a "type" field carrying the tag.
func (r *Registry) Marshal(j Job) ([]byte, error) {
	body, err := r.encoder.Encode(j)
	if err != nil {
		return nil, fmt.Errorf("queue: encode job %q: %w", j.Tag(), err)
	}
	var fields map[string]json.RawMessage
	if err := r.encoder.Decode(body, &fields); err != nil {
		return nil, fmt.Errorf("queue: job %q does not serialize to an object: %w", j.Tag(), err)
	}
	if fields == nil {
		fields = make(map[string]json.RawMessage, 1)
	}
	tag, err := r.encoder.Encode(j.Tag())
	if err != nil {
		return nil, fmt.Errorf("queue: encode tag %q: %w", j.Tag(), err)
	}
	fields["type"] = tag
	return r.encoder.Encode(fields)
}

// Unmarshal decodes a self-describing payload back into its concrete job
// type, selected by the embedded tag. It returns ErrUnknownJobType when no
// factory is registered for the tag.
func (r *Registry) Unmarshal(data []byte) (Job, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := r.encoder.Decode(data, &env); err != nil {
		return nil, fmt.Errorf("queue: decode payload envelope: %w", err)
	}
	fn, ok := r.factories[env.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownJobType, env.Type)
	}
	j := fn()
	if err := r.encoder.Decode(data, j); err != nil {
		return nil, fmt.Errorf("queue: decode job %q: %w", env.Type, err)
	}
	return j, nil
}
