package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOptions_Setters(t *testing.T) {
	var o options

	TTR(20 * time.Second)(&o)
	require.Equal(t, 20*time.Second, o.ttr, "TTR not set")

	Delay(3 * time.Second)(&o)
	require.Equal(t, 3*time.Second, o.delay, "Delay not set")

	MaxAttempts(7)(&o)
	require.Equal(t, int64(7), o.maxAttempts, "MaxAttempts not set")

	reg := NewRegistry()
	WithRegistry(reg)(&o)
	require.Same(t, reg, o.registry, "WithRegistry not set")

	l := NewFmtLogger()
	WithLogger(l)(&o)
	require.Equal(t, l, o.logger, "WithLogger not set")
}

func TestWorkerOptions_Setters(t *testing.T) {
	var o workerOptions

	PollInterval(50 * time.Millisecond)(&o)
	require.Equal(t, 50*time.Millisecond, o.poll, "PollInterval not set")

	Backoff(2 * time.Second)(&o)
	require.Equal(t, 2*time.Second, o.backoff, "Backoff not set")

	l := NewFmtLogger()
	WithWorkerLogger(l)(&o)
	require.Equal(t, l, o.logger, "WithWorkerLogger not set")
}
