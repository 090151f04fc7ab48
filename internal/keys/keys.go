package keys

// Package keys centralizes Redis key construction for a channel.
// The layout is "<channel>.<suffix>" and must stay stable: other processes
// (including non-Go ones) address the same keys.

func MessageID(ch string) string { return ch + ".message_id" }
func Messages(ch string) string  { return ch + ".messages" }
func Waiting(ch string) string   { return ch + ".waiting" }
func Delayed(ch string) string   { return ch + ".delayed" }
func Reserved(ch string) string  { return ch + ".reserved" }
func Attempts(ch string) string  { return ch + ".attempts" }

// MovingLock is the advisory lock key that gates the recovery sweep.
func MovingLock(ch string) string { return ch + ".moving_lock" }

// Pattern matches every key belonging to the channel, for Clear.
func Pattern(ch string) string { return ch + ".*" }

// Channel holds all precomputed keys for a channel name to avoid repeated
// concatenations on hot paths.
type Channel struct {
	MessageID  string
	Messages   string
	Waiting    string
	Delayed    string
	Reserved   string
	Attempts   string
	MovingLock string
	Pattern    string
}

// For returns the precomputed key set for the provided channel.
func For(ch string) Channel {
	return Channel{
		MessageID:  ch + ".message_id",
		Messages:   ch + ".messages",
		Waiting:    ch + ".waiting",
		Delayed:    ch + ".delayed",
		Reserved:   ch + ".reserved",
		Attempts:   ch + ".attempts",
		MovingLock: ch + ".moving_lock",
		Pattern:    ch + ".*",
	}
}
