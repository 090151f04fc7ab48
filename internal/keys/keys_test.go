package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys_Builders(t *testing.T) {
	ch := "mail"
	assert.Equal(t, "mail.message_id", MessageID(ch))
	assert.Equal(t, "mail.messages", Messages(ch))
	assert.Equal(t, "mail.waiting", Waiting(ch))
	assert.Equal(t, "mail.delayed", Delayed(ch))
	assert.Equal(t, "mail.reserved", Reserved(ch))
	assert.Equal(t, "mail.attempts", Attempts(ch))
	assert.Equal(t, "mail.moving_lock", MovingLock(ch))
	assert.Equal(t, "mail.*", Pattern(ch))
}

func TestKeys_For(t *testing.T) {
	ch := For("video")
	assert.Equal(t, "video.message_id", ch.MessageID)
	assert.Equal(t, "video.messages", ch.Messages)
	assert.Equal(t, "video.waiting", ch.Waiting)
	assert.Equal(t, "video.delayed", ch.Delayed)
	assert.Equal(t, "video.reserved", ch.Reserved)
	assert.Equal(t, "video.attempts", ch.Attempts)
	assert.Equal(t, "video.moving_lock", ch.MovingLock)
	assert.Equal(t, "video.*", ch.Pattern)
}
