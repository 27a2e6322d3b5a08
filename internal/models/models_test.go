package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOtherParticipant(t *testing.T) {
	chat := Chat{ID: "c1", Participants: []string{"alice", "bob"}}

	other, ok := chat.OtherParticipant("alice")
	require.True(t, ok)
	assert.Equal(t, "bob", other)

	other, ok = chat.OtherParticipant("bob")
	require.True(t, ok)
	assert.Equal(t, "alice", other)

	_, ok = Chat{ID: "c2", Participants: []string{"alice"}}.OtherParticipant("alice")
	assert.False(t, ok)
}

func TestTimestampFormat(t *testing.T) {
	at := time.Date(2024, 3, 9, 15, 4, 5, 0, time.FixedZone("CET", 3600))
	assert.Equal(t, "2024-03-09T14:04:05", Timestamp(at))
}

func TestChatMessageCreatedAt(t *testing.T) {
	cases := []struct {
		name    string
		created string
		want    time.Time
	}{
		{"rfc3339nano", "2024-03-09T14:04:05.123456Z", time.Date(2024, 3, 9, 14, 4, 5, 123456000, time.UTC)},
		{"rfc3339", "2024-03-09T14:04:05Z", time.Date(2024, 3, 9, 14, 4, 5, 0, time.UTC)},
		{"bare", "2024-03-09T14:04:05", time.Date(2024, 3, 9, 14, 4, 5, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg := ChatMessage{Created: tc.created}
			assert.True(t, msg.CreatedAt().Equal(tc.want))
		})
	}
}

func TestChatMessageCreatedAtUnparseable(t *testing.T) {
	msg := ChatMessage{Created: "yesterday"}
	assert.True(t, msg.CreatedAt().IsZero())
}
