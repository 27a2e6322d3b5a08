package models

import "time"

// TimestampLayout is the second-precision UTC format the API stores in a
// chat's last_message field.
const TimestampLayout = "2006-01-02T15:04:05"

// Chat is the client's read-mostly projection of a server-owned chat between
// exactly two users.
type Chat struct {
	ID           string   `json:"id"`
	Participants []string `json:"participants"`
	RoomName     string   `json:"room_name,omitempty"`
	LastMessage  string   `json:"last_message,omitempty"`
}

// OtherParticipant returns the participant that is not the given username.
func (c Chat) OtherParticipant(username string) (string, bool) {
	for _, participant := range c.Participants {
		if participant != username {
			return participant, true
		}
	}
	return "", false
}

// Contact is a view-model entity derived from a chat the current identity
// participates in. Contacts are never stored independently of chats.
type Contact struct {
	Username string `json:"username"`
	ChatID   string `json:"chat_id"`
}

// Timestamp formats t the way the API expects last_message values.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
