package models

import "time"

// Message is one entry of the in-memory timeline for the selected chat.
// FromSelf is computed by comparing Sender to the current identity's username
// and holds for every entry regardless of origin.
type Message struct {
	Text      string    `json:"text"`
	Sender    string    `json:"sender"`
	ChatID    string    `json:"chat_id"`
	FromSelf  bool      `json:"from_self"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatMessage is a persisted message record as returned by the REST API.
type ChatMessage struct {
	ID       string `json:"id"`
	ChatID   string `json:"chat"`
	SentFrom string `json:"sent_from"`
	Text     string `json:"text"`
	Created  string `json:"created"`
}

// CreatedAt parses the record's creation time. The zero time is returned when
// the server sends a format this client does not know.
func (m ChatMessage) CreatedAt() time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, TimestampLayout} {
		if t, err := time.Parse(layout, m.Created); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ChannelMessage is the payload exchanged in both directions on a per-chat
// push channel.
type ChannelMessage struct {
	Message  string `json:"message"`
	Username string `json:"username"`
}
