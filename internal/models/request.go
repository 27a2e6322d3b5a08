package models

// FriendRequest is the client's snapshot of a pending request addressed to
// the current identity. Accepting or declining deletes the server record;
// there is no archived state.
type FriendRequest struct {
	ID                   string `json:"id"`
	SentFromID           string `json:"sent_from_id"`
	SentFromUsername     string `json:"sent_from_username"`
	ReceivedFromID       string `json:"received_from_id"`
	ReceivedFromUsername string `json:"received_from_username"`
}
