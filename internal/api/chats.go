package api

import (
	"context"
	"net/http"

	"click-client/internal/models"
)

// ChatAPI abstracts the chat endpoints.
type ChatAPI interface {
	ListChats(ctx context.Context, username string) ([]models.Chat, error)
	CreateChat(ctx context.Context, participantIDs []string, roomName, lastMessage string) (models.Chat, error)
	UpdateLastMessage(ctx context.Context, chatID, lastMessage string) error
}

// ListChats returns every chat the user participates in, most recently
// active first.
func (c *Client) ListChats(ctx context.Context, username string) ([]models.Chat, error) {
	var chats []models.Chat
	err := c.do(ctx, http.MethodGet, "/chats/list/"+username+"/", "/chats/list/:username", nil, &chats)
	if err != nil {
		return nil, err
	}
	return chats, nil
}

// CreateChat creates a chat for the given participant ids.
func (c *Client) CreateChat(ctx context.Context, participantIDs []string, roomName, lastMessage string) (models.Chat, error) {
	body := struct {
		Participants []string `json:"participants"`
		RoomName     string   `json:"room_name"`
		LastMessage  string   `json:"last_message"`
	}{
		Participants: participantIDs,
		RoomName:     roomName,
		LastMessage:  lastMessage,
	}

	var chat models.Chat
	if err := c.do(ctx, http.MethodPost, "/chats/create/", "/chats/create", body, &chat); err != nil {
		return models.Chat{}, err
	}
	return chat, nil
}

// UpdateLastMessage moves the chat's last-message time forward.
func (c *Client) UpdateLastMessage(ctx context.Context, chatID, lastMessage string) error {
	body := struct {
		LastMessage string `json:"last_message"`
	}{LastMessage: lastMessage}
	return c.do(ctx, http.MethodPut, "/chats/update/"+chatID+"/", "/chats/update/:chat_id", body, nil)
}
