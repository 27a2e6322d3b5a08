package api

import (
	"context"
	"net/http"

	"click-client/internal/models"
)

// MessageAPI abstracts the message endpoints.
type MessageAPI interface {
	ListMessages(ctx context.Context, chatID string) ([]models.ChatMessage, error)
	SaveMessage(ctx context.Context, chatID, sender, text string) (models.ChatMessage, error)
}

// ListMessages returns the persisted history of one chat in creation order.
func (c *Client) ListMessages(ctx context.Context, chatID string) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := c.do(ctx, http.MethodGet, "/chats/messages/list/"+chatID+"/", "/chats/messages/list/:chat_id", nil, &messages)
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// SaveMessage persists one outgoing message.
func (c *Client) SaveMessage(ctx context.Context, chatID, sender, text string) (models.ChatMessage, error) {
	body := struct {
		Chat     string `json:"chat"`
		SentFrom string `json:"sent_from"`
		Text     string `json:"text"`
	}{
		Chat:     chatID,
		SentFrom: sender,
		Text:     text,
	}

	var message models.ChatMessage
	if err := c.do(ctx, http.MethodPost, "/chats/save_message/", "/chats/save_message", body, &message); err != nil {
		return models.ChatMessage{}, err
	}
	return message, nil
}
