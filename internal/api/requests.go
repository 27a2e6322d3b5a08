package api

import (
	"context"
	"net/http"

	"click-client/internal/models"
)

// RequestAPI abstracts the friend-request endpoints.
type RequestAPI interface {
	ListRequests(ctx context.Context) ([]models.FriendRequest, error)
	SendRequest(ctx context.Context, toUsername string) error
	DeleteRequest(ctx context.Context, requestID string) error
}

// ListRequests returns the pending requests addressed to the current
// identity, newest first.
func (c *Client) ListRequests(ctx context.Context) ([]models.FriendRequest, error) {
	var requests []models.FriendRequest
	if err := c.do(ctx, http.MethodGet, "/requests/list/", "/requests/list", nil, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// SendRequest creates a friend request addressed to toUsername. The sender
// never sees their own outgoing request in the pending list.
func (c *Client) SendRequest(ctx context.Context, toUsername string) error {
	body := struct {
		ReceivedFrom string `json:"received_from"`
	}{ReceivedFrom: toUsername}
	return c.do(ctx, http.MethodPost, "/requests/send/", "/requests/send", body, nil)
}

// DeleteRequest removes the authoritative request record.
func (c *Client) DeleteRequest(ctx context.Context, requestID string) error {
	body := struct {
		ID string `json:"id"`
	}{ID: requestID}
	return c.do(ctx, http.MethodDelete, "/requests/delete/", "/requests/delete", body, nil)
}
