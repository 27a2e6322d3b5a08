package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"click-client/internal/channels"
	"click-client/internal/models"
)

type ChatAPIMock struct {
	mock.Mock
}

func (m *ChatAPIMock) ListChats(ctx context.Context, username string) ([]models.Chat, error) {
	args := m.Called(ctx, username)
	var chats []models.Chat
	if val := args.Get(0); val != nil {
		chats = val.([]models.Chat)
	}
	return chats, args.Error(1)
}

func (m *ChatAPIMock) CreateChat(ctx context.Context, participantIDs []string, roomName, lastMessage string) (models.Chat, error) {
	args := m.Called(ctx, participantIDs, roomName, lastMessage)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatAPIMock) UpdateLastMessage(ctx context.Context, chatID, lastMessage string) error {
	args := m.Called(ctx, chatID, lastMessage)
	return args.Error(0)
}

type MessageAPIMock struct {
	mock.Mock
}

func (m *MessageAPIMock) ListMessages(ctx context.Context, chatID string) ([]models.ChatMessage, error) {
	args := m.Called(ctx, chatID)
	var messages []models.ChatMessage
	if val := args.Get(0); val != nil {
		messages = val.([]models.ChatMessage)
	}
	return messages, args.Error(1)
}

func (m *MessageAPIMock) SaveMessage(ctx context.Context, chatID, sender, text string) (models.ChatMessage, error) {
	args := m.Called(ctx, chatID, sender, text)
	var message models.ChatMessage
	if val := args.Get(0); val != nil {
		message = val.(models.ChatMessage)
	}
	return message, args.Error(1)
}

type RequestAPIMock struct {
	mock.Mock
}

func (m *RequestAPIMock) ListRequests(ctx context.Context) ([]models.FriendRequest, error) {
	args := m.Called(ctx)
	var requests []models.FriendRequest
	if val := args.Get(0); val != nil {
		requests = val.([]models.FriendRequest)
	}
	return requests, args.Error(1)
}

func (m *RequestAPIMock) SendRequest(ctx context.Context, toUsername string) error {
	args := m.Called(ctx, toUsername)
	return args.Error(0)
}

func (m *RequestAPIMock) DeleteRequest(ctx context.Context, requestID string) error {
	args := m.Called(ctx, requestID)
	return args.Error(0)
}

// RegistryMock fakes the message-channel surface. The handler passed to Open
// is captured so tests can deliver channel events by hand.
type RegistryMock struct {
	mock.Mock
	Handler channels.Handler
}

func (m *RegistryMock) Open(ctx context.Context, kind channels.Kind, key string, handler channels.Handler) error {
	args := m.Called(ctx, kind, key)
	m.Handler = handler
	return args.Error(0)
}

func (m *RegistryMock) Send(kind channels.Kind, v any) error {
	args := m.Called(kind, v)
	return args.Error(0)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
