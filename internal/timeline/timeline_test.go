package timeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"click-client/internal/api"
	"click-client/internal/channels"
	"click-client/internal/mocks"
	"click-client/internal/models"
	"click-client/internal/session"
)

type fixture struct {
	timeline *Timeline
	messages *mocks.MessageAPIMock
	chats    *mocks.ChatAPIMock
	registry *mocks.RegistryMock
	session  *session.Session
}

func newFixture() *fixture {
	sess := session.New()
	sess.Establish(models.Identity{ID: "7", Username: "alice"}, "tok")

	messages := new(mocks.MessageAPIMock)
	chats := new(mocks.ChatAPIMock)
	registry := new(mocks.RegistryMock)
	return &fixture{
		timeline: New(sess, messages, chats, registry, nil),
		messages: messages,
		chats:    chats,
		registry: registry,
		session:  sess,
	}
}

func (f *fixture) selectChat(t *testing.T, chatID string, history []models.ChatMessage) {
	f.registry.On("Open", mock.Anything, channels.KindMessages, chatID).Return(nil).Once()
	f.messages.On("ListMessages", mock.Anything, chatID).Return(history, nil).Once()
	require.NoError(t, f.timeline.Select(context.Background(), models.Chat{ID: chatID, Participants: []string{"alice", "bob"}}))
}

func TestSelectMapsHistoryWithFromSelf(t *testing.T) {
	f := newFixture()
	f.selectChat(t, "c1", []models.ChatMessage{
		{ID: "m1", ChatID: "c1", SentFrom: "bob", Text: "hi"},
		{ID: "m2", ChatID: "c1", SentFrom: "alice", Text: "hello"},
	})

	entries := f.timeline.Messages()
	require.Len(t, entries, 2)
	assert.Equal(t, "hi", entries[0].Text)
	assert.False(t, entries[0].FromSelf)
	assert.True(t, entries[1].FromSelf)
}

func TestSendAppendsOnceAndPublishes(t *testing.T) {
	f := newFixture()
	f.selectChat(t, "c1", []models.ChatMessage{
		{ID: "m1", ChatID: "c1", SentFrom: "bob", Text: "hi"},
	})

	f.messages.On("SaveMessage", mock.Anything, "c1", "alice", "yo").Return(models.ChatMessage{ID: "m2"}, nil).Once()
	f.chats.On("UpdateLastMessage", mock.Anything, "c1", mock.AnythingOfType("string")).Return(nil).Once()
	f.registry.On("Send", channels.KindMessages, models.ChannelMessage{Message: "yo", Username: "alice"}).Return(nil).Once()

	require.NoError(t, f.timeline.Send(context.Background(), "yo"))

	entries := f.timeline.Messages()
	require.Len(t, entries, 2)
	assert.False(t, entries[0].FromSelf)
	assert.True(t, entries[1].FromSelf)
	assert.Equal(t, "yo", entries[1].Text)

	f.messages.AssertExpectations(t)
	f.chats.AssertExpectations(t)
	f.registry.AssertExpectations(t)
}

func TestSendStillAppendsWhenPersistenceFails(t *testing.T) {
	f := newFixture()
	f.selectChat(t, "c1", nil)

	persistErr := &api.RequestError{Status: http.StatusInternalServerError, Message: "boom"}
	f.messages.On("SaveMessage", mock.Anything, "c1", "alice", "yo").Return(models.ChatMessage{}, persistErr).Once()
	f.chats.On("UpdateLastMessage", mock.Anything, "c1", mock.AnythingOfType("string")).Return(nil).Once()
	f.registry.On("Send", channels.KindMessages, mock.Anything).Return(nil).Once()

	err := f.timeline.Send(context.Background(), "yo")
	require.Error(t, err)

	// The sender's own message is never silently lost.
	entries := f.timeline.Messages()
	require.Len(t, entries, 1)
	assert.True(t, entries[0].FromSelf)
}

func TestSendSuppressedOnAuthorizationFailure(t *testing.T) {
	f := newFixture()
	f.selectChat(t, "c1", nil)

	f.messages.On("SaveMessage", mock.Anything, "c1", "alice", "yo").Return(models.ChatMessage{}, api.ErrUnauthorized).Once()

	err := f.timeline.Send(context.Background(), "yo")
	assert.ErrorIs(t, err, api.ErrUnauthorized)
	assert.Empty(t, f.timeline.Messages())
}

func TestSendWithoutSelection(t *testing.T) {
	f := newFixture()
	err := f.timeline.Send(context.Background(), "yo")
	assert.ErrorIs(t, err, ErrNoChatSelected)
}

func TestArrivalAppendsOtherSendersOnly(t *testing.T) {
	f := newFixture()
	f.selectChat(t, "c1", []models.ChatMessage{
		{ID: "m1", ChatID: "c1", SentFrom: "bob", Text: "hi"},
	})

	// Bob's message arrives exactly once.
	f.registry.Handler([]byte(`{"message":"yo","username":"bob"}`))
	entries := f.timeline.Messages()
	require.Len(t, entries, 2)
	assert.Equal(t, models.Message{
		Text: "yo", Sender: "bob", ChatID: "c1", FromSelf: false, Timestamp: entries[1].Timestamp,
	}, entries[1])

	// Alice's own echo is filtered: the send path already appended it.
	f.registry.Handler([]byte(`{"message":"mine","username":"alice"}`))
	assert.Len(t, f.timeline.Messages(), 2)
}

func TestArrivalDropsMalformedPayload(t *testing.T) {
	f := newFixture()
	f.selectChat(t, "c1", nil)

	f.registry.Handler([]byte(`not json`))
	assert.Empty(t, f.timeline.Messages())
}

func TestStaleArrivalAfterReselectionIsDropped(t *testing.T) {
	f := newFixture()
	f.selectChat(t, "c1", nil)
	staleHandler := f.registry.Handler

	f.selectChat(t, "c2", nil)
	staleHandler([]byte(`{"message":"late","username":"bob"}`))

	assert.Empty(t, f.timeline.Messages())
}

func TestStaleHistoryFetchDoesNotOverwriteNewerSelection(t *testing.T) {
	f := newFixture()

	// The fetch for c1 completes only after c2 became the selection.
	f.registry.On("Open", mock.Anything, channels.KindMessages, "c1").Return(nil).Once()
	started := make(chan struct{})
	release := make(chan struct{})
	f.messages.On("ListMessages", mock.Anything, "c1").
		Run(func(mock.Arguments) { close(started); <-release }).
		Return([]models.ChatMessage{{ID: "m1", ChatID: "c1", SentFrom: "bob", Text: "old"}}, nil).Once()

	done := make(chan error, 1)
	go func() {
		done <- f.timeline.Select(context.Background(), models.Chat{ID: "c1"})
	}()

	f.registry.On("Open", mock.Anything, channels.KindMessages, "c2").Return(nil).Once()
	f.messages.On("ListMessages", mock.Anything, "c2").Return([]models.ChatMessage{
		{ID: "m2", ChatID: "c2", SentFrom: "carol", Text: "new"},
	}, nil).Once()

	// Wait until the c1 history fetch is in flight before reselecting.
	<-started
	require.NoError(t, f.timeline.Select(context.Background(), models.Chat{ID: "c2"}))

	close(release)
	require.NoError(t, <-done)

	entries := f.timeline.Messages()
	require.Len(t, entries, 1)
	assert.Equal(t, "new", entries[0].Text)
}

// newChannelServer is a minimal websocket endpoint for exercising the
// timeline against the real channel registry.
func newChannelServer(t *testing.T) (string, chan *websocket.Conn) {
	conns := make(chan *websocket.Conn, 4)
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- conn
	}))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http"), conns
}

func TestReselectSameChatKeepsLiveDelivery(t *testing.T) {
	base, conns := newChannelServer(t)
	registry := channels.NewRegistry(base)
	defer registry.CloseAll()

	sess := session.New()
	sess.Establish(models.Identity{ID: "7", Username: "alice"}, "tok")
	messages := new(mocks.MessageAPIMock)
	messages.On("ListMessages", mock.Anything, "c1").Return(nil, nil).Twice()

	tl := New(sess, messages, new(mocks.ChatAPIMock), registry, nil)

	// Opening the same chat again keeps the channel; arrivals after the
	// reselection must still land in the timeline.
	chat := models.Chat{ID: "c1", Participants: []string{"alice", "bob"}}
	require.NoError(t, tl.Select(context.Background(), chat))
	require.NoError(t, tl.Select(context.Background(), chat))

	var conn *websocket.Conn
	select {
	case conn = <-conns:
	case <-time.After(2 * time.Second):
		t.Fatal("message channel never connected")
	}
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"message":"yo","username":"bob"}`)))

	require.Eventually(t, func() bool {
		return len(tl.Messages()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	entry := tl.Messages()[0]
	assert.Equal(t, "yo", entry.Text)
	assert.False(t, entry.FromSelf)
}

func TestSelectWithChannelOpenFailureStillLoadsHistory(t *testing.T) {
	f := newFixture()
	f.registry.On("Open", mock.Anything, channels.KindMessages, "c1").Return(assert.AnError).Once()
	f.messages.On("ListMessages", mock.Anything, "c1").Return([]models.ChatMessage{
		{ID: "m1", ChatID: "c1", SentFrom: "bob", Text: "hi"},
	}, nil).Once()

	require.NoError(t, f.timeline.Select(context.Background(), models.Chat{ID: "c1"}))
	assert.Len(t, f.timeline.Messages(), 1)
}
