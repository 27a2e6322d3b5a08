package requests

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"click-client/internal/api"
	"click-client/internal/contacts"
	"click-client/internal/mocks"
	"click-client/internal/models"
	"click-client/internal/session"
)

var pendingFromBob = models.FriendRequest{
	ID:                   "r1",
	SentFromID:           "9",
	SentFromUsername:     "bob",
	ReceivedFromID:       "7",
	ReceivedFromUsername: "alice",
}

type fixture struct {
	workflow  *Workflow
	requests  *mocks.RequestAPIMock
	chats     *mocks.ChatAPIMock
	directory *contacts.Directory
	session   *session.Session
}

func newFixture() *fixture {
	sess := session.New()
	sess.Establish(models.Identity{ID: "7", Username: "alice"}, "tok")

	requestAPI := new(mocks.RequestAPIMock)
	chatAPI := new(mocks.ChatAPIMock)
	directory := contacts.New(sess, chatAPI)
	return &fixture{
		workflow:  New(sess, requestAPI, chatAPI, directory, nil),
		requests:  requestAPI,
		chats:     chatAPI,
		directory: directory,
		session:   sess,
	}
}

func (f *fixture) loadPending(t *testing.T, pending ...models.FriendRequest) {
	f.requests.On("ListRequests", mock.Anything).Return(pending, nil).Once()
	require.NoError(t, f.workflow.Refresh(context.Background()))
}

func TestRefreshReplacesSnapshot(t *testing.T) {
	f := newFixture()
	f.loadPending(t, pendingFromBob)
	assert.Equal(t, []models.FriendRequest{pendingFromBob}, f.workflow.Pending())

	f.loadPending(t)
	assert.Empty(t, f.workflow.Pending())
}

func TestRefreshFailureLeavesSnapshotUntouched(t *testing.T) {
	f := newFixture()
	f.loadPending(t, pendingFromBob)

	f.requests.On("ListRequests", mock.Anything).Return(nil, api.ErrUnauthorized).Once()
	err := f.workflow.Refresh(context.Background())
	assert.ErrorIs(t, err, api.ErrUnauthorized)
	assert.Equal(t, []models.FriendRequest{pendingFromBob}, f.workflow.Pending())
}

func TestAcceptCreatesChatAndRemovesRequest(t *testing.T) {
	f := newFixture()
	f.loadPending(t, pendingFromBob)

	f.chats.On("CreateChat", mock.Anything, []string{"7", "9"}, mock.AnythingOfType("string"), mock.AnythingOfType("string")).
		Return(models.Chat{ID: "c1", Participants: []string{"alice", "bob"}}, nil).Once()
	f.requests.On("DeleteRequest", mock.Anything, "r1").Return(nil).Once()
	f.chats.On("ListChats", mock.Anything, "alice").Return([]models.Chat{
		{ID: "c1", Participants: []string{"alice", "bob"}},
	}, nil).Once()

	require.NoError(t, f.workflow.Accept(context.Background(), pendingFromBob))

	assert.Empty(t, f.workflow.Pending())
	assert.Equal(t, []models.Contact{{Username: "bob", ChatID: "c1"}}, f.directory.Contacts())
	f.chats.AssertExpectations(t)
	f.requests.AssertExpectations(t)
}

func TestAcceptChatCreationFailureKeepsRequestPending(t *testing.T) {
	f := newFixture()
	f.loadPending(t, pendingFromBob)

	createErr := &api.RequestError{Status: http.StatusBadRequest, Message: "Chat exists"}
	f.chats.On("CreateChat", mock.Anything, []string{"7", "9"}, mock.AnythingOfType("string"), mock.AnythingOfType("string")).
		Return(models.Chat{}, createErr).Once()

	err := f.workflow.Accept(context.Background(), pendingFromBob)
	require.Error(t, err)

	assert.Equal(t, []models.FriendRequest{pendingFromBob}, f.workflow.Pending())
	assert.Empty(t, f.directory.Contacts())
}

func TestAcceptDeleteFailureStillResolvesLocally(t *testing.T) {
	f := newFixture()
	f.loadPending(t, pendingFromBob)

	f.chats.On("CreateChat", mock.Anything, []string{"7", "9"}, mock.AnythingOfType("string"), mock.AnythingOfType("string")).
		Return(models.Chat{ID: "c1"}, nil).Once()
	deleteErr := &api.RequestError{Status: http.StatusInternalServerError, Message: "boom"}
	f.requests.On("DeleteRequest", mock.Anything, "r1").Return(deleteErr).Once()
	f.chats.On("ListChats", mock.Anything, "alice").Return([]models.Chat{
		{ID: "c1", Participants: []string{"alice", "bob"}},
	}, nil).Once()

	err := f.workflow.Accept(context.Background(), pendingFromBob)
	require.Error(t, err)

	// The chat exists, so the contact appears and the request leaves the
	// snapshot; the surviving server record may resurface on a later refresh.
	assert.Empty(t, f.workflow.Pending())
	assert.Equal(t, []models.Contact{{Username: "bob", ChatID: "c1"}}, f.directory.Contacts())
}

func TestAcceptAuthorizationFailurePropagates(t *testing.T) {
	f := newFixture()
	f.loadPending(t, pendingFromBob)

	f.chats.On("CreateChat", mock.Anything, []string{"7", "9"}, mock.AnythingOfType("string"), mock.AnythingOfType("string")).
		Return(models.Chat{}, api.ErrUnauthorized).Once()

	err := f.workflow.Accept(context.Background(), pendingFromBob)
	assert.ErrorIs(t, err, api.ErrUnauthorized)
	assert.Equal(t, []models.FriendRequest{pendingFromBob}, f.workflow.Pending())
}

func TestDeclineRemovesRequestWithoutChat(t *testing.T) {
	f := newFixture()
	f.loadPending(t, pendingFromBob)

	f.requests.On("DeleteRequest", mock.Anything, "r1").Return(nil).Once()
	require.NoError(t, f.workflow.Decline(context.Background(), pendingFromBob))

	assert.Empty(t, f.workflow.Pending())
	assert.Empty(t, f.directory.Contacts())
	f.chats.AssertNotCalled(t, "CreateChat", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDeclineFailureKeepsRequestForRetry(t *testing.T) {
	f := newFixture()
	f.loadPending(t, pendingFromBob)

	deleteErr := &api.RequestError{Status: http.StatusInternalServerError}
	f.requests.On("DeleteRequest", mock.Anything, "r1").Return(deleteErr).Once()

	err := f.workflow.Decline(context.Background(), pendingFromBob)
	require.Error(t, err)
	assert.Equal(t, []models.FriendRequest{pendingFromBob}, f.workflow.Pending())
}

func TestSendDoesNotMutateSnapshot(t *testing.T) {
	f := newFixture()
	f.loadPending(t, pendingFromBob)

	f.requests.On("SendRequest", mock.Anything, "carol").Return(nil).Once()
	require.NoError(t, f.workflow.Send(context.Background(), "carol"))
	assert.Equal(t, []models.FriendRequest{pendingFromBob}, f.workflow.Pending())
}

func TestFind(t *testing.T) {
	f := newFixture()
	f.loadPending(t, pendingFromBob)

	request, ok := f.workflow.Find("r1")
	require.True(t, ok)
	assert.Equal(t, "bob", request.SentFromUsername)

	_, ok = f.workflow.Find("r2")
	assert.False(t, ok)
}

func TestOperationsRequireSession(t *testing.T) {
	sess := session.New()
	workflow := New(sess, new(mocks.RequestAPIMock), new(mocks.ChatAPIMock), contacts.New(sess, new(mocks.ChatAPIMock)), nil)

	assert.ErrorIs(t, workflow.Refresh(context.Background()), api.ErrNotReady)
	assert.ErrorIs(t, workflow.Send(context.Background(), "bob"), api.ErrNotReady)
	assert.ErrorIs(t, workflow.Accept(context.Background(), pendingFromBob), api.ErrNotReady)
	assert.ErrorIs(t, workflow.Decline(context.Background(), pendingFromBob), api.ErrNotReady)
}
