// Package requests drives the friend-request lifecycle: listing pending
// requests and resolving each one into exactly one of accepted or declined.
// Accepting is a best-effort ordered sequence — create the chat, delete the
// request, refresh contacts — with no client-side rollback; a failed delete
// after a successful create may resurface the request on the next refresh.
package requests

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"click-client/internal/api"
	"click-client/internal/contacts"
	"click-client/internal/models"
	"click-client/internal/session"
	"click-client/internal/telemetry"
)

// ErrUnknownRequest reports an accept or decline for a request id that is
// not in the local snapshot.
var ErrUnknownRequest = errors.New("unknown friend request")

// Workflow owns the pending-request snapshot for one session.
type Workflow struct {
	session   *session.Session
	requests  api.RequestAPI
	chats     api.ChatAPI
	directory *contacts.Directory
	emitter   *telemetry.Emitter

	mu      sync.Mutex
	pending []models.FriendRequest
}

// New constructs a Workflow.
func New(sess *session.Session, requests api.RequestAPI, chats api.ChatAPI, directory *contacts.Directory, emitter *telemetry.Emitter) *Workflow {
	return &Workflow{
		session:   sess,
		requests:  requests,
		chats:     chats,
		directory: directory,
		emitter:   emitter,
	}
}

// Refresh replaces the pending snapshot wholesale from the server. On any
// failure the snapshot is left untouched.
func (w *Workflow) Refresh(ctx context.Context) error {
	if !w.session.Ready() {
		return api.ErrNotReady
	}
	pending, err := w.requests.ListRequests(ctx)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.pending = pending
	w.mu.Unlock()
	return nil
}

// Pending returns a copy of the current snapshot.
func (w *Workflow) Pending() []models.FriendRequest {
	w.mu.Lock()
	defer w.mu.Unlock()
	pending := make([]models.FriendRequest, len(w.pending))
	copy(pending, w.pending)
	return pending
}

// Find looks a pending request up by id.
func (w *Workflow) Find(requestID string) (models.FriendRequest, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, request := range w.pending {
		if request.ID == requestID {
			return request, true
		}
	}
	return models.FriendRequest{}, false
}

// Send creates a friend request addressed to toUsername. Local state is
// never mutated: the sender does not see outgoing requests in this list.
func (w *Workflow) Send(ctx context.Context, toUsername string) error {
	if !w.session.Ready() {
		return api.ErrNotReady
	}
	return w.requests.SendRequest(ctx, toUsername)
}

// Accept resolves the request into a chat: create the chat with a fresh room
// identifier, delete the request record, refresh the contact directory so
// the new contact appears without waiting for the notification round-trip,
// and drop the request from the snapshot. A transient failure after the chat
// exists does not undo earlier steps; the first one is returned as a notice.
func (w *Workflow) Accept(ctx context.Context, request models.FriendRequest) error {
	identity, ok := w.session.Identity()
	if !ok {
		return api.ErrNotReady
	}

	ctx, span := otel.Tracer("click-client/requests").Start(ctx, "requests.accept")
	defer span.End()

	_, err := w.chats.CreateChat(ctx,
		[]string{identity.ID, request.SentFromID},
		uuid.NewString(),
		models.Timestamp(time.Now()),
	)
	if err != nil {
		// The request stays pending for a retry.
		return err
	}

	var notice error
	if err := w.requests.DeleteRequest(ctx, request.ID); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return err
		}
		// The chat exists but the record survived; it may reappear on the
		// next refresh.
		w.emitter.Emit(ctx, "request_delete_failed", err.Error(), &identity.Username)
		notice = err
	}

	if err := w.directory.Refresh(ctx); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return err
		}
		if notice == nil {
			notice = err
		}
	}

	w.remove(request.ID)
	return notice
}

// Decline deletes the request record and drops it from the snapshot. No chat
// side effect. A failed delete leaves the request pending for a retry.
func (w *Workflow) Decline(ctx context.Context, request models.FriendRequest) error {
	if !w.session.Ready() {
		return api.ErrNotReady
	}
	if err := w.requests.DeleteRequest(ctx, request.ID); err != nil {
		return err
	}
	w.remove(request.ID)
	return nil
}

func (w *Workflow) remove(requestID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	kept := w.pending[:0]
	for _, request := range w.pending {
		if request.ID != requestID {
			kept = append(kept, request)
		}
	}
	w.pending = kept
}
