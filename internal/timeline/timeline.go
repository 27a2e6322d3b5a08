// Package timeline reconciles the three message sources of the selected chat
// into one ordered list: persisted history fetched over REST, live arrivals
// from the chat's push channel, and the user's own optimistically appended
// sends. Order is append order; timestamps are carried but never used to
// reorder.
package timeline

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"

	"click-client/internal/api"
	"click-client/internal/channels"
	"click-client/internal/models"
	"click-client/internal/observability"
	"click-client/internal/session"
	"click-client/internal/telemetry"
)

// ErrNoChatSelected reports a send while no chat is active.
var ErrNoChatSelected = errors.New("no chat selected")

// Registry is the channel surface the timeline needs: opening the message
// channel for the selected chat and publishing on it.
type Registry interface {
	Open(ctx context.Context, kind channels.Kind, key string, handler channels.Handler) error
	Send(kind channels.Kind, v any) error
}

// Timeline owns the in-memory message list of the currently selected chat.
type Timeline struct {
	session  *session.Session
	messages api.MessageAPI
	chats    api.ChatAPI
	registry Registry
	emitter  *telemetry.Emitter

	mu       sync.Mutex
	current  models.Chat
	selected bool
	gen      uint64
	entries  []models.Message
}

// New constructs a Timeline.
func New(sess *session.Session, messages api.MessageAPI, chats api.ChatAPI, registry Registry, emitter *telemetry.Emitter) *Timeline {
	return &Timeline{
		session:  sess,
		messages: messages,
		chats:    chats,
		registry: registry,
		emitter:  emitter,
	}
}

// Select makes chat the active chat: the previous timeline is discarded, the
// chat's message channel replaces the previous one, and the persisted
// history is fetched fresh. A history response that arrives after the
// selection moved on is dropped.
func (t *Timeline) Select(ctx context.Context, chat models.Chat) error {
	identity, ok := t.session.Identity()
	if !ok {
		return api.ErrNotReady
	}

	t.mu.Lock()
	t.gen++
	gen := t.gen
	t.current = chat
	t.selected = true
	t.entries = nil
	t.mu.Unlock()

	handler := func(payload []byte) {
		t.handleArrival(gen, identity.Username, payload)
	}
	if err := t.registry.Open(ctx, channels.KindMessages, chat.ID, handler); err != nil {
		// History still loads; the view just stops receiving live updates.
		log.Printf("message channel unavailable for chat %s: %v", chat.ID, err)
	}

	history, err := t.messages.ListMessages(ctx, chat.ID)
	if err != nil {
		return err
	}

	entries := make([]models.Message, 0, len(history))
	for _, record := range history {
		entries = append(entries, models.Message{
			Text:      record.Text,
			Sender:    record.SentFrom,
			ChatID:    chat.ID,
			FromSelf:  record.SentFrom == identity.Username,
			Timestamp: record.CreatedAt(),
		})
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen {
		// The selection changed while the fetch was in flight.
		return nil
	}
	t.entries = append(entries, t.entries...)
	observability.IncTimelineAppend("history")
	return nil
}

// handleArrival appends one channel delivery. The sender's own messages echo
// back over the channel; those are skipped because the send path already
// appended the optimistic copy.
func (t *Timeline) handleArrival(gen uint64, self string, payload []byte) {
	var msg models.ChannelMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		log.Printf("dropping malformed channel payload: %v", err)
		return
	}
	if msg.Username == self {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen {
		return
	}
	t.entries = append(t.entries, models.Message{
		Text:      msg.Message,
		Sender:    msg.Username,
		ChatID:    t.current.ID,
		FromSelf:  false,
		Timestamp: time.Now(),
	})
	observability.IncTimelineAppend("push")
}

// Send persists the message, moves the chat's last-message time, publishes
// it on the message channel, and appends it locally with FromSelf set. The
// local append happens even when persistence fails — the sender always sees
// their own message — and the first failure is returned for reporting. Only
// an authorization failure suppresses the append.
func (t *Timeline) Send(ctx context.Context, text string) error {
	identity, ok := t.session.Identity()
	if !ok {
		return api.ErrNotReady
	}

	t.mu.Lock()
	if !t.selected {
		t.mu.Unlock()
		return ErrNoChatSelected
	}
	chat := t.current
	gen := t.gen
	t.mu.Unlock()

	ctx, span := otel.Tracer("click-client/timeline").Start(ctx, "timeline.send")
	defer span.End()

	var notice error
	if _, err := t.messages.SaveMessage(ctx, chat.ID, identity.Username, text); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return err
		}
		notice = err
		t.emitter.Emit(ctx, "message_persist_failed", err.Error(), &identity.Username)
	}

	if err := t.chats.UpdateLastMessage(ctx, chat.ID, models.Timestamp(time.Now())); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return err
		}
		if notice == nil {
			notice = err
		}
	}

	if err := t.registry.Send(channels.KindMessages, models.ChannelMessage{
		Message:  text,
		Username: identity.Username,
	}); err != nil {
		if notice == nil {
			notice = err
		}
	}

	t.mu.Lock()
	if gen == t.gen {
		t.entries = append(t.entries, models.Message{
			Text:      text,
			Sender:    identity.Username,
			ChatID:    chat.ID,
			FromSelf:  true,
			Timestamp: time.Now(),
		})
		observability.IncTimelineAppend("local")
	}
	t.mu.Unlock()

	return notice
}

// Messages returns a copy of the current timeline.
func (t *Timeline) Messages() []models.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	entries := make([]models.Message, len(t.entries))
	copy(entries, t.entries)
	return entries
}

// Selected returns the active chat, reporting false when none is selected.
func (t *Timeline) Selected() (models.Chat, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current, t.selected
}
