// Package contacts keeps the displayed contact list equal to "the other
// participant of every chat the current identity belongs to". The list is
// always recomputed from the chat set, never patched in place, so the two
// cannot diverge.
package contacts

import (
	"context"
	"sync"

	"click-client/internal/api"
	"click-client/internal/models"
	"click-client/internal/observability"
	"click-client/internal/session"
)

// Directory derives and caches the contact list for one session.
type Directory struct {
	session *session.Session
	chats   api.ChatAPI

	mu         sync.Mutex
	contacts   []models.Contact
	issuedSeq  uint64
	appliedSeq uint64
}

// New constructs a Directory.
func New(sess *session.Session, chats api.ChatAPI) *Directory {
	return &Directory{session: sess, chats: chats}
}

// Derive is the pure Chats × Identity → Contacts function: for every chat
// the identity participates in, the other participant becomes a contact.
func Derive(chats []models.Chat, identity models.Identity) []models.Contact {
	contacts := make([]models.Contact, 0, len(chats))
	for _, chat := range chats {
		other, ok := chat.OtherParticipant(identity.Username)
		if !ok {
			continue
		}
		contacts = append(contacts, models.Contact{Username: other, ChatID: chat.ID})
	}
	return contacts
}

// Refresh fetches the identity's chats and replaces the contact list
// wholesale. It is idempotent and safe to call concurrently with itself: a
// stale in-flight result never overwrites one applied later.
func (d *Directory) Refresh(ctx context.Context) error {
	identity, ok := d.session.Identity()
	if !ok {
		return api.ErrNotReady
	}

	d.mu.Lock()
	d.issuedSeq++
	seq := d.issuedSeq
	d.mu.Unlock()

	chats, err := d.chats.ListChats(ctx, identity.Username)
	if err != nil {
		return err
	}
	derived := Derive(chats, identity)

	d.mu.Lock()
	defer d.mu.Unlock()
	if seq <= d.appliedSeq {
		// A later refresh already landed; last write wins.
		return nil
	}
	d.appliedSeq = seq
	d.contacts = derived
	observability.IncContactRefresh()
	return nil
}

// Contacts returns a copy of the current contact list.
func (d *Directory) Contacts() []models.Contact {
	d.mu.Lock()
	defer d.mu.Unlock()
	contacts := make([]models.Contact, len(d.contacts))
	copy(contacts, d.contacts)
	return contacts
}

// Find returns the contact owning the given chat id.
func (d *Directory) Find(chatID string) (models.Contact, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, contact := range d.contacts {
		if contact.ChatID == chatID {
			return contact, true
		}
	}
	return models.Contact{}, false
}
