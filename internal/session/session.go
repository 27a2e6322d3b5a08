// Package session holds the authenticated identity and credential shared by
// every other component. Invalidation is the single recovery path for an
// expired credential: it clears both values exactly once and notifies
// listeners so the owning process can hand control back to the login flow.
package session

import (
	"sync"

	"click-client/internal/models"
	"click-client/internal/observability"
)

// Session is the client-side session context. The zero value is unusable;
// construct with New.
type Session struct {
	mu           sync.RWMutex
	identity     *models.Identity
	credential   string
	invalidated  bool
	onInvalidate []func()
}

// New returns an empty, not-yet-established session. Dependents must treat
// the absence of identity and credential as "not yet ready", not as an error.
func New() *Session {
	return &Session{}
}

// Establish installs the identity and credential wholesale. Re-establishing
// replaces both values and re-arms invalidation.
func (s *Session) Establish(identity models.Identity, credential string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := identity
	s.identity = &id
	s.credential = credential
	s.invalidated = false
}

// Identity returns the current identity, reporting false while absent.
func (s *Session) Identity() (models.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return models.Identity{}, false
	}
	return *s.identity, true
}

// Credential returns the current bearer credential, reporting false while
// absent.
func (s *Session) Credential() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.credential == "" {
		return "", false
	}
	return s.credential, true
}

// Ready reports whether both identity and credential are present.
func (s *Session) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity != nil && s.credential != ""
}

// OnInvalidate registers fn to run when the session is invalidated.
// Listeners registered after invalidation are not called.
func (s *Session) OnInvalidate(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onInvalidate = append(s.onInvalidate, fn)
}

// Invalidate clears identity and credential and runs the registered
// listeners. Only the first call has any effect; components racing on the
// same rejected credential all funnel through here safely.
func (s *Session) Invalidate() {
	s.mu.Lock()
	if s.invalidated {
		s.mu.Unlock()
		return
	}
	s.invalidated = true
	s.identity = nil
	s.credential = ""
	listeners := make([]func(), len(s.onInvalidate))
	copy(listeners, s.onInvalidate)
	s.mu.Unlock()

	observability.IncSessionInvalidation()
	for _, fn := range listeners {
		fn()
	}
}
