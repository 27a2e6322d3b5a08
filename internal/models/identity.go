package models

// Identity is the authenticated user. It is loaded once at session start and
// never mutated, only replaced on re-login or cleared on invalidation.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}
