package models

import "github.com/google/uuid"

// Participant is one human or synthetic player bound to a session.
// Identity is stable for the session's lifetime: a disconnect only clears
// the connection handle and flips Connected, it never removes the
// participant or resets the score.
type Participant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Connected bool      `json:"connected"`
	Score     int       `json:"score"`
	Synthetic bool      `json:"synthetic"`

	// Handle is the opaque transport connection handle, resolved externally.
	// The session never touches the transport directly.
	Handle string `json:"-"`
}
