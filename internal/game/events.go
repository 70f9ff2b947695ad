package game

import "github.com/google/uuid"

// EventType is an enum-like type for outbound session notifications.
type EventType string

const (
	EventSessionCreated       EventType = "session-created"
	EventParticipantJoined    EventType = "participant-joined"
	EventPromptsAssigned      EventType = "prompts-assigned"
	EventAnswerAcknowledged   EventType = "answer-acknowledged"
	EventPhaseDeadlineStarted EventType = "phase-deadline-started"
	EventVotingStarted        EventType = "voting-started"
	EventMatchResults         EventType = "match-results"
	EventPhaseResults         EventType = "phase-results"
	EventIntermissionStarted  EventType = "intermission-started"
	EventSessionFinished      EventType = "session-finished"
	EventError                EventType = "error"
)

// Event is one outbound notification produced by a state transition. Events
// accumulate in the session's outbox and are drained by the transport; the
// state machine never touches a connection.
type Event struct {
	Type EventType `json:"type"`

	// To addresses a single participant; nil means broadcast to the room.
	To *uuid.UUID `json:"-"`

	Payload map[string]interface{} `json:"payload,omitempty"`
}

// ScoreEntry is one row of an aggregate or final scoreboard.
type ScoreEntry struct {
	ParticipantID uuid.UUID `json:"participantId"`
	Name          string    `json:"name"`
	Score         int       `json:"score"`
}
