package models

import "github.com/google/uuid"

// Prompt is a fill-in-the-blank text challenge. Text is immutable once the
// prompt has been issued to a round.
type Prompt struct {
	ID   uuid.UUID `json:"id"`
	Text string    `json:"text"`
}

// Assignment binds a prompt to a participant for the current round. The
// assignment list is generated once at round start and read-only afterward.
type Assignment struct {
	ParticipantID uuid.UUID `json:"participantId"`
	PromptID      uuid.UUID `json:"promptId"`
	Text          string    `json:"text"`
}

// Candidate is one participant's answer presented inside a match.
type Candidate struct {
	ParticipantID uuid.UUID `json:"participantId"`
	Name          string    `json:"name"`
	AnswerText    string    `json:"answerText"`
}

// Match is one voteable grouping of candidate answers.
type Match struct {
	Mode       GroupingMode `json:"mode"`
	PromptText string       `json:"promptText,omitempty"`
	Candidates []Candidate  `json:"candidates"`
}
