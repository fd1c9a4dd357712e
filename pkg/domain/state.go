package domain

import (
	"slices"
	"time"
)

// Status is the position of a session in the triage state machine.
type Status string

const (
	StatusAwaitingChoice    Status = "awaiting_choice"     // Waiting for a choice on QuestionID
	StatusAwaitingOtherText Status = "awaiting_other_text" // Waiting for free text after "other" on QuestionID
	StatusCompleted         Status = "completed"           // Sequence exhausted
	StatusHalted            Status = "halted"              // Stopped by a configuration error
)

// IsTerminal reports whether no further event can move the session.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusHalted
}

// State represents the current snapshot of a triage session.
type State struct {
	SessionID string `json:"session_id"`

	Status Status `json:"status"`

	// QuestionID is the active question. Empty once completed.
	QuestionID QuestionID `json:"question_id,omitempty"`

	// Answers holds every answer collected so far.
	Answers *AnswerStore `json:"answers"`

	// History lists the questions presented, in order.
	History []QuestionID `json:"history"`

	// CompletionFired records that the completion signal was requested.
	CompletionFired bool `json:"completion_fired,omitempty"`

	// HaltReason describes the configuration error that halted the session.
	HaltReason string `json:"halt_reason,omitempty"`

	// Sealed carries the encrypted state when persisted through an
	// encrypting store. Answers are empty on such envelopes.
	Sealed string `json:"sealed,omitempty"`

	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewState creates a clean state awaiting a choice on the first question.
func NewState(sessionID string, first QuestionID, now time.Time) *State {
	return &State{
		SessionID:  sessionID,
		Status:     StatusAwaitingChoice,
		QuestionID: first,
		Answers:    NewAnswerStore(),
		History:    []QuestionID{first},
		StartedAt:  now,
		UpdatedAt:  now,
	}
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := *s
	c.Answers = s.Answers.Clone()
	c.History = slices.Clone(s.History)
	return &c
}

// Completed reports whether the sequence was exhausted.
func (s *State) Completed() bool {
	return s != nil && s.Status == StatusCompleted
}

// SessionSummary is the listing view of a stored session.
type SessionSummary struct {
	SessionID  string     `json:"session_id"`
	Status     Status     `json:"status"`
	QuestionID QuestionID `json:"question_id,omitempty"`

	// Progress counts the questions presented so far.
	Progress  int       `json:"progress"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summarize builds the listing view of s. It only reads routing fields, so
// it works on sealed envelopes too.
func Summarize(s *State) SessionSummary {
	return SessionSummary{
		SessionID:  s.SessionID,
		Status:     s.Status,
		QuestionID: s.QuestionID,
		Progress:   len(s.History),
		UpdatedAt:  s.UpdatedAt,
	}
}
