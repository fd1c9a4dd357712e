package domain

import (
	"context"
	"time"
)

// Event is an inbound, user-originated triage event.
type Event interface {
	// Target returns the question the event refers to.
	Target() QuestionID
	isEvent()
}

// ChoiceSelected reports the choice(s) picked on a choice prompt.
// Single-select questions take exactly one id.
type ChoiceSelected struct {
	QuestionID QuestionID `json:"question_id"`
	ChoiceIDs  []string   `json:"choice_ids"`
}

// FreeTextSubmitted carries the text typed after picking "other".
type FreeTextSubmitted struct {
	QuestionID QuestionID `json:"question_id"`
	Text       string     `json:"text"`
}

func (e ChoiceSelected) Target() QuestionID    { return e.QuestionID }
func (e FreeTextSubmitted) Target() QuestionID { return e.QuestionID }
func (ChoiceSelected) isEvent()                {}
func (FreeTextSubmitted) isEvent()             {}

// EventBase contains common fields for all lifecycle events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`
}

// QuestionEvent is emitted when a question prompt is presented.
type QuestionEvent struct {
	EventBase
	QuestionID QuestionID `json:"question_id"`
	Ordinal    int        `json:"ordinal"`
}

// AnswerEvent is emitted when an answer (or its free text) is recorded.
type AnswerEvent struct {
	EventBase
	QuestionID QuestionID `json:"question_id"`
	ChoiceIDs  []string   `json:"choice_ids,omitempty"`
	FreeText   bool       `json:"free_text,omitempty"`
}

// FlowEvent is emitted once a session completes.
type FlowEvent struct {
	EventBase
	Answered int           `json:"answered"`
	Duration time.Duration `json:"duration"`
}

// RejectionEvent is emitted when an inbound event is refused.
type RejectionEvent struct {
	EventBase
	QuestionID QuestionID `json:"question_id"`
	Reason     string     `json:"reason"`
	Err        error      `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnQuestionEnter  func(context.Context, *QuestionEvent)
	OnAnswerRecorded func(context.Context, *AnswerEvent)
	OnFlowComplete   func(context.Context, *FlowEvent)
	OnEventRejected  func(context.Context, *RejectionEvent)
}
