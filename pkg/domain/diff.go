package domain

import (
	"reflect"
)

// StateDiff represents the changes between two states.
// It is serialized to JSON for partial updates on streaming clients.
type StateDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	QuestionID *QuestionID `json:"question_id,omitempty"`

	Status *Status `json:"status,omitempty"`

	// Answers contains only added or changed entries.
	// Answers are never removed during a session.
	Answers map[QuestionID]Answer `json:"answers,omitempty"`

	History *HistoryDelta `json:"history,omitempty"`

	CompletionFired *bool `json:"completion_fired,omitempty"`
}

// HistoryDelta represents questions appended to the history.
type HistoryDelta struct {
	Appended []QuestionID `json:"appended"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
func Diff(oldState, newState *State) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{
		SessionID: newState.SessionID,
	}

	if oldState == nil || oldState.QuestionID != newState.QuestionID {
		diff.QuestionID = &newState.QuestionID
	}
	if oldState == nil || oldState.Status != newState.Status {
		diff.Status = &newState.Status
	}
	if oldState == nil {
		if newState.CompletionFired {
			diff.CompletionFired = &newState.CompletionFired
		}
	} else if oldState.CompletionFired != newState.CompletionFired {
		diff.CompletionFired = &newState.CompletionFired
	}

	diff.Answers = diffAnswers(oldState, newState)
	diff.History = diffHistory(oldState, newState)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffAnswers(old *State, new *State) map[QuestionID]Answer {
	delta := make(map[QuestionID]Answer)

	var prev map[QuestionID]Answer
	if old != nil {
		prev = old.Answers.Snapshot()
	}
	for id, a := range new.Answers.Snapshot() {
		if p, ok := prev[id]; !ok || !reflect.DeepEqual(p, a) {
			delta[id] = a
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

// diffHistory assumes append-only history.
func diffHistory(old *State, new *State) *HistoryDelta {
	if len(new.History) == 0 {
		return nil
	}
	if old == nil {
		return &HistoryDelta{Appended: new.History}
	}
	if len(new.History) > len(old.History) {
		return &HistoryDelta{Appended: new.History[len(old.History):]}
	}
	return nil
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.QuestionID == nil &&
		d.Status == nil &&
		d.CompletionFired == nil &&
		len(d.Answers) == 0 &&
		d.History == nil
}
