package domain

import (
	"encoding/json"
	"slices"
	"sort"
)

// Answer is the recorded response to one question.
//
// Selections holds a single id for single-select questions and one or more ids
// for multi-select questions. Other is only set when the "other" choice is
// among the selections.
type Answer struct {
	Selections []string `json:"selections"`
	Other      string   `json:"other,omitempty"`
	Multi      bool     `json:"multi,omitempty"`
}

// Selection returns the primary (first) selected choice id.
func (a Answer) Selection() string {
	if len(a.Selections) == 0 {
		return ""
	}
	return a.Selections[0]
}

// Has reports whether the choice id is among the selections.
func (a Answer) Has(choiceID string) bool {
	return slices.Contains(a.Selections, choiceID)
}

// WithChoice returns a copy of the answer with c applied.
//
// Single-select answers are replaced. On multi-select answers an exclusive
// choice becomes the sole member, and a regular choice evicts any exclusive
// choice picked before it. Free text is dropped once the "other" choice is no
// longer selected.
func (a Answer) WithChoice(c Choice, q Question) Answer {
	next := Answer{Multi: q.Multi, Other: a.Other}
	switch {
	case !q.Multi, c.IsExclusive:
		next.Selections = []string{c.ID}
	default:
		for _, id := range a.Selections {
			if id == c.ID {
				continue
			}
			if prev, ok := q.Choice(id); ok && prev.IsExclusive {
				continue
			}
			next.Selections = append(next.Selections, id)
		}
		next.Selections = append(next.Selections, c.ID)
	}
	if other, ok := q.OtherChoice(); !ok || !next.Has(other.ID) {
		next.Other = ""
	}
	return next
}

// Clone returns a deep copy.
func (a Answer) Clone() Answer {
	a.Selections = slices.Clone(a.Selections)
	return a
}

// AnswerStore maps question identifiers to recorded answers.
// The zero value is ready to use. It is not safe for concurrent use; callers
// serialize access per session.
type AnswerStore struct {
	answers map[QuestionID]Answer
}

// NewAnswerStore creates an empty store.
func NewAnswerStore() *AnswerStore {
	return &AnswerStore{answers: make(map[QuestionID]Answer)}
}

// Set records (or overwrites) the answer for id.
func (s *AnswerStore) Set(id QuestionID, a Answer) {
	if s.answers == nil {
		s.answers = make(map[QuestionID]Answer)
	}
	s.answers[id] = a.Clone()
}

// Get returns the answer for id, if any.
func (s *AnswerStore) Get(id QuestionID) (Answer, bool) {
	if s == nil {
		return Answer{}, false
	}
	a, ok := s.answers[id]
	if !ok {
		return Answer{}, false
	}
	return a.Clone(), true
}

// Has reports whether an answer exists for id.
func (s *AnswerStore) Has(id QuestionID) bool {
	if s == nil {
		return false
	}
	_, ok := s.answers[id]
	return ok
}

// Len returns the number of answered questions.
func (s *AnswerStore) Len() int {
	if s == nil {
		return 0
	}
	return len(s.answers)
}

// IDs returns the answered question ids in lexical order.
func (s *AnswerStore) IDs() []QuestionID {
	if s == nil {
		return nil
	}
	ids := make([]QuestionID, 0, len(s.answers))
	for id := range s.answers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Snapshot returns a deep copy of every recorded answer.
func (s *AnswerStore) Snapshot() map[QuestionID]Answer {
	out := make(map[QuestionID]Answer, s.Len())
	if s == nil {
		return out
	}
	for id, a := range s.answers {
		out[id] = a.Clone()
	}
	return out
}

// Clone returns an independent copy of the store.
func (s *AnswerStore) Clone() *AnswerStore {
	return &AnswerStore{answers: s.Snapshot()}
}

// Flatten returns the flat submission mapping: question id to choice id for
// single-select answers, question id to []string for multi-select answers, and
// "<id>_other" to the free text when present.
func (s *AnswerStore) Flatten() map[string]any {
	flat := make(map[string]any, s.Len())
	if s == nil {
		return flat
	}
	for id, a := range s.answers {
		key := string(id)
		if a.Multi {
			flat[key] = slices.Clone(a.Selections)
		} else {
			flat[key] = a.Selection()
		}
		if a.Other != "" {
			flat[key+"_other"] = a.Other
		}
	}
	return flat
}

// MarshalJSON encodes the store as an object keyed by question id.
func (s *AnswerStore) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Snapshot())
}

// UnmarshalJSON decodes an object keyed by question id.
func (s *AnswerStore) UnmarshalJSON(data []byte) error {
	var m map[QuestionID]Answer
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if m == nil {
		m = make(map[QuestionID]Answer)
	}
	s.answers = m
	return nil
}
