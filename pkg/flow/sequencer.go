// Package flow implements the fixed question ordering of a triage session.
package flow

import (
	"errors"
	"fmt"
	"slices"

	"github.com/aretw0/triage/pkg/domain"
)

var (
	ErrEmptySequence = errors.New("sequence has no questions")
	ErrDuplicateID   = errors.New("duplicate question id in sequence")
)

// Sequencer is an explicit, declared total order over question ids.
// It never branches on answer content.
type Sequencer struct {
	ids   []domain.QuestionID
	index map[domain.QuestionID]int
}

// New builds a sequencer over ids, in the given order.
func New(ids ...domain.QuestionID) (*Sequencer, error) {
	if len(ids) == 0 {
		return nil, ErrEmptySequence
	}
	s := &Sequencer{
		ids:   slices.Clone(ids),
		index: make(map[domain.QuestionID]int, len(ids)),
	}
	for i, id := range ids {
		if id == "" {
			return nil, fmt.Errorf("position %d: %w", i, ErrEmptySequence)
		}
		if _, dup := s.index[id]; dup {
			return nil, fmt.Errorf("%s: %w", id, ErrDuplicateID)
		}
		s.index[id] = i
	}
	return s, nil
}

// MustNew is like New but panics on error. Intended for package-level orders.
func MustNew(ids ...domain.QuestionID) *Sequencer {
	s, err := New(ids...)
	if err != nil {
		panic(err)
	}
	return s
}

// First returns the entry question.
func (s *Sequencer) First() domain.QuestionID {
	return s.ids[0]
}

// Next returns the question after current. done is true when current is last.
func (s *Sequencer) Next(current domain.QuestionID) (next domain.QuestionID, done bool, err error) {
	i, ok := s.index[current]
	if !ok {
		return "", false, fmt.Errorf("%s: %w", current, domain.ErrUnknownQuestion)
	}
	if i+1 >= len(s.ids) {
		return "", true, nil
	}
	return s.ids[i+1], false, nil
}

// Index returns the zero-based position of id.
func (s *Sequencer) Index(id domain.QuestionID) (int, bool) {
	i, ok := s.index[id]
	return i, ok
}

// Remaining returns how many advances are left before completion from id.
func (s *Sequencer) Remaining(id domain.QuestionID) int {
	i, ok := s.index[id]
	if !ok {
		return 0
	}
	return len(s.ids) - i
}

// Len returns the number of questions in the sequence.
func (s *Sequencer) Len() int {
	return len(s.ids)
}

// IDs returns a copy of the declared order.
func (s *Sequencer) IDs() []domain.QuestionID {
	return slices.Clone(s.ids)
}

// Contains reports whether id is part of the sequence.
func (s *Sequencer) Contains(id domain.QuestionID) bool {
	_, ok := s.index[id]
	return ok
}
