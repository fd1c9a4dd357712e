// Package catalog holds the static question table of a triage flow.
//
// A Catalog is validated once at construction and is immutable afterwards.
// Its declared order backs the flow sequencer.
package catalog

import (
	"errors"
	"fmt"
	"slices"

	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/flow"
)

// ErrInvalidQuestion is returned when a question definition breaks a catalog rule.
var ErrInvalidQuestion = errors.New("invalid question definition")

// MinChoices is the smallest choice set a question may declare.
const MinChoices = 2

// Catalog is an ordered, validated set of questions.
type Catalog struct {
	questions []domain.Question
	byID      map[domain.QuestionID]int
}

// New validates questions and builds a catalog in the given order.
// Ordinals are reassigned from the position (1-based).
func New(questions ...domain.Question) (*Catalog, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: catalog is empty", ErrInvalidQuestion)
	}

	c := &Catalog{
		questions: make([]domain.Question, 0, len(questions)),
		byID:      make(map[domain.QuestionID]int, len(questions)),
	}
	for i, q := range questions {
		if err := validateQuestion(q); err != nil {
			return nil, err
		}
		if _, dup := c.byID[q.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate question id %q", ErrInvalidQuestion, q.ID)
		}
		q.Ordinal = i + 1
		q.Choices = slices.Clone(q.Choices)
		c.byID[q.ID] = i
		c.questions = append(c.questions, q)
	}
	return c, nil
}

// MustNew is like New but panics on error.
func MustNew(questions ...domain.Question) *Catalog {
	c, err := New(questions...)
	if err != nil {
		panic(err)
	}
	return c
}

func validateQuestion(q domain.Question) error {
	if q.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidQuestion)
	}
	if len(q.Choices) < MinChoices {
		return fmt.Errorf("%w: %s has %d choices, need at least %d", ErrInvalidQuestion, q.ID, len(q.Choices), MinChoices)
	}

	seen := make(map[string]bool, len(q.Choices))
	others, exclusives := 0, 0
	for _, ch := range q.Choices {
		if ch.ID == "" || ch.Label == "" {
			return fmt.Errorf("%w: %s has a choice without id or label", ErrInvalidQuestion, q.ID)
		}
		if seen[ch.ID] {
			return fmt.Errorf("%w: %s repeats choice %q", ErrInvalidQuestion, q.ID, ch.ID)
		}
		seen[ch.ID] = true
		if ch.IsOther {
			others++
		}
		if ch.IsExclusive {
			exclusives++
		}
		if ch.IsOther && ch.IsExclusive {
			return fmt.Errorf("%w: %s choice %q cannot be both other and exclusive", ErrInvalidQuestion, q.ID, ch.ID)
		}
	}

	if others != 1 {
		return fmt.Errorf("%w: %s must have exactly one other choice, has %d", ErrInvalidQuestion, q.ID, others)
	}
	if exclusives > 1 {
		return fmt.Errorf("%w: %s has %d exclusive choices, at most one allowed", ErrInvalidQuestion, q.ID, exclusives)
	}
	if exclusives == 1 && !q.Multi {
		return fmt.Errorf("%w: %s declares an exclusive choice but is single-select", ErrInvalidQuestion, q.ID)
	}
	return nil
}

// Lookup returns the question for id. A miss is a configuration error.
func (c *Catalog) Lookup(id domain.QuestionID) (domain.Question, error) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Question{}, &domain.ConfigurationError{QuestionID: id, Err: domain.ErrUnknownQuestion}
	}
	q := c.questions[i]
	q.Choices = slices.Clone(q.Choices)
	return q, nil
}

// Questions returns every question in declared order.
func (c *Catalog) Questions() []domain.Question {
	out := make([]domain.Question, len(c.questions))
	for i, q := range c.questions {
		q.Choices = slices.Clone(q.Choices)
		out[i] = q
	}
	return out
}

// Order returns the declared question ids.
func (c *Catalog) Order() []domain.QuestionID {
	ids := make([]domain.QuestionID, len(c.questions))
	for i, q := range c.questions {
		ids[i] = q.ID
	}
	return ids
}

// Len returns the number of questions.
func (c *Catalog) Len() int {
	return len(c.questions)
}

// Sequencer builds a flow sequencer over the catalog's declared order.
func (c *Catalog) Sequencer() *flow.Sequencer {
	return flow.MustNew(c.Order()...)
}
