package dsl

import (
	"fmt"

	"github.com/aretw0/triage/pkg/adapters/memory"
	"github.com/aretw0/triage/pkg/catalog"
	"github.com/aretw0/triage/pkg/domain"
)

// Builder manages catalog construction. Questions keep the order in which
// they were first added.
type Builder struct {
	order     []domain.QuestionID
	questions map[domain.QuestionID]*QuestionBuilder
}

// New creates a new catalog builder.
func New() *Builder {
	return &Builder{
		questions: make(map[domain.QuestionID]*QuestionBuilder),
	}
}

// Add creates a new question in the catalog.
// If the question already exists, it returns the existing builder.
func (b *Builder) Add(id string) *QuestionBuilder {
	qid := domain.QuestionID(id)
	if qb, ok := b.questions[qid]; ok {
		return qb
	}
	qb := &QuestionBuilder{
		question: domain.Question{ID: qid},
		builder:  b,
	}
	b.questions[qid] = qb
	b.order = append(b.order, qid)
	return qb
}

// Questions returns the questions built so far, unvalidated.
func (b *Builder) Questions() []domain.Question {
	out := make([]domain.Question, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.questions[id].question)
	}
	return out
}

// Build validates the questions and compiles them into a catalog.
func (b *Builder) Build() (*catalog.Catalog, error) {
	c, err := catalog.New(b.Questions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog: %w", err)
	}
	return c, nil
}

// Loader wraps the questions in an in-memory catalog loader.
// Validation happens when the engine loads it.
func (b *Builder) Loader() *memory.Loader {
	return memory.NewLoader(b.Questions()...)
}
