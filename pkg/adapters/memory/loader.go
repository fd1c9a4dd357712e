package memory

import (
	"context"
	"slices"

	"github.com/aretw0/triage/pkg/catalog"
	"github.com/aretw0/triage/pkg/domain"
)

// Loader implements ports.CatalogLoader from in-memory question definitions.
// Useful for tests and embedded flows.
type Loader struct {
	questions []domain.Question
}

// NewLoader creates a loader over the given questions, in order.
func NewLoader(questions ...domain.Question) *Loader {
	return &Loader{questions: slices.Clone(questions)}
}

// Load validates the questions and builds the catalog.
func (l *Loader) Load(ctx context.Context) (*catalog.Catalog, error) {
	return catalog.New(l.questions...)
}
