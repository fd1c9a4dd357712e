package ports

import (
	"context"

	"github.com/aretw0/triage/pkg/catalog"
	"github.com/aretw0/triage/pkg/domain"
)

// StatelessEngine is a triage core that keeps no session state of its own.
// Callers hold the State and feed it back on every event.
type StatelessEngine interface {
	// Start creates a new session state and the eager first prompt.
	Start(ctx context.Context, sessionID string) (*domain.State, []domain.ActionRequest, error)

	// Apply consumes one inbound event.
	Apply(ctx context.Context, state *domain.State, event domain.Event) (*domain.State, []domain.ActionRequest, error)

	// Prompt rebuilds the prompt the state is waiting on, or nil when terminal.
	Prompt(state *domain.State) (*domain.Message, error)

	// Reconstruct derives a state from an answer store alone.
	Reconstruct(sessionID string, answers *domain.AnswerStore) (*domain.State, error)

	// Catalog returns the question catalog in use.
	Catalog() *catalog.Catalog
}
