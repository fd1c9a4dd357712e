package ports

import (
	"context"

	"github.com/aretw0/triage/pkg/domain"
)

// StateStore defines the interface for persisting session state.
// It enables resuming a triage session after a reload or restart.
type StateStore interface {
	// Save persists the state for a given session ID.
	Save(ctx context.Context, sessionID string, state *domain.State) error

	// Load retrieves the state for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.State, error)

	// Delete removes the state for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all stored sessions.
	List(ctx context.Context) ([]string, error)
}

// MessageLog persists the ordered messages posted to each session.
type MessageLog interface {
	// Append adds a message at the end of the session's log.
	Append(ctx context.Context, sessionID string, msg domain.Message) error

	// Last returns the most recent message. ok is false for an empty log.
	Last(ctx context.Context, sessionID string) (msg domain.Message, ok bool, err error)

	// List returns every message in posting order.
	List(ctx context.Context, sessionID string) ([]domain.Message, error)

	// Delete drops the session's log.
	Delete(ctx context.Context, sessionID string) error
}

// Summarizer is implemented by stores that index session summaries, so
// listings do not have to load every state.
type Summarizer interface {
	// Summaries returns live sessions, filtered by status unless it is empty.
	Summaries(ctx context.Context, status domain.Status) ([]domain.SessionSummary, error)
}
