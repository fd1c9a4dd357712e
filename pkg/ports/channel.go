package ports

import (
	"context"

	"github.com/aretw0/triage/pkg/domain"
)

// HostChannel is the host's message channel as seen by one session.
// The engine only posts to it and reads it back; it never owns it.
type HostChannel interface {
	Post(ctx context.Context, msg domain.Message) error

	// ReadLast returns the most recent message. ok is false when nothing was posted.
	ReadLast(ctx context.Context) (msg domain.Message, ok bool, err error)
}

// CompletionSignal is raised once the question sequence is exhausted.
// Implementations must tolerate repeated calls; the engine fires it at most
// once per session.
type CompletionSignal interface {
	Fire(ctx context.Context, sessionID string) error
}

// CompletionFunc adapts a function to CompletionSignal.
type CompletionFunc func(ctx context.Context, sessionID string) error

// Fire implements CompletionSignal.
func (f CompletionFunc) Fire(ctx context.Context, sessionID string) error {
	return f(ctx, sessionID)
}

// Submitter hands the flat answer snapshot to a downstream system after completion.
// A failing submission never rolls back a completed session.
type Submitter interface {
	Submit(ctx context.Context, sessionID string, answers map[string]any) error
}
