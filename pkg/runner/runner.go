package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/triage/internal/logging"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/session"
)

// Runner handles the interactive loop of one triage session using the provided IO.
type Runner struct {
	Manager *session.Manager

	// Handler is the strategy for IO. Defaults to a TextHandler on Stdin/Stdout.
	Handler IOHandler

	// SessionID is the session to start or resume. Empty generates one.
	SessionID string

	// Logger is used for internal debug logging.
	Logger *slog.Logger
}

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithSessionID sets the session to start or resume.
func WithSessionID(id string) Option {
	return func(r *Runner) {
		r.SessionID = id
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.Logger = logger
		}
	}
}

// NewRunner creates a Runner bound to a session manager.
func NewRunner(m *session.Manager, opts ...Option) *Runner {
	r := &Runner{
		Manager: m,
		Logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(nil, nil)
	}
	return r
}

// Run starts (or resumes) the session and loops until it completes, halts,
// input ends or ctx is cancelled. Every accepted reply is persisted by the
// manager before the next prompt, so an interrupted run can be resumed.
//
// Returns the last known state. Input ending early is not an error.
func (r *Runner) Run(ctx context.Context) (*domain.State, error) {
	res, err := r.Manager.Start(ctx, r.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	r.SessionID = res.SessionID
	state := res.State
	r.Logger.Debug("runner started", "session_id", r.SessionID, "resumed", res.Previous != nil)

	posted := res.Posted
	// A resumed session whose prompt is already in the log still needs showing here.
	if len(posted) == 0 && !state.Status.IsTerminal() {
		if prompt, err := r.Manager.Engine().Prompt(state); err == nil && prompt != nil {
			posted = []domain.Message{*prompt}
		}
	}
	if err := r.Handler.Output(ctx, posted); err != nil {
		return state, fmt.Errorf("output error: %w", err)
	}

	for {
		switch state.Status {
		case domain.StatusCompleted:
			return state, nil
		case domain.StatusHalted:
			return state, fmt.Errorf("session %s: %s: %w", r.SessionID, state.HaltReason, domain.ErrHalted)
		}

		prompt, err := r.Manager.Engine().Prompt(state)
		if err != nil {
			return state, err
		}

		event, err := r.Handler.Read(ctx, *prompt)
		if err != nil {
			var reply *ReplyError
			switch {
			case errors.As(err, &reply):
				r.Logger.Debug("reply rejected locally", "session_id", r.SessionID, "reason", reply.Reason)
				if err := r.Handler.SystemOutput(ctx, reply.Reason); err != nil {
					return state, err
				}
				continue
			case errors.Is(err, io.EOF):
				r.Logger.Debug("input closed", "session_id", r.SessionID, "question_id", state.QuestionID)
				return state, nil
			case ctx.Err() != nil:
				return state, ctx.Err()
			default:
				return state, fmt.Errorf("input error: %w", err)
			}
		}

		next, err := r.Manager.Apply(ctx, r.SessionID, event)
		if err != nil {
			if domain.IsValidation(err) {
				if err := r.Handler.SystemOutput(ctx, err.Error()); err != nil {
					return state, err
				}
				continue
			}
			if next != nil && next.State != nil {
				state = next.State
			}
			return state, err
		}
		if err := r.Handler.Output(ctx, next.Posted); err != nil {
			return next.State, fmt.Errorf("output error: %w", err)
		}
		state = next.State
	}
}
