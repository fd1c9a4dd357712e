package triage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/triage/internal/logging"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/ports"
)

// Session is one owned triage conversation.
//
// It keeps the flow state and the answer store private, applies events through
// the engine and performs the resulting actions against the host channel and
// the completion signal. A Session is not safe for concurrent use; hosts must
// deliver one event at a time (pkg/session does this for servers).
type Session struct {
	id     string
	engine ports.StatelessEngine
	host   ports.HostChannel
	signal ports.CompletionSignal
	logger *slog.Logger
	state  *domain.State
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithCompletion sets the completion signal raised when the flow ends.
func WithCompletion(signal ports.CompletionSignal) SessionOption {
	return func(s *Session) {
		s.signal = signal
	}
}

// WithState resumes a session from a previously saved state.
func WithState(state *domain.State) SessionOption {
	return func(s *Session) {
		s.state = state.Clone()
	}
}

// WithSessionLogger sets the session logger.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSession creates a session bound to a host channel.
func NewSession(engine ports.StatelessEngine, id string, host ports.HostChannel, opts ...SessionOption) *Session {
	s := &Session{
		id:     id,
		engine: engine,
		host:   host,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session_id", id)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Begin seeds the conversation.
//
// A new session posts the first question immediately. A resumed session
// re-posts its pending prompt unless it is already the last message on the
// host channel.
func (s *Session) Begin(ctx context.Context) error {
	if s.state == nil {
		state, actions, err := s.engine.Start(ctx, s.id)
		if err != nil {
			return err
		}
		s.state = state
		return s.dispatch(ctx, actions)
	}

	prompt, err := s.engine.Prompt(s.state)
	if err != nil || prompt == nil {
		return err
	}
	last, ok, err := s.host.ReadLast(ctx)
	if err != nil {
		return fmt.Errorf("failed to read host channel: %w", err)
	}
	if ok && last.Kind == prompt.Kind && last.QuestionID == prompt.QuestionID {
		return nil
	}
	s.logger.Debug("re-posting pending prompt", "question_id", prompt.QuestionID)
	return s.dispatch(ctx, []domain.ActionRequest{domain.PostMessage(*prompt)})
}

// SelectChoice applies a choice event. Multi-select questions accept several ids.
func (s *Session) SelectChoice(ctx context.Context, questionID domain.QuestionID, choiceIDs ...string) error {
	return s.Handle(ctx, domain.ChoiceSelected{QuestionID: questionID, ChoiceIDs: choiceIDs})
}

// SubmitText applies a free-text event for the pending "other" answer.
func (s *Session) SubmitText(ctx context.Context, questionID domain.QuestionID, text string) error {
	return s.Handle(ctx, domain.FreeTextSubmitted{QuestionID: questionID, Text: text})
}

// Handle applies any inbound event.
//
// domain.ErrAlreadyAnswered is returned for duplicate choices and leaves the
// session untouched; hosts treat it as a no-op. Configuration errors halt the
// session. A failed action leaves the state where it was.
func (s *Session) Handle(ctx context.Context, event domain.Event) error {
	if s.state == nil {
		return fmt.Errorf("session %s not started: %w", s.id, domain.ErrUnexpectedEvent)
	}

	next, actions, err := s.engine.Apply(ctx, s.state, event)
	if err != nil {
		if next != nil {
			s.state = next
		}
		switch {
		case errors.Is(err, domain.ErrAlreadyAnswered):
			s.logger.Debug("duplicate event ignored", "question_id", event.Target())
		case domain.IsConfiguration(err):
			s.logger.Error("session halted", "question_id", event.Target(), "error", err)
		default:
			s.logger.Debug("event refused", "question_id", event.Target(), "error", err)
		}
		return err
	}
	// The state only moves once every action went through, so a failed
	// post can be retried without losing the completion signal.
	if err := s.dispatch(ctx, actions); err != nil {
		return err
	}
	s.state = next
	return nil
}

func (s *Session) dispatch(ctx context.Context, actions []domain.ActionRequest) error {
	for _, act := range actions {
		switch act.Type {
		case domain.ActionPostMessage:
			if err := s.host.Post(ctx, *act.Message); err != nil {
				return fmt.Errorf("failed to post message: %w", err)
			}
		case domain.ActionSignalComplete:
			if s.signal == nil {
				continue
			}
			if err := s.signal.Fire(ctx, s.id); err != nil {
				return fmt.Errorf("failed to fire completion: %w", err)
			}
		default:
			s.logger.Warn("unknown action ignored", "type", act.Type)
		}
	}
	return nil
}

// State returns a copy of the current state, or nil before Begin.
func (s *Session) State() *domain.State {
	return s.state.Clone()
}

// Answers returns a snapshot of the recorded answers.
func (s *Session) Answers() map[domain.QuestionID]domain.Answer {
	if s.state == nil {
		return map[domain.QuestionID]domain.Answer{}
	}
	return s.state.Answers.Snapshot()
}

// Flatten returns the flat submission mapping of the recorded answers.
func (s *Session) Flatten() map[string]any {
	if s.state == nil {
		return map[string]any{}
	}
	return s.state.Answers.Flatten()
}

// Completed reports whether the question sequence is exhausted.
func (s *Session) Completed() bool {
	return s.state.Completed()
}
