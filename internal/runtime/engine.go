package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/triage/internal/logging"
	"github.com/aretw0/triage/pkg/catalog"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/flow"
)

// Engine is the core triage state machine.
//
// It is stateless: every call takes the current State and returns the next
// one together with the ActionRequests the host must perform. The input state
// is never mutated.
type Engine struct {
	catalog *catalog.Catalog
	seq     *flow.Sequencer
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	now     func() time.Time
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an engine over a catalog and its sequencer.
func NewEngine(c *catalog.Catalog, seq *flow.Sequencer, opts ...EngineOption) *Engine {
	e := &Engine{
		catalog: c,
		seq:     seq,
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the question catalog the engine serves.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Sequencer returns the flow order the engine follows.
func (e *Engine) Sequencer() *flow.Sequencer {
	return e.seq
}

// Start creates the initial state and the eager seed: the first question's prompt.
func (e *Engine) Start(ctx context.Context, sessionID string) (*domain.State, []domain.ActionRequest, error) {
	first := e.seq.First()
	q, err := e.catalog.Lookup(first)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start session %s: %w", sessionID, err)
	}

	now := e.now()
	state := domain.NewState(sessionID, first, now)
	e.emitQuestionEnter(ctx, state, q)

	return state, []domain.ActionRequest{domain.PostMessage(e.choicePrompt(q, now))}, nil
}

// Apply consumes one inbound event.
//
// On success it returns the next state and the actions to perform. When the
// event is refused the returned state is nil and the caller keeps its current
// state, except for configuration errors: those return the halted state so the
// caller can persist it.
func (e *Engine) Apply(ctx context.Context, state *domain.State, event domain.Event) (*domain.State, []domain.ActionRequest, error) {
	if state == nil {
		return nil, nil, fmt.Errorf("nil state: %w", domain.ErrUnexpectedEvent)
	}

	var (
		next    *domain.State
		actions []domain.ActionRequest
		err     error
	)
	switch ev := event.(type) {
	case domain.ChoiceSelected:
		next, actions, err = e.applyChoice(ctx, state, ev)
	case *domain.ChoiceSelected:
		next, actions, err = e.applyChoice(ctx, state, *ev)
	case domain.FreeTextSubmitted:
		next, actions, err = e.applyFreeText(ctx, state, ev)
	case *domain.FreeTextSubmitted:
		next, actions, err = e.applyFreeText(ctx, state, *ev)
	default:
		err = fmt.Errorf("unsupported event %T: %w", event, domain.ErrUnexpectedEvent)
	}

	if err != nil {
		e.emitRejected(ctx, state, event, err)
	}
	return next, actions, err
}

// Prompt rebuilds the message the session is currently waiting on.
// It returns nil for terminal states.
func (e *Engine) Prompt(state *domain.State) (*domain.Message, error) {
	if state == nil || state.Status.IsTerminal() {
		return nil, nil
	}
	q, err := e.catalog.Lookup(state.QuestionID)
	if err != nil {
		return nil, err
	}
	var m domain.Message
	if state.Status == domain.StatusAwaitingOtherText {
		m = e.freeTextPrompt(q, e.now())
	} else {
		m = e.choicePrompt(q, e.now())
	}
	return &m, nil
}

// checkPrefix refuses answers recorded after the current question. The
// sequencer would otherwise walk into an answered question and stall there.
func (e *Engine) checkPrefix(answers *domain.AnswerStore, current domain.QuestionID) error {
	idx, _ := e.seq.Index(current)
	for _, id := range e.seq.IDs()[idx+1:] {
		if answers.Has(id) {
			return &domain.ConfigurationError{
				QuestionID: id,
				Err:        fmt.Errorf("%w: answered after unfinished %s", domain.ErrCatalogMismatch, current),
			}
		}
	}
	return nil
}

// Reconstruct derives the flow state from an answer store alone.
//
// The first question without a complete answer becomes the current one;
// answers past it are a configuration error. A fully answered store yields a completed state with the completion already
// marked as fired, so the signal is never raised again.
func (e *Engine) Reconstruct(sessionID string, answers *domain.AnswerStore) (*domain.State, error) {
	now := e.now()
	state := domain.NewState(sessionID, e.seq.First(), now)
	state.Answers = answers.Clone()
	state.History = nil

	for _, id := range e.seq.IDs() {
		q, err := e.catalog.Lookup(id)
		if err != nil {
			return nil, err
		}
		state.History = append(state.History, id)

		a, ok := answers.Get(id)
		if !ok {
			state.QuestionID = id
			state.Status = domain.StatusAwaitingChoice
			if err := e.checkPrefix(answers, id); err != nil {
				return nil, err
			}
			return state, nil
		}
		if other, hasOther := q.OtherChoice(); hasOther && a.Has(other.ID) && a.Other == "" {
			state.QuestionID = id
			state.Status = domain.StatusAwaitingOtherText
			if err := e.checkPrefix(answers, id); err != nil {
				return nil, err
			}
			return state, nil
		}
	}

	state.QuestionID = ""
	state.Status = domain.StatusCompleted
	state.CompletionFired = true
	return state, nil
}
