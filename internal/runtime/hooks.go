package runtime

import (
	"context"
	"errors"

	"github.com/aretw0/triage/pkg/domain"
)

func (e *Engine) base(state *domain.State) domain.EventBase {
	return domain.EventBase{Timestamp: e.now(), SessionID: state.SessionID}
}

func (e *Engine) emitQuestionEnter(ctx context.Context, state *domain.State, q domain.Question) {
	if e.hooks.OnQuestionEnter == nil {
		return
	}
	e.hooks.OnQuestionEnter(ctx, &domain.QuestionEvent{
		EventBase:  e.base(state),
		QuestionID: q.ID,
		Ordinal:    q.Ordinal,
	})
}

func (e *Engine) emitAnswerRecorded(ctx context.Context, state *domain.State, id domain.QuestionID, choices []string, freeText bool) {
	if e.hooks.OnAnswerRecorded == nil {
		return
	}
	e.hooks.OnAnswerRecorded(ctx, &domain.AnswerEvent{
		EventBase:  e.base(state),
		QuestionID: id,
		ChoiceIDs:  choices,
		FreeText:   freeText,
	})
}

func (e *Engine) emitFlowComplete(ctx context.Context, state *domain.State) {
	if e.hooks.OnFlowComplete == nil {
		return
	}
	ev := &domain.FlowEvent{
		EventBase: e.base(state),
		Answered:  state.Answers.Len(),
	}
	if !state.StartedAt.IsZero() {
		ev.Duration = state.UpdatedAt.Sub(state.StartedAt)
	}
	e.hooks.OnFlowComplete(ctx, ev)
}

func (e *Engine) emitRejected(ctx context.Context, state *domain.State, event domain.Event, err error) {
	if e.hooks.OnEventRejected == nil {
		return
	}
	ev := &domain.RejectionEvent{
		EventBase: e.base(state),
		Reason:    RejectionReason(err),
		Err:       err,
	}
	if event != nil {
		ev.QuestionID = event.Target()
	}
	e.hooks.OnEventRejected(ctx, ev)
}

// RejectionReason maps an Apply error to a short, stable label.
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrAlreadyAnswered):
		return "already_answered"
	case errors.Is(err, domain.ErrHalted):
		return "halted"
	case errors.Is(err, domain.ErrNoSelection):
		return "no_selection"
	case errors.Is(err, domain.ErrFreeTextRequired):
		return "free_text_required"
	case errors.Is(err, domain.ErrUnknownQuestion):
		return "unknown_question"
	case errors.Is(err, domain.ErrInvalidSelection):
		return "invalid_selection"
	case errors.Is(err, domain.ErrCatalogMismatch):
		return "catalog_mismatch"
	case errors.Is(err, domain.ErrUnexpectedEvent):
		return "unexpected_event"
	default:
		return "other"
	}
}
