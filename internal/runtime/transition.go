package runtime

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/triage/pkg/domain"
)

func (e *Engine) applyChoice(ctx context.Context, state *domain.State, ev domain.ChoiceSelected) (*domain.State, []domain.ActionRequest, error) {
	switch state.Status {
	case domain.StatusHalted:
		return nil, nil, fmt.Errorf("%s: %w", state.HaltReason, domain.ErrHalted)
	case domain.StatusCompleted:
		if state.Answers.Has(ev.QuestionID) {
			return nil, nil, fmt.Errorf("%s: %w", ev.QuestionID, domain.ErrAlreadyAnswered)
		}
		return nil, nil, fmt.Errorf("%s after completion: %w", ev.QuestionID, domain.ErrUnexpectedEvent)
	}

	q, err := e.catalog.Lookup(ev.QuestionID)
	if err != nil {
		return e.halt(state, err)
	}

	if state.Answers.Has(q.ID) {
		return nil, nil, fmt.Errorf("%s: %w", q.ID, domain.ErrAlreadyAnswered)
	}
	if state.Status != domain.StatusAwaitingChoice || state.QuestionID != q.ID {
		return nil, nil, fmt.Errorf("choice for %s while %s on %s: %w", q.ID, state.Status, state.QuestionID, domain.ErrUnexpectedEvent)
	}
	if len(ev.ChoiceIDs) == 0 {
		return nil, nil, fmt.Errorf("%s: %w", q.ID, domain.ErrNoSelection)
	}
	if !q.Multi && len(ev.ChoiceIDs) > 1 {
		return e.halt(state, &domain.ConfigurationError{
			QuestionID: q.ID,
			ChoiceID:   strings.Join(ev.ChoiceIDs, ","),
			Err:        fmt.Errorf("single-select question got %d choices: %w", len(ev.ChoiceIDs), domain.ErrInvalidSelection),
		})
	}

	var answer domain.Answer
	for _, id := range ev.ChoiceIDs {
		c, ok := q.Choice(id)
		if !ok {
			return e.halt(state, &domain.ConfigurationError{QuestionID: q.ID, ChoiceID: id, Err: domain.ErrInvalidSelection})
		}
		answer = answer.WithChoice(c, q)
	}

	now := e.now()
	next := state.Clone()
	next.Answers.Set(q.ID, answer)
	next.UpdatedAt = now
	e.emitAnswerRecorded(ctx, next, q.ID, answer.Selections, false)

	actions := []domain.ActionRequest{
		domain.PostMessage(e.confirmation(q, answer, now)),
	}

	if other, ok := q.OtherChoice(); ok && answer.Has(other.ID) {
		next.Status = domain.StatusAwaitingOtherText
		actions = append(actions, domain.PostMessage(e.freeTextPrompt(q, now)))
		e.logger.Debug("awaiting free text", "session_id", state.SessionID, "question_id", q.ID)
		return next, actions, nil
	}

	return e.advance(ctx, state, next, actions)
}

func (e *Engine) applyFreeText(ctx context.Context, state *domain.State, ev domain.FreeTextSubmitted) (*domain.State, []domain.ActionRequest, error) {
	switch state.Status {
	case domain.StatusHalted:
		return nil, nil, fmt.Errorf("%s: %w", state.HaltReason, domain.ErrHalted)
	case domain.StatusCompleted:
		return nil, nil, fmt.Errorf("free text for %s after completion: %w", ev.QuestionID, domain.ErrUnexpectedEvent)
	}

	q, err := e.catalog.Lookup(ev.QuestionID)
	if err != nil {
		return e.halt(state, err)
	}
	if state.Status != domain.StatusAwaitingOtherText || state.QuestionID != q.ID {
		return nil, nil, fmt.Errorf("free text for %s while %s on %s: %w", q.ID, state.Status, state.QuestionID, domain.ErrUnexpectedEvent)
	}

	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return nil, nil, fmt.Errorf("%s: %w", q.ID, domain.ErrFreeTextRequired)
	}

	answer, ok := state.Answers.Get(q.ID)
	if !ok {
		// AwaitingOtherText is only entered after recording the "other" choice.
		return e.halt(state, &domain.ConfigurationError{QuestionID: q.ID, Err: domain.ErrCatalogMismatch})
	}
	answer.Other = text

	now := e.now()
	next := state.Clone()
	next.Answers.Set(q.ID, answer)
	next.Status = domain.StatusAwaitingChoice
	next.UpdatedAt = now
	e.emitAnswerRecorded(ctx, next, q.ID, answer.Selections, true)

	actions := []domain.ActionRequest{
		domain.PostMessage(e.textConfirmation(now)),
	}
	return e.advance(ctx, state, next, actions)
}

// advance moves next past its current question.
func (e *Engine) advance(ctx context.Context, prev, next *domain.State, actions []domain.ActionRequest) (*domain.State, []domain.ActionRequest, error) {
	nextID, done, err := e.seq.Next(next.QuestionID)
	if err != nil {
		return e.halt(prev, &domain.ConfigurationError{QuestionID: next.QuestionID, Err: errors.Join(domain.ErrCatalogMismatch, err)})
	}

	if done {
		next.Status = domain.StatusCompleted
		next.QuestionID = ""
		actions = append(actions, domain.PostMessage(e.completion(next.UpdatedAt)))
		if !next.CompletionFired {
			next.CompletionFired = true
			actions = append(actions, domain.SignalComplete())
			e.emitFlowComplete(ctx, next)
		}
		e.logger.Info("triage completed", "session_id", next.SessionID, "answered", next.Answers.Len())
		return next, actions, nil
	}

	q, err := e.catalog.Lookup(nextID)
	if err != nil {
		return e.halt(prev, &domain.ConfigurationError{QuestionID: nextID, Err: errors.Join(domain.ErrCatalogMismatch, err)})
	}

	next.Status = domain.StatusAwaitingChoice
	next.QuestionID = q.ID
	next.History = append(next.History, q.ID)
	actions = append(actions, domain.PostMessage(e.choicePrompt(q, next.UpdatedAt)))
	e.emitQuestionEnter(ctx, next, q)

	return next, actions, nil
}

// halt stops the session on a configuration error. The halted state is
// returned alongside the error.
func (e *Engine) halt(state *domain.State, cause error) (*domain.State, []domain.ActionRequest, error) {
	if !domain.IsConfiguration(cause) {
		cause = &domain.ConfigurationError{QuestionID: state.QuestionID, Err: cause}
	}
	halted := state.Clone()
	halted.Status = domain.StatusHalted
	halted.HaltReason = cause.Error()
	halted.UpdatedAt = e.now()

	e.logger.Error("triage halted", "session_id", state.SessionID, "question_id", state.QuestionID, "error", cause)
	return halted, nil, cause
}
