package runtime

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/triage/pkg/domain"
)

const (
	textConfirmationText = "Thanks, your description has been recorded."
	completionText       = "Thank you, that completes the questionnaire. Your answers have been recorded for your care team."
	freeTextPlaceholder  = "Describe it in your own words"
)

func (e *Engine) choicePrompt(q domain.Question, now time.Time) domain.Message {
	return domain.Message{
		Kind:       domain.KindChoicePrompt,
		QuestionID: q.ID,
		Title:      q.Title,
		Text:       q.Prompt,
		Choices:    slices.Clone(q.Choices),
		Multi:      q.Multi,
		PostedAt:   now,
	}
}

func (e *Engine) freeTextPrompt(q domain.Question, now time.Time) domain.Message {
	return domain.Message{
		Kind:        domain.KindFreeTextPrompt,
		QuestionID:  q.ID,
		Title:       q.Title,
		Text:        fmt.Sprintf("Please describe your answer for %q.", q.Title),
		Placeholder: freeTextPlaceholder,
		PostedAt:    now,
	}
}

func (e *Engine) confirmation(q domain.Question, a domain.Answer, now time.Time) domain.Message {
	return domain.Message{
		Kind:       domain.KindConfirmation,
		QuestionID: q.ID,
		Text:       "Thanks, recorded your answer: " + strings.Join(q.Labels(a.Selections), ", "),
		PostedAt:   now,
	}
}

func (e *Engine) textConfirmation(now time.Time) domain.Message {
	return domain.Message{
		Kind:     domain.KindConfirmation,
		Text:     textConfirmationText,
		PostedAt: now,
	}
}

func (e *Engine) completion(now time.Time) domain.Message {
	return domain.Message{
		Kind:     domain.KindCompletion,
		Text:     completionText,
		PostedAt: now,
	}
}
