package runner

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/triage/pkg/domain"
)

// IOHandler defines the strategy for interacting with the patient.
// This allows switching between Text (CLI) and JSON (structured) modes.
type IOHandler interface {
	// Output presents messages posted by the engine.
	Output(ctx context.Context, msgs []domain.Message) error

	// Read waits for the reply to prompt and turns it into an event.
	// A reply that cannot be understood returns a *ReplyError; io.EOF ends the run.
	Read(ctx context.Context, prompt domain.Message) (domain.Event, error)

	// SystemOutput presents a meta-message (errors, hints) distinct from flow content.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms markdown before it is written (e.g. to ANSI).
type ContentRenderer func(string) (string, error)

// ErrInvalidReply marks replies rejected before reaching the engine.
var ErrInvalidReply = errors.New("invalid reply")

// ReplyError explains why a reply was rejected.
type ReplyError struct {
	Reason string
}

func (e *ReplyError) Error() string { return e.Reason }

func (e *ReplyError) Unwrap() error { return ErrInvalidReply }

func invalid(format string, args ...any) error {
	return &ReplyError{Reason: fmt.Sprintf(format, args...)}
}

// ParseReply interprets a raw reply to prompt.
//
// Choice prompts accept 1-based option numbers, choice ids or labels (case
// insensitive), comma separated for multi-select questions. Free-text
// prompts accept any non-blank text.
func ParseReply(prompt domain.Message, raw string) (domain.Event, error) {
	raw = strings.TrimSpace(raw)
	switch prompt.Kind {
	case domain.KindFreeTextPrompt:
		if raw == "" {
			return nil, invalid("Please describe your answer in a few words.")
		}
		return domain.FreeTextSubmitted{QuestionID: prompt.QuestionID, Text: raw}, nil

	case domain.KindChoicePrompt:
		if raw == "" {
			return nil, invalid("Please choose one of the options.")
		}
		tokens := strings.Split(raw, ",")
		if !prompt.Multi && len(tokens) > 1 {
			return nil, invalid("Please choose a single option.")
		}
		ids := make([]string, 0, len(tokens))
		seen := make(map[string]bool, len(tokens))
		for _, tok := range tokens {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			id, ok := resolveChoice(prompt.Choices, tok)
			if !ok {
				return nil, invalid("%q is not one of the options.", tok)
			}
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			return nil, invalid("Please choose one of the options.")
		}
		return domain.ChoiceSelected{QuestionID: prompt.QuestionID, ChoiceIDs: ids}, nil

	default:
		return nil, fmt.Errorf("message %s does not expect a reply", prompt.Kind)
	}
}

func resolveChoice(choices []domain.Choice, token string) (string, bool) {
	if n, err := strconv.Atoi(token); err == nil {
		if n >= 1 && n <= len(choices) {
			return choices[n-1].ID, true
		}
		return "", false
	}
	for _, c := range choices {
		if strings.EqualFold(c.ID, token) || strings.EqualFold(c.Label, token) {
			return c.ID, true
		}
	}
	return "", false
}

// isQuit reports the words that end an interactive run.
func isQuit(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exit", "quit", "/quit":
		return true
	}
	return false
}
