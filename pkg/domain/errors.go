package domain

import (
	"errors"
	"fmt"
)

// Configuration errors. They halt the session.
var (
	// ErrUnknownQuestion is returned when a question id is not in the catalog.
	ErrUnknownQuestion = errors.New("unknown question")

	// ErrInvalidSelection is returned when a choice id does not belong to the question,
	// or several ids are sent for a single-select question.
	ErrInvalidSelection = errors.New("invalid selection")

	// ErrCatalogMismatch is returned when the sequencer and the catalog disagree.
	ErrCatalogMismatch = errors.New("catalog and sequence out of sync")
)

// Local validation failures. State is left untouched.
var (
	// ErrNoSelection is returned when a choice event carries no choice id.
	ErrNoSelection = errors.New("no choice selected")

	// ErrFreeTextRequired is returned when the "other" free text is blank.
	ErrFreeTextRequired = errors.New("free text required")
)

var (
	// ErrAlreadyAnswered is returned for a duplicate choice on a recorded question.
	// It is an idempotent no-op, not a user-facing failure.
	ErrAlreadyAnswered = errors.New("question already answered")

	// ErrUnexpectedEvent is returned when an event does not fit the current state.
	ErrUnexpectedEvent = errors.New("unexpected event for current state")

	// ErrHalted is returned for any event sent to a halted session.
	ErrHalted = errors.New("session halted")

	// ErrSessionNotFound is returned when a session ID cannot be found in the store.
	ErrSessionNotFound = errors.New("session not found")
)

// ConfigurationError wraps a fatal catalog/sequencer/UI mismatch.
type ConfigurationError struct {
	QuestionID QuestionID
	ChoiceID   string
	Err        error
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.ChoiceID != "":
		return fmt.Sprintf("configuration error on %s/%s: %v", e.QuestionID, e.ChoiceID, e.Err)
	case e.QuestionID != "":
		return fmt.Sprintf("configuration error on %s: %v", e.QuestionID, e.Err)
	default:
		return fmt.Sprintf("configuration error: %v", e.Err)
	}
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// IsConfiguration reports whether err is a fatal configuration error.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsValidation reports whether err is a local validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrNoSelection) || errors.Is(err, ErrFreeTextRequired)
}
