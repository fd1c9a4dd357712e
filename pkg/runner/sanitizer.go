package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxInputSize is 4KB, generous for a symptom description.
	DefaultMaxInputSize = 4096
	// EnvMaxInputSize is the environment variable to override the default
	EnvMaxInputSize = "TRIAGE_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// maxInputOverride is set by SetMaxInputSize and wins over the environment.
var maxInputOverride atomic.Int64

// SetMaxInputSize overrides the limit for the whole process.
// Non-positive values restore the environment/default behaviour.
func SetMaxInputSize(n int) {
	if n < 0 {
		n = 0
	}
	maxInputOverride.Store(int64(n))
}

// MaxInputSize reports the limit currently enforced by SanitizeInput.
func MaxInputSize() int {
	if n := maxInputOverride.Load(); n > 0 {
		return int(n)
	}
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}

// SanitizeInput cleans user input by enforcing size limits,
// validating UTF-8, and stripping control characters.
// Newline, tab and carriage return are preserved.
func SanitizeInput(input string) (string, error) {
	// Oversized input is rejected, never truncated.
	limit := MaxInputSize()
	if len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}

	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	if strings.IndexFunc(input, isUnsafeControl) < 0 {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !isUnsafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

// SanitizeChoiceIDs sanitizes each id and drops blanks.
func SanitizeChoiceIDs(ids []string) ([]string, error) {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		clean, err := SanitizeInput(id)
		if err != nil {
			return nil, err
		}
		if clean = strings.TrimSpace(clean); clean != "" {
			out = append(out, clean)
		}
	}
	return out, nil
}

func isUnsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}
