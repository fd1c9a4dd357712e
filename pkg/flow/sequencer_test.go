package flow

import (
	"testing"

	"github.com/aretw0/triage/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Rejects(t *testing.T) {
	_, err := New()
	assert.ErrorIs(t, err, ErrEmptySequence)

	_, err = New("a", "")
	assert.ErrorIs(t, err, ErrEmptySequence)

	_, err = New("a", "b", "a")
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestSequencer_Next(t *testing.T) {
	s, err := New("a", "b", "c")
	require.NoError(t, err)

	assert.Equal(t, domain.QuestionID("a"), s.First())

	next, done, err := s.Next("a")
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, domain.QuestionID("b"), next)

	_, done, err = s.Next("c")
	require.NoError(t, err)
	assert.True(t, done)

	_, _, err = s.Next("zzz")
	assert.ErrorIs(t, err, domain.ErrUnknownQuestion)
}

func TestSequencer_Terminates(t *testing.T) {
	s := MustNew("q1", "q2", "q3", "q4", "q5")

	for _, start := range s.IDs() {
		current := start
		steps := 0
		for {
			next, done, err := s.Next(current)
			require.NoError(t, err)
			steps++
			if done {
				break
			}
			current = next
			require.LessOrEqual(t, steps, s.Len(), "cycle detected from %s", start)
		}
		assert.Equal(t, s.Remaining(start), steps, "advances from %s", start)
	}
}

func TestSequencer_IDsIsCopy(t *testing.T) {
	s := MustNew("a", "b")
	ids := s.IDs()
	ids[0] = "mutated"
	assert.Equal(t, domain.QuestionID("a"), s.First())
}
