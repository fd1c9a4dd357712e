package runner_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aretw0/triage"
	"github.com/aretw0/triage/pkg/adapters/memory"
	"github.com/aretw0/triage/pkg/catalog"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/runner"
	"github.com/aretw0/triage/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, opts ...session.Option) (*session.Manager, *memory.Store) {
	t.Helper()
	eng, err := triage.New()
	require.NoError(t, err)
	store := memory.NewStore()
	return session.NewManager(eng, store, memory.NewMessageLog(), opts...), store
}

func run(t *testing.T, m *session.Manager, id, input string) (*domain.State, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	r := runner.NewRunner(m,
		runner.WithSessionID(id),
		runner.WithInputHandler(runner.NewTextHandler(strings.NewReader(input), out)),
	)
	state, err := r.Run(context.Background())
	return state, out.String(), err
}

func TestRunner_CompletesQuestionnaire(t *testing.T) {
	latch := memory.NewCompletionLatch()
	m, _ := newManager(t, session.WithCompletion(latch))

	// q1 other + text, q2..q5 first option, q6 two symptoms, q7..q9 first option
	input := strings.Join([]string{"6", "Woke up with it", "1", "1", "1", "1", "2,3", "1", "1", "1"}, "\n") + "\n"
	state, out, err := run(t, m, "r1", input)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, state.Status)
	assert.True(t, latch.Fired())
	assert.Contains(t, out, "**Onset**")
	assert.Contains(t, out, "Please describe your answer")
	assert.Contains(t, out, "that completes the questionnaire")

	flat := state.Answers.Flatten()
	assert.Equal(t, "other", flat["q1_when"])
	assert.Equal(t, "Woke up with it", flat["q1_when_other"])
	assert.Equal(t, []string{"sweating", "nausea"}, flat["q6_associated"])
}

func TestRunner_RepromptsInvalidReplies(t *testing.T) {
	m, _ := newManager(t)

	input := "\nmaybe\n1,2\n1\n"
	state, out, err := run(t, m, "r2", input)
	require.NoError(t, err, "EOF ends the run quietly")

	assert.Equal(t, catalog.QWhere, state.QuestionID)
	assert.Equal(t, 3, strings.Count(out, "[!] "))
	assert.Contains(t, out, `"maybe" is not one of the options.`)
	assert.Contains(t, out, "Please choose a single option.")
}

func TestRunner_ResumesSession(t *testing.T) {
	m, store := newManager(t)

	_, _, err := run(t, m, "r3", "1\n2\n")
	require.NoError(t, err)

	saved, err := store.Load(context.Background(), "r3")
	require.NoError(t, err)
	assert.Equal(t, catalog.QQuality, saved.QuestionID)

	state, out, err := run(t, m, "r3", "3\n")
	require.NoError(t, err)
	assert.Contains(t, out, "**Quality**", "pending prompt is shown again on resume")
	assert.Equal(t, catalog.QWorse, state.QuestionID)
	assert.Equal(t, 3, state.Answers.Len())
}

func TestRunner_CompletedSessionReturnsImmediately(t *testing.T) {
	m, _ := newManager(t)
	input := strings.Repeat("1\n", 9)
	first, _, err := run(t, m, "r4", input)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, first.Status)

	state, _, err := run(t, m, "r4", "1\n")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, state.Status)
}
