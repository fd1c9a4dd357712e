package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/triage/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewState(sessionID, "q2_where", time.Now().UTC())
		state.History = []domain.QuestionID{"q1_when", "q2_where"}
		state.Answers.Set("q1_when", domain.Answer{Selections: []string{"other"}, Other: "woke me up at 3am"})

		err := store.Save(ctx, sessionID, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, state.QuestionID, loaded.QuestionID)
		assert.Equal(t, state.Status, loaded.Status)
		assert.Equal(t, state.History, loaded.History)

		a, ok := loaded.Answers.Get("q1_when")
		require.True(t, ok, "answers should survive persistence")
		assert.Equal(t, "woke me up at 3am", a.Other)
	})

	t.Run("Saved State Is Detached", func(t *testing.T) {
		state := domain.NewState(sessionID, "q1_when", time.Now().UTC())
		require.NoError(t, store.Save(ctx, sessionID, state))

		state.Answers.Set("q1_when", domain.Answer{Selections: []string{"today"}})

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.False(t, loaded.Answers.Has("q1_when"), "mutating after Save must not leak into the store")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewState(sessionID, "q1_when", time.Now()))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewState(id1, "q1_when", time.Now()))
		_ = store.Save(ctx, id2, domain.NewState(id2, "q1_when", time.Now()))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunMessageLogContract verifies that a MessageLog implementation keeps
// posting order and isolates sessions.
func RunMessageLogContract(t *testing.T, log MessageLog) {
	ctx := context.Background()
	sessionID := "contract-log-" + time.Now().Format("20060102150405")

	t.Run("Empty", func(t *testing.T) {
		_, ok, err := log.Last(ctx, sessionID+"-empty")
		require.NoError(t, err)
		assert.False(t, ok)

		msgs, err := log.List(ctx, sessionID+"-empty")
		require.NoError(t, err)
		assert.Empty(t, msgs)
	})

	t.Run("Append Keeps Order", func(t *testing.T) {
		first := domain.Message{Kind: domain.KindChoicePrompt, QuestionID: "q1_when", Title: "Onset"}
		second := domain.Message{Kind: domain.KindConfirmation, Text: "Thanks"}
		require.NoError(t, log.Append(ctx, sessionID, first))
		require.NoError(t, log.Append(ctx, sessionID, second))

		last, ok, err := log.Last(ctx, sessionID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, domain.KindConfirmation, last.Kind)

		msgs, err := log.List(ctx, sessionID)
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, "Onset", msgs[0].Title)
		assert.Equal(t, "Thanks", msgs[1].Text)
	})

	t.Run("Sessions Are Isolated", func(t *testing.T) {
		msgs, err := log.List(ctx, sessionID+"-other")
		require.NoError(t, err)
		assert.Empty(t, msgs)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, log.Delete(ctx, sessionID))
		_, ok, err := log.Last(ctx, sessionID)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
