package middleware_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/persistence/middleware"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	under := NewMockStore()
	mw, err := middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns)
	require.NoError(t, err)
	store := mw(under)

	ctx := context.Background()
	state := answeredState("s1")
	state.Answers.Set("q3", domain.Answer{Selections: []string{"other"}, Other: "write to jane.doe@example.org"})
	state.Answers.Set("q4", domain.Answer{Selections: []string{"sharp"}})

	require.NoError(t, store.Save(ctx, "s1", state))

	// The caller's state is untouched.
	a, _ := state.Answers.Get("q1")
	assert.Equal(t, "since the gym, call me at +1 555 123 4567", a.Other)

	stored, err := under.Load(ctx, "s1")
	require.NoError(t, err)

	a, _ = stored.Answers.Get("q1")
	assert.Equal(t, "since the gym, call me at ***", a.Other)
	a, _ = stored.Answers.Get("q3")
	assert.Equal(t, "write to ***", a.Other)
	a, _ = stored.Answers.Get("q4")
	assert.Equal(t, []string{"sharp"}, a.Selections)
}

func TestPIIMiddleware_InvalidPattern(t *testing.T) {
	_, err := middleware.NewPIIMiddleware([]string{"("})
	assert.Error(t, err)
}

func TestChain_PIIThenEncryption(t *testing.T) {
	under := NewMockStore()
	pii, err := middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns)
	require.NoError(t, err)
	enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)

	store := middleware.Chain(under, pii, enc)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "s1", answeredState("s1")))

	stored, _ := under.Load(ctx, "s1")
	assert.NotEmpty(t, stored.Sealed)

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	a, _ := loaded.Answers.Get("q1")
	assert.Equal(t, "since the gym, call me at ***", a.Other)
}
