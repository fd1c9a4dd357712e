package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/triage/pkg/adapters/sqlite"
	"github.com/aretw0/triage/pkg/intake"
	"github.com/aretw0/triage/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.Submitter = (*sqlite.Store)(nil)
var _ intake.LinkStore = (*sqlite.Store)(nil)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "db", "triage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_SubmitWithoutLink(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	answers := map[string]any{
		"q1_when":           "today",
		"q6_triggers":       []string{"movement", "other"},
		"q6_triggers_other": "stairs",
	}
	require.NoError(t, s.Submit(ctx, "sess-1", answers))

	got, err := s.Payload(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "today", got["q1_when"])
	assert.Equal(t, []any{"movement", "other"}, got["q6_triggers"])

	link, err := s.Link(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, intake.StatusSubmitted, link.Status)
	require.NotNil(t, link.SubmittedAt)
}

func TestStore_LinkLifecycle(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, err := sqlite.Open(":memory:", sqlite.WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	_, err = s.Link(ctx, "missing")
	assert.ErrorIs(t, err, intake.ErrLinkNotFound)
	_, err = s.Payload(ctx, "missing")
	assert.ErrorIs(t, err, sqlite.ErrPayloadNotFound)

	require.NoError(t, s.SaveLink(ctx, intake.Link{
		SessionID:   "sess-2",
		Token:       "tok",
		PatientHint: "A.B.",
		ExpiresAt:   fixed.Add(8 * time.Hour),
	}))

	link, err := s.Link(ctx, "sess-2")
	require.NoError(t, err)
	assert.Equal(t, intake.StatusPending, link.Status)
	assert.Equal(t, "tok", link.Token)
	assert.True(t, link.ExpiresAt.Equal(fixed.Add(8*time.Hour)))
	assert.Nil(t, link.SubmittedAt)

	require.NoError(t, s.Submit(ctx, "sess-2", map[string]any{"q1_when": "week"}))

	link, err = s.Link(ctx, "sess-2")
	require.NoError(t, err)
	assert.Equal(t, intake.StatusSubmitted, link.Status)
	assert.Equal(t, "tok", link.Token)
	require.NotNil(t, link.SubmittedAt)
	assert.True(t, link.SubmittedAt.Equal(fixed))
}

func TestStore_ResubmitReplacesPayload(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.Submit(ctx, "sess-3", map[string]any{"q1_when": "today"}))
	require.NoError(t, s.Submit(ctx, "sess-3", map[string]any{"q1_when": "month"}))

	got, err := s.Payload(ctx, "sess-3")
	require.NoError(t, err)
	assert.Equal(t, "month", got["q1_when"])
}

func TestOpen_RequiresDSN(t *testing.T) {
	_, err := sqlite.Open("")
	assert.Error(t, err)
}
