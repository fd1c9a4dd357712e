package intake_test

import (
	"testing"
	"time"

	"github.com/aretw0/triage/pkg/intake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer_RoundTrip(t *testing.T) {
	issuer, err := intake.NewIssuer("s3cret")
	require.NoError(t, err)
	assert.Equal(t, intake.DefaultTTL, issuer.TTL())

	link, err := issuer.Issue("sess-1", "J.D.")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", link.SessionID)
	assert.Equal(t, intake.StatusPending, link.Status)
	assert.NotEmpty(t, link.Token)

	claims, err := issuer.Verify(link.Token)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, "J.D.", claims.PatientHint)
}

func TestIssuer_Expired(t *testing.T) {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	issuer, err := intake.NewIssuer("s3cret", intake.WithTTL(time.Hour), intake.WithClock(clock))
	require.NoError(t, err)

	link, err := issuer.Issue("sess-1", "")
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), link.ExpiresAt)

	now = now.Add(2 * time.Hour)
	_, err = issuer.Verify(link.Token)
	assert.ErrorIs(t, err, intake.ErrExpired)
}

func TestIssuer_WrongSecret(t *testing.T) {
	a, _ := intake.NewIssuer("one")
	b, _ := intake.NewIssuer("two")

	link, err := a.Issue("sess-1", "")
	require.NoError(t, err)

	_, err = b.Verify(link.Token)
	assert.ErrorIs(t, err, intake.ErrInvalidToken)

	_, err = a.Verify("not-a-token")
	assert.ErrorIs(t, err, intake.ErrInvalidToken)
}

func TestNewIssuer_RequiresSecret(t *testing.T) {
	_, err := intake.NewIssuer("")
	assert.ErrorIs(t, err, intake.ErrNoSecret)

	issuer, err := intake.NewIssuer("x")
	require.NoError(t, err)
	_, err = issuer.Issue("", "")
	assert.ErrorIs(t, err, intake.ErrInvalidToken)
}
