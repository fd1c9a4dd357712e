package main

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/triage/internal/cli"
	"github.com/aretw0/triage/internal/config"
	"github.com/aretw0/triage/internal/logging"
	"github.com/aretw0/triage/pkg/catalog"
	"github.com/aretw0/triage/pkg/domain"
)

func seedSessions(t *testing.T, app *cli.App) {
	t.Helper()
	ctx := context.Background()
	for _, id := range []string{"a", "b"} {
		_, err := app.Manager.Start(ctx, id)
		require.NoError(t, err)
	}
	_, err := app.Manager.Select(ctx, "b", catalog.QWhen, domain.OtherChoiceID)
	require.NoError(t, err)
}

func TestListSummaries(t *testing.T) {
	ctx := context.Background()

	t.Run("memory store loads states", func(t *testing.T) {
		app, err := cli.Build(ctx, config.Default(), logging.NewNop())
		require.NoError(t, err)
		t.Cleanup(func() { _ = app.Close() })
		assert.Nil(t, app.Summaries)
		seedSessions(t, app)

		all, err := listSummaries(ctx, app, "")
		require.NoError(t, err)
		assert.Len(t, all, 2)

		pending, err := listSummaries(ctx, app, domain.StatusAwaitingOtherText)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, "b", pending[0].SessionID)
	})

	t.Run("redis store reads the summary index", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := config.Default()
		cfg.Store.Backend = config.StoreRedis
		cfg.Redis.Addr = mr.Addr()

		app, err := cli.Build(ctx, cfg, logging.NewNop())
		require.NoError(t, err)
		t.Cleanup(func() { _ = app.Close() })
		require.NotNil(t, app.Summaries)
		seedSessions(t, app)

		pending, err := listSummaries(ctx, app, domain.StatusAwaitingOtherText)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, "b", pending[0].SessionID)
		assert.Equal(t, catalog.QWhen, pending[0].QuestionID)
		assert.Equal(t, 1, pending[0].Progress)
	})
}
