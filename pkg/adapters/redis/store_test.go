package redis_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/triage/pkg/adapters/redis"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	store := redis.NewFromClient(client)
	ports.RunStateStoreContract(t, store)
}

func TestRedisMessageLog_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunMessageLogContract(t, redis.NewMessageLog(client, "", 0))
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()
	sessionID := "session-ttl"
	state := domain.NewState(sessionID, "q1_when", time.Now())

	err := store.Save(ctx, sessionID, state)
	assert.NoError(t, err)

	sessions, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Contains(t, sessions, sessionID)

	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, sessionID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithPrefix("clinic-a:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "s1", domain.NewState("s1", "q1_when", time.Now())))
	assert.True(t, mr.Exists("clinic-a:s1"))
	assert.True(t, mr.Exists("clinic-a:index"))
}

func TestRedisStore_Summaries(t *testing.T) {
	_, client := newClient(t)
	store := redis.NewFromClient(client)
	ctx := context.Background()
	var _ ports.Summarizer = store

	open := domain.NewState("open", "q1_when", time.Now())
	done := domain.NewState("done", "q1_when", time.Now())
	done.History = []domain.QuestionID{"q1_when", "q2_where", "q3_quality"}
	done.QuestionID = ""
	done.Status = domain.StatusCompleted
	require.NoError(t, store.Save(ctx, "open", open))
	require.NoError(t, store.Save(ctx, "done", done))

	all, err := store.Summaries(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	completed, err := store.Summaries(ctx, domain.StatusCompleted)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, "done", completed[0].SessionID)
	assert.Equal(t, 3, completed[0].Progress)

	require.NoError(t, store.Delete(ctx, "done"))
	exists, err := client.HExists(ctx, redis.DefaultPrefix+"summary", "done").Result()
	require.NoError(t, err)
	assert.False(t, exists)

	completed, err = store.Summaries(ctx, domain.StatusCompleted)
	require.NoError(t, err)
	assert.Empty(t, completed)
}

func TestRedisSubmitter(t *testing.T) {
	mr, client := newClient(t)
	sub := redis.NewSubmitter(client, "", 100)
	ctx := context.Background()

	err := sub.Submit(ctx, "s1", map[string]any{"q1_when": "today", "q1_when_other": ""})
	require.NoError(t, err)

	entries, err := client.XRange(ctx, redis.DefaultStream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "s1", entries[0].Values["session_id"])

	var answers map[string]any
	require.NoError(t, json.Unmarshal([]byte(entries[0].Values["answers"].(string)), &answers))
	assert.Equal(t, "today", answers["q1_when"])
	assert.True(t, mr.Exists(redis.DefaultStream))
}
