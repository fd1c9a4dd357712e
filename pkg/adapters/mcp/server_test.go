package mcp

import (
	"context"
	"testing"

	"github.com/aretw0/triage"
	"github.com/aretw0/triage/pkg/adapters/memory"
	"github.com/aretw0/triage/pkg/catalog"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *Server {
	t.Helper()
	eng, err := triage.New()
	require.NoError(t, err)
	return NewServer(session.NewManager(eng, memory.NewStore(), memory.NewMessageLog()), nil)
}

func TestTools_StartSelectText(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	res, err := s.handleStart(ctx, req, map[string]interface{}{"session_id": "m1"})
	require.NoError(t, err)
	assert.Equal(t, "m1", res.SessionID)
	require.Len(t, res.Posted, 1)
	assert.Equal(t, catalog.QWhen, res.Posted[0].QuestionID)

	res, err = s.handleSelect(ctx, req, map[string]interface{}{
		"session_id":  "m1",
		"question_id": string(catalog.QWhen),
		"choice_ids":  "other",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAwaitingOtherText, res.State.Status)

	res, err = s.handleText(ctx, req, map[string]interface{}{
		"session_id":  "m1",
		"question_id": string(catalog.QWhen),
		"text":        "Woke up with it",
	})
	require.NoError(t, err)
	assert.Equal(t, catalog.QWhere, res.State.QuestionID)

	// duplicate is reported, not failed
	res, err = s.handleSelect(ctx, req, map[string]interface{}{
		"session_id":  "m1",
		"question_id": string(catalog.QWhen),
		"choice_ids":  "today",
	})
	require.NoError(t, err)
	assert.True(t, res.Ignored)
}

func TestTools_MultiSelect(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	_, err := s.handleStart(ctx, req, map[string]interface{}{"session_id": "m2"})
	require.NoError(t, err)

	for _, q := range catalog.PainOrder[:5] {
		c, err := catalog.Default().Lookup(q)
		require.NoError(t, err)
		_, err = s.handleSelect(ctx, req, map[string]interface{}{
			"session_id":  "m2",
			"question_id": string(q),
			"choice_ids":  c.Choices[0].ID,
		})
		require.NoError(t, err)
	}

	res, err := s.handleSelect(ctx, req, map[string]interface{}{
		"session_id":  "m2",
		"question_id": string(catalog.QAssociated),
		"choice_ids":  "nausea, sweating",
	})
	require.NoError(t, err)
	a, ok := res.State.Answers.Get(catalog.QAssociated)
	require.True(t, ok)
	assert.Equal(t, []string{"nausea", "sweating"}, a.Selections)
}

func TestTools_Errors(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	_, err := s.handleSelect(ctx, req, map[string]interface{}{
		"session_id":  "missing",
		"question_id": string(catalog.QWhen),
		"choice_ids":  "today",
	})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = s.handleStart(ctx, req, map[string]interface{}{"session_id": "m3"})
	require.NoError(t, err)

	_, err = s.handleSelect(ctx, req, map[string]interface{}{
		"session_id":  "m3",
		"question_id": string(catalog.QWhen),
		"choice_ids":  " , ",
	})
	assert.ErrorIs(t, err, domain.ErrNoSelection)
}
