package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/triage/pkg/catalog"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONHandler_Output(t *testing.T) {
	out := &bytes.Buffer{}
	handler := NewJSONHandler(strings.NewReader(""), out)

	require.NoError(t, handler.Output(context.Background(), []domain.Message{
		{Kind: domain.KindConfirmation, Text: "ok"},
		promptFor(t, catalog.QWhen),
	}))
	require.NoError(t, handler.SystemOutput(context.Background(), "heads up"))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)

	var msg domain.Message
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &msg))
	assert.Equal(t, domain.KindChoicePrompt, msg.Kind)
	assert.Equal(t, catalog.QWhen, msg.QuestionID)
	assert.JSONEq(t, `{"kind":"system","text":"heads up"}`, lines[2])
}

func TestJSONHandler_Read(t *testing.T) {
	input := strings.Join([]string{
		`{"choice_ids":["nausea","sweating"]}`,
		`{"choice_id":"today"}`,
		`"3"`,
		`{"text":"after lunch"}`,
		`{"choice_ids":[]}`,
		`{broken`,
		`exit`,
	}, "\n") + "\n"
	handler := NewJSONHandler(strings.NewReader(input), io.Discard)
	ctx := context.Background()
	multi := promptFor(t, catalog.QAssociated)
	single := promptFor(t, catalog.QWhen)

	ev, err := handler.Read(ctx, multi)
	require.NoError(t, err)
	assert.Equal(t, domain.ChoiceSelected{QuestionID: catalog.QAssociated, ChoiceIDs: []string{"nausea", "sweating"}}, ev)

	ev, err = handler.Read(ctx, single)
	require.NoError(t, err)
	assert.Equal(t, domain.ChoiceSelected{QuestionID: catalog.QWhen, ChoiceIDs: []string{"today"}}, ev)

	ev, err = handler.Read(ctx, single)
	require.NoError(t, err)
	assert.Equal(t, domain.ChoiceSelected{QuestionID: catalog.QWhen, ChoiceIDs: []string{"yesterday"}}, ev)

	ev, err = handler.Read(ctx, domain.Message{Kind: domain.KindFreeTextPrompt, QuestionID: catalog.QWhen})
	require.NoError(t, err)
	assert.Equal(t, domain.FreeTextSubmitted{QuestionID: catalog.QWhen, Text: "after lunch"}, ev)

	_, err = handler.Read(ctx, single)
	assert.ErrorIs(t, err, ErrInvalidReply)

	_, err = handler.Read(ctx, single)
	assert.ErrorIs(t, err, ErrInvalidReply)

	_, err = handler.Read(ctx, single)
	assert.ErrorIs(t, err, io.EOF)

	_, err = handler.Read(ctx, single)
	assert.ErrorIs(t, err, io.EOF)
}
