package runner

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/triage/pkg/catalog"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextHandler_Output(t *testing.T) {
	out := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader(""), out, WithTextHandlerRenderer(func(s string) (string, error) {
		return "Rendered: " + s, nil
	}))

	prompt := promptFor(t, catalog.QAssociated)
	require.NoError(t, handler.Output(context.Background(), []domain.Message{
		{Kind: domain.KindConfirmation, Text: "Thanks"},
		prompt,
	}))

	output := out.String()
	assert.Contains(t, output, "Rendered: Thanks")
	assert.Contains(t, output, "**Associated symptoms**")
	assert.Contains(t, output, "1. Shortness of breath")
	assert.Contains(t, output, "Select all that apply")
}

func TestTextHandler_Read(t *testing.T) {
	out := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader("2\n"), out)

	ev, err := handler.Read(context.Background(), promptFor(t, catalog.QWhen))
	require.NoError(t, err)
	assert.Equal(t, domain.ChoiceSelected{QuestionID: catalog.QWhen, ChoiceIDs: []string{"today"}}, ev)
	assert.Equal(t, "> ", out.String())

	_, err = handler.Read(context.Background(), promptFor(t, catalog.QWhen))
	assert.ErrorIs(t, err, io.EOF)
}

func TestTextHandler_Quit(t *testing.T) {
	handler := NewTextHandler(strings.NewReader("quit\n"), io.Discard)
	_, err := handler.Read(context.Background(), promptFor(t, catalog.QWhen))
	assert.ErrorIs(t, err, io.EOF)
}

func TestTextHandler_ReadCancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	handler := NewTextHandler(pr, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := handler.Read(ctx, promptFor(t, catalog.QWhen))
	assert.ErrorIs(t, err, context.Canceled)
}
