package runner

import (
	"testing"

	"github.com/aretw0/triage/pkg/catalog"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func promptFor(t *testing.T, id domain.QuestionID) domain.Message {
	t.Helper()
	q, err := catalog.Default().Lookup(id)
	require.NoError(t, err)
	return domain.Message{Kind: domain.KindChoicePrompt, QuestionID: q.ID, Title: q.Title, Text: q.Prompt, Choices: q.Choices, Multi: q.Multi}
}

func TestParseReply_Choice(t *testing.T) {
	single := promptFor(t, catalog.QWhen)
	multi := promptFor(t, catalog.QAssociated)

	tests := []struct {
		name    string
		prompt  domain.Message
		raw     string
		want    []string
		wantErr bool
	}{
		{"number", single, "2", []string{"today"}, false},
		{"id", single, "yesterday", []string{"yesterday"}, false},
		{"label case insensitive", single, "just NOW", []string{"just_now"}, false},
		{"out of range", single, "42", nil, true},
		{"unknown word", single, "tomorrow", nil, true},
		{"blank", single, "   ", nil, true},
		{"two on single", single, "1,2", nil, true},
		{"multi numbers", multi, "1, 3", []string{"shortness_of_breath", "nausea"}, false},
		{"multi dedup", multi, "nausea,3", []string{"nausea"}, false},
		{"multi only commas", multi, ", ,", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := ParseReply(tt.prompt, tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidReply)
				return
			}
			require.NoError(t, err)
			sel, ok := ev.(domain.ChoiceSelected)
			require.True(t, ok)
			assert.Equal(t, tt.prompt.QuestionID, sel.QuestionID)
			assert.Equal(t, tt.want, sel.ChoiceIDs)
		})
	}
}

func TestParseReply_FreeText(t *testing.T) {
	prompt := domain.Message{Kind: domain.KindFreeTextPrompt, QuestionID: catalog.QWhere}

	ev, err := ParseReply(prompt, "  left shoulder blade ")
	require.NoError(t, err)
	assert.Equal(t, domain.FreeTextSubmitted{QuestionID: catalog.QWhere, Text: "left shoulder blade"}, ev)

	_, err = ParseReply(prompt, "")
	assert.ErrorIs(t, err, ErrInvalidReply)
}

func TestParseReply_NotAPrompt(t *testing.T) {
	_, err := ParseReply(domain.Message{Kind: domain.KindCompletion}, "1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidReply)
}
