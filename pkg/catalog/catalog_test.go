package catalog

import (
	"strings"
	"testing"

	"github.com/aretw0/triage/pkg/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.Equal(t, 9, c.Len())
	assert.Equal(t, PainOrder, c.Order())

	for i, q := range c.Questions() {
		assert.Equal(t, i+1, q.Ordinal, q.ID)
		assert.NotEmpty(t, q.Title, q.ID)

		// 4-7 real choices plus the trailing "other"
		n := len(q.Choices) - 1
		assert.GreaterOrEqual(t, n, 4, q.ID)
		assert.LessOrEqual(t, n, 7, q.ID)

		last := q.Choices[len(q.Choices)-1]
		assert.True(t, last.IsOther, q.ID)
		assert.Equal(t, "Other / describe", last.Label)
	}

	assoc, err := c.Lookup(QAssociated)
	require.NoError(t, err)
	assert.True(t, assoc.Multi)
	none, ok := assoc.Choice("none")
	require.True(t, ok)
	assert.True(t, none.IsExclusive)
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Default().Lookup("q0_missing")
	assert.ErrorIs(t, err, domain.ErrUnknownQuestion)
	assert.True(t, domain.IsConfiguration(err))
}

func TestLookup_ReturnsCopy(t *testing.T) {
	c := Default()
	q, err := c.Lookup(QWhen)
	require.NoError(t, err)
	q.Choices[0].Label = "mutated"

	again, _ := c.Lookup(QWhen)
	assert.Equal(t, "Just now", again.Choices[0].Label)
}

func TestNew_Validation(t *testing.T) {
	ok := func(id string) domain.Choice { return domain.Choice{ID: id, Label: id} }
	oth := domain.Choice{ID: "other", Label: "Other", IsOther: true}
	excl := domain.Choice{ID: "none", Label: "None", IsExclusive: true}

	tests := []struct {
		name string
		qs   []domain.Question
		msg  string
	}{
		{"empty", nil, "empty"},
		{"missing id", []domain.Question{{Choices: []domain.Choice{ok("a"), oth}}}, "missing id"},
		{"too few choices", []domain.Question{{ID: "q", Choices: []domain.Choice{oth}}}, "need at least"},
		{"no other", []domain.Question{{ID: "q", Choices: []domain.Choice{ok("a"), ok("b")}}}, "exactly one other"},
		{"two others", []domain.Question{{ID: "q", Choices: []domain.Choice{oth, {ID: "x", Label: "x", IsOther: true}}}}, "exactly one other"},
		{"exclusive on single", []domain.Question{{ID: "q", Choices: []domain.Choice{ok("a"), excl, oth}}}, "single-select"},
		{"two exclusives", []domain.Question{{ID: "q", Multi: true, Choices: []domain.Choice{excl, {ID: "n2", Label: "n2", IsExclusive: true}, oth}}}, "at most one"},
		{"repeated choice", []domain.Question{{ID: "q", Choices: []domain.Choice{ok("a"), ok("a"), oth}}}, "repeats"},
		{"duplicate question", []domain.Question{
			{ID: "q", Choices: []domain.Choice{ok("a"), oth}},
			{ID: "q", Choices: []domain.Choice{ok("a"), oth}},
		}, "duplicate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.qs...)
			require.ErrorIs(t, err, ErrInvalidQuestion)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestLoadFile(t *testing.T) {
	c, err := LoadFile("testdata/short.yaml")
	require.NoError(t, err)

	assert.Equal(t, []domain.QuestionID{"q1_when", "q6_associated"}, c.Order())

	q, err := c.Lookup("q6_associated")
	require.NoError(t, err)
	assert.True(t, q.Multi)
	assert.Equal(t, 2, q.Ordinal)
	none, _ := q.Choice("none")
	assert.True(t, none.IsExclusive)
	oth, _ := q.OtherChoice()
	assert.Equal(t, "other", oth.ID)

	seq := c.Sequencer()
	assert.Equal(t, domain.QuestionID("q1_when"), seq.First())
}

func TestLoadYAML_Invalid(t *testing.T) {
	_, err := LoadYAML(strings.NewReader("questions: [{id: q1, choices: [{id: a, label: A}]}]"))
	assert.ErrorIs(t, err, ErrInvalidQuestion)

	_, err = LoadYAML(strings.NewReader(":::"))
	assert.Error(t, err)
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	var buf strings.Builder
	require.NoError(t, WriteYAML(&buf, Default()))
	assert.Contains(t, buf.String(), "exclusive: true")

	back, err := LoadYAML(strings.NewReader(buf.String()))
	require.NoError(t, err)

	if diff := cmp.Diff(Default().Questions(), back.Questions()); diff != "" {
		t.Errorf("catalog changed after round trip (-want +got):\n%s", diff)
	}
}
