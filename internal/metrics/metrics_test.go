package metrics_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/triage"
	"github.com/aretw0/triage/internal/metrics"
	"github.com/aretw0/triage/pkg/catalog"
	"github.com/aretw0/triage/pkg/domain"
)

func TestHooks_DirectEvents(t *testing.T) {
	m := metrics.New()
	h := m.Hooks()
	ctx := context.Background()

	h.OnQuestionEnter(ctx, &domain.QuestionEvent{QuestionID: "q1"})
	h.OnQuestionEnter(ctx, &domain.QuestionEvent{QuestionID: "q1"})
	h.OnAnswerRecorded(ctx, &domain.AnswerEvent{QuestionID: "q6", ChoiceIDs: []string{"nausea", "sweating"}})
	h.OnAnswerRecorded(ctx, &domain.AnswerEvent{QuestionID: "q6", ChoiceIDs: []string{"other"}, FreeText: true})
	h.OnFlowComplete(ctx, &domain.FlowEvent{Answered: 9, Duration: 90 * time.Second})
	h.OnEventRejected(ctx, &domain.RejectionEvent{Reason: "no_selection"})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.QuestionsPresented.WithLabelValues("q1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnswersRecorded.WithLabelValues("q6", "nausea")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnswersRecorded.WithLabelValues("q6", "sweating")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FreeTextCaptured.WithLabelValues("q6")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FlowsCompleted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsRejected.WithLabelValues("no_selection")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.FlowDuration))
}

func TestHooks_WiredIntoEngine(t *testing.T) {
	m := metrics.New()
	eng, err := triage.New(triage.WithLifecycleHooks(m.Hooks()))
	require.NoError(t, err)

	ctx := context.Background()
	state, _, err := eng.Start(ctx, "s1")
	require.NoError(t, err)

	state, _, err = eng.Apply(ctx, state, domain.ChoiceSelected{QuestionID: catalog.QWhen, ChoiceIDs: []string{"today"}})
	require.NoError(t, err)

	_, _, err = eng.Apply(ctx, state, domain.ChoiceSelected{QuestionID: catalog.QWhere})
	assert.ErrorIs(t, err, domain.ErrNoSelection)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.QuestionsPresented.WithLabelValues(string(catalog.QWhen))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QuestionsPresented.WithLabelValues(string(catalog.QWhere))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnswersRecorded.WithLabelValues(string(catalog.QWhen), "today")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsRejected.WithLabelValues("no_selection")))
}

func TestHandler_Exposition(t *testing.T) {
	m := metrics.New(metrics.WithProcessCollectors())
	m.FlowsCompleted.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "triage_flows_completed_total 1"))
	assert.True(t, strings.Contains(body, "go_goroutines"))

	expected := `
# HELP triage_flows_completed_total Number of triage sessions that reached completion.
# TYPE triage_flows_completed_total counter
triage_flows_completed_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "triage_flows_completed_total"))
}
