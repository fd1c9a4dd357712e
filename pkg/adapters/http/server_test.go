package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/triage"
	"github.com/aretw0/triage/pkg/adapters/memory"
	"github.com/aretw0/triage/pkg/catalog"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/intake"
	"github.com/aretw0/triage/pkg/runner"
	"github.com/aretw0/triage/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts ...Option) (*Server, http.Handler) {
	t.Helper()
	eng, err := triage.New()
	require.NoError(t, err)
	m := session.NewManager(eng, memory.NewStore(), memory.NewMessageLog())
	s := NewServer(m, opts...)
	return s, s.Routes()
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func startSession(t *testing.T, h http.Handler, id string) ResultView {
	t.Helper()
	w := do(t, h, http.MethodPost, "/sessions", map[string]string{"session_id": id})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[ResultView](t, w)
}

func selectChoice(t *testing.T, h http.Handler, id string, q domain.QuestionID, choices ...string) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, h, http.MethodPost, "/sessions/"+id+"/choices", map[string]any{
		"question_id": q,
		"choice_ids":  choices,
	})
}

// completeFlow answers every default question with its first choice ("none" for the multi-select one).
func completeFlow(t *testing.T, h http.Handler, id string) ResultView {
	t.Helper()
	var last ResultView
	for _, q := range catalog.Default().Questions() {
		choice := q.Choices[0].ID
		if q.Multi {
			choice = "none"
		}
		w := selectChoice(t, h, id, q.ID, choice)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		last = decode[ResultView](t, w)
	}
	return last
}

func TestServer_HealthInfoCatalog(t *testing.T) {
	_, h := newTestServer(t)

	w := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/info", nil)
	require.Equal(t, http.StatusOK, w.Code)
	info := decode[map[string]any](t, w)
	assert.Equal(t, "triage-http", info["app"])
	assert.EqualValues(t, 9, info["questions"])
	assert.Equal(t, false, info["intake"])

	w = do(t, h, http.MethodGet, "/catalog", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cat := decode[struct {
		Questions []domain.Question `json:"questions"`
	}](t, w)
	require.Len(t, cat.Questions, 9)
	assert.Equal(t, catalog.QWhen, cat.Questions[0].ID)
}

func TestServer_SessionLifecycle(t *testing.T) {
	_, h := newTestServer(t)

	res := startSession(t, h, "s1")
	assert.Equal(t, "s1", res.SessionID)
	require.Len(t, res.Posted, 1)
	assert.Equal(t, domain.KindChoicePrompt, res.Posted[0].Kind)
	assert.Equal(t, catalog.QWhen, res.State.QuestionID)

	// starting again resumes without re-posting
	w := do(t, h, http.MethodPost, "/sessions", map[string]string{"session_id": "s1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[ResultView](t, w).Posted)

	w = selectChoice(t, h, "s1", catalog.QWhen, "today")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res = decode[ResultView](t, w)
	require.Len(t, res.Posted, 2)
	assert.Equal(t, domain.KindConfirmation, res.Posted[0].Kind)
	assert.Equal(t, catalog.QWhere, res.Posted[1].QuestionID)

	// duplicate answer is a no-op
	w = selectChoice(t, h, "s1", catalog.QWhen, "yesterday")
	require.Equal(t, http.StatusOK, w.Code)
	res = decode[ResultView](t, w)
	assert.True(t, res.Ignored)
	assert.Empty(t, res.Posted)

	w = do(t, h, http.MethodGet, "/sessions/s1/answers", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "today", decode[map[string]any](t, w)["q1_when"])

	w = do(t, h, http.MethodGet, "/sessions/s1/messages", nil)
	require.Equal(t, http.StatusOK, w.Code)
	msgs := decode[struct {
		Messages []domain.Message `json:"messages"`
	}](t, w)
	assert.Len(t, msgs.Messages, 3)

	w = do(t, h, http.MethodGet, "/sessions", nil)
	assert.JSONEq(t, `{"sessions":["s1"]}`, w.Body.String())

	w = do(t, h, http.MethodDelete, "/sessions/s1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, http.MethodGet, "/sessions/s1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_OtherFollowUp(t *testing.T) {
	_, h := newTestServer(t)
	startSession(t, h, "s2")

	w := do(t, h, http.MethodPost, "/sessions/s2/choices", map[string]any{
		"question_id": catalog.QWhen,
		"choice_id":   "other",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[ResultView](t, w)
	assert.Equal(t, domain.StatusAwaitingOtherText, res.State.Status)
	require.Len(t, res.Posted, 1)
	assert.Equal(t, domain.KindFreeTextPrompt, res.Posted[0].Kind)

	w = do(t, h, http.MethodPost, "/sessions/s2/text", map[string]any{"question_id": catalog.QWhen, "text": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/sessions/s2/text", map[string]any{"question_id": catalog.QWhen, "text": "after \x1b[1mlunch"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, h, http.MethodGet, "/sessions/s2/answers", nil)
	answers := decode[map[string]any](t, w)
	assert.Equal(t, "other", answers["q1_when"])
	assert.Equal(t, "after [1mlunch", answers["q1_when_other"])
}

func TestServer_ErrorMapping(t *testing.T) {
	_, h := newTestServer(t)
	startSession(t, h, "s3")

	w := selectChoice(t, h, "missing", catalog.QWhen, "today")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = selectChoice(t, h, "s3", catalog.QWhen)
	assert.Equal(t, http.StatusBadRequest, w.Code, "empty selection")

	w = selectChoice(t, h, "s3", catalog.QQuality, "sharp")
	assert.Equal(t, http.StatusConflict, w.Code, "out of turn")

	w = do(t, h, http.MethodPost, "/sessions/s3/choices", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = selectChoice(t, h, "s3", catalog.QWhen, "bogus")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "unknown choice halts")

	w = selectChoice(t, h, "s3", catalog.QWhen, "today")
	assert.Equal(t, http.StatusConflict, w.Code, "halted session")
}

func TestServer_BodyLimit(t *testing.T) {
	runner.SetMaxInputSize(16)
	t.Cleanup(func() { runner.SetMaxInputSize(0) })

	_, h := newTestServer(t)
	startSession(t, h, "s4")
	w := selectChoice(t, h, "s4", catalog.QWhen, domain.OtherChoiceID)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, h, http.MethodPost, "/sessions/s4/text", map[string]any{
		"question_id": catalog.QWhen,
		"text":        strings.Repeat("a", 2000),
	})
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code, w.Body.String())

	w = do(t, h, http.MethodPost, "/sessions/s4/text", map[string]any{
		"question_id": catalog.QWhen,
		"text":        strings.Repeat("a", 20),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "over the input limit but under the body cap")

	w = do(t, h, http.MethodPost, "/sessions/s4/text", map[string]any{
		"question_id": catalog.QWhen,
		"text":        "woke me up",
	})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestServer_CompletesFlow(t *testing.T) {
	_, h := newTestServer(t)
	startSession(t, h, "s4")

	last := completeFlow(t, h, "s4")
	assert.True(t, last.Completed)
	assert.Equal(t, domain.StatusCompleted, last.State.Status)
	require.NotEmpty(t, last.Posted)
	assert.Equal(t, domain.KindCompletion, last.Posted[len(last.Posted)-1].Kind)

	// late event after completion
	w := selectChoice(t, h, "s4", catalog.QSeverity, "4_5")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[ResultView](t, w).Ignored)
}

func TestServer_SubscribeSession(t *testing.T) {
	s, h := newTestServer(t)
	srv := httptest.NewServer(h)
	defer srv.Close()
	startSession(t, h, "s5")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/sessions/s5/events", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: ping\n", line)

	require.Eventually(t, func() bool { return s.Streams.Subscribers("s5") == 1 }, time.Second, 10*time.Millisecond)

	w := selectChoice(t, h, "s5", catalog.QWhen, "today")
	require.Equal(t, http.StatusOK, w.Code)

	var data string
	for data == "" {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: {") {
			data = strings.TrimPrefix(strings.TrimSpace(line), "data: ")
		}
	}
	var diff domain.StateDiff
	require.NoError(t, json.Unmarshal([]byte(data), &diff))
	require.NotNil(t, diff.QuestionID)
	assert.Equal(t, catalog.QWhere, *diff.QuestionID)
	assert.Contains(t, diff.Answers, catalog.QWhen)
}

func TestServer_SubscribeUnknownSession(t *testing.T) {
	_, h := newTestServer(t)
	w := do(t, h, http.MethodGet, "/sessions/nope/events", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_ReloadNotSupported(t *testing.T) {
	_, h := newTestServer(t)
	w := do(t, h, http.MethodGet, "/events", nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestMatchesWatch(t *testing.T) {
	data := `{"session_id":"s","answers":{"q1_when":{}}}`
	assert.True(t, matchesWatch(data, nil))
	assert.True(t, matchesWatch(data, []string{"answers"}))
	assert.False(t, matchesWatch(data, []string{"status", "history"}))
}

func TestServer_Intake(t *testing.T) {
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	issuer, err := intake.NewIssuer("secret", intake.WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	_, h := newTestServer(t, WithIntake(issuer, nil))

	w := do(t, h, http.MethodPost, "/intake", map[string]string{"patient_hint": "R.M."})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	link := decode[IntakeView](t, w)
	assert.NotEmpty(t, link.SessionID)
	assert.Equal(t, "/intake/"+link.Token, link.URL)
	assert.True(t, now.Add(intake.DefaultTTL).Equal(link.ExpiresAt))

	w = do(t, h, http.MethodGet, link.URL, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, link.SessionID, decode[ResultView](t, w).SessionID)

	w = do(t, h, http.MethodGet, "/intake/garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	completeFlow(t, h, link.SessionID)
	w = do(t, h, http.MethodGet, link.URL, nil)
	assert.Equal(t, http.StatusGone, w.Code, "used link")

	now = now.Add(9 * time.Hour)
	w = do(t, h, http.MethodGet, link.URL, nil)
	assert.Equal(t, http.StatusGone, w.Code, "expired link")
}

func TestServer_IntakeDisabled(t *testing.T) {
	_, h := newTestServer(t)
	w := do(t, h, http.MethodPost, "/intake", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_MetricsMount(t *testing.T) {
	_, h := newTestServer(t, WithMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})))
	w := do(t, h, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "# metrics", w.Body.String())
}
