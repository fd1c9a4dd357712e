// Package http exposes triage sessions over a JSON HTTP API with a
// server-sent event stream of state diffs.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/triage"
	"github.com/aretw0/triage/internal/logging"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/intake"
	"github.com/aretw0/triage/pkg/ports"
	"github.com/aretw0/triage/pkg/runner"
	"github.com/aretw0/triage/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	Manager *session.Manager
	Streams *StreamManager

	issuer  *intake.Issuer
	links   intake.LinkStore
	metrics http.Handler
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithIntake enables the intake link endpoints. links may be nil.
func WithIntake(issuer *intake.Issuer, links intake.LinkStore) Option {
	return func(s *Server) {
		s.issuer = issuer
		s.links = links
	}
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer builds a Server around a session manager.
func NewServer(m *session.Manager, opts ...Option) *Server {
	s := &Server{
		Manager: m,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)
	return s
}

// NewHandler creates a new HTTP handler for the session manager.
func NewHandler(m *session.Manager, opts ...Option) http.Handler {
	return NewServer(m, opts...).Routes()
}

// Routes returns the chi router with every endpoint mounted.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/catalog", s.GetCatalog)
	r.Get("/events", s.SubscribeReload)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.CreateSession)
		r.Get("/", s.ListSessions)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Get("/messages", s.GetMessages)
			r.Get("/answers", s.GetAnswers)
			r.Post("/choices", s.SelectChoice)
			r.Post("/text", s.SubmitText)
			r.Get("/events", s.SubscribeSession)
		})
	})

	if s.issuer != nil {
		r.Post("/intake", s.CreateIntake)
		r.Get("/intake/{token}", s.OpenIntake)
	}
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ResultView is the response body of every session mutation.
type ResultView struct {
	SessionID string           `json:"session_id"`
	State     *domain.State    `json:"state"`
	Posted    []domain.Message `json:"posted"`
	Ignored   bool             `json:"ignored"`
	Completed bool             `json:"completed"`
}

type createSessionRequest struct {
	SessionID string `json:"session_id"`
}

type choiceRequest struct {
	QuestionID domain.QuestionID `json:"question_id"`
	ChoiceID   string            `json:"choice_id,omitempty"`
	ChoiceIDs  []string          `json:"choice_ids,omitempty"`
}

type textRequest struct {
	QuestionID domain.QuestionID `json:"question_id"`
	Text       string            `json:"text"`
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"app":       "triage-http",
		"version":   strings.TrimSpace(triage.Version),
		"questions": s.Manager.Engine().Catalog().Len(),
		"intake":    s.issuer != nil,
	})
}

// GetCatalog handles GET /catalog.
func (s *Server) GetCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"questions": s.Manager.Engine().Catalog().Questions(),
	})
}

// CreateSession handles POST /sessions. The body is optional.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body createSessionRequest
	if r.ContentLength != 0 {
		if err := s.decodeBody(w, r, &body); err != nil {
			s.badBody(w, err)
			return
		}
	}
	id, err := runner.SanitizeInput(strings.TrimSpace(body.SessionID))
	if err != nil {
		s.badRequest(w, "Invalid session id", err)
		return
	}

	res, err := s.Manager.Start(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.publish(res)
	status := http.StatusOK
	if res.Previous == nil {
		status = http.StatusCreated
	}
	writeJSON(w, status, view(res))
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Manager.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": ids})
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	state, err := s.Manager.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Manager.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetMessages handles GET /sessions/{id}/messages.
func (s *Server) GetMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.Manager.Messages(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

// GetAnswers handles GET /sessions/{id}/answers.
func (s *Server) GetAnswers(w http.ResponseWriter, r *http.Request) {
	answers, err := s.Manager.Answers(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answers)
}

// SelectChoice handles POST /sessions/{id}/choices.
func (s *Server) SelectChoice(w http.ResponseWriter, r *http.Request) {
	var body choiceRequest
	if err := s.decodeBody(w, r, &body); err != nil {
		s.badBody(w, err)
		return
	}
	ids := body.ChoiceIDs
	if body.ChoiceID != "" {
		ids = append([]string{body.ChoiceID}, ids...)
	}
	ids, err := runner.SanitizeChoiceIDs(ids)
	if err != nil {
		s.badRequest(w, "Invalid input", err)
		return
	}

	res, err := s.Manager.Select(r.Context(), chi.URLParam(r, "id"), body.QuestionID, ids...)
	s.respond(w, res, err)
}

// SubmitText handles POST /sessions/{id}/text.
func (s *Server) SubmitText(w http.ResponseWriter, r *http.Request) {
	var body textRequest
	if err := s.decodeBody(w, r, &body); err != nil {
		s.badBody(w, err)
		return
	}
	text, err := runner.SanitizeInput(body.Text)
	if err != nil {
		s.badRequest(w, "Invalid input", err)
		return
	}

	res, err := s.Manager.SubmitText(r.Context(), chi.URLParam(r, "id"), body.QuestionID, text)
	s.respond(w, res, err)
}

// respond publishes whatever state change happened, then writes the result or the error.
// A configuration error still changed the state (halted), so it is published too.
func (s *Server) respond(w http.ResponseWriter, res *session.Result, err error) {
	if res != nil {
		s.publish(res)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view(res))
}

func view(res *session.Result) ResultView {
	posted := res.Posted
	if posted == nil {
		posted = []domain.Message{}
	}
	return ResultView{
		SessionID: res.SessionID,
		State:     res.State,
		Posted:    posted,
		Ignored:   res.Ignored,
		Completed: res.Completed,
	}
}

// publish broadcasts the state diff and, when the flow finished, a completed event.
func (s *Server) publish(res *session.Result) {
	if res.Ignored {
		return
	}
	diff := domain.Diff(res.Previous, res.State)
	if diff != nil && !diff.IsEmpty() {
		if bytes, err := json.Marshal(diff); err == nil {
			s.Streams.Broadcast(res.SessionID, streamEvent{Data: string(bytes)})
		}
	}
	if res.Completed {
		s.Streams.Broadcast(res.SessionID, streamEvent{Name: "completed", Data: fmt.Sprintf(`{"session_id":%q}`, res.SessionID)})
	}
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, intake.ErrLinkNotFound):
		return http.StatusNotFound
	case domain.IsConfiguration(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUnexpectedEvent), errors.Is(err, domain.ErrHalted):
		return http.StatusConflict
	case domain.IsValidation(err), errors.Is(err, runner.ErrInputTooLarge), errors.Is(err, runner.ErrInvalidUTF8):
		return http.StatusBadRequest
	case errors.Is(err, intake.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, intake.ErrExpired), errors.Is(err, intake.ErrUsed):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	} else {
		s.logger.Debug("request rejected", "status", status, "err", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// bodyLimit bounds request bodies. A text at the input limit may grow six
// times when every rune is JSON-escaped; the rest is envelope.
func bodyLimit() int64 {
	return int64(runner.MaxInputSize())*6 + 1024
}

// decodeBody reads a JSON body capped at bodyLimit.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, bodyLimit())
	return json.NewDecoder(r.Body).Decode(v)
}

// badBody answers 413 for oversized bodies and 400 otherwise.
func (s *Server) badBody(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		s.logger.Warn("Request body too large", "limit", tooLarge.Limit)
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": err.Error()})
		return
	}
	s.badRequest(w, "Invalid request body", err)
}

func (s *Server) badRequest(w http.ResponseWriter, msg string, err error) {
	s.logger.Warn(msg, "err", err)
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("%s: %v", msg, err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// engineWatcher returns the engine as a Watchable when it supports hot reload.
func (s *Server) engineWatcher() (ports.Watchable, bool) {
	w, ok := s.Manager.Engine().(ports.Watchable)
	return w, ok
}
