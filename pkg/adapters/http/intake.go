package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/intake"
	"github.com/aretw0/triage/pkg/runner"
	"github.com/go-chi/chi/v5"
)

type intakeRequest struct {
	SessionID   string `json:"session_id"`
	PatientHint string `json:"patient_hint"`
}

// IntakeView is returned when a link is issued.
type IntakeView struct {
	SessionID string    `json:"session_id"`
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateIntake handles POST /intake: it opens a session and signs a link to it.
func (s *Server) CreateIntake(w http.ResponseWriter, r *http.Request) {
	var body intakeRequest
	if r.ContentLength != 0 {
		if err := s.decodeBody(w, r, &body); err != nil {
			s.badBody(w, err)
			return
		}
	}
	hint, err := runner.SanitizeInput(strings.TrimSpace(body.PatientHint))
	if err != nil {
		s.badRequest(w, "Invalid patient hint", err)
		return
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

	link, err := s.issuer.Issue(res.SessionID, hint)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if s.links != nil {
		if err := s.links.SaveLink(r.Context(), link); err != nil {
			s.writeError(w, err)
			return
		}
	}
	s.logger.Info("intake link issued", "session_id", link.SessionID, "expires_at", link.ExpiresAt)

	writeJSON(w, http.StatusCreated, IntakeView{
		SessionID: link.SessionID,
		Token:     link.Token,
		URL:       "/intake/" + link.Token,
		ExpiresAt: link.ExpiresAt,
	})
}

// OpenIntake handles GET /intake/{token}: it resumes the linked session.
// A link whose session already completed answers 410 Gone.
func (s *Server) OpenIntake(w http.ResponseWriter, r *http.Request) {
	claims, err := s.issuer.Verify(chi.URLParam(r, "token"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	state, err := s.Manager.Load(r.Context(), claims.SessionID)
	switch {
	case err == nil && state.Status == domain.StatusCompleted:
		s.writeError(w, intake.ErrUsed)
		return
	case err != nil && !errors.Is(err, domain.ErrSessionNotFound):
		s.writeError(w, err)
		return
	}

	res, err := s.Manager.Start(r.Context(), claims.SessionID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.publish(res)
	writeJSON(w, http.StatusOK, view(res))
}
