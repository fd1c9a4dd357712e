// Package sqlite records intake links and completed answer snapshots in a
// SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/triage/internal/logging"
	"github.com/aretw0/triage/pkg/intake"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions is used when creating the database directory.
const DefaultDirPermissions = 0755

//go:embed migrations.sql
var migrations string

// ErrPayloadNotFound is returned when no submission exists for a session.
var ErrPayloadNotFound = errors.New("submission not found")

// Store implements ports.Submitter and intake.LinkStore.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open opens (creating if needed) the database at dsn and applies migrations.
// ":memory:" is accepted for tests.
func Open(dsn string, opts ...Option) (*Store, error) {
	s := &Store{logger: logging.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if dsn == "" {
		return nil, fmt.Errorf("database DSN not set")
	}

	if dsn != ":memory:" {
		dir := filepath.Dir(dsn)
		if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	// a :memory: database lives per connection
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(migrations); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	s.db = db
	s.logger.Debug("sqlite store ready", "dsn", dsn)
	return s, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveLink records an issued intake link, replacing the previous token for the session.
func (s *Store) SaveLink(ctx context.Context, link intake.Link) error {
	status := link.Status
	if status == "" {
		status = intake.StatusPending
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO intake_session (id, token, status, patient_hint, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			token = excluded.token,
			patient_hint = excluded.patient_hint,
			expires_at = excluded.expires_at`,
		link.SessionID, link.Token, status, link.PatientHint, formatTime(link.ExpiresAt))
	if err != nil {
		return fmt.Errorf("failed to save intake link for %s: %w", link.SessionID, err)
	}
	return nil
}

// Link returns the recorded link for sessionID.
func (s *Store) Link(ctx context.Context, sessionID string) (intake.Link, error) {
	var (
		link      intake.Link
		expires   string
		submitted sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, token, status, patient_hint, expires_at, submitted_at
		FROM intake_session WHERE id = ?`, sessionID).
		Scan(&link.SessionID, &link.Token, &link.Status, &link.PatientHint, &expires, &submitted)
	if errors.Is(err, sql.ErrNoRows) {
		return intake.Link{}, intake.ErrLinkNotFound
	}
	if err != nil {
		return intake.Link{}, fmt.Errorf("failed to load intake link %s: %w", sessionID, err)
	}
	link.ExpiresAt = parseTime(expires)
	if submitted.Valid {
		t := parseTime(submitted.String)
		link.SubmittedAt = &t
	}
	return link, nil
}

// Submit implements ports.Submitter. Sessions without an issued link get a
// bare intake_session row so every payload has a parent.
func (s *Store) Submit(ctx context.Context, sessionID string, answers map[string]any) error {
	payload, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("failed to marshal answers: %w", err)
	}
	now := formatTime(s.now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO intake_session (id, status, submitted_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET status = excluded.status, submitted_at = excluded.submitted_at`,
		sessionID, intake.StatusSubmitted, now); err != nil {
		return fmt.Errorf("failed to mark session %s submitted: %w", sessionID, err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO intake_payload (session_id, answers_json, received_at) VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET answers_json = excluded.answers_json, received_at = excluded.received_at`,
		sessionID, string(payload), now); err != nil {
		return fmt.Errorf("failed to store payload for %s: %w", sessionID, err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.logger.Debug("submission stored", "session_id", sessionID, "fields", len(answers))
	return nil
}

// Payload returns the submitted answers for sessionID.
func (s *Store) Payload(ctx context.Context, sessionID string) (map[string]any, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT answers_json FROM intake_payload WHERE session_id = ?`, sessionID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPayloadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load payload %s: %w", sessionID, err)
	}
	out := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("corrupt payload for %s: %w", sessionID, err)
	}
	return out, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
