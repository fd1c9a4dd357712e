package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// DefaultStream receives completed triage submissions.
const DefaultStream = "triage:submissions"

// Submitter implements ports.Submitter by appending to a Redis stream, where
// downstream consumers (e.g. the clinic dashboard) pick submissions up.
type Submitter struct {
	client *backend.Client
	stream string
	maxLen int64
}

// NewSubmitter creates a stream submitter. maxLen caps the stream length
// (approximately); zero means unbounded.
func NewSubmitter(client *backend.Client, stream string, maxLen int64) *Submitter {
	if stream == "" {
		stream = DefaultStream
	}
	return &Submitter{client: client, stream: stream, maxLen: maxLen}
}

// Submit appends one entry with the session id and the JSON answers.
func (s *Submitter) Submit(ctx context.Context, sessionID string, answers map[string]any) error {
	data, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("failed to marshal answers: %w", err)
	}

	args := &backend.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			"session_id":   sessionID,
			"answers":      string(data),
			"submitted_at": time.Now().UTC().Format(time.RFC3339),
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}

	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to submit answers: %w", err)
	}
	return nil
}
