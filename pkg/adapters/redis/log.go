package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/triage/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// MessageLog implements ports.MessageLog with one Redis list per session.
type MessageLog struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// NewMessageLog creates a message log. A ttl of zero keeps logs forever.
func NewMessageLog(client *backend.Client, prefix string, ttl time.Duration) *MessageLog {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &MessageLog{client: client, prefix: prefix, ttl: ttl}
}

func (l *MessageLog) key(sessionID string) string {
	return l.prefix + "messages:" + sessionID
}

func (l *MessageLog) Append(ctx context.Context, sessionID string, msg domain.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	pipe := l.client.Pipeline()
	pipe.RPush(ctx, l.key(sessionID), data)
	if l.ttl > 0 {
		pipe.Expire(ctx, l.key(sessionID), l.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

func (l *MessageLog) Last(ctx context.Context, sessionID string) (domain.Message, bool, error) {
	raw, err := l.client.LRange(ctx, l.key(sessionID), -1, -1).Result()
	if err != nil {
		return domain.Message{}, false, fmt.Errorf("failed to read last message: %w", err)
	}
	if len(raw) == 0 {
		return domain.Message{}, false, nil
	}
	var msg domain.Message
	if err := json.Unmarshal([]byte(raw[0]), &msg); err != nil {
		return domain.Message{}, false, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	return msg, true, nil
}

func (l *MessageLog) List(ctx context.Context, sessionID string) ([]domain.Message, error) {
	raw, err := l.client.LRange(ctx, l.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	msgs := make([]domain.Message, 0, len(raw))
	for _, r := range raw {
		var msg domain.Message
		if err := json.Unmarshal([]byte(r), &msg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func (l *MessageLog) Delete(ctx context.Context, sessionID string) error {
	return l.client.Del(ctx, l.key(sessionID)).Err()
}
