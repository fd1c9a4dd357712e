package file

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/aretw0/triage/pkg/domain"
)

// MessageLog implements ports.MessageLog as one JSON Lines file per session,
// next to the session state files.
type MessageLog struct {
	BasePath string
	mu       sync.Mutex
}

// NewMessageLog creates a log rooted at basePath (DefaultDir when empty).
func NewMessageLog(basePath string) *MessageLog {
	if basePath == "" {
		basePath = DefaultDir
	}
	return &MessageLog{BasePath: basePath}
}

func (l *MessageLog) path(sessionID string) (string, error) {
	p, err := (&Store{BasePath: l.BasePath}).path(sessionID)
	if err != nil {
		return "", err
	}
	return p[:len(p)-len(".json")] + ".messages.jsonl", nil
}

func (l *MessageLog) Append(ctx context.Context, sessionID string, msg domain.Message) error {
	p, err := l.path(sessionID)
	if err != nil {
		return err
	}
	line, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("failed to ensure session directory: %w", err)
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open message log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return f.Sync()
}

func (l *MessageLog) List(ctx context.Context, sessionID string) ([]domain.Message, error) {
	p, err := l.path(sessionID)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.Message{}, nil
		}
		return nil, fmt.Errorf("failed to open message log: %w", err)
	}
	defer f.Close()

	msgs := []domain.Message{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var msg domain.Message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			return nil, fmt.Errorf("corrupt message log %s: %w", p, err)
		}
		msgs = append(msgs, msg)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read message log: %w", err)
	}
	return msgs, nil
}

func (l *MessageLog) Last(ctx context.Context, sessionID string) (domain.Message, bool, error) {
	msgs, err := l.List(ctx, sessionID)
	if err != nil || len(msgs) == 0 {
		return domain.Message{}, false, err
	}
	return msgs[len(msgs)-1], true, nil
}

func (l *MessageLog) Delete(ctx context.Context, sessionID string) error {
	p, err := l.path(sessionID)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete message log: %w", err)
	}
	return nil
}
