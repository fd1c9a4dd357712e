package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/triage/pkg/domain"
)

// MessageLog implements ports.MessageLog in memory.
// Safe for concurrent use.
type MessageLog struct {
	mu   sync.RWMutex
	logs map[string][]domain.Message
}

// NewMessageLog creates an empty log.
func NewMessageLog() *MessageLog {
	return &MessageLog{logs: make(map[string][]domain.Message)}
}

func (l *MessageLog) Append(ctx context.Context, sessionID string, msg domain.Message) error {
	msg.Choices = slices.Clone(msg.Choices)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.logs[sessionID] = append(l.logs[sessionID], msg)
	return nil
}

func (l *MessageLog) Last(ctx context.Context, sessionID string) (domain.Message, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	msgs := l.logs[sessionID]
	if len(msgs) == 0 {
		return domain.Message{}, false, nil
	}
	return msgs[len(msgs)-1], true, nil
}

func (l *MessageLog) List(ctx context.Context, sessionID string) ([]domain.Message, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.logs[sessionID]), nil
}

func (l *MessageLog) Delete(ctx context.Context, sessionID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.logs, sessionID)
	return nil
}
