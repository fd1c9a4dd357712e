package session

import (
	"context"
	"fmt"

	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/ports"
)

// logChannel binds a MessageLog to one session as a ports.HostChannel.
// When buffered, posts are held until flush so nothing reaches the log
// before the state that produced it is saved.
type logChannel struct {
	log       ports.MessageLog
	sessionID string
	buffered  bool
	pending   []domain.Message
	posted    []domain.Message
}

func (c *logChannel) Post(ctx context.Context, msg domain.Message) error {
	if c.buffered {
		c.pending = append(c.pending, msg)
		return nil
	}
	if err := c.log.Append(ctx, c.sessionID, msg); err != nil {
		return err
	}
	c.posted = append(c.posted, msg)
	return nil
}

func (c *logChannel) ReadLast(ctx context.Context) (domain.Message, bool, error) {
	if n := len(c.pending); n > 0 {
		return c.pending[n-1], true, nil
	}
	return c.log.Last(ctx, c.sessionID)
}

// flush appends the held messages in order.
func (c *logChannel) flush(ctx context.Context) error {
	for len(c.pending) > 0 {
		msg := c.pending[0]
		if err := c.log.Append(ctx, c.sessionID, msg); err != nil {
			return fmt.Errorf("failed to append message: %w", err)
		}
		c.pending = c.pending[1:]
		c.posted = append(c.posted, msg)
	}
	return nil
}

// Channel exposes a session's message log as a HostChannel.
func Channel(log ports.MessageLog, sessionID string) ports.HostChannel {
	return &logChannel{log: log, sessionID: sessionID}
}
