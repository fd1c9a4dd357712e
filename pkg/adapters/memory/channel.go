package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/triage/pkg/domain"
)

// Channel is a single-session, in-memory ports.HostChannel.
// It is what an embedded chat widget would hold.
type Channel struct {
	mu   sync.Mutex
	msgs []domain.Message

	// OnPost, when set, is called after every post (e.g. to render it).
	OnPost func(domain.Message)
}

// NewChannel creates an empty channel.
func NewChannel() *Channel {
	return &Channel{}
}

func (c *Channel) Post(ctx context.Context, msg domain.Message) error {
	c.mu.Lock()
	c.msgs = append(c.msgs, msg)
	hook := c.OnPost
	c.mu.Unlock()

	if hook != nil {
		hook(msg)
	}
	return nil
}

func (c *Channel) ReadLast(ctx context.Context) (domain.Message, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.msgs) == 0 {
		return domain.Message{}, false, nil
	}
	return c.msgs[len(c.msgs)-1], true, nil
}

// Messages returns every posted message.
func (c *Channel) Messages() []domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.msgs)
}
