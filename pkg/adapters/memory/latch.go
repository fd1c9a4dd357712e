package memory

import (
	"context"
	"sync"
)

// CompletionLatch is a fire-once ports.CompletionSignal.
// Done is closed on the first Fire; later calls only increase Calls.
type CompletionLatch struct {
	once  sync.Once
	done  chan struct{}
	mu    sync.Mutex
	calls int
	id    string
}

// NewCompletionLatch creates an unfired latch.
func NewCompletionLatch() *CompletionLatch {
	return &CompletionLatch{done: make(chan struct{})}
}

func (l *CompletionLatch) Fire(ctx context.Context, sessionID string) error {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()

	l.once.Do(func() {
		l.mu.Lock()
		l.id = sessionID
		l.mu.Unlock()
		close(l.done)
	})
	return nil
}

// Done is closed once the signal fired.
func (l *CompletionLatch) Done() <-chan struct{} {
	return l.done
}

// Fired reports whether the signal fired.
func (l *CompletionLatch) Fired() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}

// Calls returns how many times Fire was invoked.
func (l *CompletionLatch) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

// SessionID returns the session that fired the latch first.
func (l *CompletionLatch) SessionID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.id
}
