package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/triage"
	"github.com/aretw0/triage/internal/logging"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/ports"
	"github.com/google/uuid"
)

// DefaultLockTTL bounds how long a distributed session lock is held.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Result describes the outcome of one Manager operation.
type Result struct {
	SessionID string

	// Previous is the state before the operation (nil for a new session).
	Previous *domain.State

	// State is the state after the operation.
	State *domain.State

	// Posted lists the messages appended to the log by this operation.
	Posted []domain.Message

	// Ignored is true for duplicate events (already answered questions).
	Ignored bool

	// Completed is true when this operation fired the completion signal.
	Completed bool
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	engine ports.StatelessEngine
	store  ports.StateStore
	log    ports.MessageLog

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker    ports.DistributedLocker
	lockTTL   time.Duration
	signals   []ports.CompletionSignal
	submitter ports.Submitter
	logger    *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithCompletion adds a completion signal raised when any session completes.
func WithCompletion(signal ports.CompletionSignal) Option {
	return func(m *Manager) {
		m.signals = append(m.signals, signal)
	}
}

// WithSubmitter hands every completed session's answers to s.
func WithSubmitter(s ports.Submitter) Option {
	return func(m *Manager) {
		m.submitter = s
	}
}

// NewManager creates a Session Manager over an engine, a state store and a message log.
func NewManager(engine ports.StatelessEngine, store ports.StateStore, log ports.MessageLog, opts ...Option) *Manager {
	m := &Manager{
		engine:  engine,
		store:   store,
		log:     log,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Start loads a session or begins a new one. An empty sessionID gets a fresh UUID.
//
// A resumed session re-posts its pending prompt if the log does not end with it.
func (m *Manager) Start(ctx context.Context, sessionID string) (*Result, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	var res *Result
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		prev, err := m.store.Load(ctx, sessionID)
		if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("failed to check session existence: %w", err)
		}

		opts := []triage.SessionOption{}
		if prev != nil {
			opts = append(opts, triage.WithState(prev))
		}
		sess, ch, fired := m.bind(sessionID, opts...)

		if err := sess.Begin(ctx); err != nil {
			return err
		}
		next := sess.State()
		if err := m.commit(ctx, sessionID, ch, *fired, next); err != nil {
			return err
		}
		res = &Result{SessionID: sessionID, Previous: prev, State: next, Posted: ch.posted, Completed: *fired}
		return nil
	})
	return res, err
}

// Select applies a choice event to a stored session.
func (m *Manager) Select(ctx context.Context, sessionID string, questionID domain.QuestionID, choiceIDs ...string) (*Result, error) {
	return m.Apply(ctx, sessionID, domain.ChoiceSelected{QuestionID: questionID, ChoiceIDs: choiceIDs})
}

// SubmitText applies a free-text event to a stored session.
func (m *Manager) SubmitText(ctx context.Context, sessionID string, questionID domain.QuestionID, text string) (*Result, error) {
	return m.Apply(ctx, sessionID, domain.FreeTextSubmitted{QuestionID: questionID, Text: text})
}

// Apply loads the session, applies event and persists the outcome.
//
// Duplicate events yield an Ignored result and no error. Configuration errors
// persist the halted state and are returned.
func (m *Manager) Apply(ctx context.Context, sessionID string, event domain.Event) (*Result, error) {
	var res *Result
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		prev, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}

		sess, ch, fired := m.bind(sessionID, triage.WithState(prev))
		handleErr := sess.Handle(ctx, event)
		next := sess.State()

		switch {
		case errors.Is(handleErr, domain.ErrAlreadyAnswered):
			res = &Result{SessionID: sessionID, Previous: prev, State: next, Ignored: true}
			return nil
		case handleErr != nil && !domain.IsConfiguration(handleErr):
			res = &Result{SessionID: sessionID, Previous: prev, State: next}
			return handleErr
		}

		// Only a saved state reaches the log, the signals and the caller.
		commitErr := m.commit(ctx, sessionID, ch, *fired, next)
		if errors.Is(commitErr, errNotSaved) {
			return commitErr
		}
		res = &Result{SessionID: sessionID, Previous: prev, State: next, Posted: ch.posted, Completed: *fired}
		if handleErr != nil {
			return handleErr
		}
		return commitErr
	})
	return res, err
}

// bind builds a triage.Session over a buffered log channel. fired reports
// whether the session raised its completion signal; the manager's signals
// are only fired by commit.
func (m *Manager) bind(sessionID string, opts ...triage.SessionOption) (*triage.Session, *logChannel, *bool) {
	ch := &logChannel{log: m.log, sessionID: sessionID}
	fired := new(bool)

	ch.buffered = true
	signal := ports.CompletionFunc(func(ctx context.Context, id string) error {
		*fired = true
		return nil
	})

	opts = append(opts, triage.WithCompletion(signal), triage.WithSessionLogger(m.logger))
	return triage.NewSession(m.engine, sessionID, ch, opts...), ch, fired
}

var errNotSaved = errors.New("failed to save session")

// commit saves next, then appends the held messages and, when the flow
// completed, fires the completion signals and submits the answers. A save
// failure leaves the log and the signals untouched.
func (m *Manager) commit(ctx context.Context, sessionID string, ch *logChannel, fired bool, next *domain.State) error {
	if err := m.store.Save(ctx, sessionID, next); err != nil {
		return fmt.Errorf("%w: %w", errNotSaved, err)
	}
	flushErr := ch.flush(ctx)
	if fired {
		for _, s := range m.signals {
			if err := s.Fire(ctx, sessionID); err != nil {
				m.logger.Warn("completion signal failed", "session_id", sessionID, "err", err)
			}
		}
		m.submit(ctx, sessionID, next)
	}
	return flushErr
}

// submit hands the answers downstream. Failures never undo completion.
func (m *Manager) submit(ctx context.Context, sessionID string, state *domain.State) {
	if m.submitter == nil {
		return
	}
	if err := m.submitter.Submit(ctx, sessionID, state.Answers.Flatten()); err != nil {
		m.logger.Error("answer submission failed", "session_id", sessionID, "err", err)
		return
	}
	m.logger.Info("answers submitted", "session_id", sessionID, "answered", state.Answers.Len())
}

// Load retrieves an existing session from the store.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	var state *domain.State
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		state, err = m.store.Load(ctx, sessionID)
		return err
	})
	return state, err
}

// Messages returns the session's message log.
func (m *Manager) Messages(ctx context.Context, sessionID string) ([]domain.Message, error) {
	if _, err := m.store.Load(ctx, sessionID); err != nil {
		return nil, err
	}
	return m.log.List(ctx, sessionID)
}

// Answers returns the flat answer snapshot of a session.
func (m *Manager) Answers(ctx context.Context, sessionID string) (map[string]any, error) {
	state, err := m.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return state.Answers.Flatten(), nil
}

// Delete removes the session state and its message log.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		if err := m.store.Delete(ctx, sessionID); err != nil {
			return err
		}
		return m.log.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying state store.
func (m *Manager) Store() ports.StateStore {
	return m.store
}

// Engine returns the engine sessions are driven by.
func (m *Manager) Engine() ports.StatelessEngine {
	return m.engine
}
