package triage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/triage/internal/logging"
	"github.com/aretw0/triage/internal/runtime"
	"github.com/aretw0/triage/internal/validator"
	"github.com/aretw0/triage/pkg/catalog"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/flow"
	"github.com/aretw0/triage/pkg/ports"
)

// Engine is the high-level entry point of the library.
// It wraps the internal runtime and is safe for concurrent use: it holds no
// per-session state.
type Engine struct {
	runtime *runtime.Engine
	loader  ports.CatalogLoader
	catalog *catalog.Catalog
	seq     *flow.Sequencer
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	now     func() time.Time
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithCatalog sets the question catalog. Defaults to catalog.Default().
func WithCatalog(c *catalog.Catalog) Option {
	return func(e *Engine) {
		e.catalog = c
	}
}

// WithLoader loads the catalog from a CatalogLoader (YAML, Loam...).
// Ignored when WithCatalog is also given.
func WithLoader(l ports.CatalogLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithSequencer overrides the question order. Defaults to the catalog's declared order.
func WithSequencer(s *flow.Sequencer) Option {
	return func(e *Engine) {
		e.seq = s
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New initializes a triage Engine.
// The catalog and sequencer are checked against each other; a mismatch is a
// configuration error and no engine is returned.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	if eng.catalog == nil {
		if eng.loader != nil {
			c, err := eng.loader.Load(context.Background())
			if err != nil {
				return nil, fmt.Errorf("failed to load catalog: %w", err)
			}
			eng.catalog = c
		} else {
			eng.catalog = catalog.Default()
		}
	}
	if eng.seq == nil {
		eng.seq = eng.catalog.Sequencer()
	}

	if err := validator.ValidateFlow(eng.catalog, eng.seq); err != nil {
		return nil, err
	}

	eng.runtime = runtime.NewEngine(eng.catalog, eng.seq,
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
		runtime.WithClock(eng.now),
	)
	return eng, nil
}

// Start creates the initial state for a session and the eager first prompt.
func (e *Engine) Start(ctx context.Context, sessionID string) (*domain.State, []domain.ActionRequest, error) {
	return e.runtime.Start(ctx, sessionID)
}

// Apply consumes one inbound event. See runtime.Engine.Apply for the result contract.
func (e *Engine) Apply(ctx context.Context, state *domain.State, event domain.Event) (*domain.State, []domain.ActionRequest, error) {
	return e.runtime.Apply(ctx, state, event)
}

// Prompt returns the message the state is currently waiting on, or nil when terminal.
func (e *Engine) Prompt(state *domain.State) (*domain.Message, error) {
	return e.runtime.Prompt(state)
}

// Reconstruct derives a session state from its answers alone.
func (e *Engine) Reconstruct(sessionID string, answers *domain.AnswerStore) (*domain.State, error) {
	return e.runtime.Reconstruct(sessionID, answers)
}

// Catalog returns the question catalog in use.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Sequencer returns the question order in use.
func (e *Engine) Sequencer() *flow.Sequencer {
	return e.seq
}

// Loader returns the catalog loader, if one was configured.
func (e *Engine) Loader() ports.CatalogLoader {
	return e.loader
}

// Watch returns a channel that signals when the underlying catalog changes.
// Returns error if the loader does not support watching.
func (e *Engine) Watch(ctx context.Context) (<-chan struct{}, error) {
	if w, ok := e.loader.(ports.Watchable); ok {
		return w.Watch(ctx)
	}
	return nil, fmt.Errorf("current loader does not support watching")
}
