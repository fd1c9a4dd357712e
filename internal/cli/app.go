package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/triage"
	"github.com/aretw0/triage/internal/adapters/file"
	"github.com/aretw0/triage/internal/config"
	"github.com/aretw0/triage/internal/metrics"
	"github.com/aretw0/triage/pkg/adapters/loam"
	"github.com/aretw0/triage/pkg/adapters/memory"
	"github.com/aretw0/triage/pkg/adapters/redis"
	"github.com/aretw0/triage/pkg/adapters/sqlite"
	"github.com/aretw0/triage/pkg/catalog"
	"github.com/aretw0/triage/pkg/intake"
	"github.com/aretw0/triage/pkg/persistence/middleware"
	"github.com/aretw0/triage/pkg/ports"
	"github.com/aretw0/triage/pkg/runner"
	"github.com/aretw0/triage/pkg/session"
)

// App is the wired set of components every command works with.
type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Engine  *triage.Engine
	Manager *session.Manager
	Store   ports.StateStore
	Metrics *metrics.Metrics

	// Summaries is set when the backing store indexes session summaries.
	Summaries ports.Summarizer

	// Intake is nil unless an intake secret is configured.
	Intake *intake.Issuer
	// Links is nil unless the sqlite submitter is configured.
	Links intake.LinkStore

	closers []func() error
}

// Build wires the engine, stores and submitter described by cfg.
// The returned App must be closed.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (_ *App, err error) {
	app := &App{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			_ = app.Close()
		}
	}()

	runner.SetMaxInputSize(cfg.MaxInputSize)
	app.Metrics = metrics.New(metrics.WithLogger(logger), metrics.WithProcessCollectors())

	if app.Engine, err = createEngine(cfg, logger, app.Metrics); err != nil {
		return nil, err
	}

	var client *backend.Client
	if cfg.NeedsRedis() {
		client = backend.NewClient(&backend.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		app.closers = append(app.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
		}
	}

	store, log, locker := createStores(cfg, client)
	if sum, ok := store.(ports.Summarizer); ok {
		app.Summaries = sum
	}
	if store, err = wrapStore(cfg, store); err != nil {
		return nil, err
	}
	app.Store = store

	opts := []session.Option{session.WithLogger(logger)}
	if locker != nil {
		opts = append(opts, session.WithLocker(locker))
	}

	switch cfg.Submit.Backend {
	case config.SubmitSQLite:
		db, err := sqlite.Open(cfg.Submit.SQLitePath, sqlite.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("failed to open submission database: %w", err)
		}
		app.closers = append(app.closers, db.Close)
		app.Links = db
		opts = append(opts, session.WithSubmitter(db))
	case config.SubmitRedis:
		opts = append(opts, session.WithSubmitter(redis.NewSubmitter(client, cfg.Submit.Stream, 0)))
	}

	if cfg.Intake.Secret != "" {
		if app.Intake, err = intake.NewIssuer(cfg.Intake.Secret, intake.WithTTL(cfg.Intake.TTL)); err != nil {
			return nil, err
		}
	}

	app.Manager = session.NewManager(app.Engine, store, log, opts...)
	logger.Debug("triage wired",
		"store", cfg.Store.Backend,
		"submit", cfg.Submit.Backend,
		"catalog", cfg.Catalog,
		"intake", app.Intake != nil,
		"encrypted", cfg.Crypto.Key != "",
	)
	return app, nil
}

// Close releases connections in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// createEngine loads the catalog: a directory goes through loam (and can be
// watched), a file is parsed as YAML, nothing means the built-in catalog.
func createEngine(cfg config.Config, logger *slog.Logger, m *metrics.Metrics) (*triage.Engine, error) {
	opts := []triage.Option{
		triage.WithLogger(logger),
		triage.WithLifecycleHooks(m.Hooks()),
	}

	if cfg.Catalog != "" {
		info, err := os.Stat(cfg.Catalog)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: %w", cfg.Catalog, err)
		}
		if info.IsDir() {
			loader, err := loam.Open(cfg.Catalog)
			if err != nil {
				return nil, err
			}
			opts = append(opts, triage.WithLoader(loader))
		} else {
			c, err := catalog.LoadFile(cfg.Catalog)
			if err != nil {
				return nil, err
			}
			opts = append(opts, triage.WithCatalog(c))
		}
	}

	engine, err := triage.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, nil
}

func createStores(cfg config.Config, client *backend.Client) (ports.StateStore, ports.MessageLog, ports.DistributedLocker) {
	switch cfg.Store.Backend {
	case config.StoreFile:
		return file.New(cfg.Store.Dir), file.NewMessageLog(cfg.Store.Dir), nil
	case config.StoreRedis:
		prefix := cfg.Redis.Prefix
		store := redis.NewFromClient(client,
			redis.WithPrefix(prefix+"session:"),
			redis.WithTTL(cfg.Store.TTL),
		)
		return store,
			redis.NewMessageLog(client, prefix+"messages:", cfg.Store.TTL),
			redis.NewLocker(client, prefix+"lock:")
	default:
		return memory.NewStore(), memory.NewMessageLog(), nil
	}
}

// wrapStore applies PII masking (outermost) and encryption to the store.
func wrapStore(cfg config.Config, store ports.StateStore) (ports.StateStore, error) {
	var mws []middleware.Middleware
	if cfg.Crypto.MaskPII {
		mw, err := middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	if cfg.Crypto.Key != "" {
		enc := middleware.EncryptionConfig{}
		key, err := middleware.ParseKey(cfg.Crypto.Key)
		if err != nil {
			return nil, fmt.Errorf("crypto.key: %w", err)
		}
		enc.ActiveKey = key
		for i, k := range cfg.Crypto.FallbackKeys {
			key, err := middleware.ParseKey(k)
			if err != nil {
				return nil, fmt.Errorf("crypto.fallback_keys[%d]: %w", i, err)
			}
			enc.FallbackKeys = append(enc.FallbackKeys, key)
		}
		mw, err := middleware.NewEncryptionMiddleware(enc)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return middleware.Chain(store, mws...), nil
}
