// Package config loads the triage service settings from a YAML file, a .env
// file and TRIAGE_* environment variables, in that order of precedence
// (later wins). Command-line flags are applied on top by cmd/triage.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Submit backends.
const (
	SubmitNone   = "none"
	SubmitSQLite = "sqlite"
	SubmitRedis  = "redis"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "triage.yaml"

// Config holds every tunable of the triage binaries.
type Config struct {
	Listen       string `yaml:"listen"`
	Catalog      string `yaml:"catalog"` // YAML file or loam directory; empty uses the built-in catalog
	LogLevel     string `yaml:"log_level"`
	MaxInputSize int    `yaml:"max_input_size"`
	Metrics      bool   `yaml:"metrics"`

	Store  StoreConfig  `yaml:"store"`
	Redis  RedisConfig  `yaml:"redis"`
	Submit SubmitConfig `yaml:"submit"`
	Intake IntakeConfig `yaml:"intake"`
	Crypto CryptoConfig `yaml:"crypto"`
}

type StoreConfig struct {
	Backend string        `yaml:"backend"`
	Dir     string        `yaml:"dir"`
	TTL     time.Duration `yaml:"ttl"` // redis only; zero keeps sessions forever
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type SubmitConfig struct {
	Backend    string `yaml:"backend"`
	SQLitePath string `yaml:"sqlite_path"`
	Stream     string `yaml:"stream"`
}

type IntakeConfig struct {
	Secret string        `yaml:"secret"`
	TTL    time.Duration `yaml:"ttl"`
}

// CryptoConfig protects answers at rest.
type CryptoConfig struct {
	Key          string   `yaml:"key"`           // base64 AES-256 key; empty disables encryption
	FallbackKeys []string `yaml:"fallback_keys"` // previous keys, for rotation
	MaskPII      bool     `yaml:"mask_pii"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Listen:       ":8080",
		LogLevel:     "info",
		MaxInputSize: 4096,
		Store: StoreConfig{
			Backend: StoreMemory,
			Dir:     ".triage/sessions",
		},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "triage:",
		},
		Submit: SubmitConfig{
			Backend:    SubmitNone,
			SQLitePath: ".triage/intake.db",
			Stream:     "triage:submissions",
		},
		Intake: IntakeConfig{
			TTL: 8 * time.Hour,
		},
	}
}

// Load builds the configuration. path may be empty, in which case
// DefaultFile is read if present. A missing .env file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := cfg.readFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return cfg, err
		}
		slog.Debug("no config file, using defaults", "path", path)
	}

	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "err", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}

	str("TRIAGE_LISTEN", &c.Listen)
	str("TRIAGE_CATALOG", &c.Catalog)
	str("TRIAGE_LOG_LEVEL", &c.LogLevel)
	num("TRIAGE_MAX_INPUT_SIZE", &c.MaxInputSize)
	flag("TRIAGE_METRICS", &c.Metrics)

	str("TRIAGE_STORE", &c.Store.Backend)
	str("TRIAGE_STORE_DIR", &c.Store.Dir)
	dur("TRIAGE_SESSION_TTL", &c.Store.TTL)

	str("TRIAGE_REDIS_ADDR", &c.Redis.Addr)
	str("TRIAGE_REDIS_PASSWORD", &c.Redis.Password)
	num("TRIAGE_REDIS_DB", &c.Redis.DB)
	str("TRIAGE_REDIS_PREFIX", &c.Redis.Prefix)

	str("TRIAGE_SUBMIT", &c.Submit.Backend)
	str("TRIAGE_SQLITE_PATH", &c.Submit.SQLitePath)
	str("TRIAGE_SUBMIT_STREAM", &c.Submit.Stream)

	str("TRIAGE_INTAKE_SECRET", &c.Intake.Secret)
	dur("TRIAGE_INTAKE_TTL", &c.Intake.TTL)

	str("TRIAGE_STATE_KEY", &c.Crypto.Key)
	if v, ok := lookup("TRIAGE_STATE_FALLBACK_KEYS"); ok && v != "" {
		c.Crypto.FallbackKeys = splitList(v)
	}
	flag("TRIAGE_MASK_PII", &c.Crypto.MaskPII)

	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks enumerations and the settings each backend depends on.
func (c Config) Validate() error {
	var errs []error

	switch c.Store.Backend {
	case StoreMemory, StoreRedis:
	case StoreFile:
		if c.Store.Dir == "" {
			errs = append(errs, errors.New("store.dir is required for the file store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.Store.Backend))
	}

	switch c.Submit.Backend {
	case SubmitNone, SubmitRedis:
	case SubmitSQLite:
		if c.Submit.SQLitePath == "" {
			errs = append(errs, errors.New("submit.sqlite_path is required for the sqlite submitter"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown submit backend %q", c.Submit.Backend))
	}

	if c.MaxInputSize <= 0 {
		errs = append(errs, fmt.Errorf("max_input_size must be positive, got %d", c.MaxInputSize))
	}
	if c.Store.TTL < 0 || c.Intake.TTL < 0 {
		errs = append(errs, errors.New("ttl values must not be negative"))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if len(c.Crypto.FallbackKeys) > 0 && c.Crypto.Key == "" {
		errs = append(errs, errors.New("crypto.fallback_keys require crypto.key"))
	}
	return errors.Join(errs...)
}

// NeedsRedis reports whether any component uses the redis client.
func (c Config) NeedsRedis() bool {
	return c.Store.Backend == StoreRedis || c.Submit.Backend == SubmitRedis
}

// Level returns the parsed log level, falling back to info.
func (c Config) Level() slog.Level {
	l, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

// ParseLevel accepts debug, info, warn and error (case-insensitive).
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}
