package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/okian/clientiq/internal/domain/roi"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variable names.
const (
	EnvPrefix = "CLIENTIQ_"
	EnvFile   = "CLIENTIQ_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if CLIENTIQ_CONFIG is set
//  3. env (prefix CLIENTIQ_, "__" separates nested keys)
func Load(ctx context.Context) (*Config, error) {
	cfg := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv(EnvFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// CLIENTIQ_WORKER_COUNT -> worker_count, CLIENTIQ_HALO__API_URL -> halo.api_url
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration can start the service. All problems
// are reported together.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Addr == "" {
		add("addr must not be empty")
	}
	if c.QueueSize <= 0 {
		add("queue_size must be positive, got %d", c.QueueSize)
	}
	if c.WorkerCount <= 0 {
		add("worker_count must be positive, got %d", c.WorkerCount)
	}
	if c.DedupeSize <= 0 {
		add("dedupe_size must be positive, got %d", c.DedupeSize)
	}
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		add("log_level %q is not one of debug, info, warn, error", c.LogLevel)
	}
	if c.Metrics.RefreshSeconds <= 0 {
		add("metrics.refresh_seconds must be positive, got %d", c.Metrics.RefreshSeconds)
	}
	if c.DatabasePath == "" {
		add("database_path must not be empty")
	}
	if !slices.Contains(roi.Industries(), roi.Industry(strings.ToLower(c.DefaultIndustry))) {
		add("default_industry %q is not supported", c.DefaultIndustry)
	}

	switch c.DataSource {
	case SourceSynthetic:
	case SourceHalo:
		if c.Halo.APIURL == "" {
			add("halo.api_url is required for the halo data source")
		}
		if c.Halo.ClientID == "" || c.Halo.ClientSecret == "" {
			add("halo.client_id and halo.client_secret are required for the halo data source")
		}
		if c.Halo.RetryMax < 0 {
			add("halo.retry_max must not be negative")
		}
	default:
		add("data_source %q must be %s or %s", c.DataSource, SourceSynthetic, SourceHalo)
	}

	if _, err := c.ScoringThresholds(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.BudgetUnitCosts(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
