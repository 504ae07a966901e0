package service

import (
	"fmt"
	"time"

	"github.com/okian/clientiq/internal/adapters/repository"
	"github.com/okian/clientiq/internal/adapters/source"
	"github.com/okian/clientiq/internal/config"
	"github.com/okian/clientiq/internal/domain/budget"
	"github.com/okian/clientiq/internal/domain/roi"
	"github.com/okian/clientiq/internal/domain/scoring"
)

// NewSource builds the data source selected by cfg.
func NewSource(cfg *config.Config) (source.DataSource, error) {
	switch cfg.DataSource {
	case config.SourceSynthetic:
		return source.NewSynthetic(source.WithSeed(cfg.SyntheticSeed)), nil
	case config.SourceHalo:
		h, err := source.NewHalo(source.HaloConfig{
			APIURL:       cfg.Halo.APIURL,
			TokenURL:     cfg.Halo.TokenURL,
			ClientID:     cfg.Halo.ClientID,
			ClientSecret: cfg.Halo.ClientSecret,
			Scope:        cfg.Halo.Scope,
			RetryMax:     cfg.Halo.RetryMax,
			Timeout:      time.Duration(cfg.Halo.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("halo source: %w", err)
		}
		return h, nil
	}
	return nil, fmt.Errorf("%w: unknown data_source %q", config.ErrInvalidConfig, cfg.DataSource)
}

// OptionsFromConfig returns the service options described by cfg. The
// engines are built once here and shared by every request.
func OptionsFromConfig(cfg *config.Config) ([]Option, error) {
	thresholds, err := cfg.ScoringThresholds()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	costs, err := cfg.BudgetUnitCosts()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	return []Option{
		WithScoringEngine(scoring.NewEngine(scoring.WithThresholds(thresholds))),
		WithBudgetEngine(budget.NewEngine(budget.WithUnitCosts(costs))),
		WithDefaultIndustry(roi.ParseIndustry(cfg.DefaultIndustry)),
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithDedupeSize(cfg.DedupeSize),
	}, nil
}

// NewFromConfig builds a Service from cfg. Extra options are applied after
// the configured ones. A nil store disables persistence.
func NewFromConfig(cfg *config.Config, store repository.Store, extra ...Option) (*Service, error) {
	src, err := NewSource(cfg)
	if err != nil {
		return nil, err
	}
	opts, err := OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return New(src, store, append(opts, extra...)...), nil
}
