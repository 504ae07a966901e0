// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load(ctx) layers a YAML file and environment variables over the defaults.
// - Validate reports every problem wrapped in ErrInvalidConfig.
package config

import (
	"context"
	"runtime"

	"github.com/okian/clientiq/internal/domain/budget"
	"github.com/okian/clientiq/internal/domain/scoring"
)

// Data source kinds.
const (
	SourceSynthetic = "synthetic"
	SourceHalo      = "halo"
)

// Halo configures the HaloPSA data source.
type Halo struct {
	APIURL         string `koanf:"api_url"`
	TokenURL       string `koanf:"token_url"`
	ClientID       string `koanf:"client_id"`
	ClientSecret   string `koanf:"client_secret"`
	Scope          string `koanf:"scope"`
	RetryMax       int    `koanf:"retry_max"`
	TimeoutSeconds int    `koanf:"timeout_seconds"`
}

// Metrics configures the Prometheus collectors.
type Metrics struct {
	Enabled        bool              `koanf:"enabled"`
	RefreshSeconds int               `koanf:"refresh_seconds"`
	Labels         map[string]string `koanf:"labels"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the segmentation recalculation queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of segmentation workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize caps the number of pending recalculations tracked for coalescing.
	DedupeSize int `koanf:"dedupe_size"`

	// DataSource selects where raw records come from: synthetic or halo.
	DataSource string `koanf:"data_source"`

	// SyntheticSeed seeds the synthetic generator. Zero derives the seed from the customer id.
	SyntheticSeed int64 `koanf:"synthetic_seed"`

	Halo Halo `koanf:"halo"`

	Metrics Metrics `koanf:"metrics"`

	// DatabasePath is the SQLite file. ":memory:" keeps everything in process.
	DatabasePath string `koanf:"database_path"`

	// DefaultIndustry is used when a review request names none.
	DefaultIndustry string `koanf:"default_industry"`

	// Thresholds are the gap bars keyed by patch_compliance, backup_success,
	// edr_coverage and sla_attainment.
	Thresholds map[string]float64 `koanf:"thresholds"`

	// UnitCosts are the monthly service rates keyed by mfa_per_user,
	// edr_per_endpoint, backup_per_server and siem_per_user.
	UnitCosts map[string]float64 `koanf:"unit_costs"`
}

// New creates a Config with defaults.
func New(_ context.Context) *Config {
	t := scoring.DefaultThresholds()
	u := budget.DefaultUnitCosts()
	return &Config{
		LogLevel:    "info",
		Addr:        ":9080",
		QueueSize:   1024,
		WorkerCount: runtime.NumCPU(),
		DedupeSize:  10_000,
		DataSource:  SourceSynthetic,
		Halo: Halo{
			RetryMax:       3,
			TimeoutSeconds: 30,
			Scope:          "all",
		},
		Metrics: Metrics{
			Enabled:        true,
			RefreshSeconds: 10,
		},
		DatabasePath:    "clientiq.db",
		DefaultIndustry: "government",
		Thresholds: map[string]float64{
			scoring.KeyPatchCompliance: t.PatchCompliance,
			scoring.KeyBackupSuccess:   t.BackupSuccess,
			scoring.KeyEDRCoverage:     t.EDRCoverage,
			scoring.KeySLAAttainment:   t.SLAAttainment,
		},
		UnitCosts: map[string]float64{
			budget.KeyMFAPerUser:      u.MFAPerUser,
			budget.KeyEDRPerEndpoint:  u.EDRPerEndpoint,
			budget.KeyBackupPerServer: u.BackupPerServer,
			budget.KeySIEMPerUser:     u.SIEMPerUser,
		},
	}
}

// ScoringThresholds parses the threshold map.
func (c *Config) ScoringThresholds() (scoring.Thresholds, error) {
	return scoring.ParseThresholds(c.Thresholds)
}

// BudgetUnitCosts parses the unit cost map.
func (c *Config) BudgetUnitCosts() (budget.UnitCosts, error) {
	return budget.ParseUnitCosts(c.UnitCosts)
}
