package loadgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/clientiq/pkg/logger"

	"github.com/dustin/go-humanize"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Run executes the complete load run: it posts generated history for every
// customer and verifies the segmentation the service converges to.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	if config.Workers <= 0 {
		config.Workers = 1
	}

	logger.Get().Info(ctx, "starting segmentation load run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("customers", config.Customers),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.String("settle", config.Settle.String()),
		logger.Bool("verbose", config.Verbose))

	client := NewClient(config)

	if err := checkServiceHealth(ctx, client); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	fixtures, err := generateFixtures(ctx, config, stats)
	if err != nil {
		return stats, fmt.Errorf("fixture generation failed: %w", err)
	}

	if err := submitFixtures(ctx, config, client, fixtures, stats); err != nil {
		return stats, fmt.Errorf("fixture submission failed: %w", err)
	}

	requestRecalculation(ctx, config, client, fixtures, stats)

	records := retrieveSegmentations(ctx, config, client, fixtures, stats)

	summary, err := getSummary(ctx, client)
	if err != nil {
		return stats, fmt.Errorf("summary retrieval failed: %w", err)
	}

	verifyErr := verifyResults(ctx, config, fixtures, records, summary, stats)

	if config.OutputFile != "" {
		if err := saveFixturesToFile(ctx, config.OutputFile, fixtures); err != nil {
			logger.Get().Warn(ctx, "failed to save fixtures to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if verifyErr != nil {
		return stats, fmt.Errorf("result verification failed: %w", verifyErr)
	}
	logger.Get().Info(ctx, "load run completed successfully")
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *Client) error {
	logger.Get().Info(ctx, "checking service health")

	var health struct {
		Status string `json:"status"`
	}
	status, err := client.Do(ctx, http.MethodGet, "/healthz", nil, &health)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if status != http.StatusOK || health.Status != "ok" {
		return fmt.Errorf("service reported status %q (HTTP %d)", health.Status, status)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveFixturesToFile writes the generated fixtures as a JSON array.
func saveFixturesToFile(ctx context.Context, filename string, fixtures []Fixture) error {
	if len(fixtures) == 0 {
		return errors.New("no fixtures to save")
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(fixtures, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal fixtures: %w", err)
	}
	if err := os.WriteFile(filename, append(data, '\n'), filePermission); err != nil {
		return fmt.Errorf("failed to write fixtures: %w", err)
	}

	logger.Get().Info(ctx, "fixtures saved to file",
		logger.String("filename", filename),
		logger.String("size", humanize.Bytes(uint64(len(data)+1))))
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, requestsPerSecond float64

	if stats.RequestsSubmitted > 0 {
		successRate = float64(stats.RequestsSuccessful) / float64(stats.RequestsSubmitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		requestsPerSecond = float64(stats.RequestsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("customersGenerated", stats.CustomersGenerated),
		logger.Int("requestsSubmitted", stats.RequestsSubmitted),
		logger.Int("requestsSuccessful", stats.RequestsSuccessful),
		logger.Int("requestsFailed", stats.RequestsFailed),
		logger.Int("recalculations", stats.Recalculations),
		logger.Int("recordsRetrieved", stats.RecordsRetrieved),
		logger.Int("recordsConverged", stats.RecordsConverged),
		logger.Int("mismatches", stats.Mismatches),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("requestsPerSecond", requestsPerSecond))
}
