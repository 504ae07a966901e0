package loadgen

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/okian/clientiq/internal/domain/segmentation"
	"github.com/okian/clientiq/pkg/logger"
)

// ErrMismatch is returned when the service disagrees with the locally
// computed segmentation.
var ErrMismatch = errors.New("segmentation mismatch")

// verifyResults checks every retrieved record and the summary against the
// tiers computed from the fixtures.
func verifyResults(ctx context.Context, config *Config, fixtures []Fixture, records []segmentation.Record, summary Summary, stats *Stats) error {
	log := logger.Get()
	log.Info(ctx, "verifying results")

	if len(records) == 0 {
		return errors.New("no segmentations to verify")
	}

	var problems []error
	expected := make(map[segmentation.Tier]int, len(segmentation.Tiers()))
	for i, f := range fixtures {
		expected[f.ExpectedTier()]++
		if err := verifyRecord(f, records[i]); err != nil {
			problems = append(problems, err)
		}
	}

	// The store may hold customers from earlier runs, so the summary only
	// has to cover what this run created.
	for tier, want := range expected {
		if got := summary.Tiers[tier].Count; got < want {
			problems = append(problems, fmt.Errorf("summary tier %s has %d customers, want at least %d", tier, got, want))
		}
	}

	stats.Mismatches = len(problems)
	displayTiers(ctx, expected, summary, config.Verbose)
	if len(problems) > 0 {
		for _, p := range problems[:minInt(len(problems), 10)] {
			log.Warn(ctx, "verification problem", logger.Error(p))
		}
		return fmt.Errorf("%w: %d problems: %w", ErrMismatch, len(problems), errors.Join(problems...))
	}

	log.Info(ctx, "result verification completed")
	return nil
}

// verifyRecord compares one record with its fixture.
func verifyRecord(f Fixture, rec segmentation.Record) error {
	if rec.CustomerID == "" {
		return fmt.Errorf("customer %s: no segmentation", f.CustomerID)
	}
	if rec.CustomerID != f.CustomerID {
		return fmt.Errorf("customer %s: record belongs to %s", f.CustomerID, rec.CustomerID)
	}
	if want := f.ExpectedMRR(); math.Abs(rec.TotalMRR-want) > mrrTolerance {
		return fmt.Errorf("customer %s: total mrr %.2f, want %.2f", f.CustomerID, rec.TotalMRR, want)
	}
	if want := f.ExpectedTier(); rec.Tier != want {
		return fmt.Errorf("customer %s: tier %s, want %s", f.CustomerID, rec.Tier, want)
	}
	return nil
}

// displayTiers logs the expected and reported tier distribution.
func displayTiers(ctx context.Context, expected map[segmentation.Tier]int, summary Summary, verbose bool) {
	log := logger.Get()
	for _, tier := range segmentation.Tiers() {
		log.Info(ctx, "tier distribution",
			logger.String("tier", string(tier)),
			logger.Int("generated", expected[tier]),
			logger.Int("reported", summary.Tiers[tier].Count),
			logger.Float64("reportedMRR", summary.Tiers[tier].TotalMRR))
	}
	if !verbose {
		return
	}

	tiers := make([]segmentation.Tier, 0, len(summary.Tiers))
	for t := range summary.Tiers {
		tiers = append(tiers, t)
	}
	sort.Slice(tiers, func(i, j int) bool { return summary.Tiers[tiers[i]].TotalMRR > summary.Tiers[tiers[j]].TotalMRR })
	for i, t := range tiers {
		log.Debug(ctx, "tier by revenue", logger.Int("position", i+1), logger.String("tier", string(t)))
	}
	log.Info(ctx, "portfolio", logger.Int("customers", summary.Count), logger.Float64("totalMRR", summary.TotalMRR))
}
