package loadgen

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/clientiq/internal/domain/segmentation"
	"github.com/okian/clientiq/pkg/logger"
)

// Summary mirrors the segmentation summary response.
type Summary struct {
	Tiers    map[segmentation.Tier]segmentation.TierTotals `json:"tiers"`
	Count    int                                           `json:"count"`
	TotalMRR float64                                       `json:"total_mrr"`
}

// requestRecalculation asks for one explicit recalculation per customer so
// that writes whose refresh was shed under backpressure still converge.
func requestRecalculation(ctx context.Context, config *Config, client *Client, fixtures []Fixture, stats *Stats) {
	var accepted int64
	runPool(ctx, config.Workers, len(fixtures), func(i int) {
		_, err := client.Do(ctx, http.MethodPost, "/customers/"+fixtures[i].CustomerID+"/segmentation/recalculate", nil, nil)
		if err != nil {
			if config.Verbose {
				logger.Get().Warn(ctx, "recalculation not accepted",
					logger.String("customerID", fixtures[i].CustomerID), logger.Error(err))
			}
			return
		}
		atomic.AddInt64(&accepted, 1)
	})
	stats.Recalculations = int(atomic.LoadInt64(&accepted))
}

// retrieveSegmentations polls each customer's record until its MRR matches
// the fixture or the settle window closes. The last record seen is kept
// either way; records[i] is zero when none was ever returned.
func retrieveSegmentations(ctx context.Context, config *Config, client *Client, fixtures []Fixture, stats *Stats) []segmentation.Record {
	logger.Get().Info(ctx, "retrieving segmentations",
		logger.Int("customers", len(fixtures)), logger.String("settle", config.Settle.String()))

	deadline := time.Now().Add(config.Settle)
	records := make([]segmentation.Record, len(fixtures))
	var retrieved, converged int64

	runPool(ctx, config.Workers, len(fixtures), func(i int) {
		rec, ok, err := pollSegmentation(ctx, client, fixtures[i], deadline)
		if err != nil && config.Verbose {
			logger.Get().Warn(ctx, "segmentation not retrieved",
				logger.String("customerID", fixtures[i].CustomerID), logger.Error(err))
		}
		if rec.CustomerID != "" {
			records[i] = rec
			atomic.AddInt64(&retrieved, 1)
		}
		if ok {
			atomic.AddInt64(&converged, 1)
		}
	})

	stats.RecordsRetrieved = int(atomic.LoadInt64(&retrieved))
	stats.RecordsConverged = int(atomic.LoadInt64(&converged))
	logger.Get().Info(ctx, "segmentation retrieval completed",
		logger.Int("retrieved", stats.RecordsRetrieved),
		logger.Int("converged", stats.RecordsConverged))
	return records
}

func pollSegmentation(ctx context.Context, client *Client, f Fixture, deadline time.Time) (segmentation.Record, bool, error) {
	var (
		last    segmentation.Record
		lastErr error
	)
	want := f.ExpectedMRR()
	for {
		var rec segmentation.Record
		status, err := client.Do(ctx, http.MethodGet, "/customers/"+f.CustomerID+"/segmentation", nil, &rec)
		switch {
		case err == nil:
			last, lastErr = rec, nil
			if math.Abs(rec.TotalMRR-want) <= mrrTolerance {
				return rec, true, nil
			}
		case status == http.StatusNotFound:
			lastErr = err
		default:
			return last, false, err
		}

		if time.Now().After(deadline) {
			if lastErr == nil {
				lastErr = fmt.Errorf("segmentation for %s did not converge: mrr %.2f, want %.2f", f.CustomerID, last.TotalMRR, want)
			}
			return last, false, lastErr
		}
		select {
		case <-ctx.Done():
			return last, false, errors.Join(lastErr, ctx.Err())
		case <-time.After(PollInterval):
		}
	}
}

// getSummary retrieves the tier summary.
func getSummary(ctx context.Context, client *Client) (Summary, error) {
	var s Summary
	if _, err := client.Do(ctx, http.MethodGet, "/segmentation/summary", nil, &s); err != nil {
		return Summary{}, err
	}
	return s, nil
}

// runPool calls fn for every index in [0, n) on up to workers goroutines.
func runPool(ctx context.Context, workers, n int, fn func(i int)) {
	if n == 0 {
		return
	}
	workers = minInt(max(workers, 1), n)
	indexChan := make(chan int, workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexChan {
				if ctx.Err() != nil {
					return
				}
				fn(i)
			}
		}()
	}

	go func() {
		defer close(indexChan)
		for i := 0; i < n; i++ {
			select {
			case <-ctx.Done():
				return
			case indexChan <- i:
			}
		}
	}()
	wg.Wait()
}
