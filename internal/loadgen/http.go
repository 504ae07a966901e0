package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/clientiq/internal/domain/model"
	"github.com/okian/clientiq/pkg/logger"

	"github.com/hashicorp/go-retryablehttp"
)

// Client talks to the service API. 429 and 5xx answers are retried with
// backoff before they count as failures.
type Client struct {
	http    *retryablehttp.Client
	baseURL string
}

// NewClient creates a client for config.BaseURL.
func NewClient(config *Config) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = config.Retries
	rc.RetryWaitMin = 20 * time.Millisecond
	rc.RetryWaitMax = time.Second
	rc.HTTPClient.Timeout = config.Timeout
	rc.Logger = nil
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return &Client{http: rc, baseURL: strings.TrimRight(config.BaseURL, "/")}
}

// Do sends body as JSON and decodes a 2xx response into out when out is
// not nil. It returns the status code of the final attempt.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) (int, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return resp.StatusCode, fmt.Errorf("%s %s: HTTP %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// submitFixtures posts every agreement and meeting concurrently.
func submitFixtures(ctx context.Context, config *Config, client *Client, fixtures []Fixture, stats *Stats) error {
	log := logger.Get()
	log.Info(ctx, "submitting fixtures", logger.Int("customers", len(fixtures)), logger.Int("workers", config.Workers))

	var (
		successful int64
		failed     int64
		submitted  int64
	)

	fixtureChan := make(chan Fixture, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	record := func(err error) {
		atomic.AddInt64(&submitted, 1)
		if err != nil {
			atomic.AddInt64(&failed, 1)
			if config.Verbose {
				log.Warn(ctx, "request failed", logger.Error(err))
			}
			return
		}
		atomic.AddInt64(&successful, 1)
	}

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range fixtureChan {
				for _, a := range f.Agreements {
					if ctx.Err() != nil {
						return
					}
					_, err := client.Do(ctx, http.MethodPost, "/customers/"+f.CustomerID+"/agreements", agreementBody(a), nil)
					record(err)
				}
				for _, m := range f.Meetings {
					if ctx.Err() != nil {
						return
					}
					_, err := client.Do(ctx, http.MethodPost, "/customers/"+f.CustomerID+"/meetings", meetingBody(m), nil)
					record(err)
				}
			}
		}()
	}

	go func() {
		defer close(fixtureChan)
		for _, f := range fixtures {
			select {
			case <-ctx.Done():
				return
			case fixtureChan <- f:
			}
		}
	}()

	wg.Wait()

	stats.RequestsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.RequestsSuccessful = int(atomic.LoadInt64(&successful))
	stats.RequestsFailed = int(atomic.LoadInt64(&failed))

	log.Info(ctx, "fixture submission completed",
		logger.Int("successful", stats.RequestsSuccessful),
		logger.Int("failed", stats.RequestsFailed))

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("submission interrupted: %w", err)
	}
	return nil
}

type agreementRequest struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	MonthlyMRR float64   `json:"monthly_mrr"`
	Status     string    `json:"status"`
	StartDate  time.Time `json:"start_date"`
}

type meetingRequest struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	ScheduledDate time.Time `json:"scheduled_date"`
}

// The API takes the customer from the path and rejects unknown fields.
func agreementBody(a model.Agreement) agreementRequest {
	return agreementRequest{ID: a.ID, Name: a.Name, MonthlyMRR: a.MonthlyMRR, Status: a.Status, StartDate: a.StartDate}
}

func meetingBody(m model.Meeting) meetingRequest {
	return meetingRequest{ID: m.ID, Title: m.Title, ScheduledDate: m.ScheduledDate}
}
