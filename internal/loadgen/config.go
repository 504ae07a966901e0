package loadgen

import (
	"time"

	"github.com/okian/clientiq/internal/domain/model"
	"github.com/okian/clientiq/internal/domain/segmentation"
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL       string        // Base URL of the service
	Customers     int           // Number of customers to generate
	MaxAgreements int           // Upper bound of agreements per customer
	Workers       int           // Number of concurrent workers
	Timeout       time.Duration // HTTP request timeout
	Retries       int           // Retries per request on 429 and 5xx
	Settle        time.Duration // How long to wait for segmentation to converge
	Seed          uint64        // Fixture seed; runs with the same seed post the same data
	OutputFile    string        // Fixture dump, empty to skip
	Verbose       bool          // Enable verbose logging
}

// Fixture is the history posted for one customer.
type Fixture struct {
	CustomerID string            `json:"customer_id"`
	Agreements []model.Agreement `json:"agreements"`
	Meetings   []model.Meeting   `json:"meetings"`
}

// ExpectedMRR is the MRR segmentation should report for the fixture.
func (f Fixture) ExpectedMRR() float64 {
	return segmentation.TotalMRR(f.Agreements)
}

// ExpectedTier is the tier segmentation should report for the fixture.
func (f Fixture) ExpectedTier() segmentation.Tier {
	return segmentation.TierFor(f.ExpectedMRR())
}

// Stats holds run statistics.
type Stats struct {
	CustomersGenerated int
	RequestsSubmitted  int
	RequestsSuccessful int
	RequestsFailed     int
	Recalculations     int
	RecordsRetrieved   int
	RecordsConverged   int
	Mismatches         int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
