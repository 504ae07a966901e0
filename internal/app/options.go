package service

import (
	"time"

	"github.com/okian/clientiq/internal/domain/budget"
	"github.com/okian/clientiq/internal/domain/roi"
	"github.com/okian/clientiq/internal/domain/scoring"
	"github.com/okian/clientiq/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of segmentation workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the recalculation queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds the number of pending recalculations tracked.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithScoringEngine replaces the default scoring engine.
func WithScoringEngine(e *scoring.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.scorer = e
		}
	}
}

// WithBudgetEngine replaces the default budget engine.
func WithBudgetEngine(e *budget.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.budgeter = e
		}
	}
}

// WithNarrator enables narrative generation.
func WithNarrator(n Narrator) Option {
	return func(s *Service) {
		s.narrator = n
	}
}

// WithDefaultIndustry sets the industry used when neither the request nor
// the customer names one.
func WithDefaultIndustry(i roi.Industry) Option {
	return func(s *Service) {
		if i != "" {
			s.defaultIndustry = i
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
