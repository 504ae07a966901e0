// Package service orchestrates the review pipeline: it fetches client data
// from a data source, runs the scoring, budget, ROI and insights engines,
// persists the run and keeps customer segmentation current in the
// background.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/okian/clientiq/internal/adapters/mq/queue"
	"github.com/okian/clientiq/internal/adapters/mq/worker"
	"github.com/okian/clientiq/internal/adapters/repository"
	"github.com/okian/clientiq/internal/adapters/source"
	"github.com/okian/clientiq/internal/domain/budget"
	"github.com/okian/clientiq/internal/domain/dedupe"
	"github.com/okian/clientiq/internal/domain/insights"
	"github.com/okian/clientiq/internal/domain/model"
	"github.com/okian/clientiq/internal/domain/review"
	"github.com/okian/clientiq/internal/domain/roi"
	"github.com/okian/clientiq/internal/domain/scoring"
	"github.com/okian/clientiq/internal/domain/segmentation"
	"github.com/okian/clientiq/internal/domain/signal"
	"github.com/okian/clientiq/internal/domain/stakeholder"
	"github.com/okian/clientiq/pkg/logger"
	"github.com/okian/clientiq/pkg/metrics"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Recalculation reasons attached to queued jobs.
const (
	ReasonReview    = "review"
	ReasonAgreement = "agreement"
	ReasonMeeting   = "meeting"
	ReasonManual    = "manual"
)

// Narrator turns a finished review into prose. A nil Narrator is a normal
// configuration; reviews are then returned without a narrative.
type Narrator interface {
	Narrate(ctx context.Context, r review.Review) (string, error)
}

// Service implements the API dependencies for the review system.
type Service struct {
	mu sync.RWMutex

	// Core components
	source          source.DataSource
	store           repository.Store
	scorer          *scoring.Engine
	budgeter        *budget.Engine
	narrator        Narrator
	defaultIndustry roi.Industry
	now             func() time.Time

	// Segmentation recalculation
	deduper dedupe.Deduper
	queue   *queue.InMemoryQueue
	pool    *worker.Pool
	cancel  context.CancelFunc

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int

	started bool
	logger  logger.Logger
}

// New constructs a Service reading from src. store may be nil, in which case
// reviews are not persisted and segmentation is unavailable.
func New(src source.DataSource, store repository.Store, opts ...Option) *Service {
	s := &Service{
		source:          src,
		store:           store,
		scorer:          scoring.NewEngine(),
		budgeter:        budget.NewEngine(),
		defaultIndustry: roi.IndustryGovernment,
		now:             time.Now,
		workerCount:     runtime.NumCPU(),
		queueSize:       1024,
		dedupeSize:      10000,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// Start launches the segmentation worker pool. Workers outlive ctx's
// cancellation and stop only through Stop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(
		queue.WithCapacity(s.queueSize),
		queue.WithBufferSize(s.queueSize),
	)
	s.pool = worker.NewPool(s.workerCount, s.queue, worker.HandlerFunc(s.handleJob))
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "review service started",
		logger.String("source", s.source.Name()),
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop drains pending recalculations and stops the workers.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	pool, cancel := s.pool, s.cancel
	s.mu.Unlock()

	s.logger.Info(ctx, "stopping review service...")
	err := pool.Shutdown(ctx)
	cancel()
	if err != nil {
		s.logger.Warn(ctx, "segmentation workers did not drain", logger.Error(err))
	}
	s.logger.Info(ctx, "review service stopped", logger.Int("processed", int(pool.Processed())))
	return err
}

type inputs struct {
	customer model.Customer
	assets   []model.Asset
	tickets  []model.Ticket
	users    []model.User
}

// fetch loads the four pipeline inputs concurrently.
func (s *Service) fetch(ctx context.Context, customerID string) (inputs, error) {
	var in inputs
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := s.source.Customer(gctx, customerID)
		if err != nil {
			return fmt.Errorf("fetch customer: %w", err)
		}
		in.customer = c
		return nil
	})
	g.Go(func() error {
		a, err := s.source.Assets(gctx, customerID)
		if err != nil {
			return fmt.Errorf("fetch assets: %w", err)
		}
		in.assets = a
		return nil
	})
	g.Go(func() error {
		t, err := s.source.Tickets(gctx, customerID)
		if err != nil {
			return fmt.Errorf("fetch tickets: %w", err)
		}
		in.tickets = t
		return nil
	})
	g.Go(func() error {
		u, err := s.source.Users(gctx, customerID)
		if err != nil {
			return fmt.Errorf("fetch users: %w", err)
		}
		in.users = u
		return nil
	})
	if err := g.Wait(); err != nil {
		return inputs{}, err
	}
	if in.customer.ID == "" {
		in.customer.ID = customerID
	}
	return in, nil
}

func (s *Service) industryFor(req review.Request, c model.Customer) roi.Industry {
	switch {
	case strings.TrimSpace(req.Industry) != "":
		return roi.ParseIndustry(req.Industry)
	case strings.TrimSpace(c.Industry) != "":
		return roi.ParseIndustry(c.Industry)
	}
	return s.defaultIndustry
}

// build runs the pure pipeline stages over fetched inputs.
func (s *Service) build(req review.Request, in inputs) review.Review {
	industry := s.industryFor(req, in.customer)
	signals := signal.Derive(in.customer, in.assets, in.tickets, in.users)
	assessment := s.scorer.Evaluate(signals)
	priced := s.budgeter.Calculate(signals, assessment.Gaps)

	current := req.CurrentMonthlyCost
	if current <= 0 {
		current = priced.TotalMonthly
	}
	total := req.TotalBudget
	if total <= 0 {
		total = current
	}

	engine := roi.NewEngine(industry)
	r := review.Review{
		ID:              uuid.NewString(),
		CustomerID:      in.customer.ID,
		CustomerName:    in.customer.Name,
		Industry:        industry,
		GeneratedAt:     s.now().UTC(),
		Signals:         signals,
		Scores:          assessment.Scores,
		Gaps:            assessment.Gaps,
		Recommendations: assessment.Recommendations,
		Budget:          priced,
		TieredBudget:    engine.TieredBudget(total, assessment.Gaps, current),
		IndustryMetrics: engine.IndustryMetrics(signals, in.tickets),
		PeerBenchmark:   engine.PeerBenchmark(signals),
		Insights:        insights.Generate(signals, in.tickets),
	}
	r.Stakeholder = stakeholder.Compose(stakeholder.Input{
		CustomerName:    r.CustomerName,
		Industry:        industry,
		Date:            r.GeneratedAt,
		OverallScore:    r.OverallPercent(),
		GapCount:        len(r.Gaps),
		MonthlyCost:     priced.TotalMonthly,
		Signals:         signals,
		Tickets:         in.tickets,
		TieredBudget:    r.TieredBudget,
		IndustryMetrics: r.IndustryMetrics,
		PeerBenchmark:   r.PeerBenchmark,
	})
	return r
}

// GenerateReview runs the full pipeline for one customer, persists the run
// when a store is configured and schedules a segmentation refresh.
func (s *Service) GenerateReview(ctx context.Context, req review.Request) (review.Review, error) {
	req.CustomerID = strings.TrimSpace(req.CustomerID)
	if req.CustomerID == "" {
		return review.Review{}, fmt.Errorf("%w: customer id is required", ErrInvalidRequest)
	}

	start := time.Now()
	in, err := s.fetch(ctx, req.CustomerID)
	if err != nil {
		metrics.RecordReviewFailed("fetch")
		s.logger.Error(ctx, "review fetch failed",
			logger.String("customerID", req.CustomerID),
			logger.Error(err),
		)
		return review.Review{}, err
	}
	s.rosterIndustry(ctx, &in.customer)
	metrics.RecordPipelineLatency("fetch", since(start))

	computeStart := time.Now()
	r := s.build(req, in)
	metrics.RecordPipelineLatency("compute", since(computeStart))

	if s.narrator != nil && !req.SkipNarrative {
		r.Narrative = s.narrate(ctx, r)
	}

	if s.store != nil {
		persistStart := time.Now()
		if err := s.persist(ctx, r); err != nil {
			metrics.RecordReviewFailed("persist")
			return review.Review{}, err
		}
		metrics.RecordPipelineLatency("persist", since(persistStart))
		s.scheduleQuietly(ctx, r.CustomerID, ReasonReview)
	}

	metrics.RecordReviewGenerated(string(r.Industry))
	metrics.RecordOverallScore(r.Scores.Overall)
	metrics.RecordBudgetMonthly(r.Budget.TotalMonthly)
	for _, g := range r.Gaps {
		metrics.RecordGap(string(g.Severity))
	}
	metrics.RecordPipelineLatency("total", since(start))

	s.logger.Info(ctx, "review generated",
		logger.String("reviewID", r.ID),
		logger.String("customerID", r.CustomerID),
		logger.String("industry", string(r.Industry)),
		logger.Float64("overall", r.Scores.Overall),
		logger.Int("gaps", len(r.Gaps)),
	)
	return r, nil
}

// narrate asks the narrator for text. Failures leave the narrative empty.
func (s *Service) narrate(ctx context.Context, r review.Review) string {
	text, err := s.narrator.Narrate(ctx, r)
	if err != nil {
		metrics.RecordNarrative("failed")
		s.logger.Warn(ctx, "narrative unavailable",
			logger.String("reviewID", r.ID),
			logger.Error(fmt.Errorf("%w: %w", ErrNarration, err)),
		)
		return ""
	}
	metrics.RecordNarrative("generated")
	return text
}

func (s *Service) persist(ctx context.Context, r review.Review) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode review: %w", err)
	}
	return s.store.SaveReview(ctx, repository.ReviewRun{
		ID:           r.ID,
		CustomerID:   r.CustomerID,
		CustomerName: r.CustomerName,
		Industry:     string(r.Industry),
		GeneratedAt:  r.GeneratedAt,
		OverallScore: r.OverallPercent(),
		Payload:      payload,
	})
}

func (s *Service) requireStore() error {
	if s.store == nil {
		return fmt.Errorf("%w: no store configured", ErrNotStarted)
	}
	return nil
}

func decodeRun(run repository.ReviewRun) (review.Review, error) {
	var r review.Review
	if err := json.Unmarshal(run.Payload, &r); err != nil {
		return review.Review{}, fmt.Errorf("decode review %s: %w", run.ID, err)
	}
	return r, nil
}

// LatestReview returns the customer's most recent stored review.
func (s *Service) LatestReview(ctx context.Context, customerID string) (review.Review, error) {
	if err := s.requireStore(); err != nil {
		return review.Review{}, err
	}
	run, err := s.store.LatestReview(ctx, customerID)
	if err != nil {
		return review.Review{}, err
	}
	return decodeRun(run)
}

// ListReviews returns up to limit stored reviews, newest first.
func (s *Service) ListReviews(ctx context.Context, customerID string, limit int) ([]review.Review, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	runs, err := s.store.ListReviews(ctx, customerID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]review.Review, 0, len(runs))
	for _, run := range runs {
		r, err := decodeRun(run)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// SaveAgreement stores an agreement and schedules a segmentation refresh.
// An agreement without an id gets a fresh one. Reusing another customer's
// agreement id fails with repository.ErrConflict.
func (s *Service) SaveAgreement(ctx context.Context, a model.Agreement) (model.Agreement, error) {
	if err := s.requireStore(); err != nil {
		return model.Agreement{}, err
	}
	if strings.TrimSpace(a.ID) == "" {
		a.ID = uuid.NewString()
	}
	if err := s.store.SaveAgreement(ctx, a); err != nil {
		return model.Agreement{}, err
	}
	s.scheduleQuietly(ctx, a.CustomerID, ReasonAgreement)
	return a, nil
}

// SaveMeeting stores a meeting and schedules a segmentation refresh. Ids
// follow the same rules as SaveAgreement.
func (s *Service) SaveMeeting(ctx context.Context, m model.Meeting) (model.Meeting, error) {
	if err := s.requireStore(); err != nil {
		return model.Meeting{}, err
	}
	if strings.TrimSpace(m.ID) == "" {
		m.ID = uuid.NewString()
	}
	if err := s.store.SaveMeeting(ctx, m); err != nil {
		return model.Meeting{}, err
	}
	s.scheduleQuietly(ctx, m.CustomerID, ReasonMeeting)
	return m, nil
}

// ScheduleSegmentation queues a recalculation for customerID. A request for
// a customer whose recalculation is already pending is coalesced into it.
// Returns queue.ErrFull on backpressure.
func (s *Service) ScheduleSegmentation(ctx context.Context, customerID, reason string) error {
	s.mu.RLock()
	started, q, d := s.started, s.queue, s.deduper
	s.mu.RUnlock()

	if !started {
		return ErrNotStarted
	}
	if d.SeenAndRecord(ctx, customerID) {
		metrics.RecordSegmentationCoalesced()
		s.logger.Debug(ctx, "segmentation already pending", logger.String("customerID", customerID))
		return nil
	}
	err := q.Enqueue(ctx, queue.Job{CustomerID: customerID, Reason: reason, RequestedAt: s.now()})
	if err != nil {
		d.Unrecord(ctx, customerID)
		return fmt.Errorf("schedule segmentation for %s: %w", customerID, err)
	}
	return nil
}

// scheduleQuietly schedules a refresh after a write that already succeeded.
func (s *Service) scheduleQuietly(ctx context.Context, customerID, reason string) {
	err := s.ScheduleSegmentation(ctx, customerID, reason)
	if err != nil && !errors.Is(err, ErrNotStarted) {
		s.logger.Warn(ctx, "segmentation refresh not scheduled",
			logger.String("customerID", customerID),
			logger.String("reason", reason),
			logger.Error(err),
		)
	}
}

func (s *Service) handleJob(ctx context.Context, j queue.Job) error {
	s.mu.RLock()
	d := s.deduper
	s.mu.RUnlock()

	// release first so writes arriving during the run schedule a fresh pass
	d.Unrecord(ctx, j.CustomerID)
	_, err := s.RecalculateSegmentation(ctx, j.CustomerID)
	return err
}

// RecalculateSegmentation rebuilds and stores the customer's segmentation
// from its agreements, meetings and review history.
func (s *Service) RecalculateSegmentation(ctx context.Context, customerID string) (segmentation.Record, error) {
	if err := s.requireStore(); err != nil {
		return segmentation.Record{}, err
	}

	var in segmentation.Input
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		in.Agreements, err = s.store.Agreements(gctx, customerID)
		return err
	})
	g.Go(func() (err error) {
		in.Meetings, err = s.store.Meetings(gctx, customerID)
		return err
	})
	g.Go(func() (err error) {
		in.Reports, err = s.store.ReportSummaries(gctx, customerID)
		return err
	})
	g.Go(func() error {
		prev, err := s.store.Segmentation(gctx, customerID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		in.PreviousMRR = &prev.TotalMRR
		return nil
	})
	if err := g.Wait(); err != nil {
		metrics.RecordSegmentationRecalculation("failed")
		return segmentation.Record{}, fmt.Errorf("load segmentation history for %s: %w", customerID, err)
	}

	rec := segmentation.Calculate(customerID, in, s.now())
	if err := s.store.SaveSegmentation(ctx, rec); err != nil {
		metrics.RecordSegmentationRecalculation("failed")
		return segmentation.Record{}, err
	}
	metrics.RecordSegmentationRecalculation("success")
	s.logger.Debug(ctx, "segmentation recalculated",
		logger.String("customerID", customerID),
		logger.String("tier", string(rec.Tier)),
		logger.Int("health", rec.HealthScore),
		logger.String("risk", rec.RiskLevel),
	)

	if _, err := s.SegmentationSummary(ctx); err != nil {
		s.logger.Warn(ctx, "tier gauges not refreshed", logger.Error(err))
	}
	return rec, nil
}

// Segmentation returns the stored segmentation of a customer. A customer
// that was never segmented is calculated on first read.
func (s *Service) Segmentation(ctx context.Context, customerID string) (segmentation.Record, error) {
	if err := s.requireStore(); err != nil {
		return segmentation.Record{}, err
	}
	rec, err := s.store.Segmentation(ctx, customerID)
	if errors.Is(err, repository.ErrNotFound) {
		s.logger.Debug(ctx, "segmentation missing, calculating on read", logger.String("customerID", customerID))
		return s.RecalculateSegmentation(ctx, customerID)
	}
	return rec, err
}

// SegmentationSummary aggregates every stored segmentation by tier and
// refreshes the per-tier gauges.
func (s *Service) SegmentationSummary(ctx context.Context) (map[segmentation.Tier]segmentation.TierTotals, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	records, err := s.store.ListSegmentations(ctx)
	if err != nil {
		return nil, err
	}
	summary := segmentation.Summarize(records)
	for tier, totals := range summary {
		metrics.UpdateCustomersByTier(string(tier), totals.Count)
	}
	return summary, nil
}

// Stats returns service statistics for monitoring.
func (s *Service) Stats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"source":      s.source.Name(),
		"persistent":  s.store != nil,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}
	if s.started {
		queueLen := s.queue.Len(context.Background())
		stats["queueLength"] = queueLen
		stats["pendingSegmentations"] = s.deduper.Size()
		stats["processedSegmentations"] = s.pool.Processed()
		metrics.UpdateQueueSize(queueLen)
	}
	return stats
}

func since(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
