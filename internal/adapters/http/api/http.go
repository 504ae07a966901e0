// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/clientiq/internal/adapters/http/swagger"
	"github.com/okian/clientiq/internal/adapters/mq/queue"
	"github.com/okian/clientiq/internal/adapters/repository"
	"github.com/okian/clientiq/internal/adapters/source"
	service "github.com/okian/clientiq/internal/app"
	"github.com/okian/clientiq/internal/domain/model"
	"github.com/okian/clientiq/internal/domain/planning"
	"github.com/okian/clientiq/internal/domain/review"
	"github.com/okian/clientiq/internal/domain/roi"
	"github.com/okian/clientiq/internal/domain/segmentation"
	"github.com/okian/clientiq/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	GenerateReview(ctx context.Context, req review.Request) (review.Review, error)
	LatestReview(ctx context.Context, customerID string) (review.Review, error)
	ListReviews(ctx context.Context, customerID string, limit int) ([]review.Review, error)

	// SaveAgreement and SaveMeeting return the stored record with its id
	// assigned, or repository.ErrConflict when the id is another customer's.
	SaveAgreement(ctx context.Context, a model.Agreement) (model.Agreement, error)
	SaveMeeting(ctx context.Context, m model.Meeting) (model.Meeting, error)

	// ScheduleSegmentation returns queue.ErrFull on backpressure.
	ScheduleSegmentation(ctx context.Context, customerID, reason string) error
	Segmentation(ctx context.Context, customerID string) (segmentation.Record, error)
	SegmentationSummary(ctx context.Context) (map[segmentation.Tier]segmentation.TierTotals, error)

	CreateGoal(ctx context.Context, customerID string, g planning.Goal) (planning.Goal, error)
	Goals(ctx context.Context, customerID string) ([]planning.Goal, error)
	Goal(ctx context.Context, customerID, goalID string) (planning.Goal, error)
	UpdateGoal(ctx context.Context, customerID, goalID string, p planning.GoalPatch) (planning.Goal, error)
	DeleteGoal(ctx context.Context, customerID, goalID string) error
	CreateActionItem(ctx context.Context, customerID string, a planning.ActionItem) (planning.ActionItem, error)
	ActionItems(ctx context.Context, customerID, status string) ([]planning.ActionItem, error)
	UpdateActionItem(ctx context.Context, customerID, itemID string, p planning.ActionItemPatch) (planning.ActionItem, error)

	// ImportCustomers returns service.ErrImportUnsupported when the data
	// source has no roster.
	ImportCustomers(ctx context.Context) (service.ImportResult, error)
	Customers(ctx context.Context) ([]model.Customer, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	reviewsHandler  *ReviewsHandler
	roiHandler      *ROIHandler
	customerHandler *CustomerHandler
	planningHandler *PlanningHandler
	logger          logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, defaultIndustry roi.Industry) *Server {
	l := logger.Get().Named("api")
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		reviewsHandler:  NewReviewsHandler(deps, l),
		roiHandler:      NewROIHandler(defaultIndustry, l),
		customerHandler: NewCustomerHandler(deps, l),
		planningHandler: NewPlanningHandler(deps, l),
		logger:          l,
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(r chi.Router) {
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(s.logger))

	r.With(MetricsMiddleware("healthz")).Get("/healthz", s.healthHandler.HandleHealth)
	r.With(MetricsMiddleware("stats")).Get("/stats", s.statsHandler.HandleStats)
	swagger.Register(r)

	r.With(MetricsMiddleware("reviews")).Post("/reviews", s.reviewsHandler.HandleCreate)
	r.With(MetricsMiddleware("customers")).Get("/customers", s.customerHandler.HandleList)
	r.With(MetricsMiddleware("customers_import")).Post("/customers/import", s.customerHandler.HandleImport)
	r.Route("/customers/{id}", func(r chi.Router) {
		r.With(MetricsMiddleware("customer_reviews")).Get("/reviews", s.reviewsHandler.HandleList)
		r.With(MetricsMiddleware("customer_latest_review")).Get("/reviews/latest", s.reviewsHandler.HandleLatest)
		r.With(MetricsMiddleware("customer_agreements")).Post("/agreements", s.customerHandler.HandleAgreement)
		r.With(MetricsMiddleware("customer_meetings")).Post("/meetings", s.customerHandler.HandleMeeting)
		r.With(MetricsMiddleware("customer_segmentation")).Get("/segmentation", s.customerHandler.HandleSegmentation)
		r.With(MetricsMiddleware("customer_segmentation_recalculate")).Post("/segmentation/recalculate", s.customerHandler.HandleRecalculate)

		r.With(MetricsMiddleware("customer_goals")).Get("/goals", s.planningHandler.HandleListGoals)
		r.With(MetricsMiddleware("customer_goals")).Post("/goals", s.planningHandler.HandleCreateGoal)
		r.With(MetricsMiddleware("customer_goal")).Get("/goals/{goalID}", s.planningHandler.HandleGetGoal)
		r.With(MetricsMiddleware("customer_goal")).Put("/goals/{goalID}", s.planningHandler.HandleUpdateGoal)
		r.With(MetricsMiddleware("customer_goal")).Delete("/goals/{goalID}", s.planningHandler.HandleDeleteGoal)
		r.With(MetricsMiddleware("customer_action_items")).Get("/action-items", s.planningHandler.HandleListActionItems)
		r.With(MetricsMiddleware("customer_action_items")).Post("/action-items", s.planningHandler.HandleCreateActionItem)
		r.With(MetricsMiddleware("customer_action_item")).Put("/action-items/{itemID}", s.planningHandler.HandleUpdateActionItem)
	})
	r.With(MetricsMiddleware("segmentation_summary")).Get("/segmentation/summary", s.customerHandler.HandleSummary)

	r.With(MetricsMiddleware("roi_tiered_budget")).Post("/roi/tiered-budget", s.roiHandler.HandleTieredBudget)
	r.With(MetricsMiddleware("roi")).Post("/roi/{format}", s.roiHandler.HandleFormat)
}

// Handler returns a router with every route registered.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	s.Register(r)
	return r
}

type ackResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// classify maps error kinds from the layers below onto HTTP statuses.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, source.ErrCustomerNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, repository.ErrInvalidInput),
		errors.Is(err, repository.ErrInvalidLimit),
		errors.Is(err, planning.ErrInvalid),
		errors.Is(err, roi.ErrUnknownFormat):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, service.ErrImportUnsupported):
		return http.StatusNotImplemented, "unsupported"
	case errors.Is(err, ErrBackpressure), errors.Is(err, queue.ErrFull):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, queue.ErrClosed):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, source.ErrUpstream), errors.Is(err, source.ErrInputShape):
		return http.StatusBadGateway, "upstream"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// fail writes the response for err, logging server-side failures.
func fail(ctx context.Context, l logger.Logger, w http.ResponseWriter, op string, err error) {
	status, code := classify(err)
	if status >= statusInternalError {
		l.Error(ctx, "request failed", logger.String("op", op), logger.Error(err))
	}
	writeError(w, status, code, err)
}

// decodeJSON reads one JSON document, rejecting unknown fields and
// trailing data.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	if dec.More() {
		return errors.New("decode body: unexpected trailing data")
	}
	return nil
}
