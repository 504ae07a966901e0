package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/clientiq/internal/domain/review"
	"github.com/okian/clientiq/pkg/logger"

	"github.com/go-chi/chi/v5"
)

const defaultReviewLimit = 10

// ReviewsHandler handles review requests.
type ReviewsHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewReviewsHandler creates a new reviews handler.
func NewReviewsHandler(deps Dependencies, l logger.Logger) *ReviewsHandler {
	return &ReviewsHandler{deps: deps, logger: l}
}

// HandleCreate handles POST /reviews.
func (h *ReviewsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_review"
	var req review.Request
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	if req.TotalBudget < 0 || req.CurrentMonthlyCost < 0 {
		writeError(w, http.StatusBadRequest, "bad_request",
			wrapKind(op, ErrBadRequest, errors.New("budget fields must not be negative")))
		return
	}
	rv, err := h.deps.GenerateReview(r.Context(), req)
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, rv)
}

// HandleList handles GET /customers/{id}/reviews?limit=N.
func (h *ReviewsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_reviews"
	limit := defaultReviewLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, fmt.Errorf("invalid limit %q", raw)))
			return
		}
		limit = n
	}
	runs, err := h.deps.ListReviews(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// HandleLatest handles GET /customers/{id}/reviews/latest.
func (h *ReviewsHandler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	rv, err := h.deps.LatestReview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(r.Context(), h.logger, w, "api.latest_review", err)
		return
	}
	writeJSON(w, http.StatusOK, rv)
}
