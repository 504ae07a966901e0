package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	service "github.com/okian/clientiq/internal/app"
	"github.com/okian/clientiq/internal/domain/model"
	"github.com/okian/clientiq/internal/domain/segmentation"
	"github.com/okian/clientiq/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// CustomerHandler handles agreement, meeting and segmentation requests.
type CustomerHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewCustomerHandler creates a new customer handler.
func NewCustomerHandler(deps Dependencies, l logger.Logger) *CustomerHandler {
	return &CustomerHandler{deps: deps, logger: l}
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

// HandleAgreement handles POST /customers/{id}/agreements.
func (h *CustomerHandler) HandleAgreement(w http.ResponseWriter, r *http.Request) {
	const op = "api.save_agreement"
	var req agreementRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	if req.MonthlyMRR < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, errors.New("monthly_mrr must not be negative")))
		return
	}
	a := model.Agreement{
		ID:         req.ID,
		CustomerID: chi.URLParam(r, "id"),
		Name:       req.Name,
		MonthlyMRR: req.MonthlyMRR,
		Status:     strings.ToLower(strings.TrimSpace(req.Status)),
		StartDate:  req.StartDate,
	}
	saved, err := h.deps.SaveAgreement(r.Context(), a)
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// HandleMeeting handles POST /customers/{id}/meetings.
func (h *CustomerHandler) HandleMeeting(w http.ResponseWriter, r *http.Request) {
	const op = "api.save_meeting"
	var req meetingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	m := model.Meeting{
		ID:            req.ID,
		CustomerID:    chi.URLParam(r, "id"),
		Title:         req.Title,
		ScheduledDate: req.ScheduledDate,
	}
	saved, err := h.deps.SaveMeeting(r.Context(), m)
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// HandleSegmentation handles GET /customers/{id}/segmentation.
func (h *CustomerHandler) HandleSegmentation(w http.ResponseWriter, r *http.Request) {
	rec, err := h.deps.Segmentation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(r.Context(), h.logger, w, "api.segmentation", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// HandleRecalculate handles POST /customers/{id}/segmentation/recalculate.
// The work runs asynchronously; a full queue answers 429.
func (h *CustomerHandler) HandleRecalculate(w http.ResponseWriter, r *http.Request) {
	err := h.deps.ScheduleSegmentation(r.Context(), chi.URLParam(r, "id"), service.ReasonManual)
	if err != nil {
		fail(r.Context(), h.logger, w, "api.recalculate_segmentation", err)
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}

type summaryResponse struct {
	Tiers    map[segmentation.Tier]segmentation.TierTotals `json:"tiers"`
	Count    int                                           `json:"count"`
	TotalMRR float64                                       `json:"total_mrr"`
}

// HandleSummary handles GET /segmentation/summary.
func (h *CustomerHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	tiers, err := h.deps.SegmentationSummary(r.Context())
	if err != nil {
		fail(r.Context(), h.logger, w, "api.segmentation_summary", err)
		return
	}
	resp := summaryResponse{Tiers: tiers}
	for _, t := range tiers {
		resp.Count += t.Count
		resp.TotalMRR += t.TotalMRR
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleList handles GET /customers, the imported roster.
func (h *CustomerHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	customers, err := h.deps.Customers(r.Context())
	if err != nil {
		fail(r.Context(), h.logger, w, "api.customers", err)
		return
	}
	writeJSON(w, http.StatusOK, customers)
}

// HandleImport handles POST /customers/import. Per-client failures are
// counted in the body rather than failing the request.
func (h *CustomerHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.ImportCustomers(r.Context())
	if err != nil {
		fail(r.Context(), h.logger, w, "api.import_customers", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
