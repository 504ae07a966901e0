package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/okian/clientiq/internal/domain/model"
	"github.com/okian/clientiq/internal/domain/roi"
	"github.com/okian/clientiq/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// ROIHandler computes ROI presentations and tiered budgets. It needs no
// stored state.
type ROIHandler struct {
	defaultIndustry roi.Industry
	logger          logger.Logger
}

// NewROIHandler creates a new ROI handler.
func NewROIHandler(defaultIndustry roi.Industry, l logger.Logger) *ROIHandler {
	if defaultIndustry == "" {
		defaultIndustry = roi.IndustryGovernment
	}
	return &ROIHandler{defaultIndustry: defaultIndustry, logger: l}
}

// roiRequest carries the parameters of every format; each format reads its own.
type roiRequest struct {
	Industry string `json:"industry"`

	// risk-avoidance
	Investment         float64 `json:"investment"`
	IncidentsPrevented int     `json:"incidents_prevented"`
	AvgDurationHours   float64 `json:"avg_duration_hours"`

	// efficiency-unlock
	HoursFreed  float64 `json:"hours_freed"`
	CostPerHour float64 `json:"cost_per_hour"`

	// compliance
	Current           float64 `json:"current"`
	Target            float64 `json:"target"`
	PenaltyAtCurrent  float64 `json:"penalty_at_current"`
	CostToReachTarget float64 `json:"cost_to_reach_target"`

	// three-year
	Year1Investment float64 `json:"year1_investment"`
	Year1Savings    float64 `json:"year1_savings"`

	// efficiency-unlock and three-year
	Multiplier float64 `json:"multiplier"`
}

type tieredRequest struct {
	Industry           string      `json:"industry"`
	TotalBudget        float64     `json:"total_budget"`
	CurrentMonthlyCost float64     `json:"current_monthly_cost"`
	Gaps               []model.Gap `json:"gaps"`
}

func (h *ROIHandler) engine(industry string) *roi.Engine {
	if strings.TrimSpace(industry) == "" {
		return roi.NewEngine(h.defaultIndustry)
	}
	return roi.NewEngine(roi.ParseIndustry(industry))
}

// HandleFormat handles POST /roi/{format}.
func (h *ROIHandler) HandleFormat(w http.ResponseWriter, r *http.Request) {
	const op = "api.roi"
	format, err := roi.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	var req roiRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	if req.IncidentsPrevented < 0 {
		writeError(w, http.StatusBadRequest, "bad_request",
			wrapKind(op, ErrBadRequest, errors.New("incidents_prevented must not be negative")))
		return
	}

	e := h.engine(req.Industry)
	var result roi.Result
	switch format {
	case roi.FormatRiskAvoidance:
		result = e.RiskAvoidance(req.Investment, req.IncidentsPrevented, req.AvgDurationHours)
	case roi.FormatEfficiencyUnlock:
		result = e.EfficiencyUnlock(req.HoursFreed, req.CostPerHour, req.Multiplier)
	case roi.FormatComplianceRisk:
		result = e.ComplianceRisk(req.Current, req.Target, req.PenaltyAtCurrent, req.CostToReachTarget)
	case roi.FormatThreeYearStacked:
		result = e.ThreeYearStacked(req.Year1Investment, req.Year1Savings, req.Multiplier)
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleTieredBudget handles POST /roi/tiered-budget.
func (h *ROIHandler) HandleTieredBudget(w http.ResponseWriter, r *http.Request) {
	const op = "api.tiered_budget"
	var req tieredRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	if req.TotalBudget < 0 || req.CurrentMonthlyCost < 0 {
		writeError(w, http.StatusBadRequest, "bad_request",
			wrapKind(op, ErrBadRequest, errors.New("budget fields must not be negative")))
		return
	}
	writeJSON(w, http.StatusOK, h.engine(req.Industry).TieredBudget(req.TotalBudget, req.Gaps, req.CurrentMonthlyCost))
}
