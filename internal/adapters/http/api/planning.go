package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/clientiq/internal/domain/planning"
	"github.com/okian/clientiq/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// PlanningHandler handles client goal and action item requests.
type PlanningHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewPlanningHandler creates a new planning handler.
func NewPlanningHandler(deps Dependencies, l logger.Logger) *PlanningHandler {
	return &PlanningHandler{deps: deps, logger: l}
}

// date accepts a calendar date ("2025-12-31") or an RFC 3339 timestamp.
type date struct {
	time.Time
}

func (d *date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", s)
}

func (d *date) ptr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

type goalRequest struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Category           string   `json:"category"`
	Priority           string   `json:"priority"`
	TargetDate         *date    `json:"target_date"`
	Status             string   `json:"status"`
	ProgressPercentage int      `json:"progress_percentage"`
	LinkedInitiatives  []string `json:"linked_initiatives"`
	Owner              string   `json:"owner"`
	Stakeholders       []string `json:"stakeholders"`
	SuccessMetrics     []string `json:"success_metrics"`
	CurrentValue       string   `json:"current_value"`
	TargetValue        string   `json:"target_value"`
}

type goalPatchRequest struct {
	Title              *string  `json:"title"`
	Description        *string  `json:"description"`
	Category           *string  `json:"category"`
	Priority           *string  `json:"priority"`
	TargetDate         *date    `json:"target_date"`
	Status             *string  `json:"status"`
	ProgressPercentage *int     `json:"progress_percentage"`
	LinkedInitiatives  []string `json:"linked_initiatives"`
	Owner              *string  `json:"owner"`
	Stakeholders       []string `json:"stakeholders"`
	SuccessMetrics     []string `json:"success_metrics"`
	CurrentValue       *string  `json:"current_value"`
	TargetValue        *string  `json:"target_value"`
}

type actionItemRequest struct {
	MeetingID   string `json:"meeting_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	AssignedTo  string `json:"assigned_to"`
	AssignedBy  string `json:"assigned_by"`
	DueDate     *date  `json:"due_date"`
}

type actionItemPatchRequest struct {
	Title      *string `json:"title"`
	Status     *string `json:"status"`
	Priority   *string `json:"priority"`
	AssignedTo *string `json:"assigned_to"`
	DueDate    *date   `json:"due_date"`
}

// HandleListGoals handles GET /customers/{id}/goals.
func (h *PlanningHandler) HandleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := h.deps.Goals(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(r.Context(), h.logger, w, "api.goals", err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

// HandleGetGoal handles GET /customers/{id}/goals/{goalID}.
func (h *PlanningHandler) HandleGetGoal(w http.ResponseWriter, r *http.Request) {
	g, err := h.deps.Goal(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "goalID"))
	if err != nil {
		fail(r.Context(), h.logger, w, "api.goal", err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// HandleCreateGoal handles POST /customers/{id}/goals.
func (h *PlanningHandler) HandleCreateGoal(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_goal"
	var req goalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	g, err := h.deps.CreateGoal(r.Context(), chi.URLParam(r, "id"), planning.Goal{
		Title:              req.Title,
		Description:        req.Description,
		Category:           req.Category,
		Priority:           req.Priority,
		TargetDate:         req.TargetDate.ptr(),
		Status:             req.Status,
		ProgressPercentage: req.ProgressPercentage,
		LinkedInitiatives:  req.LinkedInitiatives,
		Owner:              req.Owner,
		Stakeholders:       req.Stakeholders,
		SuccessMetrics:     req.SuccessMetrics,
		CurrentValue:       req.CurrentValue,
		TargetValue:        req.TargetValue,
	})
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

// HandleUpdateGoal handles PUT /customers/{id}/goals/{goalID}. Omitted
// fields keep their stored values.
func (h *PlanningHandler) HandleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_goal"
	var req goalPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	g, err := h.deps.UpdateGoal(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "goalID"), planning.GoalPatch{
		Title:              req.Title,
		Description:        req.Description,
		Category:           req.Category,
		Priority:           req.Priority,
		TargetDate:         req.TargetDate.ptr(),
		Status:             req.Status,
		ProgressPercentage: req.ProgressPercentage,
		LinkedInitiatives:  req.LinkedInitiatives,
		Owner:              req.Owner,
		Stakeholders:       req.Stakeholders,
		SuccessMetrics:     req.SuccessMetrics,
		CurrentValue:       req.CurrentValue,
		TargetValue:        req.TargetValue,
	})
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// HandleDeleteGoal handles DELETE /customers/{id}/goals/{goalID}.
func (h *PlanningHandler) HandleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteGoal(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "goalID")); err != nil {
		fail(r.Context(), h.logger, w, "api.delete_goal", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListActionItems handles GET /customers/{id}/action-items?status=S.
func (h *PlanningHandler) HandleListActionItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.deps.ActionItems(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("status"))
	if err != nil {
		fail(r.Context(), h.logger, w, "api.action_items", err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// HandleCreateActionItem handles POST /customers/{id}/action-items.
func (h *PlanningHandler) HandleCreateActionItem(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_action_item"
	var req actionItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	a, err := h.deps.CreateActionItem(r.Context(), chi.URLParam(r, "id"), planning.ActionItem{
		MeetingID:   req.MeetingID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		AssignedTo:  req.AssignedTo,
		AssignedBy:  req.AssignedBy,
		DueDate:     req.DueDate.ptr(),
	})
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// HandleUpdateActionItem handles PUT /customers/{id}/action-items/{itemID}.
func (h *PlanningHandler) HandleUpdateActionItem(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_action_item"
	var req actionItemPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	a, err := h.deps.UpdateActionItem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "itemID"), planning.ActionItemPatch{
		Title:      req.Title,
		Status:     req.Status,
		Priority:   req.Priority,
		AssignedTo: req.AssignedTo,
		DueDate:    req.DueDate.ptr(),
	})
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
