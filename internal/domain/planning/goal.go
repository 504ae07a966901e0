package planning

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Goal is a client business objective.
type Goal struct {
	ID                 string     `json:"id"`
	CustomerID         string     `json:"customer_id"`
	Title              string     `json:"title"`
	Description        string     `json:"description,omitempty"`
	Category           string     `json:"category,omitempty"` // business_growth, cost_reduction, efficiency, security, compliance
	Priority           string     `json:"priority"`
	TargetDate         *time.Time `json:"target_date,omitempty"`
	Status             string     `json:"status"`
	ProgressPercentage int        `json:"progress_percentage"`
	LinkedInitiatives  []string   `json:"linked_initiatives,omitempty"`
	Owner              string     `json:"owner,omitempty"`
	Stakeholders       []string   `json:"stakeholders,omitempty"`
	SuccessMetrics     []string   `json:"success_metrics,omitempty"`
	CurrentValue       string     `json:"current_value,omitempty"`
	TargetValue        string     `json:"target_value,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// GoalPatch holds the fields a partial update sets. Nil fields are kept.
type GoalPatch struct {
	Title              *string    `json:"title"`
	Description        *string    `json:"description"`
	Category           *string    `json:"category"`
	Priority           *string    `json:"priority"`
	TargetDate         *time.Time `json:"target_date"`
	Status             *string    `json:"status"`
	ProgressPercentage *int       `json:"progress_percentage"`
	LinkedInitiatives  []string   `json:"linked_initiatives"`
	Owner              *string    `json:"owner"`
	Stakeholders       []string   `json:"stakeholders"`
	SuccessMetrics     []string   `json:"success_metrics"`
	CurrentValue       *string    `json:"current_value"`
	TargetValue        *string    `json:"target_value"`
}

// NewGoal fills defaults on a goal being created and validates it. Priority
// defaults to medium and status to not_started.
func NewGoal(g Goal, now time.Time) (Goal, error) {
	if g.Priority == "" {
		g.Priority = PriorityMedium
	}
	if g.Status == "" {
		g.Status = GoalNotStarted
	}
	if g.TargetDate != nil {
		d := day(*g.TargetDate)
		g.TargetDate = &d
	}
	g.CreatedAt = now.UTC()
	g.UpdatedAt = g.CreatedAt
	return g.validate()
}

// Apply returns g with p applied and UpdatedAt moved to now.
func (g Goal) Apply(p GoalPatch, now time.Time) (Goal, error) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&g.Title, p.Title)
	set(&g.Description, p.Description)
	set(&g.Category, p.Category)
	set(&g.Priority, p.Priority)
	set(&g.Status, p.Status)
	set(&g.Owner, p.Owner)
	set(&g.CurrentValue, p.CurrentValue)
	set(&g.TargetValue, p.TargetValue)
	if p.ProgressPercentage != nil {
		g.ProgressPercentage = *p.ProgressPercentage
	}
	if p.TargetDate != nil {
		d := day(*p.TargetDate)
		g.TargetDate = &d
	}
	if p.LinkedInitiatives != nil {
		g.LinkedInitiatives = p.LinkedInitiatives
	}
	if p.Stakeholders != nil {
		g.Stakeholders = p.Stakeholders
	}
	if p.SuccessMetrics != nil {
		g.SuccessMetrics = p.SuccessMetrics
	}
	g.UpdatedAt = now.UTC()
	return g.validate()
}

func (g Goal) validate() (Goal, error) {
	g.Title = strings.TrimSpace(g.Title)
	g.Priority = normalize(g.Priority)
	g.Status = normalize(g.Status)

	var errs []error
	if g.CustomerID == "" {
		errs = append(errs, fmt.Errorf("%w: customer id is required", ErrInvalid))
	}
	if g.Title == "" {
		errs = append(errs, fmt.Errorf("%w: title is required", ErrInvalid))
	}
	if err := oneOf("priority", g.Priority, priorities); err != nil {
		errs = append(errs, err)
	}
	if err := oneOf("status", g.Status, goalStatuses); err != nil {
		errs = append(errs, err)
	}
	if g.ProgressPercentage < 0 || g.ProgressPercentage > 100 {
		errs = append(errs, fmt.Errorf("%w: progress_percentage %d is outside 0-100", ErrInvalid, g.ProgressPercentage))
	}
	if len(errs) > 0 {
		return Goal{}, errors.Join(errs...)
	}
	return g, nil
}
