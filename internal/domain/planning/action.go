package planning

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ActionItem is a follow-up owed by the MSP or the client.
type ActionItem struct {
	ID            string     `json:"id"`
	CustomerID    string     `json:"customer_id"`
	MeetingID     string     `json:"meeting_id,omitempty"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Priority      string     `json:"priority"`
	AssignedTo    string     `json:"assigned_to,omitempty"`
	AssignedBy    string     `json:"assigned_by,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	CompletedDate *time.Time `json:"completed_date,omitempty"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ActionItemPatch holds the fields an update sets. Nil fields are kept.
type ActionItemPatch struct {
	Title      *string    `json:"title"`
	Status     *string    `json:"status"`
	Priority   *string    `json:"priority"`
	AssignedTo *string    `json:"assigned_to"`
	DueDate    *time.Time `json:"due_date"`
}

// NewActionItem validates an item being created. New items are always
// open and priority defaults to medium.
func NewActionItem(a ActionItem, now time.Time) (ActionItem, error) {
	if a.Priority == "" {
		a.Priority = PriorityMedium
	}
	a.Status = ItemOpen
	a.CompletedDate = nil
	if a.DueDate != nil {
		d := day(*a.DueDate)
		a.DueDate = &d
	}
	a.CreatedAt = now.UTC()
	a.UpdatedAt = a.CreatedAt
	return a.validate()
}

// Apply returns a with p applied. Moving an item to completed stamps
// CompletedDate with today's date unless it is already set.
func (a ActionItem) Apply(p ActionItemPatch, now time.Time) (ActionItem, error) {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.Priority != nil {
		a.Priority = *p.Priority
	}
	if p.AssignedTo != nil {
		a.AssignedTo = *p.AssignedTo
	}
	if p.DueDate != nil {
		d := day(*p.DueDate)
		a.DueDate = &d
	}
	if normalize(a.Status) == ItemCompleted && a.CompletedDate == nil {
		d := day(now)
		a.CompletedDate = &d
	}
	a.UpdatedAt = now.UTC()
	return a.validate()
}

func (a ActionItem) validate() (ActionItem, error) {
	a.Title = strings.TrimSpace(a.Title)
	a.Priority = normalize(a.Priority)
	a.Status = normalize(a.Status)

	var errs []error
	if a.CustomerID == "" {
		errs = append(errs, fmt.Errorf("%w: customer id is required", ErrInvalid))
	}
	if a.Title == "" {
		errs = append(errs, fmt.Errorf("%w: title is required", ErrInvalid))
	}
	if err := oneOf("priority", a.Priority, priorities); err != nil {
		errs = append(errs, err)
	}
	if err := oneOf("status", a.Status, itemStatuses); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return ActionItem{}, errors.Join(errs...)
	}
	return a, nil
}

// ValidItemStatus reports whether s names an action item status.
func ValidItemStatus(s string) bool {
	return oneOf("status", s, itemStatuses) == nil
}
