// Package planning tracks what a client is working towards between reviews:
// business goals with progress and the action items agreed in meetings.
package planning

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// ErrInvalid reports a goal or action item that breaks a field rule.
var ErrInvalid = errors.New("invalid planning record")

// Priorities shared by goals and action items.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Goal statuses.
const (
	GoalNotStarted = "not_started"
	GoalInProgress = "in_progress"
	GoalCompleted  = "completed"
	GoalOnHold     = "on_hold"
)

// Action item statuses.
const (
	ItemOpen       = "open"
	ItemInProgress = "in_progress"
	ItemCompleted  = "completed"
	ItemCancelled  = "cancelled"
)

var (
	priorities   = []string{PriorityHigh, PriorityMedium, PriorityLow}
	goalStatuses = []string{GoalNotStarted, GoalInProgress, GoalCompleted, GoalOnHold}
	itemStatuses = []string{ItemOpen, ItemInProgress, ItemCompleted, ItemCancelled}
)

func oneOf(field, v string, allowed []string) error {
	if !slices.Contains(allowed, v) {
		return fmt.Errorf("%w: %s %q is not one of %s", ErrInvalid, field, v, strings.Join(allowed, ", "))
	}
	return nil
}

func normalize(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// day keeps the calendar date of t in its own zone, at UTC midnight.
func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
