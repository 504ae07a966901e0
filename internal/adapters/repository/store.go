// Package repository persists review runs, agreements, meetings,
// segmentation records, client goals, action items and the imported
// customer roster.
package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/okian/clientiq/internal/domain/model"
	"github.com/okian/clientiq/internal/domain/planning"
	"github.com/okian/clientiq/internal/domain/segmentation"
)

// ReviewRun is one stored business review. Payload holds the full review
// document; the other fields are indexed copies.
type ReviewRun struct {
	ID           string          `json:"id"`
	CustomerID   string          `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	Industry     string          `json:"industry"`
	GeneratedAt  time.Time       `json:"generated_at"`
	OverallScore float64         `json:"overall_score"` // 0-100
	Payload      json.RawMessage `json:"payload"`
}

// Store provides read/write access to persisted state.
type Store interface {
	SaveReview(ctx context.Context, run ReviewRun) error
	// LatestReview returns ErrNotFound when the customer has no reviews.
	LatestReview(ctx context.Context, customerID string) (ReviewRun, error)
	// ListReviews returns up to limit reviews, newest first.
	ListReviews(ctx context.Context, customerID string, limit int) ([]ReviewRun, error)
	// ReportSummaries returns the score history segmentation reads.
	ReportSummaries(ctx context.Context, customerID string) ([]model.ReportSummary, error)

	// SaveAgreement inserts or replaces an agreement by id. An id owned by
	// another customer fails with ErrConflict.
	SaveAgreement(ctx context.Context, a model.Agreement) error
	Agreements(ctx context.Context, customerID string) ([]model.Agreement, error)
	// SaveMeeting inserts or replaces a meeting by id, with the same
	// ownership rule as SaveAgreement.
	SaveMeeting(ctx context.Context, m model.Meeting) error
	Meetings(ctx context.Context, customerID string) ([]model.Meeting, error)

	// SaveSegmentation overwrites the customer's single segmentation row.
	SaveSegmentation(ctx context.Context, r segmentation.Record) error
	// Segmentation returns ErrNotFound when the customer was never segmented.
	Segmentation(ctx context.Context, customerID string) (segmentation.Record, error)
	// ListSegmentations returns every record ordered by MRR, highest first.
	ListSegmentations(ctx context.Context) ([]segmentation.Record, error)

	// SaveGoal inserts or replaces a goal by id, with the same ownership
	// rule as SaveAgreement.
	SaveGoal(ctx context.Context, g planning.Goal) error
	// Goal returns ErrNotFound unless customerID owns the goal.
	Goal(ctx context.Context, customerID, id string) (planning.Goal, error)
	// Goals returns the customer's goals, newest first.
	Goals(ctx context.Context, customerID string) ([]planning.Goal, error)
	DeleteGoal(ctx context.Context, customerID, id string) error

	SaveActionItem(ctx context.Context, a planning.ActionItem) error
	ActionItem(ctx context.Context, customerID, id string) (planning.ActionItem, error)
	// ActionItems filters by status unless it is empty and orders by due
	// date, undated items last.
	ActionItems(ctx context.Context, customerID, status string) ([]planning.ActionItem, error)

	// SaveCustomer upserts a roster entry and reports whether it was new.
	SaveCustomer(ctx context.Context, c model.Customer, importedAt time.Time) (bool, error)
	Customer(ctx context.Context, id string) (model.Customer, error)
	// Customers returns the roster ordered by name.
	Customers(ctx context.Context) ([]model.Customer, error)

	Close() error
}
