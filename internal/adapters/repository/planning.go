package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/okian/clientiq/internal/domain/planning"
)

const planningSchema = `
CREATE TABLE IF NOT EXISTS goals (
	id          TEXT PRIMARY KEY,
	customer_id TEXT NOT NULL,
	status      TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	payload     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_goals_customer ON goals(customer_id, created_at);

CREATE TABLE IF NOT EXISTS action_items (
	id          TEXT PRIMARY KEY,
	customer_id TEXT NOT NULL,
	meeting_id  TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL,
	due_date    TEXT NOT NULL DEFAULT '',
	payload     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_action_items_customer ON action_items(customer_id, status);
`

func dateOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

// SaveGoal implements Store.
func (s *SQLiteStore) SaveGoal(ctx context.Context, g planning.Goal) (err error) {
	defer observe("save_goal", time.Now(), &err)
	if g.ID == "" || g.CustomerID == "" {
		return fmt.Errorf("%w: goal id and customer id are required", ErrInvalidInput)
	}
	payload, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("repository: encode goal: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO goals (id, customer_id, status, created_at, payload) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET status = excluded.status, payload = excluded.payload
		 WHERE goals.customer_id = excluded.customer_id`,
		g.ID, g.CustomerID, g.Status, formatTime(g.CreatedAt), string(payload))
	if err != nil {
		return fmt.Errorf("repository: save goal: %w", err)
	}
	return ownedBy(res, "goal", g.ID, g.CustomerID)
}

// Goal implements Store.
func (s *SQLiteStore) Goal(ctx context.Context, customerID, id string) (g planning.Goal, err error) {
	defer observe("goal", time.Now(), &err)
	var payload string
	err = s.db.QueryRowContext(ctx,
		`SELECT payload FROM goals WHERE customer_id = ? AND id = ?`, customerID, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return planning.Goal{}, fmt.Errorf("goal %s for customer %s: %w", id, customerID, ErrNotFound)
	}
	if err != nil {
		return planning.Goal{}, fmt.Errorf("repository: goal: %w", err)
	}
	if err := json.Unmarshal([]byte(payload), &g); err != nil {
		return planning.Goal{}, fmt.Errorf("repository: decode goal %s: %w", id, err)
	}
	return g, nil
}

// Goals implements Store.
func (s *SQLiteStore) Goals(ctx context.Context, customerID string) (out []planning.Goal, err error) {
	defer observe("goals", time.Now(), &err)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, payload FROM goals WHERE customer_id = ? ORDER BY created_at DESC, id`, customerID)
	if err != nil {
		return nil, fmt.Errorf("repository: goals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out = []planning.Goal{}
	for rows.Next() {
		var (
			id, payload string
			g           planning.Goal
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("repository: goals: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &g); err != nil {
			return nil, fmt.Errorf("repository: decode goal %s: %w", id, err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: goals: %w", err)
	}
	return out, nil
}

// DeleteGoal implements Store.
func (s *SQLiteStore) DeleteGoal(ctx context.Context, customerID, id string) (err error) {
	defer observe("delete_goal", time.Now(), &err)
	res, err := s.db.ExecContext(ctx, `DELETE FROM goals WHERE customer_id = ? AND id = ?`, customerID, id)
	if err != nil {
		return fmt.Errorf("repository: delete goal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("repository: delete goal: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("goal %s for customer %s: %w", id, customerID, ErrNotFound)
	}
	return nil
}

// SaveActionItem implements Store.
func (s *SQLiteStore) SaveActionItem(ctx context.Context, a planning.ActionItem) (err error) {
	defer observe("save_action_item", time.Now(), &err)
	if a.ID == "" || a.CustomerID == "" {
		return fmt.Errorf("%w: action item id and customer id are required", ErrInvalidInput)
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("repository: encode action item: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO action_items (id, customer_id, meeting_id, status, due_date, payload) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET meeting_id = excluded.meeting_id, status = excluded.status,
		   due_date = excluded.due_date, payload = excluded.payload
		 WHERE action_items.customer_id = excluded.customer_id`,
		a.ID, a.CustomerID, a.MeetingID, a.Status, dateOrEmpty(a.DueDate), string(payload))
	if err != nil {
		return fmt.Errorf("repository: save action item: %w", err)
	}
	return ownedBy(res, "action item", a.ID, a.CustomerID)
}

// ActionItem implements Store.
func (s *SQLiteStore) ActionItem(ctx context.Context, customerID, id string) (a planning.ActionItem, err error) {
	defer observe("action_item", time.Now(), &err)
	var payload string
	err = s.db.QueryRowContext(ctx,
		`SELECT payload FROM action_items WHERE customer_id = ? AND id = ?`, customerID, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return planning.ActionItem{}, fmt.Errorf("action item %s for customer %s: %w", id, customerID, ErrNotFound)
	}
	if err != nil {
		return planning.ActionItem{}, fmt.Errorf("repository: action item: %w", err)
	}
	if err := json.Unmarshal([]byte(payload), &a); err != nil {
		return planning.ActionItem{}, fmt.Errorf("repository: decode action item %s: %w", id, err)
	}
	return a, nil
}

// ActionItems implements Store.
func (s *SQLiteStore) ActionItems(ctx context.Context, customerID, status string) (out []planning.ActionItem, err error) {
	defer observe("action_items", time.Now(), &err)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, payload FROM action_items
		 WHERE customer_id = ? AND (? = '' OR status = ?)
		 ORDER BY due_date = '', due_date, id`, customerID, status, status)
	if err != nil {
		return nil, fmt.Errorf("repository: action items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out = []planning.ActionItem{}
	for rows.Next() {
		var (
			id, payload string
			a           planning.ActionItem
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("repository: action items: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &a); err != nil {
			return nil, fmt.Errorf("repository: decode action item %s: %w", id, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: action items: %w", err)
	}
	return out, nil
}
