package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/okian/clientiq/internal/domain/model"
)

const customerSchema = `
CREATE TABLE IF NOT EXISTS customers (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	industry    TEXT NOT NULL DEFAULT '',
	imported_at TEXT NOT NULL,
	payload     TEXT NOT NULL
);
`

// SaveCustomer implements Store.
func (s *SQLiteStore) SaveCustomer(ctx context.Context, c model.Customer, importedAt time.Time) (created bool, err error) {
	defer observe("save_customer", time.Now(), &err)
	if c.ID == "" {
		return false, fmt.Errorf("%w: customer id is required", ErrInvalidInput)
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return false, fmt.Errorf("repository: encode customer: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO customers (id, name, industry, imported_at, payload) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		c.ID, c.Name, c.Industry, formatTime(importedAt), string(payload))
	if err != nil {
		return false, fmt.Errorf("repository: save customer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("repository: save customer: %w", err)
	}
	if n == 1 {
		return true, nil
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE customers SET name = ?, industry = ?, imported_at = ?, payload = ? WHERE id = ?`,
		c.Name, c.Industry, formatTime(importedAt), string(payload), c.ID)
	if err != nil {
		return false, fmt.Errorf("repository: update customer: %w", err)
	}
	return false, nil
}

// Customer implements Store.
func (s *SQLiteStore) Customer(ctx context.Context, id string) (c model.Customer, err error) {
	defer observe("customer", time.Now(), &err)
	var payload string
	err = s.db.QueryRowContext(ctx, `SELECT payload FROM customers WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Customer{}, fmt.Errorf("customer %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Customer{}, fmt.Errorf("repository: customer: %w", err)
	}
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return model.Customer{}, fmt.Errorf("repository: decode customer %s: %w", id, err)
	}
	return c, nil
}

// Customers implements Store.
func (s *SQLiteStore) Customers(ctx context.Context) (out []model.Customer, err error) {
	defer observe("customers", time.Now(), &err)
	rows, err := s.db.QueryContext(ctx, `SELECT id, payload FROM customers ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("repository: customers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out = []model.Customer{}
	for rows.Next() {
		var (
			id, payload string
			c           model.Customer
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("repository: customers: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &c); err != nil {
			return nil, fmt.Errorf("repository: decode customer %s: %w", id, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: customers: %w", err)
	}
	return out, nil
}
