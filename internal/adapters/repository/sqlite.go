package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/clientiq/internal/domain/model"
	"github.com/okian/clientiq/internal/domain/segmentation"
	"github.com/okian/clientiq/pkg/metrics"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open //nolint:gochecknoglobals // test seam

const schema = `
CREATE TABLE IF NOT EXISTS reviews (
	id            TEXT PRIMARY KEY,
	customer_id   TEXT NOT NULL,
	customer_name TEXT NOT NULL DEFAULT '',
	industry      TEXT NOT NULL DEFAULT '',
	generated_at  TEXT NOT NULL,
	overall_score REAL NOT NULL,
	payload       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reviews_customer ON reviews(customer_id, generated_at);

CREATE TABLE IF NOT EXISTS agreements (
	id          TEXT PRIMARY KEY,
	customer_id TEXT NOT NULL,
	name        TEXT NOT NULL DEFAULT '',
	monthly_mrr REAL NOT NULL DEFAULT 0,
	status      TEXT NOT NULL,
	start_date  TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_agreements_customer ON agreements(customer_id);

CREATE TABLE IF NOT EXISTS meetings (
	id             TEXT PRIMARY KEY,
	customer_id    TEXT NOT NULL,
	title          TEXT NOT NULL DEFAULT '',
	scheduled_date TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_meetings_customer ON meetings(customer_id);

CREATE TABLE IF NOT EXISTS segmentations (
	customer_id     TEXT PRIMARY KEY,
	tier            TEXT NOT NULL,
	total_mrr       REAL NOT NULL,
	health_score    INTEGER NOT NULL,
	risk_level      TEXT NOT NULL,
	last_calculated TEXT NOT NULL,
	payload         TEXT NOT NULL
);
`

// SQLiteStore implements Store on SQLite.
type SQLiteStore struct {
	db            *sql.DB
	busyTimeoutMS int
	maxListLimit  int
}

// Open opens (creating if needed) the SQLite database at path and migrates
// the schema. ":memory:" gives a private in-process database.
func Open(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("repository: create data dir: %w", err)
			}
		}
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("repository: open database: %w", err)
	}
	// one connection keeps :memory: databases shared and serializes writers
	db.SetMaxOpenConns(1)

	s := newStore(db, opts...)
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", s.busyTimeoutMS),
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("repository: pragma %q: %w", p, err)
		}
	}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// FromDB wraps an already open database whose schema is migrated.
func FromDB(db *sql.DB, opts ...Option) *SQLiteStore {
	return newStore(db, opts...)
}

func newStore(db *sql.DB, opts ...Option) *SQLiteStore {
	s := &SQLiteStore{
		db:            db,
		busyTimeoutMS: defaultBusyTimeoutMS,
		maxListLimit:  defaultMaxListLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates missing tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	for _, stmt := range []string{schema, planningSchema, customerSchema} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("repository: migration: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// observe records latency and failures per operation.
func observe(op string, start time.Time, err *error) {
	if *err != nil && !errors.Is(*err, ErrNotFound) && !errors.Is(*err, ErrConflict) {
		metrics.RecordRepositoryError(op)
		metrics.RecordErrorByComponent("repository", op)
	}
	metrics.RecordRepositoryQueryLatency(op, float64(time.Since(start).Microseconds())/1000)
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, s)
}

// SaveReview implements Store.
func (s *SQLiteStore) SaveReview(ctx context.Context, run ReviewRun) (err error) {
	defer observe("save_review", time.Now(), &err)
	if run.ID == "" || run.CustomerID == "" {
		return fmt.Errorf("%w: review id and customer id are required", ErrInvalidInput)
	}
	if !json.Valid(run.Payload) {
		return fmt.Errorf("%w: review payload is not valid JSON", ErrInvalidInput)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reviews (id, customer_id, customer_name, industry, generated_at, overall_score, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CustomerID, run.CustomerName, run.Industry,
		formatTime(run.GeneratedAt), run.OverallScore, string(run.Payload))
	if err != nil {
		return fmt.Errorf("repository: save review: %w", err)
	}
	return nil
}

const reviewColumns = `id, customer_id, customer_name, industry, generated_at, overall_score, payload`

type scanner interface {
	Scan(dest ...any) error
}

func scanReview(row scanner) (ReviewRun, error) {
	var (
		run       ReviewRun
		generated string
		payload   string
	)
	if err := row.Scan(&run.ID, &run.CustomerID, &run.CustomerName, &run.Industry, &generated, &run.OverallScore, &payload); err != nil {
		return ReviewRun{}, err
	}
	t, err := parseTime(generated)
	if err != nil {
		return ReviewRun{}, fmt.Errorf("review %s generated_at: %w", run.ID, err)
	}
	run.GeneratedAt = t
	run.Payload = json.RawMessage(payload)
	return run, nil
}

// LatestReview implements Store.
func (s *SQLiteStore) LatestReview(ctx context.Context, customerID string) (run ReviewRun, err error) {
	defer observe("latest_review", time.Now(), &err)
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE customer_id = ?
		 ORDER BY generated_at DESC, id DESC LIMIT 1`, customerID)
	run, err = scanReview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ReviewRun{}, fmt.Errorf("review for customer %s: %w", customerID, ErrNotFound)
	}
	if err != nil {
		return ReviewRun{}, fmt.Errorf("repository: latest review: %w", err)
	}
	return run, nil
}

// ListReviews implements Store.
func (s *SQLiteStore) ListReviews(ctx context.Context, customerID string, limit int) (runs []ReviewRun, err error) {
	defer observe("list_reviews", time.Now(), &err)
	if limit <= 0 || limit > s.maxListLimit {
		return nil, fmt.Errorf("%w: %d (allowed 1-%d)", ErrInvalidLimit, limit, s.maxListLimit)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE customer_id = ?
		 ORDER BY generated_at DESC, id DESC LIMIT ?`, customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("repository: list reviews: %w", err)
	}
	defer func() { _ = rows.Close() }()

	runs = []ReviewRun{}
	for rows.Next() {
		run, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: list reviews: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: list reviews: %w", err)
	}
	return runs, nil
}

// ReportSummaries implements Store.
func (s *SQLiteStore) ReportSummaries(ctx context.Context, customerID string) (out []model.ReportSummary, err error) {
	defer observe("report_summaries", time.Now(), &err)
	rows, err := s.db.QueryContext(ctx,
		`SELECT generated_at, overall_score FROM reviews WHERE customer_id = ? ORDER BY generated_at`, customerID)
	if err != nil {
		return nil, fmt.Errorf("repository: report summaries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out = []model.ReportSummary{}
	for rows.Next() {
		var (
			generated string
			score     float64
		)
		if err := rows.Scan(&generated, &score); err != nil {
			return nil, fmt.Errorf("repository: report summaries: %w", err)
		}
		t, err := parseTime(generated)
		if err != nil {
			return nil, fmt.Errorf("repository: report summaries: %w", err)
		}
		out = append(out, model.ReportSummary{GeneratedAt: t, OverallScore: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: report summaries: %w", err)
	}
	return out, nil
}

// ownedBy turns an upsert that touched no row into ErrConflict. The upserts
// only update rows that already belong to the same customer.
func ownedBy(res sql.Result, kind, id, customerID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("repository: save %s: %w", kind, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %s belongs to another customer than %s", ErrConflict, kind, id, customerID)
	}
	return nil
}

// SaveAgreement implements Store.
func (s *SQLiteStore) SaveAgreement(ctx context.Context, a model.Agreement) (err error) {
	defer observe("save_agreement", time.Now(), &err)
	if a.ID == "" || a.CustomerID == "" || a.Status == "" {
		return fmt.Errorf("%w: agreement id, customer id and status are required", ErrInvalidInput)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO agreements (id, customer_id, name, monthly_mrr, status, start_date)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, monthly_mrr = excluded.monthly_mrr,
		   status = excluded.status, start_date = excluded.start_date
		 WHERE agreements.customer_id = excluded.customer_id`,
		a.ID, a.CustomerID, a.Name, a.MonthlyMRR, a.Status, formatTime(a.StartDate))
	if err != nil {
		return fmt.Errorf("repository: save agreement: %w", err)
	}
	return ownedBy(res, "agreement", a.ID, a.CustomerID)
}

// Agreements implements Store.
func (s *SQLiteStore) Agreements(ctx context.Context, customerID string) (out []model.Agreement, err error) {
	defer observe("agreements", time.Now(), &err)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, customer_id, name, monthly_mrr, status, start_date FROM agreements
		 WHERE customer_id = ? ORDER BY start_date, id`, customerID)
	if err != nil {
		return nil, fmt.Errorf("repository: agreements: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out = []model.Agreement{}
	for rows.Next() {
		var (
			a     model.Agreement
			start string
		)
		if err := rows.Scan(&a.ID, &a.CustomerID, &a.Name, &a.MonthlyMRR, &a.Status, &start); err != nil {
			return nil, fmt.Errorf("repository: agreements: %w", err)
		}
		if a.StartDate, err = parseTime(start); err != nil {
			return nil, fmt.Errorf("repository: agreement %s start_date: %w", a.ID, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: agreements: %w", err)
	}
	return out, nil
}

// SaveMeeting implements Store.
func (s *SQLiteStore) SaveMeeting(ctx context.Context, m model.Meeting) (err error) {
	defer observe("save_meeting", time.Now(), &err)
	if m.ID == "" || m.CustomerID == "" || m.ScheduledDate.IsZero() {
		return fmt.Errorf("%w: meeting id, customer id and scheduled date are required", ErrInvalidInput)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO meetings (id, customer_id, title, scheduled_date) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET title = excluded.title, scheduled_date = excluded.scheduled_date
		 WHERE meetings.customer_id = excluded.customer_id`,
		m.ID, m.CustomerID, m.Title, formatTime(m.ScheduledDate))
	if err != nil {
		return fmt.Errorf("repository: save meeting: %w", err)
	}
	return ownedBy(res, "meeting", m.ID, m.CustomerID)
}

// Meetings implements Store.
func (s *SQLiteStore) Meetings(ctx context.Context, customerID string) (out []model.Meeting, err error) {
	defer observe("meetings", time.Now(), &err)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, customer_id, title, scheduled_date FROM meetings
		 WHERE customer_id = ? ORDER BY scheduled_date, id`, customerID)
	if err != nil {
		return nil, fmt.Errorf("repository: meetings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out = []model.Meeting{}
	for rows.Next() {
		var (
			m         model.Meeting
			scheduled string
		)
		if err := rows.Scan(&m.ID, &m.CustomerID, &m.Title, &scheduled); err != nil {
			return nil, fmt.Errorf("repository: meetings: %w", err)
		}
		if m.ScheduledDate, err = parseTime(scheduled); err != nil {
			return nil, fmt.Errorf("repository: meeting %s scheduled_date: %w", m.ID, err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: meetings: %w", err)
	}
	return out, nil
}

// SaveSegmentation implements Store.
func (s *SQLiteStore) SaveSegmentation(ctx context.Context, r segmentation.Record) (err error) {
	defer observe("save_segmentation", time.Now(), &err)
	if r.CustomerID == "" {
		return fmt.Errorf("%w: segmentation customer id is required", ErrInvalidInput)
	}
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("repository: encode segmentation: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO segmentations (customer_id, tier, total_mrr, health_score, risk_level, last_calculated, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(customer_id) DO UPDATE SET tier = excluded.tier, total_mrr = excluded.total_mrr,
		   health_score = excluded.health_score, risk_level = excluded.risk_level,
		   last_calculated = excluded.last_calculated, payload = excluded.payload`,
		r.CustomerID, string(r.Tier), r.TotalMRR, r.HealthScore, r.RiskLevel, formatTime(r.LastCalculated), string(payload))
	if err != nil {
		return fmt.Errorf("repository: save segmentation: %w", err)
	}
	return nil
}

func decodeSegmentation(payload string) (segmentation.Record, error) {
	var r segmentation.Record
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return segmentation.Record{}, fmt.Errorf("decode segmentation: %w", err)
	}
	return r, nil
}

// Segmentation implements Store.
func (s *SQLiteStore) Segmentation(ctx context.Context, customerID string) (r segmentation.Record, err error) {
	defer observe("segmentation", time.Now(), &err)
	var payload string
	err = s.db.QueryRowContext(ctx, `SELECT payload FROM segmentations WHERE customer_id = ?`, customerID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return segmentation.Record{}, fmt.Errorf("segmentation for customer %s: %w", customerID, ErrNotFound)
	}
	if err != nil {
		return segmentation.Record{}, fmt.Errorf("repository: segmentation: %w", err)
	}
	return decodeSegmentation(payload)
}

// ListSegmentations implements Store.
func (s *SQLiteStore) ListSegmentations(ctx context.Context) (out []segmentation.Record, err error) {
	defer observe("list_segmentations", time.Now(), &err)
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM segmentations ORDER BY total_mrr DESC, customer_id`)
	if err != nil {
		return nil, fmt.Errorf("repository: list segmentations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out = []segmentation.Record{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("repository: list segmentations: %w", err)
		}
		r, err := decodeSegmentation(payload)
		if err != nil {
			return nil, fmt.Errorf("repository: list segmentations: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: list segmentations: %w", err)
	}
	return out, nil
}

var _ Store = (*SQLiteStore)(nil)
