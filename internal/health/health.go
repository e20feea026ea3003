// Package health implements append-only health metric logs with windowed,
// date-sorted reads.
package health

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hayatos/hayatos/internal/db"
	"github.com/hayatos/hayatos/internal/errs"
)

// DateLayout is the canonical date format for health logs.
const DateLayout = "2006-01-02"

// Log is one measurement of one metric on one date.
type Log struct {
	ID        string    `json:"id"`
	Metric    string    `json:"metric"`
	Value     float64   `json:"value"`
	Date      string    `json:"date"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateInput holds the writable fields for a new log entry.
type CreateInput struct {
	Metric string  `json:"metric"`
	Value  float64 `json:"value"`
	Date   string  `json:"date"`
	Note   string  `json:"note"`
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Service implements health log operations on a per-user database.
type Service struct {
	clock Clock
}

// NewService creates a health service.
func NewService() *Service {
	return &Service{clock: realClock{}}
}

// SetClock replaces the clock. Intended for testing.
func (s *Service) SetClock(c Clock) { s.clock = c }

// Add appends a log entry. Entries are never updated in place; corrections
// are new entries.
func (s *Service) Add(ctx context.Context, udb *db.UserDB, in CreateInput) (*Log, error) {
	if in.Metric == "" {
		return nil, errs.New(errs.InvalidArgument, "metric is required")
	}
	if in.Date == "" {
		in.Date = s.clock.Now().UTC().Format(DateLayout)
	} else if _, err := time.Parse(DateLayout, in.Date); err != nil {
		return nil, errs.New(errs.InvalidArgument, "date must be YYYY-MM-DD")
	}
	now := s.clock.Now()
	l := Log{
		ID:        uuid.NewString(),
		Metric:    in.Metric,
		Value:     in.Value,
		Date:      in.Date,
		Note:      in.Note,
		CreatedAt: now,
	}
	_, err := udb.DB().ExecContext(ctx, `
		INSERT INTO health_logs (id, metric, value, log_date, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		l.ID, l.Metric, l.Value, l.Date, l.Note, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("add health log: %w", err)
	}
	return &l, nil
}

// List returns logs sorted by date ascending. Metric and the [from, to]
// date window are optional filters.
func (s *Service) List(ctx context.Context, udb *db.UserDB, metric, from, to string) ([]Log, error) {
	query := `SELECT id, metric, value, log_date, note, created_at FROM health_logs WHERE 1=1`
	var args []any
	if metric != "" {
		query += ` AND metric = ?`
		args = append(args, metric)
	}
	if from != "" {
		query += ` AND log_date >= ?`
		args = append(args, from)
	}
	if to != "" {
		query += ` AND log_date <= ?`
		args = append(args, to)
	}
	query += ` ORDER BY log_date, created_at`

	rows, err := udb.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list health logs: %w", err)
	}
	defer rows.Close()

	out := []Log{}
	for rows.Next() {
		var l Log
		var createdAt int64
		if err := rows.Scan(&l.ID, &l.Metric, &l.Value, &l.Date, &l.Note, &createdAt); err != nil {
			return nil, fmt.Errorf("scan health log: %w", err)
		}
		l.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list health logs: %w", err)
	}
	return out, nil
}

// Delete removes a log entry. Kept for explicit user deletions; the module
// never rewrites history otherwise.
func (s *Service) Delete(ctx context.Context, udb *db.UserDB, id string) error {
	res, err := udb.DB().ExecContext(ctx, `DELETE FROM health_logs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete health log: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.New(errs.NotFound, "health log not found")
	}
	return nil
}
