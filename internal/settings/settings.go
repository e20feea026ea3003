// Package settings persists per-user configuration documents: note
// folders, reminder lists, health metrics, and the finance category
// taxonomy. Each section is one JSON document keyed by name.
package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hayatos/hayatos/internal/db"
	"github.com/hayatos/hayatos/internal/errs"
)

// Known sections.
const (
	SectionNoteFolders       = "noteFolders"
	SectionReminderLists     = "reminderLists"
	SectionHealthMetrics     = "healthMetrics"
	SectionFinanceCategories = "financeCategories"
)

// Category is a stable identifier with a display label. Budget matching
// still accepts the historical free-text forms; new data references IDs.
type Category struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Metric describes one tracked health metric.
type Metric struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Unit  string `json:"unit"`
}

// defaults returns the starting document for a known section, or nil.
func defaults(section string) any {
	switch section {
	case SectionNoteFolders:
		return []string{"all", "personal", "work", "ideas", "trash"}
	case SectionReminderLists:
		return []string{"personal", "work", "shopping"}
	case SectionHealthMetrics:
		return []Metric{
			{ID: "weight", Label: "Weight", Unit: "kg"},
			{ID: "sleep", Label: "Sleep", Unit: "h"},
			{ID: "water", Label: "Water", Unit: "L"},
			{ID: "steps", Label: "Steps", Unit: ""},
		}
	case SectionFinanceCategories:
		return []Category{
			{ID: "food", Label: "Food & Dining"},
			{ID: "transport", Label: "Transportation"},
			{ID: "fun", Label: "Entertainment"},
			{ID: "bills", Label: "Bills & Utilities"},
			{ID: "health", Label: "Health"},
			{ID: "shopping", Label: "Shopping"},
			{ID: "other", Label: "Other"},
		}
	}
	return nil
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Service implements settings operations on a per-user database.
type Service struct {
	clock Clock
}

// NewService creates a settings service.
func NewService() *Service {
	return &Service{clock: realClock{}}
}

// SetClock replaces the clock. Intended for testing.
func (s *Service) SetClock(c Clock) { s.clock = c }

// Get returns one section's document, falling back to the built-in default
// for known sections that were never written.
func (s *Service) Get(ctx context.Context, udb *db.UserDB, section string) (json.RawMessage, error) {
	var value string
	err := udb.DB().QueryRowContext(ctx,
		`SELECT value FROM settings WHERE section = ?`, section).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		d := defaults(section)
		if d == nil {
			return nil, errs.New(errs.NotFound, "unknown settings section")
		}
		raw, merr := json.Marshal(d)
		if merr != nil {
			return nil, fmt.Errorf("marshal default %s: %w", section, merr)
		}
		return raw, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings %s: %w", section, err)
	}
	return json.RawMessage(value), nil
}

// GetAll returns every section, defaults filled in for known sections
// without a stored document.
func (s *Service) GetAll(ctx context.Context, udb *db.UserDB) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage)
	for _, section := range []string{
		SectionNoteFolders, SectionReminderLists, SectionHealthMetrics, SectionFinanceCategories,
	} {
		raw, merr := json.Marshal(defaults(section))
		if merr != nil {
			return nil, fmt.Errorf("marshal default %s: %w", section, merr)
		}
		out[section] = raw
	}

	rows, err := udb.DB().QueryContext(ctx, `SELECT section, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var section, value string
		if err := rows.Scan(&section, &value); err != nil {
			return nil, fmt.Errorf("scan settings: %w", err)
		}
		out[section] = json.RawMessage(value)
	}
	return out, rows.Err()
}

// Put stores one section's document. The value must be valid JSON.
func (s *Service) Put(ctx context.Context, udb *db.UserDB, section string, value json.RawMessage) error {
	if section == "" {
		return errs.New(errs.InvalidArgument, "settings section is required")
	}
	if !json.Valid(value) {
		return errs.New(errs.InvalidArgument, "settings value must be valid JSON")
	}
	_, err := udb.DB().ExecContext(ctx, `
		INSERT INTO settings (section, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(section) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		section, string(value), s.clock.Now().Unix())
	if err != nil {
		return fmt.Errorf("put settings %s: %w", section, err)
	}
	return nil
}

// Delete removes a stored section, reverting known sections to defaults.
func (s *Service) Delete(ctx context.Context, udb *db.UserDB, section string) error {
	_, err := udb.DB().ExecContext(ctx, `DELETE FROM settings WHERE section = ?`, section)
	if err != nil {
		return fmt.Errorf("delete settings %s: %w", section, err)
	}
	return nil
}
