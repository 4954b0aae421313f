// Package slottemplate persists the weekly recurring slot template the
// availability engine resolves against.
package slottemplate

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lunanails/booking-api/internal/schedule"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository reads and writes slot_template rows.
type Repository struct {
	db querier
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("slottemplate: pgx pool required")
	}
	return &Repository{db: pool}
}

func newRepositoryWithQuerier(db querier) *Repository {
	return &Repository{db: db}
}

// ListTemplate returns every template entry, ordered by weekday then time.
func (r *Repository) ListTemplate(ctx context.Context) ([]schedule.TemplateEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT day_of_week, to_char(time_of_day, 'HH24:MI:SS'), note
		FROM slot_template
		ORDER BY day_of_week, time_of_day`)
	if err != nil {
		return nil, fmt.Errorf("slottemplate: list: %w", err)
	}
	defer rows.Close()

	var out []schedule.TemplateEntry
	for rows.Next() {
		var (
			day  int16
			t    string
			note string
		)
		if err := rows.Scan(&day, &t, &note); err != nil {
			return nil, fmt.Errorf("slottemplate: scan: %w", err)
		}
		out = append(out, schedule.TemplateEntry{
			Day:  schedule.DayOfWeek(day),
			Time: schedule.TimeOfDay(t),
			Note: note,
		})
	}
	return out, rows.Err()
}

// ErrDuplicateEntry is returned when an entry for the same weekday and time
// already exists.
var ErrDuplicateEntry = errors.New("slottemplate: entry already exists")

// Add inserts a template entry.
func (r *Repository) Add(ctx context.Context, e schedule.TemplateEntry) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO slot_template (day_of_week, time_of_day, note)
		VALUES ($1, $2::time, $3)`,
		int16(e.Day), string(e.Time), e.Note)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEntry
		}
		return fmt.Errorf("slottemplate: add: %w", err)
	}
	return nil
}

// Remove deletes the entry for the given weekday and time. Removing a missing
// entry is not an error.
func (r *Repository) Remove(ctx context.Context, day schedule.DayOfWeek, t schedule.TimeOfDay) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM slot_template WHERE day_of_week = $1 AND time_of_day = $2::time`,
		int16(day), string(t))
	if err != nil {
		return fmt.Errorf("slottemplate: remove: %w", err)
	}
	return nil
}
