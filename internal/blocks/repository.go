// Package blocks persists admin-declared schedule exceptions: whole days or
// individual slots removed from availability independent of appointments.
package blocks

import (
	"context"
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

// Repository reads and writes blocked_schedule rows.
type Repository struct {
	db querier
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("blocks: pgx pool required")
	}
	return &Repository{db: pool}
}

func newRepositoryWithQuerier(db querier) *Repository {
	return &Repository{db: db}
}

// ListBlocks implements schedule.BlockSource: every blocked entry whose date
// falls in [from, to].
func (r *Repository) ListBlocks(ctx context.Context, from, to schedule.Date) ([]schedule.Block, error) {
	rows, err := r.db.Query(ctx, `
		SELECT blocked_date::text, to_char(blocked_time, 'HH24:MI:SS')
		FROM blocked_schedule
		WHERE blocked_date BETWEEN $1::date AND $2::date
		ORDER BY blocked_date, blocked_time NULLS FIRST`,
		from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("blocks: list: %w", err)
	}
	defer rows.Close()

	var out []schedule.Block
	for rows.Next() {
		var (
			dateStr string
			timeStr *string
		)
		if err := rows.Scan(&dateStr, &timeStr); err != nil {
			return nil, fmt.Errorf("blocks: scan: %w", err)
		}
		d, err := schedule.ParseDate(dateStr)
		if err != nil {
			return nil, err
		}
		b := schedule.Block{Date: d}
		if timeStr != nil {
			t := schedule.TimeOfDay(*timeStr)
			b.Time = &t
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Block inserts a blocked entry. A nil t blocks the whole day. Duplicate
// inserts are ignored so the admin action is idempotent.
func (r *Repository) Block(ctx context.Context, d schedule.Date, t *schedule.TimeOfDay) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO blocked_schedule (blocked_date, blocked_time)
		VALUES ($1::date, $2::time)
		ON CONFLICT DO NOTHING`,
		d.String(), timeArg(t))
	if err != nil {
		return fmt.Errorf("blocks: block %s: %w", d, err)
	}
	return nil
}

// Unblock deletes the matching entry. Unblocking the whole day (nil t) only
// removes the whole-day row; slot-level blocks for the same date stay in
// place and must be cleared individually.
func (r *Repository) Unblock(ctx context.Context, d schedule.Date, t *schedule.TimeOfDay) error {
	var err error
	if t == nil {
		_, err = r.db.Exec(ctx, `
			DELETE FROM blocked_schedule WHERE blocked_date = $1::date AND blocked_time IS NULL`,
			d.String())
	} else {
		_, err = r.db.Exec(ctx, `
			DELETE FROM blocked_schedule WHERE blocked_date = $1::date AND blocked_time = $2::time`,
			d.String(), string(*t))
	}
	if err != nil {
		return fmt.Errorf("blocks: unblock %s: %w", d, err)
	}
	return nil
}

func timeArg(t *schedule.TimeOfDay) any {
	if t == nil {
		return nil
	}
	return string(*t)
}
