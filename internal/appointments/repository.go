package appointments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lunanails/booking-api/internal/schedule"
)

// ErrNotFound is returned when no appointment matches the lookup.
var ErrNotFound = errors.New("appointments: not found")

// ErrInvalidTransition is returned when a status change is not allowed from
// the appointment's current state.
var ErrInvalidTransition = errors.New("appointments: invalid status transition")

type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository persists appointments. All writes that can affect slot occupancy
// run inside a transaction that rechecks the slot first; the partial unique
// index on (scheduled_date, scheduled_time) for occupying statuses is the
// authoritative backstop for the race the recheck cannot fully close.
type Repository struct {
	db db
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &Repository{db: pool}
}

func newRepositoryWithDB(db db) *Repository {
	return &Repository{db: db}
}

const apptColumns = `
	id, client_name, client_email, client_phone, service, design_image_key,
	scheduled_date::text, to_char(scheduled_time, 'HH24:MI:SS'),
	status, is_rescheduled, payment_ref, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var (
		a       Appointment
		dateStr string
		timeStr string
		status  string
	)
	err := row.Scan(&a.ID, &a.ClientName, &a.ClientEmail, &a.ClientPhone, &a.Service,
		&a.DesignImageKey, &dateStr, &timeStr, &status, &a.IsRescheduled,
		&a.PaymentRef, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: scan: %w", err)
	}
	d, err := schedule.ParseDate(dateStr)
	if err != nil {
		return nil, err
	}
	a.ScheduledDate = d
	a.ScheduledTime = schedule.TimeOfDay(timeStr)
	a.Status = Status(status)
	return &a, nil
}

// Get loads one appointment by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `SELECT`+apptColumns+` FROM appointments WHERE id = $1`, id)
	return scanAppointment(row)
}

// ListOccupied implements schedule.AppointmentSource: the slots held by
// scheduled/completed appointments in [from, to].
func (r *Repository) ListOccupied(ctx context.Context, from, to schedule.Date) ([]schedule.SlotKey, error) {
	rows, err := r.db.Query(ctx, `
		SELECT scheduled_date::text, to_char(scheduled_time, 'HH24:MI:SS')
		FROM appointments
		WHERE scheduled_date BETWEEN $1::date AND $2::date
		  AND status IN ('scheduled', 'completed')`,
		from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("appointments: list occupied: %w", err)
	}
	defer rows.Close()

	var out []schedule.SlotKey
	for rows.Next() {
		var dateStr, timeStr string
		if err := rows.Scan(&dateStr, &timeStr); err != nil {
			return nil, fmt.Errorf("appointments: scan occupied: %w", err)
		}
		d, err := schedule.ParseDate(dateStr)
		if err != nil {
			return nil, err
		}
		out = append(out, schedule.SlotKey{Date: d, Time: schedule.TimeOfDay(timeStr)})
	}
	return out, rows.Err()
}

// ListRange returns every appointment scheduled in [from, to], newest first,
// for the admin dashboard.
func (r *Repository) ListRange(ctx context.Context, from, to schedule.Date) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT`+apptColumns+`
		FROM appointments
		WHERE scheduled_date BETWEEN $1::date AND $2::date
		ORDER BY scheduled_date DESC, scheduled_time DESC`,
		from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("appointments: list range: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	if out == nil {
		out = []Appointment{}
	}
	return out, rows.Err()
}

// slotStillOpen is the authoritative single-slot recheck, run against the
// transaction that will perform the write. True only when the slot exists in
// the template for that weekday, is not blocked (whole-day or slot-level) and
// has no occupying appointment. Any query error reports the slot as closed;
// a fetch failure must never let a booking through.
func slotStillOpen(ctx context.Context, q pgx.Tx, d schedule.Date, t schedule.TimeOfDay) (bool, error) {
	var open bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM slot_template
			WHERE day_of_week = EXTRACT(DOW FROM $1::date)::smallint
			  AND time_of_day = $2::time
		)
		AND NOT EXISTS (
			SELECT 1 FROM blocked_schedule
			WHERE blocked_date = $1::date
			  AND (blocked_time IS NULL OR blocked_time = $2::time)
		)
		AND NOT EXISTS (
			SELECT 1 FROM appointments
			WHERE scheduled_date = $1::date
			  AND scheduled_time = $2::time
			  AND status IN ('scheduled', 'completed')
		)`,
		d.String(), string(t)).Scan(&open)
	if err != nil {
		return false, fmt.Errorf("appointments: slot recheck: %w", err)
	}
	return open, nil
}

// CreateHold inserts a pending (unpaid) appointment after rechecking that the
// target slot is still open. The hold itself does not occupy the slot; the
// occupancy fight happens at payment confirmation.
func (r *Repository) CreateHold(ctx context.Context, a *Appointment) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("appointments: begin hold: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	open, err := slotStillOpen(ctx, tx, a.ScheduledDate, a.ScheduledTime)
	if err != nil {
		return err
	}
	if !open {
		return schedule.ErrSlotUnavailable
	}

	a.Status = StatusPending
	_, err = tx.Exec(ctx, `
		INSERT INTO appointments
			(id, client_name, client_email, client_phone, service, design_image_key,
			 scheduled_date, scheduled_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7::date, $8::time, $9)`,
		a.ID, a.ClientName, a.ClientEmail, a.ClientPhone, a.Service, a.DesignImageKey,
		a.ScheduledDate.String(), string(a.ScheduledTime), string(a.Status))
	if err != nil {
		return fmt.Errorf("appointments: insert hold: %w", err)
	}
	return tx.Commit(ctx)
}

// ConfirmPayment flips a pending hold to scheduled once payment succeeds.
// The flip rechecks the slot inside the transaction; if another client won
// the slot while this one was paying, the hold is left pending and
// ErrSlotUnavailable is returned so the caller can refund and re-prompt.
// The partial unique index converts the residual race into
// ErrBookingConflict.
func (r *Repository) ConfirmPayment(ctx context.Context, id uuid.UUID, paymentRef string) (*Appointment, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("appointments: begin confirm: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := scanAppointment(tx.QueryRow(ctx,
		`SELECT`+apptColumns+` FROM appointments WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}
	if current.Status == StatusScheduled {
		// Duplicate webhook delivery; already confirmed.
		return current, nil
	}
	if current.Status != StatusPending {
		return nil, ErrInvalidTransition
	}

	open, err := slotStillOpen(ctx, tx, current.ScheduledDate, current.ScheduledTime)
	if err != nil {
		return nil, err
	}
	if !open {
		return nil, schedule.ErrSlotUnavailable
	}

	row := tx.QueryRow(ctx, `
		UPDATE appointments
		SET status = 'scheduled', payment_ref = $2, updated_at = now()
		WHERE id = $1
		RETURNING`+apptColumns,
		id, paymentRef)
	confirmed, err := scanAppointment(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, schedule.ErrBookingConflict
		}
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, schedule.ErrBookingConflict
		}
		return nil, fmt.Errorf("appointments: commit confirm: %w", err)
	}
	return confirmed, nil
}

// Reschedule moves a confirmed appointment to a new slot. Eligibility is
// re-evaluated inside the transaction against the row as it exists now, the
// target slot is rechecked, and the scheduled time and the once-only flag are
// flipped in a single UPDATE so they can never diverge.
func (r *Repository) Reschedule(ctx context.Context, id uuid.UUID, newDate schedule.Date, newTime schedule.TimeOfDay, today schedule.Date) (*Appointment, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("appointments: begin reschedule: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := scanAppointment(tx.QueryRow(ctx,
		`SELECT`+apptColumns+` FROM appointments WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}
	if current.Status != StatusScheduled {
		return nil, &schedule.RescheduleDeniedError{Reason: schedule.DenialNotConfirmed}
	}
	if ok, reason := schedule.CanReschedule(current.ScheduledDate, current.IsRescheduled, today); !ok {
		return nil, &schedule.RescheduleDeniedError{Reason: reason}
	}

	open, err := slotStillOpen(ctx, tx, newDate, newTime)
	if err != nil {
		return nil, err
	}
	if !open {
		return nil, schedule.ErrSlotUnavailable
	}

	row := tx.QueryRow(ctx, `
		UPDATE appointments
		SET scheduled_date = $2::date, scheduled_time = $3::time,
		    is_rescheduled = TRUE, updated_at = now()
		WHERE id = $1 AND status = 'scheduled' AND is_rescheduled = FALSE
		RETURNING`+apptColumns,
		id, newDate.String(), string(newTime))
	moved, err := scanAppointment(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, schedule.ErrBookingConflict
		}
		if errors.Is(err, ErrNotFound) {
			// Row changed underneath the FOR UPDATE guard; treat as spent.
			return nil, &schedule.RescheduleDeniedError{Reason: schedule.DenialAlreadyRescheduled}
		}
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, schedule.ErrBookingConflict
		}
		return nil, fmt.Errorf("appointments: commit reschedule: %w", err)
	}
	return moved, nil
}

// Cancel voids a pending or scheduled appointment, releasing its slot.
func (r *Repository) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET status = 'cancelled', updated_at = now()
		WHERE id = $1 AND status IN ('pending', 'scheduled')
		RETURNING`+apptColumns, id)
	a, err := scanAppointment(row)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidTransition
	}
	return a, err
}

// Complete marks a scheduled appointment as rendered. Completed appointments
// keep occupying their slot.
func (r *Repository) Complete(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET status = 'completed', updated_at = now()
		WHERE id = $1 AND status = 'scheduled'
		RETURNING`+apptColumns, id)
	a, err := scanAppointment(row)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidTransition
	}
	return a, err
}

// AttachDesignImage stores the object key of an uploaded reference image.
func (r *Repository) AttachDesignImage(ctx context.Context, id uuid.UUID, key string) error {
	ct, err := r.db.Exec(ctx, `
		UPDATE appointments SET design_image_key = $2, updated_at = now() WHERE id = $1`,
		id, key)
	if err != nil {
		return fmt.Errorf("appointments: attach design image: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
