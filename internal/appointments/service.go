package appointments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/lunanails/booking-api/internal/observability/metrics"
	"github.com/lunanails/booking-api/internal/schedule"
	"github.com/lunanails/booking-api/pkg/logging"
)

var tracer = otel.Tracer("lunanails.internal.appointments")

// Notifier sends client-facing messages for lifecycle events. Implementations
// must be best-effort; the booking flow never fails because an email did not
// go out.
type Notifier interface {
	AppointmentConfirmed(ctx context.Context, a Appointment)
	AppointmentRescheduled(ctx context.Context, a Appointment)
	AppointmentCancelled(ctx context.Context, a Appointment)
}

// BookingRequest is the input to Book.
type BookingRequest struct {
	ClientName  string
	ClientEmail string
	ClientPhone string
	Service     string
	Date        schedule.Date
	Time        schedule.TimeOfDay
}

// Service composes the availability engine with the appointment store. It
// derives "today" from the injected clock in the salon timezone exactly once
// per operation and passes it down, keeping the core pure.
type Service struct {
	repo     *Repository
	engine   *schedule.Engine
	notifier Notifier
	metrics  *metrics.BookingMetrics
	logger   *logging.Logger
	loc      *time.Location
	now      func() time.Time
}

func NewService(repo *Repository, engine *schedule.Engine, notifier Notifier, m *metrics.BookingMetrics, logger *logging.Logger, loc *time.Location) *Service {
	if repo == nil {
		panic("appointments: repository required")
	}
	if engine == nil {
		panic("appointments: engine required")
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:     repo,
		engine:   engine,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		loc:      loc,
		now:      time.Now,
	}
}

// WithClock overrides the time source. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) today() schedule.Date {
	return schedule.DateOf(s.now(), s.loc)
}

// Availability returns the slot lists for every date in [from, to].
func (s *Service) Availability(ctx context.Context, from, to schedule.Date) (map[schedule.Date][]schedule.SlotStatus, error) {
	ctx, span := tracer.Start(ctx, "appointments.availability")
	defer span.End()

	started := s.now()
	result, err := s.engine.Availability(ctx, from, to, s.today())
	s.metrics.ObserveAvailability("range", s.now().Sub(started).Seconds())
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return result, nil
}

// DayAvailability returns the slot list for one date.
func (s *Service) DayAvailability(ctx context.Context, d schedule.Date) ([]schedule.SlotStatus, error) {
	ctx, span := tracer.Start(ctx, "appointments.day_availability")
	defer span.End()

	started := s.now()
	result, err := s.engine.DayAvailability(ctx, d, s.today())
	s.metrics.ObserveAvailability("day", s.now().Sub(started).Seconds())
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return result, nil
}

// Book creates a pending hold on a slot. Payment confirmation later flips the
// hold to scheduled; until then the slot stays visible as available to other
// clients, matching the two-phase display/commit shape.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointments.book")
	defer span.End()
	span.SetAttributes(
		attribute.String("lunanails.slot_date", req.Date.String()),
		attribute.String("lunanails.slot_time", req.Time.String()),
	)

	if req.Date.Before(s.today()) {
		s.metrics.ObserveBooking("past_date")
		return nil, schedule.ErrSlotUnavailable
	}

	a := &Appointment{
		ID:            uuid.New(),
		ClientName:    req.ClientName,
		ClientEmail:   req.ClientEmail,
		ClientPhone:   req.ClientPhone,
		Service:       req.Service,
		ScheduledDate: req.Date,
		ScheduledTime: req.Time,
	}
	if err := s.repo.CreateHold(ctx, a); err != nil {
		span.RecordError(err)
		s.metrics.ObserveBooking(outcomeLabel(err))
		return nil, err
	}

	s.metrics.ObserveBooking("held")
	s.logger.Info("booking hold created",
		"appointment_id", a.ID,
		"date", a.ScheduledDate.String(),
		"time", a.ScheduledTime.String(),
	)
	return a, nil
}

// ConfirmPayment promotes a hold to a confirmed appointment. Called from the
// payment webhook once the provider reports success. A lost slot race here is
// a normal outcome: the hold is cancelled and the error tells the caller to
// refund and re-prompt.
func (s *Service) ConfirmPayment(ctx context.Context, id uuid.UUID, paymentRef string) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointments.confirm_payment")
	defer span.End()
	span.SetAttributes(attribute.String("lunanails.appointment_id", id.String()))

	confirmed, err := s.repo.ConfirmPayment(ctx, id, paymentRef)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveBooking(outcomeLabel(err))
		if errors.Is(err, schedule.ErrSlotUnavailable) || errors.Is(err, schedule.ErrBookingConflict) {
			// The slot was taken while the client was paying. Void the hold
			// so it cannot be confirmed later against an occupied slot.
			if _, cancelErr := s.repo.Cancel(ctx, id); cancelErr != nil && !errors.Is(cancelErr, ErrInvalidTransition) {
				s.logger.Error("failed to cancel hold after slot conflict", "appointment_id", id, "error", cancelErr)
			}
			s.logger.Warn("payment confirmed for lost slot",
				"appointment_id", id,
				"payment_ref", paymentRef,
			)
		}
		return nil, err
	}

	s.metrics.ObserveBooking("confirmed")
	s.logger.Info("appointment confirmed",
		"appointment_id", confirmed.ID,
		"date", confirmed.ScheduledDate.String(),
		"time", confirmed.ScheduledTime.String(),
	)
	if s.notifier != nil {
		s.notifier.AppointmentConfirmed(ctx, *confirmed)
	}
	return confirmed, nil
}

// CanReschedule reports whether the appointment may currently be moved, and
// the blocking rule if not. Read-only; the authoritative check reruns inside
// the Reschedule transaction.
func (s *Service) CanReschedule(ctx context.Context, id uuid.UUID) (bool, schedule.RescheduleDenial, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return false, "", err
	}
	if a.Status != StatusScheduled {
		return false, schedule.DenialNotConfirmed, nil
	}
	ok, reason := schedule.CanReschedule(a.ScheduledDate, a.IsRescheduled, s.today())
	return ok, reason, nil
}

// Reschedule moves a confirmed appointment to a new slot, enforcing the
// once-only limit, the blackout month and the lead-time floor.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, newDate schedule.Date, newTime schedule.TimeOfDay) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointments.reschedule")
	defer span.End()
	span.SetAttributes(
		attribute.String("lunanails.appointment_id", id.String()),
		attribute.String("lunanails.new_date", newDate.String()),
	)

	if newDate.Before(s.today()) {
		s.metrics.ObserveReschedule("past_date")
		return nil, schedule.ErrSlotUnavailable
	}

	moved, err := s.repo.Reschedule(ctx, id, newDate, newTime, s.today())
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveReschedule(outcomeLabel(err))
		return nil, err
	}

	s.metrics.ObserveReschedule("moved")
	s.logger.Info("appointment rescheduled",
		"appointment_id", moved.ID,
		"date", moved.ScheduledDate.String(),
		"time", moved.ScheduledTime.String(),
	)
	if s.notifier != nil {
		s.notifier.AppointmentRescheduled(ctx, *moved)
	}
	return moved, nil
}

// Cancel voids an appointment and releases its slot. Blocks stay: cancelling
// never touches the blocked schedule.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointments.cancel")
	defer span.End()

	cancelled, err := s.repo.Cancel(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.logger.Info("appointment cancelled", "appointment_id", cancelled.ID)
	if s.notifier != nil {
		s.notifier.AppointmentCancelled(ctx, *cancelled)
	}
	return cancelled, nil
}

// Complete marks a scheduled appointment as rendered.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.Complete(ctx, id)
}

// Get loads one appointment.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.Get(ctx, id)
}

// ListRange lists appointments for the admin dashboard.
func (s *Service) ListRange(ctx context.Context, from, to schedule.Date) ([]Appointment, error) {
	return s.repo.ListRange(ctx, from, to)
}

// AttachDesignImage records the object key of an uploaded reference image.
func (s *Service) AttachDesignImage(ctx context.Context, id uuid.UUID, key string) error {
	return s.repo.AttachDesignImage(ctx, id, key)
}

// outcomeLabel maps scheduling errors to metric labels.
func outcomeLabel(err error) string {
	var denied *schedule.RescheduleDeniedError
	switch {
	case errors.Is(err, schedule.ErrSlotUnavailable):
		return "stale_slot"
	case errors.Is(err, schedule.ErrBookingConflict):
		return "conflict"
	case errors.As(err, &denied):
		return "denied"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	default:
		return "error"
	}
}
