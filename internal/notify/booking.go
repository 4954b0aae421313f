package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/lunanails/booking-api/internal/appointments"
	"github.com/lunanails/booking-api/pkg/logging"
)

// BookingNotifier emails clients about appointment lifecycle events. Sends
// are best-effort: failures are logged and never surfaced to the booking
// flow.
type BookingNotifier struct {
	sender    EmailSender
	salonName string
	logger    *logging.Logger
}

func NewBookingNotifier(sender EmailSender, salonName string, logger *logging.Logger) *BookingNotifier {
	if sender == nil {
		panic("notify: email sender required")
	}
	if salonName == "" {
		salonName = "Luna Nails"
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingNotifier{sender: sender, salonName: salonName, logger: logger}
}

func (n *BookingNotifier) AppointmentConfirmed(ctx context.Context, a appointments.Appointment) {
	n.send(ctx, a, fmt.Sprintf("Your %s appointment is confirmed", n.salonName),
		fmt.Sprintf("Hi %s,\n\nYour %s appointment on %s at %s is confirmed. See you then!\n\n%s",
			a.ClientName, a.Service, a.ScheduledDate, displayTime(a.ScheduledTime), n.salonName))
}

func (n *BookingNotifier) AppointmentRescheduled(ctx context.Context, a appointments.Appointment) {
	n.send(ctx, a, fmt.Sprintf("Your %s appointment has moved", n.salonName),
		fmt.Sprintf("Hi %s,\n\nYour %s appointment has been moved to %s at %s.\n\nNote that appointments can only be rescheduled once.\n\n%s",
			a.ClientName, a.Service, a.ScheduledDate, displayTime(a.ScheduledTime), n.salonName))
}

func (n *BookingNotifier) AppointmentCancelled(ctx context.Context, a appointments.Appointment) {
	n.send(ctx, a, fmt.Sprintf("Your %s appointment was cancelled", n.salonName),
		fmt.Sprintf("Hi %s,\n\nYour appointment on %s at %s has been cancelled. We hope to see you again soon.\n\n%s",
			a.ClientName, a.ScheduledDate, displayTime(a.ScheduledTime), n.salonName))
}

func (n *BookingNotifier) send(ctx context.Context, a appointments.Appointment, subject, body string) {
	if a.ClientEmail == "" {
		return
	}
	msg := EmailMessage{
		To:      a.ClientEmail,
		ToName:  a.ClientName,
		Subject: subject,
		Body:    body,
	}
	if err := n.sender.Send(ctx, msg); err != nil {
		n.logger.Error("booking notification failed",
			"error", err,
			"appointment_id", a.ID,
			"subject", subject,
		)
	}
}

// displayTime renders "09:00:00" as "09:00" for client-facing copy.
func displayTime(t fmt.Stringer) string {
	s := t.String()
	if strings.Count(s, ":") == 2 && strings.HasSuffix(s, ":00") {
		return strings.TrimSuffix(s, ":00")
	}
	return s
}
