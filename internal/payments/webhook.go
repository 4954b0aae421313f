package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lunanails/booking-api/internal/appointments"
	"github.com/lunanails/booking-api/internal/observability/metrics"
	"github.com/lunanails/booking-api/internal/schedule"
	"github.com/lunanails/booking-api/pkg/logging"
)

// bookingConfirmer is the slice of the appointments service the webhook needs.
type bookingConfirmer interface {
	ConfirmPayment(ctx context.Context, id uuid.UUID, paymentRef string) (*appointments.Appointment, error)
	Cancel(ctx context.Context, id uuid.UUID) (*appointments.Appointment, error)
}

type processedTracker interface {
	AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, provider, eventID string) (bool, error)
}

// SquareWebhookHandler receives Square payment events and drives the hold
// lifecycle: a COMPLETED payment promotes the pending hold to a confirmed
// appointment, a failed or canceled payment voids it. Every event is recorded
// in the processed store so redeliveries are acknowledged without re-running
// the transition.
type SquareWebhookHandler struct {
	signatureKey string
	bookings     bookingConfirmer
	processed    processedTracker
	metrics      *metrics.BookingMetrics
	logger       *logging.Logger
}

func NewSquareWebhookHandler(sigKey string, bookings bookingConfirmer, processed processedTracker, m *metrics.BookingMetrics, logger *logging.Logger) *SquareWebhookHandler {
	if bookings == nil {
		panic("payments: booking confirmer required")
	}
	if processed == nil {
		panic("payments: processed tracker required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SquareWebhookHandler{
		signatureKey: sigKey,
		bookings:     bookings,
		processed:    processed,
		metrics:      m,
		logger:       logger,
	}
}

func (h *SquareWebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	if !verifySquareSignature(h.signatureKey, buildAbsoluteURL(r), payload, r.Header.Get("X-Square-Signature")) {
		h.metrics.ObserveWebhookEvent("unauthorized")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var evt squarePaymentEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		h.logger.Error("failed to decode square event", "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	eventID := evt.EventID
	if eventID == "" {
		eventID = evt.ID
	}
	if eventID == "" {
		http.Error(w, "missing event id", http.StatusBadRequest)
		return
	}

	if processed, err := h.processed.AlreadyProcessed(r.Context(), "square", eventID); err != nil {
		h.logger.Error("processed lookup failed", "error", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	} else if processed {
		h.metrics.ObserveWebhookEvent("duplicate")
		w.WriteHeader(http.StatusOK)
		return
	}

	apptIDStr := evt.Data.Object.Payment.Metadata["appointment_id"]
	if apptIDStr == "" {
		h.logger.Warn("square webhook missing appointment metadata", "event_id", eventID)
		// Acknowledge to stop retries; nothing to progress without the id.
		w.WriteHeader(http.StatusOK)
		return
	}
	apptID, err := uuid.Parse(apptIDStr)
	if err != nil {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}

	switch evt.Data.Object.Payment.Status {
	case "COMPLETED":
		h.confirm(w, r, eventID, apptID, evt.Data.Object.Payment.ID)
	case "FAILED", "CANCELED":
		h.void(w, r, eventID, apptID)
	default:
		h.metrics.ObserveWebhookEvent("ignored")
		w.WriteHeader(http.StatusOK)
	}
}

func (h *SquareWebhookHandler) confirm(w http.ResponseWriter, r *http.Request, eventID string, apptID uuid.UUID, providerRef string) {
	_, err := h.bookings.ConfirmPayment(r.Context(), apptID, providerRef)
	switch {
	case err == nil:
		h.metrics.ObserveWebhookEvent("confirmed")
	case errors.Is(err, schedule.ErrSlotUnavailable), errors.Is(err, schedule.ErrBookingConflict):
		// The slot was won by someone else while this client paid. The hold
		// is already voided; acknowledge so Square stops retrying, and flag
		// the payment for refund.
		h.metrics.ObserveWebhookEvent("lost_slot")
		h.logger.Warn("paid booking lost its slot, refund required",
			"appointment_id", apptID,
			"provider_ref", providerRef,
		)
	case errors.Is(err, appointments.ErrNotFound):
		h.metrics.ObserveWebhookEvent("unknown_appointment")
		h.logger.Warn("payment for unknown appointment", "appointment_id", apptID)
	case errors.Is(err, appointments.ErrInvalidTransition):
		h.metrics.ObserveWebhookEvent("invalid_state")
		h.logger.Warn("payment for appointment not awaiting confirmation", "appointment_id", apptID)
	default:
		h.logger.Error("failed to confirm appointment", "error", err, "appointment_id", apptID)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	if _, err := h.processed.MarkProcessed(r.Context(), "square", eventID); err != nil {
		h.logger.Error("failed to record processed event", "error", err)
	}
	w.WriteHeader(http.StatusOK)
}

func (h *SquareWebhookHandler) void(w http.ResponseWriter, r *http.Request, eventID string, apptID uuid.UUID) {
	if _, err := h.bookings.Cancel(r.Context(), apptID); err != nil {
		if !errors.Is(err, appointments.ErrInvalidTransition) && !errors.Is(err, appointments.ErrNotFound) {
			h.logger.Error("failed to void hold after payment failure", "error", err, "appointment_id", apptID)
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
	}
	h.metrics.ObserveWebhookEvent("voided")
	if _, err := h.processed.MarkProcessed(r.Context(), "square", eventID); err != nil {
		h.logger.Error("failed to record processed event", "error", err)
	}
	w.WriteHeader(http.StatusOK)
}

func verifySquareSignature(key, url string, body []byte, header string) bool {
	if key == "" || header == "" {
		return false
	}
	message := url + string(body)
	mac := hmac.New(sha1.New, []byte(key))
	mac.Write([]byte(message))
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(header), []byte(expected))
}

type squarePaymentEvent struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	CreatedAt time.Time `json:"created_at"`
	Type      string    `json:"type"`
	Data      struct {
		Object struct {
			Payment struct {
				ID          string            `json:"id"`
				Status      string            `json:"status"`
				AmountMoney squareMoney       `json:"amount_money"`
				Metadata    map[string]string `json:"metadata"`
			} `json:"payment"`
		} `json:"object"`
	} `json:"data"`
}

type squareMoney struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func buildAbsoluteURL(r *http.Request) string {
	if r.URL == nil {
		return ""
	}
	scheme := "https"
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	} else if r.TLS == nil {
		scheme = "http"
	}
	host := r.Host
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
		host = fwd
	}
	return fmt.Sprintf("%s://%s%s", scheme, host, r.URL.RequestURI())
}
