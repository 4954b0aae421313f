package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lunanails/booking-api/internal/appointments"
	"github.com/lunanails/booking-api/internal/schedule"
	"github.com/lunanails/booking-api/internal/uploads"
	"github.com/lunanails/booking-api/pkg/logging"
)

type bookingService interface {
	Book(ctx context.Context, req appointments.BookingRequest) (*appointments.Appointment, error)
	Get(ctx context.Context, id uuid.UUID) (*appointments.Appointment, error)
	CanReschedule(ctx context.Context, id uuid.UUID) (bool, schedule.RescheduleDenial, error)
	Reschedule(ctx context.Context, id uuid.UUID, newDate schedule.Date, newTime schedule.TimeOfDay) (*appointments.Appointment, error)
	Cancel(ctx context.Context, id uuid.UUID) (*appointments.Appointment, error)
	AttachDesignImage(ctx context.Context, id uuid.UUID, key string) error
}

type designStore interface {
	SaveDesignImage(ctx context.Context, appointmentID uuid.UUID, contentType string, body io.Reader) (string, error)
}

// BookingHandler serves the client-facing booking lifecycle.
type BookingHandler struct {
	svc     bookingService
	designs designStore
	logger  *logging.Logger
}

func NewBookingHandler(svc bookingService, designs designStore, logger *logging.Logger) *BookingHandler {
	if svc == nil {
		panic("handlers: booking service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingHandler{svc: svc, designs: designs, logger: logger}
}

type createBookingRequest struct {
	ClientName  string `json:"client_name"`
	ClientEmail string `json:"client_email"`
	ClientPhone string `json:"client_phone"`
	Service     string `json:"service"`
	Date        string `json:"date"`
	Time        string `json:"time"`
}

// Create places a pending hold on a slot.
// Route: POST /api/bookings
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.ClientName) == "" || strings.TrimSpace(req.Service) == "" {
		http.Error(w, "client_name and service are required", http.StatusBadRequest)
		return
	}
	d, err := schedule.ParseDate(req.Date)
	if err != nil {
		http.Error(w, "invalid date, want YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	t, err := schedule.ParseTimeOfDay(req.Time)
	if err != nil {
		http.Error(w, "invalid time, want HH:MM", http.StatusBadRequest)
		return
	}

	a, err := h.svc.Book(r.Context(), appointments.BookingRequest{
		ClientName:  strings.TrimSpace(req.ClientName),
		ClientEmail: strings.TrimSpace(req.ClientEmail),
		ClientPhone: strings.TrimSpace(req.ClientPhone),
		Service:     strings.TrimSpace(req.Service),
		Date:        d,
		Time:        t,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, a)
}

// Get returns one appointment.
// Route: GET /api/bookings/{id}
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := apptID(w, r)
	if !ok {
		return
	}
	a, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

type rescheduleRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// Reschedule moves a confirmed appointment to a new slot.
// Route: POST /api/bookings/{id}/reschedule
func (h *BookingHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	id, ok := apptID(w, r)
	if !ok {
		return
	}
	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	d, err := schedule.ParseDate(req.Date)
	if err != nil {
		http.Error(w, "invalid date, want YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	t, err := schedule.ParseTimeOfDay(req.Time)
	if err != nil {
		http.Error(w, "invalid time, want HH:MM", http.StatusBadRequest)
		return
	}

	moved, err := h.svc.Reschedule(r.Context(), id, d, t)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, moved)
}

type rescheduleEligibility struct {
	CanReschedule bool   `json:"can_reschedule"`
	Reason        string `json:"reason,omitempty"`
}

// CanReschedule reports whether the appointment may currently be moved.
// Route: GET /api/bookings/{id}/reschedule
func (h *BookingHandler) CanReschedule(w http.ResponseWriter, r *http.Request) {
	id, ok := apptID(w, r)
	if !ok {
		return
	}
	allowed, reason, err := h.svc.CanReschedule(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rescheduleEligibility{CanReschedule: allowed, Reason: string(reason)})
}

// Cancel voids an appointment.
// Route: POST /api/bookings/{id}/cancel
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := apptID(w, r)
	if !ok {
		return
	}
	cancelled, err := h.svc.Cancel(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cancelled)
}

// UploadDesign stores a nail-design reference image for the appointment.
// Route: POST /api/bookings/{id}/design-image
func (h *BookingHandler) UploadDesign(w http.ResponseWriter, r *http.Request) {
	if h.designs == nil {
		http.Error(w, "image uploads not configured", http.StatusServiceUnavailable)
		return
	}
	id, ok := apptID(w, r)
	if !ok {
		return
	}
	defer r.Body.Close()

	key, err := h.designs.SaveDesignImage(r.Context(), id, r.Header.Get("Content-Type"), r.Body)
	if err != nil {
		if errors.Is(err, uploads.ErrUnsupportedType) {
			http.Error(w, "unsupported image type", http.StatusUnsupportedMediaType)
			return
		}
		h.logger.Error("design upload failed", "error", err, "appointment_id", id)
		http.Error(w, "upload failed", http.StatusInternalServerError)
		return
	}
	if err := h.svc.AttachDesignImage(r.Context(), id, key); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"design_image_key": key})
}

func apptID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		http.Error(w, "id must be a UUID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}
