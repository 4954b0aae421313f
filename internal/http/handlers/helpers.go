package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lunanails/booking-api/internal/appointments"
	"github.com/lunanails/booking-api/internal/schedule"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// respondDomainError maps scheduling errors onto HTTP statuses. Unknown
// errors come back as 500 without leaking internals.
func respondDomainError(w http.ResponseWriter, err error) {
	var (
		denied  *schedule.RescheduleDeniedError
		dataErr *schedule.DataAccessError
	)
	switch {
	case errors.Is(err, schedule.ErrSlotUnavailable):
		respondJSON(w, http.StatusConflict, errorResponse{Error: "slot unavailable"})
	case errors.Is(err, schedule.ErrBookingConflict):
		respondJSON(w, http.StatusConflict, errorResponse{Error: "slot already booked"})
	case errors.Is(err, schedule.ErrRangeTooWide):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "availability range too wide"})
	case errors.As(err, &denied):
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:  "reschedule not allowed",
			Reason: string(denied.Reason),
		})
	case errors.Is(err, appointments.ErrNotFound):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "appointment not found"})
	case errors.Is(err, appointments.ErrInvalidTransition):
		respondJSON(w, http.StatusConflict, errorResponse{Error: "appointment not in a valid state"})
	case errors.As(err, &dataErr):
		respondJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "schedule temporarily unavailable"})
	default:
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
