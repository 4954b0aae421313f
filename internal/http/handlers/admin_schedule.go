package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/lunanails/booking-api/internal/appointments"
	"github.com/lunanails/booking-api/internal/schedule"
	"github.com/lunanails/booking-api/internal/slottemplate"
	"github.com/lunanails/booking-api/pkg/logging"
)

type templateStore interface {
	ListTemplate(ctx context.Context) ([]schedule.TemplateEntry, error)
	Add(ctx context.Context, e schedule.TemplateEntry) error
	Remove(ctx context.Context, day schedule.DayOfWeek, t schedule.TimeOfDay) error
}

type templateCache interface {
	Invalidate(ctx context.Context)
}

type blockStore interface {
	ListBlocks(ctx context.Context, from, to schedule.Date) ([]schedule.Block, error)
	Block(ctx context.Context, d schedule.Date, t *schedule.TimeOfDay) error
	Unblock(ctx context.Context, d schedule.Date, t *schedule.TimeOfDay) error
}

type adminBookings interface {
	ListRange(ctx context.Context, from, to schedule.Date) ([]appointments.Appointment, error)
	Complete(ctx context.Context, id uuid.UUID) (*appointments.Appointment, error)
}

// AdminScheduleConfig wires the stores the admin handler needs.
type AdminScheduleConfig struct {
	Template templateStore
	Cache    templateCache
	Blocks   blockStore
	Bookings adminBookings
	Logger   *logging.Logger
}

// AdminScheduleHandler manages the weekly slot template, the blocked
// schedule and the appointment book. Admin-only routes.
type AdminScheduleHandler struct {
	template templateStore
	cache    templateCache
	blocks   blockStore
	bookings adminBookings
	logger   *logging.Logger
}

func NewAdminScheduleHandler(cfg AdminScheduleConfig) *AdminScheduleHandler {
	if cfg.Template == nil || cfg.Blocks == nil || cfg.Bookings == nil {
		panic("handlers: admin schedule stores required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &AdminScheduleHandler{
		template: cfg.Template,
		cache:    cfg.Cache,
		blocks:   cfg.Blocks,
		bookings: cfg.Bookings,
		logger:   cfg.Logger,
	}
}

type templateEntryDTO struct {
	DayOfWeek int    `json:"day_of_week"`
	Time      string `json:"time"`
	Note      string `json:"note,omitempty"`
}

// ListTemplate returns the weekly slot template.
// Route: GET /admin/template
func (h *AdminScheduleHandler) ListTemplate(w http.ResponseWriter, r *http.Request) {
	entries, err := h.template.ListTemplate(r.Context())
	if err != nil {
		h.logger.Error("template list failed", "error", err)
		respondDomainError(w, err)
		return
	}
	out := make([]templateEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, templateEntryDTO{DayOfWeek: int(e.Day), Time: e.Time.String(), Note: e.Note})
	}
	respondJSON(w, http.StatusOK, map[string]any{"entries": out})
}

// AddTemplateEntry adds a recurring weekly slot.
// Route: POST /admin/template
func (h *AdminScheduleHandler) AddTemplateEntry(w http.ResponseWriter, r *http.Request) {
	var req templateEntryDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	day := schedule.DayOfWeek(req.DayOfWeek)
	if !day.Valid() {
		http.Error(w, "day_of_week must be 0 (Sunday) through 6 (Saturday)", http.StatusBadRequest)
		return
	}
	t, err := schedule.ParseTimeOfDay(req.Time)
	if err != nil {
		http.Error(w, "invalid time, want HH:MM", http.StatusBadRequest)
		return
	}

	err = h.template.Add(r.Context(), schedule.TemplateEntry{Day: day, Time: t, Note: req.Note})
	if err != nil {
		if errors.Is(err, slottemplate.ErrDuplicateEntry) {
			respondJSON(w, http.StatusConflict, errorResponse{Error: "template entry already exists"})
			return
		}
		h.logger.Error("template add failed", "error", err)
		respondDomainError(w, err)
		return
	}
	h.invalidateTemplate(r.Context())
	respondJSON(w, http.StatusCreated, templateEntryDTO{DayOfWeek: int(day), Time: t.String(), Note: req.Note})
}

// RemoveTemplateEntry deletes a recurring weekly slot. Existing appointments
// on that slot are untouched.
// Route: DELETE /admin/template
func (h *AdminScheduleHandler) RemoveTemplateEntry(w http.ResponseWriter, r *http.Request) {
	var req templateEntryDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	day := schedule.DayOfWeek(req.DayOfWeek)
	if !day.Valid() {
		http.Error(w, "day_of_week must be 0 (Sunday) through 6 (Saturday)", http.StatusBadRequest)
		return
	}
	t, err := schedule.ParseTimeOfDay(req.Time)
	if err != nil {
		http.Error(w, "invalid time, want HH:MM", http.StatusBadRequest)
		return
	}

	if err := h.template.Remove(r.Context(), day, t); err != nil {
		h.logger.Error("template remove failed", "error", err)
		respondDomainError(w, err)
		return
	}
	h.invalidateTemplate(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminScheduleHandler) invalidateTemplate(ctx context.Context) {
	if h.cache != nil {
		h.cache.Invalidate(ctx)
	}
}

type blockDTO struct {
	Date string `json:"date"`
	Time string `json:"time,omitempty"`
}

// ListBlocks returns blocks in a date range (?from=&to=).
// Route: GET /admin/blocks
func (h *AdminScheduleHandler) ListBlocks(w http.ResponseWriter, r *http.Request) {
	from, to, err := rangeFromQuery(r.URL.Query().Get("month"), r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	blocks, err := h.blocks.ListBlocks(r.Context(), from, to)
	if err != nil {
		h.logger.Error("blocks list failed", "error", err)
		respondDomainError(w, err)
		return
	}
	out := make([]blockDTO, 0, len(blocks))
	for _, b := range blocks {
		dto := blockDTO{Date: b.Date.String()}
		if b.Time != nil {
			dto.Time = b.Time.String()
		}
		out = append(out, dto)
	}
	respondJSON(w, http.StatusOK, map[string]any{"blocks": out})
}

// AddBlock blocks a whole day (no time) or a single slot. Existing
// appointments on the blocked range stay booked; blocks only stop new ones.
// Route: POST /admin/blocks
func (h *AdminScheduleHandler) AddBlock(w http.ResponseWriter, r *http.Request) {
	d, t, ok := decodeBlock(w, r)
	if !ok {
		return
	}
	if err := h.blocks.Block(r.Context(), d, t); err != nil {
		h.logger.Error("block failed", "error", err)
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveBlock lifts a block. A request without a time lifts only the
// whole-day block; slot-level blocks must be removed individually.
// Route: DELETE /admin/blocks
func (h *AdminScheduleHandler) RemoveBlock(w http.ResponseWriter, r *http.Request) {
	d, t, ok := decodeBlock(w, r)
	if !ok {
		return
	}
	if err := h.blocks.Unblock(r.Context(), d, t); err != nil {
		h.logger.Error("unblock failed", "error", err)
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeBlock(w http.ResponseWriter, r *http.Request) (schedule.Date, *schedule.TimeOfDay, bool) {
	var req blockDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return schedule.Date{}, nil, false
	}
	d, err := schedule.ParseDate(req.Date)
	if err != nil {
		http.Error(w, "invalid date, want YYYY-MM-DD", http.StatusBadRequest)
		return schedule.Date{}, nil, false
	}
	var t *schedule.TimeOfDay
	if req.Time != "" {
		parsed, err := schedule.ParseTimeOfDay(req.Time)
		if err != nil {
			http.Error(w, "invalid time, want HH:MM", http.StatusBadRequest)
			return schedule.Date{}, nil, false
		}
		t = &parsed
	}
	return d, t, true
}

// ListAppointments returns the appointment book for a date range.
// Route: GET /admin/appointments
func (h *AdminScheduleHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	from, to, err := rangeFromQuery(r.URL.Query().Get("month"), r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	list, err := h.bookings.ListRange(r.Context(), from, to)
	if err != nil {
		h.logger.Error("appointments list failed", "error", err)
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"appointments": list})
}

// CompleteAppointment marks a scheduled appointment as rendered.
// Route: POST /admin/appointments/{id}/complete
func (h *AdminScheduleHandler) CompleteAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := apptID(w, r)
	if !ok {
		return
	}
	completed, err := h.bookings.Complete(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, completed)
}
