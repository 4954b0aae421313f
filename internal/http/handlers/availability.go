package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/lunanails/booking-api/internal/schedule"
	"github.com/lunanails/booking-api/pkg/logging"
)

type availabilityService interface {
	Availability(ctx context.Context, from, to schedule.Date) (map[schedule.Date][]schedule.SlotStatus, error)
	DayAvailability(ctx context.Context, d schedule.Date) ([]schedule.SlotStatus, error)
}

// AvailabilityHandler serves the public slot calendar.
type AvailabilityHandler struct {
	svc    availabilityService
	logger *logging.Logger
}

func NewAvailabilityHandler(svc availabilityService, logger *logging.Logger) *AvailabilityHandler {
	if svc == nil {
		panic("handlers: availability service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AvailabilityHandler{svc: svc, logger: logger}
}

type dayAvailability struct {
	Date  string                `json:"date"`
	Slots []schedule.SlotStatus `json:"slots"`
}

type availabilityResponse struct {
	Days []dayAvailability `json:"days"`
}

// Get resolves availability for a single date (?date=YYYY-MM-DD), a month
// (?month=YYYY-MM) or an explicit range (?from=&to=).
func (h *AvailabilityHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if dateStr := q.Get("date"); dateStr != "" {
		d, err := schedule.ParseDate(dateStr)
		if err != nil {
			http.Error(w, "invalid date, want YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		slots, err := h.svc.DayAvailability(r.Context(), d)
		if err != nil {
			h.logger.Error("day availability failed", "error", err, "date", dateStr)
			respondDomainError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, dayAvailability{Date: d.String(), Slots: slots})
		return
	}

	from, to, err := rangeFromQuery(q.Get("month"), q.Get("from"), q.Get("to"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	byDate, err := h.svc.Availability(r.Context(), from, to)
	if err != nil {
		h.logger.Error("availability failed", "error", err, "from", from.String(), "to", to.String())
		respondDomainError(w, err)
		return
	}

	days := make([]dayAvailability, 0, len(byDate))
	for d, slots := range byDate {
		days = append(days, dayAvailability{Date: d.String(), Slots: slots})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	respondJSON(w, http.StatusOK, availabilityResponse{Days: days})
}

func rangeFromQuery(month, fromStr, toStr string) (schedule.Date, schedule.Date, error) {
	if month != "" {
		t, err := time.Parse("2006-01", month)
		if err != nil {
			return schedule.Date{}, schedule.Date{}, fmt.Errorf("invalid month, want YYYY-MM")
		}
		from := schedule.Date{Year: t.Year(), Month: t.Month(), Day: 1}
		lastDay := time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
		to := schedule.Date{Year: t.Year(), Month: t.Month(), Day: lastDay}
		return from, to, nil
	}
	if fromStr == "" || toStr == "" {
		return schedule.Date{}, schedule.Date{}, fmt.Errorf("date, month or from/to required")
	}
	from, err := schedule.ParseDate(fromStr)
	if err != nil {
		return schedule.Date{}, schedule.Date{}, fmt.Errorf("invalid from date, want YYYY-MM-DD")
	}
	to, err := schedule.ParseDate(toStr)
	if err != nil {
		return schedule.Date{}, schedule.Date{}, fmt.Errorf("invalid to date, want YYYY-MM-DD")
	}
	if to.Before(from) {
		return schedule.Date{}, schedule.Date{}, fmt.Errorf("from must not be after to")
	}
	if from.DaysUntil(to)+1 > schedule.MaxRangeDays {
		return schedule.Date{}, schedule.Date{}, fmt.Errorf("range too wide, max %d days", schedule.MaxRangeDays)
	}
	return from, to, nil
}
