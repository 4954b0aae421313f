package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lunanails/booking-api/internal/appointments"
	"github.com/lunanails/booking-api/internal/schedule"
)

type stubBookingService struct {
	appt          *appointments.Appointment
	bookErr       error
	rescheduleErr error
	canReschedule bool
	denialReason  schedule.RescheduleDenial
	attachedKey   string
	lastRequest   appointments.BookingRequest
}

func (s *stubBookingService) Book(_ context.Context, req appointments.BookingRequest) (*appointments.Appointment, error) {
	s.lastRequest = req
	if s.bookErr != nil {
		return nil, s.bookErr
	}
	return s.appt, nil
}

func (s *stubBookingService) Get(context.Context, uuid.UUID) (*appointments.Appointment, error) {
	if s.appt == nil {
		return nil, appointments.ErrNotFound
	}
	return s.appt, nil
}

func (s *stubBookingService) CanReschedule(context.Context, uuid.UUID) (bool, schedule.RescheduleDenial, error) {
	return s.canReschedule, s.denialReason, nil
}

func (s *stubBookingService) Reschedule(_ context.Context, _ uuid.UUID, _ schedule.Date, _ schedule.TimeOfDay) (*appointments.Appointment, error) {
	if s.rescheduleErr != nil {
		return nil, s.rescheduleErr
	}
	return s.appt, nil
}

func (s *stubBookingService) Cancel(context.Context, uuid.UUID) (*appointments.Appointment, error) {
	return s.appt, nil
}

func (s *stubBookingService) AttachDesignImage(_ context.Context, _ uuid.UUID, key string) error {
	s.attachedKey = key
	return nil
}

type stubDesignStore struct {
	key string
	err error
}

func (s *stubDesignStore) SaveDesignImage(_ context.Context, _ uuid.UUID, _ string, _ io.Reader) (string, error) {
	return s.key, s.err
}

func bookingRouter(h *BookingHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/bookings", h.Create)
	r.Get("/api/bookings/{id}", h.Get)
	r.Get("/api/bookings/{id}/reschedule", h.CanReschedule)
	r.Post("/api/bookings/{id}/reschedule", h.Reschedule)
	r.Post("/api/bookings/{id}/cancel", h.Cancel)
	r.Post("/api/bookings/{id}/design-image", h.UploadDesign)
	return r
}

func sampleAppt() *appointments.Appointment {
	d, _ := schedule.ParseDate("2025-03-03")
	return &appointments.Appointment{
		ID:            uuid.New(),
		ClientName:    "Maya Santos",
		Service:       "Gel manicure",
		ScheduledDate: d,
		ScheduledTime: "09:00:00",
		Status:        appointments.StatusPending,
	}
}

func TestCreateBooking(t *testing.T) {
	stub := &stubBookingService{appt: sampleAppt()}
	router := bookingRouter(NewBookingHandler(stub, nil, nil))

	body := `{"client_name":"Maya Santos","service":"Gel manicure","date":"2025-03-03","time":"09:00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if stub.lastRequest.Time != "09:00:00" {
		t.Fatalf("time must be normalized to HH:MM:SS, got %q", stub.lastRequest.Time)
	}
	var resp appointments.Appointment
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != appointments.StatusPending {
		t.Fatalf("status = %s, want pending", resp.Status)
	}
}

func TestCreateBookingValidation(t *testing.T) {
	router := bookingRouter(NewBookingHandler(&stubBookingService{}, nil, nil))

	cases := []string{
		`{`,
		`{"client_name":"","service":"Gel","date":"2025-03-03","time":"09:00"}`,
		`{"client_name":"Maya","service":"Gel","date":"03/03/2025","time":"09:00"}`,
		`{"client_name":"Maya","service":"Gel","date":"2025-03-03","time":"9am"}`,
	}
	for _, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(body))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("body %s: expected 400, got %d", body, rr.Code)
		}
	}
}

func TestCreateBookingSlotTaken(t *testing.T) {
	stub := &stubBookingService{bookErr: schedule.ErrSlotUnavailable}
	router := bookingRouter(NewBookingHandler(stub, nil, nil))

	body := `{"client_name":"Maya","service":"Gel","date":"2025-03-03","time":"09:00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestRescheduleDenied(t *testing.T) {
	stub := &stubBookingService{
		rescheduleErr: &schedule.RescheduleDeniedError{Reason: schedule.DenialBlackoutMonth},
	}
	router := bookingRouter(NewBookingHandler(stub, nil, nil))

	body := `{"date":"2026-01-10","time":"09:00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/bookings/"+uuid.NewString()+"/reschedule", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Reason != string(schedule.DenialBlackoutMonth) {
		t.Fatalf("reason = %q, want %q", resp.Reason, schedule.DenialBlackoutMonth)
	}
}

func TestCanRescheduleEndpoint(t *testing.T) {
	stub := &stubBookingService{canReschedule: false, denialReason: schedule.DenialInsufficientLead}
	router := bookingRouter(NewBookingHandler(stub, nil, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/bookings/"+uuid.NewString()+"/reschedule", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp rescheduleEligibility
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.CanReschedule || resp.Reason != string(schedule.DenialInsufficientLead) {
		t.Fatalf("unexpected eligibility: %+v", resp)
	}
}

func TestBookingBadID(t *testing.T) {
	router := bookingRouter(NewBookingHandler(&stubBookingService{}, nil, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/bookings/not-a-uuid/cancel", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestUploadDesignAttachesKey(t *testing.T) {
	stub := &stubBookingService{appt: sampleAppt()}
	designs := &stubDesignStore{key: "designs/2025/03/img.png"}
	router := bookingRouter(NewBookingHandler(stub, designs, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/bookings/"+uuid.NewString()+"/design-image", bytes.NewReader([]byte("png")))
	req.Header.Set("Content-Type", "image/png")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if stub.attachedKey != "designs/2025/03/img.png" {
		t.Fatalf("attached key = %q", stub.attachedKey)
	}
}

func TestUploadDesignWithoutStore(t *testing.T) {
	router := bookingRouter(NewBookingHandler(&stubBookingService{}, nil, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/bookings/"+uuid.NewString()+"/design-image", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}
