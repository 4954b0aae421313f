package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/lunanails/booking-api/internal/appointments"
	"github.com/lunanails/booking-api/internal/http/handlers"
	"github.com/lunanails/booking-api/internal/schedule"
)

type stubAvailability struct{}

func (stubAvailability) Availability(context.Context, schedule.Date, schedule.Date) (map[schedule.Date][]schedule.SlotStatus, error) {
	return map[schedule.Date][]schedule.SlotStatus{}, nil
}

func (stubAvailability) DayAvailability(context.Context, schedule.Date) ([]schedule.SlotStatus, error) {
	return []schedule.SlotStatus{}, nil
}

type stubTemplate struct{}

func (stubTemplate) ListTemplate(context.Context) ([]schedule.TemplateEntry, error) { return nil, nil }
func (stubTemplate) Add(context.Context, schedule.TemplateEntry) error              { return nil }
func (stubTemplate) Remove(context.Context, schedule.DayOfWeek, schedule.TimeOfDay) error {
	return nil
}

type stubBlocks struct{}

func (stubBlocks) ListBlocks(context.Context, schedule.Date, schedule.Date) ([]schedule.Block, error) {
	return nil, nil
}
func (stubBlocks) Block(context.Context, schedule.Date, *schedule.TimeOfDay) error   { return nil }
func (stubBlocks) Unblock(context.Context, schedule.Date, *schedule.TimeOfDay) error { return nil }

type stubBookings struct{}

func (stubBookings) ListRange(context.Context, schedule.Date, schedule.Date) ([]appointments.Appointment, error) {
	return nil, nil
}

func (stubBookings) Complete(_ context.Context, id uuid.UUID) (*appointments.Appointment, error) {
	return &appointments.Appointment{ID: id}, nil
}

func testRouter(t *testing.T, secret string) http.Handler {
	t.Helper()
	return New(&Config{
		Availability: handlers.NewAvailabilityHandler(stubAvailability{}, nil),
		AdminSchedule: handlers.NewAdminScheduleHandler(handlers.AdminScheduleConfig{
			Template: stubTemplate{},
			Blocks:   stubBlocks{},
			Bookings: stubBookings{},
		}),
		AdminAuthSecret: secret,
	})
}

func adminToken(t *testing.T, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestHealthEndpoint(t *testing.T) {
	r := testRouter(t, "")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestPublicAvailabilityRoute(t *testing.T) {
	r := testRouter(t, "")

	req := httptest.NewRequest(http.MethodGet, "/api/availability?date=2025-03-03", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestAdminRoutesRequireJWT(t *testing.T) {
	r := testRouter(t, "test-secret")

	req := httptest.NewRequest(http.MethodGet, "/admin/template", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/template", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t, "test-secret"))
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestAdminRoutesAbsentWithoutSecret(t *testing.T) {
	r := testRouter(t, "")

	req := httptest.NewRequest(http.MethodGet, "/admin/template", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 when admin auth disabled, got %d", rr.Code)
	}
}
