package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lunanails/booking-api/internal/http/handlers"
	httpmiddleware "github.com/lunanails/booking-api/internal/http/middleware"
	"github.com/lunanails/booking-api/internal/payments"
	"github.com/lunanails/booking-api/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Availability       *handlers.AvailabilityHandler
	Bookings           *handlers.BookingHandler
	AdminSchedule      *handlers.AdminScheduleHandler
	SquareWebhook      *payments.SquareWebhookHandler
	MetricsHandler     http.Handler
	AdminAuthSecret    string
	CORSAllowedOrigins []string
	RateLimitPerSec    float64
	RateLimitBurst     int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Public endpoints (booking flow, webhooks)
	r.Group(func(public chi.Router) {
		if cfg.RateLimitPerSec > 0 {
			public.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSec, cfg.RateLimitBurst))
		}
		if cfg.Availability != nil {
			public.Get("/api/availability", cfg.Availability.Get)
		}
		if cfg.Bookings != nil {
			public.Route("/api/bookings", func(b chi.Router) {
				b.Post("/", cfg.Bookings.Create)
				b.Get("/{id}", cfg.Bookings.Get)
				b.Get("/{id}/reschedule", cfg.Bookings.CanReschedule)
				b.Post("/{id}/reschedule", cfg.Bookings.Reschedule)
				b.Post("/{id}/cancel", cfg.Bookings.Cancel)
				b.Post("/{id}/design-image", cfg.Bookings.UploadDesign)
			})
		}
		if cfg.SquareWebhook != nil {
			public.Post("/webhooks/square", cfg.SquareWebhook.Handle)
		}
	})

	// Admin routes (protected by JWT)
	if cfg.AdminAuthSecret != "" && cfg.AdminSchedule != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/template", cfg.AdminSchedule.ListTemplate)
			admin.Post("/template", cfg.AdminSchedule.AddTemplateEntry)
			admin.Delete("/template", cfg.AdminSchedule.RemoveTemplateEntry)
			admin.Get("/blocks", cfg.AdminSchedule.ListBlocks)
			admin.Post("/blocks", cfg.AdminSchedule.AddBlock)
			admin.Delete("/blocks", cfg.AdminSchedule.RemoveBlock)
			admin.Get("/appointments", cfg.AdminSchedule.ListAppointments)
			admin.Post("/appointments/{id}/complete", cfg.AdminSchedule.CompleteAppointment)
		})
	}

	return r
}
