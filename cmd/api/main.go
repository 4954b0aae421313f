package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/lunanails/booking-api/cmd/mainconfig"
	"github.com/lunanails/booking-api/internal/api/router"
	"github.com/lunanails/booking-api/internal/appointments"
	"github.com/lunanails/booking-api/internal/blocks"
	appconfig "github.com/lunanails/booking-api/internal/config"
	"github.com/lunanails/booking-api/internal/http/handlers"
	"github.com/lunanails/booking-api/internal/notify"
	"github.com/lunanails/booking-api/internal/observability/metrics"
	"github.com/lunanails/booking-api/internal/payments"
	"github.com/lunanails/booking-api/internal/schedule"
	"github.com/lunanails/booking-api/internal/slottemplate"
	"github.com/lunanails/booking-api/internal/uploads"
	"github.com/lunanails/booking-api/pkg/logging"
)

func main() {
	// Local development convenience; production sets real env vars.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting booking API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	loc, err := time.LoadLocation(cfg.SalonTimezone)
	if err != nil {
		logger.Error("invalid salon timezone", "error", err, "tz", cfg.SalonTimezone)
		os.Exit(1)
	}

	ctx := context.Background()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() { _ = redisClient.Close() }()

	bookingMetrics := metrics.NewBookingMetrics(nil)

	// Stores and availability engine
	templateRepo := slottemplate.NewRepository(pool)
	templateSource := slottemplate.NewCachedSource(templateRepo, redisClient, cfg.TemplateCacheTTL, logger)
	blocksRepo := blocks.NewRepository(pool)
	apptRepo := appointments.NewRepository(pool)
	engine := schedule.NewEngine(templateSource, apptRepo, blocksRepo)

	// Client notifications
	var sender notify.EmailSender
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sg != nil {
		sender = sg
	} else {
		logger.Warn("sendgrid not configured, email notifications disabled")
		sender = notify.NewStubEmailSender(logger)
	}
	notifier := notify.NewBookingNotifier(sender, cfg.SalonName, logger)

	svc := appointments.NewService(apptRepo, engine, notifier, bookingMetrics, logger, loc)

	// Design image uploads
	var bookingHandler *handlers.BookingHandler
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	designStore := uploads.NewStore(s3.NewFromConfig(awsCfg), cfg.DesignImageBucket, logger)
	if designStore.Enabled() {
		bookingHandler = handlers.NewBookingHandler(svc, designStore, logger)
	} else {
		logger.Warn("design image bucket not configured, uploads disabled")
		bookingHandler = handlers.NewBookingHandler(svc, nil, logger)
	}

	// Payment webhook
	processedStore := payments.NewProcessedStore(pool)
	squareWebhook := payments.NewSquareWebhookHandler(cfg.SquareWebhookKey, svc, processedStore, bookingMetrics, logger)

	adminHandler := handlers.NewAdminScheduleHandler(handlers.AdminScheduleConfig{
		Template: templateRepo,
		Cache:    templateSource,
		Blocks:   blocksRepo,
		Bookings: svc,
		Logger:   logger,
	})

	r := router.New(&router.Config{
		Logger:             logger,
		Availability:       handlers.NewAvailabilityHandler(svc, logger),
		Bookings:           bookingHandler,
		AdminSchedule:      adminHandler,
		SquareWebhook:      squareWebhook,
		MetricsHandler:     promhttp.Handler(),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerSec:    cfg.RateLimitPerSec,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}
