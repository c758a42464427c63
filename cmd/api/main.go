package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ietfeiheh2016/smilecare-dental-website/internal/api/router"
	"github.com/ietfeiheh2016/smilecare-dental-website/internal/booking"
	"github.com/ietfeiheh2016/smilecare-dental-website/internal/calendar"
	"github.com/ietfeiheh2016/smilecare-dental-website/internal/chat"
	appconfig "github.com/ietfeiheh2016/smilecare-dental-website/internal/config"
	"github.com/ietfeiheh2016/smilecare-dental-website/internal/observability/metrics"
	"github.com/ietfeiheh2016/smilecare-dental-website/pkg/logging"
)

func main() {
	// Load .env in development; ignore absence in production.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := newLogger(cfg)
	logger.Info("starting smilecare booking API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()
	metricsHandler, bookingMetrics, chatMetrics := setupMetrics()

	// The calendar client is built once and injected; it lives for the
	// whole process.
	loc, err := time.LoadLocation(cfg.ClinicTimezone)
	if err != nil {
		logger.Error("invalid clinic timezone", "timezone", cfg.ClinicTimezone, "error", err)
		os.Exit(1)
	}
	gateway, err := calendar.NewGoogleGateway(ctx, cfg.GoogleServiceAccountKey, cfg.GoogleCalendarID, loc, logger)
	if err != nil {
		logger.Error("failed to create calendar gateway", "error", err)
		os.Exit(1)
	}

	bookingSvc, err := booking.NewService(gateway, cfg.ClinicTimezone, cfg.CalendarTimeout, logger, bookingMetrics)
	if err != nil {
		logger.Error("failed to create booking service", "error", err)
		os.Exit(1)
	}

	llm, err := chat.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		logger.Error("failed to create gemini client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := llm.Close(); err != nil {
			logger.Warn("failed to close gemini client", "error", err)
		}
	}()

	practice := chat.Practice{
		Name:    cfg.ClinicName,
		Doctor:  cfg.ClinicDoctor,
		Address: cfg.ClinicAddress,
		Phone:   cfg.ClinicPhone,
	}
	chatSvc := chat.NewService(llm, practice, cfg.ChatTimeout, logger, chatMetrics)

	r := router.New(&router.Config{
		Logger:             logger,
		BookingHandler:     booking.NewHandler(bookingSvc, cfg.ClinicPhone, logger),
		ChatHandler:        chat.NewHandler(chatSvc, logger),
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
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
}

func newLogger(cfg *appconfig.Config) *logging.Logger {
	if cfg.Env == "development" {
		return logging.NewText(cfg.LogLevel)
	}
	return logging.New(cfg.LogLevel)
}

// setupMetrics builds the process registry and the domain metric sets.
func setupMetrics() (http.Handler, *metrics.BookingMetrics, *metrics.ChatMetrics) {
	reg := prometheus.NewRegistry()
	bookingMetrics := metrics.NewBookingMetrics(reg)
	chatMetrics := metrics.NewChatMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), bookingMetrics, chatMetrics
}
