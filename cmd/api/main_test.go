package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appconfig "github.com/ietfeiheh2016/smilecare-dental-website/internal/config"
)

func TestSetupMetricsExposesMetrics(t *testing.T) {
	handler, bookingMetrics, chatMetrics := setupMetrics()
	if handler == nil || bookingMetrics == nil || chatMetrics == nil {
		t.Fatalf("expected non-nil handler and metrics")
	}

	bookingMetrics.ObserveBooking("create", "success")
	chatMetrics.ObserveTurn("GENERAL", "success")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "smilecare_booking_appointments_total") {
		t.Fatalf("expected booking counter to be exported")
	}
	if !strings.Contains(rr.Body.String(), "smilecare_chat_turns_total") {
		t.Fatalf("expected chat counter to be exported")
	}
}

func TestNewLoggerSelectsHandlerByEnv(t *testing.T) {
	dev := newLogger(&appconfig.Config{Env: "development", LogLevel: "debug"})
	if dev == nil {
		t.Fatalf("expected development logger")
	}

	prod := newLogger(&appconfig.Config{Env: "production", LogLevel: "info"})
	if prod == nil {
		t.Fatalf("expected production logger")
	}
}
