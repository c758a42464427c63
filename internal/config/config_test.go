package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 10*time.Second, cfg.CalendarTimeout)
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
	assert.Equal(t, "America/New_York", cfg.ClinicTimezone)
	assert.Equal(t, "(555) 123-4567", cfg.ClinicPhone)
	assert.Equal(t, 20, cfg.RateLimitBurst)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://smilecare.example, https://staging.smilecare.example")
	t.Setenv("CALENDAR_TIMEOUT", "3s")
	t.Setenv("RATE_LIMIT_PER_SECOND", "2.5")
	t.Setenv("GOOGLE_CALENDAR_ID", "clinic@group.calendar.google.com")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, []string{"https://smilecare.example", "https://staging.smilecare.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 3*time.Second, cfg.CalendarTimeout)
	assert.Equal(t, 2.5, cfg.RateLimitPerSecond)
	assert.Equal(t, "clinic@group.calendar.google.com", cfg.GoogleCalendarID)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("CALENDAR_TIMEOUT", "not-a-duration")
	t.Setenv("RATE_LIMIT_BURST", "lots")

	cfg := Load()

	assert.Equal(t, 10*time.Second, cfg.CalendarTimeout)
	assert.Equal(t, 20, cfg.RateLimitBurst)
}
