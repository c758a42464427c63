package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string

	// Google Calendar gateway
	GoogleServiceAccountKey string
	GoogleCalendarID        string
	CalendarTimeout         time.Duration

	// Gemini chat assistant
	GeminiAPIKey string
	GeminiModel  string
	ChatTimeout  time.Duration

	// Clinic profile surfaced in prompts and fallback copy
	ClinicName     string
	ClinicDoctor   string
	ClinicAddress  string
	ClinicPhone    string
	ClinicTimezone string

	// Abuse protection on the public endpoints
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),

		GoogleServiceAccountKey: getEnv("GOOGLE_SERVICE_ACCOUNT_KEY", ""),
		GoogleCalendarID:        getEnv("GOOGLE_CALENDAR_ID", ""),
		CalendarTimeout:         getEnvAsDuration("CALENDAR_TIMEOUT", 10*time.Second),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		ChatTimeout:  getEnvAsDuration("CHAT_TIMEOUT", 30*time.Second),

		ClinicName:     getEnv("CLINIC_NAME", "SmileCare Dental Clinic"),
		ClinicDoctor:   getEnv("CLINIC_DOCTOR", "Dr. Sarah Johnson, DDS"),
		ClinicAddress:  getEnv("CLINIC_ADDRESS", "123 Dental Street, SmileCity, SC 12345"),
		ClinicPhone:    getEnv("CLINIC_PHONE", "(555) 123-4567"),
		ClinicTimezone: getEnv("CLINIC_TIMEZONE", "America/New_York"),

		RateLimitPerSecond: getEnvAsFloat("RATE_LIMIT_PER_SECOND", 5),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 20),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsSlice splits a comma-separated environment variable into
// trimmed entries, dropping empties.
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			values = append(values, p)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
