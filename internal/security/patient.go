// Package security guards the booking and chat pipelines: it
// normalizes patient-submitted fields, validates them, and screens
// free-text chat messages for injection attempts before anything
// reaches the scheduling logic or the LLM.
package security

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Field length caps applied during sanitization.
const (
	maxNameLen    = 100
	maxPhoneLen   = 20
	maxEmailLen   = 100
	maxMessageLen = 500
	maxServiceLen = 100
	maxNotesLen   = 300
	maxChatLen    = 1000
)

// PatientData carries everything the chat widget or appointment form
// submits. It is sanitized and validated before use and consumed
// exactly once by the booking service.
type PatientData struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Message      string `json:"message,omitempty"`
	Service      string `json:"service,omitempty"`
	Date         string `json:"date,omitempty"`
	Time         string `json:"time,omitempty"`
	StartTime    string `json:"startTime,omitempty"`
	EndTime      string `json:"endTime,omitempty"`
	Notes        string `json:"notes,omitempty"`
	IsNewPatient bool   `json:"isNewPatient,omitempty"`
}

// ValidationResult collects every failed check for one payload.
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

var (
	angleBracketsRe = regexp.MustCompile(`[<>]`)
	phoneCharsRe    = regexp.MustCompile(`[^\d\-()\s+]`)
	phoneRe         = regexp.MustCompile(`^\+?[\d\s\-()]{10,}$`)
	emailRe         = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nonDigitRe      = regexp.MustCompile(`\D`)
	javascriptRe    = regexp.MustCompile(`(?i)javascript:`)
)

// validServices is the fixed set of bookable services. Matching is
// case-insensitive containment, so "crown fitting" matches "crown".
var validServices = []string{
	"cleaning",
	"exam",
	"filling",
	"crown",
	"root canal",
	"teeth whitening",
	"orthodontics",
	"oral surgery",
	"emergency",
	"consultation",
}

// truncate limits s to max runes.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) > max {
		return string(r[:max])
	}
	return s
}

// SanitizePatientData strips markup characters, trims, and truncates
// every free-text field to its cap. Email is lower-cased.
func SanitizePatientData(data PatientData) PatientData {
	return PatientData{
		Name:         truncate(strings.TrimSpace(angleBracketsRe.ReplaceAllString(data.Name, "")), maxNameLen),
		Phone:        truncate(strings.TrimSpace(phoneCharsRe.ReplaceAllString(data.Phone, "")), maxPhoneLen),
		Email:        truncate(strings.TrimSpace(strings.ToLower(data.Email)), maxEmailLen),
		Message:      strings.TrimSpace(truncate(data.Message, maxMessageLen)),
		Service:      truncate(strings.TrimSpace(data.Service), maxServiceLen),
		Date:         strings.TrimSpace(data.Date),
		Time:         strings.TrimSpace(data.Time),
		StartTime:    strings.TrimSpace(data.StartTime),
		EndTime:      strings.TrimSpace(data.EndTime),
		Notes:        strings.TrimSpace(truncate(data.Notes, maxNotesLen)),
		IsNewPatient: data.IsNewPatient,
	}
}

// parseDate accepts the date formats the widget produces. Date-only
// strings are read in loc so the day boundary is the clinic's, not the
// server's.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("security: unrecognized date %q", s)
}

// ValidatePatientData runs every check independently and returns the
// full list of failures. An empty error list means the data is valid.
// Date bounds (not past, at most three months out) are evaluated
// against the clinic's calendar day in loc; nil falls back to UTC.
func ValidatePatientData(data PatientData, loc *time.Location) ValidationResult {
	if loc == nil {
		loc = time.UTC
	}
	var errs []string

	if len([]rune(data.Name)) < 2 {
		errs = append(errs, "Name must be at least 2 characters long")
	}
	if len([]rune(data.Name)) > maxNameLen {
		errs = append(errs, "Name must be less than 100 characters")
	}

	phone := strings.Join(strings.Fields(data.Phone), "")
	if !phoneRe.MatchString(phone) {
		errs = append(errs, "Please enter a valid phone number (at least 10 digits)")
	}

	if !emailRe.MatchString(data.Email) {
		errs = append(errs, "Please enter a valid email address")
	}

	if data.Service != "" && !isKnownService(data.Service) {
		errs = append(errs, "Please select a valid service")
	}

	if data.Date != "" {
		if date, err := parseDate(data.Date, loc); err != nil {
			errs = append(errs, "Please enter a valid appointment date")
		} else {
			today := truncateToDay(time.Now(), loc)
			if truncateToDay(date, loc).Before(today) {
				errs = append(errs, "Appointment date cannot be in the past")
			}
			if truncateToDay(date, loc).After(today.AddDate(0, 3, 0)) {
				errs = append(errs, "Appointments can only be booked up to 3 months in advance")
			}
		}
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

func isKnownService(service string) bool {
	lower := strings.ToLower(service)
	for _, s := range validServices {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

func truncateToDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// suspiciousPatterns flag script-like content in chat messages. Hits
// are rejected outright rather than stripped.
var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)on\w+\s*=`),
	regexp.MustCompile(`(?i)<iframe`),
	regexp.MustCompile(`(?i)data:text/html`),
}

// ValidateChatMessage rejects empty, oversized, or script-bearing
// messages bound for the chat assistant.
func ValidateChatMessage(message string) ValidationResult {
	var errs []string

	if strings.TrimSpace(message) == "" {
		errs = append(errs, "Message cannot be empty")
	}
	if len([]rune(message)) > maxChatLen {
		errs = append(errs, "Message must be less than 1000 characters")
	}
	for _, p := range suspiciousPatterns {
		if p.MatchString(message) {
			errs = append(errs, "Message contains invalid content")
			break
		}
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

// SanitizeMessage strips angle brackets and javascript: protocols,
// trims, and caps the message length.
func SanitizeMessage(message string) string {
	cleaned := angleBracketsRe.ReplaceAllString(message, "")
	cleaned = javascriptRe.ReplaceAllString(cleaned, "")
	return truncate(strings.TrimSpace(cleaned), maxChatLen)
}

// emergencyKeywords signal a dental emergency in free text.
var emergencyKeywords = []string{
	"severe pain",
	"emergency",
	"urgent",
	"bleeding",
	"swelling",
	"can't open mouth",
	"knocked out tooth",
	"broken tooth",
	"abscess",
	"infection",
	"throbbing",
	"unbearable pain",
	"911",
	"hospital",
}

// IsEmergencyMessage reports whether the message contains any
// emergency keyword (case-insensitive).
func IsEmergencyMessage(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range emergencyKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// FormatPhoneNumber renders a US phone number as (xxx) xxx-xxxx or
// +1 (xxx) xxx-xxxx; anything else is returned unchanged.
func FormatPhoneNumber(phone string) string {
	digits := nonDigitRe.ReplaceAllString(phone, "")
	switch {
	case len(digits) == 10:
		return fmt.Sprintf("(%s) %s-%s", digits[:3], digits[3:6], digits[6:])
	case len(digits) == 11 && digits[0] == '1':
		return fmt.Sprintf("+1 (%s) %s-%s", digits[1:4], digits[4:7], digits[7:])
	}
	return phone
}

// MaskSensitiveData returns a copy safe for log lines: the email local
// part and all but the last four phone digits are masked.
func MaskSensitiveData(data PatientData) PatientData {
	masked := data

	if user, domain, ok := strings.Cut(masked.Email, "@"); ok && user != "" && domain != "" {
		prefix := user
		if len(prefix) > 2 {
			prefix = prefix[:2]
		}
		masked.Email = prefix + "***@" + domain
	}

	if digits := nonDigitRe.ReplaceAllString(masked.Phone, ""); len(digits) >= 10 {
		masked.Phone = "***-***-" + digits[len(digits)-4:]
	}

	return masked
}
