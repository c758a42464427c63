// Package chat runs the dental assistant: Gemini-backed conversation,
// intent classification, and emergency detection, all degrading to a
// fixed "please call us" message when the model is unreachable.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ietfeiheh2016/smilecare-dental-website/internal/observability/metrics"
	"github.com/ietfeiheh2016/smilecare-dental-website/internal/security"
	"github.com/ietfeiheh2016/smilecare-dental-website/pkg/logging"
)

// Intent labels the primary purpose of a patient message.
type Intent string

const (
	IntentBookAppointment Intent = "BOOK_APPOINTMENT"
	IntentServiceInfo     Intent = "SERVICE_INFO"
	IntentInsurance       Intent = "INSURANCE"
	IntentEmergency       Intent = "EMERGENCY"
	IntentHoursLocation   Intent = "HOURS_LOCATION"
	IntentGeneral         Intent = "GENERAL"
)

var knownIntents = map[Intent]struct{}{
	IntentBookAppointment: {},
	IntentServiceInfo:     {},
	IntentInsurance:       {},
	IntentEmergency:       {},
	IntentHoursLocation:   {},
	IntentGeneral:         {},
}

// Reply is one assistant turn surfaced to the widget.
type Reply struct {
	Response    string    `json:"response"`
	Intent      Intent    `json:"intent"`
	IsEmergency bool      `json:"isEmergency"`
	Timestamp   time.Time `json:"timestamp"`
}

// Service drives the assistant. It holds no conversation state; the
// widget replays history with every request.
type Service struct {
	llm      LLMClient
	practice Practice
	timeout  time.Duration
	logger   *logging.Logger
	metrics  *metrics.ChatMetrics
}

// NewService wires the chat service. LLM calls are bounded by timeout.
func NewService(llm LLMClient, practice Practice, timeout time.Duration, logger *logging.Logger, m *metrics.ChatMetrics) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Service{
		llm:      llm,
		practice: practice,
		timeout:  timeout,
		logger:   logger,
		metrics:  m,
	}
}

// Respond produces the assistant's reply for an already-sanitized
// message. LLM failures never propagate: the reply falls back to the
// apology with the clinic's phone number.
func (s *Service) Respond(ctx context.Context, message string, history []Message) Reply {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	isEmergency := security.IsEmergencyMessage(message)
	if isEmergency {
		s.metrics.ObserveEmergency()
	}

	status := "ok"
	response, err := s.llm.Chat(ctx, s.practice.SystemPrompt(), history, message)
	if err != nil {
		s.logger.Error("chat: llm request failed", "error", err)
		response = s.practice.FallbackResponse()
		status = "fallback"
	}

	intent := s.detectIntent(ctx, message)
	s.metrics.ObserveTurn(string(intent), status)

	return Reply{
		Response:    response,
		Intent:      intent,
		IsEmergency: isEmergency,
		Timestamp:   time.Now().UTC(),
	}
}

// detectIntent classifies the message, defaulting to GENERAL on any
// failure or unrecognized label.
func (s *Service) detectIntent(ctx context.Context, message string) Intent {
	raw, err := s.llm.Generate(ctx, intentPrompt(message))
	if err != nil {
		s.logger.Warn("chat: intent detection failed", "error", err)
		return IntentGeneral
	}

	intent := Intent(strings.ToUpper(strings.Trim(strings.TrimSpace(raw), `"`)))
	if _, ok := knownIntents[intent]; !ok {
		return IntentGeneral
	}
	return intent
}

// AppointmentSummary asks the model for a confirmation message after a
// booking, with a static fallback so the patient always sees one.
func (s *Service) AppointmentSummary(ctx context.Context, data security.PatientData) string {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	summary, err := s.llm.Generate(ctx, summaryPrompt(
		data.Name, data.Service, data.Date, data.Time, data.Phone, data.Email,
	))
	if err != nil || strings.TrimSpace(summary) == "" {
		if err != nil {
			s.logger.Warn("chat: summary generation failed", "error", err)
		}
		return fmt.Sprintf(
			"Your appointment has been confirmed for %s at %s. Please arrive 15 minutes early and bring your insurance card and ID.",
			data.Date, data.Time,
		)
	}
	return summary
}
