// Package tests contains end-to-end regression tests that exercise the
// full HTTP surface against scripted calendar and LLM doubles.
package tests

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ietfeiheh2016/smilecare-dental-website/internal/api/router"
	"github.com/ietfeiheh2016/smilecare-dental-website/internal/booking"
	"github.com/ietfeiheh2016/smilecare-dental-website/internal/calendar"
	"github.com/ietfeiheh2016/smilecare-dental-website/internal/chat"
	"github.com/ietfeiheh2016/smilecare-dental-website/internal/observability/metrics"
	"github.com/ietfeiheh2016/smilecare-dental-website/internal/schedule"
	"github.com/ietfeiheh2016/smilecare-dental-website/pkg/logging"
)

const clinicPhone = "(555) 123-4567"

// scriptedGateway is a calendar double with per-test busy intervals and
// failure switches.
type scriptedGateway struct {
	mu       sync.Mutex
	busy     []schedule.BusyInterval
	listErr  error
	inserted []calendar.Event
}

func (g *scriptedGateway) ListBusyIntervals(_ context.Context, _ time.Time) ([]schedule.BusyInterval, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.listErr != nil {
		return nil, g.listErr
	}
	return g.busy, nil
}

func (g *scriptedGateway) InsertEvent(_ context.Context, event calendar.Event) (*calendar.CreatedEvent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inserted = append(g.inserted, event)
	return &calendar.CreatedEvent{ID: fmt.Sprintf("evt-%d", len(g.inserted))}, nil
}

func (g *scriptedGateway) DeleteEvent(context.Context, string) error { return nil }

type scriptedLLM struct {
	chatReply string
	chatErr   error
	intent    string
}

func (l *scriptedLLM) Chat(context.Context, string, []chat.Message, string) (string, error) {
	return l.chatReply, l.chatErr
}

func (l *scriptedLLM) Generate(context.Context, string) (string, error) {
	if l.intent == "" {
		return "GENERAL", nil
	}
	return l.intent, nil
}

func (l *scriptedLLM) Close() error { return nil }

func newServer(t *testing.T, gw *scriptedGateway, llm *scriptedLLM) http.Handler {
	t.Helper()

	logger := logging.New("error")
	reg := prometheus.NewRegistry()

	svc, err := booking.NewService(gw, "America/New_York", time.Second, logger,
		metrics.NewBookingMetrics(reg))
	require.NoError(t, err)

	practice := chat.Practice{
		Name:    "SmileCare Dental Clinic",
		Doctor:  "Dr. Sarah Johnson, DDS",
		Address: "123 Dental Street, SmileCity, SC 12345",
		Phone:   clinicPhone,
	}
	chatSvc := chat.NewService(llm, practice, time.Second, logger, metrics.NewChatMetrics(reg))

	return router.New(&router.Config{
		Logger:         logger,
		BookingHandler: booking.NewHandler(svc, clinicPhone, logger),
		ChatHandler:    chat.NewHandler(chatSvc, logger),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
}

type slotPayload struct {
	Success  bool `json:"success"`
	Degraded bool `json:"degraded"`
	Slots    []struct {
		Start     time.Time `json:"start"`
		End       time.Time `json:"end"`
		Available bool      `json:"available"`
	} `json:"slots"`
}

func getSlots(t *testing.T, srv http.Handler, date string) slotPayload {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/appointments?date="+date, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload slotPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func TestSaturdaySlotsWithMidMorningBusyBlock(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// Saturday 2026-09-05, one appointment 10:00-10:30.
	gw := &scriptedGateway{busy: []schedule.BusyInterval{{
		Start: time.Date(2026, 9, 5, 10, 0, 0, 0, loc),
		End:   time.Date(2026, 9, 5, 10, 30, 0, 0, loc),
	}}}
	srv := newServer(t, gw, &scriptedLLM{chatReply: "hi"})

	payload := getSlots(t, srv, "2026-09-05")
	assert.True(t, payload.Success)
	assert.False(t, payload.Degraded)
	require.Len(t, payload.Slots, 10)

	for _, slot := range payload.Slots {
		local := slot.Start.In(loc)
		if local.Hour() == 10 && local.Minute() == 0 {
			assert.False(t, slot.Available, "10:00 overlaps the busy block")
		} else {
			assert.True(t, slot.Available, "slot %s should be open", local.Format("15:04"))
		}
	}
}

func TestSundayHasNoSlots(t *testing.T) {
	srv := newServer(t, &scriptedGateway{}, &scriptedLLM{chatReply: "hi"})

	payload := getSlots(t, srv, "2026-09-06")
	assert.True(t, payload.Success)
	assert.Empty(t, payload.Slots)
}

func TestCalendarOutageServesFallbackSlots(t *testing.T) {
	gw := &scriptedGateway{listErr: errors.New("calendar unreachable")}
	srv := newServer(t, gw, &scriptedLLM{chatReply: "hi"})

	payload := getSlots(t, srv, "2026-09-07")
	assert.True(t, payload.Success)
	assert.True(t, payload.Degraded)
	assert.Len(t, payload.Slots, 13)
}

func TestBookingFlowNewPatientGetsHourLongEvent(t *testing.T) {
	gw := &scriptedGateway{}
	srv := newServer(t, gw, &scriptedLLM{chatReply: "hi"})

	body := `{
		"action": "create",
		"name": "Jane Doe",
		"phone": "+1 (555) 987-6543",
		"email": "jane@example.com",
		"service": "Dental Cleaning",
		"startTime": "2026-09-07T14:00:00-04:00",
		"endTime": "2026-09-07T14:30:00-04:00",
		"isNewPatient": true
	}`
	req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success       bool   `json:"success"`
		AppointmentID string `json:"appointmentId"`
		StartTime     string `json:"startTime"`
		EndTime       string `json:"endTime"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.AppointmentID)

	start, err := time.Parse(time.RFC3339, resp.StartTime)
	require.NoError(t, err)
	end, err := time.Parse(time.RFC3339, resp.EndTime)
	require.NoError(t, err)
	// Policy overrides the half-hour end time sent by the caller.
	assert.Equal(t, time.Hour, end.Sub(start))

	require.Len(t, gw.inserted, 1)
	event := gw.inserted[0]
	assert.Contains(t, event.Summary, "Jane Doe")
	assert.Contains(t, event.Summary, "Dental Cleaning")
	assert.Equal(t, "jane@example.com", event.AttendeeEmail)
	assert.Equal(t, []time.Duration{24 * time.Hour, 2 * time.Hour, time.Hour}, event.ReminderOffsets)
}

func TestBookingConflictIsRejected(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	gw := &scriptedGateway{busy: []schedule.BusyInterval{{
		Start: time.Date(2026, 9, 7, 14, 0, 0, 0, loc),
		End:   time.Date(2026, 9, 7, 15, 0, 0, 0, loc),
	}}}
	srv := newServer(t, gw, &scriptedLLM{chatReply: "hi"})

	body := `{
		"action": "create",
		"name": "Jane Doe",
		"phone": "+1 (555) 987-6543",
		"email": "jane@example.com",
		"service": "Teeth Whitening",
		"startTime": "2026-09-07T14:00:00-04:00",
		"isNewPatient": false
	}`
	req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), clinicPhone)
	assert.Empty(t, gw.inserted)
}

func TestBookingValidationErrorsAreCollected(t *testing.T) {
	srv := newServer(t, &scriptedGateway{}, &scriptedLLM{chatReply: "hi"})

	body := `{
		"action": "create",
		"name": "J",
		"phone": "123",
		"email": "not-an-email",
		"service": "Astrology",
		"startTime": "2026-09-07T14:00:00-04:00"
	}`
	req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid appointment data")
	assert.Contains(t, rec.Body.String(), "Name must be at least 2 characters long")
	assert.Contains(t, rec.Body.String(), "valid phone number")
	assert.Contains(t, rec.Body.String(), "valid email address")
	assert.Contains(t, rec.Body.String(), "valid service")
}

func TestChatFallsBackWhenLLMIsDown(t *testing.T) {
	llm := &scriptedLLM{chatErr: errors.New("model overloaded")}
	srv := newServer(t, &scriptedGateway{}, llm)

	req := httptest.NewRequest(http.MethodPost, "/chat",
		strings.NewReader(`{"message":"Do you take my insurance?"}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), clinicPhone)
	assert.Contains(t, rec.Body.String(), "trouble connecting")
}

func TestChatFlagsEmergencies(t *testing.T) {
	llm := &scriptedLLM{chatReply: "Please come in right away.", intent: "EMERGENCY"}
	srv := newServer(t, &scriptedGateway{}, llm)

	req := httptest.NewRequest(http.MethodPost, "/chat",
		strings.NewReader(`{"message":"I have severe pain and a knocked out tooth"}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Response    string `json:"response"`
		Intent      string `json:"intent"`
		IsEmergency bool   `json:"isEmergency"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.IsEmergency)
	assert.Equal(t, "EMERGENCY", resp.Intent)
}

func TestChatRejectsScriptInjection(t *testing.T) {
	srv := newServer(t, &scriptedGateway{}, &scriptedLLM{chatReply: "hi"})

	req := httptest.NewRequest(http.MethodPost, "/chat",
		strings.NewReader(`{"message":"<script>alert(1)</script>"}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid message content")
}
