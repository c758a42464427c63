// Package booking implements the availability and appointment flows:
// slot lookups against the calendar gateway with a deterministic
// fallback when the calendar is unreachable, and appointment
// create/cancel with the clinic's duration policy.
package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ietfeiheh2016/smilecare-dental-website/internal/calendar"
	"github.com/ietfeiheh2016/smilecare-dental-website/internal/observability/metrics"
	"github.com/ietfeiheh2016/smilecare-dental-website/internal/schedule"
	"github.com/ietfeiheh2016/smilecare-dental-website/internal/security"
	"github.com/ietfeiheh2016/smilecare-dental-website/pkg/logging"
)

// Appointment duration policy: new patients get a longer first visit.
const (
	returningPatientDuration = 30 * time.Minute
	newPatientDuration       = 60 * time.Minute
)

// reminderOffsets are sent before the appointment start: two emails,
// then a popup one hour out.
var reminderOffsets = []time.Duration{24 * time.Hour, 2 * time.Hour, time.Hour}

// Confirmation is returned after a successful appointment insert.
type Confirmation struct {
	EventID   string    `json:"eventId"`
	Link      string    `json:"link,omitempty"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

// Service owns the booking flows. It holds no state between calls; the
// external calendar is the sole source of truth for appointments.
type Service struct {
	gateway  calendar.Gateway
	loc      *time.Location
	timezone string
	timeout  time.Duration
	logger   *logging.Logger
	metrics  *metrics.BookingMetrics
}

// NewService wires the booking service. timezone must be a valid IANA
// zone name; gateway calls are bounded by timeout.
func NewService(gateway calendar.Gateway, timezone string, timeout time.Duration, logger *logging.Logger, m *metrics.BookingMetrics) (*Service, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("booking: invalid clinic timezone %q: %w", timezone, err)
	}
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{
		gateway:  gateway,
		loc:      loc,
		timezone: timezone,
		timeout:  timeout,
		logger:   logger,
		metrics:  m,
	}, nil
}

// AvailableSlots computes the bookable slots for a date. When the
// calendar cannot be reached the deterministic fallback list is
// substituted and degraded is true, so callers can tell "confirmed
// free" apart from "assumed free".
func (s *Service) AvailableSlots(ctx context.Context, date time.Time) (slots []schedule.TimeSlot, degraded bool) {
	date = date.In(s.loc)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	busy, err := s.gateway.ListBusyIntervals(ctx, date)
	s.metrics.ObserveGatewayLatency("list", time.Since(start).Seconds())
	if err != nil {
		s.logger.Warn("booking: calendar unavailable, serving fallback slots",
			"date", date.Format("2006-01-02"),
			"error", err,
		)
		s.metrics.ObserveSlotQuery(true)
		return schedule.DefaultSlots(date), true
	}

	s.metrics.ObserveSlotQuery(false)
	return schedule.GenerateSlots(date, busy), false
}

// appointmentDuration applies the clinic's policy: the service is the
// sole authority on appointment length, whatever end time the caller
// supplied.
func appointmentDuration(isNewPatient bool) time.Duration {
	if isNewPatient {
		return newPatientDuration
	}
	return returningPatientDuration
}

// CreateAppointment writes the confirmed slot to the calendar. The
// caller is expected to have sanitized and validated data already.
// A best-effort availability re-check runs immediately before the
// insert; two truly concurrent bookings can still both succeed
// (last-writer-wins, a documented limitation of the calendar backend).
func (s *Service) CreateAppointment(ctx context.Context, data security.PatientData) (*Confirmation, error) {
	start, err := time.Parse(time.RFC3339, data.StartTime)
	if err != nil {
		return nil, fmt.Errorf("booking: invalid start time %q: %w", data.StartTime, err)
	}
	start = start.In(s.loc)
	end := start.Add(appointmentDuration(data.IsNewPatient))

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.recheckAvailability(ctx, start, end); err != nil {
		s.metrics.ObserveBooking("create", "conflict")
		return nil, err
	}

	event := calendar.Event{
		Summary:         fmt.Sprintf("🦷 %s - %s", data.Name, data.Service),
		Description:     eventDescription(data),
		Start:           start,
		End:             end,
		Timezone:        s.timezone,
		AttendeeEmail:   data.Email,
		AttendeeName:    data.Name,
		ReminderOffsets: reminderOffsets,
	}

	insertStart := time.Now()
	created, err := s.gateway.InsertEvent(ctx, event)
	s.metrics.ObserveGatewayLatency("insert", time.Since(insertStart).Seconds())
	if err != nil {
		s.metrics.ObserveBooking("create", "error")
		return nil, fmt.Errorf("booking: failed to create appointment: %w", err)
	}

	s.metrics.ObserveBooking("create", "ok")
	return &Confirmation{
		EventID:   created.ID,
		Link:      created.HTMLLink,
		StartTime: start,
		EndTime:   end,
	}, nil
}

// recheckAvailability narrows the double-booking window by listing
// busy intervals one more time right before the insert. A gateway
// failure here does not block the booking; the insert itself remains
// the final word.
func (s *Service) recheckAvailability(ctx context.Context, start, end time.Time) error {
	busy, err := s.gateway.ListBusyIntervals(ctx, start)
	if err != nil {
		s.logger.Warn("booking: pre-insert availability check skipped", "error", err)
		return nil
	}
	requested := schedule.TimeSlot{Start: start, End: end}
	for _, b := range busy {
		if schedule.Overlaps(requested, b) {
			return fmt.Errorf("booking: the requested time %s is no longer available", start.Format("3:04 PM"))
		}
	}
	return nil
}

// CancelAppointment deletes a previously booked event. No retry; the
// caller decides how to react.
func (s *Service) CancelAppointment(ctx context.Context, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := s.gateway.DeleteEvent(ctx, eventID)
	s.metrics.ObserveGatewayLatency("delete", time.Since(start).Seconds())
	if err != nil {
		s.metrics.ObserveBooking("cancel", "error")
		return fmt.Errorf("booking: failed to cancel appointment: %w", err)
	}
	s.metrics.ObserveBooking("cancel", "ok")
	return nil
}

// eventDescription builds the staff-facing patient detail block stored
// on the calendar event.
func eventDescription(data security.PatientData) string {
	newPatient := "No"
	if data.IsNewPatient {
		newPatient = "Yes"
	}
	notes := data.Notes
	if notes == "" {
		notes = "None"
	}

	var b strings.Builder
	b.WriteString("Patient Information:\n")
	fmt.Fprintf(&b, "- Name: %s\n", data.Name)
	fmt.Fprintf(&b, "- Phone: %s\n", security.FormatPhoneNumber(data.Phone))
	fmt.Fprintf(&b, "- Email: %s\n", data.Email)
	fmt.Fprintf(&b, "- Service: %s\n", data.Service)
	fmt.Fprintf(&b, "- New Patient: %s\n", newPatient)
	fmt.Fprintf(&b, "- Notes: %s\n", notes)
	b.WriteString("- Booked via: AI Chatbot\n\n")
	b.WriteString("Reminders:\n")
	b.WriteString("- Call patient day before to confirm\n")
	b.WriteString("- Prepare treatment room\n")
	b.WriteString("- Review patient history if returning patient")
	return b.String()
}
