// Package calendar is the boundary to the clinic's Google Calendar.
// It exposes a narrow Gateway interface so the booking service can be
// exercised against fakes, with a single Google-backed implementation
// constructed at startup and injected everywhere it is needed.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ietfeiheh2016/smilecare-dental-website/internal/schedule"
	"github.com/ietfeiheh2016/smilecare-dental-website/pkg/logging"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Event is the domain-side appointment body handed to the gateway.
type Event struct {
	Summary       string
	Description   string
	Start         time.Time
	End           time.Time
	Timezone      string
	AttendeeEmail string
	AttendeeName  string
	// ReminderOffsets are durations before Start at which the patient
	// is reminded. The first entries go out by email, the last by popup.
	ReminderOffsets []time.Duration
}

// CreatedEvent identifies an event the external calendar accepted.
type CreatedEvent struct {
	ID       string
	HTMLLink string
}

// Gateway is the set of calendar operations the booking flow consumes.
type Gateway interface {
	// ListBusyIntervals returns every occupied interval on the given
	// calendar day, all-day events expanded to midnight-to-midnight.
	ListBusyIntervals(ctx context.Context, date time.Time) ([]schedule.BusyInterval, error)
	InsertEvent(ctx context.Context, event Event) (*CreatedEvent, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

// GoogleGateway implements Gateway against the Google Calendar v3 API
// using service-account credentials.
type GoogleGateway struct {
	svc        *gcal.Service
	calendarID string
	loc        *time.Location
	logger     *logging.Logger
}

// NewGoogleGateway authenticates with the service-account key file and
// builds the calendar client. The client is reused for the life of the
// process.
func NewGoogleGateway(ctx context.Context, credentialsFile, calendarID string, loc *time.Location, logger *logging.Logger) (*GoogleGateway, error) {
	if strings.TrimSpace(credentialsFile) == "" {
		return nil, errors.New("calendar: service account key file is required")
	}
	if strings.TrimSpace(calendarID) == "" {
		return nil, errors.New("calendar: calendar id is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if loc == nil {
		loc = time.UTC
	}

	svc, err := gcal.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gcal.CalendarScope, gcal.CalendarEventsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("calendar: failed to create calendar service: %w", err)
	}

	return &GoogleGateway{
		svc:        svc,
		calendarID: calendarID,
		loc:        loc,
		logger:     logger,
	}, nil
}

// ListBusyIntervals fetches every event between midnight and midnight
// of the requested day, ordered by start time.
func (g *GoogleGateway) ListBusyIntervals(ctx context.Context, date time.Time) ([]schedule.BusyInterval, error) {
	y, m, d := date.In(g.loc).Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, g.loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	resp, err := g.svc.Events.List(g.calendarID).
		TimeMin(dayStart.Format(time.RFC3339)).
		TimeMax(dayEnd.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("calendar: failed to list events: %w", err)
	}

	busy := make([]schedule.BusyInterval, 0, len(resp.Items))
	for _, item := range resp.Items {
		interval, err := g.busyInterval(item)
		if err != nil {
			g.logger.Warn("calendar: skipping unparseable event", "event_id", item.Id, "error", err)
			continue
		}
		busy = append(busy, interval)
	}
	return busy, nil
}

// busyInterval converts a calendar event to a busy range. Timed events
// carry RFC3339 datetimes; all-day events carry a date only and block
// the full day.
func (g *GoogleGateway) busyInterval(item *gcal.Event) (schedule.BusyInterval, error) {
	start, err := g.eventTime(item.Start)
	if err != nil {
		return schedule.BusyInterval{}, fmt.Errorf("bad start: %w", err)
	}
	end, err := g.eventTime(item.End)
	if err != nil {
		return schedule.BusyInterval{}, fmt.Errorf("bad end: %w", err)
	}
	return schedule.BusyInterval{Start: start, End: end}, nil
}

func (g *GoogleGateway) eventTime(edt *gcal.EventDateTime) (time.Time, error) {
	if edt == nil {
		return time.Time{}, errors.New("missing event time")
	}
	if edt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, edt.DateTime)
		if err != nil {
			return time.Time{}, err
		}
		return t.In(g.loc), nil
	}
	if edt.Date != "" {
		t, err := time.ParseInLocation("2006-01-02", edt.Date, g.loc)
		if err != nil {
			return time.Time{}, err
		}
		return t, nil
	}
	return time.Time{}, errors.New("event time has neither dateTime nor date")
}

// InsertEvent writes the appointment to the calendar and notifies the
// patient attendee.
func (g *GoogleGateway) InsertEvent(ctx context.Context, event Event) (*CreatedEvent, error) {
	body := &gcal.Event{
		Summary:     event.Summary,
		Description: event.Description,
		Start: &gcal.EventDateTime{
			DateTime: event.Start.Format(time.RFC3339),
			TimeZone: event.Timezone,
		},
		End: &gcal.EventDateTime{
			DateTime: event.End.Format(time.RFC3339),
			TimeZone: event.Timezone,
		},
		Attendees: []*gcal.EventAttendee{{
			Email:          event.AttendeeEmail,
			DisplayName:    event.AttendeeName,
			ResponseStatus: "needsAction",
		}},
		GuestsCanInviteOthers:   func() *bool { b := false; return &b }(),
		GuestsCanSeeOtherGuests: func() *bool { b := false; return &b }(),
	}

	if len(event.ReminderOffsets) > 0 {
		overrides := make([]*gcal.EventReminder, 0, len(event.ReminderOffsets))
		for i, offset := range event.ReminderOffsets {
			method := "email"
			if i == len(event.ReminderOffsets)-1 {
				method = "popup"
			}
			overrides = append(overrides, &gcal.EventReminder{
				Method:  method,
				Minutes: int64(offset / time.Minute),
			})
		}
		body.Reminders = &gcal.EventReminders{
			UseDefault:      false,
			Overrides:       overrides,
			ForceSendFields: []string{"UseDefault"},
		}
	}

	created, err := g.svc.Events.Insert(g.calendarID, body).
		SendUpdates("all").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("calendar: failed to insert event: %w", err)
	}

	return &CreatedEvent{ID: created.Id, HTMLLink: created.HtmlLink}, nil
}

// DeleteEvent removes a previously created appointment.
func (g *GoogleGateway) DeleteEvent(ctx context.Context, eventID string) error {
	if strings.TrimSpace(eventID) == "" {
		return errors.New("calendar: event id is required")
	}
	if err := g.svc.Events.Delete(g.calendarID, eventID).
		SendUpdates("all").
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("calendar: failed to delete event %s: %w", eventID, err)
	}
	return nil
}
