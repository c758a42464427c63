// Package schedule contains the clinic's availability rules: business
// hours, the 30-minute booking grid, overlap detection against calendar
// events, and the fallback slot list used when the calendar is
// unreachable. Everything here is pure computation with no I/O.
package schedule

import (
	"time"
)

// SlotDuration is the length of every bookable slot on the grid.
const SlotDuration = 30 * time.Minute

// TimeSlot is a single candidate appointment slot. End is always
// Start + SlotDuration.
type TimeSlot struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
}

// BusyInterval is an occupied range pulled from the external calendar.
// Intervals are half-open: [Start, End).
type BusyInterval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether the slot and the busy interval intersect,
// using half-open semantics: [s1,e1) and [s2,e2) overlap iff
// s1 < e2 && s2 < e1. All-day calendar events are expanded to
// midnight-to-midnight intervals by the gateway, so no special casing
// is needed here.
func Overlaps(slot TimeSlot, busy BusyInterval) bool {
	return slot.Start.Before(busy.End) && busy.Start.Before(slot.End)
}

// businessWindow returns the opening and closing times for the given
// date. ok is false on Sundays (clinic closed).
func businessWindow(date time.Time) (open, close time.Time, ok bool) {
	day := date.Weekday()
	loc := date.Location()
	y, m, d := date.Date()

	switch day {
	case time.Sunday:
		return time.Time{}, time.Time{}, false
	case time.Saturday:
		open = time.Date(y, m, d, 9, 0, 0, 0, loc)
		close = time.Date(y, m, d, 14, 0, 0, 0, loc)
	default:
		open = time.Date(y, m, d, 8, 0, 0, 0, loc)
		close = time.Date(y, m, d, 18, 0, 0, 0, loc)
	}
	return open, close, true
}

// isLunch reports whether a weekday slot starting at t falls in the
// 12:00-13:00 lunch break. Saturdays close at 14:00 and skip lunch.
func isLunch(t time.Time) bool {
	return t.Weekday() != time.Saturday && t.Hour() == 12
}

// GenerateSlots builds the ordered 30-minute slot grid for the given
// date, marking each slot unavailable when any busy interval overlaps
// it. Lunch slots on weekdays are never emitted. Sundays yield an
// empty list. The result is recomputed fresh on every call.
func GenerateSlots(date time.Time, busy []BusyInterval) []TimeSlot {
	open, close, ok := businessWindow(date)
	if !ok {
		return nil
	}

	var slots []TimeSlot
	for start := open; !start.Add(SlotDuration).After(close); start = start.Add(SlotDuration) {
		if isLunch(start) {
			continue
		}
		slot := TimeSlot{Start: start, End: start.Add(SlotDuration)}
		slot.Available = !anyOverlap(slot, busy)
		slots = append(slots, slot)
	}
	return slots
}

func anyOverlap(slot TimeSlot, busy []BusyInterval) bool {
	for _, b := range busy {
		if Overlaps(slot, b) {
			return true
		}
	}
	return false
}

// defaultTimes is the conservative fallback grid offered when the
// calendar service cannot be reached: a subset of the real business
// hours that is safe on any open day.
var defaultTimes = [][2]int{
	{9, 0}, {9, 30}, {10, 0}, {10, 30}, {11, 0}, {11, 30},
	{13, 0}, {13, 30}, {14, 0}, {14, 30}, {15, 0}, {15, 30}, {16, 0},
}

// DefaultSlots returns the fixed fallback slot list for the given
// date, all marked available. The booking flow degrades to this list
// instead of failing closed; the eventual appointment insert is still
// the authority on conflicts. Sundays stay empty.
func DefaultSlots(date time.Time) []TimeSlot {
	if date.Weekday() == time.Sunday {
		return nil
	}

	loc := date.Location()
	y, m, d := date.Date()

	slots := make([]TimeSlot, 0, len(defaultTimes))
	for _, hm := range defaultTimes {
		start := time.Date(y, m, d, hm[0], hm[1], 0, 0, loc)
		slots = append(slots, TimeSlot{
			Start:     start,
			End:       start.Add(SlotDuration),
			Available: true,
		})
	}
	return slots
}
