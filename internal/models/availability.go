package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	appErrors "github.com/carelink/clinic-api/pkg/errors"
)

// Weekday is a lowercase English weekday name.
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// Weekdays lists the valid day values in calendar order.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// ValidWeekday reports whether the value is one of the seven weekday names.
func ValidWeekday(day Weekday) bool {
	for _, d := range Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

// TimeSlot is a discrete, independently bookable interval within a day.
// BookedBy and BookingID are both set on claim and both cleared on release.
type TimeSlot struct {
	StartTime   string `json:"start_time" validate:"required,hhmm"`
	EndTime     string `json:"end_time" validate:"required,hhmm"`
	IsAvailable bool   `json:"is_available"`
	BookedBy    string `json:"booked_by,omitempty"`
	BookingID   string `json:"booking_id,omitempty"`
}

// DayAvailability is one day's slot configuration. IsAvailable=false is a
// whole-day override: every slot under the day is unbookable regardless of
// individual slot flags.
type DayAvailability struct {
	Day         Weekday    `json:"day" validate:"required"`
	IsAvailable bool       `json:"is_available"`
	TimeSlots   []TimeSlot `json:"time_slots" validate:"dive"`
}

// WeeklyAvailability is a doctor's full per-day slot grid. The slot sequence
// is rewritten wholesale on every mutation, so a slot is identified by its
// (start, end) time pair rather than by index.
type WeeklyAvailability []DayAvailability

// Value marshals the grid for storage in a JSONB column.
func (w WeeklyAvailability) Value() (driver.Value, error) {
	if w == nil {
		w = WeeklyAvailability{}
	}
	return json.Marshal(w)
}

// Scan unmarshals the grid from a JSONB column.
func (w *WeeklyAvailability) Scan(src interface{}) error {
	if src == nil {
		*w = WeeklyAvailability{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported availability scan type %T", src)
	}
	return json.Unmarshal(raw, w)
}

// FindDay returns the index of the first entry for the given day, or -1.
func (w WeeklyAvailability) FindDay(day Weekday) int {
	for i := range w {
		if w[i].Day == day {
			return i
		}
	}
	return -1
}

// FindSlot returns the day and slot indices of the first slot matching the
// exact time pair, or (-1, -1). First match wins when duplicates exist.
func (w WeeklyAvailability) FindSlot(day Weekday, start, end string) (int, int) {
	dayIdx := w.FindDay(day)
	if dayIdx < 0 {
		return -1, -1
	}
	for i, slot := range w[dayIdx].TimeSlots {
		if slot.StartTime == start && slot.EndTime == end {
			return dayIdx, i
		}
	}
	return dayIdx, -1
}

// HasDuplicateDays reports whether any day appears more than once.
func (w WeeklyAvailability) HasDuplicateDays() bool {
	seen := make(map[Weekday]struct{}, len(w))
	for _, d := range w {
		if _, ok := seen[d.Day]; ok {
			return true
		}
		seen[d.Day] = struct{}{}
	}
	return false
}

// Claim returns a copy of the grid with the matching slot marked as booked.
// The receiver is never mutated.
func (w WeeklyAvailability) Claim(day Weekday, start, end, patientEmail, bookingID string) (WeeklyAvailability, error) {
	dayIdx := w.FindDay(day)
	if dayIdx < 0 {
		return nil, appErrors.ErrDayNotConfigured
	}
	if !w[dayIdx].IsAvailable {
		return nil, appErrors.ErrDayUnavailable
	}

	slotIdx := -1
	for i, slot := range w[dayIdx].TimeSlots {
		if slot.StartTime == start && slot.EndTime == end {
			slotIdx = i
			break
		}
	}
	if slotIdx < 0 {
		return nil, appErrors.ErrSlotNotFound
	}
	if !w[dayIdx].TimeSlots[slotIdx].IsAvailable {
		return nil, appErrors.ErrSlotAlreadyBooked
	}

	updated := w.clone()
	slot := &updated[dayIdx].TimeSlots[slotIdx]
	slot.IsAvailable = false
	slot.BookedBy = patientEmail
	slot.BookingID = bookingID
	return updated, nil
}

// Release returns a copy of the grid with the slot holding the given booking
// freed again. Matching requires both the time pair and the stored booking ID,
// so a slot independently rebooked after a partial cancellation is left alone.
// When no slot matches, the grid is returned unchanged and changed is false.
func (w WeeklyAvailability) Release(day Weekday, start, end, bookingID string) (WeeklyAvailability, bool) {
	dayIdx := w.FindDay(day)
	if dayIdx < 0 {
		return w, false
	}

	for i, slot := range w[dayIdx].TimeSlots {
		if slot.StartTime == start && slot.EndTime == end && slot.BookingID == bookingID {
			updated := w.clone()
			freed := &updated[dayIdx].TimeSlots[i]
			freed.IsAvailable = true
			freed.BookedBy = ""
			freed.BookingID = ""
			return updated, true
		}
	}
	return w, false
}

func (w WeeklyAvailability) clone() WeeklyAvailability {
	out := make(WeeklyAvailability, len(w))
	for i, day := range w {
		out[i] = day
		out[i].TimeSlots = make([]TimeSlot, len(day.TimeSlots))
		copy(out[i].TimeSlots, day.TimeSlots)
	}
	return out
}

// DayStatus is the result of an availability check for a single day.
type DayStatus struct {
	UID         string     `json:"uid"`
	Day         Weekday    `json:"day"`
	IsAvailable bool       `json:"is_available"`
	Message     string     `json:"message,omitempty"`
	TimeSlots   []TimeSlot `json:"time_slots,omitempty"`
}
