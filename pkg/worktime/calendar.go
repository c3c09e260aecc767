// Package worktime converts between UTC instants and the business-local
// calendar used by the availability engine.
package worktime

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/m04kA/kumelen-agenda/pkg/interval"
)

// DateLayout is the layout of a local calendar date.
const DateLayout = "2006-01-02"

var (
	// ErrInvalidInstant is returned when an instant is not a valid RFC 3339 timestamp.
	ErrInvalidInstant = errors.New("worktime: invalid instant")

	// ErrInvalidDate is returned when a local date is not in YYYY-MM-DD format.
	ErrInvalidDate = errors.New("worktime: invalid date")

	// ErrInvalidCalendar is returned for inconsistent calendar settings.
	ErrInvalidCalendar = errors.New("worktime: invalid calendar")
)

// Calendar holds the business timezone and opening hours.
// It is an immutable value; construct it once at startup with New.
type Calendar struct {
	location    *time.Location
	dayStartMin int
	dayEndMin   int
}

// New builds a Calendar for the given IANA timezone and business hours
// expressed in minutes since local midnight.
func New(timezone string, dayStartMin, dayEndMin int) (Calendar, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return Calendar{}, fmt.Errorf("%w: load location %q: %v", ErrInvalidCalendar, timezone, err)
	}
	if dayStartMin < 0 || dayEndMin > interval.MinutesPerDay || dayStartMin >= dayEndMin {
		return Calendar{}, fmt.Errorf("%w: business hours [%d, %d)", ErrInvalidCalendar, dayStartMin, dayEndMin)
	}
	return Calendar{location: loc, dayStartMin: dayStartMin, dayEndMin: dayEndMin}, nil
}

// Location returns the business timezone.
func (c Calendar) Location() *time.Location {
	return c.location
}

// Timezone returns the IANA name of the business timezone.
func (c Calendar) Timezone() string {
	return c.location.String()
}

// BusinessHours returns the opening window as a minute-of-day interval.
func (c Calendar) BusinessHours() interval.Interval {
	return interval.New(c.dayStartMin, c.dayEndMin)
}

// ClampToBusinessHours restricts iv to the opening window.
func (c Calendar) ClampToBusinessHours(iv interval.Interval) (interval.Interval, bool) {
	return interval.Clamp(iv, c.dayStartMin, c.dayEndMin)
}

// ParseInstant parses an RFC 3339 timestamp and returns it in UTC.
// Values without an explicit offset are rejected.
func ParseInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidInstant)
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidInstant, err)
	}
	return t.UTC(), nil
}

// ParseLocalDate parses YYYY-MM-DD as local midnight in the business timezone.
func (c Calendar) ParseLocalDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), c.location)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	return t, nil
}

// DayRangeUTC returns the UTC half-open range [start, end) covering the
// local calendar date. On DST transition days the range is 23 or 25 hours long.
func (c Calendar) DayRangeUTC(localDate string) (time.Time, time.Time, error) {
	day, err := c.ParseLocalDate(localDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start, end := c.dayBounds(day)
	return start.UTC(), end.UTC(), nil
}

// DayBoundsOf returns the UTC range of the local day that contains t.
func (c Calendar) DayBoundsOf(t time.Time) (time.Time, time.Time) {
	start, end := c.dayBounds(t.In(c.location))
	return start.UTC(), end.UTC()
}

// LocalDate formats the local calendar date of t.
func (c Calendar) LocalDate(t time.Time) string {
	return t.In(c.location).Format(DateLayout)
}

// Weekday returns the local day of week of t.
func (c Calendar) Weekday(t time.Time) time.Weekday {
	return t.In(c.location).Weekday()
}

// LocalMinutes returns the wall-clock minutes since local midnight of t.
func (c Calendar) LocalMinutes(t time.Time) int {
	local := t.In(c.location)
	return local.Hour()*60 + local.Minute()
}

// MinutesRange converts [startAt, endAt) to minute-of-day values relative to
// the local day of startAt. When endAt falls on a later local day the end
// value exceeds MinutesPerDay.
func (c Calendar) MinutesRange(startAt, endAt time.Time) (int, int) {
	startMin := c.LocalMinutes(startAt)

	startDay, _ := c.dayBounds(startAt.In(c.location))
	endLocal := endAt.In(c.location)
	endDay, _ := c.dayBounds(endLocal)

	days := 0
	for d := startDay; d.Before(endDay); d = d.AddDate(0, 0, 1) {
		days++
	}

	return startMin, days*interval.MinutesPerDay + endLocal.Hour()*60 + endLocal.Minute()
}

// LocalInterval projects [startAt, endAt) onto the local day starting at
// dayStart, clipping to [0, MinutesPerDay]. Zero-width results are discarded.
func (c Calendar) LocalInterval(startAt, endAt, dayStart time.Time) (interval.Interval, bool) {
	start, end := c.dayBounds(dayStart.In(c.location))

	toMinutes := func(t time.Time) int {
		if !t.After(start) {
			return 0
		}
		if !t.Before(end) {
			return interval.MinutesPerDay
		}
		return c.LocalMinutes(t)
	}

	iv := interval.New(toMinutes(startAt), toMinutes(endAt))
	if iv.IsEmpty() {
		return interval.Interval{}, false
	}
	return iv, true
}

func (c Calendar) dayBounds(local time.Time) (time.Time, time.Time) {
	y, m, d := local.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, c.location)
	end := time.Date(y, m, d+1, 0, 0, 0, 0, c.location)
	return start, end
}
