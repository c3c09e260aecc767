package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/kumelen-agenda/pkg/interval"
	"github.com/m04kA/kumelen-agenda/pkg/types"
)

// ErrDuplicateScheduleDay is returned when a therapist has more than one active entry for a day
var ErrDuplicateScheduleDay = errors.New("domain: more than one active schedule entry for the same day")

// ErrInvalidScheduleEntry is returned for entries with malformed wall-clock times
var ErrInvalidScheduleEntry = errors.New("domain: invalid schedule entry")

// DayOfWeek is the day-of-week enum stored in therapist schedules
type DayOfWeek string

const (
	Monday    DayOfWeek = "MONDAY"
	Tuesday   DayOfWeek = "TUESDAY"
	Wednesday DayOfWeek = "WEDNESDAY"
	Thursday  DayOfWeek = "THURSDAY"
	Friday    DayOfWeek = "FRIDAY"
	Saturday  DayOfWeek = "SATURDAY"
	Sunday    DayOfWeek = "SUNDAY"
)

// DayOfWeekFromWeekday maps time.Weekday to the stored enum
func DayOfWeekFromWeekday(w time.Weekday) DayOfWeek {
	switch w {
	case time.Monday:
		return Monday
	case time.Tuesday:
		return Tuesday
	case time.Wednesday:
		return Wednesday
	case time.Thursday:
		return Thursday
	case time.Friday:
		return Friday
	case time.Saturday:
		return Saturday
	default:
		return Sunday
	}
}

// Therapist represents a staff member who performs services
type Therapist struct {
	ID        uuid.UUID
	Name      string
	IsActive  bool
	CreatedAt time.Time
}

// ScheduleEntry is a therapist's working window for one day of the week
type ScheduleEntry struct {
	TherapistID uuid.UUID
	DayOfWeek   DayOfWeek
	StartTime   types.TimeString
	EndTime     types.TimeString
	IsActive    bool
}

// Interval returns the entry as a minute-of-day interval
func (e ScheduleEntry) Interval() (interval.Interval, error) {
	start, err := e.StartTime.Minutes()
	if err != nil {
		return interval.Interval{}, fmt.Errorf("%w: start %v", ErrInvalidScheduleEntry, err)
	}
	end, err := e.EndTime.Minutes()
	if err != nil {
		return interval.Interval{}, fmt.Errorf("%w: end %v", ErrInvalidScheduleEntry, err)
	}
	return interval.New(start, end), nil
}

// WeeklySchedule holds at most one active entry per day of week.
// Inactive entries are ignored.
type WeeklySchedule struct {
	entries map[DayOfWeek]ScheduleEntry
}

// NewWeeklySchedule validates entries and builds a schedule
func NewWeeklySchedule(entries []ScheduleEntry) (*WeeklySchedule, error) {
	byDay := make(map[DayOfWeek]ScheduleEntry, len(entries))
	for _, e := range entries {
		if !e.IsActive {
			continue
		}
		if _, exists := byDay[e.DayOfWeek]; exists {
			return nil, fmt.Errorf("%w: therapist=%s day=%s", ErrDuplicateScheduleDay, e.TherapistID, e.DayOfWeek)
		}
		if _, err := e.Interval(); err != nil {
			return nil, err
		}
		byDay[e.DayOfWeek] = e
	}
	return &WeeklySchedule{entries: byDay}, nil
}

// For returns the active entry for the day
func (s *WeeklySchedule) For(day DayOfWeek) (ScheduleEntry, bool) {
	if s == nil {
		return ScheduleEntry{}, false
	}
	e, ok := s.entries[day]
	return e, ok
}

// TimeRange is a half-open UTC range [StartAt, EndAt)
type TimeRange struct {
	StartAt time.Time
	EndAt   time.Time
}

// Overlaps reports whether the two ranges intersect. Touching ranges do not overlap.
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.StartAt.Before(other.EndAt) && other.StartAt.Before(r.EndAt)
}

// Duration returns the length of the range
func (r TimeRange) Duration() time.Duration {
	if !r.EndAt.After(r.StartAt) {
		return 0
	}
	return r.EndAt.Sub(r.StartAt)
}

// TherapistCandidate is a therapist loaded together with the data needed to
// decide availability on one local day
type TherapistCandidate struct {
	Therapist Therapist
	Schedule  *WeeklySchedule
	Busy      []TimeRange // blocking appointments overlapping the day
}

// CandidateQuery selects candidates for one local day
type CandidateQuery struct {
	ServiceID   uuid.UUID
	TherapistID *uuid.UUID // если задан, ищем только этого терапевта (по id и isActive)
	DayOfWeek   DayOfWeek
	DayStart    time.Time // UTC, включительно
	DayEnd      time.Time // UTC, не включительно
}
