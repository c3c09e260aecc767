package worktime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/kumelen-agenda/pkg/interval"
)

func newSantiago(t *testing.T) Calendar {
	t.Helper()
	cal, err := New("America/Santiago", 8*60, 20*60)
	require.NoError(t, err)
	return cal
}

func TestNew_Validation(t *testing.T) {
	_, err := New("Mars/Olympus", 480, 1200)
	assert.ErrorIs(t, err, ErrInvalidCalendar)

	_, err = New("UTC", 1200, 480)
	assert.ErrorIs(t, err, ErrInvalidCalendar)

	_, err = New("UTC", 0, 1441)
	assert.ErrorIs(t, err, ErrInvalidCalendar)

	cal, err := New("UTC", 0, 1440)
	require.NoError(t, err)
	assert.Equal(t, interval.New(0, 1440), cal.BusinessHours())
}

func TestDayRangeUTC(t *testing.T) {
	cal := newSantiago(t)

	// Summer time, UTC-3.
	start, end, err := cal.DayRangeUTC("2025-01-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 15, 3, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 1, 16, 3, 0, 0, 0, time.UTC), end)

	// Standard time, UTC-4.
	start, end, err = cal.DayRangeUTC("2025-07-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 7, 15, 4, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 7, 16, 4, 0, 0, 0, time.UTC), end)

	_, _, err = cal.DayRangeUTC("15/01/2025")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestWeekdayAndMinutesUseLocalTime(t *testing.T) {
	cal := newSantiago(t)

	// 02:30 UTC on Thursday is 23:30 local on Wednesday.
	instant := time.Date(2025, 1, 16, 2, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Wednesday, cal.Weekday(instant))
	assert.Equal(t, 23*60+30, cal.LocalMinutes(instant))
	assert.Equal(t, "2025-01-15", cal.LocalDate(instant))
}

func TestParseInstant(t *testing.T) {
	got, err := ParseInstant("2025-01-15T10:00:00-03:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 15, 13, 0, 0, 0, time.UTC), got)

	got, err = ParseInstant("2025-01-15T13:00:00.000Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 15, 13, 0, 0, 0, time.UTC), got)

	for _, bad := range []string{"", "tomorrow", "2025-01-15", "2025-01-15T10:00:00"} {
		_, err := ParseInstant(bad)
		assert.ErrorIs(t, err, ErrInvalidInstant, bad)
	}
}

func TestMinutesRange(t *testing.T) {
	cal := newSantiago(t)

	start := time.Date(2025, 1, 15, 13, 0, 0, 0, time.UTC) // 10:00 local
	startMin, endMin := cal.MinutesRange(start, start.Add(90*time.Minute))
	assert.Equal(t, 600, startMin)
	assert.Equal(t, 690, endMin)

	late := time.Date(2025, 1, 16, 2, 30, 0, 0, time.UTC) // 23:30 local
	startMin, endMin = cal.MinutesRange(late, late.Add(60*time.Minute))
	assert.Equal(t, 23*60+30, startMin)
	assert.Equal(t, interval.MinutesPerDay+30, endMin)
}

func TestLocalInterval(t *testing.T) {
	cal := newSantiago(t)
	dayStart, _, err := cal.DayRangeUTC("2025-01-15")
	require.NoError(t, err)

	iv, ok := cal.LocalInterval(
		time.Date(2025, 1, 15, 13, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 15, 14, 0, 0, 0, time.UTC),
		dayStart,
	)
	require.True(t, ok)
	assert.Equal(t, interval.New(600, 660), iv)

	// Starts the previous evening: clipped to local midnight.
	iv, ok = cal.LocalInterval(
		time.Date(2025, 1, 15, 2, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 15, 4, 0, 0, 0, time.UTC),
		dayStart,
	)
	require.True(t, ok)
	assert.Equal(t, interval.New(0, 60), iv)

	// Runs past midnight: clipped to the end of the day.
	iv, ok = cal.LocalInterval(
		time.Date(2025, 1, 16, 2, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 16, 5, 0, 0, 0, time.UTC),
		dayStart,
	)
	require.True(t, ok)
	assert.Equal(t, interval.New(23*60, interval.MinutesPerDay), iv)

	// Entirely on another day.
	_, ok = cal.LocalInterval(
		time.Date(2025, 1, 17, 13, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 17, 14, 0, 0, 0, time.UTC),
		dayStart,
	)
	assert.False(t, ok)
}
