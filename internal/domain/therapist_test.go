package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/kumelen-agenda/pkg/interval"
)

func TestNewWeeklySchedule(t *testing.T) {
	therapistID := uuid.New()

	tests := []struct {
		name    string
		entries []ScheduleEntry
		wantErr error
	}{
		{
			name: "one entry per day",
			entries: []ScheduleEntry{
				{TherapistID: therapistID, DayOfWeek: Monday, StartTime: "09:00", EndTime: "18:00", IsActive: true},
				{TherapistID: therapistID, DayOfWeek: Tuesday, StartTime: "10:00", EndTime: "14:00", IsActive: true},
			},
		},
		{
			name: "inactive duplicate is ignored",
			entries: []ScheduleEntry{
				{TherapistID: therapistID, DayOfWeek: Monday, StartTime: "09:00", EndTime: "18:00", IsActive: true},
				{TherapistID: therapistID, DayOfWeek: Monday, StartTime: "07:00", EndTime: "12:00", IsActive: false},
			},
		},
		{
			name: "two active entries for the same day",
			entries: []ScheduleEntry{
				{TherapistID: therapistID, DayOfWeek: Monday, StartTime: "09:00", EndTime: "12:00", IsActive: true},
				{TherapistID: therapistID, DayOfWeek: Monday, StartTime: "14:00", EndTime: "18:00", IsActive: true},
			},
			wantErr: ErrDuplicateScheduleDay,
		},
		{
			name: "malformed time",
			entries: []ScheduleEntry{
				{TherapistID: therapistID, DayOfWeek: Friday, StartTime: "9am", EndTime: "18:00", IsActive: true},
			},
			wantErr: ErrInvalidScheduleEntry,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schedule, err := NewWeeklySchedule(tt.entries)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			entry, ok := schedule.For(Monday)
			require.True(t, ok)
			iv, err := entry.Interval()
			require.NoError(t, err)
			assert.Equal(t, interval.New(540, 1080), iv)

			_, ok = schedule.For(Sunday)
			assert.False(t, ok)
		})
	}
}

func TestWeeklySchedule_NilHasNoEntries(t *testing.T) {
	var schedule *WeeklySchedule
	_, ok := schedule.For(Monday)
	assert.False(t, ok)
}

func TestDayOfWeekFromWeekday(t *testing.T) {
	assert.Equal(t, Monday, DayOfWeekFromWeekday(time.Monday))
	assert.Equal(t, Saturday, DayOfWeekFromWeekday(time.Saturday))
	assert.Equal(t, Sunday, DayOfWeekFromWeekday(time.Sunday))
}

func TestAppointmentStatus(t *testing.T) {
	assert.True(t, StatusPending.BlocksAvailability())
	assert.True(t, StatusConfirmed.BlocksAvailability())
	assert.True(t, StatusCompleted.BlocksAvailability())
	assert.False(t, StatusCancelled.BlocksAvailability())
	assert.False(t, StatusNoShow.BlocksAvailability())

	assert.True(t, StatusNoShow.IsValid())
	assert.False(t, AppointmentStatus("DONE").IsValid())
}

func TestTimeRange_Overlaps(t *testing.T) {
	base := time.Date(2025, 1, 15, 13, 0, 0, 0, time.UTC)
	a := TimeRange{StartAt: base, EndAt: base.Add(time.Hour)}

	assert.True(t, a.Overlaps(TimeRange{StartAt: base.Add(30 * time.Minute), EndAt: base.Add(2 * time.Hour)}))
	assert.False(t, a.Overlaps(TimeRange{StartAt: base.Add(time.Hour), EndAt: base.Add(2 * time.Hour)}))
	assert.Equal(t, time.Hour, a.Duration())
}
