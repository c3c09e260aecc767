package domain

// Default configuration values
const (
	DefaultTimezone         = "America/Santiago"
	DefaultDayStart         = "08:00"
	DefaultDayEnd           = "20:00"
	DefaultPageSize         = 20
	MaxPageSize             = 100
	DefaultReminderLeadHour = 24
)

// Business validation constants
const (
	MaxNotesLength    = 1000
	MaxNameLength     = 100
	MaxDurationMinute = 8 * 60
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// Assignment policies for automatic therapist selection
const (
	PolicyFirstAvailable = "first_available"
	PolicyLeastLoaded    = "least_loaded"
)

// NonBlockingStatuses список статусов, которые не занимают время терапевта
// Используется при поиске пересечений и расчёте свободных интервалов
var NonBlockingStatuses = []AppointmentStatus{
	StatusCancelled,
	StatusNoShow,
}

// NonBlockingStatusStrings возвращает NonBlockingStatuses как строки для SQL-фильтров
func NonBlockingStatusStrings() []string {
	result := make([]string, len(NonBlockingStatuses))
	for i, s := range NonBlockingStatuses {
		result[i] = string(s)
	}
	return result
}
