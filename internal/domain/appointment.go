package domain

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus represents the lifecycle state of an appointment
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "PENDING"
	StatusConfirmed AppointmentStatus = "CONFIRMED"
	StatusCancelled AppointmentStatus = "CANCELLED"
	StatusNoShow    AppointmentStatus = "NO_SHOW"
	StatusCompleted AppointmentStatus = "COMPLETED"
)

// IsValid returns true for known statuses
func (s AppointmentStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusNoShow, StatusCompleted:
		return true
	}
	return false
}

// BlocksAvailability returns true if an appointment in this status occupies its therapist's time
func (s AppointmentStatus) BlocksAvailability() bool {
	return s != StatusCancelled && s != StatusNoShow
}

// Appointment represents a booked service session
type Appointment struct {
	ID          uuid.UUID
	CustomerID  uuid.UUID
	TherapistID *uuid.UUID
	ServiceID   uuid.UUID
	StartAt     time.Time // UTC
	EndAt       time.Time // UTC, always StartAt + service duration at creation
	Status      AppointmentStatus
	Notes       *string // internal staff notes
	ClientNotes *string // notes written by the customer

	ReminderSentAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// BlocksAvailability returns true if the appointment occupies its therapist's time
func (a *Appointment) BlocksAvailability() bool {
	return a.Status.BlocksAvailability()
}

// Overlaps reports whether the appointment intersects the half-open range [startAt, endAt)
func (a *Appointment) Overlaps(startAt, endAt time.Time) bool {
	return a.StartAt.Before(endAt) && a.EndAt.After(startAt)
}

// AppointmentUpdate holds the resolved values of a partial update
type AppointmentUpdate struct {
	ServiceID   uuid.UUID
	TherapistID *uuid.UUID
	StartAt     time.Time
	EndAt       time.Time
	Status      AppointmentStatus
	Notes       *string
	ClientNotes *string
}

// AppointmentsFilter фильтр для списка записей
type AppointmentsFilter struct {
	TherapistID *uuid.UUID         // Фильтр по терапевту (опционально)
	CustomerID  *uuid.UUID         // Фильтр по клиенту (опционально)
	Status      *AppointmentStatus // Фильтр по статусу (опционально)
	StartDate   *time.Time         // start_at >= StartDate (опционально)
	EndDate     *time.Time         // start_at <= EndDate (опционально)
	Limit       int
	Offset      int
}

// AppointmentDetails is an appointment joined with the data needed to notify about it
type AppointmentDetails struct {
	Appointment     Appointment
	CustomerName    string
	CustomerEmail   *string
	CustomerPhone   *string
	ServiceName     string
	ServicePrice    int64
	DurationMinutes int
	TherapistName   *string
}
