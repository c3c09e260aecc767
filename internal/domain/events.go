package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditAction is the kind of change recorded in the audit log
type AuditAction string

const (
	AuditActionCreate AuditAction = "CREATE"
	AuditActionUpdate AuditAction = "UPDATE"
	AuditActionDelete AuditAction = "DELETE"
)

// AuditEntity is the kind of record an audit entry refers to
type AuditEntity string

const AuditEntityAppointment AuditEntity = "APPOINTMENT"

// AuditLog records who changed what
type AuditLog struct {
	ID        uuid.UUID
	ActorID   string
	Entity    AuditEntity
	EntityID  uuid.UUID
	Action    AuditAction
	CreatedAt time.Time
}

// OutboxStatus is the delivery state of an outbox event
type OutboxStatus string

const (
	OutboxPending   OutboxStatus = "PENDING"
	OutboxDelivered OutboxStatus = "DELIVERED"
	OutboxFailed    OutboxStatus = "FAILED"
)

// Outbox event types
const (
	EventAppointmentCreatedBusiness  = "appointment.created.business"
	EventAppointmentCreatedCustomer  = "appointment.created.customer"
	EventAppointmentReminderBusiness = "appointment.reminder.business"
	EventAppointmentReminderCustomer = "appointment.reminder.customer"
)

// OutboxEvent is a notification persisted in the same transaction as the change that caused it
type OutboxEvent struct {
	ID            uuid.UUID
	EventType     string
	AggregateID   uuid.UUID
	Payload       json.RawMessage
	Status        OutboxStatus
	Attempts      int
	NextAttemptAt time.Time
	LastError     *string
	CreatedAt     time.Time
	DeliveredAt   *time.Time
}

// AppointmentEventPayload is the payload of every appointment.* event
type AppointmentEventPayload struct {
	AppointmentID uuid.UUID `json:"appointmentId"`
}

// NewAppointmentEvent builds a pending outbox event for an appointment
func NewAppointmentEvent(eventType string, appointmentID uuid.UUID, now time.Time) (*OutboxEvent, error) {
	payload, err := json.Marshal(AppointmentEventPayload{AppointmentID: appointmentID})
	if err != nil {
		return nil, err
	}
	return &OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateID:   appointmentID,
		Payload:       payload,
		Status:        OutboxPending,
		NextAttemptAt: now,
		CreatedAt:     now,
	}, nil
}
