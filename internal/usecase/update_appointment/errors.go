package update_appointment

import "errors"

var (
	// ErrAppointmentNotFound возвращается, когда запись не найдена
	ErrAppointmentNotFound = errors.New("update_appointment: appointment not found")

	// ErrServiceNotFound возвращается, когда новая услуга не найдена
	ErrServiceNotFound = errors.New("update_appointment: service not found")

	// ErrTherapistNotFound возвращается, когда новый терапевт не существует или неактивен
	ErrTherapistNotFound = errors.New("update_appointment: therapist not found")

	// ErrInvalidStartAt возвращается, когда startAt не является корректным RFC 3339 моментом
	ErrInvalidStartAt = errors.New("update_appointment: invalid startAt")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("update_appointment: invalid input data")

	// ErrSlotNotAvailable возвращается, когда новое время пересекается с другой записью терапевта
	ErrSlotNotAvailable = errors.New("update_appointment: slot is not available")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("update_appointment: internal error")
)
