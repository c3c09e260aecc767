package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
)

// maxBodyBytes ограничение размера тела запроса
const maxBodyBytes = 1 << 20

// Стабильные коды ошибок API
const (
	CodeInvalidRequest       = "invalid_request"
	CodeInvalidStartAt       = "invalid_start_at"
	CodeInvalidDate          = "invalid_date"
	CodeServiceNotFound      = "service_not_found"
	CodeCustomerNotFound     = "customer_not_found"
	CodeTherapistNotFound    = "therapist_not_found"
	CodeAppointmentNotFound  = "appointment_not_found"
	CodeNoTherapistAvailable = "no_therapist_available"
	CodeSlotNotAvailable     = "slot_not_available"
	CodeCustomerConflict     = "customer_conflict"
	CodeUnauthorized         = "unauthorized"
	CodeRateLimited          = "rate_limited"
	CodeInternal             = "internal_error"
)

const msgInternalError = "error interno del servidor"

// FieldError поле, вызвавшее ошибку
type FieldError struct {
	Field string `json:"field"`
	Value string `json:"value,omitempty"`
}

// ErrorResponse тело ответа с ошибкой
type ErrorResponse struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// RespondJSON отправляет JSON ответ
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// RespondError отправляет ошибку с кодом
func RespondError(w http.ResponseWriter, status int, code, message string) {
	RespondJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// RespondErrorWithFields отправляет ошибку со списком полей
func RespondErrorWithFields(w http.ResponseWriter, status int, code, message string, fields []FieldError) {
	RespondJSON(w, status, ErrorResponse{Code: code, Message: message, Fields: fields})
}

// RespondBadRequest отправляет 400 с указанным кодом
func RespondBadRequest(w http.ResponseWriter, code, message string) {
	RespondError(w, http.StatusBadRequest, code, message)
}

// RespondNotFound отправляет 404 с указанным кодом
func RespondNotFound(w http.ResponseWriter, code, message string) {
	RespondError(w, http.StatusNotFound, code, message)
}

// RespondConflict отправляет 409 с указанным кодом
func RespondConflict(w http.ResponseWriter, code, message string) {
	RespondError(w, http.StatusConflict, code, message)
}

// RespondUnauthorized отправляет 401
func RespondUnauthorized(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusUnauthorized, CodeUnauthorized, message)
}

// RespondInternalError отправляет 500 без деталей
func RespondInternalError(w http.ResponseWriter) {
	RespondError(w, http.StatusInternalServerError, CodeInternal, msgInternalError)
}

// DecodeJSON декодирует тело запроса, отклоняя лишние данные после объекта
func DecodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	if decoder.More() {
		return errors.New("unexpected data after JSON object")
	}
	return nil
}

// ParseUUID разбирает UUID из пути или query параметра
func ParseUUID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// ParseOptionalUUID разбирает необязательный UUID; пустая строка даёт nil
func ParseOptionalUUID(s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := ParseUUID(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
