package create_appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/kumelen-agenda/internal/api/handlers"
	"github.com/m04kA/kumelen-agenda/internal/api/middleware"
	"github.com/m04kA/kumelen-agenda/internal/domain"
	createAppointment "github.com/m04kA/kumelen-agenda/internal/usecase/create_appointment"
	"github.com/m04kA/kumelen-agenda/pkg/logger"
)

type fakeUseCase struct {
	actorID string
	got     *createAppointment.Request
	resp    *createAppointment.Response
	err     error
}

func (f *fakeUseCase) Execute(_ context.Context, actorID string, req *createAppointment.Request) (*createAppointment.Response, error) {
	f.actorID = actorID
	f.got = req
	return f.resp, f.err
}

func post(t *testing.T, h *Handler, body string, withActor bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(body))
	if withActor {
		req = req.WithContext(middleware.WithActorID(req.Context(), "staff-1"))
	}
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

func TestHandle_Created(t *testing.T) {
	therapistID := uuid.New()
	start := time.Date(2025, 1, 13, 13, 0, 0, 0, time.UTC)
	uc := &fakeUseCase{resp: &createAppointment.Response{
		ID:          uuid.New(),
		CustomerID:  uuid.New(),
		TherapistID: &therapistID,
		ServiceID:   uuid.New(),
		StartAt:     start,
		EndAt:       start.Add(time.Hour),
		Status:      domain.StatusConfirmed,
	}}
	h := NewHandler(uc, logger.NewNop())

	serviceID := uuid.New()
	body := fmt.Sprintf(`{"serviceId":%q,"startAt":"2025-01-13T10:00:00-03:00","customerData":{"name":"Camila","email":"c@example.com"},"status":"CONFIRMED"}`, serviceID)
	rec := post(t, h, body, true)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "staff-1", uc.actorID)
	assert.Equal(t, serviceID, uc.got.ServiceID)
	require.NotNil(t, uc.got.CustomerData)
	assert.Equal(t, "Camila", uc.got.CustomerData.Name)
	require.NotNil(t, uc.got.Status)
	assert.Equal(t, domain.StatusConfirmed, *uc.got.Status)

	var resp AppointmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2025-01-13T13:00:00Z", resp.StartAt)
	assert.Equal(t, "2025-01-13T14:00:00Z", resp.EndAt)
	assert.Equal(t, "CONFIRMED", resp.Status)
	assert.Equal(t, therapistID, *resp.TherapistID)
}

func TestHandle_DuplicateCustomer(t *testing.T) {
	uc := &fakeUseCase{err: &createAppointment.DuplicateCustomerError{Fields: []createAppointment.DuplicateField{
		{Field: createAppointment.FieldEmail, Value: "c@example.com"},
		{Field: createAppointment.FieldPhone, Value: "+56911111111"},
	}}}
	rec := post(t, NewHandler(uc, logger.NewNop()), `{"serviceId":"`+uuid.NewString()+`","startAt":"x"}`, true)

	require.Equal(t, http.StatusConflict, rec.Code)
	var resp handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, handlers.CodeCustomerConflict, resp.Code)
	assert.Equal(t, []handlers.FieldError{
		{Field: "email", Value: "c@example.com"},
		{Field: "phone", Value: "+56911111111"},
	}, resp.Fields)
}

func TestHandle_ErrorMapping(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{createAppointment.ErrServiceNotFound, http.StatusNotFound, handlers.CodeServiceNotFound},
		{createAppointment.ErrCustomerNotFound, http.StatusNotFound, handlers.CodeCustomerNotFound},
		{createAppointment.ErrTherapistNotFound, http.StatusNotFound, handlers.CodeTherapistNotFound},
		{fmt.Errorf("%w: bad", createAppointment.ErrInvalidStartAt), http.StatusBadRequest, handlers.CodeInvalidStartAt},
		{createAppointment.ErrCustomerRequired, http.StatusBadRequest, handlers.CodeInvalidRequest},
		{fmt.Errorf("%w: name", createAppointment.ErrInvalidInput), http.StatusBadRequest, handlers.CodeInvalidRequest},
		{createAppointment.ErrNoTherapistAvailable, http.StatusConflict, handlers.CodeNoTherapistAvailable},
		{createAppointment.ErrSlotNotAvailable, http.StatusConflict, handlers.CodeSlotNotAvailable},
		{errors.New("boom"), http.StatusInternalServerError, handlers.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.wantCode, func(t *testing.T) {
			rec := post(t, NewHandler(&fakeUseCase{err: tt.err}, logger.NewNop()), `{"serviceId":"`+uuid.NewString()+`"}`, true)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var resp handlers.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Code)
		})
	}
}

func TestHandle_BadBodyAndMissingActor(t *testing.T) {
	uc := &fakeUseCase{}
	h := NewHandler(uc, logger.NewNop())

	assert.Equal(t, http.StatusBadRequest, post(t, h, `{"serviceId":`, true).Code)
	assert.Equal(t, http.StatusBadRequest, post(t, h, `{"serviceId":"not-a-uuid"}`, true).Code)
	assert.Equal(t, http.StatusUnauthorized, post(t, h, `{}`, false).Code)
	assert.Nil(t, uc.got)
}
