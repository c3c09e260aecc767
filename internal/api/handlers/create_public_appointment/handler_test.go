package create_public_appointment

import (
	"context"
	"encoding/json"
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
	"github.com/m04kA/kumelen-agenda/internal/domain"
	createAppointment "github.com/m04kA/kumelen-agenda/internal/usecase/create_appointment"
	"github.com/m04kA/kumelen-agenda/pkg/logger"
)

type fakeUseCase struct {
	got  *createAppointment.PublicRequest
	resp *createAppointment.Response
	err  error
}

func (f *fakeUseCase) ExecutePublic(_ context.Context, req *createAppointment.PublicRequest) (*createAppointment.Response, error) {
	f.got = req
	return f.resp, f.err
}

func post(h *Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/public/appointments", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

func TestHandle_Created(t *testing.T) {
	therapistID := uuid.New()
	serviceID := uuid.New()
	start := time.Date(2025, 1, 13, 13, 0, 0, 0, time.UTC)
	uc := &fakeUseCase{resp: &createAppointment.Response{
		ID:          uuid.New(),
		CustomerID:  uuid.New(),
		TherapistID: &therapistID,
		ServiceID:   serviceID,
		StartAt:     start,
		EndAt:       start.Add(30 * time.Minute),
		Status:      domain.StatusPending,
	}}
	h := NewHandler(uc, logger.NewNop())

	body := fmt.Sprintf(`{"serviceId":%q,"startAt":"2025-01-13T10:00:00-03:00","customerData":{"name":"Camila","phone":"+56911111111"},"clientNotes":"primera vez"}`, serviceID)
	rec := post(h, body)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, uc.got)
	assert.Equal(t, serviceID, uc.got.ServiceID)
	assert.Equal(t, "Camila", uc.got.CustomerData.Name)
	assert.Equal(t, "+56911111111", *uc.got.CustomerData.Phone)
	assert.Nil(t, uc.got.CustomerData.Email)
	assert.Equal(t, "primera vez", *uc.got.ClientNotes)

	var resp PublicAppointmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2025-01-13T13:00:00Z", resp.StartAt)
	assert.Equal(t, "2025-01-13T13:30:00Z", resp.EndAt)
	assert.Equal(t, "PENDING", resp.Status)
	assert.Equal(t, therapistID, *resp.TherapistID)
	assert.NotContains(t, rec.Body.String(), "customerId")
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "malformed body",
			body:       `{"serviceId":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   handlers.CodeInvalidRequest,
		},
		{
			name:       "invalid startAt",
			err:        fmt.Errorf("%w: not-a-date", createAppointment.ErrInvalidStartAt),
			wantStatus: http.StatusBadRequest,
			wantCode:   handlers.CodeInvalidStartAt,
		},
		{
			name:       "service not found",
			err:        createAppointment.ErrServiceNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   handlers.CodeServiceNotFound,
		},
		{
			name:       "therapist not found",
			err:        createAppointment.ErrTherapistNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   handlers.CodeTherapistNotFound,
		},
		{
			name:       "no therapist",
			err:        createAppointment.ErrNoTherapistAvailable,
			wantStatus: http.StatusConflict,
			wantCode:   handlers.CodeNoTherapistAvailable,
		},
		{
			name:       "slot taken",
			err:        createAppointment.ErrSlotNotAvailable,
			wantStatus: http.StatusConflict,
			wantCode:   handlers.CodeSlotNotAvailable,
		},
		{
			name:       "customer race",
			err:        createAppointment.ErrDuplicateCustomer,
			wantStatus: http.StatusConflict,
			wantCode:   handlers.CodeCustomerConflict,
		},
		{
			name:       "internal",
			err:        fmt.Errorf("%w: boom", createAppointment.ErrInternal),
			wantStatus: http.StatusInternalServerError,
			wantCode:   handlers.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := tt.body
			if body == "" {
				body = fmt.Sprintf(`{"serviceId":%q,"startAt":"not-a-date","customerData":{"name":"Camila"}}`, uuid.New())
			}
			h := NewHandler(&fakeUseCase{err: tt.err}, logger.NewNop())

			rec := post(h, body)

			require.Equal(t, tt.wantStatus, rec.Code)
			var resp handlers.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Empty(t, resp.Fields)
		})
	}
}
