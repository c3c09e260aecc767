package get_availability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	getAvailability "github.com/m04kA/kumelen-agenda/internal/usecase/get_availability"
	"github.com/m04kA/kumelen-agenda/pkg/logger"
)

type fakeUseCase struct {
	got  *getAvailability.Request
	resp *getAvailability.Response
	err  error
}

func (f *fakeUseCase) Execute(_ context.Context, req *getAvailability.Request) (*getAvailability.Response, error) {
	f.got = req
	return f.resp, f.err
}

func get(h *Handler, query string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/public/availability?"+query, nil))
	return rec
}

func TestHandle_OK(t *testing.T) {
	serviceID := uuid.New()
	therapistID := uuid.New()
	uc := &fakeUseCase{resp: &getAvailability.Response{
		Date:                   "2025-01-13",
		Timezone:               "America/Santiago",
		ServiceID:              serviceID,
		ServiceDurationMinutes: 45,
		FreeIntervals:          []getAvailability.FreeInterval{{Start: "09:00", End: "12:30"}},
	}}

	rec := get(NewHandler(uc, logger.NewNop()),
		"serviceId="+serviceID.String()+"&date=2025-01-13&durationMinutes=45&therapistId="+therapistID.String())

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, serviceID, uc.got.ServiceID)
	assert.Equal(t, "2025-01-13", uc.got.Date)
	require.NotNil(t, uc.got.DurationMinutes)
	assert.Equal(t, 45, *uc.got.DurationMinutes)
	assert.Equal(t, therapistID, *uc.got.TherapistID)

	var resp AvailabilityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "America/Santiago", resp.Timezone)
	assert.Equal(t, []FreeInterval{{Start: "09:00", End: "12:30"}}, resp.FreeIntervals)
}

func TestHandle_EmptyIntervalsEncodeAsArray(t *testing.T) {
	uc := &fakeUseCase{resp: &getAvailability.Response{Date: "2025-01-13"}}

	rec := get(NewHandler(uc, logger.NewNop()), "serviceId="+uuid.NewString()+"&date=2025-01-13")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"freeIntervals":[]`)
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"bad service id", "serviceId=abc&date=2025-01-13", nil, http.StatusBadRequest, "invalid_request"},
		{"bad duration", "serviceId=" + uuid.NewString() + "&durationMinutes=x", nil, http.StatusBadRequest, "invalid_request"},
		{"service not found", "serviceId=" + uuid.NewString() + "&date=2025-01-13", getAvailability.ErrServiceNotFound, http.StatusNotFound, "service_not_found"},
		{"invalid date", "serviceId=" + uuid.NewString() + "&date=13-01-2025", getAvailability.ErrInvalidDate, http.StatusBadRequest, "invalid_date"},
		{"invalid input", "serviceId=" + uuid.NewString() + "&date=2025-01-13&durationMinutes=0", getAvailability.ErrInvalidInput, http.StatusBadRequest, "invalid_request"},
		{"internal", "serviceId=" + uuid.NewString() + "&date=2025-01-13", errors.New("db down"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(NewHandler(&fakeUseCase{err: tt.err}, logger.NewNop()), tt.query)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), `"code":"`+tt.wantCode+`"`)
		})
	}
}
