package outbox

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/kumelen-agenda/internal/domain"
	"github.com/m04kA/kumelen-agenda/pkg/dbmetrics"
)

func TestRepository_Insert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepository(db)

	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	evt, err := domain.NewAppointmentEvent(domain.EventAppointmentCreatedCustomer, uuid.New(), now)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO outbox_events (id,event_type,aggregate_id,payload,status,attempts,next_attempt_at) VALUES ($1,$2,$3,$4,$5,$6,$7)")).
		WithArgs(evt.ID.String(), domain.EventAppointmentCreatedCustomer, evt.AggregateID.String(), []byte(evt.Payload), "PENDING", 0, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Insert(context.Background(), evt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FetchPendingAndMark(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepository(db)

	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	id := uuid.New()
	aggregate := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM outbox_events WHERE status = $1 AND next_attempt_at <= $2 ORDER BY created_at ASC LIMIT 10 FOR UPDATE SKIP LOCKED")).
		WithArgs("PENDING", now).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_type", "aggregate_id", "payload", "status", "attempts", "next_attempt_at", "last_error", "created_at", "delivered_at"}).
			AddRow(id.String(), domain.EventAppointmentCreatedBusiness, aggregate.String(), []byte(`{"appointmentId":"`+aggregate.String()+`"}`), "PENDING", 1, now, "timeout", now, nil))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE outbox_events SET attempts = $1, last_error = $2, next_attempt_at = $3 WHERE id = $4")).
		WithArgs(2, "smtp down", now.Add(time.Minute), id.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	ctx := dbmetrics.WithTx(context.Background(), tx)

	events, err := repo.FetchPending(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, aggregate, events[0].AggregateID)
	require.NotNil(t, events[0].LastError)
	assert.Equal(t, "timeout", *events[0].LastError)
	assert.Nil(t, events[0].DeliveredAt)

	require.NoError(t, repo.MarkRetry(ctx, id, 2, now.Add(time.Minute), "smtp down"))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_MarkDelivered(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepository(db)

	id := uuid.New()
	at := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE outbox_events SET delivered_at = $1, last_error = $2, status = $3 WHERE id = $4")).
		WithArgs(at, nil, "DELIVERED", id.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkDelivered(context.Background(), id, at))
	assert.NoError(t, mock.ExpectationsWereMet())
}
