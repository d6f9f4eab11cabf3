package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebook/scheduling-api/internal/repository"
)

var blockedDateCols = []string{"id", "doctor_id", "blocked_date", "reason", "created_at"}

func TestDeleteBlockedDateScopedToDoctor(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBlockedDateRepository(db)
	ctx := context.Background()

	id := uuid.New()
	doctorID := uuid.New()
	day := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("DELETE FROM blocked_dates").
		WithArgs(id, doctorID).
		WillReturnRows(sqlmock.NewRows(blockedDateCols).
			AddRow(id.String(), doctorID.String(), day, "holiday", time.Now()))

	bd, err := repo.Delete(ctx, id, doctorID)
	require.NoError(t, err)
	assert.Equal(t, doctorID, bd.DoctorID)

	// A foreign doctor id misses the row; the calendar stays blocked.
	mock.ExpectQuery("DELETE FROM blocked_dates").
		WithArgs(id, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(blockedDateCols))

	_, err = repo.Delete(ctx, id, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
