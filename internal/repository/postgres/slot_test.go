package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebook/scheduling-api/internal/model"
	"github.com/carebook/scheduling-api/internal/repository"
)

var slotCols = []string{
	"id", "doctor_id", "start_time", "end_time",
	"consultation_fee", "status", "created_at", "updated_at",
}

func slotRow(id, doctorID uuid.UUID, status model.SlotStatus) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(slotCols).AddRow(
		id.String(), doctorID.String(), now, now.Add(30*time.Minute),
		100.0, string(status), now, now,
	)
}

func TestCreateSlot(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSlotRepository(db)

	slot := &model.TimeSlot{
		DoctorID:        uuid.New(),
		StartTime:       time.Now().Add(24 * time.Hour),
		EndTime:         time.Now().Add(24*time.Hour + 30*time.Minute),
		ConsultationFee: 100,
		Status:          model.SlotStatusAvailable,
	}

	mock.ExpectExec("INSERT INTO time_slots").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), slot))
	assert.NotEqual(t, uuid.Nil, slot.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSlotExclusionViolation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSlotRepository(db)

	// The overlap constraint rejects an insert that raced past the
	// pre-insert check; the caller sees the window-taken sentinel.
	mock.ExpectExec("INSERT INTO time_slots").
		WillReturnError(&pq.Error{Code: "23P01", Constraint: "time_slots_no_overlap"})

	err := repo.Create(context.Background(), &model.TimeSlot{
		DoctorID:  uuid.New(),
		StartTime: time.Now().Add(24 * time.Hour),
		EndTime:   time.Now().Add(24*time.Hour + 30*time.Minute),
		Status:    model.SlotStatusAvailable,
	})
	assert.ErrorIs(t, err, repository.ErrWindowTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSlot(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSlotRepository(db)

	id := uuid.New()
	doctorID := uuid.New()

	mock.ExpectQuery("SELECT(.+)FROM time_slots").
		WithArgs(id).
		WillReturnRows(slotRow(id, doctorID, model.SlotStatusAvailable))

	slot, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, slot.ID)
	assert.Equal(t, doctorID, slot.DoctorID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSlotNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSlotRepository(db)

	mock.ExpectQuery("SELECT(.+)FROM time_slots").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSlotTimeout(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSlotRepository(db)

	// A timed-out store call surfaces as the retryable sentinel, never as a
	// business failure.
	mock.ExpectQuery("SELECT(.+)FROM time_slots").
		WillReturnError(context.DeadlineExceeded)

	_, err := repo.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateSlotOnlyWhileAvailable(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSlotRepository(db)
	ctx := context.Background()

	slot := &model.TimeSlot{
		ID:        uuid.New(),
		StartTime: time.Now().Add(24 * time.Hour),
		EndTime:   time.Now().Add(24*time.Hour + 30*time.Minute),
	}

	mock.ExpectExec("UPDATE time_slots").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Update(ctx, slot))

	// Zero rows: the slot is booked, cancelled, or gone.
	mock.ExpectExec("UPDATE time_slots").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Update(ctx, slot)
	assert.ErrorIs(t, err, repository.ErrSlotTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelSlotOnlyWhileAvailable(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSlotRepository(db)
	ctx := context.Background()

	id := uuid.New()

	mock.ExpectExec("UPDATE time_slots").
		WithArgs(sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Cancel(ctx, id))

	mock.ExpectExec("UPDATE time_slots").
		WithArgs(sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Cancel(ctx, id)
	assert.ErrorIs(t, err, repository.ErrSlotTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindOverlappingSlots(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSlotRepository(db)

	doctorID := uuid.New()
	start := time.Now().Add(24 * time.Hour)
	end := start.Add(30 * time.Minute)

	mock.ExpectQuery("SELECT(.+)FROM time_slots").
		WithArgs(doctorID, start, end).
		WillReturnRows(slotRow(uuid.New(), doctorID, model.SlotStatusBooked))

	slots, err := repo.FindOverlapping(context.Background(), doctorID, start, end)
	require.NoError(t, err)
	assert.Len(t, slots, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
