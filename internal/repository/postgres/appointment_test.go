package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebook/scheduling-api/internal/model"
	"github.com/carebook/scheduling-api/internal/repository"
)

var appointmentCols = []string{
	"id", "patient_id", "doctor_id", "time_slot_id", "start_time", "end_time",
	"appointment_type", "status", "consultation_fee", "notes", "cancel_reason",
	"follow_up_date", "follow_up_sent", "follow_up_sent_at", "created_at", "updated_at",
}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func appointmentRow(id, patientID, doctorID uuid.UUID, slotID *uuid.UUID, status model.AppointmentStatus) *sqlmock.Rows {
	now := time.Now()
	var slot interface{}
	if slotID != nil {
		slot = slotID.String()
	}
	return sqlmock.NewRows(appointmentCols).AddRow(
		id.String(), patientID.String(), doctorID.String(), slot, now, now.Add(30*time.Minute),
		"online", string(status), 100.0, "", nil,
		nil, false, nil, now, now,
	)
}

func TestCreateWithSlotReservation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db, NewHistoryRepository(db))

	slotID := uuid.New()
	appt := &model.Appointment{
		PatientID:  uuid.New(),
		DoctorID:   uuid.New(),
		TimeSlotID: &slotID,
		Type:       model.AppointmentTypeOnline,
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE time_slots").
		WithArgs(sqlmock.AnyArg(), slotID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO appointments").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateWithSlotReservation(context.Background(), appt))
	assert.Equal(t, model.AppointmentStatusPending, appt.Status)
	assert.NotEqual(t, uuid.Nil, appt.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithSlotReservationLostRace(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db, NewHistoryRepository(db))

	slotID := uuid.New()
	appt := &model.Appointment{
		PatientID:  uuid.New(),
		DoctorID:   uuid.New(),
		TimeSlotID: &slotID,
		Type:       model.AppointmentTypeOnline,
	}

	// The guarded flip affects zero rows when someone else booked first; the
	// transaction rolls back and no appointment row is written.
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE time_slots").
		WithArgs(sqlmock.AnyArg(), slotID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.CreateWithSlotReservation(context.Background(), appt)
	assert.ErrorIs(t, err, repository.ErrSlotTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDirect(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db, NewHistoryRepository(db))

	appt := &model.Appointment{
		PatientID: uuid.New(),
		DoctorID:  uuid.New(),
		StartTime: time.Now().Add(24 * time.Hour),
		EndTime:   time.Now().Add(24*time.Hour + 30*time.Minute),
		Type:      model.AppointmentTypeOffline,
	}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO appointments").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateDirect(context.Background(), appt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDirectWindowTaken(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db, NewHistoryRepository(db))

	appt := &model.Appointment{
		PatientID: uuid.New(),
		DoctorID:  uuid.New(),
		StartTime: time.Now().Add(24 * time.Hour),
		EndTime:   time.Now().Add(24*time.Hour + 30*time.Minute),
		Type:      model.AppointmentTypeOffline,
	}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	err := repo.CreateDirect(context.Background(), appt)
	assert.ErrorIs(t, err, repository.ErrWindowTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionStatusReleasesSlot(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db, NewHistoryRepository(db))

	id := uuid.New()
	slotID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE appointments").
		WillReturnRows(appointmentRow(id, uuid.New(), uuid.New(), &slotID, model.AppointmentStatusCancelled))
	mock.ExpectExec("UPDATE time_slots").
		WithArgs(sqlmock.AnyArg(), slotID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	appt, err := repo.TransitionStatus(context.Background(), id,
		model.AppointmentStatusPending, model.AppointmentStatusCancelled,
		&repository.TransitionOpts{ReleaseSlot: true})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, appt.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionStatusStatusChanged(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db, NewHistoryRepository(db))

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE appointments").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.TransitionStatus(context.Background(), uuid.New(),
		model.AppointmentStatusPending, model.AppointmentStatusConfirmed, nil)
	assert.ErrorIs(t, err, repository.ErrStatusChanged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteWithHistory(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db, NewHistoryRepository(db))

	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE appointments").
		WillReturnRows(appointmentRow(id, uuid.New(), uuid.New(), nil, model.AppointmentStatusCompleted))
	mock.ExpectExec("INSERT INTO patient_history").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	followUp := time.Now().Add(7 * 24 * time.Hour)
	appt, err := repo.CompleteWithHistory(context.Background(), id,
		&model.PatientHistory{Notes: "all clear"}, &followUp)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, appt.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteWithHistoryNotConfirmed(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db, NewHistoryRepository(db))

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE appointments").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.CompleteWithHistory(context.Background(), uuid.New(),
		&model.PatientHistory{}, nil)
	assert.ErrorIs(t, err, repository.ErrStatusChanged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkFollowUpSent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db, NewHistoryRepository(db))
	ctx := context.Background()

	id := uuid.New()

	mock.ExpectExec("UPDATE appointments").
		WillReturnResult(sqlmock.NewResult(0, 1))

	marked, err := repo.MarkFollowUpSent(ctx, id, time.Now())
	require.NoError(t, err)
	assert.True(t, marked)

	// Zero rows means another dispatcher already flipped the flag.
	mock.ExpectExec("UPDATE appointments").
		WillReturnResult(sqlmock.NewResult(0, 0))

	marked, err = repo.MarkFollowUpSent(ctx, id, time.Now())
	require.NoError(t, err)
	assert.False(t, marked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAppointmentNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db, NewHistoryRepository(db))

	mock.ExpectQuery("SELECT(.+)FROM appointments").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindDueFollowUps(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db, NewHistoryRepository(db))

	id := uuid.New()
	doctorID := uuid.New()

	mock.ExpectQuery("SELECT(.+)FROM appointments").
		WithArgs(sqlmock.AnyArg(), doctorID, 50).
		WillReturnRows(appointmentRow(id, uuid.New(), doctorID, nil, model.AppointmentStatusCompleted))

	due, err := repo.FindDueFollowUps(context.Background(), &doctorID, time.Now(), 50)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, id, due[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
