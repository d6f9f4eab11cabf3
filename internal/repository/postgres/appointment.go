package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/carebook/scheduling-api/internal/model"
	"github.com/carebook/scheduling-api/internal/repository"
)

const appointmentColumns = `
	id, patient_id, doctor_id, time_slot_id, start_time, end_time,
	appointment_type, status, consultation_fee, notes, cancel_reason,
	follow_up_date, follow_up_sent, follow_up_sent_at, created_at, updated_at`

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT` + appointmentColumns + `
		FROM appointments
		WHERE id = $1
	`
	var appt model.Appointment
	if err := r.db.GetContext(ctx, &appt, query, id); err != nil {
		return nil, wrapDBErr("get appointment", err)
	}
	return &appt, nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `SELECT` + appointmentColumns + `
		FROM appointments
		WHERE 1=1
	`
	var args []interface{}
	argCount := 1

	if filters.DoctorID != uuid.Nil {
		query += fmt.Sprintf(" AND doctor_id = $%d", argCount)
		args = append(args, filters.DoctorID)
		argCount++
	}
	if filters.PatientID != uuid.Nil {
		query += fmt.Sprintf(" AND patient_id = $%d", argCount)
		args = append(args, filters.PatientID)
		argCount++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}
	if !filters.StartDate.IsZero() {
		query += fmt.Sprintf(" AND start_time >= $%d", argCount)
		args = append(args, filters.StartDate)
		argCount++
	}
	if !filters.EndDate.IsZero() {
		query += fmt.Sprintf(" AND end_time <= $%d", argCount)
		args = append(args, filters.EndDate)
		argCount++
	}

	query += " ORDER BY start_time ASC"

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, wrapDBErr("list appointments", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) CreateWithSlotReservation(ctx context.Context, appt *model.Appointment) error {
	if appt.TimeSlotID == nil {
		return fmt.Errorf("appointment has no slot to reserve")
	}

	appt.ID = uuid.New()
	appt.Status = model.AppointmentStatusPending
	appt.CreatedAt = time.Now()
	appt.UpdatedAt = time.Now()

	return withTx(ctx, r.db, nil, func(tx *sqlx.Tx) error {
		// The availability check and the flip are one statement; losing the
		// race means zero rows, never a double booking.
		reserve := `
			UPDATE time_slots
			SET status = 'booked', updated_at = $1
			WHERE id = $2 AND status = 'available'
		`
		result, err := tx.ExecContext(ctx, reserve, time.Now(), *appt.TimeSlotID)
		if err != nil {
			return wrapDBErr("reserve time slot", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return repository.ErrSlotTaken
		}

		return insertAppointmentTx(ctx, tx, appt)
	})
}

func (r *appointmentRepository) CreateDirect(ctx context.Context, appt *model.Appointment) error {
	appt.ID = uuid.New()
	appt.Status = model.AppointmentStatusPending
	appt.CreatedAt = time.Now()
	appt.UpdatedAt = time.Now()

	// Serializable so two direct bookings racing into the same window cannot
	// both pass the overlap check.
	opts := &sql.TxOptions{Isolation: sql.LevelSerializable}

	return withTx(ctx, r.db, opts, func(tx *sqlx.Tx) error {
		var slotOverlap bool
		slotQuery := `
			SELECT EXISTS (
				SELECT 1 FROM time_slots
				WHERE doctor_id = $1
				AND status != 'cancelled'
				AND start_time < $3
				AND end_time > $2
			)
		`
		if err := tx.GetContext(ctx, &slotOverlap, slotQuery, appt.DoctorID, appt.StartTime, appt.EndTime); err != nil {
			return wrapDBErr("check slot overlap", err)
		}
		if slotOverlap {
			return repository.ErrWindowTaken
		}

		var apptOverlap bool
		apptQuery := `
			SELECT EXISTS (
				SELECT 1 FROM appointments
				WHERE doctor_id = $1
				AND status != 'cancelled'
				AND start_time < $3
				AND end_time > $2
			)
		`
		if err := tx.GetContext(ctx, &apptOverlap, apptQuery, appt.DoctorID, appt.StartTime, appt.EndTime); err != nil {
			return wrapDBErr("check appointment overlap", err)
		}
		if apptOverlap {
			return repository.ErrWindowTaken
		}

		return insertAppointmentTx(ctx, tx, appt)
	})
}

func insertAppointmentTx(ctx context.Context, tx *sqlx.Tx, appt *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, patient_id, doctor_id, time_slot_id, start_time, end_time,
			appointment_type, status, consultation_fee, notes,
			follow_up_sent, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, false, $11, $12)
	`
	_, err := tx.ExecContext(ctx, query,
		appt.ID,
		appt.PatientID,
		appt.DoctorID,
		appt.TimeSlotID,
		appt.StartTime,
		appt.EndTime,
		appt.Type,
		appt.Status,
		appt.ConsultationFee,
		appt.Notes,
		appt.CreatedAt,
		appt.UpdatedAt,
	)
	if err != nil {
		return wrapDBErr("create appointment", err)
	}
	return nil
}

func (r *appointmentRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus, opts *repository.TransitionOpts) (*model.Appointment, error) {
	if opts == nil {
		opts = &repository.TransitionOpts{}
	}

	var appt model.Appointment
	err := withTx(ctx, r.db, nil, func(tx *sqlx.Tx) error {
		// Conditional on the expected source state; a concurrent transition
		// that got there first makes this affect zero rows.
		query := `
			UPDATE appointments
			SET status = $1, cancel_reason = COALESCE($2, cancel_reason), updated_at = $3
			WHERE id = $4 AND status = $5
			RETURNING` + appointmentColumns

		err := tx.GetContext(ctx, &appt, query, to, opts.CancelReason, time.Now(), id, from)
		if err == sql.ErrNoRows {
			return repository.ErrStatusChanged
		}
		if err != nil {
			return wrapDBErr("transition appointment status", err)
		}

		if opts.ReleaseSlot && appt.TimeSlotID != nil {
			release := `
				UPDATE time_slots
				SET status = 'available', updated_at = $1
				WHERE id = $2 AND status = 'booked'
			`
			if _, err := tx.ExecContext(ctx, release, time.Now(), *appt.TimeSlotID); err != nil {
				return wrapDBErr("release time slot", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

func (r *appointmentRepository) CompleteWithHistory(ctx context.Context, id uuid.UUID, hist *model.PatientHistory, followUpDate *time.Time) (*model.Appointment, error) {
	var appt model.Appointment
	err := withTx(ctx, r.db, nil, func(tx *sqlx.Tx) error {
		query := `
			UPDATE appointments
			SET status = 'completed',
				notes = CASE WHEN $1 != '' THEN $1 ELSE notes END,
				follow_up_date = $2,
				follow_up_sent = false,
				follow_up_sent_at = NULL,
				updated_at = $3
			WHERE id = $4 AND status = 'confirmed'
			RETURNING` + appointmentColumns

		err := tx.GetContext(ctx, &appt, query, hist.Notes, followUpDate, time.Now(), id)
		if err == sql.ErrNoRows {
			return repository.ErrStatusChanged
		}
		if err != nil {
			return wrapDBErr("complete appointment", err)
		}

		hist.DoctorID = appt.DoctorID
		hist.PatientID = appt.PatientID
		hist.AppointmentID = appt.ID
		return r.history.CreateTx(ctx, tx, hist)
	})
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

func (r *appointmentRepository) SetFollowUp(ctx context.Context, id uuid.UUID, date time.Time) (*model.Appointment, error) {
	// Resetting the date re-arms the reminder: sent markers are cleared so
	// the new date is dispatched exactly once.
	query := `
		UPDATE appointments
		SET follow_up_date = $1,
			follow_up_sent = false,
			follow_up_sent_at = NULL,
			updated_at = $2
		WHERE id = $3 AND status = 'completed'
		RETURNING` + appointmentColumns

	var appt model.Appointment
	err := r.db.GetContext(ctx, &appt, query, date, time.Now(), id)
	if err == sql.ErrNoRows {
		return nil, repository.ErrStatusChanged
	}
	if err != nil {
		return nil, wrapDBErr("set follow-up", err)
	}
	return &appt, nil
}

func (r *appointmentRepository) FindDueFollowUps(ctx context.Context, doctorID *uuid.UUID, now time.Time, limit int) ([]*model.Appointment, error) {
	query := `SELECT` + appointmentColumns + `
		FROM appointments
		WHERE follow_up_date IS NOT NULL
		AND follow_up_date <= $1
		AND follow_up_sent = false
	`
	args := []interface{}{now}
	argCount := 2

	if doctorID != nil {
		query += fmt.Sprintf(" AND doctor_id = $%d", argCount)
		args = append(args, *doctorID)
		argCount++
	}

	query += fmt.Sprintf(" ORDER BY follow_up_date ASC LIMIT $%d", argCount)
	args = append(args, limit)

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, wrapDBErr("find due follow-ups", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) MarkFollowUpSent(ctx context.Context, id uuid.UUID, sentAt time.Time) (bool, error) {
	// Guarded on follow_up_sent still being false; the loser of a concurrent
	// dispatch sees zero rows and treats the reminder as already handled.
	query := `
		UPDATE appointments
		SET follow_up_sent = true, follow_up_sent_at = $1, updated_at = $2
		WHERE id = $3 AND follow_up_sent = false AND follow_up_date IS NOT NULL
	`
	result, err := r.db.ExecContext(ctx, query, sentAt, time.Now(), id)
	if err != nil {
		return false, wrapDBErr("mark follow-up sent", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *appointmentRepository) HasOverlapping(ctx context.Context, doctorID uuid.UUID, start, end time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1
			AND status != 'cancelled'
			AND start_time < $3
			AND end_time > $2
		)
	`
	var overlap bool
	if err := r.db.GetContext(ctx, &overlap, query, doctorID, start, end); err != nil {
		return false, wrapDBErr("check appointment overlap", err)
	}
	return overlap, nil
}
