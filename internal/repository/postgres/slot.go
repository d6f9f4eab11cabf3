package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carebook/scheduling-api/internal/model"
	"github.com/carebook/scheduling-api/internal/repository"
)

func (r *slotRepository) Create(ctx context.Context, slot *model.TimeSlot) error {
	query := `
		INSERT INTO time_slots (
			id, doctor_id, start_time, end_time,
			consultation_fee, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if slot.ID == uuid.Nil {
		slot.ID = uuid.New()
	}
	slot.CreatedAt = time.Now()
	slot.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		slot.ID,
		slot.DoctorID,
		slot.StartTime,
		slot.EndTime,
		slot.ConsultationFee,
		slot.Status,
		slot.CreatedAt,
		slot.UpdatedAt,
	)
	if err != nil {
		return wrapDBErr("create time slot", err)
	}
	return nil
}

func (r *slotRepository) Get(ctx context.Context, id uuid.UUID) (*model.TimeSlot, error) {
	query := `
		SELECT id, doctor_id, start_time, end_time,
			   consultation_fee, status, created_at, updated_at
		FROM time_slots
		WHERE id = $1
	`
	var slot model.TimeSlot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		return nil, wrapDBErr("get time slot", err)
	}
	return &slot, nil
}

func (r *slotRepository) Update(ctx context.Context, slot *model.TimeSlot) error {
	// Edits only apply while the slot is still free; a booked slot belongs
	// to its appointment until released.
	query := `
		UPDATE time_slots
		SET start_time = $1, end_time = $2, consultation_fee = $3, updated_at = $4
		WHERE id = $5 AND status = 'available'
	`
	slot.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		slot.StartTime,
		slot.EndTime,
		slot.ConsultationFee,
		slot.UpdatedAt,
		slot.ID,
	)
	if err != nil {
		return wrapDBErr("update time slot", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		// Row exists but is booked or cancelled, or is gone entirely; the
		// service layer disambiguates with a read.
		return repository.ErrSlotTaken
	}
	return nil
}

func (r *slotRepository) Cancel(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE time_slots
		SET status = 'cancelled', updated_at = $1
		WHERE id = $2 AND status = 'available'
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return wrapDBErr("cancel time slot", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrSlotTaken
	}
	return nil
}

func (r *slotRepository) List(ctx context.Context, filters *model.SlotFilters) ([]*model.TimeSlot, error) {
	query := `
		SELECT id, doctor_id, start_time, end_time,
			   consultation_fee, status, created_at, updated_at
		FROM time_slots
		WHERE doctor_id = $1
	`
	args := []interface{}{filters.DoctorID}
	argCount := 2

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

	var slots []*model.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query, args...); err != nil {
		return nil, wrapDBErr("list time slots", err)
	}
	return slots, nil
}

func (r *slotRepository) FindOverlapping(ctx context.Context, doctorID uuid.UUID, start, end time.Time) ([]*model.TimeSlot, error) {
	query := `
		SELECT id, doctor_id, start_time, end_time,
			   consultation_fee, status, created_at, updated_at
		FROM time_slots
		WHERE doctor_id = $1
		AND status != 'cancelled'
		AND start_time < $3
		AND end_time > $2
		ORDER BY start_time ASC
	`
	var slots []*model.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query, doctorID, start, end); err != nil {
		return nil, wrapDBErr("find overlapping slots", err)
	}
	return slots, nil
}
