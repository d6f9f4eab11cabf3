package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/carebook/scheduling-api/internal/model"
	"github.com/carebook/scheduling-api/internal/repository"
)

func (r *blockedDateRepository) Create(ctx context.Context, bd *model.BlockedDate) error {
	query := `
		INSERT INTO blocked_dates (id, doctor_id, blocked_date, reason, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	bd.ID = uuid.New()
	bd.Date = model.DateOnly(bd.Date)
	bd.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		bd.ID,
		bd.DoctorID,
		bd.Date,
		bd.Reason,
		bd.CreatedAt,
	)
	if err != nil {
		return wrapDBErr("create blocked date", err)
	}
	return nil
}

func (r *blockedDateRepository) Delete(ctx context.Context, id, doctorID uuid.UUID) (*model.BlockedDate, error) {
	query := `
		DELETE FROM blocked_dates
		WHERE id = $1 AND doctor_id = $2
		RETURNING id, doctor_id, blocked_date, reason, created_at
	`
	var bd model.BlockedDate
	err := r.db.GetContext(ctx, &bd, query, id, doctorID)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, wrapDBErr("delete blocked date", err)
	}
	return &bd, nil
}

func (r *blockedDateRepository) IsBlocked(ctx context.Context, doctorID uuid.UUID, date time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM blocked_dates
			WHERE doctor_id = $1 AND blocked_date = $2
		)
	`
	var blocked bool
	if err := r.db.GetContext(ctx, &blocked, query, doctorID, model.DateOnly(date)); err != nil {
		return false, wrapDBErr("check blocked date", err)
	}
	return blocked, nil
}

func (r *blockedDateRepository) List(ctx context.Context, doctorID uuid.UUID) ([]*model.BlockedDate, error) {
	query := `
		SELECT id, doctor_id, blocked_date, reason, created_at
		FROM blocked_dates
		WHERE doctor_id = $1
		ORDER BY blocked_date ASC
	`
	var dates []*model.BlockedDate
	if err := r.db.SelectContext(ctx, &dates, query, doctorID); err != nil {
		return nil, wrapDBErr("list blocked dates", err)
	}
	return dates, nil
}
