package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/carebook/scheduling-api/internal/model"
)

func (r *historyRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, hist *model.PatientHistory) error {
	query := `
		INSERT INTO patient_history (
			id, doctor_id, patient_id, appointment_id, prescription_id, notes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	hist.ID = uuid.New()
	hist.CreatedAt = time.Now()

	_, err := tx.ExecContext(ctx, query,
		hist.ID,
		hist.DoctorID,
		hist.PatientID,
		hist.AppointmentID,
		hist.PrescriptionID,
		hist.Notes,
		hist.CreatedAt,
	)
	if err != nil {
		return wrapDBErr("create patient history", err)
	}
	return nil
}

func (r *historyRepository) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.PatientHistory, error) {
	query := `
		SELECT id, doctor_id, patient_id, appointment_id, prescription_id, notes, created_at
		FROM patient_history
		WHERE patient_id = $1
		ORDER BY created_at DESC
	`
	var records []*model.PatientHistory
	if err := r.db.SelectContext(ctx, &records, query, patientID); err != nil {
		return nil, wrapDBErr("list patient history", err)
	}
	return records, nil
}
