package model

import (
	"time"

	"github.com/google/uuid"
)

// PatientHistory is written in the same transaction as the completed-status
// flip, exactly once per appointment.
type PatientHistory struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	DoctorID       uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	AppointmentID  uuid.UUID  `db:"appointment_id" json:"appointment_id"`
	PrescriptionID *uuid.UUID `db:"prescription_id" json:"prescription_id,omitempty"`
	Notes          string     `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}
