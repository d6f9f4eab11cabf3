package model

import (
	"time"

	"github.com/google/uuid"
)

// BlockedDate marks a calendar day on which a doctor accepts no bookings.
// Blocking does not cancel already-booked slots on that day.
type BlockedDate struct {
	ID        uuid.UUID `db:"id" json:"id"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Date      time.Time `db:"blocked_date" json:"date"`
	Reason    string    `db:"reason" json:"reason,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type BlockDateRequest struct {
	Date   time.Time `json:"date" validate:"required"`
	Reason string    `json:"reason" validate:"max=500"`
}

// DateOnly truncates t to its calendar day in UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
