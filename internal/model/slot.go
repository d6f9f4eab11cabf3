package model

import (
	"time"

	"github.com/google/uuid"
)

type SlotStatus string

const (
	SlotStatusAvailable SlotStatus = "available"
	SlotStatusBooked    SlotStatus = "booked"
	SlotStatusBlocked   SlotStatus = "blocked"
	SlotStatusCancelled SlotStatus = "cancelled"
)

// TimeSlot is a doctor-published bookable interval. For a given doctor no two
// non-cancelled slots may overlap.
type TimeSlot struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	DoctorID        uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	StartTime       time.Time  `db:"start_time" json:"start_time"`
	EndTime         time.Time  `db:"end_time" json:"end_time"`
	ConsultationFee float64    `db:"consultation_fee" json:"consultation_fee"`
	Status          SlotStatus `db:"status" json:"status"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// DailyWindow is a recurring within-day window, e.g. 09:00-12:00.
type DailyWindow struct {
	Start string `json:"start" validate:"required"`
	End   string `json:"end" validate:"required"`
}

type GenerateSlotsRequest struct {
	DoctorID        uuid.UUID     `json:"doctor_id"`
	StartDate       time.Time     `json:"start_date" validate:"required"`
	EndDate         time.Time     `json:"end_date" validate:"required"`
	Windows         []DailyWindow `json:"windows" validate:"required,min=1,dive"`
	DurationMinutes int           `json:"duration_minutes" validate:"required,min=5,max=240"`
	ConsultationFee float64       `json:"consultation_fee" validate:"gte=0"`
}

type SkippedSlot struct {
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

// GenerateSlotsResult reports a best-effort batch: partial success is
// expected, skipped candidates are not errors.
type GenerateSlotsResult struct {
	Created []uuid.UUID   `json:"created"`
	Skipped []SkippedSlot `json:"skipped"`
}

type CreateSlotRequest struct {
	DoctorID        uuid.UUID `json:"doctor_id"`
	StartTime       time.Time `json:"start_time" validate:"required"`
	EndTime         time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	ConsultationFee float64   `json:"consultation_fee" validate:"gte=0"`
}

type UpdateSlotRequest struct {
	StartTime       *time.Time `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	ConsultationFee *float64   `json:"consultation_fee"`
}

type SlotFilters struct {
	DoctorID  uuid.UUID
	StartDate time.Time
	EndDate   time.Time
	Status    SlotStatus
}
