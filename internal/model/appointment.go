package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

type AppointmentType string

const (
	AppointmentTypeOnline  AppointmentType = "online"
	AppointmentTypeOffline AppointmentType = "offline"
)

// Appointment is mutated only through the state machine transitions in
// internal/service/appointment. TimeSlotID is nil for direct bookings that
// reserve an ad-hoc window instead of a published slot. Cancelled
// appointments are retained for audit, never deleted.
type Appointment struct {
	ID              uuid.UUID         `db:"id" json:"id"`
	PatientID       uuid.UUID         `db:"patient_id" json:"patient_id"`
	DoctorID        uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	TimeSlotID      *uuid.UUID        `db:"time_slot_id" json:"time_slot_id,omitempty"`
	StartTime       time.Time         `db:"start_time" json:"start_time"`
	EndTime         time.Time         `db:"end_time" json:"end_time"`
	Type            AppointmentType   `db:"appointment_type" json:"appointment_type"`
	Status          AppointmentStatus `db:"status" json:"status"`
	ConsultationFee float64           `db:"consultation_fee" json:"consultation_fee"`
	Notes           string            `db:"notes" json:"notes,omitempty"`
	CancelReason    *string           `db:"cancel_reason" json:"cancel_reason,omitempty"`
	FollowUpDate    *time.Time        `db:"follow_up_date" json:"follow_up_date,omitempty"`
	FollowUpSent    bool              `db:"follow_up_sent" json:"follow_up_sent"`
	FollowUpSentAt  *time.Time        `db:"follow_up_sent_at" json:"follow_up_sent_at,omitempty"`
	CreatedAt       time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time         `db:"updated_at" json:"updated_at"`
}

// CreateAppointmentRequest books either a published slot (SlotID set) or a
// direct ad-hoc window (DoctorID + StartTime + DurationMinutes).
type CreateAppointmentRequest struct {
	SlotID          *uuid.UUID      `json:"slot_id"`
	DoctorID        uuid.UUID       `json:"doctor_id"`
	StartTime       time.Time       `json:"start_time"`
	DurationMinutes int             `json:"duration_minutes" validate:"omitempty,min=5,max=240"`
	Type            AppointmentType `json:"appointment_type" validate:"required,oneof=online offline"`
	ConsultationFee float64         `json:"consultation_fee" validate:"gte=0"`
	Notes           string          `json:"notes" validate:"max=1000"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type CompleteAppointmentRequest struct {
	Notes          string     `json:"notes" validate:"max=2000"`
	PrescriptionID *uuid.UUID `json:"prescription_id"`
	FollowUpDate   *time.Time `json:"follow_up_date"`
}

type SetFollowUpRequest struct {
	FollowUpDate time.Time `json:"follow_up_date" validate:"required"`
}

type AppointmentFilters struct {
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	Status    AppointmentStatus
	StartDate time.Time
	EndDate   time.Time
}
