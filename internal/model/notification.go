package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotificationNewAppointment       = "new_appointment"
	NotificationAppointmentPending   = "appointment_pending"
	NotificationAppointmentConfirmed = "appointment_confirmed"
	NotificationAppointmentCancelled = "appointment_cancelled"
	NotificationAppointmentRejected  = "appointment_rejected"
	NotificationFollowUpReminder     = "follow_up_reminder"
)

type Notification struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	UserID        uuid.UUID  `db:"user_id" json:"user_id"`
	Type          string     `db:"type" json:"type"`
	Title         string     `db:"title" json:"title"`
	Message       string     `db:"message" json:"message"`
	AppointmentID *uuid.UUID `db:"appointment_id" json:"appointment_id,omitempty"`
	Read          bool       `db:"read" json:"read"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// NotificationEvent is the payload published to the in-app channel.
type NotificationEvent struct {
	ID             uuid.UUID `json:"id"`
	NotificationID uuid.UUID `json:"notification_id"`
	UserID         uuid.UUID `json:"user_id"`
	Type           string    `json:"type"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"created_at"`
}
