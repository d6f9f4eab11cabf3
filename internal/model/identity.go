package model

import "github.com/google/uuid"

const (
	RoleDoctor  = "doctor"
	RolePatient = "patient"
	RoleAdmin   = "admin"
)

// Identity is the caller identity resolved by the gateway. The scheduling
// services never parse credentials themselves.
type Identity struct {
	UserID    uuid.UUID
	Role      string
	DoctorID  *uuid.UUID
	PatientID *uuid.UUID
}

// UserContact is the minimal directory record needed for reminder delivery.
type UserContact struct {
	ID    uuid.UUID `db:"id" json:"id"`
	Name  string    `db:"name" json:"name"`
	Email string    `db:"email" json:"email"`
}
