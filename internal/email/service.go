package email

import (
	"context"
	"time"
)

// FollowUpReminder carries everything the reminder template needs; the
// scheduler resolves names and addresses before calling.
type FollowUpReminder struct {
	PatientName             string
	PatientEmail            string
	DoctorName              string
	FollowUpDate            time.Time
	PreviousAppointmentDate time.Time
	Notes                   string
}

type Service interface {
	SendFollowUpReminder(ctx context.Context, reminder FollowUpReminder) error
	SendCustom(ctx context.Context, to string, subject string, content string) error
}
