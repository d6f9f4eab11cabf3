package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/carebook/scheduling-api/internal/model"
)

// All repository interfaces in one file
type (
	// SlotRepository owns time_slots rows and their availability state.
	SlotRepository interface {
		Create(ctx context.Context, slot *model.TimeSlot) error
		Get(ctx context.Context, id uuid.UUID) (*model.TimeSlot, error)
		Update(ctx context.Context, slot *model.TimeSlot) error
		// Cancel soft-deletes a slot (status -> cancelled); rows are never removed.
		Cancel(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.SlotFilters) ([]*model.TimeSlot, error)
		// FindOverlapping returns non-cancelled slots for the doctor whose
		// [start, end) interval intersects the given one.
		FindOverlapping(ctx context.Context, doctorID uuid.UUID, start, end time.Time) ([]*model.TimeSlot, error)
	}

	// BlockedDateRepository owns doctor-declared unavailable days.
	BlockedDateRepository interface {
		Create(ctx context.Context, bd *model.BlockedDate) error
		// Delete removes the row only when it belongs to the doctor; a
		// foreign id reads as not found.
		Delete(ctx context.Context, id, doctorID uuid.UUID) (*model.BlockedDate, error)
		IsBlocked(ctx context.Context, doctorID uuid.UUID, date time.Time) (bool, error)
		List(ctx context.Context, doctorID uuid.UUID) ([]*model.BlockedDate, error)
	}

	// AppointmentRepository owns appointments plus the transactional
	// multi-row operations the booking and state-machine services need.
	// Every method that reads-then-writes a status field does so as a single
	// conditional UPDATE or inside one transaction; callers never compose
	// the atomicity themselves.
	AppointmentRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)

		// CreateWithSlotReservation flips the slot available -> booked with an
		// affected-rows check and inserts the pending appointment in the same
		// transaction. Returns ErrSlotTaken when the compare-and-swap loses.
		CreateWithSlotReservation(ctx context.Context, appt *model.Appointment) error

		// CreateDirect inserts a slot-less appointment after verifying, inside
		// a serializable transaction, that no non-cancelled slot or
		// appointment overlaps the window. Returns ErrWindowTaken on overlap.
		CreateDirect(ctx context.Context, appt *model.Appointment) error

		// TransitionStatus conditionally moves from -> to, optionally
		// releasing the bound slot in the same transaction. Returns
		// ErrStatusChanged when the appointment is no longer in from.
		TransitionStatus(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus, opts *TransitionOpts) (*model.Appointment, error)

		// CompleteWithHistory moves confirmed -> completed and writes the
		// patient history row in one transaction.
		CompleteWithHistory(ctx context.Context, id uuid.UUID, hist *model.PatientHistory, followUpDate *time.Time) (*model.Appointment, error)

		// SetFollowUp sets the follow-up date on a completed appointment and
		// resets the sent markers.
		SetFollowUp(ctx context.Context, id uuid.UUID, date time.Time) (*model.Appointment, error)

		// FindDueFollowUps lists appointments whose follow-up matured and has
		// not been sent, ordered by follow-up date.
		FindDueFollowUps(ctx context.Context, doctorID *uuid.UUID, now time.Time, limit int) ([]*model.Appointment, error)

		// MarkFollowUpSent flips follow_up_sent guarded on it still being
		// false. The false return means another dispatcher won the race.
		MarkFollowUpSent(ctx context.Context, id uuid.UUID, sentAt time.Time) (bool, error)

		// HasOverlapping reports whether any non-cancelled appointment for the
		// doctor intersects [start, end).
		HasOverlapping(ctx context.Context, doctorID uuid.UUID, start, end time.Time) (bool, error)
	}

	NotificationRepository interface {
		Create(ctx context.Context, n *model.Notification) error
		ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]*model.Notification, error)
		// MarkRead only touches the user's own row; a foreign id reads as
		// not found.
		MarkRead(ctx context.Context, id, userID uuid.UUID) error
	}

	HistoryRepository interface {
		CreateTx(ctx context.Context, tx *sqlx.Tx, hist *model.PatientHistory) error
		ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.PatientHistory, error)
	}

	// UserRepository is the narrow directory view the reminder path needs.
	UserRepository interface {
		GetContact(ctx context.Context, id uuid.UUID) (*model.UserContact, error)
	}
)

// TransitionOpts carries the optional side effects of a status transition.
type TransitionOpts struct {
	ReleaseSlot  bool
	CancelReason *string
}
