package followup

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/carebook/scheduling-api/internal/email"
	"github.com/carebook/scheduling-api/internal/model"
	"github.com/carebook/scheduling-api/internal/repository"
	"github.com/carebook/scheduling-api/internal/service/notification"
	apperrors "github.com/carebook/scheduling-api/pkg/errors"
	"github.com/carebook/scheduling-api/pkg/logger"
	"github.com/carebook/scheduling-api/pkg/metrics"
)

const defaultBatchSize = 100

// Service matures follow-up dates on completed appointments into dispatched
// reminders. Dispatch is idempotent: the sent flag flips through a
// conditional update, so overlapping scans and manual triggers cannot
// double-send.
type Service struct {
	appts        repository.AppointmentRepository
	users        repository.UserRepository
	emailSvc     email.Service
	notifier     notification.Service
	logger       *logger.Logger
	metrics      *metrics.Metrics
	batchSize    int
	storeTimeout time.Duration
}

func NewService(
	appts repository.AppointmentRepository,
	users repository.UserRepository,
	emailSvc email.Service,
	notifier notification.Service,
	logger *logger.Logger,
	m *metrics.Metrics,
	batchSize int,
	storeTimeout time.Duration,
) *Service {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if storeTimeout <= 0 {
		storeTimeout = 5 * time.Second
	}
	return &Service{
		appts:        appts,
		users:        users,
		emailSvc:     emailSvc,
		notifier:     notifier,
		logger:       logger,
		metrics:      m,
		batchSize:    batchSize,
		storeTimeout: storeTimeout,
	}
}

// DueReminders lists appointments whose follow-up date has matured and has
// not been sent yet, optionally scoped to one doctor.
func (s *Service) DueReminders(ctx context.Context, doctorID *uuid.UUID) ([]*model.Appointment, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	due, err := s.appts.FindDueFollowUps(opCtx, doctorID, time.Now(), s.batchSize)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return due, nil
}

// Dispatch sends the reminder email and then marks the appointment sent,
// conditioned on it still being unsent. The email goes first: a failed send
// leaves the flag untouched so a later run retries, and a lost mark race
// after a successful send is reported as already handled, not an error.
func (s *Service) Dispatch(ctx context.Context, appointmentID uuid.UUID) error {
	appt, err := s.appts.Get(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("appointment", err)
		}
		return mapStoreErr(err)
	}

	if appt.FollowUpDate == nil {
		return apperrors.NewNotEligible("appointment has no follow-up date")
	}
	if appt.FollowUpSent {
		// Already handled; idempotent success.
		return nil
	}

	patient, err := s.users.GetContact(ctx, appt.PatientID)
	if err != nil {
		return mapStoreErr(err)
	}
	doctor, err := s.users.GetContact(ctx, appt.DoctorID)
	if err != nil {
		return mapStoreErr(err)
	}

	reminder := email.FollowUpReminder{
		PatientName:             patient.Name,
		PatientEmail:            patient.Email,
		DoctorName:              doctor.Name,
		FollowUpDate:            *appt.FollowUpDate,
		PreviousAppointmentDate: appt.StartTime,
		Notes:                   appt.Notes,
	}
	if err := s.emailSvc.SendFollowUpReminder(ctx, reminder); err != nil {
		s.metrics.RemindersFailed.Inc()
		return apperrors.NewUnavailable(err)
	}

	opCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	marked, err := s.appts.MarkFollowUpSent(opCtx, appointmentID, time.Now())
	if err != nil {
		return mapStoreErr(err)
	}
	if !marked {
		// A concurrent dispatcher marked it between our read and update.
		s.logger.ZL.Info().
			Str("appointment_id", appointmentID.String()).
			Msg("follow-up already marked sent by a concurrent dispatch")
		return nil
	}

	s.metrics.RemindersSent.Inc()

	if err := s.notifier.Notify(ctx, appt.PatientID, model.NotificationFollowUpReminder,
		"Follow-up reminder",
		"Your doctor recommended a follow-up visit on "+appt.FollowUpDate.Format("2 Jan 2006"), &appt.ID); err != nil {
		s.logger.ZL.Warn().Err(err).Str("appointment_id", appt.ID.String()).Msg("failed to send in-app reminder")
	}

	return nil
}

func mapStoreErr(err error) error {
	if errors.Is(err, repository.ErrUnavailable) {
		return apperrors.NewUnavailable(err)
	}
	return apperrors.NewInternal(err)
}
