package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/carebook/scheduling-api/internal/model"
	"github.com/carebook/scheduling-api/internal/repository"
	"github.com/carebook/scheduling-api/internal/service/notification"
	apperrors "github.com/carebook/scheduling-api/pkg/errors"
	"github.com/carebook/scheduling-api/pkg/logger"
	"github.com/carebook/scheduling-api/pkg/metrics"
)

// Service drives the appointment lifecycle. Every transition is a conditional
// update in the store, so a concurrent transition loses cleanly instead of
// overwriting. Authorization (who owns the appointment) is the handler's
// responsibility; the state machine trusts its caller.
type Service struct {
	appts        repository.AppointmentRepository
	notifier     notification.Service
	logger       *logger.Logger
	metrics      *metrics.Metrics
	storeTimeout time.Duration
}

func NewService(appts repository.AppointmentRepository, notifier notification.Service, logger *logger.Logger, m *metrics.Metrics, storeTimeout time.Duration) *Service {
	if storeTimeout <= 0 {
		storeTimeout = 5 * time.Second
	}
	return &Service{
		appts:        appts,
		notifier:     notifier,
		logger:       logger,
		metrics:      m,
		storeTimeout: storeTimeout,
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	appt, err := s.appts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("appointment", err)
		}
		return nil, mapStoreErr(err)
	}
	return appt, nil
}

func (s *Service) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	appointments, err := s.appts.List(ctx, filters)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return appointments, nil
}

// Confirm moves pending -> confirmed and notifies the patient.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	appt, err := s.transition(ctx, id, model.AppointmentStatusPending, model.AppointmentStatusConfirmed, nil)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, appt.PatientID, model.NotificationAppointmentConfirmed,
		"Appointment confirmed",
		"Your appointment on "+appt.StartTime.Format("2 Jan 2006 15:04")+" has been confirmed", appt)
	return appt, nil
}

// Reject moves pending -> cancelled, releasing the bound slot in the same
// transaction, and notifies the patient.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, reason string) (*model.Appointment, error) {
	opts := &repository.TransitionOpts{ReleaseSlot: true}
	if reason != "" {
		opts.CancelReason = &reason
	}

	appt, err := s.transition(ctx, id, model.AppointmentStatusPending, model.AppointmentStatusCancelled, opts)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, appt.PatientID, model.NotificationAppointmentRejected,
		"Appointment declined",
		"The doctor is unable to take your appointment on "+appt.StartTime.Format("2 Jan 2006 15:04"), appt)
	return appt, nil
}

// Cancel moves pending or confirmed -> cancelled, releases the bound slot,
// and notifies the counterparty of whoever cancelled.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, cancelledBy uuid.UUID, reason string) (*model.Appointment, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	from := current.Status
	if from != model.AppointmentStatusPending && from != model.AppointmentStatusConfirmed {
		return nil, apperrors.NewInvalidTransition("only pending or confirmed appointments can be cancelled")
	}

	opts := &repository.TransitionOpts{ReleaseSlot: true}
	if reason != "" {
		opts.CancelReason = &reason
	}

	appt, err := s.transition(ctx, id, from, model.AppointmentStatusCancelled, opts)
	if err != nil {
		return nil, err
	}

	notifyUser := appt.PatientID
	if cancelledBy == appt.PatientID {
		notifyUser = appt.DoctorID
	}
	s.notify(ctx, notifyUser, model.NotificationAppointmentCancelled,
		"Appointment cancelled",
		"The appointment on "+appt.StartTime.Format("2 Jan 2006 15:04")+" has been cancelled", appt)
	return appt, nil
}

// Complete moves confirmed -> completed, writing the patient history record
// in the same transaction. An optional follow-up date arms the reminder.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, req *model.CompleteAppointmentRequest) (*model.Appointment, error) {
	if req.FollowUpDate != nil && req.FollowUpDate.Before(time.Now()) {
		return nil, apperrors.NewBadRequest("follow-up date must be in the future", nil)
	}

	hist := &model.PatientHistory{
		Notes:          req.Notes,
		PrescriptionID: req.PrescriptionID,
	}

	opCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	appt, err := s.appts.CompleteWithHistory(opCtx, id, hist, req.FollowUpDate)
	if err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			s.metrics.Transitions.WithLabelValues(string(model.AppointmentStatusCompleted), "invalid").Inc()
			return nil, s.invalidTransition(ctx, id, model.AppointmentStatusCompleted)
		}
		return nil, mapStoreErr(err)
	}

	s.metrics.Transitions.WithLabelValues(string(model.AppointmentStatusCompleted), "success").Inc()
	return appt, nil
}

// SetFollowUp attaches or replaces the follow-up date on a completed
// appointment. Replacing re-arms the reminder.
func (s *Service) SetFollowUp(ctx context.Context, id uuid.UUID, date time.Time) (*model.Appointment, error) {
	if date.Before(time.Now()) {
		return nil, apperrors.NewBadRequest("follow-up date must be in the future", nil)
	}

	opCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	appt, err := s.appts.SetFollowUp(opCtx, id, date)
	if err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			return nil, apperrors.NewInvalidTransition("follow-up can only be set on a completed appointment")
		}
		return nil, mapStoreErr(err)
	}
	return appt, nil
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus, opts *repository.TransitionOpts) (*model.Appointment, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	appt, err := s.appts.TransitionStatus(opCtx, id, from, to, opts)
	if err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			s.metrics.Transitions.WithLabelValues(string(to), "invalid").Inc()
			return nil, s.invalidTransition(ctx, id, to)
		}
		s.metrics.Transitions.WithLabelValues(string(to), "error").Inc()
		return nil, mapStoreErr(err)
	}

	s.metrics.Transitions.WithLabelValues(string(to), "success").Inc()
	return appt, nil
}

// invalidTransition distinguishes a missing appointment from an illegal edge
// so the caller gets the right failure.
func (s *Service) invalidTransition(ctx context.Context, id uuid.UUID, to model.AppointmentStatus) error {
	current, err := s.appts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("appointment", err)
		}
		return mapStoreErr(err)
	}
	return apperrors.NewInvalidTransition(
		"cannot move appointment from " + string(current.Status) + " to " + string(to))
}

func (s *Service) notify(ctx context.Context, userID uuid.UUID, notifType, title, message string, appt *model.Appointment) {
	if err := s.notifier.Notify(ctx, userID, notifType, title, message, &appt.ID); err != nil {
		s.logger.ZL.Warn().Err(err).
			Str("appointment_id", appt.ID.String()).
			Str("type", notifType).
			Msg("failed to send notification")
	}
}

func mapStoreErr(err error) error {
	if errors.Is(err, repository.ErrUnavailable) {
		return apperrors.NewUnavailable(err)
	}
	return apperrors.NewInternal(err)
}
