package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/carebook/scheduling-api/internal/model"
	"github.com/carebook/scheduling-api/internal/repository"
	"github.com/carebook/scheduling-api/internal/service/blockeddate"
	"github.com/carebook/scheduling-api/internal/service/notification"
	apperrors "github.com/carebook/scheduling-api/pkg/errors"
	"github.com/carebook/scheduling-api/pkg/logger"
	"github.com/carebook/scheduling-api/pkg/metrics"
)

const defaultDirectDuration = 30 * time.Minute

// Service coordinates slot reservation and appointment creation. The
// reservation itself is a compare-and-swap in the store, so any number of
// stateless instances can race on the same slot and exactly one wins.
type Service struct {
	appts        repository.AppointmentRepository
	slots        repository.SlotRepository
	blocked      *blockeddate.Service
	notifier     notification.Service
	logger       *logger.Logger
	metrics      *metrics.Metrics
	storeTimeout time.Duration
}

func NewService(
	appts repository.AppointmentRepository,
	slots repository.SlotRepository,
	blocked *blockeddate.Service,
	notifier notification.Service,
	logger *logger.Logger,
	m *metrics.Metrics,
	storeTimeout time.Duration,
) *Service {
	if storeTimeout <= 0 {
		storeTimeout = 5 * time.Second
	}
	return &Service{
		appts:        appts,
		slots:        slots,
		blocked:      blocked,
		notifier:     notifier,
		logger:       logger,
		metrics:      m,
		storeTimeout: storeTimeout,
	}
}

// Reserve books a published slot for the patient. On a lost race the caller
// gets Conflict and should pick another slot.
func (s *Service) Reserve(ctx context.Context, slotID, patientID uuid.UUID, apptType model.AppointmentType, notes string) (*model.Appointment, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	slot, err := s.slots.Get(opCtx, slotID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("time slot", err)
		}
		return nil, mapStoreErr(err)
	}

	if slot.Status != model.SlotStatusAvailable {
		s.metrics.BookingConflicts.Inc()
		return nil, apperrors.NewConflict("slot no longer available", nil)
	}

	// A date blocked after the slot was published still rejects new
	// bookings, per registry semantics.
	blocked, err := s.blocked.IsBlocked(ctx, slot.DoctorID, slot.StartTime)
	if err != nil {
		return nil, err
	}
	if blocked {
		s.metrics.BookingConflicts.Inc()
		return nil, apperrors.NewConflict("doctor is unavailable on this date", nil)
	}

	appt := &model.Appointment{
		PatientID:       patientID,
		DoctorID:        slot.DoctorID,
		TimeSlotID:      &slot.ID,
		StartTime:       slot.StartTime,
		EndTime:         slot.EndTime,
		Type:            apptType,
		ConsultationFee: slot.ConsultationFee,
		Notes:           notes,
	}

	if err := s.appts.CreateWithSlotReservation(opCtx, appt); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			// The earlier read saw available but the CAS lost; this is the
			// race the guard exists for.
			s.metrics.BookingConflicts.Inc()
			s.metrics.Bookings.WithLabelValues("slot", "conflict").Inc()
			return nil, apperrors.NewConflict("slot no longer available", err)
		}
		s.metrics.Bookings.WithLabelValues("slot", "error").Inc()
		return nil, mapStoreErr(err)
	}

	s.metrics.Bookings.WithLabelValues("slot", "success").Inc()
	s.notifyBooked(ctx, appt)
	return appt, nil
}

// ReserveDirect books an ad-hoc window not backed by a published slot. The
// overlap check and insert run in one serializable transaction in the store.
func (s *Service) ReserveDirect(ctx context.Context, patientID uuid.UUID, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	if req.StartTime.IsZero() {
		return nil, apperrors.NewBadRequest("start time is required", nil)
	}
	duration := time.Duration(req.DurationMinutes) * time.Minute
	if duration <= 0 {
		duration = defaultDirectDuration
	}
	endTime := req.StartTime.Add(duration)

	blocked, err := s.blocked.IsBlocked(ctx, req.DoctorID, req.StartTime)
	if err != nil {
		return nil, err
	}
	if blocked {
		s.metrics.BookingConflicts.Inc()
		return nil, apperrors.NewConflict("doctor is unavailable on this date", nil)
	}

	appt := &model.Appointment{
		PatientID:       patientID,
		DoctorID:        req.DoctorID,
		StartTime:       req.StartTime,
		EndTime:         endTime,
		Type:            req.Type,
		ConsultationFee: req.ConsultationFee,
		Notes:           req.Notes,
	}

	opCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.appts.CreateDirect(opCtx, appt); err != nil {
		if errors.Is(err, repository.ErrWindowTaken) {
			s.metrics.BookingConflicts.Inc()
			s.metrics.Bookings.WithLabelValues("direct", "conflict").Inc()
			return nil, apperrors.NewConflict("time window no longer available", err)
		}
		s.metrics.Bookings.WithLabelValues("direct", "error").Inc()
		return nil, mapStoreErr(err)
	}

	s.metrics.Bookings.WithLabelValues("direct", "success").Inc()
	s.notifyBooked(ctx, appt)
	return appt, nil
}

// notifyBooked is fire-and-forget: delivery failure is logged and never
// unwinds the reservation.
func (s *Service) notifyBooked(ctx context.Context, appt *model.Appointment) {
	when := appt.StartTime.Format("2 Jan 2006 15:04")

	if err := s.notifier.Notify(ctx, appt.DoctorID, model.NotificationNewAppointment,
		"New appointment request",
		"A patient requested an appointment on "+when, &appt.ID); err != nil {
		s.logger.ZL.Warn().Err(err).Str("appointment_id", appt.ID.String()).Msg("failed to notify doctor")
	}

	if err := s.notifier.Notify(ctx, appt.PatientID, model.NotificationAppointmentPending,
		"Appointment requested",
		"Your appointment on "+when+" is awaiting the doctor's confirmation", &appt.ID); err != nil {
		s.logger.ZL.Warn().Err(err).Str("appointment_id", appt.ID.String()).Msg("failed to notify patient")
	}
}

func mapStoreErr(err error) error {
	if errors.Is(err, repository.ErrUnavailable) {
		return apperrors.NewUnavailable(err)
	}
	return apperrors.NewInternal(err)
}
