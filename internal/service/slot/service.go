package slot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carebook/scheduling-api/internal/model"
	"github.com/carebook/scheduling-api/internal/repository"
	"github.com/carebook/scheduling-api/internal/service/blockeddate"
	apperrors "github.com/carebook/scheduling-api/pkg/errors"
	"github.com/carebook/scheduling-api/pkg/logger"
	"github.com/carebook/scheduling-api/pkg/metrics"
)

const (
	skipReasonBlocked = "date blocked"
	skipReasonOverlap = "overlaps existing slot"

	maxGenerationDays = 92
)

// Service generates and manages a doctor's published time slots.
type Service struct {
	slots        repository.SlotRepository
	blocked      *blockeddate.Service
	logger       *logger.Logger
	metrics      *metrics.Metrics
	storeTimeout time.Duration
}

func NewService(slots repository.SlotRepository, blocked *blockeddate.Service, logger *logger.Logger, m *metrics.Metrics, storeTimeout time.Duration) *Service {
	if storeTimeout <= 0 {
		storeTimeout = 5 * time.Second
	}
	return &Service{
		slots:        slots,
		blocked:      blocked,
		logger:       logger,
		metrics:      m,
		storeTimeout: storeTimeout,
	}
}

// GenerateSlots partitions each configured daily window into duration-sized
// intervals over the date range. It is a best-effort batch: blocked days and
// overlapping candidates are skipped and reported, not treated as failure.
func (s *Service) GenerateSlots(ctx context.Context, req *model.GenerateSlotsRequest) (*model.GenerateSlotsResult, error) {
	if err := validateGenerateRequest(req); err != nil {
		return nil, err
	}

	result := &model.GenerateSlotsResult{
		Created: []uuid.UUID{},
		Skipped: []model.SkippedSlot{},
	}
	duration := time.Duration(req.DurationMinutes) * time.Minute

	start := model.DateOnly(req.StartDate)
	end := model.DateOnly(req.EndDate)

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		blocked, err := s.blocked.IsBlocked(ctx, req.DoctorID, day)
		if err != nil {
			return nil, err
		}
		if blocked {
			result.Skipped = append(result.Skipped, model.SkippedSlot{
				Date:   day.Format("2006-01-02"),
				Reason: skipReasonBlocked,
			})
			s.metrics.SlotsSkipped.WithLabelValues("blocked").Inc()
			continue
		}

		for _, window := range req.Windows {
			windowStart, windowEnd, err := resolveWindow(day, window)
			if err != nil {
				return nil, apperrors.NewBadRequest(fmt.Sprintf("invalid daily window %s-%s", window.Start, window.End), err)
			}

			for t := windowStart; !t.Add(duration).After(windowEnd); t = t.Add(duration) {
				created, err := s.createCandidate(ctx, req, t, t.Add(duration))
				if err != nil {
					return nil, err
				}
				if created != uuid.Nil {
					result.Created = append(result.Created, created)
					s.metrics.SlotsGenerated.Inc()
				} else {
					result.Skipped = append(result.Skipped, model.SkippedSlot{
						Date:   t.Format("2006-01-02 15:04"),
						Reason: skipReasonOverlap,
					})
					s.metrics.SlotsSkipped.WithLabelValues("overlap").Inc()
				}
			}
		}
	}

	s.logger.ZL.Info().
		Str("doctor_id", req.DoctorID.String()).
		Int("created", len(result.Created)).
		Int("skipped", len(result.Skipped)).
		Msg("slot generation finished")

	return result, nil
}

// createCandidate returns uuid.Nil (no error) when the candidate overlaps an
// existing non-cancelled slot, whether the pre-insert check saw it or the
// store's exclusion constraint rejected the insert.
func (s *Service) createCandidate(ctx context.Context, req *model.GenerateSlotsRequest, start, end time.Time) (uuid.UUID, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	overlapping, err := s.slots.FindOverlapping(opCtx, req.DoctorID, start, end)
	if err != nil {
		return uuid.Nil, mapStoreErr(err)
	}
	if len(overlapping) > 0 {
		return uuid.Nil, nil
	}

	slot := &model.TimeSlot{
		DoctorID:        req.DoctorID,
		StartTime:       start,
		EndTime:         end,
		ConsultationFee: req.ConsultationFee,
		Status:          model.SlotStatusAvailable,
	}
	if err := s.slots.Create(opCtx, slot); err != nil {
		if errors.Is(err, repository.ErrWindowTaken) {
			return uuid.Nil, nil
		}
		return uuid.Nil, mapStoreErr(err)
	}
	return slot.ID, nil
}

// CreateSlot publishes a single slot with the same blocked-date and overlap
// rules as the batch generator, except here a conflict is an error.
func (s *Service) CreateSlot(ctx context.Context, req *model.CreateSlotRequest) (*model.TimeSlot, error) {
	if !req.EndTime.After(req.StartTime) {
		return nil, apperrors.NewBadRequest("end time must be after start time", nil)
	}

	blocked, err := s.blocked.IsBlocked(ctx, req.DoctorID, req.StartTime)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, apperrors.NewConflict("date is blocked for this doctor", nil)
	}

	opCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	overlapping, err := s.slots.FindOverlapping(opCtx, req.DoctorID, req.StartTime, req.EndTime)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if len(overlapping) > 0 {
		return nil, apperrors.NewConflict("slot overlaps an existing slot", nil)
	}

	slot := &model.TimeSlot{
		DoctorID:        req.DoctorID,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		ConsultationFee: req.ConsultationFee,
		Status:          model.SlotStatusAvailable,
	}
	if err := s.slots.Create(opCtx, slot); err != nil {
		if errors.Is(err, repository.ErrWindowTaken) {
			// A concurrent writer claimed the window after our check.
			return nil, apperrors.NewConflict("slot overlaps an existing slot", err)
		}
		return nil, mapStoreErr(err)
	}
	return slot, nil
}

func (s *Service) GetSlot(ctx context.Context, id uuid.UUID) (*model.TimeSlot, error) {
	slot, err := s.slots.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("time slot", err)
		}
		return nil, mapStoreErr(err)
	}
	return slot, nil
}

func (s *Service) ListSlots(ctx context.Context, filters *model.SlotFilters) ([]*model.TimeSlot, error) {
	slots, err := s.slots.List(ctx, filters)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return slots, nil
}

// UpdateSlot edits an available slot. Booked slots belong to their
// appointment and reject edits with Conflict.
func (s *Service) UpdateSlot(ctx context.Context, id uuid.UUID, doctorID uuid.UUID, req *model.UpdateSlotRequest) (*model.TimeSlot, error) {
	slot, err := s.GetSlot(ctx, id)
	if err != nil {
		return nil, err
	}
	if slot.DoctorID != doctorID {
		return nil, apperrors.Forbidden("slot belongs to another doctor")
	}

	if req.StartTime != nil {
		slot.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		slot.EndTime = *req.EndTime
	}
	if req.ConsultationFee != nil {
		slot.ConsultationFee = *req.ConsultationFee
	}
	if !slot.EndTime.After(slot.StartTime) {
		return nil, apperrors.NewBadRequest("end time must be after start time", nil)
	}

	opCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.slots.Update(opCtx, slot); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, apperrors.NewConflict("slot is booked or cancelled", err)
		}
		return nil, mapStoreErr(err)
	}
	return slot, nil
}

// DeleteSlot soft-cancels an available slot; the row stays for audit.
func (s *Service) DeleteSlot(ctx context.Context, id uuid.UUID, doctorID uuid.UUID) error {
	slot, err := s.GetSlot(ctx, id)
	if err != nil {
		return err
	}
	if slot.DoctorID != doctorID {
		return apperrors.Forbidden("slot belongs to another doctor")
	}

	opCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.slots.Cancel(opCtx, id); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return apperrors.NewConflict("slot is booked; cancel the appointment instead", err)
		}
		return mapStoreErr(err)
	}
	return nil
}

func validateGenerateRequest(req *model.GenerateSlotsRequest) error {
	if req.EndDate.Before(req.StartDate) {
		return apperrors.NewBadRequest("end date must not precede start date", nil)
	}
	if int(model.DateOnly(req.EndDate).Sub(model.DateOnly(req.StartDate)).Hours()/24) > maxGenerationDays {
		return apperrors.NewBadRequest(fmt.Sprintf("date range exceeds %d days", maxGenerationDays), nil)
	}
	if len(req.Windows) == 0 {
		return apperrors.NewBadRequest("at least one daily window is required", nil)
	}
	if req.DurationMinutes <= 0 {
		return apperrors.NewBadRequest("slot duration must be positive", nil)
	}
	return nil
}

// resolveWindow anchors a clock-time window like 09:00-12:00 onto a day.
func resolveWindow(day time.Time, w model.DailyWindow) (time.Time, time.Time, error) {
	start, err := time.Parse("15:04", w.Start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := time.Parse("15:04", w.End)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("window end %s not after start %s", w.End, w.Start)
	}

	ws := day.Add(time.Duration(start.Hour())*time.Hour + time.Duration(start.Minute())*time.Minute)
	we := day.Add(time.Duration(end.Hour())*time.Hour + time.Duration(end.Minute())*time.Minute)
	return ws, we, nil
}

func mapStoreErr(err error) error {
	if errors.Is(err, repository.ErrUnavailable) {
		return apperrors.NewUnavailable(err)
	}
	return apperrors.NewInternal(err)
}
