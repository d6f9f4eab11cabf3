package slot

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebook/scheduling-api/internal/model"
	"github.com/carebook/scheduling-api/internal/repository"
	"github.com/carebook/scheduling-api/internal/service/blockeddate"
	apperrors "github.com/carebook/scheduling-api/pkg/errors"
	"github.com/carebook/scheduling-api/pkg/logger"
	"github.com/carebook/scheduling-api/pkg/metrics"
)

var testMetrics = metrics.New("slot_service_test")

func testLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
}

type fakeSlotRepo struct {
	mu    sync.Mutex
	slots map[uuid.UUID]*model.TimeSlot

	// createErr fails the next Create once, simulating a constraint
	// rejection the pre-insert check did not see.
	createErr error
}

func newFakeSlotRepo() *fakeSlotRepo {
	return &fakeSlotRepo{slots: make(map[uuid.UUID]*model.TimeSlot)}
}

func (f *fakeSlotRepo) Create(ctx context.Context, slot *model.TimeSlot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		err := f.createErr
		f.createErr = nil
		return err
	}
	if slot.ID == uuid.Nil {
		slot.ID = uuid.New()
	}
	slot.CreatedAt = time.Now()
	slot.UpdatedAt = time.Now()
	cp := *slot
	f.slots[slot.ID] = &cp
	return nil
}

func (f *fakeSlotRepo) Get(ctx context.Context, id uuid.UUID) (*model.TimeSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	slot, ok := f.slots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *slot
	return &cp, nil
}

func (f *fakeSlotRepo) Update(ctx context.Context, slot *model.TimeSlot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.slots[slot.ID]
	if !ok || stored.Status != model.SlotStatusAvailable {
		return repository.ErrSlotTaken
	}
	cp := *slot
	f.slots[slot.ID] = &cp
	return nil
}

func (f *fakeSlotRepo) Cancel(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.slots[id]
	if !ok || stored.Status != model.SlotStatusAvailable {
		return repository.ErrSlotTaken
	}
	stored.Status = model.SlotStatusCancelled
	return nil
}

func (f *fakeSlotRepo) List(ctx context.Context, filters *model.SlotFilters) ([]*model.TimeSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.TimeSlot
	for _, slot := range f.slots {
		if slot.DoctorID == filters.DoctorID {
			cp := *slot
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeSlotRepo) FindOverlapping(ctx context.Context, doctorID uuid.UUID, start, end time.Time) ([]*model.TimeSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.TimeSlot
	for _, slot := range f.slots {
		if slot.DoctorID != doctorID || slot.Status == model.SlotStatusCancelled {
			continue
		}
		if slot.StartTime.Before(end) && slot.EndTime.After(start) {
			cp := *slot
			out = append(out, &cp)
		}
	}
	return out, nil
}

type stubBlockedRepo struct {
	blocked map[string]bool
}

func (s *stubBlockedRepo) Create(ctx context.Context, bd *model.BlockedDate) error { return nil }
func (s *stubBlockedRepo) Delete(ctx context.Context, id, doctorID uuid.UUID) (*model.BlockedDate, error) {
	return nil, repository.ErrNotFound
}
func (s *stubBlockedRepo) IsBlocked(ctx context.Context, doctorID uuid.UUID, date time.Time) (bool, error) {
	return s.blocked[model.DateOnly(date).Format("2006-01-02")], nil
}
func (s *stubBlockedRepo) List(ctx context.Context, doctorID uuid.UUID) ([]*model.BlockedDate, error) {
	return nil, nil
}

func newTestService(slots *fakeSlotRepo, blocked map[string]bool) *Service {
	blockedSvc := blockeddate.NewService(&stubBlockedRepo{blocked: blocked})
	return NewService(slots, blockedSvc, testLogger(), testMetrics, time.Second)
}

func TestGenerateSlotsPartitionsWindows(t *testing.T) {
	repo := newFakeSlotRepo()
	svc := newTestService(repo, nil)

	day := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	result, err := svc.GenerateSlots(context.Background(), &model.GenerateSlotsRequest{
		DoctorID:        uuid.New(),
		StartDate:       day,
		EndDate:         day,
		Windows:         []model.DailyWindow{{Start: "09:00", End: "12:00"}},
		DurationMinutes: 30,
		ConsultationFee: 100,
	})
	require.NoError(t, err)

	assert.Len(t, result.Created, 6)
	assert.Empty(t, result.Skipped)

	first, err := repo.Get(context.Background(), result.Created[0])
	require.NoError(t, err)
	assert.Equal(t, day.Add(9*time.Hour), first.StartTime)
	assert.Equal(t, day.Add(9*time.Hour+30*time.Minute), first.EndTime)
	assert.Equal(t, float64(100), first.ConsultationFee)
	assert.Equal(t, model.SlotStatusAvailable, first.Status)
}

func TestGenerateSlotsSkipsBlockedDays(t *testing.T) {
	repo := newFakeSlotRepo()
	svc := newTestService(repo, map[string]bool{"2026-09-11": true})

	result, err := svc.GenerateSlots(context.Background(), &model.GenerateSlotsRequest{
		DoctorID:        uuid.New(),
		StartDate:       time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2026, 9, 11, 0, 0, 0, 0, time.UTC),
		Windows:         []model.DailyWindow{{Start: "09:00", End: "10:00"}},
		DurationMinutes: 30,
	})
	require.NoError(t, err)

	assert.Len(t, result.Created, 2)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "2026-09-11", result.Skipped[0].Date)
	assert.Equal(t, "date blocked", result.Skipped[0].Reason)
}

func TestGenerateSlotsSkipsOverlaps(t *testing.T) {
	repo := newFakeSlotRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	doctorID := uuid.New()
	day := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)

	// An already-published slot covering 09:15-09:45 collides with the
	// first two candidates.
	require.NoError(t, repo.Create(ctx, &model.TimeSlot{
		DoctorID:  doctorID,
		StartTime: day.Add(9*time.Hour + 15*time.Minute),
		EndTime:   day.Add(9*time.Hour + 45*time.Minute),
		Status:    model.SlotStatusAvailable,
	}))

	result, err := svc.GenerateSlots(ctx, &model.GenerateSlotsRequest{
		DoctorID:        doctorID,
		StartDate:       day,
		EndDate:         day,
		Windows:         []model.DailyWindow{{Start: "09:00", End: "11:00"}},
		DurationMinutes: 30,
	})
	require.NoError(t, err)

	assert.Len(t, result.Created, 2)
	require.Len(t, result.Skipped, 2)
	for _, skipped := range result.Skipped {
		assert.Equal(t, "overlaps existing slot", skipped.Reason)
	}
}

func TestGenerateSlotsValidation(t *testing.T) {
	svc := newTestService(newFakeSlotRepo(), nil)
	day := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	window := []model.DailyWindow{{Start: "09:00", End: "10:00"}}

	tests := []struct {
		name string
		req  *model.GenerateSlotsRequest
	}{
		{
			name: "end date before start date",
			req: &model.GenerateSlotsRequest{
				StartDate: day, EndDate: day.AddDate(0, 0, -1),
				Windows: window, DurationMinutes: 30,
			},
		},
		{
			name: "range too long",
			req: &model.GenerateSlotsRequest{
				StartDate: day, EndDate: day.AddDate(0, 0, 120),
				Windows: window, DurationMinutes: 30,
			},
		},
		{
			name: "no windows",
			req: &model.GenerateSlotsRequest{
				StartDate: day, EndDate: day, DurationMinutes: 30,
			},
		},
		{
			name: "zero duration",
			req: &model.GenerateSlotsRequest{
				StartDate: day, EndDate: day, Windows: window,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GenerateSlots(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, apperrors.ErrBadRequest))
		})
	}
}

func TestGenerateSlotsSkipsLostInsertRace(t *testing.T) {
	repo := newFakeSlotRepo()
	svc := newTestService(repo, nil)

	// A concurrent writer claims the first window between the overlap check
	// and the insert; the store rejects it and generation carries on.
	repo.createErr = repository.ErrWindowTaken

	day := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	result, err := svc.GenerateSlots(context.Background(), &model.GenerateSlotsRequest{
		DoctorID:        uuid.New(),
		StartDate:       day,
		EndDate:         day,
		Windows:         []model.DailyWindow{{Start: "09:00", End: "10:00"}},
		DurationMinutes: 30,
	})
	require.NoError(t, err)

	assert.Len(t, result.Created, 1)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "overlaps existing slot", result.Skipped[0].Reason)
}

func TestCreateSlotLostInsertRace(t *testing.T) {
	repo := newFakeSlotRepo()
	svc := newTestService(repo, nil)

	repo.createErr = repository.ErrWindowTaken

	start := time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC)
	_, err := svc.CreateSlot(context.Background(), &model.CreateSlotRequest{
		DoctorID: uuid.New(), StartTime: start, EndTime: start.Add(30 * time.Minute),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrConflict))
}

func TestCreateSlotRejectsOverlap(t *testing.T) {
	repo := newFakeSlotRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	doctorID := uuid.New()
	start := time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC)

	_, err := svc.CreateSlot(ctx, &model.CreateSlotRequest{
		DoctorID: doctorID, StartTime: start, EndTime: start.Add(30 * time.Minute),
	})
	require.NoError(t, err)

	_, err = svc.CreateSlot(ctx, &model.CreateSlotRequest{
		DoctorID: doctorID, StartTime: start.Add(15 * time.Minute), EndTime: start.Add(45 * time.Minute),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrConflict))
}

func TestCreateSlotRejectsBlockedDate(t *testing.T) {
	svc := newTestService(newFakeSlotRepo(), map[string]bool{"2026-09-10": true})

	start := time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC)
	_, err := svc.CreateSlot(context.Background(), &model.CreateSlotRequest{
		DoctorID: uuid.New(), StartTime: start, EndTime: start.Add(30 * time.Minute),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrConflict))
}

func TestUpdateSlotOwnershipAndState(t *testing.T) {
	repo := newFakeSlotRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	doctorID := uuid.New()
	start := time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC)

	slot, err := svc.CreateSlot(ctx, &model.CreateSlotRequest{
		DoctorID: doctorID, StartTime: start, EndTime: start.Add(30 * time.Minute), ConsultationFee: 100,
	})
	require.NoError(t, err)

	_, err = svc.UpdateSlot(ctx, slot.ID, uuid.New(), &model.UpdateSlotRequest{})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrForbidden))

	fee := 150.0
	updated, err := svc.UpdateSlot(ctx, slot.ID, doctorID, &model.UpdateSlotRequest{ConsultationFee: &fee})
	require.NoError(t, err)
	assert.Equal(t, 150.0, updated.ConsultationFee)

	// A booked slot belongs to its appointment and rejects edits.
	repo.mu.Lock()
	repo.slots[slot.ID].Status = model.SlotStatusBooked
	repo.mu.Unlock()

	_, err = svc.UpdateSlot(ctx, slot.ID, doctorID, &model.UpdateSlotRequest{ConsultationFee: &fee})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrConflict))
}

func TestDeleteSlot(t *testing.T) {
	repo := newFakeSlotRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	doctorID := uuid.New()
	start := time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC)

	slot, err := svc.CreateSlot(ctx, &model.CreateSlotRequest{
		DoctorID: doctorID, StartTime: start, EndTime: start.Add(30 * time.Minute),
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSlot(ctx, slot.ID, doctorID))

	stored, err := repo.Get(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusCancelled, stored.Status)

	err = svc.DeleteSlot(ctx, uuid.New(), doctorID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}
