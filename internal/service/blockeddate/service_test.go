package blockeddate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebook/scheduling-api/internal/model"
	"github.com/carebook/scheduling-api/internal/repository"
	apperrors "github.com/carebook/scheduling-api/pkg/errors"
)

type fakeBlockedDateRepo struct {
	mu             sync.Mutex
	dates          map[uuid.UUID]*model.BlockedDate
	isBlockedCalls int
}

func newFakeBlockedDateRepo() *fakeBlockedDateRepo {
	return &fakeBlockedDateRepo{dates: make(map[uuid.UUID]*model.BlockedDate)}
}

func (f *fakeBlockedDateRepo) Create(ctx context.Context, bd *model.BlockedDate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	bd.ID = uuid.New()
	bd.CreatedAt = time.Now()
	f.dates[bd.ID] = bd
	return nil
}

func (f *fakeBlockedDateRepo) Delete(ctx context.Context, id, doctorID uuid.UUID) (*model.BlockedDate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	bd, ok := f.dates[id]
	if !ok || bd.DoctorID != doctorID {
		return nil, repository.ErrNotFound
	}
	delete(f.dates, id)
	return bd, nil
}

func (f *fakeBlockedDateRepo) IsBlocked(ctx context.Context, doctorID uuid.UUID, date time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.isBlockedCalls++
	day := model.DateOnly(date)
	for _, bd := range f.dates {
		if bd.DoctorID == doctorID && model.DateOnly(bd.Date).Equal(day) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBlockedDateRepo) List(ctx context.Context, doctorID uuid.UUID) ([]*model.BlockedDate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.BlockedDate
	for _, bd := range f.dates {
		if bd.DoctorID == doctorID {
			out = append(out, bd)
		}
	}
	return out, nil
}

func TestBlockAndIsBlocked(t *testing.T) {
	repo := newFakeBlockedDateRepo()
	svc := NewService(repo)
	ctx := context.Background()

	doctorID := uuid.New()
	date := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	blocked, err := svc.IsBlocked(ctx, doctorID, date)
	require.NoError(t, err)
	assert.False(t, blocked)

	_, err = svc.Block(ctx, doctorID, date, "conference")
	require.NoError(t, err)

	blocked, err = svc.IsBlocked(ctx, doctorID, date)
	require.NoError(t, err)
	assert.True(t, blocked)
}

func TestIsBlockedUsesCache(t *testing.T) {
	repo := newFakeBlockedDateRepo()
	svc := NewService(repo)
	ctx := context.Background()

	doctorID := uuid.New()
	date := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		// Different clock times on the same calendar day share a cache key.
		_, err := svc.IsBlocked(ctx, doctorID, date.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
	}

	assert.Equal(t, 1, repo.isBlockedCalls)
}

func TestUnblockInvalidatesCache(t *testing.T) {
	repo := newFakeBlockedDateRepo()
	svc := NewService(repo)
	ctx := context.Background()

	doctorID := uuid.New()
	date := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	bd, err := svc.Block(ctx, doctorID, date, "")
	require.NoError(t, err)

	blocked, err := svc.IsBlocked(ctx, doctorID, date)
	require.NoError(t, err)
	require.True(t, blocked)

	require.NoError(t, svc.Unblock(ctx, bd.ID, doctorID))

	blocked, err = svc.IsBlocked(ctx, doctorID, date)
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestUnblockUnknownID(t *testing.T) {
	svc := NewService(newFakeBlockedDateRepo())

	err := svc.Unblock(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}

func TestUnblockOtherDoctor(t *testing.T) {
	repo := newFakeBlockedDateRepo()
	svc := NewService(repo)
	ctx := context.Background()

	doctorID := uuid.New()
	date := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	bd, err := svc.Block(ctx, doctorID, date, "holiday")
	require.NoError(t, err)

	// Another doctor cannot reopen this calendar through the shared id space.
	err = svc.Unblock(ctx, bd.ID, uuid.New())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))

	blocked, err := svc.IsBlocked(ctx, doctorID, date)
	require.NoError(t, err)
	assert.True(t, blocked)
}
