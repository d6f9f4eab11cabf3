package blockeddate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/carebook/scheduling-api/internal/model"
	"github.com/carebook/scheduling-api/internal/repository"
	apperrors "github.com/carebook/scheduling-api/pkg/errors"
)

const (
	cacheTTL     = 30 * time.Second
	cacheCleanup = 5 * time.Minute
)

// Service is the registry of doctor-declared unavailable days. IsBlocked sits
// on the hot booking path, so lookups are cached with a short TTL;
// Block/Unblock invalidate eagerly.
type Service struct {
	repo  repository.BlockedDateRepository
	cache *gocache.Cache
}

func NewService(repo repository.BlockedDateRepository) *Service {
	return &Service{
		repo:  repo,
		cache: gocache.New(cacheTTL, cacheCleanup),
	}
}

func cacheKey(doctorID uuid.UUID, date time.Time) string {
	return fmt.Sprintf("%s:%s", doctorID, model.DateOnly(date).Format("2006-01-02"))
}

func (s *Service) Block(ctx context.Context, doctorID uuid.UUID, date time.Time, reason string) (*model.BlockedDate, error) {
	bd := &model.BlockedDate{
		DoctorID: doctorID,
		Date:     date,
		Reason:   reason,
	}
	if err := s.repo.Create(ctx, bd); err != nil {
		return nil, mapStoreErr(err)
	}

	s.cache.Delete(cacheKey(doctorID, date))
	return bd, nil
}

// Unblock removes the doctor's own blocked date; another doctor's id reads
// as not found rather than mutating a foreign calendar.
func (s *Service) Unblock(ctx context.Context, id, doctorID uuid.UUID) error {
	bd, err := s.repo.Delete(ctx, id, doctorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("blocked date", err)
		}
		return mapStoreErr(err)
	}

	s.cache.Delete(cacheKey(bd.DoctorID, bd.Date))
	return nil
}

func (s *Service) IsBlocked(ctx context.Context, doctorID uuid.UUID, date time.Time) (bool, error) {
	key := cacheKey(doctorID, date)
	if v, ok := s.cache.Get(key); ok {
		return v.(bool), nil
	}

	blocked, err := s.repo.IsBlocked(ctx, doctorID, date)
	if err != nil {
		return false, mapStoreErr(err)
	}

	s.cache.Set(key, blocked, gocache.DefaultExpiration)
	return blocked, nil
}

func (s *Service) List(ctx context.Context, doctorID uuid.UUID) ([]*model.BlockedDate, error) {
	dates, err := s.repo.List(ctx, doctorID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return dates, nil
}

func mapStoreErr(err error) error {
	if errors.Is(err, repository.ErrUnavailable) {
		return apperrors.NewUnavailable(err)
	}
	return apperrors.NewInternal(err)
}
