package history

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/carebook/scheduling-api/internal/model"
	"github.com/carebook/scheduling-api/internal/repository"
	apperrors "github.com/carebook/scheduling-api/pkg/errors"
)

// Service reads the visit history written by completed appointments. Records
// are append-only; the only write path is the completion transaction.
type Service struct {
	repo repository.HistoryRepository
}

func NewService(repo repository.HistoryRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.PatientHistory, error) {
	records, err := s.repo.ListForPatient(ctx, patientID)
	if err != nil {
		if errors.Is(err, repository.ErrUnavailable) {
			return nil, apperrors.NewUnavailable(err)
		}
		return nil, apperrors.NewInternal(err)
	}
	return records, nil
}
