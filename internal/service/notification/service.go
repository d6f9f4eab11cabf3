package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carebook/scheduling-api/internal/model"
	"github.com/carebook/scheduling-api/internal/repository"
	apperrors "github.com/carebook/scheduling-api/pkg/errors"
	"github.com/carebook/scheduling-api/pkg/logger"
	"github.com/carebook/scheduling-api/pkg/messaging"
)

const inAppChannel = "notifications"

// Service is the notification sink the scheduling engine emits into. Callers
// treat it as best-effort: a failure here never rolls back the state
// transition that triggered it.
type Service interface {
	Notify(ctx context.Context, userID uuid.UUID, notifType, title, message string, appointmentID *uuid.UUID) error
	ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]*model.Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
}

type service struct {
	repo   repository.NotificationRepository
	broker messaging.Broker
	logger *logger.Logger
}

func NewService(repo repository.NotificationRepository, broker messaging.Broker, logger *logger.Logger) Service {
	return &service{
		repo:   repo,
		broker: broker,
		logger: logger,
	}
}

func (s *service) Notify(ctx context.Context, userID uuid.UUID, notifType, title, message string, appointmentID *uuid.UUID) error {
	n := &model.Notification{
		UserID:        userID,
		Type:          notifType,
		Title:         title,
		Message:       message,
		AppointmentID: appointmentID,
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	event := &model.NotificationEvent{
		ID:             uuid.New(),
		NotificationID: n.ID,
		UserID:         userID,
		Type:           notifType,
		Message:        message,
		CreatedAt:      time.Now(),
	}
	if err := s.broker.Publish(ctx, inAppChannel, event); err != nil {
		// The row is persisted; the live push is best-effort on top.
		s.logger.ZL.Warn().Err(err).Str("type", notifType).Msg("failed to publish notification event")
	}

	return nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]*model.Notification, error) {
	notifications, err := s.repo.ListForUser(ctx, userID, unreadOnly)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return notifications, nil
}

// MarkRead is scoped to the owning user; marking a foreign notification
// reads as not found.
func (s *service) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("notification", err)
		}
		return mapStoreErr(err)
	}
	return nil
}

func mapStoreErr(err error) error {
	if errors.Is(err, repository.ErrUnavailable) {
		return apperrors.NewUnavailable(err)
	}
	return apperrors.NewInternal(err)
}
