package application

import (
	"context"

	"github.com/cristianortiz/auctionhouse/internal/notification/domain"
	"github.com/google/uuid"
)

// NotificationService exposes the notification inbox to the infra layer.
type NotificationService interface {
	List(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) (*domain.Notification, error)
}

type notificationService struct {
	store domain.Store
}

func NewNotificationService(store domain.Store) NotificationService {
	return &notificationService{store: store}
}

func (s *notificationService) List(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error) {
	return s.store.List(ctx, userID)
}

func (s *notificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) (*domain.Notification, error) {
	return s.store.MarkRead(ctx, userID, id)
}
