package service

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/vls-lab/ctf-server/internal/errs"
	"github.com/vls-lab/ctf-server/internal/model"
	"github.com/vls-lab/ctf-server/internal/repository"
)

const defaultNotificationLimit = 50

// NotificationService reads and updates a user's in-app notifications.
type NotificationService interface {
	// List returns the newest notifications for the user.
	List(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error)
	// MarkRead marks one of the user's notifications as read.
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
}

type NotificationServiceImpl struct {
	repo repository.NotificationRepository
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(repo repository.NotificationRepository) *NotificationServiceImpl {
	return &NotificationServiceImpl{repo: repo}
}

// List returns the user's notifications, newest first.
func (s *NotificationServiceImpl) List(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty user id", errs.ErrInvalidInput)
	}
	if limit <= 0 || limit > defaultNotificationLimit {
		limit = defaultNotificationLimit
	}
	return s.repo.ListByUser(ctx, userID, limit)
}

// MarkRead marks a notification as read; only the owner may do so.
func (s *NotificationServiceImpl) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	if userID == uuid.Nil || id == uuid.Nil {
		return fmt.Errorf("%w: empty id", errs.ErrInvalidInput)
	}
	return s.repo.MarkRead(ctx, userID, id)
}
