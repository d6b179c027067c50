package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/vls-lab/ctf-server/internal/model"
)

// NotificationRepository stores in-app notifications (solve confirmations).
type NotificationRepository interface {
	// Create inserts a notification.
	Create(ctx context.Context, n *model.Notification) error
	// ListByUser returns the newest notifications for a user.
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error)
	// MarkRead marks one of the user's notifications as read.
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
}
