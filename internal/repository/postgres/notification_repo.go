package postgres

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/vls-lab/ctf-server/internal/errs"
	"github.com/vls-lab/ctf-server/internal/model"
)

// NotificationRepo implements NotificationRepository using PostgreSQL.
type NotificationRepo struct{ db *DB }

// NewNotificationRepo constructs a notification repository.
func NewNotificationRepo(db *DB) *NotificationRepo { return &NotificationRepo{db: db} }

// Create inserts a notification row.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	const q = `
INSERT INTO notifications (id, user_id, message, read, source_id, source_type)
VALUES ($1, $2, $3, false, $4, $5)`
	_, err := r.db.Pool.Exec(ctx, q, n.ID, n.UserID, n.Message, n.SourceID, n.SourceType)
	return err
}

// ListByUser returns the newest notifications for a user.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error) {
	const q = `
SELECT id, user_id, message, read, source_id, source_type, created_at
FROM notifications
WHERE user_id=$1
ORDER BY created_at DESC
LIMIT $2`
	rows, err := r.db.Pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		if err = rows.Scan(&n.ID, &n.UserID, &n.Message, &n.Read, &n.SourceID, &n.SourceType, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead marks one of the user's notifications as read.
func (r *NotificationRepo) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	const q = `UPDATE notifications SET read=true WHERE id=$1 AND user_id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
