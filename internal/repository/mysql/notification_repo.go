package mysql

import (
	"context"
	"database/sql"
	"time"

	"social-backend/internal/model"
	"social-backend/internal/repository/interfaces"
)

type notificationRepository struct {
	db *sql.DB
}

// NewNotificationRepository 创建通知存储
func NewNotificationRepository(db *sql.DB) interfaces.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	now := time.Now().UTC()
	id := newID()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (id, from_user_id, to_user_id, type, is_read, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, n.FromID, n.To, string(n.Type), n.Read, now)
	if err != nil {
		return err
	}
	n.ID = id
	n.CreatedAt = now
	return nil
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, userID string) ([]*model.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, from_user_id, to_user_id, type, is_read, created_at
		FROM notifications WHERE to_user_id = ? ORDER BY created_at DESC, seq DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Notification{}
	for rows.Next() {
		var n model.Notification
		var kind string
		if err := rows.Scan(&n.ID, &n.FromID, &n.To, &kind, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Type = model.NotificationType(kind)
		out = append(out, &n)
	}
	return out, rows.Err()
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE to_user_id = ?`, userID)
	return err
}

func (r *notificationRepository) DeleteByRecipient(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE to_user_id = ?`, userID)
	return err
}
