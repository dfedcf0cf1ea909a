package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"go-storefront-admin/internal/database"
	"go-storefront-admin/internal/model"
)

type NotificationRepository struct{}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{}
}

func (r *NotificationRepository) Create(ctx context.Context, q database.Querier, n *model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	_, err := q.ExecContext(ctx, q.Rebind(
		`INSERT INTO notifications (id, entity_type, entity_id, action, message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`),
		n.ID, n.EntityType, n.EntityID, n.Action, n.Message, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// Latest returns up to limit notifications, newest first.
func (r *NotificationRepository) Latest(ctx context.Context, q database.Querier, limit int) ([]model.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	out := make([]model.Notification, 0, limit)
	err := sqlx.SelectContext(ctx, q, &out, q.Rebind(
		`SELECT id, entity_type, entity_id, action, message, created_at
		 FROM notifications ORDER BY created_at DESC, id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

func (r *NotificationRepository) CountFor(ctx context.Context, q database.Querier, entityType string) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, q, &n, q.Rebind(
		`SELECT COUNT(*) FROM notifications WHERE entity_type = ?`), entityType); err != nil {
		return 0, fmt.Errorf("count notifications: %w", err)
	}
	return n, nil
}
