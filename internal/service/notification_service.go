package service

import (
	"context"

	"go-storefront-admin/internal/database"
	"go-storefront-admin/internal/model"
	"go-storefront-admin/internal/notify"
)

type NotificationService struct {
	db       *database.DB
	notifier *notify.Notifier
}

func NewNotificationService(db *database.DB, notifier *notify.Notifier) *NotificationService {
	return &NotificationService{db: db, notifier: notifier}
}

// Latest returns the newest notifications first.
func (s *NotificationService) Latest(ctx context.Context, limit int) ([]model.Notification, error) {
	return s.notifier.Latest(ctx, s.db, limit)
}
