// Package notify records the admin notification feed and lets callers
// suppress it for a set of entity types within one context.
package notify

import (
	"context"
	"log/slog"

	"go-storefront-admin/internal/database"
	"go-storefront-admin/internal/event"
	"go-storefront-admin/internal/model"
	"go-storefront-admin/internal/repository"
)

type Notifier struct {
	repo      *repository.NotificationRepository
	bus       event.Bus
	templates map[string]Template
	logger    *slog.Logger
}

func New(repo *repository.NotificationRepository, bus event.Bus, templates map[string]Template, logger *slog.Logger) *Notifier {
	if templates == nil {
		templates = DefaultTemplates()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{repo: repo, bus: bus, templates: templates, logger: logger}
}

// Notify records the feed message for a mutation inside q and publishes it
// once the surrounding transaction commits. It returns nil without writing
// when the type is muted in ctx or has no message for the action.
func (n *Notifier) Notify(ctx context.Context, q database.Querier, entityType, entityID, action string, data model.RecordData) error {
	if n == nil {
		return nil
	}
	if Muted(ctx, entityType) {
		n.logger.Debug("notification suppressed", "entity_type", entityType, "entity_id", entityID, "action", action)
		return nil
	}

	tmpl, ok := n.templates[entityType]
	if !ok {
		return nil
	}
	message := tmpl(action, data)
	if message == "" {
		return nil
	}

	note := &model.Notification{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Message:    message,
	}
	if err := n.repo.Create(ctx, q, note); err != nil {
		return err
	}

	if n.bus != nil {
		published := *note
		database.AfterCommit(ctx, func() {
			n.bus.Publish(event.Event{Type: event.TypeNotification, Payload: published})
		})
	}
	return nil
}

func (n *Notifier) Latest(ctx context.Context, q database.Querier, limit int) ([]model.Notification, error) {
	return n.repo.Latest(ctx, q, limit)
}
