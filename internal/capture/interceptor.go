package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go-storefront-admin/internal/catalog"
	"go-storefront-admin/internal/database"
	"go-storefront-admin/internal/model"
	"go-storefront-admin/internal/notify"
	"go-storefront-admin/internal/repository"
	"go-storefront-admin/internal/rules"
)

// Meta describes who deleted a row and why.
type Meta struct {
	Actor  string
	Reason string
}

type Option func(*Interceptor)

// WithCaptureHook runs fn for each trash entry written.
func WithCaptureHook(fn func(entityType string)) Option {
	return func(i *Interceptor) { i.onCapture = fn }
}

// Interceptor is the persistence-layer delete path. Every row it removes
// is captured into the trash store in the caller's transaction.
type Interceptor struct {
	entities  *catalog.Registry
	rules     *rules.Table
	registry  *Registry
	trash     *repository.TrashRepository
	notifier  *notify.Notifier
	logger    *slog.Logger
	onCapture func(entityType string)
}

func NewInterceptor(
	entities *catalog.Registry,
	ruleTable *rules.Table,
	registry *Registry,
	trash *repository.TrashRepository,
	notifier *notify.Notifier,
	logger *slog.Logger,
	opts ...Option,
) *Interceptor {
	if logger == nil {
		logger = slog.Default()
	}
	i := &Interceptor{
		entities: entities,
		rules:    ruleTable,
		registry: registry,
		trash:    trash,
		notifier: notifier,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

type deletion struct {
	meta     Meta
	visited  map[string]bool
	captured []model.TrashEntry
}

// Delete removes one row and everything that cascades from it. Rows are
// snapshotted parent first so cascaded children can link to the parent's
// entry, then deleted children first.
func (i *Interceptor) Delete(ctx context.Context, q database.Querier, entityType string, id string, meta Meta) ([]model.TrashEntry, error) {
	if !i.registry.Covers(entityType) {
		return nil, fmt.Errorf("%w: %s", model.ErrUnknownEntityType, entityType)
	}

	d := &deletion{meta: meta, visited: map[string]bool{}}
	if err := i.deleteRow(ctx, q, d, entityType, id, nil); err != nil {
		return nil, err
	}
	return d.captured, nil
}

func (i *Interceptor) deleteRow(ctx context.Context, q database.Querier, d *deletion, entityType, key string, parent *model.TrashEntry) error {
	nodeKey := entityType + ":" + key
	if d.visited[nodeKey] {
		return nil
	}
	d.visited[nodeKey] = true

	table, err := i.entities.Table(entityType)
	if err != nil {
		return err
	}
	entity := table.Entity()

	row, err := table.Get(ctx, q, key)
	if err != nil {
		if parent != nil && errors.Is(err, model.ErrEntityNotFound) {
			return nil
		}
		return err
	}

	entry := model.TrashEntry{
		TableName:     entityType,
		RecordID:      key,
		RecordData:    i.registry.Serialize(entity, key, row),
		DeletedReason: d.meta.Reason,
	}
	if d.meta.Actor != "" {
		actor := d.meta.Actor
		entry.DeletedBy = &actor
	}
	if parent == nil {
		if entry.DeletedReason == "" {
			entry.DeletedReason = entityType + " deleted"
		}
	} else {
		entry.DeletedReason = fmt.Sprintf("%s deleted (cascade from %s)", entityType, parent.Key())
		if i.rules.Lookup(parent.TableName).Includes(entityType) {
			parentID := parent.ID
			entry.ParentID = &parentID
		}
	}

	if err := i.trash.Create(ctx, q, &entry); err != nil {
		return fmt.Errorf("capture %s: %w", nodeKey, err)
	}

	for _, ref := range i.entities.Referencing(entityType) {
		child, err := i.entities.Table(ref.Entity.Name)
		if err != nil {
			return err
		}

		switch ref.ForeignKey.OnDelete {
		case catalog.SetNull:
			if _, err := child.NullifyWhere(ctx, q, ref.ForeignKey.Column, key); err != nil {
				return err
			}
		case catalog.Cascade:
			keys, err := child.KeysWhere(ctx, q, ref.ForeignKey.Column, key)
			if err != nil {
				return err
			}
			for _, childKey := range keys {
				if err := i.deleteRow(ctx, q, d, ref.Entity.Name, childKey, &entry); err != nil {
					return err
				}
			}
		}
	}

	if err := table.Delete(ctx, q, key); err != nil {
		return err
	}

	d.captured = append(d.captured, entry)
	if i.onCapture != nil {
		i.onCapture(entityType)
	}

	return i.notifier.Notify(ctx, q, entityType, key, model.ActionDeleted, entry.RecordData)
}
