package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"

	"go-storefront-admin/internal/capture"
	"go-storefront-admin/internal/catalog"
	"go-storefront-admin/internal/database"
	"go-storefront-admin/internal/event"
	"go-storefront-admin/internal/model"
	"go-storefront-admin/internal/notify"
	"go-storefront-admin/internal/rules"
)

// EntityType describes one catalog entity for the admin frontend.
type EntityType struct {
	Name       string                `json:"name"`
	PrimaryKey string                `json:"primary_key"`
	Standalone bool                  `json:"standalone"`
	CoRestore  []model.CoRestoreHint `json:"will_restore_with"`
}

// EntityService is the thin CRUD boundary over the catalog. Deletes always
// go through the capture interceptor.
type EntityService struct {
	db          *database.DB
	entities    *catalog.Registry
	rules       *rules.Table
	interceptor *capture.Interceptor
	notifier    *notify.Notifier
	audit       *AuditService
	bus         event.Bus
	logger      *slog.Logger
}

func NewEntityService(
	db *database.DB,
	entities *catalog.Registry,
	ruleTable *rules.Table,
	interceptor *capture.Interceptor,
	notifier *notify.Notifier,
	audit *AuditService,
	bus event.Bus,
	logger *slog.Logger,
) *EntityService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EntityService{
		db:          db,
		entities:    entities,
		rules:       ruleTable,
		interceptor: interceptor,
		notifier:    notifier,
		audit:       audit,
		bus:         bus,
		logger:      logger,
	}
}

func (s *EntityService) Types() []EntityType {
	names := s.entities.Names()
	out := make([]EntityType, 0, len(names))
	for _, name := range names {
		entity, _ := s.entities.Lookup(name)
		rule := s.rules.Lookup(name)
		out = append(out, EntityType{
			Name:       name,
			PrimaryKey: entity.PrimaryKey,
			Standalone: rule.Standalone,
			CoRestore:  rule.Hints(),
		})
	}
	return out
}

// List returns up to limit live rows of one entity type.
func (s *EntityService) List(ctx context.Context, entityType string, limit int) ([]model.RecordData, error) {
	table, err := s.entities.Table(entityType)
	if err != nil {
		return nil, err
	}
	rows, err := table.List(ctx, s.db, limit)
	if err != nil {
		return nil, err
	}
	out := make([]model.RecordData, 0, len(rows))
	for _, row := range rows {
		data, err := table.Entity().Snapshot(row)
		if err != nil {
			s.logger.Warn("entity snapshot incomplete", "entity_type", entityType, "error", err)
		}
		out = append(out, data)
	}
	return out, nil
}

// Get returns the JSON-safe snapshot of a live row.
func (s *EntityService) Get(ctx context.Context, entityType, id string) (model.RecordData, error) {
	table, err := s.entities.Table(entityType)
	if err != nil {
		return nil, err
	}
	row, err := table.Get(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	data, err := table.Entity().Snapshot(row)
	if err != nil {
		s.logger.Warn("entity snapshot incomplete", "entity_type", entityType, "id", id, "error", err)
	}
	return data, nil
}

// Put creates or replaces the columns given in payload and reports whether
// the row was created.
func (s *EntityService) Put(ctx context.Context, entityType, id string, payload map[string]any, actor model.AuditActor) (data model.RecordData, created bool, err error) {
	table, err := s.entities.Table(entityType)
	if err != nil {
		return nil, false, err
	}
	entity := table.Entity()

	values := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		values[k] = v
	}
	if pk, ok := values[entity.PrimaryKey]; ok && fmt.Sprint(pk) != id {
		return nil, false, fmt.Errorf("%w: %s does not match the path id", model.ErrInvalidInput, entity.PrimaryKey)
	}
	values[entity.PrimaryKey] = id

	coerced, err := entity.Coerce(values)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s", model.ErrInvalidInput, err.Error())
	}

	err = s.db.WithTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		var txErr error
		created, txErr = table.Upsert(ctx, tx, coerced)
		if txErr != nil {
			return txErr
		}
		row, txErr := table.Get(ctx, tx, id)
		if txErr != nil {
			return txErr
		}
		data, _ = entity.Snapshot(row)

		action := model.ActionUpdated
		if created {
			action = model.ActionCreated
		}
		return s.notifier.Notify(ctx, tx, entityType, id, action, data)
	})

	s.audit.Record(ctx, "entity.put", actor, entityType+":"+id, data, err)
	if err != nil {
		return nil, false, err
	}
	return data, created, nil
}

// Delete removes a live row through the capture path and returns the trash
// entries written.
func (s *EntityService) Delete(ctx context.Context, entityType, id, reason string, actor model.AuditActor) (entries []model.TrashEntry, err error) {
	meta := capture.Meta{Actor: actor.UserID, Reason: strings.TrimSpace(reason)}

	err = s.db.WithTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		var txErr error
		entries, txErr = s.interceptor.Delete(ctx, tx, entityType, id, meta)
		return txErr
	})

	s.audit.Record(ctx, "entity.delete", actor, entityType+":"+id, map[string]any{"captured": len(entries)}, err)
	if err != nil {
		return nil, err
	}
	if s.bus != nil {
		s.bus.Publish(event.Event{Type: event.TypeTrashCaptured, Payload: entries, ActorID: actor.UserID})
	}
	return entries, nil
}
