package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"go-storefront-admin/internal/database"
	"go-storefront-admin/internal/event"
	"go-storefront-admin/internal/metrics"
	"go-storefront-admin/internal/model"
	"go-storefront-admin/internal/repository"
	"go-storefront-admin/internal/restore"
	"go-storefront-admin/internal/telemetry"
)

// TrashService runs every trash operation in its own transaction.
type TrashService struct {
	db       *database.DB
	trash    *repository.TrashRepository
	resolver *restore.Resolver
	restorer *restore.Restorer
	audit    *AuditService
	bus      event.Bus
	tracer   trace.Tracer
	logger   *slog.Logger
}

func NewTrashService(
	db *database.DB,
	trash *repository.TrashRepository,
	resolver *restore.Resolver,
	restorer *restore.Restorer,
	audit *AuditService,
	bus event.Bus,
	logger *slog.Logger,
) *TrashService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TrashService{
		db:       db,
		trash:    trash,
		resolver: resolver,
		restorer: restorer,
		audit:    audit,
		bus:      bus,
		tracer:   telemetry.Tracer("go-storefront-admin/trash"),
		logger:   logger,
	}
}

func (s *TrashService) span(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *TrashService) publish(t event.Type, actor model.AuditActor, payload any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(event.Event{Type: t, Payload: payload, ActorID: actor.UserID})
}

// List returns the restorable entries with their blockers and co-restore
// hints.
func (s *TrashService) List(ctx context.Context, filter model.TrashFilter) (items []model.TrashItem, err error) {
	ctx, span := s.span(ctx, "trash.list",
		attribute.String("trash.status", string(filter.Status)), attribute.String("trash.table", filter.Table))
	defer func() { endSpan(span, err) }()

	return s.resolver.Annotate(ctx, s.db, filter)
}

// Restore resolves the closure of the request and rebuilds it atomically.
func (s *TrashService) Restore(ctx context.Context, req model.RestoreRequest, actor model.AuditActor) (result model.RestoreResult, err error) {
	ctx, span := s.span(ctx, "trash.restore",
		attribute.Int("trash.ids", len(req.IDs)), attribute.Int("trash.records", len(req.RecordIDs)))
	defer func() { endSpan(span, err) }()

	if err := req.Validate(); err != nil {
		return model.RestoreResult{}, err
	}

	target := restore.Target{IDs: req.IDs, Records: req.RecordIDs}
	started := time.Now()
	err = s.db.WithTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		var txErr error
		result, txErr = s.restorer.Restore(ctx, tx, target)
		return txErr
	})

	var blocked *restore.BlockedError
	switch {
	case err == nil:
		metrics.ObserveRestore(metrics.ResultSuccess, time.Since(started))
	case errors.As(err, &blocked):
		metrics.ObserveRestore(metrics.ResultBlocked, time.Since(started))
	default:
		metrics.ObserveRestore(metrics.ResultFailed, time.Since(started))
	}

	resource := restoreResource(req)
	s.audit.Record(ctx, "trash.restore", actor, resource, result, err)
	if err != nil {
		s.logger.Info("restore refused", "targets", resource, "error", err)
		return model.RestoreResult{}, err
	}

	for _, key := range result.Restored {
		table, _, _ := strings.Cut(key, ":")
		metrics.Restored(table)
	}
	span.SetAttributes(attribute.Int("trash.restored", result.RestoredCount), attribute.Bool("trash.cyclic", result.Cyclic))
	s.publish(event.TypeTrashRestored, actor, result)
	return result, nil
}

func restoreResource(req model.RestoreRequest) string {
	parts := make([]string, 0, len(req.IDs)+len(req.RecordIDs))
	parts = append(parts, req.IDs...)
	for _, ref := range req.RecordIDs {
		parts = append(parts, ref.Table+":"+ref.ID)
	}
	return strings.Join(parts, ",")
}

// SetVisibility applies VISIBLE or HIDDEN to an entry and its trash-tree
// descendants and returns how many entries changed.
func (s *TrashService) SetVisibility(ctx context.Context, req model.VisibilityRequest, actor model.AuditActor) (updated int64, err error) {
	ctx, span := s.span(ctx, "trash.visibility", attribute.String("trash.id", req.ID))
	defer func() { endSpan(span, err) }()

	if err := req.Validate(); err != nil {
		return 0, err
	}
	status, err := req.Target()
	if err != nil {
		return 0, err
	}

	err = s.db.WithTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		entry, err := s.trash.FindByID(ctx, tx, req.ID)
		if err != nil {
			return err
		}
		if entry.Status == model.TrashPermanent {
			return model.ErrTrashItemNotFound
		}
		updated, err = s.trash.SetStatusTree(ctx, tx, req.ID, status)
		return err
	})

	s.audit.Record(ctx, "trash.visibility", actor, req.ID, map[string]any{"status": status, "updated": updated}, err)
	if err != nil {
		return 0, err
	}
	s.publish(event.TypeTrashVisibility, actor, map[string]any{"id": req.ID, "status": status, "updated": updated})
	return updated, nil
}

// Purge removes an entry and its trash-tree descendants for good.
func (s *TrashService) Purge(ctx context.Context, req model.TrashIDRequest, actor model.AuditActor) (deleted int64, err error) {
	ctx, span := s.span(ctx, "trash.purge", attribute.String("trash.id", req.ID))
	defer func() { endSpan(span, err) }()

	if err := req.Validate(); err != nil {
		return 0, err
	}

	err = s.db.WithTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		var txErr error
		deleted, txErr = s.trash.DeleteTree(ctx, tx, req.ID)
		return txErr
	})

	s.audit.Record(ctx, "trash.purge", actor, req.ID, map[string]any{"deleted": deleted}, err)
	if err != nil {
		return 0, err
	}
	metrics.Purged("purge", int(deleted))
	s.publish(event.TypeTrashPurged, actor, map[string]any{"id": req.ID, "deleted": deleted})
	return deleted, nil
}

// Retire marks an entry tree PERMANENT. Retired entries stay for audit,
// leave the listing and never take part in a restore.
func (s *TrashService) Retire(ctx context.Context, req model.TrashIDRequest, actor model.AuditActor) (updated int64, err error) {
	ctx, span := s.span(ctx, "trash.retire", attribute.String("trash.id", req.ID))
	defer func() { endSpan(span, err) }()

	if err := req.Validate(); err != nil {
		return 0, err
	}

	err = s.db.WithTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		var txErr error
		updated, txErr = s.trash.SetStatusTree(ctx, tx, req.ID, model.TrashPermanent)
		return txErr
	})

	s.audit.Record(ctx, "trash.retire", actor, req.ID, map[string]any{"updated": updated}, err)
	if err != nil {
		return 0, err
	}
	s.publish(event.TypeTrashRetired, actor, map[string]any{"id": req.ID, "updated": updated})
	return updated, nil
}

// Sweep physically removes PERMANENT entries older than the requested age.
func (s *TrashService) Sweep(ctx context.Context, req model.SweepRequest, actor model.AuditActor) (result model.SweepResult, err error) {
	ctx, span := s.span(ctx, "trash.sweep", attribute.String("trash.older_than", req.OlderThan))
	defer func() { endSpan(span, err) }()

	if err := req.Validate(); err != nil {
		return model.SweepResult{}, err
	}
	age, _ := req.Age()
	result.Cutoff = time.Now().UTC().Add(-age)

	err = s.db.WithTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		var txErr error
		result.Purged, txErr = s.trash.PurgePermanent(ctx, tx, result.Cutoff)
		return txErr
	})

	s.audit.Record(ctx, "trash.sweep", actor, req.OlderThan, result, err)
	if err != nil {
		return model.SweepResult{}, err
	}
	metrics.Purged("sweep", result.Purged)
	s.publish(event.TypeTrashSwept, actor, result)
	return result, nil
}
