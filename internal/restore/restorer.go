package restore

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

// Target names the entries to restore, by trash id or by captured record.
type Target struct {
	IDs     []string
	Records []model.RecordRef
}

type Restorer struct {
	entities  *catalog.Registry
	rules     *rules.Table
	trash     *repository.TrashRepository
	resolver  *Resolver
	notifier  *notify.Notifier
	muteTypes []string
	logger    *slog.Logger
}

func NewRestorer(
	entities *catalog.Registry,
	ruleTable *rules.Table,
	trash *repository.TrashRepository,
	resolver *Resolver,
	notifier *notify.Notifier,
	muteTypes []string,
	logger *slog.Logger,
) *Restorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Restorer{
		entities:  entities,
		rules:     ruleTable,
		trash:     trash,
		resolver:  resolver,
		notifier:  notifier,
		muteTypes: muteTypes,
		logger:    logger,
	}
}

// Seeds resolves a target into trash entries. Unknown ids and records are
// skipped; PERMANENT entries are never restore targets.
func (r *Restorer) Seeds(ctx context.Context, q database.Querier, target Target) ([]model.TrashEntry, error) {
	seen := map[string]bool{}
	seeds := make([]model.TrashEntry, 0, len(target.IDs)+len(target.Records))

	if len(target.IDs) > 0 {
		found, err := r.trash.FindByIDs(ctx, q, target.IDs)
		if err != nil {
			return nil, err
		}
		byID := make(map[string]model.TrashEntry, len(found))
		for _, e := range found {
			byID[e.ID] = e
		}
		for _, id := range target.IDs {
			e, ok := byID[id]
			if !ok || e.Status == model.TrashPermanent || seen[e.ID] {
				continue
			}
			seen[e.ID] = true
			seeds = append(seeds, e)
		}
	}

	for _, ref := range target.Records {
		e, err := r.trash.FindByRecord(ctx, q, ref.Table, ref.ID)
		if errors.Is(err, model.ErrTrashItemNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !seen[e.ID] {
			seen[e.ID] = true
			seeds = append(seeds, e)
		}
	}

	if len(seeds) == 0 {
		return nil, model.ErrNoRestoreTargets
	}
	return seeds, nil
}

type parentLink struct {
	table  *catalog.Table
	key    string
	field  string
	parent string
}

// Restore rebuilds the closure of target inside q, which must be a
// transaction: a failed row leaves the caller to roll everything back.
func (r *Restorer) Restore(ctx context.Context, q database.Querier, target Target) (model.RestoreResult, error) {
	seeds, err := r.Seeds(ctx, q, target)
	if err != nil {
		return model.RestoreResult{}, err
	}

	closure, err := r.resolver.Closure(ctx, q, seeds)
	if err != nil {
		return model.RestoreResult{}, err
	}

	ids := make([]string, len(closure))
	for i, n := range closure {
		ids[i] = n.ID
	}
	if _, err := r.trash.LockEntries(ctx, q, ids); err != nil {
		return model.RestoreResult{}, err
	}

	ordered, cyclic := Order(r.rules, closure)
	if cyclic {
		r.logger.Warn("restore closure has a dependency cycle, using parent-count order", "size", len(ordered))
	}

	touched := make([]string, len(ordered))
	for i, n := range ordered {
		touched[i] = n.TableName
	}
	muted := notify.Sensitive(touched, r.muteTypes)
	ctx, release := notify.Mute(ctx, muted)
	defer release()

	// pass 1: upsert parents before children, holding back self references
	var pending []parentLink
	for _, n := range ordered {
		table, err := r.entities.Table(n.TableName)
		if err != nil {
			return model.RestoreResult{}, &ReconstructionError{Table: n.TableName, RecordID: n.RecordID, Err: err}
		}

		payload := make(map[string]any, len(n.RecordData))
		for k, v := range n.RecordData {
			payload[k] = v
		}
		for _, ref := range r.rules.SelfReferences(n.TableName) {
			parentKey := n.RecordData.String(ref.Field)
			if parentKey == "" {
				continue
			}
			pending = append(pending, parentLink{table: table, key: n.RecordID, field: ref.Field, parent: parentKey})
			delete(payload, ref.Field)
		}

		values, err := table.Entity().Coerce(payload)
		if err != nil {
			return model.RestoreResult{}, &ReconstructionError{Table: n.TableName, RecordID: n.RecordID, Err: err}
		}
		created, err := table.Upsert(ctx, q, values)
		if err != nil {
			return model.RestoreResult{}, &ReconstructionError{Table: n.TableName, RecordID: n.RecordID, Err: err}
		}

		action := model.ActionUpdated
		if created {
			action = model.ActionCreated
		}
		if err := r.notifier.Notify(ctx, q, n.TableName, n.RecordID, action, n.RecordData); err != nil {
			return model.RestoreResult{}, &ReconstructionError{Table: n.TableName, RecordID: n.RecordID, Err: err}
		}
	}

	// pass 2: every row exists now, link self references
	for _, link := range pending {
		if err := link.table.SetColumn(ctx, q, link.key, link.field, link.parent); err != nil {
			return model.RestoreResult{}, &ReconstructionError{
				Table:    link.table.Entity().Name,
				RecordID: link.key,
				Err:      fmt.Errorf("link %s -> %s: %w", link.field, link.parent, err),
			}
		}
	}

	// pass 3: consume trash entries children first; failures are not fatal
	for i := len(ordered) - 1; i >= 0; i-- {
		n := ordered[i]
		err := database.Savepoint(ctx, q, fmt.Sprintf("trash_cleanup_%d", i), func() error {
			_, err := r.trash.Delete(ctx, q, n.ID)
			return err
		})
		if err != nil {
			r.logger.Warn("failed to remove restored trash entry", "trash_id", n.ID, "record", n.Key(), "error", err)
		}
	}

	restored := make([]string, len(ordered))
	for i, n := range ordered {
		restored[i] = n.Key()
	}
	r.logger.Info("trash restored", "count", len(restored), "muted", muted, "cyclic", cyclic)

	return model.RestoreResult{
		Success:               true,
		Restored:              restored,
		RestoredCount:         len(restored),
		NotificationsMutedFor: muted,
		Cyclic:                cyclic,
	}, nil
}
