package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"go-storefront-admin/internal/database"
	"go-storefront-admin/internal/model"
)

const trashColumns = `id, table_name, record_id, record_data, deleted_at,
	deleted_by, deleted_reason, status, parent_id`

// trashTreeCTE selects an entry and all of its trash-tree descendants.
const trashTreeCTE = `WITH RECURSIVE tree(id) AS (
	SELECT id FROM trash_entries WHERE id = ?
	UNION ALL
	SELECT t.id FROM trash_entries t JOIN tree ON t.parent_id = tree.id
)`

// TrashRepository persists trash entries. Every method runs on the
// querier it is given so callers control the transaction boundary.
type TrashRepository struct {
	now func() time.Time
}

func NewTrashRepository() *TrashRepository {
	return &TrashRepository{now: func() time.Time { return time.Now().UTC() }}
}

func (r *TrashRepository) Create(ctx context.Context, q database.Querier, entry *model.TrashEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.DeletedAt.IsZero() {
		entry.DeletedAt = r.now()
	}
	if entry.Status == "" {
		entry.Status = model.TrashVisible
	}
	if entry.RecordData == nil {
		entry.RecordData = model.RecordData{}
	}

	_, err := q.ExecContext(ctx, q.Rebind(
		`INSERT INTO trash_entries
		 (id, table_name, record_id, record_data, deleted_at, deleted_by, deleted_reason, status, parent_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		entry.ID, entry.TableName, entry.RecordID, entry.RecordData, entry.DeletedAt,
		entry.DeletedBy, entry.DeletedReason, string(entry.Status), entry.ParentID)
	if err != nil {
		return fmt.Errorf("create trash entry: %w", err)
	}
	return nil
}

func (r *TrashRepository) FindByID(ctx context.Context, q database.Querier, id string) (model.TrashEntry, error) {
	var entry model.TrashEntry
	err := sqlx.GetContext(ctx, q, &entry, q.Rebind(
		`SELECT `+trashColumns+` FROM trash_entries WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.TrashEntry{}, model.ErrTrashItemNotFound
	}
	if err != nil {
		return model.TrashEntry{}, fmt.Errorf("find trash by id: %w", err)
	}
	return entry, nil
}

// FindByIDs returns the entries that exist among ids, in no particular order.
func (r *TrashRepository) FindByIDs(ctx context.Context, q database.Querier, ids []string) ([]model.TrashEntry, error) {
	return r.selectIn(ctx, q, `SELECT `+trashColumns+` FROM trash_entries WHERE id IN (?)`, ids)
}

// LockEntries loads the entries a restore is about to consume, locking the
// rows on PostgreSQL. It fails with ErrTrashEntryConsumed when any of them
// is gone.
func (r *TrashRepository) LockEntries(ctx context.Context, q database.Querier, ids []string) ([]model.TrashEntry, error) {
	query := `SELECT ` + trashColumns + ` FROM trash_entries WHERE id IN (?)`
	if database.IsPostgres(q) {
		query += ` FOR UPDATE`
	}

	entries, err := r.selectIn(ctx, q, query, ids)
	if err != nil {
		return nil, err
	}

	found := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		found[e.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return nil, fmt.Errorf("%w: %s", model.ErrTrashEntryConsumed, id)
		}
	}
	return entries, nil
}

func (r *TrashRepository) selectIn(ctx context.Context, q database.Querier, query string, ids []string) ([]model.TrashEntry, error) {
	if len(ids) == 0 {
		return []model.TrashEntry{}, nil
	}

	query, args, err := sqlx.In(query, ids)
	if err != nil {
		return nil, fmt.Errorf("build trash query: %w", err)
	}

	entries := make([]model.TrashEntry, 0, len(ids))
	if err := sqlx.SelectContext(ctx, q, &entries, q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select trash entries: %w", err)
	}
	return entries, nil
}

// FindByRecord returns the most recently deleted live-restorable entry for a
// captured record. Ties on deleted_at resolve to the lowest id.
func (r *TrashRepository) FindByRecord(ctx context.Context, q database.Querier, table string, recordID string) (model.TrashEntry, error) {
	entries := make([]model.TrashEntry, 0, 1)
	err := sqlx.SelectContext(ctx, q, &entries, q.Rebind(
		`SELECT `+trashColumns+` FROM trash_entries
		 WHERE table_name = ? AND record_id = ? AND status <> ?`),
		table, recordID, string(model.TrashPermanent))
	if err != nil {
		return model.TrashEntry{}, fmt.Errorf("find trash by record: %w", err)
	}
	if len(entries) == 0 {
		return model.TrashEntry{}, model.ErrTrashItemNotFound
	}
	SortNewestFirst(entries)
	return entries[0], nil
}

// List returns entries newest first. PERMANENT entries are only returned
// when the filter asks for them explicitly.
func (r *TrashRepository) List(ctx context.Context, q database.Querier, filter model.TrashFilter) ([]model.TrashEntry, error) {
	query := `SELECT ` + trashColumns + ` FROM trash_entries WHERE 1 = 1`
	args := make([]any, 0, 2)

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	} else {
		query += ` AND status <> ?`
		args = append(args, string(model.TrashPermanent))
	}
	if filter.Table != "" {
		query += ` AND table_name = ?`
		args = append(args, filter.Table)
	}

	entries := make([]model.TrashEntry, 0)
	if err := sqlx.SelectContext(ctx, q, &entries, q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list trash: %w", err)
	}
	SortNewestFirst(entries)
	return entries, nil
}

func (r *TrashRepository) Children(ctx context.Context, q database.Querier, parentID string) ([]model.TrashEntry, error) {
	entries := make([]model.TrashEntry, 0)
	err := sqlx.SelectContext(ctx, q, &entries, q.Rebind(
		`SELECT `+trashColumns+` FROM trash_entries WHERE parent_id = ? ORDER BY id`), parentID)
	if err != nil {
		return nil, fmt.Errorf("list trash children: %w", err)
	}
	return entries, nil
}

// TreeIDs returns id and the ids of all its trash-tree descendants.
func (r *TrashRepository) TreeIDs(ctx context.Context, q database.Querier, id string) ([]string, error) {
	ids := make([]string, 0)
	if err := sqlx.SelectContext(ctx, q, &ids, q.Rebind(trashTreeCTE+` SELECT id FROM tree`), id); err != nil {
		return nil, fmt.Errorf("walk trash tree: %w", err)
	}
	if len(ids) == 0 {
		return nil, model.ErrTrashItemNotFound
	}
	return ids, nil
}

// SetStatusTree applies status to an entry and its descendants. Retiring is
// one-way: a VISIBLE or HIDDEN toggle leaves PERMANENT descendants alone.
func (r *TrashRepository) SetStatusTree(ctx context.Context, q database.Querier, id string, status model.TrashStatus) (int64, error) {
	query := trashTreeCTE + `
		UPDATE trash_entries SET status = ? WHERE id IN (SELECT id FROM tree)`
	if status != model.TrashPermanent {
		query += ` AND status <> '` + string(model.TrashPermanent) + `'`
	}

	res, err := q.ExecContext(ctx, q.Rebind(query), id, string(status))
	if err != nil {
		return 0, fmt.Errorf("update trash status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return 0, model.ErrTrashItemNotFound
	}
	return n, nil
}

// DeleteTree removes an entry and its descendants from the trash store.
func (r *TrashRepository) DeleteTree(ctx context.Context, q database.Querier, id string) (int64, error) {
	res, err := q.ExecContext(ctx, q.Rebind(trashTreeCTE+`
		DELETE FROM trash_entries WHERE id IN (SELECT id FROM tree)`), id)
	if err != nil {
		return 0, fmt.Errorf("delete trash tree: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return 0, model.ErrTrashItemNotFound
	}
	return n, nil
}

// Delete removes a single consumed entry. Trash-tree children still present
// were not part of the restore, so they are detached into roots of their own
// first; the parent_id cascade would otherwise drop them with the parent.
func (r *TrashRepository) Delete(ctx context.Context, q database.Querier, id string) (int64, error) {
	if _, err := q.ExecContext(ctx, q.Rebind(`UPDATE trash_entries SET parent_id = NULL WHERE parent_id = ?`), id); err != nil {
		return 0, fmt.Errorf("detach trash children: %w", err)
	}

	res, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM trash_entries WHERE id = ?`), id)
	if err != nil {
		return 0, fmt.Errorf("delete trash entry: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// PurgePermanent deletes PERMANENT entries deleted before cutoff and
// returns how many rows were removed.
func (r *TrashRepository) PurgePermanent(ctx context.Context, q database.Querier, cutoff time.Time) (int, error) {
	candidates, err := r.List(ctx, q, model.TrashFilter{Status: model.TrashPermanent})
	if err != nil {
		return 0, err
	}

	ids := make([]string, 0, len(candidates))
	for _, e := range candidates {
		if e.DeletedAt.Before(cutoff) {
			ids = append(ids, e.ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In(`DELETE FROM trash_entries WHERE id IN (?)`, ids)
	if err != nil {
		return 0, fmt.Errorf("build purge query: %w", err)
	}
	res, err := q.ExecContext(ctx, q.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("purge permanent trash: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// SortNewestFirst orders entries by deleted_at descending, then id.
func SortNewestFirst(entries []model.TrashEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].DeletedAt.Equal(entries[j].DeletedAt) {
			return entries[i].DeletedAt.After(entries[j].DeletedAt)
		}
		return entries[i].ID < entries[j].ID
	})
}
