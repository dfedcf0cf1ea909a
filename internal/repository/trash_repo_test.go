package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-storefront-admin/internal/database/dbtest"
	"go-storefront-admin/internal/model"
	"go-storefront-admin/internal/repository"
)

func newEntry(table, id string, deletedAt time.Time, parent *model.TrashEntry) *model.TrashEntry {
	e := &model.TrashEntry{
		TableName:  table,
		RecordID:   id,
		RecordData: model.RecordData{"id": id},
		DeletedAt:  deletedAt,
	}
	if parent != nil {
		parentID := parent.ID
		e.ParentID = &parentID
	}
	return e
}

func TestTrashRepository_VisibilityAppliesToTree(t *testing.T) {
	db := dbtest.Open(t)
	repo := repository.NewTrashRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	root := newEntry("Cart", "c1", now, nil)
	require.NoError(t, repo.Create(ctx, db, root))
	child := newEntry("CartItem", "i1", now, root)
	require.NoError(t, repo.Create(ctx, db, child))
	other := newEntry("Cart", "c2", now, nil)
	require.NoError(t, repo.Create(ctx, db, other))

	n, err := repo.SetStatusTree(ctx, db, root.ID, model.TrashHidden)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	hidden, err := repo.List(ctx, db, model.TrashFilter{Status: model.TrashHidden})
	require.NoError(t, err)
	assert.Len(t, hidden, 2)

	got, err := repo.FindByID(ctx, db, other.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TrashVisible, got.Status)

	_, err = repo.SetStatusTree(ctx, db, "missing", model.TrashHidden)
	assert.ErrorIs(t, err, model.ErrTrashItemNotFound)
}

func TestTrashRepository_PermanentIsHiddenFromListing(t *testing.T) {
	db := dbtest.Open(t)
	repo := repository.NewTrashRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	entry := newEntry("Product", "p1", now, nil)
	require.NoError(t, repo.Create(ctx, db, entry))
	_, err := repo.SetStatusTree(ctx, db, entry.ID, model.TrashPermanent)
	require.NoError(t, err)

	listed, err := repo.List(ctx, db, model.TrashFilter{})
	require.NoError(t, err)
	assert.Empty(t, listed)

	_, err = repo.FindByRecord(ctx, db, "Product", "p1")
	assert.ErrorIs(t, err, model.ErrTrashItemNotFound)

	permanent, err := repo.List(ctx, db, model.TrashFilter{Status: model.TrashPermanent})
	require.NoError(t, err)
	assert.Len(t, permanent, 1)
}

func TestTrashRepository_DeleteTreeCascades(t *testing.T) {
	db := dbtest.Open(t)
	repo := repository.NewTrashRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	root := newEntry("Product", "p1", now, nil)
	require.NoError(t, repo.Create(ctx, db, root))
	variant := newEntry("ProductVariant", "v1", now, root)
	require.NoError(t, repo.Create(ctx, db, variant))
	combo := newEntry("VariantCombination", "k1", now, variant)
	require.NoError(t, repo.Create(ctx, db, combo))

	ids, err := repo.TreeIDs(ctx, db, root.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{root.ID, variant.ID, combo.ID}, ids)

	children, err := repo.Children(ctx, db, root.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, variant.ID, children[0].ID)

	n, err := repo.DeleteTree(ctx, db, root.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = repo.FindByID(ctx, db, combo.ID)
	assert.ErrorIs(t, err, model.ErrTrashItemNotFound)
	_, err = repo.DeleteTree(ctx, db, root.ID)
	assert.ErrorIs(t, err, model.ErrTrashItemNotFound)
}

func TestTrashRepository_ListAndFindByRecordOrdering(t *testing.T) {
	db := dbtest.Open(t)
	repo := repository.NewTrashRepository()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	older := newEntry("Cart", "c1", base, nil)
	require.NoError(t, repo.Create(ctx, db, older))
	newer := newEntry("Cart", "c1", base.Add(time.Minute), nil)
	require.NoError(t, repo.Create(ctx, db, newer))
	product := newEntry("Product", "p1", base.Add(30*time.Second), nil)
	require.NoError(t, repo.Create(ctx, db, product))

	listed, err := repo.List(ctx, db, model.TrashFilter{})
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, []string{newer.ID, product.ID, older.ID}, []string{listed[0].ID, listed[1].ID, listed[2].ID})

	carts, err := repo.List(ctx, db, model.TrashFilter{Table: "Cart"})
	require.NoError(t, err)
	assert.Len(t, carts, 2)

	found, err := repo.FindByRecord(ctx, db, "Cart", "c1")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, found.ID)
	assert.True(t, found.DeletedAt.Equal(newer.DeletedAt))
}

func TestTrashRepository_LockEntriesDetectsConsumed(t *testing.T) {
	db := dbtest.Open(t)
	repo := repository.NewTrashRepository()
	ctx := context.Background()

	entry := newEntry("Cart", "c1", time.Now().UTC(), nil)
	require.NoError(t, repo.Create(ctx, db, entry))

	locked, err := repo.LockEntries(ctx, db, []string{entry.ID})
	require.NoError(t, err)
	assert.Len(t, locked, 1)

	n, err := repo.Delete(ctx, db, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.LockEntries(ctx, db, []string{entry.ID})
	assert.ErrorIs(t, err, model.ErrTrashEntryConsumed)
}

func TestTrashRepository_PurgePermanentBeforeCutoff(t *testing.T) {
	db := dbtest.Open(t)
	repo := repository.NewTrashRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	old := newEntry("Cart", "c1", now.Add(-48*time.Hour), nil)
	old.Status = model.TrashPermanent
	require.NoError(t, repo.Create(ctx, db, old))
	fresh := newEntry("Cart", "c2", now, nil)
	fresh.Status = model.TrashPermanent
	require.NoError(t, repo.Create(ctx, db, fresh))
	visible := newEntry("Cart", "c3", now.Add(-48*time.Hour), nil)
	require.NoError(t, repo.Create(ctx, db, visible))

	n, err := repo.PurgePermanent(ctx, db, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = repo.FindByID(ctx, db, old.ID)
	assert.ErrorIs(t, err, model.ErrTrashItemNotFound)
	_, err = repo.FindByID(ctx, db, fresh.ID)
	assert.NoError(t, err)
	_, err = repo.FindByID(ctx, db, visible.ID)
	assert.NoError(t, err)
}

func TestNotificationRepository_Latest(t *testing.T) {
	db := dbtest.Open(t)
	repo := repository.NewNotificationRepository()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"p1", "p2", "p3"} {
		require.NoError(t, repo.Create(ctx, db, &model.Notification{
			EntityType: "Product", EntityID: id, Action: model.ActionCreated,
			Message: "created " + id, CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	latest, err := repo.Latest(ctx, db, 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "p3", latest[0].EntityID)

	n, err := repo.CountFor(ctx, db, "Product")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestAuditRepository_LogAndQuery(t *testing.T) {
	db := dbtest.Open(t)
	repo := repository.NewAuditRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Log(ctx, model.AuditEntry{
		Action: "trash.restore", Status: "success", Resource: "Product:p1",
		Actor: model.AuditActor{UserID: "u1", Role: "admin"},
		After: map[string]any{"restored_count": 2},
	}))
	require.NoError(t, repo.Log(ctx, model.AuditEntry{
		Action: "trash.purge", Status: "failed", Resource: "Cart:c1", Error: "not found",
		Actor: model.AuditActor{UserID: "u2", Role: "editor"},
	}))

	items, meta, err := repo.Query(ctx, model.AuditQuery{Action: "TRASH.RESTORE"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, meta.Total)
	assert.Equal(t, "u1", items[0].Actor.UserID)
	assert.NotEmpty(t, items[0].OccurredAt)

	items, meta, err = repo.Query(ctx, model.AuditQuery{Resource: "cart", Limit: 10})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "not found", items[0].Error)
	assert.Equal(t, 1, meta.TotalPages)
}

func TestTrashRepository_VisibilityToggleKeepsRetiredDescendants(t *testing.T) {
	db := dbtest.Open(t)
	repo := repository.NewTrashRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	root := newEntry("Product", "p1", now, nil)
	require.NoError(t, repo.Create(ctx, db, root))
	child := newEntry("ProductSEO", "seo1", now, root)
	require.NoError(t, repo.Create(ctx, db, child))

	_, err := repo.SetStatusTree(ctx, db, child.ID, model.TrashPermanent)
	require.NoError(t, err)

	for _, status := range []model.TrashStatus{model.TrashHidden, model.TrashVisible} {
		n, err := repo.SetStatusTree(ctx, db, root.ID, status)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		got, err := repo.FindByID(ctx, db, child.ID)
		require.NoError(t, err)
		assert.Equal(t, model.TrashPermanent, got.Status)
	}

	n, err := repo.SetStatusTree(ctx, db, root.ID, model.TrashPermanent)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestTrashRepository_DeleteDetachesRemainingChildren(t *testing.T) {
	db := dbtest.Open(t)
	repo := repository.NewTrashRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	root := newEntry("Product", "p1", now, nil)
	require.NoError(t, repo.Create(ctx, db, root))
	consumed := newEntry("ProductVariant", "v1", now, root)
	require.NoError(t, repo.Create(ctx, db, consumed))
	left := newEntry("ProductSEO", "seo1", now, root)
	require.NoError(t, repo.Create(ctx, db, left))

	n, err := repo.Delete(ctx, db, consumed.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = repo.Delete(ctx, db, root.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.FindByID(ctx, db, left.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ParentID)
	assert.Equal(t, "seo1", got.RecordID)

	_, err = repo.FindByID(ctx, db, root.ID)
	assert.ErrorIs(t, err, model.ErrTrashItemNotFound)
}
