package capture

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-storefront-admin/internal/catalog"
	"go-storefront-admin/internal/database"
	"go-storefront-admin/internal/database/dbtest"
	"go-storefront-admin/internal/model"
	"go-storefront-admin/internal/notify"
	"go-storefront-admin/internal/repository"
	"go-storefront-admin/internal/rules"
)

type fixture struct {
	db       *database.DB
	trash    *repository.TrashRepository
	registry *Registry
	captured []string
	icpt     *Interceptor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{db: dbtest.Open(t), trash: repository.NewTrashRepository()}
	f.registry = NewRegistry(catalog.Default(), nil)
	notifier := notify.New(repository.NewNotificationRepository(), nil, nil, nil)
	f.icpt = NewInterceptor(catalog.Default(), rules.Default(), f.registry, f.trash, notifier, nil,
		WithCaptureHook(func(entityType string) { f.captured = append(f.captured, entityType) }))
	return f
}

func (f *fixture) delete(entityType, id string, meta Meta) ([]model.TrashEntry, error) {
	var entries []model.TrashEntry
	err := f.db.WithTx(context.Background(), func(ctx context.Context, tx *sqlx.Tx) error {
		var err error
		entries, err = f.icpt.Delete(ctx, tx, entityType, id, meta)
		return err
	})
	return entries, err
}

func find(entries []model.TrashEntry, key string) *model.TrashEntry {
	for i := range entries {
		if entries[i].Key() == key {
			return &entries[i]
		}
	}
	return nil
}

func TestInterceptor_SnapshotIsJSONSafe(t *testing.T) {
	f := newFixture(t)
	dbtest.Insert(t, f.db, "Product", map[string]any{
		"product_id": "p1", "title": "Mug", "price": "12.90", "rating": 4.5, "rating_count": int64(3),
	})

	entries, err := f.delete("Product", "p1", Meta{Actor: "u-1"})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	stored, err := f.trash.FindByID(context.Background(), f.db, entries[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Product", stored.TableName)
	assert.Equal(t, "p1", stored.RecordID)
	assert.Equal(t, model.TrashVisible, stored.Status)
	assert.Equal(t, "Product deleted", stored.DeletedReason)
	require.NotNil(t, stored.DeletedBy)
	assert.Equal(t, "u-1", *stored.DeletedBy)

	assert.Equal(t, "12.90", stored.RecordData["price"])
	assert.Equal(t, "Mug", stored.RecordData["title"])
	assert.Equal(t, "4.5", stored.RecordData.String("rating"))
	assert.Equal(t, "3", stored.RecordData.String("rating_count"))
	assert.IsType(t, "", stored.RecordData["created_at"])
	assert.Nil(t, stored.RecordData["video_url"])

	assert.False(t, dbtest.Exists(t, f.db, "Product", "p1"))
}

func TestInterceptor_CascadeLinksCoRestoredChildren(t *testing.T) {
	f := newFixture(t)
	dbtest.Insert(t, f.db, "Product", map[string]any{"product_id": "p1", "title": "Mug"})
	dbtest.Insert(t, f.db, "ProductVariant", map[string]any{"variant_id": "v1", "product_id": "p1"})
	dbtest.Insert(t, f.db, "Cart", map[string]any{"cart_id": "c1"})
	dbtest.Insert(t, f.db, "CartItem", map[string]any{"item_id": "i1", "cart_id": "c1", "product_id": "p1"})

	entries, err := f.delete("Product", "p1", Meta{})
	require.NoError(t, err)
	require.Len(t, entries, 3)

	product := find(entries, "Product:p1")
	variant := find(entries, "ProductVariant:v1")
	item := find(entries, "CartItem:i1")
	require.NotNil(t, product)
	require.NotNil(t, variant)
	require.NotNil(t, item)

	require.NotNil(t, variant.ParentID)
	assert.Equal(t, product.ID, *variant.ParentID)
	assert.Equal(t, "ProductVariant deleted (cascade from Product:p1)", variant.DeletedReason)
	assert.Nil(t, item.ParentID)
	assert.Nil(t, product.ParentID)

	assert.True(t, dbtest.Exists(t, f.db, "Cart", "c1"))
	assert.False(t, dbtest.Exists(t, f.db, "CartItem", "i1"))
	assert.ElementsMatch(t, []string{"Product", "ProductVariant", "CartItem"}, f.captured)
}

func TestInterceptor_SetNullReferencesAreCleared(t *testing.T) {
	f := newFixture(t)
	dbtest.Insert(t, f.db, "Image", map[string]any{"image_id": "img1", "alt_text": "front"})
	dbtest.Insert(t, f.db, "Product", map[string]any{"product_id": "p1", "title": "Mug"})
	dbtest.Insert(t, f.db, "Attribute", map[string]any{"attr_id": "a1", "product_id": "p1", "image_id": "img1"})
	dbtest.Insert(t, f.db, "ProductImage", map[string]any{"id": "pi1", "product_id": "p1", "image_id": "img1"})

	entries, err := f.delete("Image", "img1", Meta{})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.NotNil(t, find(entries, "ProductImage:pi1"))

	table, err := catalog.Default().Table("Attribute")
	require.NoError(t, err)
	row, err := table.Get(context.Background(), f.db, "a1")
	require.NoError(t, err)
	assert.Nil(t, row["image_id"])
}

func TestInterceptor_FallbackSnapshot(t *testing.T) {
	f := newFixture(t)
	f.registry.Register("Cart", func(*catalog.Entity, map[string]any) (model.RecordData, error) {
		panic("boom")
	})
	dbtest.Insert(t, f.db, "Cart", map[string]any{"cart_id": "c1"})

	entries, err := f.delete("Cart", "c1", Meta{})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data := entries[0].RecordData
	assert.Equal(t, "c1", data["cart_id"])
	assert.Contains(t, data[ReprField], "Cart(c1)")
}

func TestInterceptor_Errors(t *testing.T) {
	f := newFixture(t)

	_, err := f.delete("Warehouse", "w1", Meta{})
	assert.ErrorIs(t, err, model.ErrUnknownEntityType)

	_, err = f.delete("Product", "missing", Meta{})
	assert.ErrorIs(t, err, model.ErrEntityNotFound)

	entries, err := f.trash.List(context.Background(), f.db, model.TrashFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRegistry_CoversCatalog(t *testing.T) {
	registry := NewRegistry(catalog.Default(), nil)

	assert.Equal(t, catalog.Default().Names(), registry.Covered())
	assert.True(t, registry.Covers("ProductVariant"))
	assert.False(t, registry.Covers("Warehouse"))
}
