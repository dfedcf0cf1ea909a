package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-storefront-admin/internal/capture"
	"go-storefront-admin/internal/catalog"
	"go-storefront-admin/internal/database"
	"go-storefront-admin/internal/database/dbtest"
	"go-storefront-admin/internal/event"
	"go-storefront-admin/internal/model"
	"go-storefront-admin/internal/notify"
	"go-storefront-admin/internal/repository"
	"go-storefront-admin/internal/restore"
	"go-storefront-admin/internal/rules"
	"go-storefront-admin/pkg/apierror"
)

type services struct {
	db       *database.DB
	trash    *TrashService
	entities *EntityService
	audit    *AuditService
	bus      *event.InMemoryBus
}

func newServices(t *testing.T) *services {
	t.Helper()

	db := dbtest.Open(t)
	entities := catalog.Default()
	ruleTable := rules.Default()
	trashRepo := repository.NewTrashRepository()
	bus := event.NewBus(64)
	notifier := notify.New(repository.NewNotificationRepository(), bus, nil, nil)
	audit := NewAuditService(repository.NewAuditRepository(db))
	resolver := restore.NewResolver(entities, ruleTable, trashRepo, nil)
	restorer := restore.NewRestorer(entities, ruleTable, trashRepo, resolver, notifier, []string{"CartItem"}, nil)
	interceptor := capture.NewInterceptor(entities, ruleTable, capture.NewRegistry(entities, nil), trashRepo, notifier, nil)

	return &services{
		db:       db,
		trash:    NewTrashService(db, trashRepo, resolver, restorer, audit, bus, nil),
		entities: NewEntityService(db, entities, ruleTable, interceptor, notifier, audit, bus, nil),
		audit:    audit,
		bus:      bus,
	}
}

var admin = model.AuditActor{UserID: "u-admin", Username: "admin", Role: model.RoleAdmin}

func TestTrashService_ListAnnotatesItems(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	dbtest.Insert(t, s.db, "Product", map[string]any{"product_id": "p1", "title": "Mug"})
	dbtest.Insert(t, s.db, "ProductVariant", map[string]any{"variant_id": "v1", "product_id": "p1"})

	variant, err := s.entities.Delete(ctx, "ProductVariant", "v1", "", admin)
	require.NoError(t, err)
	require.Len(t, variant, 1)
	_, err = s.entities.Delete(ctx, "Product", "p1", "discontinued", admin)
	require.NoError(t, err)

	items, err := s.trash.List(ctx, model.TrashFilter{})
	require.NoError(t, err)
	require.Len(t, items, 2)

	byTable := map[string]model.TrashItem{}
	for _, item := range items {
		byTable[item.TableName] = item
	}
	product := byTable["Product"]
	assert.True(t, product.Standalone)
	assert.Equal(t, "Mug", product.DisplayName)
	assert.Equal(t, "discontinued", product.DeletedReason)
	assert.NotEmpty(t, product.WillRestoreWith)

	v := byTable["ProductVariant"]
	assert.False(t, v.Standalone)
	assert.Equal(t, "ProductVariant #v1", v.DisplayName)
	assert.Empty(t, v.BlockedBy)

	filtered, err := s.trash.List(ctx, model.TrashFilter{Table: "Product"})
	require.NoError(t, err)
	assert.Len(t, filtered, 1)
}

func TestTrashService_VisibilityTogglesTreeOnly(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	dbtest.Insert(t, s.db, "Product", map[string]any{"product_id": "p1", "title": "Mug"})
	dbtest.Insert(t, s.db, "Cart", map[string]any{"cart_id": "c1"})
	dbtest.Insert(t, s.db, "Cart", map[string]any{"cart_id": "c2"})
	dbtest.Insert(t, s.db, "CartItem", map[string]any{"item_id": "i1", "cart_id": "c1", "product_id": "p1"})
	dbtest.Insert(t, s.db, "CartItem", map[string]any{"item_id": "i2", "cart_id": "c1", "product_id": "p1"})

	captured, err := s.entities.Delete(ctx, "Cart", "c1", "", admin)
	require.NoError(t, err)
	require.Len(t, captured, 3)
	_, err = s.entities.Delete(ctx, "Cart", "c2", "", admin)
	require.NoError(t, err)

	var cartID string
	for _, e := range captured {
		if e.TableName == "Cart" {
			cartID = e.ID
		}
	}

	updated, err := s.trash.SetVisibility(ctx, model.VisibilityRequest{ID: cartID, Status: "hide"}, admin)
	require.NoError(t, err)
	assert.Equal(t, int64(3), updated)

	hidden, err := s.trash.List(ctx, model.TrashFilter{Status: model.TrashHidden})
	require.NoError(t, err)
	assert.Len(t, hidden, 3)
	visible, err := s.trash.List(ctx, model.TrashFilter{Status: model.TrashVisible})
	require.NoError(t, err)
	assert.Len(t, visible, 1)

	deleted, err := s.trash.Purge(ctx, model.TrashIDRequest{ID: cartID}, admin)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	_, err = s.trash.Purge(ctx, model.TrashIDRequest{ID: cartID}, admin)
	assert.ErrorIs(t, err, model.ErrTrashItemNotFound)
	_, err = s.trash.SetVisibility(ctx, model.VisibilityRequest{ID: "missing", Status: "VISIBLE"}, admin)
	assert.ErrorIs(t, err, model.ErrTrashItemNotFound)
	_, err = s.trash.SetVisibility(ctx, model.VisibilityRequest{ID: cartID, Status: "PERMANENT"}, admin)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestTrashService_RetireAndSweep(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	dbtest.Insert(t, s.db, "Cart", map[string]any{"cart_id": "c1"})

	captured, err := s.entities.Delete(ctx, "Cart", "c1", "", admin)
	require.NoError(t, err)
	id := captured[0].ID

	updated, err := s.trash.Retire(ctx, model.TrashIDRequest{ID: id}, admin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)

	items, err := s.trash.List(ctx, model.TrashFilter{})
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = s.trash.Restore(ctx, model.RestoreRequest{IDs: []string{id}}, admin)
	assert.ErrorIs(t, err, model.ErrNoRestoreTargets)

	result, err := s.trash.Sweep(ctx, model.SweepRequest{OlderThan: "1h"}, admin)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Purged)

	result, err = s.trash.Sweep(ctx, model.SweepRequest{OlderThan: "0s"}, admin)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Purged)

	_, err = s.trash.Sweep(ctx, model.SweepRequest{OlderThan: "soon"}, admin)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestTrashService_RestoreIsAudited(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	events, unsubscribe := s.bus.Subscribe()
	defer unsubscribe()
	dbtest.Insert(t, s.db, "Category", map[string]any{"category_id": "c1", "name": "Drinkware"})

	_, err := s.entities.Delete(ctx, "Category", "c1", "", admin)
	require.NoError(t, err)

	result, err := s.trash.Restore(ctx, model.RestoreRequest{RecordIDs: []model.RecordRef{{Table: "Category", ID: "c1"}}}, admin)
	require.NoError(t, err)
	assert.Equal(t, []string{"Category:c1"}, result.Restored)

	entries, _, err := s.audit.Query(ctx, model.AuditQuery{Action: "trash.restore"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, AuditSuccess, entries[0].Status)
	assert.Equal(t, "u-admin", entries[0].Actor.UserID)

	seen := map[event.Type]bool{}
	timeout := time.After(time.Second)
	for !seen[event.TypeTrashRestored] {
		select {
		case e := <-events:
			seen[e.Type] = true
		case <-timeout:
			t.Fatal("restore event not published")
		}
	}
	assert.True(t, seen[event.TypeNotification])

	_, err = s.trash.Restore(ctx, model.RestoreRequest{}, admin)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestEntityService_PutGetDelete(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	data, created, err := s.entities.Put(ctx, "Product", "p1", map[string]any{"title": "Mug", "price": "9.90"}, admin)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "9.90", data["price"])

	_, created, err = s.entities.Put(ctx, "Product", "p1", map[string]any{"title": "Big mug"}, admin)
	require.NoError(t, err)
	assert.False(t, created)

	got, err := s.entities.Get(ctx, "Product", "p1")
	require.NoError(t, err)
	assert.Equal(t, "Big mug", got["title"])
	assert.Equal(t, "9.90", got["price"])

	_, _, err = s.entities.Put(ctx, "Product", "p1", map[string]any{"product_id": "other"}, admin)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	_, _, err = s.entities.Put(ctx, "Warehouse", "w1", map[string]any{}, admin)
	assert.ErrorIs(t, err, model.ErrUnknownEntityType)

	entries, err := s.entities.Delete(ctx, "Product", "p1", "", admin)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = s.entities.Get(ctx, "Product", "p1")
	assert.ErrorIs(t, err, model.ErrEntityNotFound)

	assert.Len(t, s.entities.Types(), len(catalog.Default().Names()))
}

func TestTokenValidator(t *testing.T) {
	v := NewTokenValidator("secret")

	token, err := v.SignToken(jwt.MapClaims{
		"sub": "u1", "username": "ana", "role": "editor", "exp": time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)

	claims, err := v.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.True(t, claims.CanMutate())

	refresh, err := v.SignToken(jwt.MapClaims{"sub": "u1", "typ": "refresh"})
	require.NoError(t, err)
	_, err = v.ValidateToken(refresh)
	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "UNAUTHORIZED", apiErr.Code)

	other, err := NewTokenValidator("different").SignToken(jwt.MapClaims{"sub": "u1"})
	require.NoError(t, err)
	_, err = v.ValidateToken(other)
	assert.Error(t, err)

	expired, err := v.SignToken(jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(-time.Minute).Unix()})
	require.NoError(t, err)
	_, err = v.ValidateToken(expired)
	assert.Error(t, err)
}
