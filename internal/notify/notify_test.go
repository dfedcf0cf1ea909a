package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-storefront-admin/internal/database/dbtest"
	"go-storefront-admin/internal/event"
	"go-storefront-admin/internal/model"
	"go-storefront-admin/internal/repository"
)

func TestMute_NestedScopesAccumulate(t *testing.T) {
	ctx := context.Background()
	outer, releaseOuter := Mute(ctx, []string{"Product"})
	inner, releaseInner := Mute(outer, []string{"CartItem"})

	assert.True(t, Muted(inner, "Product"))
	assert.True(t, Muted(inner, "CartItem"))
	assert.False(t, Muted(outer, "CartItem"))
	assert.False(t, Muted(ctx, "Product"))

	releaseInner()
	assert.False(t, Muted(inner, "CartItem"))
	assert.True(t, Muted(inner, "Product"))

	releaseOuter()
	assert.False(t, Muted(inner, "Product"))
}

func TestMute_ReleaseIsIdempotent(t *testing.T) {
	ctx, release := Mute(context.Background(), []string{"Cart"})
	release()
	release()
	assert.False(t, Muted(ctx, "Cart"))
}

func TestMute_ConcurrentScopesAreIsolated(t *testing.T) {
	base := context.Background()
	var wg sync.WaitGroup
	leaked := make(chan string, 16)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			muted, other := "Cart", "Product"
			if i%2 == 1 {
				muted, other = other, muted
			}
			ctx, release := Mute(base, []string{muted})
			defer release()
			if Muted(ctx, other) || !Muted(ctx, muted) {
				leaked <- muted
			}
		}(i)
	}
	wg.Wait()
	close(leaked)

	assert.Empty(t, leaked)
	assert.False(t, Muted(base, "Cart"))
}

func TestSensitive(t *testing.T) {
	got := Sensitive(
		[]string{"Product", "CartItem", "ProductTestimonial", "CartItem"},
		[]string{"ProductTestimonial", "CartItem", "BlogComment"},
	)
	assert.Equal(t, []string{"CartItem", "ProductTestimonial"}, got)
	assert.Empty(t, Sensitive([]string{"Product"}, nil))
}

func TestTemplates(t *testing.T) {
	tmpl := DefaultTemplates()

	assert.Equal(t, "Product 'Mug' was created.", tmpl["Product"](model.ActionCreated, model.RecordData{"title": "Mug"}))
	assert.Empty(t, tmpl["Category"](model.ActionDeleted, model.RecordData{"name": "Drinkware"}))
	assert.Empty(t, tmpl["ProductTestimonial"](model.ActionUpdated, model.RecordData{}))
	assert.Equal(t,
		"Ana has commented on the subcategory s1\nComment: lovely",
		tmpl["ProductTestimonial"](model.ActionCreated, model.RecordData{"name": "Ana", "subcategory_id": "s1", "content": "lovely"}))
	assert.Equal(t,
		"Item 'i1' was removed from cart 'c1'.",
		tmpl["CartItem"](model.ActionDeleted, model.RecordData{"item_id": "i1", "cart_id": "c1"}))
}

func TestNotifier_PublishesAfterCommitAndHonoursMute(t *testing.T) {
	db := dbtest.Open(t)
	repo := repository.NewNotificationRepository()
	bus := event.NewBus(8)
	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()
	n := New(repo, bus, nil, nil)

	err := db.WithTx(context.Background(), func(ctx context.Context, tx *sqlx.Tx) error {
		if err := n.Notify(ctx, tx, "Product", "p1", model.ActionCreated, model.RecordData{"title": "Mug"}); err != nil {
			return err
		}
		muted, release := Mute(ctx, []string{"Cart"})
		defer release()
		if err := n.Notify(muted, tx, "Cart", "c1", model.ActionCreated, model.RecordData{"cart_id": "c1"}); err != nil {
			return err
		}

		select {
		case <-events:
			t.Error("event published before commit")
		default:
		}
		return nil
	})
	require.NoError(t, err)

	select {
	case e := <-events:
		assert.Equal(t, event.TypeNotification, e.Type)
	case <-time.After(time.Second):
		t.Fatal("expected notification event after commit")
	}

	latest, err := n.Latest(context.Background(), db, 10)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "Product 'Mug' was created.", latest[0].Message)
}

func TestNotifier_NilIsNoop(t *testing.T) {
	var n *Notifier
	assert.NoError(t, n.Notify(context.Background(), nil, "Product", "p1", model.ActionCreated, nil))
}
