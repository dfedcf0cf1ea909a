package catalog_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-storefront-admin/internal/catalog"
	"go-storefront-admin/internal/database/dbtest"
	"go-storefront-admin/internal/model"
)

func TestJSONValue(t *testing.T) {
	ts := time.Date(2025, 3, 1, 10, 30, 0, 0, time.FixedZone("CET", 3600))

	tests := []struct {
		name string
		kind catalog.Kind
		in   any
		want any
	}{
		{"int from int64", catalog.KindInt, int64(7), int64(7)},
		{"int from text", catalog.KindInt, []byte("12"), int64(12)},
		{"float", catalog.KindFloat, float64(4.5), 4.5},
		{"decimal keeps text", catalog.KindDecimal, "19.990", "19.990"},
		{"decimal from float", catalog.KindDecimal, float64(2.5), "2.5"},
		{"bool from int", catalog.KindBool, int64(1), true},
		{"time in utc", catalog.KindTime, ts, "2025-03-01T09:30:00Z"},
		{"json document", catalog.KindJSON, []byte(`{"a":1}`), `{"a":1}`},
		{"nil", catalog.KindText, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := catalog.JSONValue(tt.kind, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := catalog.JSONValue(catalog.KindDecimal, "abc")
	assert.Error(t, err)
	_, err = catalog.JSONValue(catalog.KindJSON, "{broken")
	assert.Error(t, err)
}

func TestColumnValue(t *testing.T) {
	v, err := catalog.ColumnValue(catalog.KindInt, json.Number("42"))
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	v, err = catalog.ColumnValue(catalog.KindFloat, json.Number("0.25"))
	require.NoError(t, err)
	assert.Equal(t, 0.25, v)

	v, err = catalog.ColumnValue(catalog.KindDecimal, json.Number("10.50"))
	require.NoError(t, err)
	assert.Equal(t, "10.50", v)

	v, err = catalog.ColumnValue(catalog.KindTime, "2025-03-01T09:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC), v)

	v, err = catalog.ColumnValue(catalog.KindJSON, []any{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, v)

	_, err = catalog.ColumnValue(catalog.KindInt, json.Number("1.5"))
	assert.Error(t, err)
	_, err = catalog.ColumnValue(catalog.KindTime, "yesterday")
	assert.Error(t, err)
}

func TestEntity_Coerce(t *testing.T) {
	entity, ok := catalog.Default().Lookup("Attribute")
	require.True(t, ok)

	values, err := entity.Coerce(map[string]any{
		"attr_id":     "a1",
		"product_id":  "p1",
		"parent_id":   nil,
		"price_delta": json.Number("1.25"),
		"is_default":  true,
		"unknown":     "dropped",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"attr_id": "a1", "product_id": "p1", "parent_id": nil, "price_delta": "1.25", "is_default": true,
	}, values)

	_, err = entity.Coerce(map[string]any{"attr_id": "a1", "product_id": nil})
	assert.ErrorContains(t, err, "product_id")

	_, err = entity.Coerce(map[string]any{"product_id": "p1"})
	assert.ErrorContains(t, err, "primary key")
}

func TestNewRegistry_Validation(t *testing.T) {
	_, err := catalog.NewRegistry(&catalog.Entity{Name: "A", Table: "a", PrimaryKey: "id"})
	assert.Error(t, err)

	_, err = catalog.NewRegistry(&catalog.Entity{
		Name: "A", Table: "a", PrimaryKey: "id",
		Columns:     []catalog.Column{{Name: "id"}, {Name: "b_id"}},
		ForeignKeys: []catalog.ForeignKey{{Column: "b_id", References: "B", OnDelete: catalog.Cascade}},
	})
	assert.Error(t, err)

	_, err = catalog.Default().Table("Warehouse")
	assert.ErrorIs(t, err, model.ErrUnknownEntityType)
}

func TestTable_Operations(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	products, err := catalog.Default().Table("Product")
	require.NoError(t, err)

	created, err := products.Upsert(ctx, db, map[string]any{"product_id": "p1", "title": "Mug"})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = products.Upsert(ctx, db, map[string]any{"product_id": "p1", "title": "Big mug"})
	require.NoError(t, err)
	assert.False(t, created)

	row, err := products.Get(ctx, db, "p1")
	require.NoError(t, err)
	snapshot, err := products.Entity().Snapshot(row)
	require.NoError(t, err)
	assert.Equal(t, "Big mug", snapshot["title"])

	require.NoError(t, products.SetColumn(ctx, db, "p1", "brand", "Acme"))
	assert.Error(t, products.SetColumn(ctx, db, "p1", "nope", "x"))
	assert.ErrorIs(t, products.SetColumn(ctx, db, "p2", "brand", "x"), model.ErrEntityNotFound)

	dbtest.Insert(t, db, "ProductVariant", map[string]any{"variant_id": "v2", "product_id": "p1"})
	dbtest.Insert(t, db, "ProductVariant", map[string]any{"variant_id": "v1", "product_id": "p1"})
	variants, err := catalog.Default().Table("ProductVariant")
	require.NoError(t, err)
	keys, err := variants.KeysWhere(ctx, db, "product_id", "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"v1", "v2"}, keys)

	rows, err := variants.List(ctx, db, 0)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = variants.NullifyWhere(ctx, db, "product_id", "p1")
	assert.Error(t, err)

	require.NoError(t, variants.Delete(ctx, db, "v1"))
	assert.ErrorIs(t, variants.Delete(ctx, db, "v1"), model.ErrEntityNotFound)

	_, err = products.Get(ctx, db, "missing")
	assert.ErrorIs(t, err, model.ErrEntityNotFound)
}
