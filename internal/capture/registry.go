// Package capture snapshots rows into the trash store as they are deleted.
package capture

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"go-storefront-admin/internal/catalog"
	"go-storefront-admin/internal/model"
)

// ReprField holds the string form of a row whose snapshot could not be built.
const ReprField = "_repr"

// SerializeFunc turns a raw row into JSON-safe scalars. A non-nil error
// with a non-nil snapshot means some fields were dropped to null.
type SerializeFunc func(entity *catalog.Entity, row map[string]any) (model.RecordData, error)

// Columns serializes every catalog column by its declared kind.
func Columns(entity *catalog.Entity, row map[string]any) (model.RecordData, error) {
	return entity.Snapshot(row)
}

// Registry maps entity types to serializers. Only covered types can be
// deleted through the Interceptor.
type Registry struct {
	mu     sync.RWMutex
	funcs  map[string]SerializeFunc
	logger *slog.Logger
}

// NewRegistry covers every catalog entity with the column serializer.
func NewRegistry(entities *catalog.Registry, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{funcs: make(map[string]SerializeFunc), logger: logger}
	for _, name := range entities.Names() {
		r.funcs[name] = Columns
	}
	return r
}

// Register overrides the serializer of one entity type.
func (r *Registry) Register(entityType string, fn SerializeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[entityType] = fn
}

func (r *Registry) Covers(entityType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.funcs[entityType]
	return ok
}

func (r *Registry) Covered() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Serialize never fails. Per-field errors leave those fields null; a
// serializer that fails outright degrades to the primary key plus a
// string representation of the row.
func (r *Registry) Serialize(entity *catalog.Entity, key string, row map[string]any) (data model.RecordData) {
	r.mu.RLock()
	fn, ok := r.funcs[entity.Name]
	r.mu.RUnlock()
	if !ok {
		fn = Columns
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Warn("snapshot serializer panicked, storing fallback",
				"entity_type", entity.Name, "record_id", key, "panic", p)
			data = fallback(entity, key, row)
		}
	}()

	data, err := fn(entity, row)
	if data == nil {
		r.logger.Warn("snapshot serializer failed, storing fallback",
			"entity_type", entity.Name, "record_id", key, "error", err)
		return fallback(entity, key, row)
	}
	if err != nil {
		r.logger.Warn("snapshot fields dropped", "entity_type", entity.Name, "record_id", key, "error", err)
	}
	return data
}

func fallback(entity *catalog.Entity, key string, row map[string]any) model.RecordData {
	return model.RecordData{
		entity.PrimaryKey: key,
		ReprField:         fmt.Sprintf("%s(%s) %v", entity.Name, key, safeRepr(row)),
	}
}

func safeRepr(row map[string]any) (s string) {
	defer func() {
		if recover() != nil {
			s = "<unprintable>"
		}
	}()
	return fmt.Sprint(row)
}
