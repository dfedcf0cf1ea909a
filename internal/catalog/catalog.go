// Package catalog describes the live storefront tables the trash engine
// can capture and rebuild. Every identifier used in generated SQL comes
// from this package, never from request input.
package catalog

import (
	"fmt"
	"sort"

	"go-storefront-admin/internal/model"
)

type Kind string

const (
	KindText    Kind = "text"
	KindInt     Kind = "int"
	KindFloat   Kind = "float"
	KindDecimal Kind = "decimal"
	KindBool    Kind = "bool"
	KindTime    Kind = "time"
	KindUUID    Kind = "uuid"
	KindFile    Kind = "file"
	KindJSON    Kind = "json"
)

type OnDelete string

const (
	Cascade OnDelete = "cascade"
	SetNull OnDelete = "set null"
)

type Column struct {
	Name     string
	Kind     Kind
	Nullable bool
}

type ForeignKey struct {
	Column     string
	References string
	OnDelete   OnDelete
}

type Entity struct {
	Name        string
	Table       string
	PrimaryKey  string
	Columns     []Column
	ForeignKeys []ForeignKey
}

func (e *Entity) Column(name string) (Column, bool) {
	for _, c := range e.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Reference is a foreign key of Entity pointing at another entity.
type Reference struct {
	Entity     *Entity
	ForeignKey ForeignKey
}

type Registry struct {
	entities map[string]*Entity
	names    []string
}

func NewRegistry(entities ...*Entity) (*Registry, error) {
	r := &Registry{entities: make(map[string]*Entity, len(entities))}
	for _, e := range entities {
		if e.Name == "" || e.Table == "" || e.PrimaryKey == "" {
			return nil, fmt.Errorf("entity %q: name, table and primary key are required", e.Name)
		}
		if _, dup := r.entities[e.Name]; dup {
			return nil, fmt.Errorf("entity %q registered twice", e.Name)
		}
		if _, ok := e.Column(e.PrimaryKey); !ok {
			return nil, fmt.Errorf("entity %q: primary key %q is not a column", e.Name, e.PrimaryKey)
		}
		r.entities[e.Name] = e
		r.names = append(r.names, e.Name)
	}

	for _, e := range entities {
		for _, fk := range e.ForeignKeys {
			if _, ok := r.entities[fk.References]; !ok {
				return nil, fmt.Errorf("entity %q: foreign key %q references unknown entity %q", e.Name, fk.Column, fk.References)
			}
			col, ok := e.Column(fk.Column)
			if !ok {
				return nil, fmt.Errorf("entity %q: foreign key column %q is not a column", e.Name, fk.Column)
			}
			if fk.OnDelete == SetNull && !col.Nullable {
				return nil, fmt.Errorf("entity %q: set null foreign key %q must be nullable", e.Name, fk.Column)
			}
		}
	}

	sort.Strings(r.names)
	return r, nil
}

func (r *Registry) Lookup(name string) (*Entity, bool) {
	e, ok := r.entities[name]
	return e, ok
}

// Table resolves the live-table accessor for an entity type.
func (r *Registry) Table(name string) (*Table, error) {
	e, ok := r.entities[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrUnknownEntityType, name)
	}
	return &Table{entity: e}, nil
}

func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Referencing lists the foreign keys of other entities that point at name,
// in registry name order.
func (r *Registry) Referencing(name string) []Reference {
	var out []Reference
	for _, n := range r.names {
		e := r.entities[n]
		for _, fk := range e.ForeignKeys {
			if fk.References == name {
				out = append(out, Reference{Entity: e, ForeignKey: fk})
			}
		}
	}
	return out
}
