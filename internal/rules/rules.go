// Package rules holds the static dependency table consulted by capture,
// resolution and restore.
package rules

import (
	"fmt"
	"sort"

	"go-storefront-admin/internal/model"
)

// ImageType is the shared media asset type. Image parents present in trash
// are always pulled into a restore closure.
const ImageType = "Image"

// ParentRef declares that an entity references a parent through a
// snapshot field.
type ParentRef struct {
	Field    string
	Type     string
	KeyField string
	// Optional parents only apply when the field holds a value.
	Optional bool
}

// CoRestore declares a child type restored together with its parent.
type CoRestore struct {
	Child      string
	ForeignKey string
	ParentKey  string
}

type Rule struct {
	Standalone bool
	Parents    []ParentRef
	CoRestore  []CoRestore
}

// Parent is a parent reference resolved against one snapshot. ID is empty
// when a required parent field is missing from the snapshot.
type Parent struct {
	Type     string
	ID       string
	Field    string
	KeyField string
}

func (p Parent) Key() string {
	return p.Type + ":" + p.ID
}

// ParentsOf evaluates the rule's parent references against a snapshot.
func (r Rule) ParentsOf(data model.RecordData) []Parent {
	out := make([]Parent, 0, len(r.Parents))
	for _, ref := range r.Parents {
		id := data.String(ref.Field)
		if id == "" && ref.Optional {
			continue
		}
		out = append(out, Parent{Type: ref.Type, ID: id, Field: ref.Field, KeyField: ref.KeyField})
	}
	return out
}

func (r Rule) Hints() []model.CoRestoreHint {
	out := make([]model.CoRestoreHint, 0, len(r.CoRestore))
	for _, c := range r.CoRestore {
		out = append(out, model.CoRestoreHint{Model: c.Child, By: c.ForeignKey, ParentField: c.ParentKey})
	}
	return out
}

// Includes reports whether child is restored together with this rule's type.
func (r Rule) Includes(child string) bool {
	for _, c := range r.CoRestore {
		if c.Child == child {
			return true
		}
	}
	return false
}

type Table struct {
	rules map[string]Rule
}

func NewTable(rules map[string]Rule) (*Table, error) {
	t := &Table{rules: make(map[string]Rule, len(rules))}
	for name, rule := range rules {
		t.rules[name] = rule
	}

	for name, rule := range t.rules {
		for _, p := range rule.Parents {
			if _, ok := t.rules[p.Type]; !ok {
				return nil, fmt.Errorf("rule %s: parent type %s has no rule", name, p.Type)
			}
			if p.Field == "" {
				return nil, fmt.Errorf("rule %s: parent %s has no field", name, p.Type)
			}
		}
		for _, c := range rule.CoRestore {
			if _, ok := t.rules[c.Child]; !ok {
				return nil, fmt.Errorf("rule %s: co-restore child %s has no rule", name, c.Child)
			}
		}
		if !rule.Standalone && len(rule.Parents) == 0 {
			return nil, fmt.Errorf("rule %s: dependent type declares no parents", name)
		}
	}
	return t, nil
}

// Lookup returns the rule for an entity type. Unknown types are treated as
// standalone with no relations.
func (t *Table) Lookup(entityType string) Rule {
	if rule, ok := t.rules[entityType]; ok {
		return rule
	}
	return Rule{Standalone: true}
}

func (t *Table) Has(entityType string) bool {
	_, ok := t.rules[entityType]
	return ok
}

// SelfReferences lists the parent fields of entityType that point at the
// same type. Those fields are linked in a second restore pass.
func (t *Table) SelfReferences(entityType string) []ParentRef {
	var out []ParentRef
	for _, p := range t.Lookup(entityType).Parents {
		if p.Type == entityType {
			out = append(out, p)
		}
	}
	return out
}

func (t *Table) Types() []string {
	out := make([]string, 0, len(t.rules))
	for name := range t.rules {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
