// Package restore resolves which trash entries must come back together and
// rebuilds them in dependency order.
package restore

import (
	"context"
	"log/slog"
	"sort"

	"go-storefront-admin/internal/catalog"
	"go-storefront-admin/internal/database"
	"go-storefront-admin/internal/model"
	"go-storefront-admin/internal/repository"
	"go-storefront-admin/internal/rules"
)

type Resolver struct {
	entities *catalog.Registry
	rules    *rules.Table
	trash    *repository.TrashRepository
	logger   *slog.Logger
}

func NewResolver(entities *catalog.Registry, ruleTable *rules.Table, trash *repository.TrashRepository, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{entities: entities, rules: ruleTable, trash: trash, logger: logger}
}

// view is the trash state seen by one resolver call. Only one entry per
// record is visible: the most recently deleted one, unless a seed names a
// different duplicate explicitly.
type view struct {
	ctx     context.Context
	q       database.Querier
	r       *Resolver
	entries []model.TrashEntry
	chosen  map[string]*model.TrashEntry
	byTable map[string][]*model.TrashEntry
	live    map[string]bool
}

func (r *Resolver) load(ctx context.Context, q database.Querier, seeds []model.TrashEntry) (*view, error) {
	entries, err := r.trash.List(ctx, q, model.TrashFilter{})
	if err != nil {
		return nil, err
	}

	v := &view{
		ctx:     ctx,
		q:       q,
		r:       r,
		entries: entries,
		chosen:  make(map[string]*model.TrashEntry, len(entries)),
		byTable: make(map[string][]*model.TrashEntry),
		live:    make(map[string]bool),
	}

	// entries are newest first, so the first hit per record wins
	for i := range v.entries {
		e := &v.entries[i]
		if _, ok := v.chosen[e.Key()]; !ok {
			v.chosen[e.Key()] = e
		}
	}
	for i := range seeds {
		seed := seeds[i]
		v.chosen[seed.Key()] = &seed
	}

	keys := make([]string, 0, len(v.chosen))
	for k := range v.chosen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		e := v.chosen[k]
		v.byTable[e.TableName] = append(v.byTable[e.TableName], e)
	}
	return v, nil
}

func (v *view) isLive(entityType, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	key := entityType + ":" + id
	if live, ok := v.live[key]; ok {
		return live, nil
	}

	table, err := v.r.entities.Table(entityType)
	if err != nil {
		v.live[key] = false
		return false, nil
	}
	live, err := table.Exists(v.ctx, v.q, id)
	if err != nil {
		return false, err
	}
	v.live[key] = live
	return live, nil
}

func (v *view) inTrash(p rules.Parent) *model.TrashEntry {
	if p.ID == "" {
		return nil
	}
	return v.chosen[p.Key()]
}

// blockedBy lists required parents that are neither live nor in trash.
func (v *view) blockedBy(e *model.TrashEntry) ([]model.Blocker, error) {
	out := make([]model.Blocker, 0)
	for _, p := range v.r.rules.Lookup(e.TableName).ParentsOf(e.RecordData) {
		live, err := v.isLive(p.Type, p.ID)
		if err != nil {
			return nil, err
		}
		if live || v.inTrash(p) != nil {
			continue
		}
		out = append(out, model.Blocker{Model: p.Type, ID: p.ID, Reason: model.ReasonMissingParent})
	}
	return out, nil
}

// Annotate lists the non-PERMANENT entries matching filter with their
// blocking parents and co-restore hints.
func (r *Resolver) Annotate(ctx context.Context, q database.Querier, filter model.TrashFilter) ([]model.TrashItem, error) {
	if filter.Status == model.TrashPermanent {
		filter.Status = ""
	}

	v, err := r.load(ctx, q, nil)
	if err != nil {
		return nil, err
	}

	items := make([]model.TrashItem, 0, len(v.entries))
	for i := range v.entries {
		e := &v.entries[i]
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.Table != "" && e.TableName != filter.Table {
			continue
		}

		blocked, err := v.blockedBy(e)
		if err != nil {
			return nil, err
		}
		rule := r.rules.Lookup(e.TableName)
		items = append(items, model.TrashItem{
			TrashEntry:      *e,
			DisplayName:     e.DisplayName(),
			Standalone:      rule.Standalone,
			BlockedBy:       blocked,
			WillRestoreWith: rule.Hints(),
		})
	}
	return items, nil
}

// closureSet keeps discovery order while de-duplicating by entry id.
type closureSet struct {
	order []*model.TrashEntry
	ids   map[string]bool
	keys  map[string]bool
}

func newClosureSet() *closureSet {
	return &closureSet{ids: map[string]bool{}, keys: map[string]bool{}}
}

func (s *closureSet) add(e *model.TrashEntry) bool {
	if s.ids[e.ID] || s.keys[e.Key()] {
		return false
	}
	s.ids[e.ID] = true
	s.keys[e.Key()] = true
	s.order = append(s.order, e)
	return true
}

// Closure computes every entry that must be restored together with seeds.
// Closures of several seeds are unioned before the final guard, so a parent
// pulled in for one seed satisfies another.
func (r *Resolver) Closure(ctx context.Context, q database.Querier, seeds []model.TrashEntry) ([]model.TrashEntry, error) {
	v, err := r.load(ctx, q, seeds)
	if err != nil {
		return nil, err
	}

	all := newClosureSet()
	for i := range seeds {
		seed := v.chosen[seeds[i].Key()]

		rule := r.rules.Lookup(seed.TableName)
		if !rule.Standalone {
			blocked, err := v.blockedBy(seed)
			if err != nil {
				return nil, err
			}
			if len(blocked) > 0 {
				return nil, &BlockedError{
					Seed:  true,
					Items: []model.BlockedItem{{Item: seed.Key(), BlockedBy: blocked}},
				}
			}
		}

		nodes := newClosureSet()
		v.downward(nodes, seed)
		if err := v.upward(nodes); err != nil {
			return nil, err
		}
		v.images(nodes)

		for _, n := range nodes.order {
			all.add(n)
		}
	}

	if err := v.guard(all); err != nil {
		return nil, err
	}

	out := make([]model.TrashEntry, len(all.order))
	for i, n := range all.order {
		out[i] = *n
	}
	r.logger.Debug("restore closure resolved", "seeds", len(seeds), "size", len(out))
	return out, nil
}

// downward walks co-restore edges breadth first from seed, matching trash
// entries whose foreign key equals the parent's record id.
func (v *view) downward(set *closureSet, seed *model.TrashEntry) {
	set.add(seed)
	queue := []*model.TrashEntry{seed}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, cr := range v.r.rules.Lookup(cur.TableName).CoRestore {
			for _, child := range v.byTable[cr.Child] {
				if child.RecordData.String(cr.ForeignKey) != cur.RecordID {
					continue
				}
				if set.add(child) {
					queue = append(queue, child)
				}
			}
		}
	}
}

// upward adds parents that are not live but are in trash, until no node in
// the set has a missing parent left to pull in.
func (v *view) upward(set *closureSet) error {
	for i := 0; i < len(set.order); i++ {
		node := set.order[i]
		for _, p := range v.r.rules.Lookup(node.TableName).ParentsOf(node.RecordData) {
			hit := v.inTrash(p)
			if hit == nil {
				continue
			}
			live, err := v.isLive(p.Type, p.ID)
			if err != nil {
				return err
			}
			if !live {
				set.add(hit)
			}
		}
	}
	return nil
}

// images pulls in trashed Image parents of any node, live or not.
func (v *view) images(set *closureSet) {
	for i := 0; i < len(set.order); i++ {
		node := set.order[i]
		for _, p := range v.r.rules.Lookup(node.TableName).ParentsOf(node.RecordData) {
			if p.Type != rules.ImageType {
				continue
			}
			if hit := v.inTrash(p); hit != nil {
				set.add(hit)
			}
		}
	}
}

// guard re-checks every dependent node against the final set.
func (v *view) guard(set *closureSet) error {
	var blocked []model.BlockedItem
	for _, n := range set.order {
		rule := v.r.rules.Lookup(n.TableName)
		if rule.Standalone {
			continue
		}

		missing := make([]model.Blocker, 0)
		for _, p := range rule.ParentsOf(n.RecordData) {
			if p.ID != "" && set.keys[p.Key()] {
				continue
			}
			live, err := v.isLive(p.Type, p.ID)
			if err != nil {
				return err
			}
			if !live {
				missing = append(missing, model.Blocker{Model: p.Type, ID: p.ID, Reason: model.ReasonMissingParent})
			}
		}
		if len(missing) > 0 {
			blocked = append(blocked, model.BlockedItem{Item: n.Key(), BlockedBy: missing})
		}
	}

	if len(blocked) > 0 {
		return &BlockedError{Items: blocked}
	}
	return nil
}
