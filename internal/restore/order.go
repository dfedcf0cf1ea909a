package restore

import (
	"sort"

	"go-storefront-admin/internal/model"
	"go-storefront-admin/internal/rules"
)

// Order sorts nodes so every parent in the set precedes its children,
// using Kahn's algorithm with ties kept in input order. When the edges form
// a cycle it falls back to ordering by declared parent count and reports
// cyclic as true.
func Order(table *rules.Table, nodes []model.TrashEntry) (ordered []model.TrashEntry, cyclic bool) {
	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		if _, dup := index[n.Key()]; !dup {
			index[n.Key()] = i
		}
	}

	indegree := make([]int, len(nodes))
	edges := make([][]int, len(nodes))
	for child, n := range nodes {
		for _, p := range table.Lookup(n.TableName).ParentsOf(n.RecordData) {
			if p.ID == "" {
				continue
			}
			parent, ok := index[p.Key()]
			if !ok || parent == child {
				continue
			}
			edges[parent] = append(edges[parent], child)
			indegree[child]++
		}
	}

	queue := make([]int, 0, len(nodes))
	for i := range nodes {
		if indegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	ordered = make([]model.TrashEntry, 0, len(nodes))
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		ordered = append(ordered, nodes[cur])
		for _, next := range edges[cur] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(ordered) == len(nodes) {
		return ordered, false
	}

	fallback := make([]model.TrashEntry, len(nodes))
	copy(fallback, nodes)
	sort.SliceStable(fallback, func(i, j int) bool {
		return len(table.Lookup(fallback[i].TableName).Parents) < len(table.Lookup(fallback[j].TableName).Parents)
	})
	return fallback, true
}
