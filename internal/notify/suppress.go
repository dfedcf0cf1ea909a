package notify

import (
	"context"
	"sort"
	"sync/atomic"
)

type muteKey struct{}

// muteScope is one suppression layer. Scopes chain to their parent so
// nested Mute calls accumulate types.
type muteScope struct {
	types    map[string]struct{}
	released atomic.Bool
	parent   *muteScope
}

// Mute returns a context under which notifications for the given entity
// types are suppressed. The scope lives only in the returned context, so
// concurrent callers never affect each other. release ends the scope even
// if the context is still referenced afterwards.
func Mute(ctx context.Context, types []string) (context.Context, func()) {
	scope := &muteScope{types: make(map[string]struct{}, len(types))}
	for _, t := range types {
		scope.types[t] = struct{}{}
	}
	if parent, ok := ctx.Value(muteKey{}).(*muteScope); ok {
		scope.parent = parent
	}

	return context.WithValue(ctx, muteKey{}, scope), func() {
		scope.released.Store(true)
	}
}

// Muted reports whether notifications for entityType are suppressed in ctx.
func Muted(ctx context.Context, entityType string) bool {
	scope, _ := ctx.Value(muteKey{}).(*muteScope)
	for ; scope != nil; scope = scope.parent {
		if scope.released.Load() {
			continue
		}
		if _, ok := scope.types[entityType]; ok {
			return true
		}
	}
	return false
}

// Sensitive returns the members of touched that appear in sensitive,
// sorted and de-duplicated.
func Sensitive(touched []string, sensitive []string) []string {
	want := make(map[string]struct{}, len(sensitive))
	for _, s := range sensitive {
		want[s] = struct{}{}
	}

	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, t := range touched {
		if _, ok := want[t]; !ok {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
