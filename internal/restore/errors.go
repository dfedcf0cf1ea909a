package restore

import (
	"fmt"
	"strings"

	"go-storefront-admin/internal/model"
)

// BlockedError refuses a restore whose required parents are neither live
// nor in trash. Nothing has been written when it is returned.
type BlockedError struct {
	Items []model.BlockedItem
	// Seed is set when a requested entry was rejected before any closure
	// was computed.
	Seed bool
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("%s %s", e.Message(), e.Suggestion())
}

func (e *BlockedError) Message() string {
	if e.Seed {
		return "Dependent item cannot be restored alone."
	}
	return "Restore blocked by missing parents."
}

// Blockers flattens the blocking parents of every item, without repeats.
func (e *BlockedError) Blockers() []model.Blocker {
	seen := map[string]bool{}
	out := make([]model.Blocker, 0)
	for _, item := range e.Items {
		for _, b := range item.BlockedBy {
			key := b.Model + ":" + b.ID
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, b)
		}
	}
	return out
}

func (e *BlockedError) Suggestion() string {
	blockers := e.Blockers()
	parts := make([]string, len(blockers))
	for i, b := range blockers {
		parts[i] = b.Model + ":" + b.ID
	}
	return "Restore its parent(s) first: " + strings.Join(parts, ", ")
}

// ReconstructionError aborts a restore when a row cannot be rebuilt from
// its snapshot. The whole transaction is rolled back.
type ReconstructionError struct {
	Table    string
	RecordID string
	Err      error
}

func (e *ReconstructionError) Error() string {
	return fmt.Sprintf("failed to restore %s#%s: %v", e.Table, e.RecordID, e.Err)
}

func (e *ReconstructionError) Unwrap() error {
	return e.Err
}
