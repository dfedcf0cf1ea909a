package model

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type TrashStatus string

const (
	TrashVisible   TrashStatus = "VISIBLE"
	TrashHidden    TrashStatus = "HIDDEN"
	TrashPermanent TrashStatus = "PERMANENT"
)

// ParseVisibility normalizes a visibility flag, accepting the legacy
// UNHIDE/HIDE spellings still sent by older admin builds.
func ParseVisibility(raw string) (TrashStatus, error) {
	switch TrashStatus(raw) {
	case TrashVisible, "UNHIDE":
		return TrashVisible, nil
	case TrashHidden, "HIDE":
		return TrashHidden, nil
	default:
		return "", fmt.Errorf("%w: status must be VISIBLE or HIDDEN", ErrInvalidInput)
	}
}

// RecordData is the JSON-safe snapshot of a deleted row.
type RecordData map[string]any

func (d RecordData) Value() (driver.Value, error) {
	if d == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(map[string]any(d))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (d *RecordData) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*d = RecordData{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("record_data: unsupported type %T", src)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	out := RecordData{}
	if err := dec.Decode(&out); err != nil {
		return fmt.Errorf("record_data: %w", err)
	}
	*d = out
	return nil
}

// String returns the snapshot value under key in string form, or "" when
// the key is absent or null.
func (d RecordData) String(key string) string {
	v, ok := d[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// TrashEntry is one captured deletion.
type TrashEntry struct {
	ID            string      `db:"id" json:"id"`
	TableName     string      `db:"table_name" json:"table"`
	RecordID      string      `db:"record_id" json:"record_id"`
	RecordData    RecordData  `db:"record_data" json:"record_data"`
	DeletedAt     time.Time   `db:"deleted_at" json:"deleted_at"`
	DeletedBy     *string     `db:"deleted_by" json:"deleted_by,omitempty"`
	DeletedReason string      `db:"deleted_reason" json:"deleted_reason"`
	Status        TrashStatus `db:"status" json:"status"`
	ParentID      *string     `db:"parent_id" json:"parent_id,omitempty"`
}

// Key is the natural "Table:id" key of the captured record.
func (e TrashEntry) Key() string {
	return e.TableName + ":" + e.RecordID
}

var displayNameFields = []string{"name", "title", "slug", "code", "sku", "label"}

// DisplayName picks a human label from the snapshot.
func (e TrashEntry) DisplayName() string {
	for _, field := range displayNameFields {
		if v := e.RecordData.String(field); v != "" {
			return v
		}
	}
	return fmt.Sprintf("%s #%s", e.TableName, e.RecordID)
}

type TrashFilter struct {
	Status TrashStatus
	Table  string
}

// Blocker is a required parent that is neither live nor in trash.
type Blocker struct {
	Model  string `json:"model"`
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

const ReasonMissingParent = "missing-parent"

// BlockedItem groups the blockers of one closure member.
type BlockedItem struct {
	Item      string    `json:"item"`
	BlockedBy []Blocker `json:"blocked_by"`
}

type CoRestoreHint struct {
	Model       string `json:"model"`
	By          string `json:"by"`
	ParentField string `json:"parent_field"`
}

// TrashItem is a trash entry annotated for the listing.
type TrashItem struct {
	TrashEntry
	DisplayName     string          `json:"display_name"`
	Standalone      bool            `json:"standalone"`
	BlockedBy       []Blocker       `json:"blocked_by"`
	WillRestoreWith []CoRestoreHint `json:"will_restore_with"`
}

type RestoreResult struct {
	Success               bool     `json:"success"`
	Restored              []string `json:"restored"`
	RestoredCount         int      `json:"restored_count"`
	NotificationsMutedFor []string `json:"notifications_muted_for"`
	Cyclic                bool     `json:"cyclic,omitempty"`
}

type SweepResult struct {
	Purged int       `json:"purged"`
	Cutoff time.Time `json:"cutoff"`
}
