package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// requestValidate checks inbound payloads before any transaction is opened.
var requestValidate *validator.Validate

func init() {
	requestValidate = validator.New()
	_ = requestValidate.RegisterValidation("visibility", func(fl validator.FieldLevel) bool {
		_, err := ParseVisibility(strings.ToUpper(strings.TrimSpace(fl.Field().String())))
		return err == nil
	})
}

func validateStruct(v any) error {
	if err := requestValidate.Struct(v); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}
	return nil
}

type RecordRef struct {
	Table string `json:"table" validate:"required"`
	ID    string `json:"id" validate:"required"`
}

// IDList decodes trash entry ids given as a JSON array or as a single string
// or number. Numbers keep their literal text.
type IDList []string

func (l *IDList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*l = nil
		return nil
	}

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var raw []json.RawMessage
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		out := make(IDList, 0, len(raw))
		for _, item := range raw {
			id, err := scalarID(item)
			if err != nil {
				return err
			}
			out = append(out, id)
		}
		*l = out
		return nil
	}

	id, err := scalarID(trimmed)
	if err != nil {
		return err
	}
	*l = IDList{id}
	return nil
}

func scalarID(data []byte) (string, error) {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("%w: ids must hold strings or numbers", ErrInvalidInput)
}

type RestoreRequest struct {
	IDs       IDList      `json:"ids" validate:"omitempty,dive,required"`
	RecordIDs []RecordRef `json:"record_ids" validate:"omitempty,dive"`
}

// Normalize trims identifiers and drops blank ones.
func (r *RestoreRequest) Normalize() {
	ids := make([]string, 0, len(r.IDs))
	for _, id := range r.IDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	r.IDs = ids

	refs := make([]RecordRef, 0, len(r.RecordIDs))
	for _, ref := range r.RecordIDs {
		ref.Table = strings.TrimSpace(ref.Table)
		ref.ID = strings.TrimSpace(ref.ID)
		if ref.Table != "" && ref.ID != "" {
			refs = append(refs, ref)
		}
	}
	r.RecordIDs = refs
}

func (r *RestoreRequest) Validate() error {
	r.Normalize()
	if len(r.IDs) == 0 && len(r.RecordIDs) == 0 {
		return fmt.Errorf("%w: ids or record_ids is required", ErrInvalidInput)
	}
	return validateStruct(r)
}

type VisibilityRequest struct {
	ID     string `json:"id" validate:"required"`
	Status string `json:"status" validate:"required,visibility"`
}

func (r *VisibilityRequest) Validate() error {
	return validateStruct(r)
}

// Target returns the canonical status to apply.
func (r *VisibilityRequest) Target() (TrashStatus, error) {
	return ParseVisibility(strings.ToUpper(strings.TrimSpace(r.Status)))
}

type TrashIDRequest struct {
	ID string `json:"id" validate:"required"`
}

func (r *TrashIDRequest) Validate() error {
	return validateStruct(r)
}

type SweepRequest struct {
	OlderThan string `json:"older_than" validate:"required"`
}

func (r *SweepRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	_, err := r.Age()
	return err
}

func (r *SweepRequest) Age() (time.Duration, error) {
	age, err := time.ParseDuration(strings.TrimSpace(r.OlderThan))
	if err != nil || age < 0 {
		return 0, fmt.Errorf("%w: older_than must be a non-negative duration", ErrInvalidInput)
	}
	return age, nil
}
