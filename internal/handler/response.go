package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"go-storefront-admin/internal/model"
	"go-storefront-admin/internal/restore"
	"go-storefront-admin/pkg/apierror"
)

func writeSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Unexpected server error",
	}

	var (
		apiErr     *apierror.APIError
		blocked    *restore.BlockedError
		rebuildErr *restore.ReconstructionError
	)

	if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
		body.Context = apiErr.Context
	} else if errors.As(err, &blocked) {
		status = http.StatusConflict
		body.Code = "BLOCKED"
		body.Message = blocked.Message()
		body.Context = map[string]any{
			"blocked_by": blocked.Blockers(),
			"items":      blocked.Items,
			"suggestion": blocked.Suggestion(),
		}
	} else if errors.As(err, &rebuildErr) {
		status = http.StatusBadRequest
		body.Code = "RESTORE_FAILED"
		body.Message = "Restore failed and was rolled back"
		body.Details = rebuildErr.Error()
		body.Context = map[string]any{
			"table":     rebuildErr.Table,
			"record_id": rebuildErr.RecordID,
		}
	} else if errors.Is(err, model.ErrNoRestoreTargets) {
		status = http.StatusBadRequest
		body.Code = "BAD_REQUEST"
		body.Message = "No restore targets found"
	} else if errors.Is(err, model.ErrTrashItemNotFound) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Trash item not found"
	} else if errors.Is(err, model.ErrTrashEntryConsumed) {
		status = http.StatusConflict
		body.Code = "CONFLICT"
		body.Message = "Trash entry was consumed by another restore"
	} else if errors.Is(err, model.ErrUnknownEntityType) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Unknown entity type"
	} else if errors.Is(err, model.ErrEntityNotFound) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Entity not found"
	} else if errors.Is(err, model.ErrUnauthorized) {
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "Authentication required"
	} else if errors.Is(err, model.ErrForbidden) {
		status = http.StatusForbidden
		body.Code = "FORBIDDEN"
		body.Message = "Access denied"
	} else if errors.Is(err, model.ErrInvalidInput) {
		status = http.StatusBadRequest
		body.Code = "BAD_REQUEST"
		body.Message = "Invalid input"
		body.Details = err.Error()
	} else {
		slog.Error("unhandled error in writeError", "request_id", w.Header().Get("X-Request-ID"), "error", err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   body,
	})
}

func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apierror.BadRequest("invalid JSON body", "")
	}
	return nil
}

func parseIntOrDefault(raw string, fallback int) int {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}
