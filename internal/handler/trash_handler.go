package handler

import (
	"net/http"
	"strings"

	"go-storefront-admin/internal/model"
	"go-storefront-admin/internal/service"
	"go-storefront-admin/pkg/apierror"
)

type TrashHandler struct {
	service *service.TrashService
}

func NewTrashHandler(service *service.TrashService) *TrashHandler {
	return &TrashHandler{service: service}
}

type trashListData struct {
	Items []model.TrashItem `json:"items"`
}

func (h *TrashHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := model.TrashFilter{Table: strings.TrimSpace(query.Get("table"))}
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status, err := model.ParseVisibility(strings.ToUpper(raw))
		if err != nil {
			writeError(w, apierror.BadRequest("status must be VISIBLE or HIDDEN", "status"))
			return
		}
		filter.Status = status
	}

	items, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, trashListData{Items: items}, &model.Meta{
		Page:       1,
		Limit:      len(items),
		Total:      len(items),
		TotalPages: 1,
	})
}

func (h *TrashHandler) Visibility(w http.ResponseWriter, r *http.Request) {
	var payload model.VisibilityRequest
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.service.SetVisibility(r.Context(), payload, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	status, _ := payload.Target()
	writeSuccess(w, http.StatusOK, map[string]any{
		"id":      payload.ID,
		"status":  status,
		"updated": updated,
	}, nil)
}

func (h *TrashHandler) Restore(w http.ResponseWriter, r *http.Request) {
	var payload model.RestoreRequest
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.Restore(r.Context(), payload, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result, nil)
}

func (h *TrashHandler) Purge(w http.ResponseWriter, r *http.Request) {
	var payload model.TrashIDRequest
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	deleted, err := h.service.Purge(r.Context(), payload, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"id": payload.ID, "deleted": deleted}, nil)
}

func (h *TrashHandler) Retire(w http.ResponseWriter, r *http.Request) {
	var payload model.TrashIDRequest
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.service.Retire(r.Context(), payload, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"id": payload.ID, "retired": updated}, nil)
}

func (h *TrashHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	var payload model.SweepRequest
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.Sweep(r.Context(), payload, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result, nil)
}
