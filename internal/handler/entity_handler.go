package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"go-storefront-admin/internal/model"
	"go-storefront-admin/internal/service"
	"go-storefront-admin/pkg/apierror"
)

type EntityHandler struct {
	service *service.EntityService
}

func NewEntityHandler(service *service.EntityService) *EntityHandler {
	return &EntityHandler{service: service}
}

func (h *EntityHandler) Types(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]any{"items": h.service.Types()}, nil)
}

func (h *EntityHandler) List(w http.ResponseWriter, r *http.Request) {
	entityType := chi.URLParam(r, "type")
	limit := parseIntOrDefault(r.URL.Query().Get("limit"), 100)

	rows, err := h.service.List(r.Context(), entityType, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"items": rows}, &model.Meta{
		Page:       1,
		Limit:      limit,
		Total:      len(rows),
		TotalPages: 1,
	})
}

func (h *EntityHandler) Get(w http.ResponseWriter, r *http.Request) {
	entityType, id, ok := entityPath(w, r)
	if !ok {
		return
	}

	data, err := h.service.Get(r.Context(), entityType, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, data, nil)
}

func (h *EntityHandler) Put(w http.ResponseWriter, r *http.Request) {
	entityType, id, ok := entityPath(w, r)
	if !ok {
		return
	}
	defer r.Body.Close()

	var raw bytes.Buffer
	if _, err := raw.ReadFrom(r.Body); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	// Numbers stay json.Number so decimals and large ids keep their text.
	var payload map[string]any
	dec := json.NewDecoder(&raw)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil || payload == nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	data, created, err := h.service.Put(r.Context(), entityType, id, payload, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeSuccess(w, status, data, nil)
}

func (h *EntityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	entityType, id, ok := entityPath(w, r)
	if !ok {
		return
	}

	entries, err := h.service.Delete(r.Context(), entityType, id, r.URL.Query().Get("reason"), actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"captured": entries}, nil)
}

func entityPath(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	entityType := strings.TrimSpace(chi.URLParam(r, "type"))
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if entityType == "" || id == "" {
		writeError(w, apierror.BadRequest("entity type and id are required", "type,id"))
		return "", "", false
	}
	return entityType, id, true
}
