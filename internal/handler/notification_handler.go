package handler

import (
	"net/http"
	"strings"

	"go-storefront-admin/internal/event"
	"go-storefront-admin/internal/service"
	"go-storefront-admin/internal/websocket"
)

type NotificationHandler struct {
	service *service.NotificationService
	hub     *websocket.Hub
}

func NewNotificationHandler(service *service.NotificationService, hub *websocket.Hub) *NotificationHandler {
	return &NotificationHandler{service: service, hub: hub}
}

func (h *NotificationHandler) Latest(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Latest(r.Context(), parseIntOrDefault(r.URL.Query().Get("limit"), 50))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"items": items}, nil)
}

// Stream pushes notification events over a websocket. ?types= narrows the
// feed to a comma separated list of event types.
func (h *NotificationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	var types []event.Type
	for _, raw := range strings.Split(r.URL.Query().Get("types"), ",") {
		if raw = strings.TrimSpace(raw); raw != "" {
			types = append(types, event.Type(raw))
		}
	}
	if len(types) == 0 {
		types = []event.Type{event.TypeNotification}
	}

	h.hub.Serve(w, r, types...)
}
