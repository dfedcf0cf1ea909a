// Package websocket streams bus events, notifications above all, to admin
// console subscribers.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"

	"go-storefront-admin/internal/event"
	"go-storefront-admin/internal/metrics"
)

// Hub owns the client set; only Run touches it.
type Hub struct {
	bus        event.Bus
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

func NewHub(bus event.Bus) *Hub {
	return &Hub{
		bus:        bus,
		clients:    map[*Client]struct{}{},
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run fans bus events out to connected clients until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	events, unsubscribe := h.bus.Subscribe()
	defer unsubscribe()
	defer close(h.done)
	defer h.dropAll()

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.clients[client] = struct{}{}
			metrics.StreamClients(len(h.clients))
		case client := <-h.unregister:
			h.drop(client)
		case e, ok := <-events:
			if !ok {
				return
			}
			h.broadcast(e)
		}
	}
}

func (h *Hub) broadcast(e event.Event) {
	message, err := json.Marshal(e)
	if err != nil {
		slog.Error("failed to marshal event", "type", e.Type, "error", err)
		return
	}

	for client := range h.clients {
		if !client.accepts(e.Type) {
			continue
		}
		select {
		case client.send <- message:
		default:
			slog.Warn("evicting slow stream client", "remote", client.conn.RemoteAddr().String(), "type", e.Type)
			h.drop(client)
		}
	}
}

func (h *Hub) drop(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
	metrics.StreamClients(len(h.clients))
}

func (h *Hub) dropAll() {
	for client := range h.clients {
		h.drop(client)
	}
}
