// Package events provides the realtime change feed consumed by provider
// dashboards. Connected clients receive a small "changed" event whenever an
// assessment row is written; the event is a cache-invalidation hint only, so
// delivery is best-effort with no ordering or backpressure guarantees.
package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TopicAssessments is the single topic published by the intake service.
const TopicAssessments = "assessments"

// Event is a change notification sent to websocket clients.
type Event struct {
	Type       string    `json:"type"`
	Topic      string    `json:"topic"`
	ResourceID string    `json:"resourceId,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Client represents a single connected websocket client.
type Client struct {
	ID   string
	Send chan []byte
}

// Hub tracks connected clients and fans change events out to them. All
// operations are safe for concurrent use.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	log     zerolog.Logger
}

// NewHub creates a Hub ready to manage clients.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		log:     log,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
}

// Unregister removes a client and closes its Send channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.Send)
}

// Broadcast sends an event to every connected client. Clients with a full
// buffer are skipped rather than blocked on.
func (h *Hub) Broadcast(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error().Err(err).Msg("marshal change event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.Send <- data:
		default:
			// Client buffer full; skip to avoid blocking.
		}
	}
}

// AssessmentChanged implements assessment.ChangePublisher.
func (h *Hub) AssessmentChanged(id uuid.UUID) {
	h.Broadcast(Event{
		Type:       "changed",
		Topic:      TopicAssessments,
		ResourceID: id.String(),
		Timestamp:  time.Now(),
	})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
