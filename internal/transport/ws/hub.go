// Package ws is the websocket transport: one Hub of connections, one
// Client per socket, and a Handler that routes inbound frames into
// the room engine.
package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/thinkingjet/SpeakSync/internal/domain/events"
)

// Hub tracks live connections by id and delivers outbound events to
// them. It satisfies events.Emitter for the rest of the engine.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

// Register adds the client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
}

// Unregister removes the client and closes its send queue. Safe to
// call for a client that was already removed.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	current, ok := h.clients[c.ID]
	if ok && current == c {
		delete(h.clients, c.ID)
	}
	h.mu.Unlock()
	if ok && current == c {
		c.closeSend()
	}
}

// Emit serializes the event and queues it for the connection. Unknown
// connections are a no-op. A client whose send queue is full is
// dropped rather than allowed to stall the caller.
func (h *Hub) Emit(connectionID string, event events.Event) {
	h.mu.RLock()
	c, ok := h.clients[connectionID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("marshal outbound event",
			zap.String("event", event.Name), zap.Error(err))
		return
	}

	if !c.enqueue(data) {
		h.logger.Warn("dropping slow client",
			zap.String("connection_id", connectionID))
		// Closing the send queue makes WritePump send a close frame
		// and tear the connection down.
		h.Unregister(c)
	}
}

// Size returns the number of live connections.
func (h *Hub) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
