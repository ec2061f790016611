// Package chat relays messages between websocket clients in a single room.
// Delivery is best effort and at most once: each client has a bounded
// outbound queue and a full queue drops the message for that client only.
package chat

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/couchcryptid/cosmic-watch-service/internal/domain"
	"github.com/couchcryptid/cosmic-watch-service/internal/observability"
)

// DefaultQueueSize is the per-client outbound buffer.
const DefaultQueueSize = 32

// Hub tracks the members of the chat room and fans messages out to them.
type Hub struct {
	mu      sync.RWMutex
	members map[*client]struct{}

	maxLen    int
	queueSize int
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewHub creates a Hub. maxLen bounds message text in runes.
func NewHub(maxLen, queueSize int, logger *slog.Logger, metrics *observability.Metrics) *Hub {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Hub{
		members:   make(map[*client]struct{}),
		maxLen:    maxLen,
		queueSize: queueSize,
		logger:    logger.With("room", domain.ChatRoom),
		metrics:   metrics,
	}
}

// Members returns the number of clients that have joined the room.
func (h *Hub) Members() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.members)
}

// Post validates text and broadcasts it to the room. It returns the relayed
// message or a wrapped domain.ErrInvalidMessage.
func (h *Hub) Post(text, author string) (domain.ChatMessage, error) {
	msg, err := domain.NewChatMessage(text, author, h.maxLen)
	if err != nil {
		return domain.ChatMessage{}, err
	}
	delivered, dropped := h.broadcast(domain.EventReceiveMessage, msg)
	h.metrics.ChatMessages.Inc()
	h.logger.Debug("chat message relayed", "message_id", msg.ID, "delivered", delivered, "dropped", dropped)
	return msg, nil
}

func (h *Hub) join(c *client) {
	h.mu.Lock()
	h.members[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) leave(c *client) {
	h.mu.Lock()
	delete(h.members, c)
	h.mu.Unlock()
}

func (h *Hub) broadcast(event string, data any) (delivered, dropped int) {
	frame, err := encode(event, data)
	if err != nil {
		h.logger.Error("encode chat frame failed", "error", err)
		return 0, 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.members {
		if c.enqueue(frame) {
			delivered++
			continue
		}
		dropped++
		h.metrics.ChatDropped.Inc()
	}
	return delivered, dropped
}

// envelope is the wire frame for every chat event.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func encode(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s data: %w", event, err)
	}
	return json.Marshal(envelope{Event: event, Data: raw})
}
