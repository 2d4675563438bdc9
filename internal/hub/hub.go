package hub

import (
	"encoding/json"
	"fmt"
	"sync"

	"circleup/backend/internal/models"
)

// Event represents a real-time event to be sent to clients.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Client represents a single client connection (a user streaming a
// conversation). It's essentially a channel that the SSE handler will
// listen to.
type Client chan []byte

// Hub manages all active conversation channels and their clients. A channel
// key is either a group channel or a normalized direct-message channel.
type Hub struct {
	channels map[string]map[Client]bool
	mu       sync.RWMutex
}

// GlobalHub is the singleton instance of our Hub.
var GlobalHub = NewHub()

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		channels: make(map[string]map[Client]bool),
	}
}

// GroupChannel is the hub key for a group conversation.
func GroupChannel(groupID uint) string {
	return fmt.Sprintf("group:%d", groupID)
}

// DirectChannel is the hub key for a direct conversation. The pair is
// normalized so both parties subscribe to the same channel.
func DirectChannel(a, b uint) string {
	lo, hi := models.NormalizePair(a, b)
	return fmt.Sprintf("dm:%d:%d", lo, hi)
}

// Subscribe adds a new client to a conversation channel.
func (h *Hub) Subscribe(channel string, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.channels[channel]; !ok {
		h.channels[channel] = make(map[Client]bool)
	}
	h.channels[channel][client] = true
}

// Unsubscribe removes a client from a channel.
func (h *Hub) Unsubscribe(channel string, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.channels[channel]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client) // Close the channel to signal the SSE handler to stop.
			if len(clients) == 0 {
				delete(h.channels, channel)
			}
		}
	}
}

// Broadcast sends an event to all clients on a conversation channel.
func (h *Hub) Broadcast(channel string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.channels[channel]; ok {
		messageBytes, err := json.Marshal(event)
		if err != nil {
			// Handle error appropriately, maybe log it
			return
		}

		for client := range clients {
			// Use a non-blocking send to prevent a slow client from blocking the hub.
			select {
			case client <- messageBytes:
			default:
				// Client channel is full, maybe they are disconnected or slow.
				// The unsubscribe logic will handle cleaning this up eventually.
			}
		}
	}
}
