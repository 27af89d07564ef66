package sse

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// EventType defines the SSE event name.
type EventType string

const (
	EventNotification EventType = "notification"
	EventCartCount    EventType = "cart.count"
)

// Event is the payload streamed to a session's browser tabs.
type Event struct {
	Event     EventType `json:"event"`
	Level     string    `json:"level,omitempty"`
	Message   string    `json:"message,omitempty"`
	Count     *int      `json:"count,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Client represents one connected SSE stream.
type Client struct {
	ID        string
	SessionID string
	Events    chan []byte
}

// Hub manages SSE connections grouped by session. A session may have several
// tabs open; every tab receives the session's events.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[string]*Client
	total    int
}

// NewHub creates a new SSE hub.
func NewHub() *Hub {
	return &Hub{
		sessions: make(map[string]map[string]*Client),
	}
}

// Register adds a new stream for sessionID and returns it.
func (h *Hub) Register(sessionID, clientID string) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	c := &Client{
		ID:        clientID,
		SessionID: sessionID,
		Events:    make(chan []byte, 64),
	}
	tabs, ok := h.sessions[sessionID]
	if !ok {
		tabs = make(map[string]*Client)
		h.sessions[sessionID] = tabs
	}
	tabs[clientID] = c
	h.total++
	log.Info().Str("client_id", clientID).Int("total_clients", h.total).Msg("SSE client connected")
	return c
}

// Unregister removes a stream and closes its channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	tabs, ok := h.sessions[c.SessionID]
	if !ok {
		return
	}
	if _, ok := tabs[c.ID]; !ok {
		return
	}
	close(c.Events)
	delete(tabs, c.ID)
	if len(tabs) == 0 {
		delete(h.sessions, c.SessionID)
	}
	h.total--
	log.Info().Str("client_id", c.ID).Int("total_clients", h.total).Msg("SSE client disconnected")
}

// Send delivers an event to every stream of sessionID.
// Non-blocking: drops the message for a stream whose buffer is full.
func (h *Hub) Send(sessionID string, event *Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	tabs := h.sessions[sessionID]
	if len(tabs) == 0 {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal SSE event")
		return
	}

	for _, c := range tabs {
		select {
		case c.Events <- data:
		default:
			log.Warn().Str("client_id", c.ID).Msg("SSE client buffer full, dropping event")
		}
	}
}

// ClientCount returns the number of connected streams.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.total
}
