package sse

import "time"

// Notification levels.
const (
	LevelSuccess = "success"
	LevelError   = "error"
	LevelInfo    = "info"
)

// Notifier is the interface services use to reach a session's browser.
type Notifier interface {
	Notify(sessionID, level, message string)
	CartCount(sessionID string, count int)
}

// HubNotifier implements Notifier using the SSE Hub.
type HubNotifier struct {
	hub *Hub
}

// NewHubNotifier creates a notifier backed by the given Hub.
func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) Notify(sessionID, level, message string) {
	n.hub.Send(sessionID, &Event{
		Event:     EventNotification,
		Level:     level,
		Message:   message,
		Timestamp: time.Now(),
	})
}

func (n *HubNotifier) CartCount(sessionID string, count int) {
	n.hub.Send(sessionID, &Event{
		Event:     EventCartCount,
		Count:     &count,
		Timestamp: time.Now(),
	})
}

// NopNotifier is a no-op implementation for when SSE is not needed.
type NopNotifier struct{}

func (NopNotifier) Notify(sessionID, level, message string) {}
func (NopNotifier) CartCount(sessionID string, count int)   {}
