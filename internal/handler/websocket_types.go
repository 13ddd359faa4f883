// internal/handler/websocket_types.go
package handler

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"order-printer/internal/model"
)

// Client represents a WebSocket client
type Client struct {
	ID          string          `json:"id"`
	Connection  *websocket.Conn `json:"-"`
	Send        chan []byte     `json:"-"`
	Target      string          `json:"target,omitempty"` // empty follows every printer
	UserAgent   string          `json:"user_agent"`
	RemoteAddr  string          `json:"remote_addr"`
	ConnectedAt time.Time       `json:"connected_at"`

	mutex         sync.RWMutex
	filtered      bool
	subscriptions map[model.EventType]bool
}

// Subscribe limits the client to events of type t, in addition to any
// earlier subscriptions
func (c *Client) Subscribe(t model.EventType) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.subscriptions == nil {
		c.subscriptions = make(map[model.EventType]bool)
	}
	c.filtered = true
	c.subscriptions[t] = true
}

// Unsubscribe removes a subscription. The client stays filtered, so
// dropping the last topic silences it until SubscribeAll.
func (c *Client) Unsubscribe(t model.EventType) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.filtered = true
	delete(c.subscriptions, t)
}

// SubscribeAll clears every subscription and returns the client to
// receiving all event types
func (c *Client) SubscribeAll() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.filtered = false
	c.subscriptions = nil
}

// Wants reports whether event should be delivered to the client. A client
// that never subscribed receives every event type.
func (c *Client) Wants(event model.Event) bool {
	if c.Target != "" && event.Target != "" && c.Target != event.Target {
		return false
	}
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return !c.filtered || c.subscriptions[event.Type]
}

// WebSocketMessage represents a WebSocket message
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// ConnectionManager tracks connected WebSocket clients
type ConnectionManager struct {
	clients map[string]*Client
	mutex   sync.RWMutex
}

// NewConnectionManager creates a new connection manager
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{clients: make(map[string]*Client)}
}

// Register registers a new client
func (cm *ConnectionManager) Register(client *Client) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	cm.clients[client.ID] = client
}

// Unregister removes a client and closes its send channel
func (cm *ConnectionManager) Unregister(client *Client) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	if _, ok := cm.clients[client.ID]; ok {
		delete(cm.clients, client.ID)
		close(client.Send)
	}
}

// Send queues payload for one registered client without blocking. It
// reports false if the client is gone or its buffer is full.
func (cm *ConnectionManager) Send(client *Client, payload []byte) bool {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	if _, ok := cm.clients[client.ID]; !ok {
		return false
	}
	select {
	case client.Send <- payload:
		return true
	default:
		return false
	}
}

// Deliver queues payload for every client accepting event without blocking.
// It returns the number of clients whose buffer was full.
func (cm *ConnectionManager) Deliver(event model.Event, payload []byte) int {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	dropped := 0
	for _, client := range cm.clients {
		if !client.Wants(event) {
			continue
		}
		select {
		case client.Send <- payload:
		default:
			dropped++
		}
	}
	return dropped
}

// CloseAll unregisters every client
func (cm *ConnectionManager) CloseAll() {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	for id, client := range cm.clients {
		delete(cm.clients, id)
		close(client.Send)
	}
}

// GetStats returns connection statistics
func (cm *ConnectionManager) GetStats() *ConnectionStats {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	stats := &ConnectionStats{
		TotalConnections: len(cm.clients),
		ByTarget:         make(map[string]int),
		Clients:          make([]*Client, 0, len(cm.clients)),
	}

	for _, client := range cm.clients {
		target := client.Target
		if target == "" {
			target = "*"
		}
		stats.ByTarget[target]++
		stats.Clients = append(stats.Clients, client)
	}

	return stats
}

// ConnectionStats represents connection statistics
type ConnectionStats struct {
	TotalConnections int            `json:"total_connections"`
	ByTarget         map[string]int `json:"by_target"`
	Clients          []*Client      `json:"clients"`
}
