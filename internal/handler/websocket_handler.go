// internal/handler/websocket_handler.go
package handler

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"order-printer/internal/model"
	"order-printer/internal/service"
	"order-printer/internal/utils"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 54 * time.Second
	wsSendBuffer   = 256
)

// WebSocketHandler streams printer and print events to WebSocket clients
type WebSocketHandler struct {
	upgrader    websocket.Upgrader
	connections *ConnectionManager
	service     *service.PrintService
	logger      *utils.ServiceLogger

	unsubscribe func()
	done        chan struct{}
	closeOnce   sync.Once
}

// NewWebSocketHandler creates a WebSocket handler fed by events. Origins are
// matched against allowedOrigins; "*" allows any origin.
func NewWebSocketHandler(
	printService *service.PrintService,
	events *service.EventBus,
	allowedOrigins []string,
	logger *zap.Logger,
) *WebSocketHandler {
	h := &WebSocketHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		connections: NewConnectionManager(),
		service:     printService,
		logger:      utils.NewServiceLogger(logger, "websocket-handler"),
		done:        make(chan struct{}),
	}

	ch, unsubscribe := events.Subscribe()
	h.unsubscribe = unsubscribe
	go h.forward(ch)

	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// RegisterRoutes registers WebSocket routes
func (h *WebSocketHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/ws", h.HandleEventConnection)
}

// HandleEventConnection upgrades the request and streams events. The
// optional target query parameter limits the stream to one printer.
// @Summary Event stream
// @Description Stream printer status and print job events over WebSocket
// @Tags Events
// @Param target query string false "Only stream events of this printer"
// @Router /ws [get]
func (h *WebSocketHandler) HandleEventConnection(c *gin.Context) {
	target := c.Query("target")
	if target != "" {
		if _, err := h.service.Status(target); err != nil {
			writeError(c, err)
			return
		}
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}

	client := &Client{
		ID:          uuid.New().String(),
		Connection:  conn,
		Send:        make(chan []byte, wsSendBuffer),
		Target:      target,
		UserAgent:   c.Request.UserAgent(),
		RemoteAddr:  c.Request.RemoteAddr,
		ConnectedAt: time.Now(),
	}

	h.connections.Register(client)
	h.logger.Info("Event WebSocket client connected",
		zap.String("client_id", client.ID),
		zap.String("printer_target", target),
		zap.String("remote_addr", client.RemoteAddr),
	)

	h.sendInitialStatus(client)

	go h.handleClientRead(client)
	go h.handleClientWrite(client)
}

// forward relays bus events to connected clients until the bus closes ch
func (h *WebSocketHandler) forward(ch <-chan model.Event) {
	defer close(h.done)
	for event := range ch {
		h.broadcastEvent(event)
	}
}

func (h *WebSocketHandler) broadcastEvent(event model.Event) {
	payload, err := json.Marshal(&WebSocketMessage{
		Type:      "event",
		Data:      event,
		Timestamp: event.Timestamp,
	})
	if err != nil {
		h.logger.Error("Failed to marshal broadcast message", zap.Error(err))
		return
	}

	if dropped := h.connections.Deliver(event, payload); dropped > 0 {
		h.logger.Warn("Client send channel full during broadcast",
			zap.String("event_type", string(event.Type)),
			zap.Int("dropped", dropped),
		)
	}
}

// handleClientRead handles reading messages from WebSocket client
func (h *WebSocketHandler) handleClientRead(client *Client) {
	defer func() {
		h.connections.Unregister(client)
		client.Connection.Close()
	}()

	client.Connection.SetReadDeadline(time.Now().Add(wsReadTimeout))
	client.Connection.SetPongHandler(func(string) error {
		client.Connection.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

	for {
		_, messageBytes, err := client.Connection.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("WebSocket read error",
					zap.Error(err),
					zap.String("client_id", client.ID),
				)
			}
			break
		}

		var message WebSocketMessage
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			h.sendError(client, "invalid message")
			continue
		}

		h.handleClientMessage(client, &message)
	}
}

// handleClientWrite handles writing messages to WebSocket client
func (h *WebSocketHandler) handleClientWrite(client *Client) {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		client.Connection.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Connection.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if !ok {
				client.Connection.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Connection.WriteMessage(websocket.TextMessage, message); err != nil {
				h.logger.Debug("WebSocket write error",
					zap.Error(err),
					zap.String("client_id", client.ID),
				)
				return
			}

		case <-ticker.C:
			client.Connection.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := client.Connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleClientMessage handles incoming client messages
func (h *WebSocketHandler) handleClientMessage(client *Client, message *WebSocketMessage) {
	switch message.Type {
	case "subscribe", "unsubscribe":
		topic, ok := messageTopic(message)
		if !ok {
			h.sendError(client, "topic is required")
			return
		}
		if message.Type == "subscribe" {
			client.Subscribe(topic)
		} else {
			client.Unsubscribe(topic)
		}
		h.sendMessage(client, &WebSocketMessage{
			Type:      message.Type + "_confirmed",
			Data:      map[string]interface{}{"topic": topic},
			Timestamp: time.Now(),
			RequestID: message.RequestID,
		})
	case "subscribe_all":
		client.SubscribeAll()
		h.sendMessage(client, &WebSocketMessage{
			Type:      "subscribe_all_confirmed",
			Timestamp: time.Now(),
			RequestID: message.RequestID,
		})
	case "session":
		h.sendMessage(client, &WebSocketMessage{
			Type:      "session",
			Data:      h.service.Session(),
			Timestamp: time.Now(),
			RequestID: message.RequestID,
		})
	case "ping":
		h.sendMessage(client, &WebSocketMessage{
			Type:      "pong",
			Timestamp: time.Now(),
			RequestID: message.RequestID,
		})
	default:
		h.sendError(client, "unknown message type: "+message.Type)
	}
}

func messageTopic(message *WebSocketMessage) (model.EventType, bool) {
	data, ok := message.Data.(map[string]interface{})
	if !ok {
		return "", false
	}
	topic, ok := data["topic"].(string)
	if !ok || topic == "" {
		return "", false
	}
	return model.EventType(topic), true
}

// sendInitialStatus sends the session and printer list to a new client
func (h *WebSocketHandler) sendInitialStatus(client *Client) {
	h.sendMessage(client, &WebSocketMessage{
		Type: "initial_status",
		Data: map[string]interface{}{
			"session":  h.service.Session(),
			"printers": h.service.Devices(),
		},
		Timestamp: time.Now(),
	})
}

// sendMessage sends a message to a client
func (h *WebSocketHandler) sendMessage(client *Client, message *WebSocketMessage) {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal WebSocket message", zap.Error(err))
		return
	}

	if !h.connections.Send(client, messageBytes) {
		h.logger.Warn("Dropping message for client",
			zap.String("client_id", client.ID),
			zap.String("type", message.Type),
		)
	}
}

// sendError sends an error message to a client
func (h *WebSocketHandler) sendError(client *Client, errorMsg string) {
	h.sendMessage(client, &WebSocketMessage{
		Type:      "error",
		Data:      map[string]interface{}{"error": errorMsg},
		Timestamp: time.Now(),
	})
}

// GetConnectionStats returns connection statistics
func (h *WebSocketHandler) GetConnectionStats() *ConnectionStats {
	return h.connections.GetStats()
}

// Close stops the event stream and disconnects every client
func (h *WebSocketHandler) Close() {
	h.closeOnce.Do(func() {
		h.unsubscribe()
		<-h.done
		h.connections.CloseAll()
	})
}
