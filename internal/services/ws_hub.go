package services

import (
	"sync"
	"time"

	"aqi-map-backend/internal/metrics"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Live feed message types
const (
	MessageMarkerCreated  = "marker_created"
	MessagePotholeCreated = "pothole_created"
	MessagePing           = "ping"
	MessagePong           = "pong"
	MessageError          = "error"
)

const (
	clientSendBuffer = 32
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMessageSize   = 4096
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// WSClient is one live feed subscriber
type WSClient struct {
	ID   string
	hub  *WSHub
	conn *websocket.Conn
	send chan []byte
}

// WSHub fans out marker events to connected clients
type WSHub struct {
	mu      sync.RWMutex
	clients map[string]*WSClient
	closed  bool
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		clients: make(map[string]*WSClient),
	}
}

// Register adds a connection to the hub and starts its writer
func (h *WSHub) Register(conn *websocket.Conn) *WSClient {
	client := &WSClient{
		ID:   uuid.New().String(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, clientSendBuffer),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		close(client.send)
		return client
	}
	h.clients[client.ID] = client
	h.mu.Unlock()

	metrics.WebSocketClients.Inc()
	log.Info().Str("client_id", client.ID).Msg("WebSocket connection registered")

	go client.writePump()
	return client
}

// Unregister removes a client and stops its writer
func (h *WSHub) Unregister(client *WSClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.clients[client.ID]; !exists {
		return
	}
	delete(h.clients, client.ID)
	close(client.send)

	metrics.WebSocketClients.Dec()
	log.Info().Str("client_id", client.ID).Msg("WebSocket connection unregistered")
}

// Broadcast sends a message to every connected client. Clients whose buffer is
// full miss the message.
func (h *WSHub) Broadcast(msgType string, data interface{}) {
	payload, err := json.Marshal(WSMessage{Type: msgType, Data: data})
	if err != nil {
		log.Error().Err(err).Str("type", msgType).Msg("Failed to marshal broadcast")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		select {
		case client.send <- payload:
		default:
			metrics.WebSocketDropped.Inc()
			log.Warn().Str("client_id", client.ID).Msg("Dropping message for slow client")
		}
	}
}

// SendTo queues a message for a single client
func (h *WSHub) SendTo(clientID string, message WSMessage) bool {
	payload, err := json.Marshal(message)
	if err != nil {
		log.Error().Err(err).Str("type", message.Type).Msg("Failed to marshal message")
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	client, exists := h.clients[clientID]
	if !exists {
		return false
	}
	select {
	case client.send <- payload:
		return true
	default:
		metrics.WebSocketDropped.Inc()
		return false
	}
}

// Count returns the number of connected clients
func (h *WSHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new registrations
func (h *WSHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for id, client := range h.clients {
		delete(h.clients, id)
		close(client.send)
		metrics.WebSocketClients.Dec()
	}
}

// ReadPump reads client messages until the connection fails, answering pings.
// It unregisters the client on return.
func (c *WSClient) ReadPump() {
	defer c.hub.Unregister(c)

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Str("client_id", c.ID).Msg("WebSocket read error")
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.hub.SendTo(c.ID, WSMessage{Type: MessageError, Message: "Invalid message format"})
			continue
		}

		switch msg.Type {
		case MessagePing:
			c.hub.SendTo(c.ID, WSMessage{Type: MessagePong})
		default:
			c.hub.SendTo(c.ID, WSMessage{Type: MessageError, Message: "Unknown message type"})
		}
	}
}

func (c *WSClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Error().Err(err).Str("client_id", c.ID).Msg("WebSocket write error")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
