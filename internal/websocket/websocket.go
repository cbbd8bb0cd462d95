// Package websocket carries live form changes from browsers to the draft
// writer and pushes system messages back to every connected browser.
package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/abrezinsky/bisadmin/internal/drafts"
	"github.com/abrezinsky/bisadmin/internal/logger"
	"github.com/abrezinsky/bisadmin/internal/models"
)

// Message types
const (
	TypeFormChange    = "form_change"
	TypeFormDiscard   = "form_discard"
	TypeSystemMessage = "system_message"
	TypeError         = "error"
)

const (
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	writeWait      = 10 * time.Second
	maxMessageSize = 1 << 20
	sendBuffer     = 256
)

// DraftSink receives form changes sent over the socket
type DraftSink interface {
	Submit(ev drafts.ChangeEvent) error
	Clear(ctx context.Context, kind, id string) error
}

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	log        logger.Logger
	drafts     DraftSink
	upgrader   websocket.Upgrader
	origins    map[string]bool
	clients    map[*Client]bool
	broadcast  chan models.WSMessage
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
}

// Client is a middleman between the websocket connection and the hub
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan models.WSMessage
	// closed is set together with close(send), both under hub.mutex
	closed bool
}

// socketKinds are the drafts an organizer session may write over the
// socket. Public registration drafts go through their own HTTP endpoints.
var socketKinds = map[string]bool{
	drafts.KindEvent:       true,
	drafts.KindOpportunity: true,
	drafts.KindLocation:    true,
}

// New creates a new Hub instance with injected dependencies
func New(log logger.Logger, sink DraftSink) *Hub {
	h := &Hub{
		log:        log,
		drafts:     sink,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan models.WSMessage, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: h.checkOrigin}
	return h
}

// SetAllowedOrigins restricts which browser origins may connect. An empty
// list allows any origin.
func (h *Hub) SetAllowedOrigins(origins []string) {
	h.origins = make(map[string]bool, len(origins))
	for _, o := range origins {
		h.origins[o] = true
	}
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.origins) == 0 || h.origins["*"] {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || h.origins[origin]
}

// Start begins the hub's main loop in a goroutine. The loop stops and
// disconnects every client when ctx is done.
func (h *Hub) Start(ctx context.Context) {
	go h.run(ctx)
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// run handles client registration/unregistration and message broadcasting
func (h *Hub) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				client.closeSend()
			}
			h.mutex.Unlock()
			h.log.Debug("WebSocket hub stopped")
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.log.Debug("Client connected", "total_clients", total)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closeSend()
			}
			total := len(h.clients)
			h.mutex.Unlock()
			h.log.Debug("Client disconnected", "total_clients", total)

		case message := <-h.broadcast:
			h.mutex.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client's send channel is full, unregister
					go func(c *Client) {
						h.unregister <- c
					}(client)
				}
			}
			h.mutex.RUnlock()
		}
	}
}

// BroadcastMessage sends a message to all connected clients. Messages are
// dropped when the hub is too far behind.
func (h *Hub) BroadcastMessage(msgType string, payload interface{}) {
	select {
	case h.broadcast <- models.WSMessage{Type: msgType, Payload: payload}:
	default:
		h.log.Warn("Dropping broadcast, hub is busy", "type", msgType)
	}
}

// BroadcastSystemMessage implements services.Broadcaster
func (h *Hub) BroadcastSystemMessage(level, text string) {
	h.BroadcastMessage(TypeSystemMessage, models.SystemMessage{Level: level, Message: text})
}

// formDiscard asks to drop a stored draft
type formDiscard struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// handle processes one incoming message from a client
func (c *Client) handle(data []byte) {
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		c.reply(TypeError, "invalid message: "+err.Error())
		return
	}

	switch msg.Type {
	case TypeFormChange:
		var ev drafts.ChangeEvent
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			c.reply(TypeError, "invalid form change: "+err.Error())
			return
		}
		if !socketKinds[ev.Kind] {
			c.reply(TypeError, "unsupported form kind: "+ev.Kind)
			return
		}
		if err := c.hub.drafts.Submit(ev); err != nil {
			c.reply(TypeError, err.Error())
		}
	case TypeFormDiscard:
		var d formDiscard
		if err := json.Unmarshal(msg.Payload, &d); err != nil || d.Kind == "" || d.ID == "" {
			c.reply(TypeError, "invalid form discard")
			return
		}
		if !socketKinds[d.Kind] {
			c.reply(TypeError, "unsupported form kind: "+d.Kind)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		defer cancel()
		if err := c.hub.drafts.Clear(ctx, d.Kind, d.ID); err != nil {
			c.reply(TypeError, err.Error())
		}
	default:
		c.hub.log.Debug("Ignoring message", "type", msg.Type)
	}
}

// closeSend closes the send channel once. Callers hold hub.mutex.
func (c *Client) closeSend() {
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// reply queues a message for this client only. Replies to a client the
// hub already dropped are discarded.
func (c *Client) reply(msgType, text string) {
	c.hub.mutex.RLock()
	defer c.hub.mutex.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.send <- models.WSMessage{Type: msgType, Payload: map[string]string{"message": text}}:
	default:
	}
}

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("WebSocket error", "error", err)
			}
			break
		}
		c.handle(message)
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			msgBytes, err := json.Marshal(message)
			if err != nil {
				c.hub.log.Error("Failed to encode message", "type", message.Type, "error", err)
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msgBytes); err != nil {
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

// ServeWs handles websocket requests from clients. Routes mount it behind
// the admin session check.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("WebSocket upgrade error", "error", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan models.WSMessage, sendBuffer),
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}
