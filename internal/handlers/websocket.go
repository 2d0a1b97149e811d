package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"skillbridge-admin/internal/models"
	"skillbridge-admin/internal/sessions"
	"skillbridge-admin/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Origin is checked by the CORS layer in front of the API
		return true
	},
}

// Hub fans out created notifications to every connected admin dashboard.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	mutex      sync.RWMutex
}

type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	adminID string
}

type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
	}
}

func (hub *Hub) Run() {
	for {
		select {
		case <-hub.done:
			hub.mutex.Lock()
			for client := range hub.clients {
				close(client.send)
				delete(hub.clients, client)
			}
			hub.mutex.Unlock()
			return

		case client := <-hub.register:
			hub.mutex.Lock()
			hub.clients[client] = true
			hub.mutex.Unlock()
			log.Debugf("admin %s connected to notification stream", client.adminID)

		case client := <-hub.unregister:
			hub.mutex.Lock()
			if _, ok := hub.clients[client]; ok {
				delete(hub.clients, client)
				close(client.send)
			}
			hub.mutex.Unlock()
			log.Debugf("admin %s disconnected from notification stream", client.adminID)

		case message := <-hub.broadcast:
			hub.mutex.RLock()
			for client := range hub.clients {
				select {
				case client.send <- message:
				default:
					// Slow client; drop the frame rather than block delivery
				}
			}
			hub.mutex.RUnlock()
		}
	}
}

func (hub *Hub) Shutdown() {
	close(hub.done)
}

// Register hands a client to the run loop. Returns false when the hub has
// already shut down, so callers do not block on a dead channel.
func (hub *Hub) Register(client *Client) bool {
	select {
	case hub.register <- client:
		return true
	case <-hub.done:
		return false
	}
}

func (hub *Hub) Unregister(client *Client) {
	select {
	case hub.unregister <- client:
	case <-hub.done:
	}
}

func (hub *Hub) ConnectionsCount() int {
	hub.mutex.RLock()
	defer hub.mutex.RUnlock()
	return len(hub.clients)
}

// BroadcastNotification implements the realtime delivery channel.
func (hub *Hub) BroadcastNotification(n *models.Notification) {
	message, err := json.Marshal(WSMessage{
		Type: "notification",
		Data: n,
	})
	if err != nil {
		log.Errorf("failed to marshal notification for broadcast: %v", err)
		return
	}

	select {
	case hub.broadcast <- message:
	case <-hub.done:
	}
}

type WebSocketHandler struct {
	hub        *Hub
	jwtManager *auth.JWTManager
	registry   *sessions.Registry
}

func NewWebSocketHandler(hub *Hub, jwtManager *auth.JWTManager, registry *sessions.Registry) *WebSocketHandler {
	return &WebSocketHandler{
		hub:        hub,
		jwtManager: jwtManager,
		registry:   registry,
	}
}

// HandleWebSocket upgrades an admin dashboard connection. The token comes as
// a query parameter since browsers cannot set headers on websocket upgrades.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Token is required",
		})
		return
	}

	claims, err := h.jwtManager.ValidateToken(token)
	if err != nil || !claims.IsAdmin {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid token",
		})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Errorf("websocket upgrade failed: %v", err)
		return
	}

	h.registry.Heartbeat(claims.AdminID)

	client := &Client{
		hub:     h.hub,
		conn:    conn,
		send:    make(chan []byte, 32),
		adminID: claims.AdminID,
	}
	if !h.hub.Register(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(h.registry)
}

func (c *Client) readPump(registry *sessions.Registry) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		registry.Heartbeat(c.adminID)
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debugf("websocket read error for admin %s: %v", c.adminID, err)
			}
			return
		}
		registry.Heartbeat(c.adminID)
	}
}

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
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
