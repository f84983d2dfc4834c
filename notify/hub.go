package notify

import (
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/moyoez/shareit-go/tool"
	"github.com/moyoez/shareit-go/types"
)

// WriteTimeout bounds one notification write. A client that stops reading is dropped after it.
var WriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // OnlyAllowLocal middleware already restricts to localhost
	},
}

// client serialises writes, gorilla connections allow one concurrent writer.
type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(WriteTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub holds WebSocket connections and broadcasts notifications to all clients.
type Hub struct {
	mu    sync.RWMutex
	conns map[*websocket.Conn]*client
}

// NewHub creates a new notify hub.
func NewHub() *Hub {
	return &Hub{
		conns: make(map[*websocket.Conn]*client),
	}
}

// Register adds a WebSocket connection to the hub.
func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = &client{conn: conn}
}

// Unregister removes a WebSocket connection from the hub.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Broadcast sends the notification as JSON to all registered connections.
func (h *Hub) Broadcast(notification *types.Notification) {
	if notification == nil {
		return
	}
	payload, err := sonic.Marshal(notification)
	if err != nil {
		tool.DefaultLogger.Errorf("Failed to encode notification: %v", err)
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.conns))
	for _, c := range h.conns {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.write(payload); err != nil {
			tool.DefaultLogger.Debugf("Dropping notify client %s: %v", c.conn.RemoteAddr(), err)
			h.Unregister(c.conn)
			_ = c.conn.Close()
		}
	}
}

// HandleWS upgrades the request to WebSocket and registers the connection with the hub.
func HandleWS(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		hub.Register(conn)
		defer hub.Unregister(conn)

		// Read loop to detect client close and keep connection alive
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}
}
