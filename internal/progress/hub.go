package progress

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// local tool, GUI connects from file:// origins
		return true
	},
}

// Hub pushes progress lines to a single connected GUI client. A newly
// connected client replaces the previous one; with nothing connected,
// broadcasts are dropped silently.
type Hub struct {
	client     *client
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
}

type client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	isActive bool
}

// Message is the wire envelope for one progress line.
type Message struct {
	Type      string `json:"type"`
	Data      Line   `json:"data"`
	Timestamp int64  `json:"timestamp"`
}

// NewHub creates a hub; Run must be started for it to do anything.
func NewHub() *Hub {
	return &Hub{
		client:     &client{isActive: false},
		broadcast:  make(chan []byte, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
	}
}

// Run services the hub's channels until the broadcast channel is closed.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.client = c
			h.client.isActive = true
			slog.Info("progress client connected")

		case c := <-h.unregister:
			// a replaced client may still unregister; only the
			// current one counts
			if c == h.client {
				h.client.isActive = false
				slog.Info("progress client disconnected")
			}

		case message, ok := <-h.broadcast:
			if !ok {
				if h.client.isActive {
					close(h.client.send)
				}
				return
			}
			if !h.client.isActive {
				continue
			}
			select {
			case h.client.send <- message:
			default:
				close(h.client.send)
				h.client.isActive = false
			}
		}
	}
}

// Close stops the run loop and disconnects the client.
func (h *Hub) Close() {
	close(h.broadcast)
}

// Broadcast queues one progress line for the connected client. Never blocks.
func (h *Hub) Broadcast(line Line) {
	msg := Message{
		Type:      "progress",
		Data:      line,
		Timestamp: time.Now().Unix(),
	}

	jsonData, err := json.Marshal(msg)
	if err != nil {
		slog.Warn("failed to marshal progress message", "error", err)
		return
	}

	select {
	case h.broadcast <- jsonData:
	default:
		slog.Debug("broadcast channel full, dropping progress line")
	}
}

// ServeWS upgrades an HTTP request to a websocket connection and attaches
// it to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		isActive: true,
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, 256),
	}

	c.hub.register <- c

	go c.writePump()
	go c.readPump()
}

func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
