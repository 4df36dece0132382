package hmr

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// SocketPath is where the hub is mounted, relative to the public base.
	SocketPath = "__ssr_reload"

	sendBuffer   = 8
	writeTimeout = 5 * time.Second
	pingInterval = 30 * time.Second
)

// Config configures a Hub.
type Config struct {
	Logger zerolog.Logger
	// CheckOrigin overrides the upgrader's origin check. Nil accepts any origin.
	CheckOrigin func(r *http.Request) bool
}

type client struct {
	conn *websocket.Conn
	send chan Payload
	once sync.Once
}

func (c *client) stop() {
	c.once.Do(func() { close(c.send) })
}

// Hub tracks connected browsers and fans payloads out to them.
type Hub struct {
	log      zerolog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

// NewHub creates an empty Hub.
func NewHub(cfg Config) *Hub {
	check := cfg.CheckOrigin
	if check == nil {
		check = func(*http.Request) bool { return true }
	}
	return &Hub{
		log:      cfg.Logger,
		upgrader: websocket.Upgrader{CheckOrigin: check},
		clients:  make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request and keeps the connection registered until
// the browser goes away or the hub is closed.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an error response.
		h.log.Debug().Err(err).Msg("reload socket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan Payload, sendBuffer)}
	c.send <- Payload{Type: TypeConnected}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	h.log.Debug().Int("clients", count).Msg("reload client connected")

	go h.writeLoop(c)
	h.readLoop(c)
}

// readLoop drains control frames until the connection fails.
func (h *Hub) readLoop(c *client) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case p, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteJSON(p); err != nil {
				h.remove(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(c)
				return
			}
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if ok {
		c.stop()
		h.log.Debug().Msg("reload client disconnected")
	}
}

// Send queues p for every connected client. A client whose queue is full is
// disconnected instead of blocking the sender.
func (h *Hub) Send(p Payload) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHubClosed
	}
	for c := range h.clients {
		select {
		case c.send <- p:
		default:
			delete(h.clients, c)
			c.stop()
			h.log.Warn().Msg("dropping slow reload client")
		}
	}
	return nil
}

// FullReload sends a full-reload payload to every client.
func (h *Hub) FullReload() error {
	return h.Send(FullReload())
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client. Later Sends fail with ErrHubClosed.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		c.stop()
	}
	return nil
}
