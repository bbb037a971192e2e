// Package realtime is the websocket transport for live notifications.
package realtime

import (
	"context"
	"net/http"
	"sort"
	"sync"

	"socialhub/services"
	"socialhub/utils"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	MessageTypePing = "ping"
	MessageTypePong = "pong"
)

// Message is the frame exchanged over the socket.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Presence receives connection lifecycle callbacks.
type Presence interface {
	Register(userID string, session services.Session)
	Unregister(session services.Session)
}

// Hub owns websocket connections: it upgrades requests, registers each
// connection with presence and unregisters it on disconnect.
type Hub struct {
	presence Presence
	upgrader websocket.Upgrader
	clients  map[*Client]bool
	mu       sync.Mutex
	logger   zerolog.Logger
}

// NewHub creates a hub. An empty allowedOrigins list accepts any origin.
func NewHub(presence Presence, allowedOrigins []string) *Hub {
	h := &Hub{
		presence: presence,
		clients:  make(map[*Client]bool),
		logger:   utils.Logger("realtime"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, origin := range allowed {
		set[origin] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(set) == 0 || set["*"] {
			return true
		}
		return set[origin]
	}
}

// ServeWS upgrades the request and registers the connection for userID.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := newClient(h, conn, userID)
	h.attach(client)
	client.start()
	return nil
}

func (h *Hub) attach(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	total := len(h.clients)
	h.mu.Unlock()

	h.presence.Register(c.userID, c)
	h.logger.Info().Str("user_id", c.userID).Str("session_id", c.id).Int("total_clients", total).Msg("websocket client connected")
}

// Detach unregisters the client and stops its pumps. Safe to call repeatedly.
func (h *Hub) Detach(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	total := len(h.clients)
	h.mu.Unlock()

	h.presence.Unregister(c)
	c.close()

	if ok {
		h.logger.Info().Str("user_id", c.userID).Str("session_id", c.id).Int("total_clients", total).Msg("websocket client disconnected")
	}
}

// ClientCount returns the number of attached connections.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// RunWithContext blocks until ctx is done and then disconnects every client.
func (h *Hub) RunWithContext(ctx context.Context) error {
	<-ctx.Done()

	closed := h.closeAll()
	h.logger.Info().
		Str("reason", shutdownReason(ctx)).
		Int("clients_closed", closed).
		Msg("websocket hub stopped")
	return ctx.Err()
}

func (h *Hub) closeAll() int {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })
	for _, c := range clients {
		h.Detach(c)
	}
	return len(clients)
}

func shutdownReason(ctx context.Context) string {
	if ctx.Err() == context.DeadlineExceeded {
		return "context_deadline"
	}
	return "context_canceled"
}
