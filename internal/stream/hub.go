package stream

import (
	"context"
	"net/http"
	"sync"
	"time"

	"reactivate/api/internal/events"
	"reactivate/api/internal/metrics"
	"reactivate/api/internal/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 5 * time.Second

// LeaderboardSource is satisfied by services.LeaderboardService.
type LeaderboardSource interface {
	GetLeaderboard(ctx context.Context, live bool) ([]models.LeaderboardEntry, error)
}

// Frame is what clients receive. Event is nil for the snapshot sent on connect.
type Frame struct {
	Type    string                    `json:"type"`
	Event   *models.CompletionEvent   `json:"event,omitempty"`
	Entries []models.LeaderboardEntry `json:"entries"`
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(frame Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(frame)
}

// Hub keeps the connected leaderboard clients and pushes a fresh leaderboard
// to all of them after every completion.
type Hub struct {
	source   LeaderboardSource
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
}

func NewHub(source LeaderboardSource, logger *zap.Logger) *Hub {
	return &Hub{
		source: source,
		logger: logger,
		// CORS is open on the REST routes too
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:  make(map[*client]struct{}),
	}
}

// ServeWS upgrades the request and streams until the client goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	// the server's read/write timeouts survive the hijack
	_ = conn.SetReadDeadline(time.Time{})
	c := &client{conn: conn}

	entries, err := h.source.GetLeaderboard(r.Context(), false)
	if err != nil {
		h.logger.Error("failed to load leaderboard snapshot", zap.Error(err))
		_ = conn.Close()
		return
	}
	if err := c.send(Frame{Type: "snapshot", Entries: entries}); err != nil {
		_ = conn.Close()
		return
	}

	h.add(c)
	defer h.remove(c)

	// clients only listen; reading is how we notice they left
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// HandleEvent broadcasts the leaderboard as it stands after ev.
func (h *Hub) HandleEvent(ev models.CompletionEvent) {
	if h.Clients() == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	entries, err := h.source.GetLeaderboard(ctx, false)
	if err != nil {
		h.logger.Error("failed to load leaderboard for broadcast", zap.Error(err))
		return
	}
	h.Broadcast(Frame{Type: "leaderboard", Event: &ev, Entries: entries})
}

func (h *Hub) Broadcast(frame Frame) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.send(frame); err != nil {
			h.logger.Debug("dropping leaderboard client", zap.Error(err))
			h.remove(c)
		}
	}
}

// Run feeds completion events from bus into the hub until ctx is done.
func (h *Hub) Run(ctx context.Context, bus events.Bus) error {
	return bus.Subscribe(ctx, h.HandleEvent)
}

// Close disconnects every client. Hijacked connections are not closed by
// http.Server.Shutdown.
func (h *Hub) Close() {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		h.remove(c)
	}
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	metrics.StreamClientConnected()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		metrics.StreamClientDisconnected()
		_ = c.conn.Close()
	}
}
