package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bikepulse/internal/infrastructure"
	"bikepulse/pkg/contracts/events"
)

// Hub maintains the set of active dashboard sessions. Sessions compute their
// own views; the hub only tracks them and fans out server-wide notices.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Server-wide messages for every client
	broadcast chan []byte

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	logger  *slog.Logger
	metrics *infrastructure.DashboardMetrics
	stats   *Metrics

	// Control
	quit          chan struct{}
	done          chan struct{}
	running       bool
	statsInterval time.Duration
}

// NewHub creates a new Hub. metrics may be nil.
func NewHub(logger *slog.Logger, metrics *infrastructure.DashboardMetrics) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	return &Hub{
		clients:       make(map[*Client]bool),
		broadcast:     make(chan []byte),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		logger:        logger.With(slog.String("component", "websocket.hub")),
		metrics:       metrics,
		stats:         NewMetrics(),
		quit:          make(chan struct{}),
		done:          make(chan struct{}),
		statsInterval: 30 * time.Second,
	}
}

// Start starts the hub's goroutines
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.run()
	go h.reportStats()
}

func (h *Hub) run() {
	defer close(h.done)

	for {
		select {
		case <-h.quit:
			h.logger.Info("Hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()

			h.stats.RecordConnection()
			h.metrics.RecordSessionChange(client.ctx, 1)

			h.logger.InfoContext(client.ctx, "Client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

		case client := <-h.unregister:
			h.remove(client, "closed")

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			failed := 0
			for _, client := range clients {
				if !client.enqueue(message) {
					failed++
					h.stats.RecordDroppedMessage()
					h.remove(client, "send buffer full")
				}
			}

			h.logger.Debug("Broadcast delivered",
				slog.Int("client_count", len(clients)),
				slog.Int("failed", failed),
				slog.Int("message_size", len(message)))
		}
	}
}

// remove drops a client and closes its send channel. It is a no-op for
// clients that are already gone.
func (h *Hub) remove(client *Client, reason string) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	count := len(h.clients)
	h.mu.Unlock()

	client.closeSend()

	duration := time.Since(client.connectedAt)
	h.stats.RecordDisconnection(duration)
	h.metrics.RecordSessionChange(client.ctx, -1)

	h.logger.InfoContext(client.ctx, "Client unregistered",
		slog.Int("total_clients", count),
		slog.String("client_id", client.id),
		slog.String("reason", reason),
		slog.Duration("connection_duration", duration))
}

// Register adds a client to the hub. After Stop the client is closed instead.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
		client.closeSend()
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// Broadcast sends a raw frame to every client
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	case <-h.quit:
	}
}

// BroadcastMessage marshals msg and sends it to every client
func (h *Hub) BroadcastMessage(msg events.WebSocketMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal %s message: %w", msg.Type, err)
	}
	h.Broadcast(data)
	return nil
}

// Shutdown tells every client the server is going away, then stops the hub.
func (h *Hub) Shutdown(reason string) {
	if h.ClientCount() > 0 {
		err := h.BroadcastMessage(events.NewMessage(events.MessageTypeError, events.ErrorData{
			Code:    events.ErrCodeServerShutdown,
			Message: reason,
			Fatal:   true,
		}))
		if err != nil {
			h.logger.Error("Failed to send shutdown notice", slog.String("error", err.Error()))
		}
	}
	h.Stop()
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Snapshot returns the in-process session counters
func (h *Hub) Snapshot() map[string]interface{} {
	snap := h.stats.GetSnapshot()
	snap["active_clients"] = h.ClientCount()
	return snap
}

// Stop gracefully stops the hub and closes every client
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
	<-h.done

	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
		delete(h.clients, client)
	}
	h.mu.Unlock()

	for _, client := range clients {
		client.closeSend()
		h.stats.RecordDisconnection(time.Since(client.connectedAt))
		h.metrics.RecordSessionChange(context.Background(), -1)
	}
}

// reportStats periodically logs hub counters
func (h *Hub) reportStats() {
	ticker := time.NewTicker(h.statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.quit:
			return

		case <-ticker.C:
			h.mu.RLock()
			active := len(h.clients)
			h.mu.RUnlock()

			h.stats.mu.RLock()
			total, sent, received := h.stats.TotalConnections, h.stats.MessagesSent, h.stats.MessagesReceived
			h.stats.mu.RUnlock()

			h.logger.Info("WebSocket hub metrics",
				slog.Int("active_clients", active),
				slog.Int64("total_connections", total),
				slog.Int64("messages_sent", sent),
				slog.Int64("messages_received", received),
			)
		}
	}
}
