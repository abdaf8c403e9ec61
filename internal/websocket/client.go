package websocket

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	apierrors "bikepulse/internal/errors"
	"bikepulse/internal/infrastructure"
	"bikepulse/internal/services"
	api "bikepulse/pkg/contracts/api/v1"
	"bikepulse/pkg/contracts/events"
)

// Options holds the per-session timing and size limits
type Options struct {
	// Time allowed to write a message to the peer
	WriteWait time.Duration

	// Time allowed to read the next message or pong from the peer
	PongWait time.Duration

	// Send pings with this period. Must be less than PongWait
	PingPeriod time.Duration

	// Maximum message size allowed from peer
	MaxMessageSize int64

	// Capacity of the outbound queue
	SendBuffer int

	// Interval the client is asked to send heartbeats at
	HeartbeatInterval time.Duration
}

// DefaultOptions returns the limits used when none are configured
func DefaultOptions() Options {
	return Options{
		WriteWait:         10 * time.Second,
		PongWait:          60 * time.Second,
		PingPeriod:        54 * time.Second,
		MaxMessageSize:    4096,
		SendBuffer:        16,
		HeartbeatInterval: 30 * time.Second,
	}
}

var (
	newline = []byte{'\n'}
	space   = []byte{' '}
)

// Client is one live dashboard session. Its filter is owned by the read pump;
// every write goes through the send channel drained by the write pump.
type Client struct {
	hub     HubInterface
	conn    Connection
	service DashboardComputer
	opts    Options

	// Buffered channel of outbound messages
	send   chan []byte
	sendMu sync.Mutex
	closed bool

	// Client metadata
	id          string
	traceID     string
	remoteAddr  string
	connectedAt time.Time
	ctx         context.Context

	logger  *slog.Logger
	metrics *infrastructure.DashboardMetrics
	stats   MetricsCollector

	// Session state, read pump only
	query      api.DashboardQuery
	heartbeats int64
}

// NewClient creates a session on conn. ctx carries the trace of the upgrade
// request and lives as long as the session.
func NewClient(ctx context.Context, hub HubInterface, conn Connection, service DashboardComputer, opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	id := uuid.New().String()
	traceID := apierrors.TraceID(ctx)
	if traceID == "" {
		traceID = id
		ctx = infrastructure.WithTraceID(ctx, traceID)
	}

	c := &Client{
		hub:         hub,
		conn:        conn,
		service:     service,
		opts:        opts,
		send:        make(chan []byte, opts.SendBuffer),
		id:          id,
		traceID:     traceID,
		remoteAddr:  conn.RemoteAddr(),
		connectedAt: time.Now(),
		ctx:         ctx,
		logger: logger.With(
			slog.String("component", "websocket.client"),
			slog.String("client_id", id),
		),
		stats: NewMetrics(),
	}
	if h, ok := hub.(*Hub); ok {
		c.metrics = h.metrics
		c.stats = h.stats
	}
	return c
}

// ID returns the client id
func (c *Client) ID() string { return c.id }

// Query returns the filter of the last successfully computed view.
// It must only be called from the read pump or after it has exited.
func (c *Client) Query() api.DashboardQuery { return c.query }

// ReadPump pumps messages from the websocket connection and answers them
func (c *Client) ReadPump() {
	defer func() {
		c.logger.InfoContext(c.ctx, "WebSocket client disconnected",
			slog.Duration("connection_duration", time.Since(c.connectedAt)))
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.opts.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			switch {
			case errors.Is(err, websocket.ErrReadLimit):
				c.stats.RecordError(events.ErrCodeMessageTooLarge)
				c.logger.WarnContext(c.ctx, "Client message exceeds read limit",
					slog.Int64("limit", c.opts.MaxMessageSize))
			case websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure):
				c.logger.ErrorContext(c.ctx, "Unexpected WebSocket close error",
					slog.String("error", err.Error()))
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))

		message = bytes.TrimSpace(bytes.Replace(message, newline, space, -1))
		c.stats.RecordMessage("received", int64(len(message)), true)
		c.handleMessage(message)
	}
}

func (c *Client) handleMessage(raw []byte) {
	var msg events.ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError(events.ErrCodeInvalidFrame, "message is not valid JSON", nil)
		return
	}
	c.metrics.RecordWebSocketMessage(c.ctx, "in", string(msg.Type))

	switch msg.Type {
	case events.MessageTypeHeartbeat:
		c.heartbeats++
		c.sendMessage(events.NewMessage(events.MessageTypeHeartbeatAck, events.HeartbeatData{
			Sequence:   c.heartbeats,
			ServerTime: time.Now().UTC(),
		}))

	case events.MessageTypeFilter:
		c.applyFilter(msg.Payload)

	default:
		c.sendError(events.ErrCodeUnsupportedType, fmt.Sprintf("unsupported message type %q", msg.Type), nil)
	}
}

// applyFilter replaces the session filter with payload. Missing fields fall
// back to defaults. On any error the previous filter stays in effect.
func (c *Client) applyFilter(payload json.RawMessage) {
	var q api.DashboardQuery
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &q); err != nil {
			c.sendError(events.ErrCodeInvalidFilter, "filter payload is malformed", err.Error())
			return
		}
	}

	if c.pushView(q) {
		c.query = q
	}
}

// pushView computes and enqueues the view for q. It reports whether the
// computation succeeded.
func (c *Client) pushView(q api.DashboardQuery) bool {
	view, err := c.service.Compute(services.WithCaller(c.ctx, "websocket"), q)
	if err != nil {
		c.sendComputeError(err)
		return false
	}
	c.sendMessage(events.NewMessage(events.MessageTypeDashboardView, view))
	return true
}

func (c *Client) sendComputeError(err error) {
	var apiErr *apierrors.APIError
	switch {
	case errors.As(err, &apiErr):
		c.sendError(events.ErrCodeInvalidFilter, apiErr.Message, map[string]interface{}{
			"error_code": apiErr.ErrorCode,
			"details":    apiErr.Details,
		})
	case errors.Is(err, services.ErrDatasetUnavailable):
		c.sendError(events.ErrCodeServerError, "rental dataset is not loaded", nil)
	default:
		c.logger.ErrorContext(c.ctx, "Dashboard computation failed", slog.String("error", err.Error()))
		c.sendError(events.ErrCodeServerError, "failed to compute dashboard view", nil)
	}
}

func (c *Client) sendError(code, message string, details interface{}) {
	c.stats.RecordError(code)
	c.sendMessage(events.NewMessage(events.MessageTypeError, events.ErrorData{
		Code:    code,
		Message: message,
		Details: details,
	}))
}

// sendMessage stamps and enqueues msg. A full buffer drops the whole
// session. It reports false when the message was not queued.
func (c *Client) sendMessage(msg events.WebSocketMessage) bool {
	msg.ID = uuid.New().String()
	msg.TraceID = c.traceID

	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.ErrorContext(c.ctx, "Error marshaling message",
			slog.String("message_type", string(msg.Type)),
			slog.String("error", err.Error()))
		return false
	}

	if !c.enqueue(data) {
		if c.isClosed() {
			return false
		}
		c.stats.RecordDroppedMessage()
		c.logger.WarnContext(c.ctx, "Client send buffer full, dropping client",
			slog.String("message_type", string(msg.Type)))
		// The write pump sees the closed channel and closes the connection
		c.closeSend()
		c.hub.Unregister(c)
		return false
	}
	c.metrics.RecordWebSocketMessage(c.ctx, "out", string(msg.Type))
	return true
}

// enqueue never blocks and never sends on a closed channel.
func (c *Client) enqueue(data []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) isClosed() bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	return c.closed
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// WritePump pumps messages from the send channel to the websocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if !c.write(message) {
				return
			}

			// Send any queued messages as separate WebSocket frames
			n := len(c.send)
			for i := 0; i < n; i++ {
				msg, ok := <-c.send
				if !ok {
					c.conn.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
				if !c.write(msg) {
					return
				}
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.DebugContext(c.ctx, "Failed to send ping message",
					slog.String("error", err.Error()))
				return
			}
		}
	}
}

func (c *Client) write(message []byte) bool {
	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.stats.RecordMessage("sent", int64(len(message)), false)
		c.logger.ErrorContext(c.ctx, "Error writing message to WebSocket",
			slog.String("error", err.Error()))
		return false
	}
	c.stats.RecordMessage("sent", int64(len(message)), true)
	return true
}

// ServeWS starts a session on conn: it queues the connection message and the
// initial view for the default filter, registers the client and starts both
// pumps.
func ServeWS(ctx context.Context, hub HubInterface, conn Connection, service DashboardComputer, opts Options, logger *slog.Logger) *Client {
	client := NewClient(ctx, hub, conn, service, opts, logger)

	client.sendMessage(events.NewMessage(events.MessageTypeConnection, events.ConnectionData{
		ClientID:        client.id,
		ProtocolVersion: events.ProtocolVersion,
		Heartbeat:       int(opts.HeartbeatInterval / time.Second),
		Limits: events.Limits{
			MaxMessageSize: opts.MaxMessageSize,
			SendBuffer:     opts.SendBuffer,
		},
		Accepts: []string{string(events.MessageTypeFilter), string(events.MessageTypeHeartbeat)},
	}))
	hub.Register(client)
	client.pushView(client.query)

	go client.WritePump()
	go client.ReadPump()
	return client
}
