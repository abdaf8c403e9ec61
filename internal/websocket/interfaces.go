package websocket

import (
	"context"
	"time"

	api "bikepulse/pkg/contracts/api/v1"
	"bikepulse/pkg/contracts/domain"
)

// Connection defines the interface for WebSocket connections
// This allows for proper mocking in tests
type Connection interface {
	// WriteMessage writes a message with the given message type and payload
	WriteMessage(messageType int, data []byte) error

	// ReadMessage reads a message from the connection
	ReadMessage() (messageType int, p []byte, err error)

	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error

	// SetReadLimit sets the maximum size for a message read from the connection
	SetReadLimit(limit int64)
	SetPongHandler(h func(string) error)

	RemoteAddr() string
}

// DashboardComputer recomputes a view for a session's filter
type DashboardComputer interface {
	Compute(ctx context.Context, q api.DashboardQuery) (*domain.DashboardView, error)
}

// HubInterface defines the interface for WebSocket hub
type HubInterface interface {
	Register(client *Client)
	Unregister(client *Client)

	// Broadcast sends a message to all connected clients
	Broadcast(message []byte)

	ClientCount() int
	Start()
	Stop()
}

// MetricsCollector defines the interface for in-process session counters
type MetricsCollector interface {
	RecordConnection()
	RecordDisconnection(duration time.Duration)
	RecordMessage(direction string, size int64, success bool)
	RecordError(errorType string)
	RecordDroppedMessage()
	GetSnapshot() map[string]interface{}
	Reset()
}
