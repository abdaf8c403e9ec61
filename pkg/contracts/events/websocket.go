// Package events contains the message contracts of the live dashboard
// WebSocket session.
package events

import (
	"encoding/json"
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Client to server
	MessageTypeFilter    MessageType = "filter"
	MessageTypeHeartbeat MessageType = "heartbeat"

	// Server to client
	MessageTypeConnection    MessageType = "connection"
	MessageTypeDashboardView MessageType = "dashboard:view"
	MessageTypeHeartbeatAck  MessageType = "heartbeat:ack"
	MessageTypeError         MessageType = "error"
)

// ClientMessage is what a browser sends on the socket
type ClientMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// BaseMessage represents the base structure for all server messages
type BaseMessage struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// WebSocketMessage represents a complete server message
type WebSocketMessage struct {
	BaseMessage
	Data interface{} `json:"data,omitempty"`
}

// NewMessage stamps a server message with the current time.
func NewMessage(t MessageType, data interface{}) WebSocketMessage {
	return WebSocketMessage{
		BaseMessage: BaseMessage{
			Type:      t,
			Timestamp: time.Now().UTC(),
		},
		Data: data,
	}
}

// ConnectionData is sent once when a session opens
type ConnectionData struct {
	ClientID        string   `json:"client_id"`
	ProtocolVersion string   `json:"protocol_version"`
	Heartbeat       int      `json:"heartbeat_interval"`
	Limits          Limits   `json:"limits"`
	Accepts         []string `json:"accepts"`
}

// Limits advertises the per-session limits
type Limits struct {
	MaxMessageSize int64 `json:"max_message_size"`
	SendBuffer     int   `json:"send_buffer"`
}

// ErrorData is the payload of an error message
type ErrorData struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Fatal   bool        `json:"fatal"`
}

// HeartbeatData answers a client heartbeat
type HeartbeatData struct {
	Sequence   int64     `json:"sequence"`
	ServerTime time.Time `json:"server_time"`
}
