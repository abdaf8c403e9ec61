package events

// Protocol version
const (
	ProtocolVersion = "1.0"
	ProtocolName    = "bikepulse-dashboard"
)

// Protocol error codes
const (
	ErrCodeInvalidFrame    = "INVALID_FRAME"
	ErrCodeUnsupportedType = "UNSUPPORTED_TYPE"
	ErrCodeMessageTooLarge = "MESSAGE_TOO_LARGE"
	ErrCodeInvalidFilter   = "INVALID_FILTER"
	ErrCodeServerError     = "SERVER_ERROR"
	ErrCodeServerShutdown  = "SERVER_SHUTDOWN"
)

// ConnectionState of a dashboard session
type ConnectionState string

const (
	ConnectionStateConnected    ConnectionState = "connected"
	ConnectionStateDisconnected ConnectionState = "disconnected"
)
