package config

import "time"

// Application constants
const (
	// Application Info
	AppName     = "Bike Pulse"
	ServiceName = "bikepulse"

	// Dataset
	DefaultDatasetPath = "data/all.csv"

	// Server
	DefaultPort           = 8080
	DefaultRequestTimeout = 30 * time.Second

	// Rate Limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// WebSocket
	WebSocketPingPeriod      = 30 * time.Second
	WebSocketPongWait        = 60 * time.Second
	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 4096

	// Log Settings
	DefaultLogLevel = "info"
	DefaultLogFile  = "logs/bikepulse.log"
)

// Endpoints
const (
	APIBasePath       = "/api"
	DashboardEndpoint = "/api/dashboard"
	HealthEndpoint    = "/api/health"
	MetricsEndpoint   = "/metrics"
	WebSocketEndpoint = "/ws"
)
