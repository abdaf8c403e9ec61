package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/trace"

	apierrors "bikepulse/internal/errors"
	"bikepulse/internal/infrastructure"
)

// Handler upgrades GET /ws requests into dashboard sessions
type Handler struct {
	hub          *Hub
	service      DashboardComputer
	opts         Options
	upgrader     websocket.Upgrader
	origins      map[string]bool
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewHandler creates the upgrade handler. Origins in allowedOrigins are
// accepted in addition to same-host requests; "*" accepts any origin.
func NewHandler(hub *Hub, service DashboardComputer, opts Options, readBuffer, writeBuffer int, allowedOrigins []string, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *Handler {
	h := &Handler{
		hub:          hub,
		service:      service,
		opts:         opts,
		origins:      make(map[string]bool, len(allowedOrigins)),
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("component", "websocket.handler")),
	}
	for _, o := range allowedOrigins {
		h.origins[o] = true
	}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  readBuffer,
		WriteBufferSize: writeBuffer,
		CheckOrigin:     h.checkOrigin,
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(status,
				apierrors.CodeWebSocketUpgrade, "WebSocket upgrade failed", reason.Error()))
		},
	}
	return h
}

// ServeHTTP handles GET /ws
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already replied
		h.logger.WarnContext(r.Context(), "WebSocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("origin", r.Header.Get("Origin")))
		return
	}

	// The session outlives the request; keep only its trace identity.
	ctx := trace.ContextWithSpanContext(context.Background(), trace.SpanContextFromContext(r.Context()))
	if id := apierrors.TraceID(r.Context()); id != "" {
		ctx = infrastructure.WithTraceID(ctx, id)
	}

	client := ServeWS(ctx, h.hub, NewConnectionWrapper(conn), h.service, h.opts, h.logger)
	h.logger.InfoContext(ctx, "WebSocket session started",
		slog.String("client_id", client.ID()),
		slog.String("remote_addr", client.remoteAddr))
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || h.origins["*"] || h.origins[origin] {
		return true
	}

	u, err := url.Parse(origin)
	if err == nil && u.Host == r.Host {
		return true
	}

	h.logger.WarnContext(r.Context(), "WebSocket origin not allowed",
		slog.String("origin", origin))
	return false
}
