package http

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bikepulse/pkg/contracts"
	"bikepulse/pkg/contracts/events"
)

// PageData is passed to the index template
type PageData struct {
	Version         string
	ProtocolVersion string
	WebSocketPath   string
	APIBase         string
}

// FrontendHandler serves the embedded thin client
type FrontendHandler struct {
	fsys   fs.FS
	index  *template.Template
	logger *slog.Logger
}

// NewFrontendHandler parses index.html from fsys. A nil fsys serves a
// placeholder page so the API stays usable without a bundled client.
func NewFrontendHandler(fsys fs.FS, logger *slog.Logger) (*FrontendHandler, error) {
	h := &FrontendHandler{
		fsys:   fsys,
		logger: logger.With(slog.String("handler", "frontend")),
	}
	if fsys == nil {
		return h, nil
	}

	tmpl, err := template.ParseFS(fsys, "index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse index template: %w", err)
	}
	h.index = tmpl
	return h, nil
}

// Routes mounts the index page and static assets
func (h *FrontendHandler) Routes(r chi.Router) {
	r.Get("/", h.ServeIndex)
	if h.fsys != nil {
		r.Handle("/assets/*", http.FileServer(http.FS(h.fsys)))
	}
}

// ServeIndex handles GET /
func (h *FrontendHandler) ServeIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")

	if h.index == nil {
		fmt.Fprintf(w, placeholderPage, contracts.GetVersionString())
		return
	}

	data := PageData{
		Version:         contracts.Version,
		ProtocolVersion: events.ProtocolVersion,
		WebSocketPath:   "/ws",
		APIBase:         "/api/dashboard",
	}

	var buf bytes.Buffer
	if err := h.index.Execute(&buf, data); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render index", slog.String("error", err.Error()))
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}
	_, _ = buf.WriteTo(w)
}

const placeholderPage = `<!DOCTYPE html>
<html>
<head><title>Bike Pulse</title></head>
<body>
    <h1>%s</h1>
    <p>The dashboard client is not bundled with this build.</p>
    <ul>
        <li><a href="/api/dashboard">Dashboard view (JSON)</a></li>
        <li><a href="/api/dashboard/bounds">Bounds</a></li>
        <li><a href="/api/health">Health</a></li>
        <li><a href="/metrics">Metrics</a></li>
    </ul>
</body>
</html>
`
