package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "bikepulse/internal/errors"
	"bikepulse/internal/services"
	"bikepulse/pkg/contracts"
	"bikepulse/pkg/contracts/domain"
)

type stubDataset struct{}

func (stubDataset) View() []domain.RentalRecord { return nil }
func (stubDataset) Bounds() domain.Bounds {
	return domain.Bounds{MinDate: "2011-01-01", MaxDate: "2011-01-31", Hours: domain.FullDay, Records: 10}
}
func (stubDataset) MinDate() time.Time { return time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC) }
func (stubDataset) MaxDate() time.Time { return time.Date(2011, 1, 31, 0, 0, 0, 0, time.UTC) }
func (stubDataset) Len() int           { return 10 }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		data       services.Dataset
		target     string
		wantStatus int
		wantBody   string
	}{
		{"health", stubDataset{}, "/api/health", http.StatusOK, `"status":"ok"`},
		{"live", stubDataset{}, "/api/health/live", http.StatusOK, `"status":"alive"`},
		{"ready", stubDataset{}, "/api/health/ready", http.StatusOK, `"status":"ready"`},
		{"not ready without dataset", nil, "/api/health/ready", http.StatusServiceUnavailable, `"status":"not_ready"`},
		{"version", stubDataset{}, "/api/version", http.StatusOK, `"version":"` + contracts.Version + `"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(services.NewHealthService(tt.data, nil, testLogger()), testLogger())
			r := chi.NewRouter()
			r.Get("/api/health", h.HealthCheck)
			r.Get("/api/health/ready", h.ReadinessCheck)
			r.Get("/api/health/live", h.LivenessCheck)
			r.Get("/api/version", h.Version)

			rec := do(t, r, tt.target)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

type stubStats map[string]interface{}

func (s stubStats) SystemStats(ctx context.Context) map[string]interface{} { return s }

func TestMetricsHandler(t *testing.T) {
	r := chi.NewRouter()
	r.Mount("/api/system/stats", NewMetricsHandler(stubStats{"websocket_clients": 3}).Routes())

	rec := do(t, r, "/api/system/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"success","data":{"websocket_clients":3}}`, rec.Body.String())
}

func TestClientLogHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"accepted", `{"level":"error","message":"chart failed","source":"app.js"}`, http.StatusAccepted},
		{"unknown level falls back to info", `{"level":"loud","message":"x"}`, http.StatusAccepted},
		{"missing message", `{"level":"info"}`, http.StatusBadRequest},
		{"bad json", `{"level":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := testLogger()
			h := NewClientLogHandler(logger, apierrors.NewErrorHandler(logger, false))

			rec := httptest.NewRecorder()
			h.Handle(rec, httptest.NewRequest(http.MethodPost, "/api/logs", strings.NewReader(tt.body)))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestClientLevel(t *testing.T) {
	assert.Equal(t, "WARN", clientLevel("warning").String())
	assert.Equal(t, "ERROR", clientLevel("ERROR").String())
	assert.Equal(t, "INFO", clientLevel("").String())
}

func TestFrontendHandler(t *testing.T) {
	fsys := fstest.MapFS{
		"index.html":    {Data: []byte(`<html data-version="{{.Version}}" data-ws="{{.WebSocketPath}}"></html>`)},
		"assets/app.js": {Data: []byte(`console.log("bikepulse")`)},
	}

	h, err := NewFrontendHandler(fsys, testLogger())
	require.NoError(t, err)
	r := chi.NewRouter()
	h.Routes(r)

	rec := do(t, r, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-version="`+contracts.Version+`"`)
	assert.Contains(t, rec.Body.String(), `data-ws="/ws"`)

	rec = do(t, r, "/assets/app.js")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bikepulse")
}

func TestFrontendHandlerWithoutAssets(t *testing.T) {
	h, err := NewFrontendHandler(nil, testLogger())
	require.NoError(t, err)
	r := chi.NewRouter()
	h.Routes(r)

	rec := do(t, r, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), contracts.GetVersionString())
}

func TestFrontendHandlerBadTemplate(t *testing.T) {
	_, err := NewFrontendHandler(fstest.MapFS{"index.html": {Data: []byte("{{.Version")}}, testLogger())
	assert.Error(t, err)
}
