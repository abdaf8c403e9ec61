package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"bikepulse/internal/infrastructure"
	"bikepulse/pkg/contracts"
	api "bikepulse/pkg/contracts/api/v1"
)

// SessionCounter reports live WebSocket sessions
type SessionCounter interface {
	ClientCount() int
	Snapshot() map[string]interface{}
}

// HealthService provides health check functionality
type HealthService struct {
	data      Dataset
	sessions  SessionCounter
	startTime time.Time
	logger    *slog.Logger
}

// NewHealthService creates a new health service. sessions may be nil.
func NewHealthService(data Dataset, sessions SessionCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		data:      data,
		sessions:  sessions,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) api.HealthResponse {
	return api.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   contracts.Version,
		Uptime:    time.Since(hs.startTime).Round(time.Second).String(),
	}
}

// ReadinessCheck reports ready only once a dataset is loaded. The returned
// error is ErrDatasetUnavailable when it is not.
func (hs *HealthService) ReadinessCheck(ctx context.Context) (api.HealthResponse, error) {
	status := api.HealthResponse{
		Status:    "ready",
		Timestamp: time.Now().UTC(),
		Version:   contracts.Version,
		Checks:    make(map[string]api.CheckResult),
	}

	var err error
	status.Checks["dataset"], err = hs.checkDataset()
	status.Checks["websocket"] = hs.checkWebSocket()

	if err != nil {
		status.Status = "not_ready"
		hs.logger.WarnContext(ctx, "Readiness check failed", slog.String("error", err.Error()))
	}
	return status, err
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) api.HealthResponse {
	return api.HealthResponse{
		Status:    "alive",
		Timestamp: time.Now().UTC(),
		Version:   contracts.Version,
		Uptime:    time.Since(hs.startTime).Round(time.Second).String(),
	}
}

// Version returns build information
func (hs *HealthService) Version() contracts.VersionInfo {
	return contracts.GetVersionInfo()
}

// SystemStats returns a runtime snapshot with the session count
func (hs *HealthService) SystemStats(ctx context.Context) map[string]interface{} {
	stats := infrastructure.CollectSystemStats(hs.startTime)
	out := map[string]interface{}{
		"runtime":    stats,
		"go_version": runtime.Version(),
	}
	if hs.sessions != nil {
		out["websocket_clients"] = hs.sessions.ClientCount()
		out["websocket"] = hs.sessions.Snapshot()
	}
	if hs.data != nil {
		out["dataset_records"] = hs.data.Len()
	}
	return out
}

func (hs *HealthService) checkDataset() (api.CheckResult, error) {
	if hs.data == nil {
		return api.CheckResult{Status: "not_ready", Message: "dataset not loaded"}, ErrDatasetUnavailable
	}
	b := hs.data.Bounds()
	msg := fmt.Sprintf("%d records", b.Records)
	if b.Records > 0 {
		msg = fmt.Sprintf("%d records from %s to %s", b.Records, b.MinDate, b.MaxDate)
	}
	return api.CheckResult{Status: "ready", Message: msg}, nil
}

func (hs *HealthService) checkWebSocket() api.CheckResult {
	if hs.sessions == nil {
		return api.CheckResult{Status: "ready", Message: "hub not attached"}
	}
	return api.CheckResult{
		Status:  "ready",
		Message: fmt.Sprintf("%d live sessions", hs.sessions.ClientCount()),
	}
}
