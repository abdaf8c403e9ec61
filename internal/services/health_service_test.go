package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikepulse/pkg/contracts"
)

type fakeSessions int

func (f fakeSessions) ClientCount() int { return int(f) }

func (f fakeSessions) Snapshot() map[string]interface{} {
	return map[string]interface{}{"active_clients": int(f)}
}

func TestHealthService(t *testing.T) {
	hs := NewHealthService(fixtureTable(), fakeSessions(2), testLogger())
	ctx := context.Background()

	t.Run("health", func(t *testing.T) {
		resp := hs.HealthCheck(ctx)
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, contracts.Version, resp.Version)
		assert.NotEmpty(t, resp.Uptime)
	})

	t.Run("liveness", func(t *testing.T) {
		assert.Equal(t, "alive", hs.LivenessCheck(ctx).Status)
	})

	t.Run("readiness", func(t *testing.T) {
		resp, err := hs.ReadinessCheck(ctx)
		require.NoError(t, err)
		assert.Equal(t, "ready", resp.Status)
		assert.Equal(t, "4 records from 2011-01-01 to 2011-09-15", resp.Checks["dataset"].Message)
		assert.Equal(t, "2 live sessions", resp.Checks["websocket"].Message)
	})

	t.Run("version", func(t *testing.T) {
		info := hs.Version()
		assert.Equal(t, contracts.Version, info.Version)
		assert.Equal(t, contracts.APIVersion, info.APIVersion)
	})

	t.Run("system stats", func(t *testing.T) {
		stats := hs.SystemStats(ctx)
		assert.Equal(t, 2, stats["websocket_clients"])
		assert.Equal(t, 4, stats["dataset_records"])
		assert.Contains(t, stats, "websocket")
	})
}

func TestReadinessWithoutDataset(t *testing.T) {
	hs := NewHealthService(nil, nil, testLogger())

	resp, err := hs.ReadinessCheck(context.Background())
	assert.ErrorIs(t, err, ErrDatasetUnavailable)
	assert.Equal(t, "not_ready", resp.Status)
	assert.Equal(t, "not_ready", resp.Checks["dataset"].Status)
	assert.Equal(t, "hub not attached", resp.Checks["websocket"].Message)
}
