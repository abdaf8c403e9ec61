package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "bikepulse/internal/errors"
	"bikepulse/internal/infrastructure"
	api "bikepulse/pkg/contracts/api/v1"
	"bikepulse/pkg/contracts/domain"
	"bikepulse/pkg/contracts/events"
)

const waitTimeout = 2 * time.Second

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubComputer echoes the query back as a view and rejects bad hour ranges
type stubComputer struct{}

func (stubComputer) Compute(ctx context.Context, q api.DashboardQuery) (*domain.DashboardView, error) {
	hr := q.Hours()
	if !hr.Valid() {
		return nil, apierrors.InvalidHourRange(hr.Start, hr.End)
	}
	return &domain.DashboardView{
		Range: domain.DateRangeDTO{Start: q.Start, End: q.End},
		Hours: hr,
	}, nil
}

type received struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	TraceID string          `json:"trace_id"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, raw []byte) received {
	t.Helper()
	var msg received
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(testLogger(), nil)
	hub.Start()
	t.Cleanup(hub.Stop)
	return hub
}

func startSession(t *testing.T, hub *Hub) (*Client, *MockConnection) {
	t.Helper()
	conn := NewMockConnection()
	ctx := infrastructure.WithTraceID(context.Background(), "trace-ws")
	client := ServeWS(ctx, hub, conn, stubComputer{}, DefaultOptions(), testLogger())
	return client, conn
}

func TestSessionOpensWithConnectionAndInitialView(t *testing.T) {
	hub := startHub(t)
	client, conn := startSession(t, hub)

	msgs := conn.WaitForText(2, waitTimeout)
	require.Len(t, msgs, 2)

	first := decode(t, msgs[0])
	assert.Equal(t, string(events.MessageTypeConnection), first.Type)
	assert.Equal(t, "trace-ws", first.TraceID)
	assert.NotEmpty(t, first.ID)

	var conn0 events.ConnectionData
	require.NoError(t, json.Unmarshal(first.Data, &conn0))
	assert.Equal(t, client.ID(), conn0.ClientID)
	assert.Equal(t, events.ProtocolVersion, conn0.ProtocolVersion)
	assert.Equal(t, int64(4096), conn0.Limits.MaxMessageSize)
	assert.ElementsMatch(t, []string{"filter", "heartbeat"}, conn0.Accepts)

	second := decode(t, msgs[1])
	assert.Equal(t, string(events.MessageTypeDashboardView), second.Type)

	var view domain.DashboardView
	require.NoError(t, json.Unmarshal(second.Data, &view))
	assert.Equal(t, domain.FullDay, view.Hours)

	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, waitTimeout, 10*time.Millisecond)
}

func TestSessionFilterRecomputes(t *testing.T) {
	hub := startHub(t)
	_, conn := startSession(t, hub)
	conn.WaitForText(2, waitTimeout)

	conn.Push(`{"type":"filter","payload":{"start":"2011-03-01","end":"2011-03-31","start_hour":6,"end_hour":9}}`)

	msgs := conn.WaitForText(3, waitTimeout)
	require.Len(t, msgs, 3)

	msg := decode(t, msgs[2])
	require.Equal(t, string(events.MessageTypeDashboardView), msg.Type)

	var view domain.DashboardView
	require.NoError(t, json.Unmarshal(msg.Data, &view))
	assert.Equal(t, domain.HourRange{Start: 6, End: 9}, view.Hours)
	assert.Equal(t, "2011-03-01", view.Range.Start)
}

func TestSessionInvalidFilterKeepsPreviousState(t *testing.T) {
	hub := startHub(t)
	client, conn := startSession(t, hub)
	conn.WaitForText(2, waitTimeout)

	conn.Push(`{"type":"filter","payload":{"start_hour":8,"end_hour":18}}`)
	conn.Push(`{"type":"filter","payload":{"start_hour":20,"end_hour":5}}`)
	conn.Push(`{"type":"filter","payload":"not an object"}`)

	msgs := conn.WaitForText(5, waitTimeout)
	require.Len(t, msgs, 5)

	for _, raw := range msgs[3:] {
		msg := decode(t, raw)
		require.Equal(t, string(events.MessageTypeError), msg.Type)

		var data events.ErrorData
		require.NoError(t, json.Unmarshal(msg.Data, &data))
		assert.Equal(t, events.ErrCodeInvalidFilter, data.Code)
		assert.False(t, data.Fatal)
	}
	assert.Contains(t, string(msgs[3]), apierrors.CodeInvalidHourRange)

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, waitTimeout, 10*time.Millisecond)

	assert.Equal(t, api.DashboardQuery{StartHour: api.IntPtr(8), EndHour: api.IntPtr(18)}, client.Query())
}

func TestSessionProtocolErrors(t *testing.T) {
	tests := []struct {
		name     string
		frame    string
		wantType string
		wantCode string
	}{
		{"malformed json", `{"type":`, string(events.MessageTypeError), events.ErrCodeInvalidFrame},
		{"unknown type", `{"type":"subscribe"}`, string(events.MessageTypeError), events.ErrCodeUnsupportedType},
		{"heartbeat", `{"type":"heartbeat"}`, string(events.MessageTypeHeartbeatAck), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := startHub(t)
			_, conn := startSession(t, hub)
			conn.WaitForText(2, waitTimeout)

			conn.Push(tt.frame)
			msgs := conn.WaitForText(3, waitTimeout)
			require.Len(t, msgs, 3)

			msg := decode(t, msgs[2])
			assert.Equal(t, tt.wantType, msg.Type)
			if tt.wantCode != "" {
				var data events.ErrorData
				require.NoError(t, json.Unmarshal(msg.Data, &data))
				assert.Equal(t, tt.wantCode, data.Code)
			}
		})
	}
}

func TestHeartbeatSequence(t *testing.T) {
	hub := startHub(t)
	_, conn := startSession(t, hub)
	conn.WaitForText(2, waitTimeout)

	conn.Push(`{"type":"heartbeat"}`)
	conn.Push(`{"type":"heartbeat"}`)
	msgs := conn.WaitForText(4, waitTimeout)
	require.Len(t, msgs, 4)

	for i, raw := range msgs[2:] {
		var data events.HeartbeatData
		require.NoError(t, json.Unmarshal(decode(t, raw).Data, &data))
		assert.Equal(t, int64(i+1), data.Sequence)
	}
}

func TestHubShutdownNotifiesClients(t *testing.T) {
	hub := NewHub(testLogger(), nil)
	hub.Start()

	_, conn := startSession(t, hub)
	conn.WaitForText(2, waitTimeout)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, waitTimeout, 10*time.Millisecond)

	hub.Shutdown("server restarting")

	msgs := conn.WaitForText(3, waitTimeout)
	require.Len(t, msgs, 3)
	msg := decode(t, msgs[2])
	assert.Equal(t, string(events.MessageTypeError), msg.Type)

	var data events.ErrorData
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	assert.Equal(t, events.ErrCodeServerShutdown, data.Code)
	assert.True(t, data.Fatal)

	assert.Eventually(t, conn.IsClosed, waitTimeout, 10*time.Millisecond)
	assert.Equal(t, 0, hub.ClientCount())

	// idempotent
	hub.Stop()
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := startHub(t)

	opts := DefaultOptions()
	opts.SendBuffer = 1
	client := NewClient(context.Background(), hub, NewMockConnection(), stubComputer{}, opts, testLogger())
	hub.Register(client)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, waitTimeout, 10*time.Millisecond)

	// nothing drains the send channel
	hub.Broadcast([]byte(`{"type":"notice"}`))
	hub.Broadcast([]byte(`{"type":"notice"}`))

	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, waitTimeout, 10*time.Millisecond)
	assert.False(t, client.enqueue([]byte("late")), "closed clients never accept messages")

	snap := hub.Snapshot()
	assert.Equal(t, 0, snap["active_clients"])
	assert.Equal(t, int64(1), snap["messages"].(map[string]interface{})["dropped"])
}

func TestSessionWithFullBufferIsDropped(t *testing.T) {
	hub := startHub(t)

	opts := DefaultOptions()
	opts.SendBuffer = 1
	client := NewClient(context.Background(), hub, NewMockConnection(), stubComputer{}, opts, testLogger())
	hub.Register(client)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, waitTimeout, 10*time.Millisecond)

	// no write pump, so only the first view fits
	for i := 0; i < 3; i++ {
		client.pushView(api.DashboardQuery{})
	}

	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, waitTimeout, 10*time.Millisecond)
	assert.True(t, client.isClosed())
	assert.False(t, client.enqueue([]byte("late")))

	snap := hub.Snapshot()
	assert.Equal(t, int64(1), snap["messages"].(map[string]interface{})["dropped"])
}

func TestRegisterAfterStopClosesClient(t *testing.T) {
	hub := NewHub(testLogger(), nil)
	hub.Start()
	hub.Stop()

	client := NewClient(context.Background(), hub, NewMockConnection(), stubComputer{}, DefaultOptions(), testLogger())
	hub.Register(client)
	hub.Unregister(client)

	assert.False(t, client.enqueue([]byte("x")))
	assert.Equal(t, 0, hub.ClientCount())
}

func TestNewClientGeneratesTraceID(t *testing.T) {
	client := NewClient(context.Background(), NewHub(testLogger(), nil), NewMockConnection(), stubComputer{}, DefaultOptions(), testLogger())
	assert.Equal(t, client.ID(), client.traceID)
	assert.Equal(t, client.ID(), infrastructure.GetTraceID(client.ctx))
}

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	m.RecordConnection()
	m.RecordConnection()
	m.RecordDisconnection(2 * time.Second)
	m.RecordMessage("sent", 10, true)
	m.RecordMessage("received", 4, false)
	m.RecordError(events.ErrCodeInvalidFilter)

	snap := m.GetSnapshot()
	conns := snap["connections"].(map[string]interface{})
	assert.Equal(t, int64(2), conns["total"])
	assert.Equal(t, int64(1), conns["active"])
	assert.Equal(t, int64(2000), conns["avg_duration_ms"])

	msgs := snap["messages"].(map[string]interface{})
	assert.Equal(t, int64(10), msgs["bytes_sent"])
	assert.Equal(t, int64(1), msgs["errors"])
	assert.Equal(t, int64(1), snap["errors"].(map[string]int64)[events.ErrCodeInvalidFilter])

	m.Reset()
	assert.Equal(t, int64(0), m.GetSnapshot()["connections"].(map[string]interface{})["total"])
}

func TestHandlerEndToEnd(t *testing.T) {
	hub := startHub(t)
	logger := testLogger()
	h := NewHandler(hub, stubComputer{}, DefaultOptions(), 1024, 1024,
		[]string{"http://dashboard.example"}, apierrors.NewErrorHandler(logger, false), logger)

	srv := httptest.NewServer(h)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	t.Run("session", func(t *testing.T) {
		header := http.Header{"Origin": []string{"http://dashboard.example"}}
		conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
		require.NoError(t, err)
		defer conn.Close()
		assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(waitTimeout)))
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, string(events.MessageTypeConnection), decode(t, raw).Type)

		_, raw, err = conn.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, string(events.MessageTypeDashboardView), decode(t, raw).Type)

		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"filter","payload":{"end_hour":12}}`)))
		_, raw, err = conn.ReadMessage()
		require.NoError(t, err)

		var view domain.DashboardView
		require.NoError(t, json.Unmarshal(decode(t, raw).Data, &view))
		assert.Equal(t, domain.HourRange{Start: 0, End: 12}, view.Hours)
	})

	t.Run("foreign origin rejected", func(t *testing.T) {
		header := http.Header{"Origin": []string{"http://evil.example"}}
		_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("plain http is not upgraded", func(t *testing.T) {
		resp, err := http.Get(srv.URL)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(body), apierrors.CodeWebSocketUpgrade)
	})
}
