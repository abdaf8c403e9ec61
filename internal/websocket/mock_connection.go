package websocket

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// errMockClosed is returned by a MockConnection after Close
var errMockClosed = errors.New("connection closed")

// MockConnection is an in-memory Connection for tests. Reads block until a
// message is pushed or the connection is closed.
type MockConnection struct {
	mu sync.Mutex

	// WriteMessage behavior
	WriteMessageFunc func(messageType int, data []byte) error
	WrittenMessages  []MockMessage

	incoming  chan MockMessage
	closed    chan struct{}
	closeOnce sync.Once
	written   chan struct{}

	ReadDeadline  time.Time
	WriteDeadline time.Time
	PongHandler   func(string) error

	RemoteAddress string
	ReadLimit     int64
}

// MockMessage represents a message for mocking
type MockMessage struct {
	Type int
	Data []byte
	Err  error
}

// NewMockConnection creates a new mock connection
func NewMockConnection() *MockConnection {
	return &MockConnection{
		incoming:      make(chan MockMessage, 64),
		closed:        make(chan struct{}),
		written:       make(chan struct{}, 1024),
		RemoteAddress: "127.0.0.1:8080",
	}
}

// WriteMessage implements Connection.WriteMessage
func (m *MockConnection) WriteMessage(messageType int, data []byte) error {
	if m.IsClosed() {
		return errMockClosed
	}

	m.mu.Lock()
	if m.WriteMessageFunc != nil {
		fn := m.WriteMessageFunc
		m.mu.Unlock()
		return fn(messageType, data)
	}
	m.WrittenMessages = append(m.WrittenMessages, MockMessage{Type: messageType, Data: data})
	m.mu.Unlock()

	select {
	case m.written <- struct{}{}:
	default:
	}
	return nil
}

// ReadMessage implements Connection.ReadMessage
func (m *MockConnection) ReadMessage() (messageType int, p []byte, err error) {
	select {
	case msg := <-m.incoming:
		return msg.Type, msg.Data, msg.Err
	case <-m.closed:
		return 0, nil, errMockClosed
	}
}

// Close implements Connection.Close
func (m *MockConnection) Close() error {
	m.closeOnce.Do(func() { close(m.closed) })
	return nil
}

// IsClosed reports whether Close was called
func (m *MockConnection) IsClosed() bool {
	select {
	case <-m.closed:
		return true
	default:
		return false
	}
}

// SetReadDeadline implements Connection.SetReadDeadline
func (m *MockConnection) SetReadDeadline(t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadDeadline = t
	return nil
}

// SetWriteDeadline implements Connection.SetWriteDeadline
func (m *MockConnection) SetWriteDeadline(t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WriteDeadline = t
	return nil
}

// SetReadLimit implements Connection.SetReadLimit
func (m *MockConnection) SetReadLimit(limit int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadLimit = limit
}

// SetPongHandler implements Connection.SetPongHandler
func (m *MockConnection) SetPongHandler(h func(string) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PongHandler = h
}

// RemoteAddr implements Connection.RemoteAddr
func (m *MockConnection) RemoteAddr() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RemoteAddress
}

// Push queues a text frame for ReadMessage
func (m *MockConnection) Push(data string) {
	m.incoming <- MockMessage{Type: websocket.TextMessage, Data: []byte(data)}
}

// PushError makes the next ReadMessage fail with err
func (m *MockConnection) PushError(err error) {
	m.incoming <- MockMessage{Err: err}
}

// TextMessages returns the payloads of all text frames written so far
func (m *MockConnection) TextMessages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out [][]byte
	for _, msg := range m.WrittenMessages {
		if msg.Type == websocket.TextMessage {
			out = append(out, msg.Data)
		}
	}
	return out
}

// WaitForText blocks until at least n text frames were written or timeout
// elapses, and returns them.
func (m *MockConnection) WaitForText(n int, timeout time.Duration) [][]byte {
	deadline := time.After(timeout)
	for {
		if msgs := m.TextMessages(); len(msgs) >= n {
			return msgs
		}
		select {
		case <-m.written:
		case <-deadline:
			return m.TextMessages()
		}
	}
}
