package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/flowlens/flowlens/pkg/types"
)

// Connection states.
const (
	StateConnecting = "connecting"
	StateOpen       = "open"
	StateClosed     = "closed"
)

const dialTimeout = 10 * time.Second

// Manager owns the observer's single stream connection. At most one
// connection is open at any time; Run re-establishes it after every drop.
type Manager struct {
	url   string
	retry time.Duration

	// onEvent receives every decoded webhook_event in arrival order.
	onEvent func(types.LogEvent)

	// onStatus is called with true when the stream opens and false when it
	// closes, including failed dial attempts.
	onStatus func(connected bool)

	dialer *websocket.Dialer // injectable for tests

	mu    sync.Mutex
	state string
}

// New creates a Manager that dials url and redials every retry interval.
// onEvent and onStatus may be nil.
func New(url string, retry time.Duration, onEvent func(types.LogEvent), onStatus func(bool)) *Manager {
	if onEvent == nil {
		onEvent = func(types.LogEvent) {}
	}
	if onStatus == nil {
		onStatus = func(bool) {}
	}
	return &Manager{
		url:      url,
		retry:    retry,
		onEvent:  onEvent,
		onStatus: onStatus,
		dialer:   &websocket.Dialer{HandshakeTimeout: dialTimeout},
		state:    StateConnecting,
	}
}

// State returns the current connection state.
func (m *Manager) State() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Run dials, reads, and redials until ctx is cancelled. It blocks.
func (m *Manager) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			m.setState(StateClosed)
			return
		}

		m.setState(StateConnecting)
		conn, _, err := m.dialer.DialContext(ctx, m.url, nil)
		if err != nil {
			m.setState(StateClosed)
			m.onStatus(false)
			slog.Warn("stream: dial failed, will retry",
				"url", m.url, "err", err, "retry_in", m.retry)
			if !m.wait(ctx) {
				return
			}
			continue
		}

		m.setState(StateOpen)
		m.onStatus(true)
		slog.Info("stream: connected", "url", m.url)

		// Unblock the read loop when the context is cancelled mid-read.
		stop := context.AfterFunc(ctx, func() { conn.Close() })
		err = m.read(conn)
		stop()
		conn.Close()

		m.setState(StateClosed)
		m.onStatus(false)

		if ctx.Err() != nil {
			return
		}

		slog.Warn("stream: connection lost, will reconnect",
			"url", m.url, "err", err, "retry_in", m.retry)
		if !m.wait(ctx) {
			return
		}
	}
}

// read consumes frames until the connection fails. Frames that are not
// well-formed webhook_event envelopes are skipped, never fatal.
func (m *Manager) read(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var msg types.StreamMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("stream: skipping malformed frame", "err", err)
			continue
		}
		if msg.Type != types.StreamEventType {
			slog.Debug("stream: ignoring frame", "type", msg.Type)
			continue
		}
		m.onEvent(msg.Data)
	}
}

// wait sleeps for the fixed retry interval. Returns false if ctx was
// cancelled first, which also cancels the pending retry.
func (m *Manager) wait(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		m.setState(StateClosed)
		return false
	case <-time.After(m.retry):
		return true
	}
}

func (m *Manager) setState(s string) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}
