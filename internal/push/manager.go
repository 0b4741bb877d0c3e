// Package push owns the single websocket connection to the backend's push
// channel for the lifetime of a session.
package push

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/nhle/certconsole/internal/model"
)

// ErrSessionClosed is returned by Connect after Close has ended the session.
var ErrSessionClosed = errors.New("push: session closed")

const (
	// pongWait is how long the reader waits for any frame or pong.
	pongWait = 60 * time.Second
	// pingPeriod must be shorter than pongWait.
	pingPeriod = 50 * time.Second
	writeWait  = 10 * time.Second
	maxFrame   = 64 << 10
	eventQueue = 64
)

// Sink receives every valid notification exactly once per id.
// Add reports whether the notification was new.
type Sink interface {
	Add(n model.Notification) bool
}

// StateMsg is a tea.Msg sent whenever the connection state changes.
type StateMsg struct {
	State model.ConnectionState
	Err   error
}

// NotificationMsg is a tea.Msg carrying a notification that the sink
// accepted as new.
type NotificationMsg struct {
	Notification model.Notification
}

// Config configures a Manager.
type Config struct {
	// URL is the websocket endpoint.
	URL string
	// Token returns the current session credential; it is called on every
	// dial so a refreshed credential is picked up on reconnect.
	Token   func() string
	Backoff Backoff
	Dialer  *websocket.Dialer
	Logger  zerolog.Logger
}

// Manager maintains exactly one logical push connection. Connect is
// idempotent; Close ends the session and suppresses further reconnects.
type Manager struct {
	cfg    Config
	sink   Sink
	log    zerolog.Logger
	dialer *websocket.Dialer

	mu       sync.Mutex
	state    model.ConnectionState
	ended    bool
	cancel   context.CancelFunc
	conn     *websocket.Conn
	attempts int

	events chan tea.Msg
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewManager creates a Manager feeding sink. It does not connect.
func NewManager(cfg Config, sink Sink) *Manager {
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 15 * time.Second,
		}
	}
	return &Manager{
		cfg:    cfg,
		sink:   sink,
		log:    cfg.Logger.With().Str("component", "push").Logger(),
		dialer: dialer,
		state:  model.ConnectionClosed,
		events: make(chan tea.Msg, eventQueue),
		done:   make(chan struct{}),
	}
}

// State returns the current connection state.
func (m *Manager) State() model.ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Attempts returns how many dials have been made so far.
func (m *Manager) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// Connect starts the connection loop. It is a no-op while a loop is
// already running and fails with ErrSessionClosed after Close.
func (m *Manager) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ended {
		return ErrSessionClosed
	}
	if m.cancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.state = model.ConnectionConnecting

	m.wg.Add(1)
	go m.run(ctx)
	return nil
}

// Close ends the session: the loop stops, the socket is closed, and no
// further reconnects are attempted. It does not block on the UI draining
// events.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.ended {
		m.mu.Unlock()
		return
	}
	m.ended = true
	m.state = model.ConnectionClosed
	if m.cancel != nil {
		m.cancel()
	}
	if m.conn != nil {
		_ = m.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "logout"),
			time.Now().Add(time.Second),
		)
		_ = m.conn.Close()
	}
	close(m.done)
	m.mu.Unlock()

	m.wg.Wait()
}

// Events exposes the raw event channel. Bubble Tea callers use WaitForEvent.
func (m *Manager) Events() <-chan tea.Msg {
	return m.events
}

// WaitForEvent returns a tea.Cmd that waits for the next push event.
// Call it again after handling each StateMsg or NotificationMsg to keep
// listening. It yields nil once the session is closed.
func (m *Manager) WaitForEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-m.events:
			return msg
		case <-m.done:
			return nil
		}
	}
}

// run is the connection loop: dial, read until the socket drops, back off,
// repeat until the context is cancelled by Close.
func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()

	m.emit(ctx, StateMsg{State: model.ConnectionConnecting})

	failures := 0
	for {
		conn, err := m.dial(ctx)
		if ctx.Err() != nil {
			if conn != nil {
				conn.Close()
			}
			return
		}

		if err != nil {
			m.log.Warn().Err(err).Int("attempt", failures+1).Msg("push connect failed")
		} else {
			failures = 0
			m.setState(ctx, model.ConnectionOpen, nil)
			m.log.Info().Str("url", m.cfg.URL).Msg("push channel open")

			err = m.readLoop(ctx, conn)
			m.clearConn(conn)
			if ctx.Err() != nil {
				return
			}
			m.log.Warn().Err(err).Msg("push channel dropped")
		}

		m.setState(ctx, model.ConnectionReconnecting, err)

		delay := m.cfg.Backoff.Delay(failures)
		failures++
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// dial opens the socket, authenticating with the session credential.
func (m *Manager) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if m.cfg.Token != nil {
		if token := m.cfg.Token(); token != "" {
			header.Set("Authorization", "Bearer "+token)
		}
	}

	m.mu.Lock()
	m.attempts++
	m.mu.Unlock()

	conn, resp, err := m.dialer.DialContext(ctx, m.cfg.URL, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("push handshake rejected credential: %w", err)
		}
		return nil, fmt.Errorf("dialing %s: %w", m.cfg.URL, err)
	}

	m.mu.Lock()
	if m.ended {
		m.mu.Unlock()
		conn.Close()
		return nil, ErrSessionClosed
	}
	m.conn = conn
	m.mu.Unlock()
	return conn, nil
}

func (m *Manager) clearConn(conn *websocket.Conn) {
	conn.Close()
	m.mu.Lock()
	if m.conn == conn {
		m.conn = nil
	}
	m.mu.Unlock()
}

// readLoop reads frames until the socket errors. A pinger goroutine keeps
// the connection alive; the reader extends its deadline on every pong.
func (m *Manager) readLoop(ctx context.Context, conn *websocket.Conn) error {
	conn.SetReadLimit(maxFrame)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	stopPing := make(chan struct{})
	defer close(stopPing)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-stopPing:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		n, err := ParseFrame(data)
		if err != nil {
			if errors.Is(err, ErrUnknownType) {
				m.log.Debug().Err(err).Msg("ignoring push frame")
			} else {
				m.log.Warn().Err(err).Int("bytes", len(data)).Msg("dropping malformed push frame")
			}
			continue
		}

		if !m.sink.Add(n) {
			m.log.Debug().Str("id", n.ID).Msg("duplicate push frame")
			continue
		}
		m.emit(ctx, NotificationMsg{Notification: n})
	}
}

func (m *Manager) setState(ctx context.Context, s model.ConnectionState, err error) {
	m.mu.Lock()
	if m.ended {
		m.mu.Unlock()
		return
	}
	m.state = s
	m.mu.Unlock()
	m.emit(ctx, StateMsg{State: s, Err: err})
}

// emit blocks until the UI takes the message or the session ends.
func (m *Manager) emit(ctx context.Context, msg tea.Msg) {
	select {
	case m.events <- msg:
	case <-ctx.Done():
	}
}
