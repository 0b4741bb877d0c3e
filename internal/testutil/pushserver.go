package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

// PushServer is a websocket endpoint that keeps every connection open and
// can broadcast frames to them.
type PushServer struct {
	*httptest.Server

	mu    sync.Mutex
	conns []*websocket.Conn
	auth  []string
}

// NewPushServer starts a PushServer closed at test cleanup.
func NewPushServer(t *testing.T) *PushServer {
	t.Helper()
	ps := &PushServer{}
	up := websocket.Upgrader{}
	ps.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ps.mu.Lock()
		ps.conns = append(ps.conns, conn)
		ps.auth = append(ps.auth, r.Header.Get("Authorization"))
		ps.mu.Unlock()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				conn.Close()
				return
			}
		}
	}))
	t.Cleanup(ps.Server.Close)
	return ps
}

// WSURL returns the ws:// address of the server.
func (ps *PushServer) WSURL() string {
	return "ws" + strings.TrimPrefix(ps.Server.URL, "http")
}

// Broadcast writes frame to every open connection.
func (ps *PushServer) Broadcast(frame string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	for _, c := range ps.conns {
		_ = c.WriteMessage(websocket.TextMessage, []byte(frame))
	}
}

// AuthHeaders returns the Authorization header of every accepted handshake.
func (ps *PushServer) AuthHeaders() []string {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return append([]string(nil), ps.auth...)
}
