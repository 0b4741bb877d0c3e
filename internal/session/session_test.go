package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/nhle/certconsole/internal/api"
	"github.com/nhle/certconsole/internal/credential"
	"github.com/nhle/certconsole/internal/model"
	"github.com/nhle/certconsole/internal/push"
)

func newSession(t *testing.T, tokens *credential.Store) (*Session, chan string) {
	t.Helper()
	auth := make(chan string, 8)
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth <- r.Header.Get("Authorization")
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	s := New(Config{
		Client: api.NewClient(srv.URL, time.Second),
		Tokens: tokens,
		Push: push.Config{
			URL:     "ws" + strings.TrimPrefix(srv.URL, "http"),
			Backoff: push.Backoff{Initial: 5 * time.Millisecond, Max: 10 * time.Millisecond},
		},
		MaxRetained: 10,
		Logger:      zerolog.Nop(),
	})
	return s, auth
}

func TestStartConnectsWithTokenAndEndTearsDown(t *testing.T) {
	tokens := credential.NewStore(keyring.NewArrayKeyring(nil))
	s, auth := newSession(t, tokens)

	if err := s.Start("abc"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	select {
	case got := <-auth:
		if got != "Bearer abc" {
			t.Errorf("Authorization = %q", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("push connection never dialed")
	}
	if saved, _ := tokens.Token(); saved != "abc" {
		t.Errorf("saved token = %q", saved)
	}
	if s.Notifications() == nil || s.Router() == nil {
		t.Fatal("session singletons missing")
	}

	m := s.Push()
	if err := s.End(); err != nil {
		t.Fatalf("End: %v", err)
	}
	if m.State() != model.ConnectionClosed {
		t.Errorf("push state after End = %v", m.State())
	}
	if s.Active() || s.Notifications() != nil {
		t.Error("session should be inactive after End")
	}
	if _, err := tokens.Token(); err != credential.ErrNoToken {
		t.Errorf("token after End: %v", err)
	}
	if s.Client().Token() != "" {
		t.Error("client token should be cleared")
	}
}

func TestRestore(t *testing.T) {
	tokens := credential.NewStore(keyring.NewArrayKeyring(nil))
	s, _ := newSession(t, tokens)

	ok, err := s.Restore()
	if err != nil || ok {
		t.Fatalf("Restore with no token = %v, %v", ok, err)
	}

	if err := tokens.SetToken("saved"); err != nil {
		t.Fatal(err)
	}
	ok, err = s.Restore()
	if err != nil || !ok {
		t.Fatalf("Restore = %v, %v", ok, err)
	}
	defer s.End()
	if s.Client().Token() != "saved" {
		t.Errorf("client token = %q", s.Client().Token())
	}
}
