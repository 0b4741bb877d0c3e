// Package session ties the authenticated lifetime of the console together:
// the credential, the REST client token, the notification store, the
// dispatch router and the single push connection.
package session

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/nhle/certconsole/internal/api"
	"github.com/nhle/certconsole/internal/credential"
	"github.com/nhle/certconsole/internal/dispatch"
	"github.com/nhle/certconsole/internal/notify"
	"github.com/nhle/certconsole/internal/push"
)

// TokenStore persists the session token between runs.
type TokenStore interface {
	Token() (string, error)
	SetToken(token string) error
	DeleteToken() error
}

// Config configures a Session.
type Config struct {
	Client *api.Client
	// Fetcher serves the router's single-record fetches. Defaults to Client.
	Fetcher api.RecordFetcher
	Tokens  TokenStore
	// Push is the connection config; its Token func is supplied by the
	// session.
	Push        push.Config
	MaxRetained int
	Logger      zerolog.Logger
}

// Session owns the per-login singletons. Start creates them, End tears
// them down; nothing survives a logout.
type Session struct {
	cfg Config
	log zerolog.Logger

	store   *notify.Store
	router  *dispatch.Router
	manager *push.Manager
}

// New creates an inactive session.
func New(cfg Config) *Session {
	return &Session{
		cfg: cfg,
		log: cfg.Logger.With().Str("component", "session").Logger(),
	}
}

// Restore starts a session from a saved token. It reports false when no
// token is saved.
func (s *Session) Restore() (bool, error) {
	if s.cfg.Tokens == nil {
		return false, nil
	}
	token, err := s.cfg.Tokens.Token()
	if errors.Is(err, credential.ErrNoToken) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := s.begin(token); err != nil {
		return false, err
	}
	return true, nil
}

// Start saves token and begins a session with it.
func (s *Session) Start(token string) error {
	if s.cfg.Tokens != nil {
		if err := s.cfg.Tokens.SetToken(token); err != nil {
			// The session still works for this run.
			s.log.Warn().Err(err).Msg("could not persist session token")
		}
	}
	return s.begin(token)
}

func (s *Session) begin(token string) error {
	if s.Active() {
		s.teardown()
	}
	s.cfg.Client.SetToken(token)

	s.store = notify.New(s.cfg.MaxRetained)
	var fetcher api.RecordFetcher = s.cfg.Client
	if s.cfg.Fetcher != nil {
		fetcher = s.cfg.Fetcher
	}
	s.router = dispatch.NewRouter(s.store, fetcher, s.cfg.Logger)

	pcfg := s.cfg.Push
	pcfg.Token = s.cfg.Client.Token
	pcfg.Logger = s.cfg.Logger
	s.manager = push.NewManager(pcfg, s.store)
	if err := s.manager.Connect(); err != nil {
		return fmt.Errorf("starting push connection: %w", err)
	}
	s.log.Info().Msg("session started")
	return nil
}

// End logs out: the push connection is closed for good, the token is
// forgotten, and the in-memory notifications are dropped.
func (s *Session) End() error {
	if !s.Active() {
		return nil
	}
	s.teardown()
	s.log.Info().Msg("session ended")
	if s.cfg.Tokens != nil {
		return s.cfg.Tokens.DeleteToken()
	}
	return nil
}

func (s *Session) teardown() {
	s.manager.Close()
	s.cfg.Client.SetToken("")
	s.manager = nil
	s.router = nil
	s.store = nil
}

// Active reports whether a session is running.
func (s *Session) Active() bool {
	return s.manager != nil
}

// Notifications returns the session's notification store, or nil.
func (s *Session) Notifications() *notify.Store {
	return s.store
}

// Router returns the session's dispatch router, or nil.
func (s *Session) Router() *dispatch.Router {
	return s.router
}

// Push returns the session's connection manager, or nil.
func (s *Session) Push() *push.Manager {
	return s.manager
}

// Client returns the REST client.
func (s *Session) Client() *api.Client {
	return s.cfg.Client
}
