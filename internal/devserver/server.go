// Package devserver is a small backend for running the console locally and
// for integration tests. It serves the admin list, detail and status
// endpoints, issues session tokens, and pushes a frame to every connected
// console when a record is submitted through the public endpoints.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nhle/certconsole/internal/api"
	"github.com/nhle/certconsole/internal/model"
	"github.com/nhle/certconsole/internal/store"
)

// Config controls a Server.
type Config struct {
	Store    store.Store
	Secret   string
	TokenTTL time.Duration
	Logger   zerolog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Server is the development backend.
type Server struct {
	cfg    Config
	log    zerolog.Logger
	router *gin.Engine
	hub    *Hub
}

// New builds a Server and its routes.
func New(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("devserver: store is required")
	}
	if cfg.Secret == "" {
		return nil, errors.New("devserver: jwt secret is required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 12 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	router := gin.New()
	router.Use(recovery(cfg.Logger), requestLogger(cfg.Logger))

	s := &Server{
		cfg:    cfg,
		log:    cfg.Logger,
		router: router,
		hub:    NewHub(cfg.Logger),
	}
	if err := s.setupRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

// Handler returns the HTTP handler. Start must be called for pushes to be
// delivered.
func (s *Server) Handler() http.Handler { return s.router }

// Hub returns the push hub.
func (s *Server) Hub() *Hub { return s.hub }

// Start runs the push hub until ctx is cancelled.
func (s *Server) Start(ctx context.Context) {
	go s.hub.Run(ctx)
}

// Run listens on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.Start(ctx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("dev server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving on %s: %w", addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) setupRoutes() error {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.router.POST("/api/auth/login", s.login)
	s.router.GET("/ws", JWTAuth(s.cfg.Secret, true), s.hub.ServeWS)

	public := s.router.Group("/api/public")
	admin := s.router.Group("/api", JWTAuth(s.cfg.Secret, false))

	for _, kind := range model.RecordKinds {
		full, err := api.KindPath(kind)
		if err != nil {
			return err
		}
		path := strings.TrimPrefix(full, "/api")

		public.POST(path, s.submit(kind))
		admin.GET(path, s.list(kind))
		admin.GET(path+"/:id", s.get(kind))
		admin.PATCH(path+"/:id/status", s.updateStatus(kind))
	}
	return nil
}

func recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("method", c.Request.Method).
					Str("path", c.Request.URL.Path).
					Interface("panic", r).
					Msg("handler panicked")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "internal server error",
				})
			}
		}()
		c.Next()
	}
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}
