// Package server serves the casino web application: login, the lobby, table
// pages driven by plain form posts, and a WebSocket channel per table.
package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"

	"github.com/windfall/windfall/internal/auth"
	"github.com/windfall/windfall/internal/blackjack"
	"github.com/windfall/windfall/internal/history"
	"github.com/windfall/windfall/internal/session"
	"github.com/windfall/windfall/internal/tables"
)

// Config wires the server's collaborators. History may be nil.
type Config struct {
	Registry      *tables.Registry
	Auth          auth.Authenticator
	Sessions      *session.Store
	History       *history.Store
	Clock         quartz.Clock
	Logger        *log.Logger
	SecureCookies bool

	// ShoeSource overrides shoe construction for every new round
	ShoeSource blackjack.ShoeSource
}

// Server is the casino HTTP server
type Server struct {
	registry      *tables.Registry
	auth          auth.Authenticator
	sessions      *session.Store
	history       *history.Store
	clock         quartz.Clock
	logger        *log.Logger
	secureCookies bool
	shoeSource    blackjack.ShoeSource

	pages    map[string]*template.Template
	upgrader websocket.Upgrader
	handler  http.Handler

	mu          sync.RWMutex
	connections map[*Connection]bool
}

// New creates a server from cfg
func New(cfg Config) (*Server, error) {
	if cfg.Registry == nil || cfg.Auth == nil || cfg.Sessions == nil {
		return nil, errors.New("server: registry, auth and sessions are required")
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}

	pages, err := parsePages()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		registry:      cfg.Registry,
		auth:          cfg.Auth,
		sessions:      cfg.Sessions,
		history:       cfg.History,
		clock:         cfg.Clock,
		logger:        cfg.Logger.WithPrefix("server"),
		secureCookies: cfg.SecureCookies,
		shoeSource:    cfg.ShoeSource,
		pages:         pages,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
	}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the HTTP handler serving every route
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully and closes open table sockets.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting casino server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down casino server")
	s.closeConnections()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) register(c *Connection) {
	s.mu.Lock()
	s.connections[c] = true
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Debug("Table socket connected", "table", c.table.ID, "total", total)
}

func (s *Server) unregister(c *Connection) {
	s.mu.Lock()
	delete(s.connections, c)
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Debug("Table socket disconnected", "table", c.table.ID, "total", total)
}

func (s *Server) closeConnections() {
	s.mu.Lock()
	conns := make([]*Connection, 0, len(s.connections))
	for c := range s.connections {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		_ = c.Close() // Ignore close errors during shutdown
	}
}

// ConnectionCount returns the number of open table sockets
func (s *Server) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}
