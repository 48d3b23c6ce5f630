// Package server provides an importable HTTP signaling server for pose
// stabilization sessions. E2E tests start and stop it programmatically
// without running main().
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/pion/logging"

	"github.com/thesyncim/posekf/pkg/posekf"
	"github.com/thesyncim/posekf/pkg/posekf/session"
)

// Server serves the browser client and answers WebRTC offers with pose
// stabilization sessions.
type Server struct {
	cfg        Config
	log        logging.LeveledLogger
	factory    *session.Factory
	httpServer *http.Server
	listener   net.Listener
	addr       string
	mu         sync.Mutex
	running    bool
}

// NewServer creates a new server with the given configuration. Extra
// session options are applied after the ones derived from cfg.
// The server is not started until Start() is called.
func NewServer(cfg Config, opts ...session.Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	loggerFactory, err := cfg.LoggerFactory()
	if err != nil {
		return nil, err
	}

	stabilizer := posekf.DefaultStabilizerConfig()
	stabilizer.MinVisibility = cfg.MinVisibility

	opts = append([]session.Option{
		session.WithLoggerFactory(loggerFactory),
		session.WithStabilizerConfig(stabilizer),
	}, opts...)
	factory, err := session.NewFactory(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create session factory: %w", err)
	}

	s := &Server{
		cfg:     cfg,
		log:     loggerFactory.NewLogger("server"),
		factory: factory,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/offer", s.handleOffer)
	mux.HandleFunc("/sessions", s.handleSessions)

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s, nil
}

// Start begins listening and serving HTTP requests.
// Returns the actual address the server is listening on (useful when port is 0).
// This method is non-blocking - the server runs in a goroutine.
func (s *Server) Start() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return s.addr, nil
	}

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen: %w", err)
	}

	s.listener = ln
	s.addr = ln.Addr().String()
	s.running = true

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Errorf("http server stopped: %v", err)
		}
	}()

	s.log.Infof("listening on %s", s.addr)
	return s.addr, nil
}

// Shutdown gracefully shuts down the HTTP server and closes every session.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return s.factory.Close()
	}

	s.running = false
	return errors.Join(s.httpServer.Shutdown(ctx), s.factory.Close())
}

// Addr returns the address the server is listening on.
// Returns empty string if server is not running.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Sessions returns the live sessions.
func (s *Server) Sessions() []*session.Session {
	return s.factory.Sessions()
}
