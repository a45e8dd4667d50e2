// Package api exposes the key management service over HTTP.
//
// The API is the network face of the KMS: devices create and join
// sessions, dashboards poll link health, and operators drive the
// eavesdropper and reset controls. Responses are JSON; session keys
// appear hex-encoded in exactly two responses, create and join, and in
// no listing or health payload.
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/pion/logging"
	"github.com/rs/cors"

	"github.com/qstcs/qkd/pkg/kms"
)

// DefaultAddr is the default listen address.
const DefaultAddr = ":8000"

const shutdownGrace = 5 * time.Second

// Server serves the KMS HTTP API.
type Server struct {
	manager *kms.Manager
	handler http.Handler
	log     logging.LeveledLogger

	mu      sync.Mutex
	srv     *http.Server
	ln      net.Listener
	started bool
	closed  bool
}

// ServerConfig configures an API server.
type ServerConfig struct {
	// Addr is the listen address (default: DefaultAddr).
	Addr string

	// Manager is the session manager the API fronts. Required.
	Manager *kms.Manager

	// AllowedOrigins configures CORS (default: all origins, for LAN
	// dashboards).
	AllowedOrigins []string

	// LoggerFactory is used to create the server logger. Optional.
	LoggerFactory logging.LoggerFactory
}

// NewServer creates an API server for the given manager.
func NewServer(config ServerConfig) (*Server, error) {
	if config.Manager == nil {
		return nil, ErrNoManager
	}
	if config.Addr == "" {
		config.Addr = DefaultAddr
	}
	if len(config.AllowedOrigins) == 0 {
		config.AllowedOrigins = []string{"*"}
	}

	s := &Server{manager: config.Manager}

	if config.LoggerFactory != nil {
		s.log = config.LoggerFactory.NewLogger("api")
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/sessions", s.handleCreateSession).Methods(http.MethodPost)
	v1.HandleFunc("/sessions", s.handleListSessions).Methods(http.MethodGet)
	v1.HandleFunc("/sessions/{id}/join", s.handleJoinSession).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}", s.handleInvalidateSession).Methods(http.MethodDelete)
	v1.HandleFunc("/link", s.handleLinkStatus).Methods(http.MethodGet)
	v1.HandleFunc("/eavesdropper/activate", s.handleActivateEavesdropper).Methods(http.MethodPost)
	v1.HandleFunc("/eavesdropper/deactivate", s.handleDeactivateEavesdropper).Methods(http.MethodPost)
	v1.HandleFunc("/attack-probe", s.handleAttackProbe).Methods(http.MethodPost)
	v1.HandleFunc("/reset", s.handleReset).Methods(http.MethodPost)

	s.handler = cors.New(cors.Options{
		AllowedOrigins:   config.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}).Handler(r)

	s.srv = &http.Server{
		Addr:              config.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

// Handler returns the server's HTTP handler, CORS included. Useful for
// mounting the API in an existing server or for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start binds the listen address and begins serving in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}

	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("binding %s: %w", s.srv.Addr, err)
	}
	s.ln = ln
	s.started = true
	s.mu.Unlock()

	if s.log != nil {
		s.log.Infof("KMS API listening on %s", ln.Addr())
	}

	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			if s.log != nil {
				s.log.Errorf("serve failed: %v", err)
			}
		}
	}()

	return nil
}

// Addr returns the bound listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Shutdown drains in-flight requests and stops the server. If the
// context expires first the server is closed hard.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.closed = true
	started := s.started
	s.mu.Unlock()

	if !started {
		return nil
	}

	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
	}

	err := s.srv.Shutdown(ctx)
	// Make sure the listener is gone even if the drain timed out.
	_ = s.srv.Close()

	if s.log != nil {
		s.log.Infof("KMS API stopped")
	}
	return err
}
