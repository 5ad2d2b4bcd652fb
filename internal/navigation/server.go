// Package navigation serves the local single-user UI and enforces the
// access guard on every protected page.
//
// The server follows the usual lifecycle:
//
//	srv, err := navigation.New(deps)
//	srv.Start(ctx)
//	defer srv.Close()
package navigation

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/nerrad567/psico-client/internal/access"
	"github.com/nerrad567/psico-client/internal/gateway"
	"github.com/nerrad567/psico-client/internal/infrastructure/config"
	"github.com/nerrad567/psico-client/internal/infrastructure/logging"
	"github.com/nerrad567/psico-client/internal/session"
)

// gracefulShutdownTimeout bounds how long Close waits for in-flight requests.
const gracefulShutdownTimeout = 10 * time.Second

// maxFormBytes caps login and registration form bodies.
const maxFormBytes = 64 << 10

// Deps holds the dependencies required by the UI server.
type Deps struct {
	Config  config.UIConfig
	Session *session.Session
	Guard   *access.Guard
	Gateway *gateway.Client
	Logger  *logging.Logger
}

// Server is the local navigation UI.
type Server struct {
	cfg     config.UIConfig
	session *session.Session
	guard   *access.Guard
	gateway *gateway.Client
	logger  *logging.Logger
	pages   map[string]*template.Template

	handlerOnce sync.Once
	handler     http.Handler

	server   *http.Server
	listener net.Listener
}

// New creates a Server. It is not listening until Start is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Session == nil {
		return nil, fmt.Errorf("session is required")
	}
	if deps.Gateway == nil {
		return nil, fmt.Errorf("gateway is required")
	}

	pages, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	guard := deps.Guard
	if guard == nil {
		guard = access.NewGuard(deps.Session, deps.Logger)
	}

	return &Server{
		cfg:     deps.Config,
		session: deps.Session,
		guard:   guard,
		gateway: deps.Gateway,
		logger:  deps.Logger.With("component", "navigation"),
		pages:   pages,
	}, nil
}

// Handler returns the router. It is built once and shared.
func (s *Server) Handler() http.Handler {
	s.handlerOnce.Do(func() {
		s.handler = s.buildRouter()
	})
	return s.handler
}

// Start binds the listener and serves in a background goroutine.
// A bind failure is returned immediately.
func (s *Server) Start(_ context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.listener = ln

	readTimeout := time.Duration(s.cfg.Timeouts.Read) * time.Second
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	s.logger.Info("UI server listening", "address", ln.Addr().String())

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("UI server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the server.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("UI server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down UI server: %w", err)
	}
	return nil
}
