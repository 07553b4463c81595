package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/skillsenselab/storestream/internal/logging"
	"github.com/skillsenselab/storestream/internal/server/middleware"
)

// Server wraps a Gin engine mounted on an http.ServeMux. The mux keeps
// room for non-Gin handlers; h2c lets clients stream over HTTP/2
// without TLS behind a terminating proxy.
type Server struct {
	cfg    Config
	engine *gin.Engine
	mux    *http.ServeMux
	http   *http.Server
	log    *logging.Logger

	mu         sync.Mutex
	listener   net.Listener
	started    bool
	onShutdown []func()
}

// New creates a server with the standard middleware stack applied.
func New(cfg Config) *Server {
	cfg.ApplyDefaults()

	if zerolog.GlobalLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	log := logging.WithComponent("server")
	engine := gin.New()
	engine.Use(
		middleware.Recovery(log),
		middleware.RequestID(),
		middleware.CORS(cfg.CORS),
		middleware.RequestLogging(log),
	)

	mux := http.NewServeMux()
	mux.Handle("/", engine)

	return &Server{
		cfg:    cfg,
		engine: engine,
		mux:    mux,
		log:    log,
	}
}

// Engine exposes the Gin engine for route registration.
func (s *Server) Engine() *gin.Engine { return s.engine }

// Mux exposes the underlying ServeMux for non-Gin handlers.
func (s *Server) Mux() *http.ServeMux { return s.mux }

// OnShutdown registers a hook run when Stop begins. Graceful shutdown
// waits for in-flight handlers, and open SSE streams never finish on
// their own; a hook that closes their sinks lets Shutdown complete.
// Must be called before Start.
func (s *Server) OnShutdown(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onShutdown = append(s.onShutdown, fn)
}

// Addr returns the bound address, or the configured address before
// Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
}

// Start binds the listener and begins serving in a background
// goroutine. Binding synchronously means a port conflict surfaces here
// rather than in a log line after startup.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("server already started")
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}

	handler := h2c.NewHandler(s.mux, &http2.Server{
		MaxConcurrentStreams: 250,
	})

	s.http = &http.Server{
		Handler:     handler,
		ReadTimeout: time.Duration(s.cfg.ReadTimeout) * time.Second,
		// No WriteTimeout: SSE responses are open-ended. Stream handlers
		// clear the per-request deadline; everything else finishes fast.
		IdleTimeout: time.Duration(s.cfg.IdleTimeout) * time.Second,
	}
	for _, fn := range s.onShutdown {
		s.http.RegisterOnShutdown(fn)
	}

	s.listener = listener
	s.started = true
	s.log.Info("server listening", map[string]interface{}{"addr": listener.Addr().String()})

	go func() {
		if err := s.http.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("server stopped unexpectedly", map[string]interface{}{"error": err.Error()})
		}
	}()
	return nil
}

// Stop shuts the server down gracefully, waiting for in-flight
// requests up to the context deadline. Open SSE streams are closed by
// the shutdown.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	s.started = false

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}

	err := s.http.Shutdown(ctx)
	s.listener = nil
	if err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}
