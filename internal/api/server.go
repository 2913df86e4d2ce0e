// Package api provides the read-only management API for TrieDNS.
// It exposes endpoints for health checks, statistics, configuration,
// zone inspection and Prometheus metrics via a Gin-based HTTP server.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jroosing/triedns/internal/api/handlers"
	"github.com/jroosing/triedns/internal/api/middleware"
	"github.com/jroosing/triedns/internal/config"
)

// ShutdownTimeout bounds how long Run waits for in-flight API requests.
const ShutdownTimeout = 5 * time.Second

// Server is the management REST API server.
//
// Security note: do not expose the API to untrusted networks without an api_key.
type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	engine     *gin.Engine
	httpServer *http.Server
}

func New(cfg *config.Config, deps handlers.Deps, logger *slog.Logger) *Server {
	if cfg == nil {
		panic("api.New: cfg is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.SlogRequestLogger(logger))

	h := handlers.New(cfg, deps, logger)
	RegisterRoutes(engine, h, cfg, deps)

	addr := net.JoinHostPort(cfg.API.Host, strconv.Itoa(cfg.API.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{cfg: cfg, logger: logger, engine: engine, httpServer: httpServer}
}

func (s *Server) Addr() string {
	if s.httpServer == nil {
		return ""
	}
	return s.httpServer.Addr
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Run serves on ln until ctx is cancelled, then shuts down gracefully.
// A nil ln listens on the configured address.
func (s *Server) Run(ctx context.Context, ln net.Listener) error {
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", s.Addr())
		if err != nil {
			return err
		}
	}
	s.logger.Info("api listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() { errCh <- s.httpServer.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("api stopped")
	return nil
}
