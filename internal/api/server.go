package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jtmorrow/netregistry/internal/device"
	"github.com/jtmorrow/netregistry/internal/infrastructure/config"
	"github.com/jtmorrow/netregistry/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is how long Close waits for in-flight requests.
const gracefulShutdownTimeout = 10 * time.Second

// Server is the HTTP API server. It owns the router, the WebSocket hub,
// and the underlying http.Server lifecycle.
type Server struct {
	cfg     config.APIConfig
	wsCfg   config.WebSocketConfig
	logger  *logging.Logger
	service *device.Service
	hub     *Hub
	version string

	httpServer *http.Server
	cancel     context.CancelFunc
}

// Deps carries the server's dependencies.
type Deps struct {
	Config  *config.Config
	Logger  *logging.Logger
	Service *device.Service
	Version string
}

// New creates an API server. The WebSocket hub is created here so callers
// can wire it as an event publisher before Start.
func New(deps Deps) (*Server, error) {
	if deps.Config == nil {
		return nil, errors.New("api: config is required")
	}
	if deps.Logger == nil {
		return nil, errors.New("api: logger is required")
	}
	if deps.Service == nil {
		return nil, errors.New("api: device service is required")
	}

	s := &Server{
		cfg:     deps.Config.API,
		wsCfg:   deps.Config.WebSocket,
		logger:  deps.Logger.With("component", "api"),
		service: deps.Service,
		version: deps.Version,
	}
	s.hub = NewHub(s.wsCfg, s.logger)

	return s, nil
}

// Hub returns the WebSocket hub so it can be registered as an event
// publisher alongside MQTT.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start begins serving HTTP requests. It returns immediately; the listener
// runs in a background goroutine until Close is called.
func (s *Server) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	go s.hub.Run(ctx)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	s.logger.Info("starting HTTP server", "addr", addr)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server failed", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the server, draining in-flight requests and
// disconnecting WebSocket clients.
func (s *Server) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
