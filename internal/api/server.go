package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/nerrad567/ups-monitor/internal/history"
	"github.com/nerrad567/ups-monitor/internal/infrastructure/config"
	"github.com/nerrad567/ups-monitor/internal/infrastructure/logging"
	"github.com/nerrad567/ups-monitor/internal/metrics"
	"github.com/nerrad567/ups-monitor/internal/snapshot"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// SnapshotSource polls upsd and caches the result. *snapshot.Builder
// satisfies it.
type SnapshotSource interface {
	Build(ctx context.Context) *snapshot.SystemSnapshot
	Latest() *snapshot.SystemSnapshot
}

// HealthChecker reports whether a backing service is usable.
// *database.DB, *mqtt.Client and *influxdb.Client satisfy it.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HistoryQuerier answers history range queries. history.Store satisfies it.
type HistoryQuerier interface {
	Query(ctx context.Context, deviceID string, period history.Period) ([]history.Point, error)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.APIConfig
	WS        config.WebSocketConfig
	Logger    *logging.Logger
	Snapshots SnapshotSource
	History   HistoryQuerier
	Metrics   *metrics.Metrics // optional; /api/metrics returns 404 without it
	MCP       http.Handler     // optional; mounted at Config.MCP.Path when set
	Hub       *Hub             // If set, the server uses this hub instead of creating its own
	StaticDir string           // optional on-disk override for dashboard assets
	Version   string

	// HealthChecks are run by /api/health, keyed by the name reported.
	HealthChecks map[string]HealthChecker
}

// Server is the HTTP API server for the UPS monitor.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	logger    *logging.Logger
	snapshots SnapshotSource
	history   HistoryQuerier
	metrics   *metrics.Metrics
	mcp       http.Handler
	staticDir string
	checks    map[string]HealthChecker
	version   string
	startTime time.Time

	hub         *Hub
	externalHub bool // true if hub was injected externally

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	cancel   context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (logger, snapshot source, history)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Snapshots == nil {
		return nil, fmt.Errorf("snapshot source is required")
	}
	if deps.History == nil {
		return nil, fmt.Errorf("history store is required")
	}

	s := &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		logger:    deps.Logger.Component("api"),
		snapshots: deps.Snapshots,
		history:   deps.History,
		metrics:   deps.Metrics,
		mcp:       deps.MCP,
		staticDir: deps.StaticDir,
		checks:    deps.HealthChecks,
		version:   deps.Version,
		startTime: time.Now(),
	}

	if deps.Hub != nil {
		s.hub = deps.Hub
		s.externalHub = true
	} else {
		s.hub = NewHub(s.wsCfg, s.logger)
	}

	return s, nil
}

// Hub returns the live-update hub, for wiring it as a broadcast.Publisher.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the fully wired router without starting a listener.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start binds the listener and serves HTTP in a background goroutine.
//
// Parameters:
//   - ctx: Parent for the hub's lifetime; the listener runs until Close()
//
// Returns:
//   - error: If the address cannot be bound (port in use, etc.)
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return fmt.Errorf("api server already started")
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if !s.externalHub {
		go s.hub.Run(srvCtx)
	}

	s.listener = ln
	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}

	s.logger.Info("API server starting", "address", ln.Addr().String())

	srv := s.server
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	err := s.server.Shutdown(ctx)
	s.server = nil
	s.listener = nil
	if err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
