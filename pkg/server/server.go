package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/rplryan/x402-routenet/pkg/config"
	"github.com/rplryan/x402-routenet/pkg/mcp"
	"github.com/rplryan/x402-routenet/pkg/routing"
	"github.com/rplryan/x402-routenet/pkg/telemetry"
)

// History is the read side of the route history consumed by the HTTP
// surface. The stores package provides the canonical implementation.
type History interface {
	RecentRoutes(ctx context.Context, limit int) ([]routing.RouteRecord, error)
	CountRoutes(ctx context.Context) (int64, error)
	HealthCheck(ctx context.Context) error
}

// Options configures the HTTP server.
type Options struct {
	// Config is the loaded service configuration.
	Config *config.Config

	// Engine makes routing decisions.
	Engine *routing.Engine

	// History serves the recent-routes endpoints. Optional.
	History History

	// MCP serves the /smithery JSON-RPC endpoint. Optional.
	MCP *mcp.Handler

	// Metrics exposes the /metrics endpoint when enabled.
	Metrics *telemetry.Metrics

	// Logger is the server's structured logger.
	Logger zerolog.Logger

	// Version is reported by /health and the root index.
	Version string
}

// Server is the RouteNet HTTP server.
type Server struct {
	cfg     *config.Config
	engine  *routing.Engine
	history History
	mcp     *mcp.Handler
	metrics *telemetry.Metrics
	logger  zerolog.Logger
	version string

	httpSrv *http.Server
	started time.Time
}

// New assembles the HTTP server and its routes.
func New(opts Options) *Server {
	s := &Server{
		cfg:     opts.Config,
		engine:  opts.Engine,
		history: opts.History,
		mcp:     opts.MCP,
		metrics: opts.Metrics,
		logger:  opts.Logger.With().Str("component", "http-server").Logger(),
		version: opts.Version,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())
	router.Use(cors.New(s.corsConfig()))

	router.GET("/", s.handleRoot)
	router.GET("/health", s.handleHealth)
	router.POST("/route", s.handleRoute)
	router.GET("/simulate", s.handleSimulate)
	router.GET("/strategies", s.handleStrategies)
	router.GET("/routes/recent", s.handleRecentRoutes)

	if s.mcp != nil {
		router.POST("/smithery", s.handleMCP)
		router.GET("/smithery", s.handleMCPInfo)
	}
	if s.metrics != nil {
		router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	s.httpSrv = &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the underlying HTTP handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Run serves HTTP until the context is cancelled, then shuts down
// gracefully within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	s.started = time.Now().UTC()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.httpSrv.Addr).Msg("HTTP server listening")
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info().Dur("timeout", timeout).Msg("shutting down HTTP server")
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	origins := s.cfg.Server.CORSOrigins
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// requestLogger logs each request at debug with method, path, status and
// duration.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}
