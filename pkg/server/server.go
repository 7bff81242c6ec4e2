// Package server exposes near-duplicate detection over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/adlens/pkg/dedup"
	"github.com/Sumatoshi-tech/adlens/pkg/observability"
)

// Routes.
const (
	RouteDedup      = "/v1/dedup"
	RouteSimilarity = "/v1/similarity"
	RouteHealth     = "/healthz"
	RouteMetrics    = "/metrics"
)

// Default limits.
const (
	DefaultMaxDocuments    = 50000
	DefaultMaxBodyBytes    = 64 << 20
	DefaultMaxTextBytes    = 1 << 20
	DefaultShutdownTimeout = 10 * time.Second

	tracerName = "adlens/server"
)

// Config holds listener and request limits.
type Config struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// MaxDocuments bounds the documents of one dedup request.
	MaxDocuments int

	// MaxBodyBytes bounds a request body.
	MaxBodyBytes int64

	// MaxTextBytes bounds one document or similarity operand.
	MaxTextBytes int

	// Dedup is the base dedup configuration requests override.
	Dedup dedup.Options
}

// Deps are the optional collaborators of a Server.
type Deps struct {
	Logger          *slog.Logger
	Tracer          trace.Tracer
	RED             *observability.REDMetrics
	PipelineMetrics *observability.PipelineMetrics

	// Metrics serves GET /metrics. Nil leaves the route unregistered.
	Metrics http.Handler
}

// Server is the adlens HTTP API.
type Server struct {
	cfg    Config
	deps   Deps
	engine *gin.Engine
}

// New builds a server and its routes.
func New(cfg Config, deps Deps) *Server {
	if cfg.MaxDocuments <= 0 {
		cfg.MaxDocuments = DefaultMaxDocuments
	}

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	if cfg.MaxTextBytes <= 0 {
		cfg.MaxTextBytes = DefaultMaxTextBytes
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}

	if deps.Logger == nil {
		deps.Logger = observability.DiscardLogger()
	}

	if deps.Tracer == nil {
		deps.Tracer = otel.Tracer(tracerName)
	}

	s := &Server{cfg: cfg, deps: deps}
	s.engine = s.routes()

	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), telemetry(s.deps.Tracer, s.deps.RED, s.deps.Logger), bodyLimit(s.cfg.MaxBodyBytes))

	r.POST(RouteDedup, s.handleDedup)
	r.POST(RouteSimilarity, s.handleSimilarity)
	r.GET(RouteHealth, s.handleHealth)

	if s.deps.Metrics != nil {
		r.GET(RouteMetrics, gin.WrapH(s.deps.Metrics))
	}

	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.Addr(),
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)

	go func() {
		s.deps.Logger.InfoContext(ctx, "server listening", "addr", srv.Addr)

		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()

	s.deps.Logger.InfoContext(ctx, "server shutting down")

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}
