// Package server exposes the distribution service over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/roach88/yggdrasil/internal/delta"
	"github.com/roach88/yggdrasil/internal/distribution"
	"github.com/roach88/yggdrasil/internal/sparql"
)

// ShutdownTimeout bounds how long in-flight requests may take once the
// server is asked to stop.
const ShutdownTimeout = 30 * time.Second

// Engine is one profile's distribution engine.
type Engine interface {
	delta.Runner
	LastResult() (distribution.RunResult, bool)
}

// Options wires the server to the rest of the service.
type Options struct {
	// Engines are every configured profile, enabled or not.
	Engines []Engine

	// Enabled names the profiles that react to change notifications.
	Enabled []string

	Resolver  delta.Resolver
	Coalescer *delta.Coalescer

	// ServiceName labels server spans.
	ServiceName string
}

// Server routes HTTP requests to the engines, the resolver and the
// coalescer.
type Server struct {
	engines   map[string]Engine
	order     []string
	enabled   map[string]bool
	resolver  delta.Resolver
	coalescer *delta.Coalescer
	router    *gin.Engine
}

// New creates a server. Call gin.SetMode before New to change gin's mode.
func New(opts Options) *Server {
	s := &Server{
		engines:   make(map[string]Engine, len(opts.Engines)),
		enabled:   make(map[string]bool, len(opts.Enabled)),
		resolver:  opts.Resolver,
		coalescer: opts.Coalescer,
	}
	for _, e := range opts.Engines {
		name := e.Profile().Name
		s.engines[name] = e
		s.order = append(s.order, name)
	}
	for _, name := range opts.Enabled {
		s.enabled[name] = true
	}

	name := opts.ServiceName
	if name == "" {
		name = "yggdrasil"
	}
	r := gin.New()
	r.Use(gin.Recovery(), otelgin.Middleware(name), requestLogger(), muHeaders())
	s.routes(r)
	s.router = r
	return s
}

func (s *Server) routes(r *gin.Engine) {
	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/delta", s.handleDelta)
	r.POST("/resolve", s.handleResolve)

	d := r.Group("/distributions")
	{
		d.GET("", s.handleListDistributions)
		d.POST("/:profile", s.handleRunDistribution)
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx ends, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer cancel()
	slog.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// requestLogger logs every request with slog.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// muHeaders carries the mu session headers of the request into its
// context, so store requests made on its behalf forward them.
func muHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := sparql.Headers{
			SessionID:     c.GetHeader(sparql.HeaderSessionID),
			CallID:        c.GetHeader(sparql.HeaderCallID),
			AllowedGroups: c.GetHeader(sparql.HeaderAllowedGroups),
		}
		if h != (sparql.Headers{}) {
			c.Request = c.Request.WithContext(sparql.WithHeaders(c.Request.Context(), h))
		}
		c.Next()
	}
}
