// Package api provides the thin admin REST surface spec.md §6 describes:
// statistics and configuration over HTTP, nothing more. Grounded on the
// teacher's internal/api (gin.Engine + http.Server wiring, SlogRequestLogger
// middleware) but narrowed to the spec's four routes plus a GET /api/system
// host snapshot — no swagger, no
// zone/cluster/custom-DNS endpoints, no API-key middleware (spec.md §6
// names no auth mechanism for this surface).
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/resolvd/resolvd/internal/resolvdconfig"
	"github.com/resolvd/resolvd/internal/stats"
)

// Server is the admin HTTP server.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
}

// New builds a Server bound to addr, backed by cfgStore and stats.
func New(addr string, cfgStore *resolvdconfig.Store, sink *stats.Sink, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(slogRequestLogger(logger))

	h := &Handler{cfgStore: cfgStore, stats: sink, startTime: time.Now()}
	registerRoutes(engine, h)

	return &Server{
		engine: engine,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           engine,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Engine exposes the underlying router, for tests that want to drive
// requests with httptest without binding a real socket.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// ListenAndServe blocks serving admin requests until the server is shut
// down or fails to bind.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func slogRequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		if logger != nil {
			logger.Info("admin api request",
				"method", method,
				"path", path,
				"status", c.Writer.Status(),
				"latency_ms", time.Since(start).Milliseconds(),
			)
		}
	}
}
