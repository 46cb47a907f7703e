// Package api exposes the job queue over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clipqueue/internal/analytics"
	"clipqueue/internal/ratelimit"
	"clipqueue/internal/registry"
	"clipqueue/internal/scheduler"
)

// Server wires the HTTP surface over the scheduler and its read models
type Server struct {
	engine    *gin.Engine
	sched     *scheduler.Scheduler
	registry  *registry.Registry
	limiter   *ratelimit.Limiter
	collector *analytics.Collector
	isAdmin   func(owner string) bool
	logger    *zap.Logger

	http *http.Server
}

// New builds the router. isAdmin decides who may read admin stats and
// bypass rate limiting.
func New(
	sched *scheduler.Scheduler,
	reg *registry.Registry,
	limiter *ratelimit.Limiter,
	collector *analytics.Collector,
	isAdmin func(owner string) bool,
	logger *zap.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		engine:    gin.New(),
		sched:     sched,
		registry:  reg,
		limiter:   limiter,
		collector: collector,
		isAdmin:   isAdmin,
		logger:    logger,
	}
	s.engine.Use(gin.Recovery())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.health)

	s.engine.POST("/jobs", s.submit)
	s.engine.GET("/jobs/:id", s.getJob)
	s.engine.DELETE("/jobs/:id", s.cancelJob)

	s.engine.GET("/queue", s.getQueue)
	s.engine.GET("/users/:id/status", s.userStatus)

	s.engine.GET("/stats", s.stats)
	s.engine.GET("/admin/stats", s.adminStats)
}

// Handler exposes the router for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}
