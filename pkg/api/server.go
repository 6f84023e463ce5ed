// Package api exposes the orchestrator over a small REST surface:
// submit a thought, fetch a session snapshot, and report health.
// Adapted from the reference service's Server/NewServer/setupRoutes
// shape, generalized from incident-response alert/chat/trace endpoints
// down to the three operations this domain needs.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/ganaudit/pkg/judge"
	"github.com/codeready-toolchain/ganaudit/pkg/orchestrator"
	"github.com/codeready-toolchain/ganaudit/pkg/session"
	"github.com/codeready-toolchain/ganaudit/pkg/version"
)

// Server is the HTTP API server.
type Server struct {
	engine       *gin.Engine
	httpServer   *http.Server
	orchestrator *orchestrator.Orchestrator
	sessions     *session.Store
	judge        judge.Judge // nil-able; used only by the health check
}

// NewServer creates an API server wired to orch and sessions. j may be
// nil, in which case the health endpoint skips the judge check.
func NewServer(orch *orchestrator.Orchestrator, sessions *session.Store, j judge.Judge) *Server {
	if orch == nil {
		panic("api.NewServer: orchestrator must not be nil")
	}
	if sessions == nil {
		panic("api.NewServer: sessions must not be nil")
	}

	e := gin.New()
	e.Use(gin.Recovery(), gin.Logger(), securityHeaders())

	s := &Server{
		engine:       e,
		orchestrator: orch,
		sessions:     sessions,
		judge:        j,
	}
	s.setupRoutes()
	return s
}

// setupRoutes registers all API routes.
func (s *Server) setupRoutes() {
	s.engine.GET("/health", s.healthHandler)

	v1 := s.engine.Group("/api/v1")
	v1.POST("/thoughts", s.submitThoughtHandler)
	v1.GET("/sessions/:id", s.getSessionHandler)
}

// Start starts the HTTP server on addr (blocking).
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.engine}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

const (
	healthStatusHealthy   = "healthy"
	healthStatusDegraded  = "degraded"
	healthStatusUnhealthy = "unhealthy"
)

// healthHandler handles GET /health.
func (s *Server) healthHandler(c *gin.Context) {
	reqCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]HealthCheck)
	status := healthStatusHealthy

	if s.judge != nil {
		if ok, err := s.judge.IsAvailable(reqCtx); err != nil {
			status = healthStatusDegraded
			checks["judge"] = HealthCheck{Status: healthStatusDegraded, Message: err.Error()}
		} else if !ok {
			status = healthStatusDegraded
			checks["judge"] = HealthCheck{Status: healthStatusDegraded, Message: "judge reported unavailable"}
		} else {
			checks["judge"] = HealthCheck{Status: healthStatusHealthy}
		}
	}

	httpStatus := http.StatusOK
	if status == healthStatusUnhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, &HealthResponse{
		Status:  status,
		Version: version.Full(),
		Checks:  checks,
	})
}
