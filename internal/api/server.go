// Package api contains the HTTP handlers of the workflow engine.
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/approval"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/coordinator"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/event"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/store"
)

// Server holds the dependencies of the handlers.
type Server struct {
	store       store.Service
	approvals   approval.Service
	coordinator *coordinator.Service
	events      *event.Bus
	logger      *zap.SugaredLogger
}

// NewServer creates a Server; a nil logger disables logging.
func NewServer(st store.Service, approvals approval.Service, coord *coordinator.Service, events *event.Bus, logger *zap.SugaredLogger) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Server{store: st, approvals: approvals, coordinator: coord, events: events, logger: logger}
}

// Register mounts the handlers on g, typically /api/v1.
func (s *Server) Register(g *echo.Group) {
	g.POST("/workflows", s.StartWorkflow)
	g.GET("/workflows", s.ListWorkflows)
	g.GET("/workflows/:id", s.GetWorkflow)
	g.DELETE("/workflows/:id", s.CancelWorkflow)
	g.GET("/workflows/:id/events", s.StreamEvents)
	g.POST("/workflows/:id/approvals/:checkpoint", s.SubmitApproval)
	g.GET("/approvals", s.ListApprovals)
	g.GET("/approvals/stats", s.ApprovalStats)
}

// NewEcho returns an echo instance serving s under /api/v1 with tracing
// and panic recovery.
func NewEcho(s *Server, serviceName string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(otelecho.Middleware(serviceName))
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	s.Register(e.Group("/api/v1"))
	return e
}
