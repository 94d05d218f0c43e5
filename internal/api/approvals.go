package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/approval"
)

// Decision is the body of an approval response.
type Decision struct {
	Approved bool   `json:"approved"`
	Feedback string `json:"feedback,omitempty"`
}

// SubmitApproval resolves a pending checkpoint
// (POST /api/v1/workflows/:id/approvals/:checkpoint)
func (s *Server) SubmitApproval(c echo.Context) error {
	checkpoint, err := approval.ParseCheckpoint(c.Param("checkpoint"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	var decision Decision
	if err := c.Bind(&decision); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}
	id := c.Param("id")
	if !s.approvals.SubmitResponse(c.Request().Context(), id, checkpoint, decision.Approved, decision.Feedback) {
		return echo.NewHTTPError(http.StatusNotFound, "no pending "+string(checkpoint)+" approval for workflow "+id)
	}
	s.logger.Infow("approval submitted", "workflow_id", id, "checkpoint", checkpoint, "approved", decision.Approved)
	return c.JSON(http.StatusOK, map[string]interface{}{"workflow_id": id, "checkpoint": checkpoint, "accepted": true})
}

// ListApprovals returns pending requests, optionally filtered by
// ?workflow_id= and ?checkpoint=
// (GET /api/v1/approvals)
func (s *Server) ListApprovals(c echo.Context) error {
	var filters []approval.PendingFilter
	if id := c.QueryParam("workflow_id"); id != "" {
		filters = append(filters, approval.WithWorkflowID(id))
	}
	if raw := c.QueryParam("checkpoint"); raw != "" {
		checkpoint, err := approval.ParseCheckpoint(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		filters = append(filters, approval.WithCheckpoint(checkpoint))
	}
	return c.JSON(http.StatusOK, approval.FilterPending(c.Request().Context(), s.approvals, filters...))
}

// ApprovalStats returns request counters
// (GET /api/v1/approvals/stats)
func (s *Server) ApprovalStats(c echo.Context) error {
	return c.JSON(http.StatusOK, s.approvals.Stats())
}
