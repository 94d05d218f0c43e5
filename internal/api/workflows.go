package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/policy"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/agent"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/coordinator"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/store"
)

// StartRequest is the body of POST /workflows. When Agents is absent the
// sequence comes from the planner; an empty list runs no agent.
type StartRequest struct {
	WorkflowID      string         `json:"workflow_id,omitempty"`
	SessionID       string         `json:"session_id,omitempty"`
	TaskDescription string         `json:"task_description"`
	Agents          []string       `json:"agents,omitempty"`
	Policy          *policy.Config `json:"policy,omitempty"`
}

// StartResponse acknowledges an accepted run.
type StartResponse struct {
	WorkflowID string         `json:"workflow_id"`
	Sequence   agent.Sequence `json:"sequence"`
	PlanSource string         `json:"plan_source"`
	PlanError  string         `json:"plan_error,omitempty"`
}

// StartWorkflow starts a run in the background
// (POST /api/v1/workflows)
func (s *Server) StartWorkflow(c echo.Context) error {
	ctx := c.Request().Context()
	var req StartRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}
	if req.TaskDescription == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "task_description is required")
	}
	pol := policy.FromConfig(req.Policy)
	if err := pol.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	resp := &StartResponse{PlanSource: "request"}
	var seq agent.Sequence
	if req.Agents == nil {
		plan := s.coordinator.Plan(ctx, req.TaskDescription)
		seq, resp.PlanSource = plan.Sequence, plan.Source
		if plan.Err != nil {
			resp.PlanError = plan.Err.Error()
		}
	} else {
		var err error
		if seq, err = agent.ParseSequence(req.Agents); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}

	id, _, err := s.coordinator.Start(ctx, &coordinator.Request{
		WorkflowID:      req.WorkflowID,
		SessionID:       req.SessionID,
		TaskDescription: req.TaskDescription,
		Sequence:        seq,
		Policy:          pol,
	})
	if err != nil {
		return toHTTPError(err)
	}
	s.logger.Infow("workflow accepted", "workflow_id", id, "sequence", seq.Strings(), "plan_source", resp.PlanSource)
	resp.WorkflowID = id
	resp.Sequence = seq
	return c.JSON(http.StatusAccepted, resp)
}

// ListWorkflows returns every stored workflow
// (GET /api/v1/workflows)
func (s *Server) ListWorkflows(c echo.Context) error {
	workflows, err := s.store.List(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, workflows)
}

// GetWorkflow returns one workflow context
// (GET /api/v1/workflows/:id)
func (s *Server) GetWorkflow(c echo.Context) error {
	wf, err := s.store.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, wf)
}

// CancelWorkflow cancels a running workflow
// (DELETE /api/v1/workflows/:id)
func (s *Server) CancelWorkflow(c echo.Context) error {
	id := c.Param("id")
	if s.coordinator.Cancel(id) {
		return c.JSON(http.StatusAccepted, map[string]string{"workflow_id": id, "status": "cancelling"})
	}
	if _, err := s.store.Get(c.Request().Context(), id); err != nil {
		return toHTTPError(err)
	}
	return echo.NewHTTPError(http.StatusConflict, "workflow is not running")
}

func toHTTPError(err error) error {
	var configErr *coordinator.ConfigurationError
	switch {
	case errors.Is(err, store.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrInvalidID):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.As(err, &configErr):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, coordinator.ErrDuplicateWorkflow):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
