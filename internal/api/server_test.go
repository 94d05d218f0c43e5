package api_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	macae "github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/internal/api"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/model/workflow"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/agent"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/agent/mock"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/approval"
)

func newEcho(t *testing.T) (*echo.Echo, *macae.Service) {
	t.Helper()
	srv, err := macae.New()
	require.NoError(t, err)
	require.NoError(t, mock.RegisterAll(srv.Registry(), 0))
	server := api.NewServer(srv.Store(), srv.Approvals(), srv.Coordinator(), srv.Events(), nil)
	return api.NewEcho(server, "macae-test"), srv
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func waitPending(t *testing.T, srv *macae.Service, id string, cp approval.Checkpoint) {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(approval.FilterPending(context.Background(), srv.Approvals(),
			approval.WithWorkflowID(id), approval.WithCheckpoint(cp))) == 1
	}, 2*time.Second, time.Millisecond)
}

func TestStartWorkflow(t *testing.T) {
	type testCase struct {
		name         string
		body         string
		expectCode   int
		expectSeq    agent.Sequence
		expectSource string
	}
	tests := []testCase{
		{
			name:         "explicit agents with aliases",
			body:         `{"task_description":"Why is PO-88 late?","agents":["gmail","erp"]}`,
			expectCode:   http.StatusAccepted,
			expectSeq:    agent.Sequence{agent.Email, agent.Invoice},
			expectSource: "request",
		},
		{
			name:         "planned when agents are absent",
			body:         `{"task_description":"Why is PO-88 late?"}`,
			expectCode:   http.StatusAccepted,
			expectSeq:    agent.Sequence{agent.Email, agent.Invoice, agent.CRM, agent.Analysis},
			expectSource: "default",
		},
		{
			name:       "unknown agent",
			body:       `{"task_description":"x","agents":["fax"]}`,
			expectCode: http.StatusBadRequest,
		},
		{
			name:       "blocked by request policy",
			body:       `{"task_description":"x","agents":["crm"],"policy":{"block":["crm"]}}`,
			expectCode: http.StatusBadRequest,
		},
		{
			name:       "missing task",
			body:       `{"agents":["email"]}`,
			expectCode: http.StatusBadRequest,
		},
		{
			name:       "malformed body",
			body:       `{"task_description":`,
			expectCode: http.StatusBadRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e, srv := newEcho(t)
			rec := do(e, http.MethodPost, "/api/v1/workflows", tc.body)
			require.Equal(t, tc.expectCode, rec.Code, rec.Body.String())
			if tc.expectCode != http.StatusAccepted {
				return
			}
			var resp api.StartResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.WorkflowID)
			assert.Equal(t, tc.expectSeq, resp.Sequence)
			assert.Equal(t, tc.expectSource, resp.PlanSource)

			waitPending(t, srv, resp.WorkflowID, approval.CheckpointPlan)
			assert.True(t, srv.Coordinator().Cancel(resp.WorkflowID))
		})
	}
}

func TestWorkflowLifecycle(t *testing.T) {
	e, srv := newEcho(t)

	rec := do(e, http.MethodPost, "/api/v1/workflows", `{"workflow_id":"wf-api","task_description":"Check INV-1042","agents":["invoice"]}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	rec = do(e, http.MethodPost, "/api/v1/workflows", `{"workflow_id":"wf-api","task_description":"again","agents":["invoice"]}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	waitPending(t, srv, "wf-api", approval.CheckpointPlan)
	rec = do(e, http.MethodGet, "/api/v1/approvals?workflow_id=wf-api", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var pending []*approval.Request
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pending))
	require.Len(t, pending, 1)
	assert.Contains(t, pending[0].Payload, "invoice")

	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPost, "/api/v1/workflows/wf-api/approvals/middle", `{"approved":true}`).Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodPost, "/api/v1/workflows/wf-api/approvals/final", `{"approved":true}`).Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodPost, "/api/v1/workflows/wf-api/approvals/plan", `{"approved":true}`).Code)

	waitPending(t, srv, "wf-api", approval.CheckpointFinal)
	assert.Equal(t, http.StatusOK, do(e, http.MethodPost, "/api/v1/workflows/wf-api/approvals/final", `{"approved":false,"feedback":"numbers look off"}`).Code)

	require.Eventually(t, func() bool {
		wf, err := srv.Store().Get(context.Background(), "wf-api")
		return err == nil && wf.Status.IsTerminal()
	}, 2*time.Second, time.Millisecond)

	rec = do(e, http.MethodGet, "/api/v1/workflows/wf-api", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var wf workflow.Context
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &wf))
	assert.Equal(t, workflow.StatusRejected, wf.Status)
	assert.Equal(t, workflow.ApprovalGranted, wf.PlanApproved)
	assert.Equal(t, workflow.ApprovalDenied, wf.FinalApproved)
	assert.Equal(t, []agent.ID{agent.Invoice}, wf.CollectedData.Keys())
	require.NotNil(t, wf.Report)

	rec = do(e, http.MethodGet, "/api/v1/workflows", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []*workflow.Context
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = do(e, http.MethodGet, "/api/v1/approvals/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats approval.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.EqualValues(t, 2, stats.Total)
	assert.EqualValues(t, 1, stats.Approved)
	assert.EqualValues(t, 1, stats.Rejected)

	assert.Equal(t, http.StatusConflict, do(e, http.MethodDelete, "/api/v1/workflows/wf-api", "").Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodDelete, "/api/v1/workflows/missing", "").Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/api/v1/workflows/missing", "").Code)
}

func TestCancelWorkflow(t *testing.T) {
	e, srv := newEcho(t)
	rec := do(e, http.MethodPost, "/api/v1/workflows", `{"workflow_id":"wf-c","task_description":"x","agents":["email"]}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	waitPending(t, srv, "wf-c", approval.CheckpointPlan)

	assert.Equal(t, http.StatusAccepted, do(e, http.MethodDelete, "/api/v1/workflows/wf-c", "").Code)
	require.Eventually(t, func() bool {
		wf, err := srv.Store().Get(context.Background(), "wf-c")
		return err == nil && wf.Status == workflow.StatusRejected
	}, 2*time.Second, time.Millisecond)
}

func TestStreamEvents(t *testing.T) {
	e, srv := newEcho(t)
	ts := httptest.NewServer(e)
	defer ts.Close()

	rec := do(e, http.MethodPost, "/api/v1/workflows", `{"workflow_id":"wf-sse","task_description":"Check PO-7","agents":["email","invoice"]}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	waitPending(t, srv, "wf-sse", approval.CheckpointPlan)

	resp, err := http.Get(ts.URL + "/api/v1/workflows/wf-sse/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get(echo.HeaderContentType))
	require.Eventually(t, func() bool { return srv.Events().Subscribers("wf-sse") == 1 }, time.Second, time.Millisecond)

	stop := approval.AutoApprove(context.Background(), srv.Approvals(), 2*time.Millisecond)
	defer stop()

	names := map[string]int{}
	var last string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			names[strings.TrimPrefix(line, "event: ")]++
		case strings.HasPrefix(line, "data: "):
			last = strings.TrimPrefix(line, "data: ")
		}
	}
	assert.Greater(t, names["progress"], 0)
	assert.Greater(t, names[approval.TopicResolved], 0)
	assert.Contains(t, last, `"stage":"completed"`)

	resp2, err := http.Get(ts.URL + "/api/v1/workflows/wf-sse/events")
	require.NoError(t, err)
	defer resp2.Body.Close()
	scanner = bufio.NewScanner(resp2.Body)
	var lines []string
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	assert.Equal(t, []string{"event: status", `data: {"status":"completed","workflow_id":"wf-sse"}`}, lines)

	missing, err := http.Get(ts.URL + "/api/v1/workflows/missing/events")
	require.NoError(t, err)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}
