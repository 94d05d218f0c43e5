package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/progress"
)

// StreamEvents pushes progress and approval events of one workflow as
// Server-Sent Events until the run ends or the client goes away. A finished
// workflow yields a single status event.
// (GET /api/v1/workflows/:id/events)
func (s *Server) StreamEvents(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	sub := s.events.Subscribe(id)
	defer sub.Close()

	wf, err := s.store.Get(ctx, id)
	if err != nil {
		return toHTTPError(err)
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	if wf.Status.IsTerminal() {
		return writeEvent(res, "status", map[string]interface{}{"workflow_id": id, "status": wf.Status})
	}
	for {
		e, err := sub.Next(ctx)
		if err != nil {
			// client gone or subscription closed
			return nil
		}
		if err := writeEvent(res, e.Topic(), e.Data); err != nil {
			return err
		}
		if p, ok := e.Data.(progress.Event); ok && p.Stage.Terminal() {
			return nil
		}
	}
}

func writeEvent(res *echo.Response, name string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", name, payload); err != nil {
		return err
	}
	res.Flush()
	return nil
}

