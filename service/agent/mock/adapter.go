// Package mock provides canned agents for demos, the CLI and tests.
package mock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/agent"
)

// Adapter returns simulated agent responses.
type Adapter struct {
	id    agent.ID
	delay time.Duration
}

// New creates a mock adapter for id that waits delay before answering.
func New(id agent.ID, delay time.Duration) *Adapter {
	return &Adapter{id: id, delay: delay}
}

// RegisterAll binds a mock adapter for every known agent.
func RegisterAll(registry *agent.Registry, delay time.Duration) error {
	for _, id := range agent.Known() {
		if err := registry.RegisterAdapter(New(id, delay)); err != nil {
			return err
		}
	}
	return nil
}

func (m *Adapter) ID() agent.ID { return m.id }

func (m *Adapter) Invoke(ctx context.Context, in *agent.Input) (*agent.Envelope, error) {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	po := purchaseOrder(in.TaskDescription)

	var data map[string]interface{}
	switch m.id {
	case agent.Email:
		data = map[string]interface{}{
			"messages": []interface{}{
				map[string]interface{}{
					"from":    "ap@acme-supplies.com",
					"subject": fmt.Sprintf("Re: %s shipment status", po),
					"body":    fmt.Sprintf("Invoice INV-1042 for %s was sent on 2024-03-02.", po),
				},
			},
			"total": 1,
		}
	case agent.Invoice:
		data = map[string]interface{}{
			"invoices": []interface{}{
				map[string]interface{}{"number": "INV-1042", "po": po, "status": "unpaid", "amount": "$12,400.00"},
			},
		}
	case agent.CRM:
		data = map[string]interface{}{
			"account": "Acme Supplies",
			"contact": "ap@acme-supplies.com",
			"notes":   fmt.Sprintf("Escalation opened for %s", po),
		}
	case agent.Analysis:
		data = map[string]interface{}{
			"inputs":  len(in.CollectedData),
			"finding": fmt.Sprintf("%s has an unpaid invoice INV-1042; supplier contacted by e-mail.", po),
		}
	default:
		return nil, fmt.Errorf("mock: unsupported agent %q", m.id)
	}
	return &agent.Envelope{
		Success: true,
		Data:    data,
		Message: fmt.Sprintf("[mock] %s agent finished step %d", m.id, in.StepIndex),
	}, nil
}

func purchaseOrder(task string) string {
	for _, field := range strings.Fields(task) {
		upper := strings.ToUpper(strings.Trim(field, ".,;:!?\"'()"))
		if strings.HasPrefix(upper, "PO") && len(upper) > 2 {
			return upper
		}
	}
	return "PO-UNKNOWN"
}
