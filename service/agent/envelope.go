package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Envelope is the result returned by one agent invocation.
type Envelope struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Message string                 `json:"message,omitempty"`
}

// Clone returns a copy with its own top-level data map.
func (e *Envelope) Clone() *Envelope {
	if e == nil {
		return nil
	}
	ret := &Envelope{Success: e.Success, Message: e.Message}
	if e.Data != nil {
		ret.Data = make(map[string]interface{}, len(e.Data))
		for k, v := range e.Data {
			ret.Data[k] = v
		}
	}
	return ret
}

// Summary renders a one-line description used in execution log entries.
func (e *Envelope) Summary() string {
	if e == nil {
		return "no result"
	}
	if e.Message != "" {
		return e.Message
	}
	if len(e.Data) == 0 {
		return "empty result"
	}
	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("%d field(s): %s", len(keys), strings.Join(keys, ", "))
}

// Input is what the coordinator passes to every agent.
type Input struct {
	WorkflowID      string
	TaskDescription string
	StepIndex       int
	// CollectedData holds results of previously completed steps keyed by agent.
	CollectedData map[ID]*Envelope
	// Order lists CollectedData keys in execution order.
	Order []ID
}

// Func invokes one agent.
type Func func(ctx context.Context, in *Input) (*Envelope, error)

// Adapter is implemented by concrete agent integrations.
type Adapter interface {
	ID() ID
	Invoke(ctx context.Context, in *Input) (*Envelope, error)
}
