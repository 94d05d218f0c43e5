package workflow

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/agent"
)

// CollectedData maps agent ids to their latest result. Iteration follows
// execution order; re-running an agent replaces its value and moves the key
// to the back.
type CollectedData struct {
	m *orderedmap.OrderedMap[string, *agent.Envelope]
}

// NewCollectedData creates an empty map.
func NewCollectedData() *CollectedData {
	return &CollectedData{m: orderedmap.New[string, *agent.Envelope]()}
}

// Set stores env under id and reports whether a previous value was replaced.
func (c *CollectedData) Set(id agent.ID, env *agent.Envelope) bool {
	_, replaced := c.m.Set(string(id), env)
	if replaced {
		_ = c.m.MoveToBack(string(id))
	}
	return replaced
}

// Get returns the result stored for id.
func (c *CollectedData) Get(id agent.ID) (*agent.Envelope, bool) {
	if c == nil || c.m == nil {
		return nil, false
	}
	return c.m.Get(string(id))
}

// Len returns the number of distinct agents with a result.
func (c *CollectedData) Len() int {
	if c == nil || c.m == nil {
		return 0
	}
	return c.m.Len()
}

// Keys returns agent ids in execution order.
func (c *CollectedData) Keys() []agent.ID {
	if c == nil || c.m == nil {
		return nil
	}
	ret := make([]agent.ID, 0, c.m.Len())
	for pair := c.m.Oldest(); pair != nil; pair = pair.Next() {
		ret = append(ret, agent.ID(pair.Key))
	}
	return ret
}

// Map returns a copy keyed by agent id.
func (c *CollectedData) Map() map[agent.ID]*agent.Envelope {
	ret := make(map[agent.ID]*agent.Envelope, c.Len())
	if c == nil || c.m == nil {
		return ret
	}
	for pair := c.m.Oldest(); pair != nil; pair = pair.Next() {
		ret[agent.ID(pair.Key)] = pair.Value.Clone()
	}
	return ret
}

// Clone returns an independent copy preserving order.
func (c *CollectedData) Clone() *CollectedData {
	ret := NewCollectedData()
	if c == nil || c.m == nil {
		return ret
	}
	for pair := c.m.Oldest(); pair != nil; pair = pair.Next() {
		ret.m.Set(pair.Key, pair.Value.Clone())
	}
	return ret
}

// MarshalJSON encodes the map as a JSON object in execution order.
func (c *CollectedData) MarshalJSON() ([]byte, error) {
	if c == nil || c.m == nil {
		return []byte("{}"), nil
	}
	return c.m.MarshalJSON()
}

func (c *CollectedData) UnmarshalJSON(data []byte) error {
	c.m = orderedmap.New[string, *agent.Envelope]()
	return c.m.UnmarshalJSON(data)
}
