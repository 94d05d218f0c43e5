package agent

import (
	"fmt"
	"sync"
)

// Registry maps agent ids to invocation functions. Sequences are resolved
// once, before a run starts.
type Registry struct {
	mu    sync.RWMutex
	funcs map[ID]Func
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[ID]Func)}
}

// Register binds fn to id, replacing any previous binding.
func (r *Registry) Register(id ID, fn Func) error {
	if !id.Valid() {
		return fmt.Errorf("register: %w: %q", ErrUnknown, id)
	}
	if fn == nil {
		return fmt.Errorf("register %s: nil function", id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[id] = fn
	return nil
}

// RegisterAdapter binds an Adapter under its own id.
func (r *Registry) RegisterAdapter(a Adapter) error {
	if a == nil {
		return fmt.Errorf("register: nil adapter")
	}
	return r.Register(a.ID(), a.Invoke)
}

// Lookup returns the function bound to id.
func (r *Registry) Lookup(id ID) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[id]
	return fn, ok
}

// IDs returns registered ids in declaration order.
func (r *Registry) IDs() []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ret []ID
	for _, id := range known {
		if _, ok := r.funcs[id]; ok {
			ret = append(ret, id)
		}
	}
	return ret
}

// Resolve maps every element of seq to its function, in order.
func (r *Registry) Resolve(seq Sequence) ([]Func, error) {
	if err := seq.Validate(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret := make([]Func, len(seq))
	for i, id := range seq {
		fn, ok := r.funcs[id]
		if !ok {
			return nil, &NotRegisteredError{ID: id, Index: i}
		}
		ret[i] = fn
	}
	return ret, nil
}

// NotRegisteredError is returned when a valid id has no bound function.
type NotRegisteredError struct {
	ID    ID
	Index int
}

func (e *NotRegisteredError) Error() string {
	return fmt.Sprintf("sequence[%d]: no agent registered for %q", e.Index, e.ID)
}
