package idgen

import "github.com/google/uuid"

// NewFunc generates a raw identifier. Override in tests for determinism.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new globally unique identifier.
func New() string { return NewFunc() }

// WithPrefix returns a new identifier prefixed with p and a dash, e.g. "wf-…".
func WithPrefix(p string) string {
	if p == "" {
		return New()
	}
	return p + "-" + New()
}
