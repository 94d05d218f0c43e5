package agent

import (
	"errors"
	"fmt"
	"strings"
)

// ID identifies one agent kind. The set is closed: only the constants below
// are valid, anything else is a configuration error.
type ID string

const (
	Email    ID = "email"
	Invoice  ID = "invoice"
	CRM      ID = "crm"
	Analysis ID = "analysis"
)

// ErrUnknown is returned when a value does not name a known agent.
var ErrUnknown = errors.New("unknown agent")

var known = []ID{Email, Invoice, CRM, Analysis}

// aliases accepted from planners and API callers.
var aliases = map[string]ID{
	"email_search":   Email,
	"email_agent":    Email,
	"gmail":          Email,
	"outlook":        Email,
	"invoice_lookup": Invoice,
	"invoice_agent":  Invoice,
	"erp":            Invoice,
	"crm_query":      CRM,
	"crm_agent":      CRM,
	"salesforce":     CRM,
	"analysis_agent": Analysis,
	"analyst":        Analysis,
}

// Known returns all valid agent ids in declaration order.
func Known() []ID {
	return append([]ID(nil), known...)
}

// Valid reports whether id is one of the known agent ids.
func (id ID) Valid() bool {
	for _, k := range known {
		if id == k {
			return true
		}
	}
	return false
}

func (id ID) String() string { return string(id) }

// Parse normalises raw (case, surrounding space, known aliases) into an ID.
func Parse(raw string) (ID, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if id := ID(normalized); id.Valid() {
		return id, nil
	}
	if id, ok := aliases[normalized]; ok {
		return id, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknown, raw)
}

// Sequence is an ordered list of agents to run. Duplicates are allowed.
type Sequence []ID

// ParseSequence parses every element of raw; the first invalid element fails
// the whole sequence.
func ParseSequence(raw []string) (Sequence, error) {
	ret := make(Sequence, 0, len(raw))
	for i, item := range raw {
		id, err := Parse(item)
		if err != nil {
			return nil, fmt.Errorf("sequence[%d]: %w", i, err)
		}
		ret = append(ret, id)
	}
	return ret, nil
}

// Validate returns an error naming the first element that is not a known id.
func (s Sequence) Validate() error {
	for i, id := range s {
		if !id.Valid() {
			return fmt.Errorf("sequence[%d]: %w: %q", i, ErrUnknown, id)
		}
	}
	return nil
}

// Strings converts the sequence to plain strings.
func (s Sequence) Strings() []string {
	ret := make([]string, len(s))
	for i, id := range s {
		ret[i] = string(id)
	}
	return ret
}

// Clone returns an independent copy.
func (s Sequence) Clone() Sequence {
	if s == nil {
		return nil
	}
	return append(Sequence(nil), s...)
}

func (s Sequence) String() string {
	return strings.Join(s.Strings(), " → ")
}
