package workflow

import (
	"bytes"
	"encoding/json"
)

// Approval is a tri-state checkpoint decision: unset, granted or denied.
type Approval int8

const (
	ApprovalUnset Approval = iota
	ApprovalGranted
	ApprovalDenied
)

// ApprovalOf converts a decision into its tri-state value.
func ApprovalOf(approved bool) Approval {
	if approved {
		return ApprovalGranted
	}
	return ApprovalDenied
}

// IsSet reports whether a decision was recorded.
func (a Approval) IsSet() bool { return a != ApprovalUnset }

// Bool returns the recorded decision and whether one exists.
func (a Approval) Bool() (approved bool, set bool) {
	return a == ApprovalGranted, a.IsSet()
}

func (a Approval) String() string {
	switch a {
	case ApprovalGranted:
		return "true"
	case ApprovalDenied:
		return "false"
	default:
		return "unset"
	}
}

// MarshalJSON encodes unset as null.
func (a Approval) MarshalJSON() ([]byte, error) {
	if !a.IsSet() {
		return []byte("null"), nil
	}
	return json.Marshal(a == ApprovalGranted)
}

func (a *Approval) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*a = ApprovalUnset
		return nil
	}
	var approved bool
	if err := json.Unmarshal(data, &approved); err != nil {
		return err
	}
	*a = ApprovalOf(approved)
	return nil
}
