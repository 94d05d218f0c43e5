package coordinator

import (
	"fmt"
	"strings"
	"time"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/agent"
)

// FailurePolicy decides what happens after a step fails.
type FailurePolicy string

const (
	// FailFast ends the run as failed on the first failing step.
	FailFast FailurePolicy = "fail_fast"
	// SkipAndContinue records the failure and moves on to the next step.
	SkipAndContinue FailurePolicy = "skip_and_continue"
)

// ParseFailurePolicy accepts the policy names in any case; empty means FailFast.
func ParseFailurePolicy(raw string) (FailurePolicy, error) {
	switch FailurePolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FailFast:
		return FailFast, nil
	case SkipAndContinue, "skip":
		return SkipAndContinue, nil
	}
	return "", fmt.Errorf("unknown failure policy %q", raw)
}

// Config holds coordinator settings.
type Config struct {
	PlanApprovalTimeout  time.Duration
	FinalApprovalTimeout time.Duration
	// AgentTimeout bounds one agent invocation; zero leaves it unbounded.
	AgentTimeout    time.Duration
	FailurePolicy   FailurePolicy
	DefaultSequence agent.Sequence
}

// DefaultConfig returns finite approval timeouts, fail-fast and the full
// agent sequence as planner fallback.
func DefaultConfig() Config {
	return Config{
		PlanApprovalTimeout:  10 * time.Minute,
		FinalApprovalTimeout: 10 * time.Minute,
		FailurePolicy:        FailFast,
		DefaultSequence:      agent.Sequence{agent.Email, agent.Invoice, agent.CRM, agent.Analysis},
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.PlanApprovalTimeout <= 0 {
		return fmt.Errorf("plan approval timeout must be positive")
	}
	if c.FinalApprovalTimeout <= 0 {
		return fmt.Errorf("final approval timeout must be positive")
	}
	if c.AgentTimeout < 0 {
		return fmt.Errorf("agent timeout must not be negative")
	}
	if _, err := ParseFailurePolicy(string(c.FailurePolicy)); err != nil {
		return err
	}
	if err := c.DefaultSequence.Validate(); err != nil {
		return fmt.Errorf("default sequence: %w", err)
	}
	return nil
}
