package policy

import (
	"context"
	"fmt"
	"strings"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/agent"
	approval "github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/approval"
)

// Mode decides how a checkpoint is resolved.
type Mode string

const (
	ModeAsk  Mode = "ask"  // wait for a human decision (default)
	ModeAuto Mode = "auto" // approve without asking
	ModeDeny Mode = "deny" // reject without asking
)

func (m Mode) Valid() bool {
	return m == "" || m == ModeAsk || m == ModeAuto || m == ModeDeny
}

// Policy holds the approval and agent filtering settings of a run.
//
//   - PlanMode, FinalMode control each checkpoint; empty means ask.
//   - AllowList, BlockList filter agents; the block list wins.
//
// A nil *Policy asks at both checkpoints and allows every agent.
type Policy struct {
	PlanMode  Mode
	FinalMode Mode
	AllowList []string
	BlockList []string
}

// ModeFor returns the mode of checkpoint.
func (p *Policy) ModeFor(checkpoint approval.Checkpoint) Mode {
	if p == nil {
		return ModeAsk
	}
	mode := p.PlanMode
	if checkpoint == approval.CheckpointFinal {
		mode = p.FinalMode
	}
	if mode == "" {
		return ModeAsk
	}
	return mode
}

// IsAllowed evaluates AllowList and BlockList. Entries may use agent aliases.
func (p *Policy) IsAllowed(id agent.ID) bool {
	if p == nil {
		return true
	}
	for _, b := range p.BlockList {
		if matches(b, id) {
			return false
		}
	}
	if len(p.AllowList) == 0 {
		return true
	}
	for _, a := range p.AllowList {
		if matches(a, id) {
			return true
		}
	}
	return false
}

func matches(entry string, id agent.ID) bool {
	parsed, err := agent.Parse(entry)
	if err != nil {
		return strings.EqualFold(strings.TrimSpace(entry), string(id))
	}
	return parsed == id
}

// Validate checks modes and list entries.
func (p *Policy) Validate() error {
	if p == nil {
		return nil
	}
	if !p.PlanMode.Valid() {
		return fmt.Errorf("policy: invalid plan mode %q", p.PlanMode)
	}
	if !p.FinalMode.Valid() {
		return fmt.Errorf("policy: invalid final mode %q", p.FinalMode)
	}
	for _, list := range [][]string{p.AllowList, p.BlockList} {
		for _, entry := range list {
			if _, err := agent.Parse(entry); err != nil {
				return fmt.Errorf("policy: %w", err)
			}
		}
	}
	return nil
}

// Config is the serialisable form of a Policy.
type Config struct {
	Plan      string   `json:"plan,omitempty" yaml:"plan,omitempty" mapstructure:"plan"`
	Final     string   `json:"final,omitempty" yaml:"final,omitempty" mapstructure:"final"`
	AllowList []string `json:"allow,omitempty" yaml:"allow,omitempty" mapstructure:"allow"`
	BlockList []string `json:"block,omitempty" yaml:"block,omitempty" mapstructure:"block"`
}

// ToConfig converts a runtime Policy into a persistable Config.
func ToConfig(p *Policy) *Config {
	if p == nil {
		return nil
	}
	return &Config{
		Plan:      string(p.PlanMode),
		Final:     string(p.FinalMode),
		AllowList: append([]string(nil), p.AllowList...),
		BlockList: append([]string(nil), p.BlockList...),
	}
}

// FromConfig converts a stored Config back to a runtime Policy.
func FromConfig(c *Config) *Policy {
	if c == nil {
		return nil
	}
	return &Policy{
		PlanMode:  Mode(strings.ToLower(c.Plan)),
		FinalMode: Mode(strings.ToLower(c.Final)),
		AllowList: append([]string(nil), c.AllowList...),
		BlockList: append([]string(nil), c.BlockList...),
	}
}

type ctxKeyT struct{}

var ctxKey ctxKeyT

// WithPolicy embeds a per-run policy override in ctx.
func WithPolicy(ctx context.Context, p *Policy) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey, p)
}

// FromContext extracts the policy, or nil.
func FromContext(ctx context.Context) *Policy {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxKey).(*Policy); ok {
		return v
	}
	return nil
}
