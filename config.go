package macae

import (
	"context"
	"fmt"
	"time"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/policy"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/agent"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/coordinator"
)

// Config is a serialisable representation of the engine configuration. It can
// be populated from YAML, JSON or environment variables; LoadConfig overlays a
// document on DefaultConfig so omitted fields keep their defaults.
type Config struct {
	Coordinator CoordinatorConfig `json:"coordinator" yaml:"coordinator" mapstructure:"coordinator"`
	Policy      *policy.Config    `json:"policy,omitempty" yaml:"policy,omitempty" mapstructure:"policy"`
	Events      EventsConfig      `json:"events" yaml:"events" mapstructure:"events"`
	Store       StoreConfig       `json:"store" yaml:"store" mapstructure:"store"`
	Journal     JournalConfig     `json:"journal" yaml:"journal" mapstructure:"journal"`
	Redis       RedisConfig       `json:"redis" yaml:"redis" mapstructure:"redis"`
	HTTP        HTTPConfig        `json:"http" yaml:"http" mapstructure:"http"`
	Tracing     TracingConfig     `json:"tracing" yaml:"tracing" mapstructure:"tracing"`
}

type CoordinatorConfig struct {
	PlanApprovalTimeout  time.Duration `json:"planApprovalTimeout" yaml:"planApprovalTimeout" mapstructure:"planApprovalTimeout"`
	FinalApprovalTimeout time.Duration `json:"finalApprovalTimeout" yaml:"finalApprovalTimeout" mapstructure:"finalApprovalTimeout"`
	AgentTimeout         time.Duration `json:"agentTimeout" yaml:"agentTimeout" mapstructure:"agentTimeout"`
	FailurePolicy        string        `json:"failurePolicy" yaml:"failurePolicy" mapstructure:"failurePolicy"`
	DefaultSequence      []string      `json:"defaultSequence" yaml:"defaultSequence" mapstructure:"defaultSequence"`
}

type EventsConfig struct {
	// Buffer is the per-subscriber queue size.
	Buffer int `json:"buffer" yaml:"buffer" mapstructure:"buffer"`
}

type StoreConfig struct {
	Retention     time.Duration `json:"retention" yaml:"retention" mapstructure:"retention"`
	SweepInterval time.Duration `json:"sweepInterval" yaml:"sweepInterval" mapstructure:"sweepInterval"`
}

// JournalConfig selects the persistence sink: "" (none), "fs" or "postgres".
type JournalConfig struct {
	Kind       string        `json:"kind" yaml:"kind" mapstructure:"kind"`
	URL        string        `json:"url" yaml:"url" mapstructure:"url"`
	Buffer     int           `json:"buffer" yaml:"buffer" mapstructure:"buffer"`
	MaxRetries int           `json:"maxRetries" yaml:"maxRetries" mapstructure:"maxRetries"`
	RetryDelay time.Duration `json:"retryDelay" yaml:"retryDelay" mapstructure:"retryDelay"`
}

type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr" mapstructure:"addr"`
	Password string `json:"password" yaml:"password" mapstructure:"password"`
	DB       int    `json:"db" yaml:"db" mapstructure:"db"`
	Prefix   string `json:"prefix" yaml:"prefix" mapstructure:"prefix"`
}

type HTTPConfig struct {
	Addr       string `json:"addr" yaml:"addr" mapstructure:"addr"`
	HealthAddr string `json:"healthAddr" yaml:"healthAddr" mapstructure:"healthAddr"`
}

type TracingConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Output  string `json:"output" yaml:"output" mapstructure:"output"`
}

const (
	JournalNone     = ""
	JournalFS       = "fs"
	JournalPostgres = "postgres"
)

// DefaultConfig returns a Config populated with the package defaults.
func DefaultConfig() *Config {
	c := coordinator.DefaultConfig()
	return &Config{
		Coordinator: CoordinatorConfig{
			PlanApprovalTimeout:  c.PlanApprovalTimeout,
			FinalApprovalTimeout: c.FinalApprovalTimeout,
			AgentTimeout:         c.AgentTimeout,
			FailurePolicy:        string(c.FailurePolicy),
			DefaultSequence:      c.DefaultSequence.Strings(),
		},
		Events: EventsConfig{Buffer: 64},
		Store: StoreConfig{
			Retention:     time.Hour,
			SweepInterval: 5 * time.Minute,
		},
		Journal: JournalConfig{Buffer: 256, MaxRetries: 3, RetryDelay: 200 * time.Millisecond},
		HTTP:    HTTPConfig{Addr: ":8080", HealthAddr: ":8081"},
	}
}

// CoordinatorSettings converts the serialised settings.
func (c *Config) CoordinatorSettings() (coordinator.Config, error) {
	ret := coordinator.Config{
		PlanApprovalTimeout:  c.Coordinator.PlanApprovalTimeout,
		FinalApprovalTimeout: c.Coordinator.FinalApprovalTimeout,
		AgentTimeout:         c.Coordinator.AgentTimeout,
	}
	var err error
	if ret.FailurePolicy, err = coordinator.ParseFailurePolicy(c.Coordinator.FailurePolicy); err != nil {
		return ret, err
	}
	if ret.DefaultSequence, err = agent.ParseSequence(c.Coordinator.DefaultSequence); err != nil {
		return ret, fmt.Errorf("coordinator.defaultSequence: %w", err)
	}
	return ret, ret.Validate()
}

// Validate returns an error describing the first invalid setting.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if _, err := c.CoordinatorSettings(); err != nil {
		return fmt.Errorf("coordinator: %w", err)
	}
	if err := policy.FromConfig(c.Policy).Validate(); err != nil {
		return err
	}
	if c.Events.Buffer <= 0 {
		return fmt.Errorf("events.buffer must be > 0")
	}
	if c.Store.Retention < 0 || c.Store.SweepInterval < 0 {
		return fmt.Errorf("store retention and sweepInterval must not be negative")
	}
	switch c.Journal.Kind {
	case JournalNone:
	case JournalFS, JournalPostgres:
		if c.Journal.URL == "" {
			return fmt.Errorf("journal.url is required for %s journal", c.Journal.Kind)
		}
	default:
		return fmt.Errorf("unknown journal kind %q", c.Journal.Kind)
	}
	if c.Journal.Buffer <= 0 {
		return fmt.Errorf("journal.buffer must be > 0")
	}
	return nil
}

// LoadConfig reads a YAML document from any afs supported location and
// overlays it on DefaultConfig.
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	data, err := afs.New().DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %v: %w", URL, err)
	}
	ret := DefaultConfig()
	if err := yaml.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to decode config %v: %w", URL, err)
	}
	return ret, ret.Validate()
}
