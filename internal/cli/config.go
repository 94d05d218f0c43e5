package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	macae "github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005"
)

// envPrefix scopes environment overrides, e.g. MACAE_HTTP_ADDR.
const envPrefix = "MACAE"

// loadConfig merges defaults, the optional YAML file and MACAE_* variables.
func loadConfig(v *viper.Viper, file string) (*macae.Config, error) {
	defaults := macae.DefaultConfig()
	setDefaults(v, defaults)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{"policy.plan", "policy.final"} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %v: %w", file, err)
		}
	}
	ret := macae.DefaultConfig()
	if err := v.Unmarshal(ret); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return ret, ret.Validate()
}

func setDefaults(v *viper.Viper, c *macae.Config) {
	v.SetDefault("coordinator.planApprovalTimeout", c.Coordinator.PlanApprovalTimeout)
	v.SetDefault("coordinator.finalApprovalTimeout", c.Coordinator.FinalApprovalTimeout)
	v.SetDefault("coordinator.agentTimeout", c.Coordinator.AgentTimeout)
	v.SetDefault("coordinator.failurePolicy", c.Coordinator.FailurePolicy)
	v.SetDefault("coordinator.defaultSequence", c.Coordinator.DefaultSequence)
	v.SetDefault("events.buffer", c.Events.Buffer)
	v.SetDefault("store.retention", c.Store.Retention)
	v.SetDefault("store.sweepInterval", c.Store.SweepInterval)
	v.SetDefault("journal.kind", c.Journal.Kind)
	v.SetDefault("journal.url", c.Journal.URL)
	v.SetDefault("journal.buffer", c.Journal.Buffer)
	v.SetDefault("journal.maxRetries", c.Journal.MaxRetries)
	v.SetDefault("journal.retryDelay", c.Journal.RetryDelay)
	v.SetDefault("redis.addr", c.Redis.Addr)
	v.SetDefault("redis.password", c.Redis.Password)
	v.SetDefault("redis.db", c.Redis.DB)
	v.SetDefault("redis.prefix", c.Redis.Prefix)
	v.SetDefault("http.addr", c.HTTP.Addr)
	v.SetDefault("http.healthAddr", c.HTTP.HealthAddr)
	v.SetDefault("tracing.enabled", c.Tracing.Enabled)
	v.SetDefault("tracing.output", c.Tracing.Output)
}
