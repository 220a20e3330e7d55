package sampler

import (
	"fmt"

	"github.com/loomworks/loom/trace"
)

// Known strategy names for Config.Strategy.
const (
	StrategyAlwaysOn     = "always_on"
	StrategyAlwaysOff    = "always_off"
	StrategyProbability  = "probability"
	StrategyRateLimiting = "rate_limiting"
)

// Config defines the configuration structure for sampler selection. The
// strategy is resolved once at startup; there is no runtime re-selection.
type Config struct {
	// Strategy selects the sampling strategy. One of "always_on",
	// "always_off", "probability", "rate_limiting".
	//
	// This setting can be configured via:
	//   - YAML configuration with the "strategy" key
	//   - Environment variable SAMPLER_STRATEGY
	//
	// Default: "always_on"
	Strategy string `yaml:"strategy" envconfig:"SAMPLER_STRATEGY"`

	// Rate is the sampled fraction for the "probability" strategy, in
	// [0, 1]. Ignored by other strategies.
	//
	// This setting can be configured via:
	//   - YAML configuration with the "rate" key
	//   - Environment variable SAMPLER_RATE
	Rate float64 `yaml:"rate" envconfig:"SAMPLER_RATE"`

	// TracesPerSecond is the admission bound for the "rate_limiting"
	// strategy. Ignored by other strategies.
	//
	// This setting can be configured via:
	//   - YAML configuration with the "traces_per_second" key
	//   - Environment variable SAMPLER_TRACES_PER_SECOND
	TracesPerSecond float64 `yaml:"traces_per_second" envconfig:"SAMPLER_TRACES_PER_SECOND"`
}

// FromConfig builds the sampler selected by cfg. An empty strategy means
// AlwaysOn. Unknown strategies and invalid rates are initialization-time
// errors.
func FromConfig(cfg Config) (trace.Sampler, error) {
	switch cfg.Strategy {
	case "", StrategyAlwaysOn:
		return AlwaysOn(), nil
	case StrategyAlwaysOff:
		return AlwaysOff(), nil
	case StrategyProbability:
		return Probability(cfg.Rate)
	case StrategyRateLimiting:
		return RateLimiting(cfg.TracesPerSecond)
	default:
		return nil, fmt.Errorf("sampler: unknown strategy %q", cfg.Strategy)
	}
}
