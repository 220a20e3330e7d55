package sampler

import (
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/loomworks/loom/trace"
)

type alwaysOn struct{}

// AlwaysOn returns a sampler that samples every trace.
func AlwaysOn() trace.Sampler {
	return alwaysOn{}
}

func (alwaysOn) ShouldSample(trace.SamplingParameters) trace.SamplingDecision {
	return trace.SamplingDecision{Sampled: true, Reason: "always_on"}
}

func (alwaysOn) Description() string { return "AlwaysOn" }

type alwaysOff struct{}

// AlwaysOff returns a sampler that samples no trace. Spans are still
// created and recorded locally; they never reach the export pipeline.
func AlwaysOff() trace.Sampler {
	return alwaysOff{}
}

func (alwaysOff) ShouldSample(trace.SamplingParameters) trace.SamplingDecision {
	return trace.SamplingDecision{Sampled: false, Reason: "always_off"}
}

func (alwaysOff) Description() string { return "AlwaysOff" }

type probability struct {
	rate      float64
	threshold uint64
}

// Probability returns a sampler that samples the given fraction of traces.
// The decision is a pure function of the trace id: the id's xxhash is
// compared against rate scaled to the uint64 range, so every process
// evaluating the same trace id reaches the same decision without
// coordination.
//
// rate must lie in [0, 1]; anything else is a configuration error.
func Probability(rate float64) (trace.Sampler, error) {
	if math.IsNaN(rate) || rate < 0 || rate > 1 {
		return nil, fmt.Errorf("sampler: probability rate must be in [0, 1], got %v", rate)
	}
	return probability{
		rate:      rate,
		threshold: uint64(rate * float64(math.MaxUint64)),
	}, nil
}

func (p probability) ShouldSample(params trace.SamplingParameters) trace.SamplingDecision {
	if p.rate >= 1 {
		return trace.SamplingDecision{Sampled: true, Reason: "probability"}
	}
	sampled := xxhash.Sum64(params.TraceID[:]) < p.threshold
	return trace.SamplingDecision{Sampled: sampled, Reason: "probability"}
}

func (p probability) Description() string {
	return fmt.Sprintf("Probability(%g)", p.rate)
}
