package sampler

import (
	"fmt"
	"math"

	"golang.org/x/time/rate"

	"github.com/loomworks/loom/trace"
)

type rateLimiting struct {
	perSecond float64
	limiter   *rate.Limiter
}

// RateLimiting returns a sampler that admits at most perSecond traces per
// second, regardless of traffic volume. The limiter allows a burst of one
// second's budget, so short spikes after idle periods are still captured.
//
// Unlike Probability, the decision depends on local timing, so different
// processes may disagree about the same trace id. Use it where a hard
// bound on exported volume matters more than cross-process consistency.
func RateLimiting(perSecond float64) (trace.Sampler, error) {
	if math.IsNaN(perSecond) || perSecond <= 0 {
		return nil, fmt.Errorf("sampler: rate limit must be positive, got %v", perSecond)
	}
	burst := int(math.Ceil(perSecond))
	if burst < 1 {
		burst = 1
	}
	return rateLimiting{
		perSecond: perSecond,
		limiter:   rate.NewLimiter(rate.Limit(perSecond), burst),
	}, nil
}

func (r rateLimiting) ShouldSample(trace.SamplingParameters) trace.SamplingDecision {
	return trace.SamplingDecision{Sampled: r.limiter.Allow(), Reason: "rate_limiting"}
}

func (r rateLimiting) Description() string {
	return fmt.Sprintf("RateLimiting(%g/s)", r.perSecond)
}
