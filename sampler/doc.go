// Package sampler provides the sampling strategies for loom traces.
//
// A sampler is consulted exactly once per trace, when the root span is
// started; every descendant inherits the decision through its SpanContext.
// Four strategies are available:
//
//   - AlwaysOn: every trace is exported
//   - AlwaysOff: no trace is exported (spans are still recorded locally)
//   - Probability(rate): a deterministic hash of the trace id is compared
//     against rate, so the same trace id yields the same decision in every
//     process that sees it
//   - RateLimiting(n): at most n sampled traces per second
//
// Strategy selection is resolved once at startup from a Config struct:
//
//	s, err := sampler.FromConfig(sampler.Config{
//		Strategy: sampler.StrategyProbability,
//		Rate:     0.1,
//	})
//
// Invalid configuration (unknown strategy, rate outside [0, 1]) is an
// initialization-time error; a constructed sampler never fails at runtime.
package sampler
