package trace

// SamplingParameters describe a root span at the moment the sampling
// decision is made. The decision happens exactly once per trace.
type SamplingParameters struct {
	TraceID TraceID
	Name    string
	Kind    SpanKind
}

// SamplingDecision is the outcome of a Sampler for one trace.
type SamplingDecision struct {
	// Sampled selects whether spans of this trace are handed to the export
	// pipeline when they end.
	Sampled bool

	// Reason is a short, stable tag describing why the decision was made,
	// e.g. "always_on" or "probability". Used for diagnostics only.
	Reason string
}

// Sampler decides, per trace, whether spans are exported. Implementations
// live in the sampler package and must be safe for concurrent use.
//
// ShouldSample is called only for root spans; descendants inherit the
// decision through their SpanContext and never consult the sampler again.
type Sampler interface {
	ShouldSample(p SamplingParameters) SamplingDecision

	// Description identifies the strategy, e.g. "Probability(0.25)".
	Description() string
}
