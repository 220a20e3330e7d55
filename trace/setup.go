package trace

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// Logger defines the interface for logging operations within the trace
// package. It allows the package to use any logging implementation that
// conforms to these methods, including the loom logger package.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// SpanHandler receives finished, sampled spans. The exporter pipeline
// implements it; tests substitute a capture. OnEnd is called from the
// goroutine that ended the span and must return quickly; anything slow
// (network, disk) belongs behind a queue.
type SpanHandler interface {
	OnEnd(span *Span)
}

// Tracer is the span recorder: it creates spans, stamps them with identity
// and sampling state, and hands finished sampled spans to the configured
// SpanHandler. A single Tracer instance is shared by the whole process and
// is safe for concurrent use.
type Tracer struct {
	cfg      Config
	sampler  Sampler
	handler  SpanHandler
	idgen    IDGenerator
	logger   Logger
	resource map[string]interface{}

	misuse atomic.Uint64
}

// NewTracer creates and initializes the span recorder.
//
// Parameters:
//   - cfg: service identity and recorder settings
//   - s: the sampling strategy, consulted once per trace at the root
//   - h: the sink for finished sampled spans (usually *exporter.Pipeline);
//     may be nil, in which case spans are recorded but never exported
//   - logger: destination for misuse reports and lifecycle messages
//
// Returns the configured Tracer, or an error when cfg is invalid.
func NewTracer(cfg Config, s Sampler, h SpanHandler, logger Logger) (*Tracer, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("trace: sampler must not be nil")
	}

	t := &Tracer{
		cfg:     cfg,
		sampler: s,
		handler: h,
		idgen:   randomIDGenerator{},
		logger:  logger,
		resource: map[string]interface{}{
			"service.name":           cfg.ServiceName,
			"deployment.environment": cfg.AppEnv,
		},
	}
	if logger != nil {
		logger.Info("tracer initialized", nil, map[string]interface{}{
			"service": cfg.ServiceName,
			"sampler": s.Description(),
		})
	}
	return t, nil
}

// Resource returns the attributes describing the traced service. Exporters
// attach them to every batch.
func (t *Tracer) Resource() map[string]interface{} {
	out := make(map[string]interface{}, len(t.resource))
	for k, v := range t.resource {
		out[k] = v
	}
	return out
}

// SpanOption customizes a span at creation time.
type SpanOption func(*spanSettings)

type spanSettings struct {
	kind       SpanKind
	attributes map[string]interface{}
}

// WithKind sets the span's kind. The default is KindInternal.
func WithKind(kind SpanKind) SpanOption {
	return func(s *spanSettings) { s.kind = kind }
}

// WithAttributes sets initial attributes on the span, with the same scalar
// rules as Span.SetAttribute.
func WithAttributes(attrs map[string]interface{}) SpanOption {
	return func(s *spanSettings) { s.attributes = attrs }
}

// StartSpan creates a span named name and returns a context carrying its
// identity along with the span itself. If the given context already carries
// a valid SpanContext, local or extracted from an inbound carrier, the
// new span becomes its child, inheriting trace id and sampling decision.
// Otherwise a new trace is started and the sampler is consulted, exactly
// once for the whole trace.
//
// The caller owns the returned span and must call End exactly once,
// normally via defer immediately after StartSpan.
func (t *Tracer) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, *Span) {
	var settings spanSettings
	for _, opt := range opts {
		opt(&settings)
	}

	parent := FromContext(ctx)
	var sc SpanContext
	var parentID SpanID
	if parent.IsValid() {
		sc = parent.NewChild(t.idgen)
		parentID = parent.SpanID
	} else {
		sc = SpanContext{
			TraceID: t.idgen.NewTraceID(),
			SpanID:  t.idgen.NewSpanID(),
		}
		decision := t.sampler.ShouldSample(SamplingParameters{
			TraceID: sc.TraceID,
			Name:    name,
			Kind:    settings.kind,
		})
		sc.Sampled = decision.Sampled
	}

	span := &Span{
		tracer:    t,
		name:      name,
		sc:        sc,
		parent:    parentID,
		kind:      settings.kind,
		startTime: time.Now(),
	}
	if len(settings.attributes) > 0 {
		span.SetAttributes(settings.attributes)
	}
	return NewContext(ctx, sc), span
}

// MisuseCount returns how many programming errors (double end, mutation
// after end) the tracer has absorbed since startup.
func (t *Tracer) MisuseCount() uint64 {
	return t.misuse.Load()
}

// spanEnded routes a finished span to the handler. Unsampled spans stop
// here; their attributes were recorded locally but nothing leaves the
// process.
func (t *Tracer) spanEnded(s *Span) {
	if !s.Sampled() || t.handler == nil {
		return
	}
	t.handler.OnEnd(s)
}

// reportMisuse counts and logs a programming error without disturbing the
// host application.
func (t *Tracer) reportMisuse(what, spanName string) {
	t.misuse.Add(1)
	if t.logger != nil {
		t.logger.Warn("tracing misuse: "+what, nil, map[string]interface{}{
			"span": spanName,
		})
	}
}
