package httpware

import (
	"net/http"

	"github.com/loomworks/loom/propagation"
	"github.com/loomworks/loom/trace"
)

// Transport is an http.RoundTripper that traces outbound requests and
// propagates the trace context to the called service.
type Transport struct {
	base   http.RoundTripper
	tracer *trace.Tracer
}

// NewTransport wraps base with tracing. A nil base uses
// http.DefaultTransport.
func NewTransport(tracer *trace.Tracer, base http.RoundTripper) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{base: base, tracer: tracer}
}

// RoundTrip starts a CLIENT span for the request, injects traceparent into
// a clone of the request (RoundTrippers must not mutate their input), and
// records the outcome. Transport-level errors are returned to the caller
// unchanged.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, span := t.tracer.StartSpan(req.Context(), "HTTP "+req.Method,
		trace.WithKind(trace.KindClient),
		trace.WithAttributes(map[string]interface{}{
			"http.host":   req.URL.Host,
			"http.method": req.Method,
			"http.path":   req.URL.Path,
			"http.url":    req.URL.String(),
		}),
	)
	defer span.End()

	out := req.Clone(ctx)
	propagation.Inject(span.Context(), propagation.HeaderCarrier(out.Header))

	resp, err := t.base.RoundTrip(out)
	if err != nil {
		span.RecordError(err)
		return resp, err
	}
	span.SetAttribute("http.status_code", int64(resp.StatusCode))
	if resp.StatusCode >= http.StatusInternalServerError {
		span.SetStatus(trace.StatusError, http.StatusText(resp.StatusCode))
	}
	return resp, nil
}
