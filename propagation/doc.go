// Package propagation carries trace identity across process boundaries
// using the W3C Trace Context wire format (the "traceparent" and
// "tracestate" headers).
//
// Outbound, an adapter injects the current SpanContext into a carrier:
//
//	propagation.Inject(span.Context(), propagation.HeaderCarrier(req.Header))
//
// Inbound, an adapter extracts the remote identity and enters it on the
// request context before starting the server span:
//
//	if sc, ok := propagation.Extract(propagation.HeaderCarrier(r.Header)); ok {
//		ctx = trace.NewContext(ctx, sc)
//	}
//
// A malformed or absent traceparent simply yields no context; the caller
// then starts a fresh trace. Extraction never fails loudly.
package propagation
