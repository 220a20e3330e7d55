// Package httpware instruments HTTP servers and clients with loom spans.
//
// Server side, Middleware wraps an http.Handler: it extracts any inbound
// W3C trace context, starts a SERVER span for the request, records the
// standard http.* attributes and the response status, and guarantees the
// span is ended even when the handler returns early or panics.
//
//	mux := http.NewServeMux()
//	// ... register handlers ...
//	handler := httpware.Middleware(tracer, httpware.Config{
//		SkipPaths: []string{"/healthz", "/metrics"},
//	})(mux)
//
// Client side, NewTransport wraps an http.RoundTripper: every outbound
// request gets a CLIENT span and carries the trace context onward in its
// headers.
//
//	client := &http.Client{Transport: httpware.NewTransport(tracer, nil)}
//
// Like every loom adapter, the package is a thin shim over the trace
// package: it only calls StartSpan, the span mutators, and End.
package httpware
