package httpware

import (
	"fmt"
	"net/http"

	"github.com/loomworks/loom/propagation"
	"github.com/loomworks/loom/trace"
)

// Middleware returns an http.Handler middleware that traces every request
// not excluded by cfg.SkipPaths.
//
// For each traced request it:
//   - extracts the inbound traceparent/tracestate, if any, so the server
//     span joins the caller's trace
//   - starts a SERVER span named "<METHOD> <path>" with the standard
//     http.host/method/path/url attributes
//   - threads the span's context into the handler via the request context
//   - records http.status_code, marks 5xx responses as errors, and ends
//     the span from a deferred block so a panicking handler still closes
//     it (the panic is re-raised untouched)
func Middleware(tracer *trace.Tracer, cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.skip(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			if sc, ok := propagation.Extract(propagation.HeaderCarrier(r.Header)); ok {
				ctx = trace.NewContext(ctx, sc)
			}

			url := r.URL.Path
			if cfg.RecordQuery && r.URL.RawQuery != "" {
				url += "?" + r.URL.RawQuery
			}
			ctx, span := tracer.StartSpan(ctx, r.Method+" "+r.URL.Path,
				trace.WithKind(trace.KindServer),
				trace.WithAttributes(map[string]interface{}{
					"http.host":   r.Host,
					"http.method": r.Method,
					"http.path":   r.URL.Path,
					"http.url":    url,
				}),
			)

			rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			defer func() {
				if rec := recover(); rec != nil {
					span.RecordError(fmt.Errorf("panic: %v", rec))
					span.End()
					panic(rec)
				}
				span.SetAttribute("http.status_code", int64(rw.status))
				if rw.status >= http.StatusInternalServerError {
					span.SetStatus(trace.StatusError, http.StatusText(rw.status))
				}
				span.End()
			}()

			next.ServeHTTP(rw, r.WithContext(ctx))
		})
	}
}

// statusRecorder captures the response status for the span. WriteHeader is
// only honored once, matching net/http semantics.
type statusRecorder struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wrote {
		r.status = status
		r.wrote = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wrote = true
	return r.ResponseWriter.Write(b)
}
