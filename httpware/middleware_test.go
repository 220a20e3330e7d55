package httpware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomworks/loom/sampler"
	"github.com/loomworks/loom/trace"
)

const sampledTraceparent = "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01"

// captureHandler collects ended sampled spans.
type captureHandler struct {
	mu    sync.Mutex
	spans []*trace.Span
}

func (h *captureHandler) OnEnd(s *trace.Span) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.spans = append(h.spans, s)
}

func (h *captureHandler) ended() []*trace.Span {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*trace.Span, len(h.spans))
	copy(out, h.spans)
	return out
}

func newTestTracer(t *testing.T) (*trace.Tracer, *captureHandler) {
	t.Helper()
	capture := &captureHandler{}
	tracer, err := trace.NewTracer(trace.Config{ServiceName: "httpware-test"}, sampler.AlwaysOn(), capture, nil)
	require.NoError(t, err)
	return tracer, capture
}

func TestMiddlewareTracesRequest(t *testing.T) {
	tracer, capture := newTestTracer(t)

	var handlerSC trace.SpanContext
	handler := Middleware(tracer, Config{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerSC = trace.FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/42", nil))

	spans := capture.ended()
	require.Len(t, spans, 1)
	span := spans[0]

	assert.Equal(t, handlerSC.SpanID, span.Context().SpanID)
	assert.Equal(t, "GET /orders/42", span.Name())
	assert.Equal(t, trace.KindServer, span.Kind())
	assert.False(t, span.ParentSpanID().IsValid())

	attrs := span.Attributes()
	assert.Equal(t, "GET", attrs["http.method"])
	assert.Equal(t, "/orders/42", attrs["http.path"])
	assert.Equal(t, "/orders/42", attrs["http.url"])
	assert.Equal(t, int64(http.StatusNoContent), attrs["http.status_code"])
	assert.Equal(t, trace.StatusUnset, span.Status().Code)
}

func TestMiddlewareJoinsInboundTrace(t *testing.T) {
	tracer, capture := newTestTracer(t)

	handler := Middleware(tracer, Config{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("traceparent", sampledTraceparent)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	spans := capture.ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "0af7651916cd43dd8448eb211c80319c", spans[0].Context().TraceID.String())
	assert.Equal(t, "b7ad6b7169203331", spans[0].ParentSpanID().String())
}

func TestMiddlewareUnsampledInboundTraceIsNotExported(t *testing.T) {
	tracer, capture := newTestTracer(t)

	handler := Middleware(tracer, Config{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("traceparent", "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-00")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Empty(t, capture.ended())
}

func TestMiddlewareMarksServerErrors(t *testing.T) {
	tracer, capture := newTestTracer(t)

	handler := Middleware(tracer, Config{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders", nil))

	spans := capture.ended()
	require.Len(t, spans, 1)
	assert.Equal(t, int64(http.StatusBadGateway), spans[0].Attributes()["http.status_code"])
	assert.Equal(t, trace.StatusError, spans[0].Status().Code)
	assert.Equal(t, http.StatusText(http.StatusBadGateway), spans[0].Status().Description)
}

func TestMiddlewareClientErrorIsNotSpanError(t *testing.T) {
	tracer, capture := newTestTracer(t)

	handler := Middleware(tracer, Config{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	spans := capture.ended()
	require.Len(t, spans, 1)
	assert.Equal(t, trace.StatusUnset, spans[0].Status().Code)
}

func TestMiddlewareSkipPaths(t *testing.T) {
	tracer, capture := newTestTracer(t)

	cfg := Config{SkipPaths: []string{"/healthz", "/internal/*"}}
	handler := Middleware(tracer, cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for _, path := range []string{"/healthz", "/internal/metrics", "/internal/"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	assert.Empty(t, capture.ended())

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz/deep", nil))
	assert.Len(t, capture.ended(), 1)
}

func TestMiddlewareRecordQuery(t *testing.T) {
	tracer, capture := newTestTracer(t)

	handler := Middleware(tracer, Config{RecordQuery: true})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders?page=2", nil))

	spans := capture.ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "/orders?page=2", spans[0].Attributes()["http.url"])
	assert.Equal(t, "/orders", spans[0].Attributes()["http.path"])
}

func TestMiddlewareEndsSpanOnPanic(t *testing.T) {
	tracer, capture := newTestTracer(t)

	handler := Middleware(tracer, Config{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	}))

	require.PanicsWithValue(t, "kaboom", func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders", nil))
	})

	spans := capture.ended()
	require.Len(t, spans, 1)
	assert.True(t, spans[0].Ended())
	assert.Equal(t, trace.StatusError, spans[0].Status().Code)
	assert.Equal(t, "panic: kaboom", spans[0].Status().Description)
}

func TestTransportInjectsAndRecords(t *testing.T) {
	tracer, capture := newTestTracer(t)

	var gotTraceparent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTraceparent = r.Header.Get("traceparent")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := &http.Client{Transport: NewTransport(tracer, nil)}

	ctx, parent := tracer.StartSpan(context.Background(), "caller")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/orders", nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	parent.End()

	spans := capture.ended()
	require.Len(t, spans, 2)
	clientSpan := spans[0]

	assert.Equal(t, "HTTP GET", clientSpan.Name())
	assert.Equal(t, trace.KindClient, clientSpan.Kind())
	assert.Equal(t, parent.Context().SpanID, clientSpan.ParentSpanID())
	assert.Equal(t, int64(http.StatusOK), clientSpan.Attributes()["http.status_code"])

	sc := clientSpan.Context()
	assert.Equal(t, "00-"+sc.TraceID.String()+"-"+sc.SpanID.String()+"-01", gotTraceparent)
}

func TestTransportMarksServerErrors(t *testing.T) {
	tracer, capture := newTestTracer(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := &http.Client{Transport: NewTransport(tracer, nil)}
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	spans := capture.ended()
	require.Len(t, spans, 1)
	assert.Equal(t, trace.StatusError, spans[0].Status().Code)
}

func TestTransportRecordsNetworkError(t *testing.T) {
	tracer, capture := newTestTracer(t)

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	client := &http.Client{Transport: NewTransport(tracer, nil)}
	_, err := client.Get(srv.URL) //nolint:bodyclose
	require.Error(t, err)

	spans := capture.ended()
	require.Len(t, spans, 1)
	assert.Equal(t, trace.StatusError, spans[0].Status().Code)
}
