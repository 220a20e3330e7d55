package trace

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// testSampler is a fixed-decision sampler for recorder tests.
type testSampler struct {
	sampled bool
}

func (s testSampler) ShouldSample(SamplingParameters) SamplingDecision {
	return SamplingDecision{Sampled: s.sampled, Reason: "test"}
}

func (s testSampler) Description() string { return "test" }

// captureHandler collects ended spans.
type captureHandler struct {
	mu    sync.Mutex
	spans []*Span
}

func (h *captureHandler) OnEnd(span *Span) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.spans = append(h.spans, span)
}

func (h *captureHandler) ended() []*Span {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Span, len(h.spans))
	copy(out, h.spans)
	return out
}

func newTestTracer(t *testing.T, sampled bool, h SpanHandler) *Tracer {
	t.Helper()
	tracer, err := NewTracer(Config{ServiceName: "test"}, testSampler{sampled: sampled}, h, nil)
	if err != nil {
		t.Fatalf("NewTracer: %v", err)
	}
	return tracer
}

func TestEndClampsRegressingClock(t *testing.T) {
	tracer := newTestTracer(t, true, nil)
	_, span := tracer.StartSpan(context.Background(), "clamped")

	// Force a start timestamp in the future so End observes an earlier
	// clock reading.
	span.startTime = time.Now().Add(time.Hour)
	span.End()

	if span.EndTime().Before(span.StartTime()) {
		t.Fatalf("end time %v before start time %v", span.EndTime(), span.StartTime())
	}
	if span.Duration() != 0 {
		t.Fatalf("expected clamped duration 0, got %v", span.Duration())
	}
	if flagged, _ := span.Attributes()[clockRegressionAttribute].(bool); !flagged {
		t.Fatalf("expected %s attribute to be set", clockRegressionAttribute)
	}
}

func TestEndTimeNeverBeforeStartTime(t *testing.T) {
	tracer := newTestTracer(t, true, nil)
	_, span := tracer.StartSpan(context.Background(), "ordered")
	span.End()

	if span.EndTime().Before(span.StartTime()) {
		t.Fatalf("end time %v before start time %v", span.EndTime(), span.StartTime())
	}
}

func TestDoubleEndIsReportedNoOp(t *testing.T) {
	handler := &captureHandler{}
	tracer := newTestTracer(t, true, handler)
	_, span := tracer.StartSpan(context.Background(), "once")

	span.End()
	first := span.EndTime()
	span.End()

	if got := len(handler.ended()); got != 1 {
		t.Fatalf("expected exactly one finalized record, got %d", got)
	}
	if !span.EndTime().Equal(first) {
		t.Fatalf("second End changed the end time")
	}
	if got := tracer.MisuseCount(); got != 1 {
		t.Fatalf("expected 1 reported misuse, got %d", got)
	}
}

func TestMutationAfterEndIsReportedNoOp(t *testing.T) {
	tracer := newTestTracer(t, true, nil)
	_, span := tracer.StartSpan(context.Background(), "sealed")
	span.SetAttribute("before", "kept")
	span.End()

	span.SetAttribute("after", "ignored")
	span.AddEvent("late", nil)
	span.SetStatus(StatusError, "late")
	span.SetName("renamed")

	attrs := span.Attributes()
	if attrs["before"] != "kept" {
		t.Fatalf("pre-end attribute lost: %#v", attrs)
	}
	if _, ok := attrs["after"]; ok {
		t.Fatalf("post-end attribute recorded: %#v", attrs)
	}
	if len(span.Events()) != 0 {
		t.Fatalf("post-end event recorded")
	}
	if span.Status().Code != StatusUnset {
		t.Fatalf("post-end status recorded: %v", span.Status())
	}
	if span.Name() != "sealed" {
		t.Fatalf("post-end rename took effect: %q", span.Name())
	}
	if got := tracer.MisuseCount(); got != 4 {
		t.Fatalf("expected 4 reported misuses, got %d", got)
	}
}

func TestAttributeCoercion(t *testing.T) {
	tracer := newTestTracer(t, true, nil)
	_, span := tracer.StartSpan(context.Background(), "attrs")

	span.SetAttribute("plain", "value")
	span.SetAttribute("count", 42)
	span.SetAttribute("ratio", float32(0.5))
	span.SetAttribute("slice", []int{1, 2, 3})
	span.SetAttribute("err", errors.New("boom"))
	span.End()

	attrs := span.Attributes()
	if attrs["plain"] != "value" {
		t.Fatalf("plain attribute mangled: %#v", attrs["plain"])
	}
	if attrs["count"] != int64(42) {
		t.Fatalf("int not widened to int64: %#v", attrs["count"])
	}
	if attrs["ratio"] != float64(float32(0.5)) {
		t.Fatalf("float32 not widened: %#v", attrs["ratio"])
	}
	if attrs["slice"] != "[1 2 3]" {
		t.Fatalf("slice not stringified: %#v", attrs["slice"])
	}
	if attrs["err"] != "boom" {
		t.Fatalf("error not stringified: %#v", attrs["err"])
	}
	if attrs[coercedKeysAttribute] != "err,slice" {
		t.Fatalf("coercion note wrong: %#v", attrs[coercedKeysAttribute])
	}
}

func TestAttributeLastWriteWins(t *testing.T) {
	tracer := newTestTracer(t, true, nil)
	_, span := tracer.StartSpan(context.Background(), "attrs")

	span.SetAttribute("key", "first")
	span.SetAttribute("key", "second")
	span.End()

	if got := span.Attributes()["key"]; got != "second" {
		t.Fatalf("expected last write to win, got %#v", got)
	}
}

func TestRecordErrorSetsStatusAndEvent(t *testing.T) {
	tracer := newTestTracer(t, true, nil)
	_, span := tracer.StartSpan(context.Background(), "failing")

	span.RecordError(errors.New("connection refused"))
	span.End()

	if span.Status().Code != StatusError {
		t.Fatalf("expected error status, got %v", span.Status())
	}
	if span.Status().Description != "connection refused" {
		t.Fatalf("unexpected status detail %q", span.Status().Description)
	}
	events := span.Events()
	if len(events) != 1 || events[0].Name != "error" {
		t.Fatalf("expected one error event, got %#v", events)
	}
}

func TestStatusDescriptionOnlyKeptForErrors(t *testing.T) {
	tracer := newTestTracer(t, true, nil)
	_, span := tracer.StartSpan(context.Background(), "ok")

	span.SetStatus(StatusOK, "should be discarded")
	if span.Status().Description != "" {
		t.Fatalf("description kept for non-error status")
	}
}
