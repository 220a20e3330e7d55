package trace

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// SpanKind classifies the role a span plays in a trace.
type SpanKind int

const (
	// KindInternal marks work that stays inside the process.
	KindInternal SpanKind = iota
	// KindServer marks the handling of an inbound request.
	KindServer
	// KindClient marks an outbound call (HTTP, SQL, cache, ...).
	KindClient
)

// String returns the lowercase name of the kind.
func (k SpanKind) String() string {
	switch k {
	case KindServer:
		return "server"
	case KindClient:
		return "client"
	default:
		return "internal"
	}
}

// StatusCode is the coarse outcome of a span.
type StatusCode int

const (
	// StatusUnset is the initial state; exporters treat it as success.
	StatusUnset StatusCode = iota
	// StatusOK marks an explicitly successful operation.
	StatusOK
	// StatusError marks a failed operation.
	StatusError
)

// String returns the lowercase name of the code.
func (c StatusCode) String() string {
	switch c {
	case StatusOK:
		return "ok"
	case StatusError:
		return "error"
	default:
		return "unset"
	}
}

// Status is the outcome of a span: a code plus an optional human-readable
// detail, only meaningful for StatusError.
type Status struct {
	Code        StatusCode
	Description string
}

// Event is a timestamped annotation attached to a span.
type Event struct {
	Time       time.Time
	Name       string
	Attributes map[string]interface{}
}

// coercedKeysAttribute lists attribute keys whose values were not one of
// the supported scalar types and were stringified on write.
const coercedKeysAttribute = "loom.coerced_keys"

// clockRegressionAttribute flags a span whose end timestamp had to be
// clamped because the wall clock read earlier than the start.
const clockRegressionAttribute = "loom.clock_regression"

// Span is a timed record of one unit of work. It is created open and
// mutable, owned by the execution path that started it, and becomes
// immutable once End is called. After End the span belongs to the export
// pipeline; the recorder never touches it again.
type Span struct {
	tracer *Tracer

	mu         sync.Mutex
	name       string
	sc         SpanContext
	parent     SpanID
	kind       SpanKind
	startTime  time.Time
	endTime    time.Time
	attributes map[string]interface{}
	coerced    []string
	events     []Event
	status     Status
	ended      bool
}

// Name returns the span's current name.
func (s *Span) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// SetName replaces the span's name. Adapters use this when the final name
// is only known mid-operation, e.g. once a router has resolved the route.
func (s *Span) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		s.tracer.reportMisuse("set name on ended span", s.name)
		return
	}
	s.name = name
}

// Context returns the span's identity, valid for deriving children and for
// injection into outbound carriers.
func (s *Span) Context() SpanContext {
	return s.sc
}

// ParentSpanID returns the parent's span id, or the zero SpanID for a root.
func (s *Span) ParentSpanID() SpanID {
	return s.parent
}

// Kind returns the span's kind.
func (s *Span) Kind() SpanKind {
	return s.kind
}

// Sampled reports whether the trace this span belongs to was sampled.
func (s *Span) Sampled() bool {
	return s.sc.Sampled
}

// StartTime returns when the span was started.
func (s *Span) StartTime() time.Time {
	return s.startTime
}

// EndTime returns when the span ended, or the zero time while it is open.
func (s *Span) EndTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endTime
}

// Duration returns end minus start, or zero while the span is open.
func (s *Span) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.endTime.IsZero() {
		return 0
	}
	return s.endTime.Sub(s.startTime)
}

// Status returns the span's status.
func (s *Span) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Ended reports whether End has taken effect.
func (s *Span) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// SetAttribute records a key/value pair on the span. Writing a key twice
// keeps the last value. Values outside the supported scalar set (string,
// bool, int64, float64) are stringified, and the affected keys are listed
// under the "loom.coerced_keys" attribute when the span ends. Smaller
// integer types are widened to int64, float32 to float64, without being
// counted as coercions.
func (s *Span) SetAttribute(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		s.tracer.reportMisuse("set attribute on ended span", s.name)
		return
	}
	s.setAttributeLocked(key, value)
}

// SetAttributes records every pair in attrs, with the same rules as
// SetAttribute.
func (s *Span) SetAttributes(attrs map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		s.tracer.reportMisuse("set attributes on ended span", s.name)
		return
	}
	for k, v := range attrs {
		s.setAttributeLocked(k, v)
	}
}

func (s *Span) setAttributeLocked(key string, value interface{}) {
	if s.attributes == nil {
		s.attributes = make(map[string]interface{}, 8)
	}
	v, ok := normalizeAttributeValue(value)
	if !ok {
		for _, c := range s.coerced {
			if c == key {
				s.attributes[key] = v
				return
			}
		}
		s.coerced = append(s.coerced, key)
	}
	s.attributes[key] = v
}

// normalizeAttributeValue maps value onto the supported scalar set. The
// second return is false when the value had to be stringified.
func normalizeAttributeValue(value interface{}) (interface{}, bool) {
	switch v := value.(type) {
	case string, bool, int64, float64:
		return v, true
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case float32:
		return float64(v), true
	case time.Duration:
		return v.String(), false
	case error:
		return v.Error(), false
	default:
		return fmt.Sprint(v), false
	}
}

// Attributes returns a copy of the span's attributes.
func (s *Span) Attributes() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]interface{}, len(s.attributes))
	for k, v := range s.attributes {
		out[k] = v
	}
	return out
}

// AddEvent appends a timestamped annotation to the span. Event attributes
// follow the same scalar rules as span attributes, but coercions on events
// are applied silently.
func (s *Span) AddEvent(name string, attrs map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		s.tracer.reportMisuse("add event on ended span", s.name)
		return
	}
	var normalized map[string]interface{}
	if len(attrs) > 0 {
		normalized = make(map[string]interface{}, len(attrs))
		for k, v := range attrs {
			nv, _ := normalizeAttributeValue(v)
			normalized[k] = nv
		}
	}
	s.events = append(s.events, Event{Time: time.Now(), Name: name, Attributes: normalized})
}

// Events returns a copy of the span's events in order.
func (s *Span) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// SetStatus sets the span's outcome. The description is only kept for
// StatusError, matching the convention that success needs no explanation.
func (s *Span) SetStatus(code StatusCode, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		s.tracer.reportMisuse("set status on ended span", s.name)
		return
	}
	if code != StatusError {
		description = ""
	}
	s.status = Status{Code: code, Description: description}
}

// RecordError marks the span failed and attaches the error text as both the
// status description and an "error" event. A nil error is ignored.
func (s *Span) RecordError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		s.tracer.reportMisuse("record error on ended span", s.name)
		return
	}
	s.status = Status{Code: StatusError, Description: err.Error()}
	s.events = append(s.events, Event{
		Time: time.Now(),
		Name: "error",
		Attributes: map[string]interface{}{
			"error.message": err.Error(),
		},
	})
}

// End finalizes the span and, if its trace is sampled, hands it to the
// export pipeline. Only the first call takes effect; a second call is a
// programming error that is reported and ignored. The end timestamp is
// clamped to the start timestamp if the clock reads earlier, and such
// spans are flagged with the "loom.clock_regression" attribute.
func (s *Span) End() {
	now := time.Now()

	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		s.tracer.reportMisuse("span ended twice", s.name)
		return
	}
	if now.Before(s.startTime) {
		now = s.startTime
		s.setAttributeLocked(clockRegressionAttribute, true)
	}
	if len(s.coerced) > 0 {
		sort.Strings(s.coerced)
		s.attributes[coercedKeysAttribute] = strings.Join(s.coerced, ",")
	}
	s.endTime = now
	s.ended = true
	s.mu.Unlock()

	s.tracer.spanEnded(s)
}
