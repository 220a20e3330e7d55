package trace

import (
	"context"
	"strings"
)

// SpanContext holds the identity of a span as it travels across call chains
// and process boundaries. It is immutable once created; deriving a child
// produces a new value and never mutates the parent.
type SpanContext struct {
	// TraceID identifies the trace this span belongs to.
	TraceID TraceID

	// SpanID identifies the span itself.
	SpanID SpanID

	// Sampled carries the sampling decision made at the root of the trace.
	// Descendants inherit it verbatim; it is never recomputed per span.
	Sampled bool

	// TraceState carries vendor-specific key/value pairs as defined by the
	// W3C tracestate header. Order is preserved.
	TraceState TraceState

	// Remote marks a context that was extracted from an incoming carrier
	// (e.g. HTTP headers) rather than created in this process.
	Remote bool
}

// IsValid reports whether the context names a real span: both ids non-zero.
func (sc SpanContext) IsValid() bool {
	return sc.TraceID.IsValid() && sc.SpanID.IsValid()
}

// NewChild derives the context for a child span: same trace id, same
// sampling decision, same trace state, fresh span id.
func (sc SpanContext) NewChild(gen IDGenerator) SpanContext {
	return SpanContext{
		TraceID:    sc.TraceID,
		SpanID:     gen.NewSpanID(),
		Sampled:    sc.Sampled,
		TraceState: sc.TraceState,
	}
}

// TraceState is an ordered list of key/value members, as carried by the W3C
// tracestate header. The zero value is an empty list.
type TraceState struct {
	members []TraceStateMember
}

// TraceStateMember is one key/value entry of a TraceState.
type TraceStateMember struct {
	Key   string
	Value string
}

// maxTraceStateMembers caps the list per the W3C recommendation.
const maxTraceStateMembers = 32

// NewTraceState builds a TraceState from members in order. Members past the
// cap are ignored.
func NewTraceState(members ...TraceStateMember) TraceState {
	if len(members) > maxTraceStateMembers {
		members = members[:maxTraceStateMembers]
	}
	out := make([]TraceStateMember, len(members))
	copy(out, members)
	return TraceState{members: out}
}

// Get returns the value for key, or "" if the key is absent.
func (ts TraceState) Get(key string) string {
	for _, m := range ts.members {
		if m.Key == key {
			return m.Value
		}
	}
	return ""
}

// Len returns the number of members.
func (ts TraceState) Len() int {
	return len(ts.members)
}

// Members returns a copy of the members in order.
func (ts TraceState) Members() []TraceStateMember {
	out := make([]TraceStateMember, len(ts.members))
	copy(out, ts.members)
	return out
}

// Insert returns a new TraceState with key set to value at the front of the
// list, removing any previous entry for key. The receiver is unchanged.
func (ts TraceState) Insert(key, value string) TraceState {
	members := make([]TraceStateMember, 0, len(ts.members)+1)
	members = append(members, TraceStateMember{Key: key, Value: value})
	for _, m := range ts.members {
		if m.Key != key {
			members = append(members, m)
		}
	}
	if len(members) > maxTraceStateMembers {
		members = members[:maxTraceStateMembers]
	}
	return TraceState{members: members}
}

// String renders the list in tracestate wire form: "k1=v1,k2=v2".
func (ts TraceState) String() string {
	if len(ts.members) == 0 {
		return ""
	}
	var b strings.Builder
	for i, m := range ts.members {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(m.Key)
		b.WriteByte('=')
		b.WriteString(m.Value)
	}
	return b.String()
}

// ParseTraceState parses the tracestate wire form. Empty or whitespace-only
// members are skipped; a member without '=' makes the whole value invalid
// and yields an empty state.
func ParseTraceState(s string) TraceState {
	if s == "" {
		return TraceState{}
	}
	var members []TraceStateMember
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok || key == "" {
			return TraceState{}
		}
		members = append(members, TraceStateMember{Key: key, Value: value})
		if len(members) == maxTraceStateMembers {
			break
		}
	}
	return TraceState{members: members}
}

type contextKey struct{}

// NewContext returns a context carrying sc as the active span identity.
// This is the "enter" operation: the previous identity is shadowed for the
// lifetime of the returned context and restored the moment callers go back
// to using the parent context.
func NewContext(ctx context.Context, sc SpanContext) context.Context {
	return context.WithValue(ctx, contextKey{}, sc)
}

// FromContext returns the active span identity, or the zero SpanContext if
// none has been entered on this context chain.
func FromContext(ctx context.Context) SpanContext {
	if ctx == nil {
		return SpanContext{}
	}
	sc, _ := ctx.Value(contextKey{}).(SpanContext)
	return sc
}
