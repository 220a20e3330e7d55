package propagation

import (
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/loomworks/loom/trace"
)

// Header names of the W3C Trace Context format.
const (
	TraceParentHeader = "traceparent"
	TraceStateHeader  = "tracestate"
)

// supportedVersion is the only traceparent version we emit. Higher
// versions are accepted on extraction per the W3C forward-compatibility
// rules.
const supportedVersion = "00"

// Carrier is the minimal surface for reading and writing propagation
// headers on a transport message.
type Carrier interface {
	Get(key string) string
	Set(key, value string)
}

// HeaderCarrier adapts an http.Header to the Carrier interface.
type HeaderCarrier http.Header

// Get returns the first value for key.
func (c HeaderCarrier) Get(key string) string {
	return http.Header(c).Get(key)
}

// Set replaces any existing values for key.
func (c HeaderCarrier) Set(key, value string) {
	http.Header(c).Set(key, value)
}

// MapCarrier adapts a plain string map to the Carrier interface, for
// transports without header semantics (message metadata, task payloads).
type MapCarrier map[string]string

// Get returns the value for key.
func (c MapCarrier) Get(key string) string { return c[key] }

// Set stores value under key.
func (c MapCarrier) Set(key, value string) { c[key] = value }

// Inject writes sc into the carrier as traceparent (and tracestate when
// non-empty). An invalid context injects nothing.
func Inject(sc trace.SpanContext, carrier Carrier) {
	if !sc.IsValid() {
		return
	}
	flags := "00"
	if sc.Sampled {
		flags = "01"
	}
	var b strings.Builder
	b.Grow(55)
	b.WriteString(supportedVersion)
	b.WriteByte('-')
	b.WriteString(sc.TraceID.String())
	b.WriteByte('-')
	b.WriteString(sc.SpanID.String())
	b.WriteByte('-')
	b.WriteString(flags)
	carrier.Set(TraceParentHeader, b.String())

	if sc.TraceState.Len() > 0 {
		carrier.Set(TraceStateHeader, sc.TraceState.String())
	}
}

// Extract reads a SpanContext from the carrier. The second return is false
// when no valid traceparent is present; the caller should then start a new
// trace. A tracestate that fails to parse is dropped without invalidating
// the traceparent.
func Extract(carrier Carrier) (trace.SpanContext, bool) {
	header := strings.TrimSpace(carrier.Get(TraceParentHeader))
	if header == "" {
		return trace.SpanContext{}, false
	}

	parts := strings.Split(header, "-")
	if len(parts) < 4 {
		return trace.SpanContext{}, false
	}
	version := parts[0]
	if len(version) != 2 || !isHex(version) || version == "ff" {
		return trace.SpanContext{}, false
	}
	// Version 00 carries exactly four fields; future versions may append
	// more, which we ignore.
	if version == supportedVersion && len(parts) != 4 {
		return trace.SpanContext{}, false
	}

	traceID, err := trace.ParseTraceID(parts[1])
	if err != nil {
		return trace.SpanContext{}, false
	}
	spanID, err := trace.ParseSpanID(parts[2])
	if err != nil {
		return trace.SpanContext{}, false
	}
	rawFlags := parts[3]
	if len(rawFlags) != 2 || !isHex(rawFlags) {
		return trace.SpanContext{}, false
	}
	flags, err := hex.DecodeString(rawFlags)
	if err != nil {
		return trace.SpanContext{}, false
	}

	return trace.SpanContext{
		TraceID:    traceID,
		SpanID:     spanID,
		Sampled:    flags[0]&0x01 == 0x01,
		TraceState: trace.ParseTraceState(carrier.Get(TraceStateHeader)),
		Remote:     true,
	}, true
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}
