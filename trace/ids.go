package trace

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// TraceID is a 128-bit identifier shared by every span of one trace.
// The zero value is invalid and means "no trace".
type TraceID [16]byte

// SpanID is a 64-bit identifier for a single span within a trace.
// The zero value is invalid.
type SpanID [8]byte

// IsValid reports whether the trace id contains at least one non-zero byte.
func (t TraceID) IsValid() bool {
	return t != TraceID{}
}

// String returns the id as 32 lowercase hex characters.
func (t TraceID) String() string {
	return hex.EncodeToString(t[:])
}

// IsValid reports whether the span id contains at least one non-zero byte.
func (s SpanID) IsValid() bool {
	return s != SpanID{}
}

// String returns the id as 16 lowercase hex characters.
func (s SpanID) String() string {
	return hex.EncodeToString(s[:])
}

// ParseTraceID decodes a 32-character hex string into a TraceID.
func ParseTraceID(h string) (TraceID, error) {
	var t TraceID
	if len(h) != 32 {
		return t, fmt.Errorf("trace: trace id must be 32 hex characters, got %d", len(h))
	}
	b, err := hex.DecodeString(h)
	if err != nil {
		return t, fmt.Errorf("trace: malformed trace id %q: %w", h, err)
	}
	copy(t[:], b)
	if !t.IsValid() {
		return TraceID{}, fmt.Errorf("trace: all-zero trace id")
	}
	return t, nil
}

// ParseSpanID decodes a 16-character hex string into a SpanID.
func ParseSpanID(h string) (SpanID, error) {
	var s SpanID
	if len(h) != 16 {
		return s, fmt.Errorf("trace: span id must be 16 hex characters, got %d", len(h))
	}
	b, err := hex.DecodeString(h)
	if err != nil {
		return s, fmt.Errorf("trace: malformed span id %q: %w", h, err)
	}
	copy(s[:], b)
	if !s.IsValid() {
		return SpanID{}, fmt.Errorf("trace: all-zero span id")
	}
	return s, nil
}

// IDGenerator produces new trace and span identifiers. Implementations must
// be safe for concurrent use.
type IDGenerator interface {
	NewTraceID() TraceID
	NewSpanID() SpanID
}

// randomIDGenerator draws ids from crypto/rand. Probabilistic uniqueness is
// all we need; there is no coordination between processes.
type randomIDGenerator struct{}

func (randomIDGenerator) NewTraceID() TraceID {
	var t TraceID
	for !t.IsValid() {
		_, _ = rand.Read(t[:])
	}
	return t
}

func (randomIDGenerator) NewSpanID() SpanID {
	var s SpanID
	for !s.IsValid() {
		_, _ = rand.Read(s[:])
	}
	return s
}
