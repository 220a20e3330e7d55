package exporter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/loomworks/loom/trace"
)

// instrumentationKeyHeader carries the producer credential to the
// collector.
const instrumentationKeyHeader = "X-Instrumentation-Key"

// HTTPTransport delivers batches as JSON over HTTP POST. Response status
// drives error classification: 408, 429 and 5xx are retryable, any other
// non-2xx status is terminal, and network-level failures are retryable.
type HTTPTransport struct {
	endpoint string
	key      string
	client   *http.Client
	logger   Logger
}

// NewHTTPTransport builds a transport for the endpoint resolved from cfg
// (explicit Endpoint or connection string). Missing endpoint is a
// configuration error surfaced here, at initialization.
func NewHTTPTransport(cfg Config, logger Logger) (*HTTPTransport, error) {
	cfg.applyDefaults()
	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	if cfg.Endpoint == "" {
		return nil, ErrMissingEndpoint
	}
	return &HTTPTransport{
		endpoint: cfg.Endpoint,
		key:      cfg.InstrumentationKey,
		client:   &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
	}, nil
}

// wireBatch is the JSON document POSTed to the collector.
type wireBatch struct {
	BatchID  string                 `json:"batchId"`
	Resource map[string]interface{} `json:"resource,omitempty"`
	Spans    []wireSpan             `json:"spans"`
}

type wireSpan struct {
	TraceID      string                 `json:"traceId"`
	SpanID       string                 `json:"spanId"`
	ParentSpanID string                 `json:"parentSpanId,omitempty"`
	Name         string                 `json:"name"`
	Kind         string                 `json:"kind"`
	StartTime    time.Time              `json:"startTime"`
	EndTime      time.Time              `json:"endTime"`
	DurationMs   float64                `json:"durationMs"`
	Status       string                 `json:"status"`
	StatusDetail string                 `json:"statusDetail,omitempty"`
	Attributes   map[string]interface{} `json:"attributes,omitempty"`
	Events       []wireEvent            `json:"events,omitempty"`
}

type wireEvent struct {
	Time       time.Time              `json:"time"`
	Name       string                 `json:"name"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

func encodeBatch(batch *Batch) ([]byte, error) {
	doc := wireBatch{
		BatchID:  batch.ID,
		Resource: batch.Resource,
		Spans:    make([]wireSpan, 0, len(batch.Spans)),
	}
	for _, s := range batch.Spans {
		doc.Spans = append(doc.Spans, encodeSpan(s))
	}
	return json.Marshal(doc)
}

func encodeSpan(s *trace.Span) wireSpan {
	sc := s.Context()
	ws := wireSpan{
		TraceID:    sc.TraceID.String(),
		SpanID:     sc.SpanID.String(),
		Name:       s.Name(),
		Kind:       s.Kind().String(),
		StartTime:  s.StartTime().UTC(),
		EndTime:    s.EndTime().UTC(),
		DurationMs: float64(s.Duration()) / float64(time.Millisecond),
		Status:     s.Status().Code.String(),
	}
	if parent := s.ParentSpanID(); parent.IsValid() {
		ws.ParentSpanID = parent.String()
	}
	if detail := s.Status().Description; detail != "" {
		ws.StatusDetail = detail
	}
	if attrs := s.Attributes(); len(attrs) > 0 {
		ws.Attributes = attrs
	}
	for _, e := range s.Events() {
		ws.Events = append(ws.Events, wireEvent{
			Time:       e.Time.UTC(),
			Name:       e.Name,
			Attributes: e.Attributes,
		})
	}
	return ws
}

// Send POSTs the batch and classifies the outcome.
func (t *HTTPTransport) Send(ctx context.Context, batch *Batch) error {
	body, err := encodeBatch(batch)
	if err != nil {
		// Not a wire failure; retrying cannot fix an unencodable batch.
		return Terminal(fmt.Errorf("encoding batch %s: %w", batch.ID, err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return Terminal(fmt.Errorf("building request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if t.key != "" {
		req.Header.Set(instrumentationKeyHeader, t.key)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return Retryable(fmt.Errorf("posting batch %s: %w", batch.ID, err))
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusRequestTimeout,
		resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode >= 500:
		return &TransportError{
			Err:        fmt.Errorf("collector rejected batch %s", batch.ID),
			StatusCode: resp.StatusCode,
		}
	default:
		return &TransportError{
			Err:        fmt.Errorf("collector refused batch %s", batch.ID),
			Terminal:   true,
			StatusCode: resp.StatusCode,
		}
	}
}

// Close releases idle connections.
func (t *HTTPTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}
