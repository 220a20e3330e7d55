package exporter

import (
	"context"

	"github.com/loomworks/loom/trace"
)

// Batch is a sealed, immutable group of finished spans on its way to the
// collector. A span appears in exactly one batch; once sealed, neither the
// batch nor its spans change.
type Batch struct {
	// ID uniquely identifies the batch for logging and collector-side
	// deduplication.
	ID string

	// Resource describes the producing service (service.name and friends),
	// shared by every span of the batch.
	Resource map[string]interface{}

	// Spans are the finished spans, in the order they left the queue.
	Spans []*trace.Span
}

// Transport delivers sealed batches to a collector. Implementations
// classify failures by returning errors wrapped with Retryable or
// Terminal; a bare error is treated as retryable.
//
// Send may block up to the context's deadline. It is only ever called from
// the pipeline's background goroutine, never from the host application's
// call path.
type Transport interface {
	Send(ctx context.Context, batch *Batch) error
	Close() error
}
