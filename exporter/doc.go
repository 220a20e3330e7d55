// Package exporter decouples span production from network delivery.
//
// The pipeline accepts finished, sampled spans into a bounded queue,
// seals them into batches on a dual trigger (batch size or linger time,
// whichever fires first), and delivers batches to a Transport with
// exponential-backoff retries. Tracing must never slow the host
// application, so producers are never blocked: when the queue is full the
// oldest spans are evicted and counted, and all delivery happens on a
// background goroutine.
//
// Span states through the pipeline:
//
//	QUEUED -> BATCHED -> SENT
//	                  -> FAILED (retryable, retried with backoff, then dropped)
//	                  -> DROPPED (queue full / terminal error / shutdown)
//
// Transport failures are classified: retryable failures (network errors,
// 5xx, 408, 429) are retried up to the configured attempt budget; terminal
// failures (other 4xx, authentication) drop the batch immediately.
// Telemetry loss is acceptable, host disruption is not.
//
// Usage:
//
//	transport, err := exporter.NewHTTPTransport(cfg, log)
//	pipeline, err := exporter.NewPipeline(cfg, transport, log, registry)
//	// hand the pipeline to trace.NewTracer as the SpanHandler
//	defer pipeline.Shutdown(ctx)
//
// Shutdown switches the pipeline to draining mode: new spans are refused,
// a final best-effort flush runs under a hard deadline, and whatever is
// left at the deadline is discarded and counted.
//
// The pipeline exposes Prometheus counters (spans enqueued, exported,
// dropped by reason, batches sent/failed, send retries) on the Registerer
// handed to NewPipeline.
package exporter
