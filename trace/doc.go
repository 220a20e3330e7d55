// Package trace implements the core of loom's distributed tracing:
// span identity, span recording, and in-process context propagation.
//
// The package is the only surface instrumentation adapters are expected to
// use. Adapters start a span at the beginning of an intercepted operation,
// thread the returned context through nested work, and end the span from a
// deferred block so it can never be left open on an early return or panic.
//
// Basic Usage:
//
//	import (
//		"context"
//
//		"github.com/loomworks/loom/sampler"
//		"github.com/loomworks/loom/trace"
//	)
//
//	tracer, _ := trace.NewTracer(trace.Config{
//		ServiceName: "checkout",
//		AppEnv:      "production",
//	}, sampler.AlwaysOn(), pipeline, log)
//
//	ctx, span := tracer.StartSpan(ctx, "charge-card", trace.WithKind(trace.KindInternal))
//	defer span.End()
//
//	span.SetAttribute("order.id", orderID)
//	if err != nil {
//		span.RecordError(err)
//		return err
//	}
//
// Context Propagation:
//
// The active span identity travels as a trace.SpanContext value inside a
// context.Context. Crossing a goroutine boundary is always explicit: capture
// the context on one side and pass it to the other. There is no implicit
// global that leaks between unrelated goroutines.
//
//	ctx, span := tracer.StartSpan(ctx, "fan-out")
//	go func(ctx context.Context) {
//		_, child := tracer.StartSpan(ctx, "worker")
//		defer child.End()
//		// ...
//	}(ctx)
//
// Sampling:
//
// The sampling decision is made exactly once, when a root span is started,
// and is inherited by every descendant through the SpanContext. A child can
// never override a negative decision made at its root. Unsampled spans are
// still recorded locally (attributes, events, status) but are never handed
// to the export pipeline.
//
// Failure Model:
//
// Nothing this package does may disturb the host application. Misuse such
// as ending a span twice or mutating a finished span is counted, logged,
// and otherwise ignored; no method panics or returns an error to the
// instrumented call path.
//
// Thread Safety:
//
// A Tracer is safe for concurrent use by any number of goroutines. An open
// Span is owned by the execution path that started it; its mutators are
// internally serialized, but sharing an open span across goroutines is not
// part of the contract. Once ended, a span is immutable.
package trace
