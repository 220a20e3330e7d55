package exporter

import (
	"context"

	"go.uber.org/fx"

	"github.com/loomworks/loom/trace"
)

// FXModule defines the Fx module for the exporter package.
//
// The module:
//  1. Provides the HTTP transport and the pipeline to the dependency
//     injection container, the pipeline also under the trace.SpanHandler
//     interface so trace.FXModule can consume it
//  2. Copies the tracer's resource attributes onto the pipeline once both
//     exist
//  3. Registers an OnStop hook that drains the pipeline
//
// Dependencies required by this module:
// - An exporter.Config instance
// - An exporter.Logger implementation
// - A prometheus.Registerer for the pipeline counters
var FXModule = fx.Module("exporter",
	fx.Provide(
		func(cfg Config, logger Logger) (Transport, error) {
			return NewHTTPTransport(cfg, logger)
		},
		NewPipeline,
		func(p *Pipeline) trace.SpanHandler { return p },
	),
	fx.Invoke(
		BindResource,
		RegisterPipelineLifecycle,
	),
)

// BindResource stamps the tracer's service identity onto every batch the
// pipeline seals.
func BindResource(p *Pipeline, t *trace.Tracer) {
	p.SetResource(t.Resource())
}

// RegisterPipelineLifecycle drains the pipeline on application shutdown.
// The drain honors the stop context's deadline, falling back to the
// configured DrainDeadline.
func RegisterPipelineLifecycle(lc fx.Lifecycle, p *Pipeline) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return p.Shutdown(ctx)
		},
	})
}
