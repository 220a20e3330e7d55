package trace

import "go.uber.org/fx"

// FXModule defines the Fx module for the trace package.
//
// The module provides the NewTracer factory to the dependency injection
// container. It expects a trace.Config, a trace.Sampler, a
// trace.SpanHandler and a trace.Logger to be available; the sampler and
// exporter packages provide the first two, and the logger package can be
// bound to trace.Logger by the application:
//
//	app := fx.New(
//	    logger.FXModule,
//	    exporter.FXModule,
//	    trace.FXModule,
//	    fx.Provide(
//	        func() trace.Config { return traceCfg },
//	        func(l *logger.Logger) trace.Logger { return l },
//	    ),
//	)
//
// The tracer itself carries no lifecycle: flushing on shutdown belongs to
// the exporter pipeline, whose module registers the OnStop hook.
var FXModule = fx.Module("trace",
	fx.Provide(
		NewTracer,
	),
)
