package sampler

import "go.uber.org/fx"

// FXModule defines the Fx module for the sampler package. It resolves the
// configured strategy once at startup and provides it as a trace.Sampler.
//
// Dependencies required by this module:
// - A sampler.Config instance must be available in the dependency injection
//   container.
var FXModule = fx.Module("sampler",
	fx.Provide(
		FromConfig,
	),
)
