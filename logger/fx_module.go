package logger

import (
	"context"

	"go.uber.org/fx"
)

// FXModule defines the Fx module for the logger package.
//
// The module:
//  1. Provides the NewLoggerClient factory function to the dependency
//     injection container
//  2. Invokes RegisterLoggerLifecycle to flush buffered entries during
//     application shutdown
//
// Dependencies required by this module:
// - A logger.Config instance must be available in the dependency injection
//   container
var FXModule = fx.Module("logger",
	fx.Provide(
		NewLoggerClient,
	),
	fx.Invoke(RegisterLoggerLifecycle),
)

// RegisterLoggerLifecycle handles cleanup (sync) of the Zap logger. The
// OnStop hook flushes any buffered log entries before the application
// terminates. Sync errors on stderr are expected on some platforms and
// are ignored.
func RegisterLoggerLifecycle(lc fx.Lifecycle, client *Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = client.Zap.Sync()
			return nil
		},
	})
}
