package metrics

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// FXModule defines the Fx module for the metrics package.
//
// The module:
//  1. Provides NewMetrics and the registry's prometheus.Registerer (which
//     the exporter module consumes for its pipeline counters)
//  2. Invokes RegisterMetricsLifecycle to start and stop the /metrics
//     server with the application
//
// Dependencies required by this module:
// - A metrics.Config instance must be available in the dependency
//   injection container
var FXModule = fx.Module("metrics",
	fx.Provide(
		NewMetrics,
		func(m *Metrics) prometheus.Registerer { return m.Registerer() },
	),
	fx.Invoke(RegisterMetricsLifecycle),
)

// RegisterMetricsLifecycle starts the metrics HTTP server on application
// start and shuts it down gracefully on stop.
func RegisterMetricsLifecycle(lc fx.Lifecycle, m *Metrics) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := m.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Printf("ERROR: metrics server stopped: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return m.Server.Shutdown(ctx)
		},
	})
}
