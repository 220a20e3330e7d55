package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics encapsulates the Prometheus registry and the HTTP server that
// exposes it for scraping.
type Metrics struct {
	// Server is the HTTP server serving the /metrics endpoint.
	Server *http.Server

	// Registry is the isolated Prometheus registry all loom collectors
	// register into. Isolation avoids metric name collisions when several
	// components run in one process.
	Registry *prometheus.Registry

	registerer prometheus.Registerer
}

// NewMetrics initializes and returns a new instance of the Metrics struct.
// It sets up a dedicated Prometheus registry, wraps it with a constant
// "service" label, optionally registers the standard Go and process
// collectors, and creates an HTTP server exposing the metrics endpoint.
//
// The server is configured, not started; start it yourself or let the Fx
// module manage it.
func NewMetrics(cfg Config) *Metrics {
	if cfg.Address == "" {
		cfg.Address = DefaultMetricsAddress
	}

	registry := prometheus.NewRegistry()
	registerer := prometheus.Registerer(registry)
	if cfg.ServiceName != "" {
		registerer = prometheus.WrapRegistererWith(
			prometheus.Labels{"service": cfg.ServiceName},
			registry,
		)
	}

	if cfg.EnableDefaultCollectors {
		registerer.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &Metrics{
		Server: &http.Server{
			Addr:    cfg.Address,
			Handler: handler,
		},
		Registry:   registry,
		registerer: registerer,
	}
}

// Registerer returns the label-wrapped registerer components should
// register their collectors on. The exporter pipeline takes it as its
// metrics destination.
func (m *Metrics) Registerer() prometheus.Registerer {
	return m.registerer
}
