// Package metrics exposes loom's internal counters over a Prometheus
// /metrics endpoint.
//
// The tracing core is deliberately silent towards the host application:
// dropped spans, failed batches and absorbed misuse never surface as
// errors. This package is where that silence becomes observable. It owns
// an isolated Prometheus registry, serves it over HTTP, and hands its
// Registerer to the exporter pipeline so the pipeline counters land in it.
//
//	m := metrics.NewMetrics(metrics.Config{
//		Address:     ":9090",
//		ServiceName: "checkout",
//	})
//	pipeline, _ := exporter.NewPipeline(cfg, transport, log, m.Registerer())
//	go m.Server.ListenAndServe()
//
// With Fx, the module wires all of this, including server start/stop.
package metrics
