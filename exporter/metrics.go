package exporter

import "github.com/prometheus/client_golang/prometheus"

// Drop reasons used as the "reason" label on the dropped-spans counter.
const (
	dropReasonQueueFull      = "queue_full"
	dropReasonRetryExhausted = "retry_exhausted"
	dropReasonTerminal       = "terminal"
	dropReasonShutdown       = "shutdown"
)

// pipelineMetrics holds the pipeline's Prometheus collectors. Together
// they maintain the accounting property that exported + dropped + queued
// never exceeds enqueued.
type pipelineMetrics struct {
	enqueued      prometheus.Counter
	exported      prometheus.Counter
	dropped       *prometheus.CounterVec
	batchesSent   prometheus.Counter
	batchesFailed prometheus.Counter
	retries       prometheus.Counter
}

// newPipelineMetrics registers the pipeline collectors on reg. A nil
// Registerer gets a private registry, keeping the pipeline usable without
// a metrics setup.
func newPipelineMetrics(reg prometheus.Registerer) *pipelineMetrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &pipelineMetrics{
		enqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loom_exporter_spans_enqueued_total",
			Help: "Finished sampled spans accepted by the export pipeline",
		}),
		exported: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loom_exporter_spans_exported_total",
			Help: "Spans delivered to the collector",
		}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loom_exporter_spans_dropped_total",
			Help: "Spans discarded by the export pipeline",
		}, []string{"reason"}),
		batchesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loom_exporter_batches_sent_total",
			Help: "Batches delivered to the collector",
		}),
		batchesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loom_exporter_batches_failed_total",
			Help: "Batches abandoned after terminal errors or retry exhaustion",
		}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loom_exporter_send_retries_total",
			Help: "Delivery re-attempts after retryable transport errors",
		}),
	}
	reg.MustRegister(m.enqueued, m.exported, m.dropped, m.batchesSent, m.batchesFailed, m.retries)
	return m
}
