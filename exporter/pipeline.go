package exporter

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/loomworks/loom/trace"
)

// Logger defines the interface for logging operations within the exporter
// package. This interface allows the package to use any logging
// implementation that conforms to these methods.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// Pipeline is the export pipeline: a bounded queue in front of a batching
// flusher that delivers to a Transport on its own goroutine. It implements
// trace.SpanHandler, so it plugs directly into trace.NewTracer.
//
// Producers interact only with OnEnd, which never blocks on the network.
// All delivery, retrying and backoff happens in the background; the only
// state shared with producers is the queue, behind a single mutex.
type Pipeline struct {
	cfg       Config
	queue     *spanQueue
	transport Transport
	logger    Logger
	metrics   *pipelineMetrics

	resourceMu sync.RWMutex
	resource   map[string]interface{}

	// wake nudges the flusher when the queue holds a full batch; capacity
	// one so producers never wait on it.
	wake chan struct{}

	cancel  context.CancelFunc
	group   *errgroup.Group
	stopped atomic.Bool
	once    sync.Once
}

// NewPipeline creates the pipeline and starts its background flusher.
//
// Parameters:
//   - cfg: queue, batching and retry policy
//   - transport: the delivery sink; see NewHTTPTransport
//   - logger: destination for pipeline lifecycle and failure messages
//   - reg: Prometheus registerer for the pipeline counters; nil for a
//     private registry
//
// Returns the running pipeline, or an error for invalid configuration.
// Stop it with Shutdown; an abandoned pipeline leaks a goroutine.
func NewPipeline(cfg Config, transport Transport, logger Logger, reg prometheus.Registerer) (*Pipeline, error) {
	cfg.applyDefaults()
	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	if transport == nil {
		return nil, ErrNilTransport
	}

	ctx, cancel := context.WithCancel(context.Background())
	group, gctx := errgroup.WithContext(ctx)

	p := &Pipeline{
		cfg:       cfg,
		queue:     newSpanQueue(cfg.QueueCapacity),
		transport: transport,
		logger:    logger,
		metrics:   newPipelineMetrics(reg),
		wake:      make(chan struct{}, 1),
		cancel:    cancel,
		group:     group,
	}
	group.Go(func() error {
		p.run(gctx)
		return nil
	})
	return p, nil
}

// SetResource attaches service-identifying attributes to every batch this
// pipeline seals. Call it during startup, before spans flow.
func (p *Pipeline) SetResource(resource map[string]interface{}) {
	p.resourceMu.Lock()
	defer p.resourceMu.Unlock()
	p.resource = resource
}

// OnEnd implements trace.SpanHandler. It accepts a finished, sampled span
// into the queue, evicting the oldest span when the queue is full. During
// shutdown drain, new spans are refused and counted. Never blocks.
func (p *Pipeline) OnEnd(s *trace.Span) {
	p.metrics.enqueued.Inc()
	if p.stopped.Load() {
		p.metrics.dropped.WithLabelValues(dropReasonShutdown).Inc()
		return
	}
	if evicted := p.queue.push(s); evicted != nil {
		p.metrics.dropped.WithLabelValues(dropReasonQueueFull).Inc()
	}
	if p.queue.len() >= p.cfg.MaxBatchSize {
		select {
		case p.wake <- struct{}{}:
		default:
		}
	}
}

// run is the flush cycle: a batch is sealed when the queue holds a full
// batch or when the linger interval elapses, whichever comes first.
func (p *Pipeline) run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.Linger)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.flush(ctx, false)
		case <-p.wake:
			p.flush(ctx, true)
		}
	}
}

// flush seals and sends batches. On the size trigger it only sends while
// full batches are available; on the linger trigger it empties the queue,
// bounding the time any span waits to one linger interval.
func (p *Pipeline) flush(ctx context.Context, sizeTriggered bool) {
	for ctx.Err() == nil {
		if sizeTriggered && p.queue.len() < p.cfg.MaxBatchSize {
			return
		}
		spans := p.queue.drainUpTo(p.cfg.MaxBatchSize)
		if len(spans) == 0 {
			return
		}
		p.send(ctx, p.seal(spans))
	}
}

// seal freezes spans into an immutable batch.
func (p *Pipeline) seal(spans []*trace.Span) *Batch {
	p.resourceMu.RLock()
	resource := p.resource
	p.resourceMu.RUnlock()
	return &Batch{
		ID:       uuid.NewString(),
		Resource: resource,
		Spans:    spans,
	}
}

// send delivers one batch, retrying retryable failures with exponential
// backoff up to the attempt budget. Terminal errors short-circuit the
// retry loop; either way an undeliverable batch is dropped and counted,
// never surfaced to the host.
func (p *Pipeline) send(ctx context.Context, batch *Batch) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.cfg.BackoffBase
	bo.MaxInterval = p.cfg.BackoffCap
	bo.Multiplier = 2
	bo.RandomizationFactor = 0.1
	bo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(p.cfg.MaxAttempts-1)), ctx)

	attempt := 0
	err := backoff.Retry(func() error {
		if attempt > 0 {
			p.metrics.retries.Inc()
		}
		attempt++

		sendCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()

		sendErr := p.transport.Send(sendCtx, batch)
		if sendErr == nil {
			return nil
		}
		if IsTerminal(sendErr) {
			return backoff.Permanent(sendErr)
		}
		return sendErr
	}, policy)

	switch {
	case err == nil:
		p.metrics.batchesSent.Inc()
		p.metrics.exported.Add(float64(len(batch.Spans)))
	case IsTerminal(err):
		p.metrics.batchesFailed.Inc()
		p.metrics.dropped.WithLabelValues(dropReasonTerminal).Add(float64(len(batch.Spans)))
		if p.logger != nil {
			p.logger.Warn("dropping batch after terminal transport error", err, map[string]interface{}{
				"batch_id": batch.ID,
				"spans":    len(batch.Spans),
			})
		}
	default:
		p.metrics.batchesFailed.Inc()
		p.metrics.dropped.WithLabelValues(dropReasonRetryExhausted).Add(float64(len(batch.Spans)))
		if p.logger != nil {
			p.logger.Warn("dropping batch after exhausting retries", err, map[string]interface{}{
				"batch_id": batch.ID,
				"spans":    len(batch.Spans),
				"attempts": attempt,
			})
		}
	}
}

// Shutdown transitions the pipeline to draining mode: new spans are
// refused, the background flusher stops, and a final best-effort flush
// runs under a hard deadline (the context's, or DrainDeadline when the
// context has none). Spans still queued at the deadline are discarded and
// counted. Safe to call more than once; only the first call drains.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	var closeErr error
	p.once.Do(func() {
		p.stopped.Store(true)
		p.cancel()
		_ = p.group.Wait()

		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, p.cfg.DrainDeadline)
			defer cancel()
		}

		for {
			spans := p.queue.drainUpTo(p.cfg.MaxBatchSize)
			if len(spans) == 0 {
				break
			}
			if ctx.Err() == nil {
				if err := p.transport.Send(ctx, p.seal(spans)); err == nil {
					p.metrics.batchesSent.Inc()
					p.metrics.exported.Add(float64(len(spans)))
					continue
				}
				p.metrics.batchesFailed.Inc()
			}
			p.metrics.dropped.WithLabelValues(dropReasonShutdown).Add(float64(len(spans)))
		}

		closeErr = p.transport.Close()
		if p.logger != nil {
			p.logger.Info("export pipeline stopped", nil, nil)
		}
	})
	return closeErr
}
