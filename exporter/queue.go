package exporter

import (
	"sync"

	"github.com/loomworks/loom/trace"
)

// spanQueue is a bounded FIFO ring of finished spans. Pushing into a full
// queue evicts the oldest entry instead of blocking: producers run on the
// host application's request path and must never wait on the exporter.
//
// The queue is the single mutual-exclusion domain shared between span
// producers and the background flusher.
type spanQueue struct {
	mu   sync.Mutex
	buf  []*trace.Span
	head int
	size int
}

func newSpanQueue(capacity int) *spanQueue {
	return &spanQueue{buf: make([]*trace.Span, capacity)}
}

// push appends s, evicting and returning the oldest span when full.
func (q *spanQueue) push(s *trace.Span) (evicted *trace.Span) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.size == len(q.buf) {
		evicted = q.buf[q.head]
		q.buf[q.head] = s
		q.head = (q.head + 1) % len(q.buf)
		return evicted
	}
	q.buf[(q.head+q.size)%len(q.buf)] = s
	q.size++
	return nil
}

// drainUpTo removes and returns at most n spans, oldest first. Returns nil
// when the queue is empty.
func (q *spanQueue) drainUpTo(n int) []*trace.Span {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.size == 0 {
		return nil
	}
	if n > q.size {
		n = q.size
	}
	out := make([]*trace.Span, n)
	for i := 0; i < n; i++ {
		out[i] = q.buf[q.head]
		q.buf[q.head] = nil
		q.head = (q.head + 1) % len(q.buf)
	}
	q.size -= n
	return out
}

// len returns the number of queued spans.
func (q *spanQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}
