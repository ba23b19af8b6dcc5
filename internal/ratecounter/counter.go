// Package ratecounter provides a small monotonic counter, optionally
// mirrored to a Prometheus collector; internal/loopd uses it to count
// reconciliation sweeps.
package ratecounter

import (
	"fmt"
	"sync/atomic"
)

// Sink receives every increment, e.g. a prometheus.Counter's Add method.
type Sink interface {
	Add(float64)
}

// Counter is a 64-bit counter, safe for concurrent use.
type Counter struct {
	count uint64
	sink  Sink
}

// New creates a new Counter. sink may be nil.
func New(sink Sink) *Counter {
	return &Counter{sink: sink}
}

// Reset zeroes the counter. It does not reset the backing sink, which
// typically is not resettable (a Prometheus counter only goes up).
func (c *Counter) Reset() {
	atomic.StoreUint64(&c.count, 0)
}

// Increment adds one to the counter and to the sink, if any.
func (c *Counter) Increment() {
	atomic.AddUint64(&c.count, 1)
	if c.sink != nil {
		c.sink.Add(1)
	}
}

// Value returns the current count.
func (c *Counter) Value() uint64 {
	return atomic.LoadUint64(&c.count)
}

// String implements fmt.Stringer.
func (c *Counter) String() string {
	return fmt.Sprintf("%d", c.Value())
}
