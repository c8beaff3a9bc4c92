// Package cycle hands out monotonically increasing, globally unique cycle
// numbers to concurrent workers, in batches, so the shared atomic counter
// is touched only once every batchSize calls.
package cycle

import (
	"sync/atomic"
	"time"

	"github.com/latte-bench/floodrpc/internal/interval"
)

// batchSize is the number of cycle numbers reserved from the shared
// counter on each contended increment. Amortizes atomic contention across
// concurrent workers; the value is not meaningful beyond "small enough to
// keep drift low, large enough to keep contention rare".
const batchSize uint64 = 64

// Counter provides distinct, increasing cycle numbers to any number of
// workers that share it. Two Counters produced by Share never return the
// same number.
type Counter struct {
	shared   *uint64
	local    uint64
	localMax uint64
}

// New creates a counter logically positioned one cycle before start, so
// the first call to Next returns start.
func New(start uint64) *Counter {
	shared := start
	return &Counter{shared: &shared}
}

// Next returns the next cycle number and advances the counter by one.
func (c *Counter) Next() uint64 {
	if c.local >= c.localMax {
		c.nextBatch()
	}
	result := c.local
	c.local++
	return result
}

func (c *Counter) nextBatch() {
	c.local = atomic.AddUint64(c.shared, batchSize) - batchSize
	c.localMax = c.local + batchSize
}

// Share creates a new Counter drawing from the same underlying sequence.
// The returned Counter will never yield a cycle number already yielded
// (or reserved) by this one.
func (c *Counter) Share() *Counter {
	return &Counter{shared: c.shared}
}

// Bounded wraps a Counter with a run Interval and a start instant, so Next
// returns false once the deadline or cycle count has been reached.
type Bounded struct {
	Duration  interval.Interval
	startTime time.Time
	counter   *Counter
}

// NewBounded creates a bounded counter starting at cycle 0. For a
// time-bounded run, the clock starts ticking immediately.
func NewBounded(duration interval.Interval) *Bounded {
	return &Bounded{
		Duration:  duration,
		startTime: time.Now(),
		counter:   New(0),
	}
}

// Next returns the next cycle number, or false if the deadline or cycle
// count has been exceeded.
func (b *Bounded) Next() (uint64, bool) {
	switch {
	case b.Duration.IsCount():
		count, _ := b.Duration.Cycles()
		result := b.counter.Next()
		if result < count {
			return result, true
		}
		return 0, false
	case b.Duration.IsTime():
		d, _ := b.Duration.Duration()
		if time.Now().Before(b.startTime.Add(d)) {
			return b.counter.Next(), true
		}
		return 0, false
	default: // Unbounded
		return b.counter.Next(), true
	}
}

// Share creates a bounded counter sharing both the deadline and the
// underlying cycle sequence, e.g. for use by another worker goroutine.
func (b *Bounded) Share() *Bounded {
	return &Bounded{
		Duration:  b.Duration,
		startTime: b.startTime,
		counter:   b.counter.Share(),
	}
}

// StartTime returns the instant this bounded counter (or the ancestor it
// was shared from) was created.
func (b *Bounded) StartTime() time.Time { return b.startTime }
