// Package progress formats a single-line, atomically-updated progress
// bar. String returns the rendered line; the package does not write it
// to any output itself.
package progress

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

const width = 60

// bound is either a fixed cycle count or a fixed duration to reach 100%.
type bound struct {
	isDuration bool
	duration   time.Duration
	count      uint64
}

// Progress tracks a monotonically increasing position against a bound,
// safe to Tick from any number of worker goroutines concurrently.
type Progress struct {
	startTime time.Time
	bound     bound
	pos       atomic.Uint64
	msg       string
}

// WithDuration creates a Progress that reaches 100% when max has
// elapsed since creation.
func WithDuration(msg string, max time.Duration) *Progress {
	return &Progress{startTime: time.Now(), bound: bound{isDuration: true, duration: max}, msg: msg}
}

// WithCount creates a Progress that reaches 100% after count Ticks.
func WithCount(msg string, count uint64) *Progress {
	return &Progress{startTime: time.Now(), bound: bound{count: count}, msg: msg}
}

// Tick advances the position by one. Safe for concurrent use.
func (p *Progress) Tick() {
	p.pos.Add(1)
}

// String renders the current state as a single line: "[===     ]  42.0%".
func (p *Progress) String() string {
	pos := p.pos.Load()
	var body string
	if p.bound.isDuration {
		elapsed := time.Since(p.startTime).Seconds()
		total := p.bound.duration.Seconds()
		ratio := elapsed / total
		if ratio > 1 {
			ratio = 1
		}
		body = fmt.Sprintf("%s %5.1f%% %8.1f/%.0fs %12d", bar(ratio), 100*ratio, elapsed, total, pos)
	} else {
		count := p.bound.count
		if pos > count {
			pos = count
		}
		ratio := float64(pos) / float64(count)
		body = fmt.Sprintf("%s %5.1f%% %20s", bar(ratio), 100*ratio, fmt.Sprintf("%d/%d", pos, count))
	}
	return fmt.Sprintf("%-21s%s", p.msg, body)
}

func bar(ratio float64) string {
	fill := int(float64(width) * ratio)
	if fill > width {
		fill = width
	}
	if fill < 0 {
		fill = 0
	}
	return "[" + strings.Repeat("=", fill) + strings.Repeat(" ", width-fill) + "]"
}
