// Package executor drives a pool of worker threads against a Workload,
// merging their periodic Sampler snapshots into a Recorder and producing
// the final BenchmarkStats for a run.
package executor

import (
	"context"
	"sync"
	"time"

	"github.com/latte-bench/floodrpc/internal/cycle"
	"github.com/latte-bench/floodrpc/internal/interval"
	"github.com/latte-bench/floodrpc/internal/recorder"
	"github.com/latte-bench/floodrpc/internal/sampler"
	"github.com/latte-bench/floodrpc/internal/workload"
)

// Options configures one Executor run.
type Options struct {
	// Threads is the number of independent worker goroutines, each
	// driving its own pipeline of up to Concurrency in-flight requests
	// and its own share of RateLimit.
	Threads int
	// Concurrency bounds the number of requests each thread keeps
	// in flight at once (a per-thread semaphore, not a global one).
	Concurrency int
	Warmup      interval.Interval
	Duration    interval.Interval
	Sampling    interval.Interval
	// RateLimit, if non-nil, caps the aggregate cycle rate across all
	// threads in cycles/sec. Nil means run as fast as possible.
	RateLimit *float64
}

// Executor owns the worker pool for a single benchmark run.
type Executor struct {
	opts     Options
	template *workload.Workload
}

// New creates an Executor for the given options and template workload.
// The template is cloned once per thread so threads never share mutable
// request state.
func New(opts Options, template *workload.Workload) *Executor {
	return &Executor{opts: opts, template: template}
}

// cycleResult is one completed in-flight request, reported back to its
// thread's own serialized result-processing loop.
type cycleResult struct {
	cycle uint64
	at    time.Time
}

// Run starts Threads worker goroutines, each pipelining up to
// Concurrency in-flight requests against its own share of the cycle
// counter, and blocks until the run's Duration interval elapses or ctx
// is canceled. It returns the merged BenchmarkStats.
//
// Warmup cycles run first (same thread/concurrency schedule, without the
// RateLimit ticker) and are fully discarded: no workload stats are
// sampled during warmup.
func (e *Executor) Run(ctx context.Context) (recorder.BenchmarkStats, error) {
	if !e.opts.Warmup.IsZero() {
		if err := e.runDiscardPhase(ctx, e.opts.Warmup); err != nil {
			return recorder.BenchmarkStats{}, err
		}
	}

	rec := recorder.Start(e.opts.RateLimit, e.opts.Concurrency)
	if err := e.runMeasuredPhase(ctx, rec); err != nil {
		return recorder.BenchmarkStats{}, err
	}

	select {
	case <-ctx.Done():
		return recorder.BenchmarkStats{}, ctx.Err()
	default:
		return rec.Finish(), nil
	}
}

func (e *Executor) threadCount() int {
	if e.opts.Threads < 1 {
		return 1
	}
	return e.opts.Threads
}

// runDiscardPhase runs the thread/concurrency schedule with no output
// sink, used for the warmup interval. Warmup always runs unthrottled
// (no RateLimit ticker), matching the original's warmup ExecutionOptions
// always passing rate: None regardless of the configured run rate.
func (e *Executor) runDiscardPhase(ctx context.Context, run interval.Interval) error {
	threads := e.threadCount()
	shared := cycle.NewBounded(run)

	var wg sync.WaitGroup
	wg.Add(threads)
	for i := 0; i < threads; i++ {
		counter := shared.Share()
		w, err := e.template.Clone()
		if err != nil {
			wg.Done()
			continue
		}
		go func() {
			defer wg.Done()
			e.runThread(ctx, counter, w, nil, run, nil)
		}()
	}
	wg.Wait()

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// runMeasuredPhase runs the thread/concurrency schedule with each thread
// feeding its own output channel, and drains exactly one snapshot from
// each live thread per iteration (a deterministic round-robin merge),
// recording the resulting window until every thread's channel is closed.
func (e *Executor) runMeasuredPhase(ctx context.Context, rec *recorder.Recorder) error {
	threads := e.threadCount()
	shared := cycle.NewBounded(e.opts.Duration)

	outs := make([]chan workload.WorkloadStats, threads)
	for i := range outs {
		outs[i] = make(chan workload.WorkloadStats, 1)
	}

	var wg sync.WaitGroup
	wg.Add(threads)
	for i := 0; i < threads; i++ {
		counter := shared.Share()
		w, err := e.template.Clone()
		if err != nil {
			wg.Done()
			close(outs[i])
			continue
		}
		ticker := e.tickerForThread(threads)
		out := outs[i]
		go func() {
			defer wg.Done()
			defer close(out)
			if ticker != nil {
				defer ticker.Stop()
			}
			e.runThread(ctx, counter, w, out, e.opts.Duration, ticker)
		}()
	}

	for {
		window := receiveOneOfEach(outs)
		if len(window) == 0 {
			break
		}
		rec.Record(window)
	}
	wg.Wait()
	return nil
}

// receiveOneOfEach receives one item from each still-open channel,
// skipping (not blocking forever on) channels that have already closed.
// Mirrors the original's receive_one_of_each: "streams that are closed
// are ignored".
func receiveOneOfEach(outs []chan workload.WorkloadStats) []workload.WorkloadStats {
	items := make([]workload.WorkloadStats, 0, len(outs))
	for _, out := range outs {
		if v, ok := <-out; ok {
			items = append(items, v)
		}
	}
	return items
}

// runThread runs one worker thread: a dispatch loop that pulls cycle
// numbers from counter (paced by ticker, if any) and fires each one as
// an independent goroutine bounded by a Concurrency-sized semaphore, and
// a result-processing loop, serialized on this goroutine, that feeds
// completions to a Sampler in whatever order they actually finish (the
// "buffered, unordered" pipelining of spec §5). If out is nil, results
// are discarded and no Sampler is created (the warmup phase).
func (e *Executor) runThread(ctx context.Context, counter *cycle.Bounded, w *workload.Workload, out chan<- workload.WorkloadStats, run interval.Interval, ticker *time.Ticker) {
	concurrency := e.opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	sem := make(chan struct{}, concurrency)
	// results is unbuffered so a completed request's semaphore slot is
	// only freed once the drain loop below has actually taken its
	// result, keeping true physical in-flight concurrency bounded by
	// concurrency at every instant (matching buffer_unordered, which
	// only starts a replacement future once the consumer has taken the
	// prior one).
	results := make(chan cycleResult)
	dispatchDone := make(chan struct{})

	go func() {
		defer close(dispatchDone)
		var inFlight sync.WaitGroup
	dispatch:
		for {
			select {
			case <-ctx.Done():
				break dispatch
			default:
			}
			if ticker != nil {
				select {
				case <-ctx.Done():
					break dispatch
				case <-ticker.C:
				}
			}
			n, ok := counter.Next()
			if !ok {
				break dispatch
			}
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				break dispatch
			}
			inFlight.Add(1)
			go func(n uint64) {
				defer inFlight.Done()
				_, at := w.Run(ctx, n)
				results <- cycleResult{cycle: n, at: at}
				<-sem
			}(n)
		}
		inFlight.Wait()
	}()

	var smp *sampler.Sampler
	if out != nil {
		smp = sampler.New(run, e.opts.Sampling, w, out)
	}

drain:
	for {
		select {
		case r := <-results:
			if smp != nil {
				smp.CycleCompleted(r.cycle, r.at)
			}
		case <-dispatchDone:
			for {
				select {
				case r := <-results:
					if smp != nil {
						smp.CycleCompleted(r.cycle, r.at)
					}
					continue
				default:
				}
				break drain
			}
		}
	}

	if smp != nil {
		smp.Finish()
	}
}

// tickerForThread returns a ticker paced so that, across all threads
// each dispatching new cycles at their own rate/threads pace, the
// aggregate dispatch rate matches RateLimit. Nil if unthrottled.
func (e *Executor) tickerForThread(threads int) *time.Ticker {
	if e.opts.RateLimit == nil || *e.opts.RateLimit <= 0 {
		return nil
	}
	perThreadRate := *e.opts.RateLimit / float64(threads)
	if perThreadRate <= 0 {
		return nil
	}
	period := time.Duration(float64(time.Second) / perThreadRate)
	if period <= 0 {
		return nil
	}
	return time.NewTicker(period)
}
