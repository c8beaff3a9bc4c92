package workload

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/latte-bench/floodrpc/internal/transport"
)

// WorkloadStats is an immutable snapshot of one worker's statistics over
// a window of time.
type WorkloadStats struct {
	StartTime time.Time
	EndTime   time.Time
	Session   SessionStats
	Function  FunctionStats
}

// Request describes the single parameterized call a Workload repeatedly
// issues. Params is deep-copied on Clone (via a JSON round-trip) so
// concurrent workers never share mutable request state.
type Request struct {
	Method string
	Params any
}

// state holds the mutable part of a Workload shared by every in-flight
// request goroutine a worker thread currently has pipelined. The mutex
// serializes their FunctionStats updates; real contention is expected
// whenever Concurrency > 1, not just defensive.
type state struct {
	mu        sync.Mutex
	startTime time.Time
	fn        *FunctionStats
}

// Workload binds one Request to a Transport and runs it, cycle after
// cycle, tracking statistics along the way.
type Workload struct {
	transport transport.Transport
	req       Request
	session   *SessionStats
	state     *state
}

// New creates a Workload bound to the given transport and request.
func New(t transport.Transport, req Request) *Workload {
	return &Workload{
		transport: t,
		req:       req,
		session:   NewSessionStats(),
		state:     &state{startTime: time.Now(), fn: NewFunctionStats()},
	}
}

// Clone produces an independent worker handle sharing the transport but
// owning fresh statistics. Params is round-tripped through JSON
// marshal/unmarshal to break any incidental sharing of mutable request
// state between workers (e.g. maps or slices embedded in Params).
func (w *Workload) Clone() (*Workload, error) {
	params, err := deepCopyParams(w.req.Params)
	if err != nil {
		return nil, fmt.Errorf("workload clone: could not deep-copy request params: %w", err)
	}
	return &Workload{
		transport: w.transport,
		req:       Request{Method: w.req.Method, Params: params},
		session:   NewSessionStats(),
		state:     &state{startTime: time.Now(), fn: NewFunctionStats()},
	}, nil
}

func deepCopyParams(params any) (any, error) {
	if params == nil {
		return nil, nil
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Run executes one cycle: sends the bound request once, recording the
// start at queue-enter time and the end at response-receive time. A
// per-request transport error is captured as a stable classification and
// folded into SessionStats, but it is never returned as a Go error — by
// design the cycle is still considered "observed", and the caller (the
// Executor, via the Sampler) counts errored cycles distinctly from
// successful ones. Run has no error result (context cancellation is not
// treated specially here; the caller is responsible for checking the
// interrupt flag between cycles).
func (w *Workload) Run(ctx context.Context, cycle uint64) (resultCycle uint64, endTime time.Time) {
	w.session.StartRequest()
	start := time.Now()

	_, err := w.transport.Call(ctx, w.req.Method, w.req.Params)
	end := time.Now()

	errClass := ""
	if err != nil {
		errClass = err.Error()
	}
	w.session.CompleteRequest(end.Sub(start).Nanoseconds(), errClass)

	w.state.mu.Lock()
	w.state.fn.OperationCompleted(end.Sub(start).Nanoseconds())
	w.state.mu.Unlock()

	return cycle, end
}

// Reset zeroes FunctionStats and SessionStats (except outstanding queue
// length) and sets the window start to startTime.
func (w *Workload) Reset(startTime time.Time) {
	w.state.mu.Lock()
	w.state.fn = NewFunctionStats()
	w.state.startTime = startTime
	w.state.mu.Unlock()
	w.session.Reset()
}

// TakeStats atomically swaps out current stats, returning them with the
// window's start/end bounds, and starts a new window at endTime.
func (w *Workload) TakeStats(endTime time.Time) WorkloadStats {
	w.state.mu.Lock()
	fn := w.state.fn.clone()
	startTime := w.state.startTime
	w.state.fn = NewFunctionStats()
	w.state.startTime = endTime
	w.state.mu.Unlock()

	session := w.session.snapshot()
	w.session.Reset()

	return WorkloadStats{
		StartTime: startTime,
		EndTime:   endTime,
		Session:   session,
		Function:  *fn,
	}
}
