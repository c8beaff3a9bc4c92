package executor_test

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/latte-bench/floodrpc/internal/executor"
	"github.com/latte-bench/floodrpc/internal/interval"
	"github.com/latte-bench/floodrpc/internal/workload"
)

type noopTransport struct{}

func (noopTransport) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	return json.RawMessage(`"ok"`), nil
}
func (noopTransport) ChainID(ctx context.Context) (string, error) { return "0x1", nil }

func TestRunFixedCycleCountSingleWorker(t *testing.T) {
	w := workload.New(noopTransport{}, workload.Request{Method: "eth_blockNumber"})
	exec := executor.New(executor.Options{
		Threads:     1,
		Concurrency: 1,
		Warmup:      interval.Count(0),
		Duration:    interval.Count(1000),
		Sampling:    interval.Unbounded(),
	}, w)

	result, err := exec.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.CycleCount != 1000 {
		t.Fatalf("cycle count = %d, want 1000", result.CycleCount)
	}
	if result.RequestCount != 1000 {
		t.Fatalf("request count = %d, want 1000", result.RequestCount)
	}
	if result.ErrorCount != 0 {
		t.Fatalf("expected no errors, got %d", result.ErrorCount)
	}
	if result.CycleCount < result.RequestCount+result.ErrorCount {
		t.Fatalf("cycle_count must be >= request_count + error_count")
	}
}

// TestRunMultipleThreadsShareGlobalCycleBound verifies that Threads draw
// from one shared bounded cycle counter: the total across all threads is
// the configured bound, not bound*threads.
func TestRunMultipleThreadsShareGlobalCycleBound(t *testing.T) {
	w := workload.New(noopTransport{}, workload.Request{Method: "x"})
	exec := executor.New(executor.Options{
		Threads:     4,
		Concurrency: 2,
		Warmup:      interval.Count(0),
		Duration:    interval.Count(400),
		Sampling:    interval.Count(50),
	}, w)

	result, err := exec.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.CycleCount != 400 {
		t.Fatalf("cycle count = %d, want 400 (threads share one global bound)", result.CycleCount)
	}
}

// blockingTransport holds every call open until release is closed, so a
// test can observe how many requests a worker keeps in flight at once.
type blockingTransport struct {
	release  <-chan struct{}
	current  int64
	observed int64 // max concurrent calls seen, via atomic compare-and-swap below
}

func (b *blockingTransport) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	n := atomic.AddInt64(&b.current, 1)
	for {
		old := atomic.LoadInt64(&b.observed)
		if n <= old || atomic.CompareAndSwapInt64(&b.observed, old, n) {
			break
		}
	}
	<-b.release
	atomic.AddInt64(&b.current, -1)
	return json.RawMessage(`"ok"`), nil
}
func (b *blockingTransport) ChainID(ctx context.Context) (string, error) { return "0x1", nil }

// TestRunPipelinesUpToConcurrencyPerThread verifies that a single thread
// keeps up to Concurrency requests in flight at once (buffered/unordered
// pipelining), not just one at a time.
func TestRunPipelinesUpToConcurrencyPerThread(t *testing.T) {
	release := make(chan struct{})
	bt := &blockingTransport{release: release}
	w := workload.New(bt, workload.Request{Method: "x"})
	exec := executor.New(executor.Options{
		Threads:     1,
		Concurrency: 8,
		Warmup:      interval.Count(0),
		Duration:    interval.Unbounded(),
		Sampling:    interval.Unbounded(),
	}, w)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		exec.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt64(&bt.observed) < 8 {
		select {
		case <-deadline:
			t.Fatalf("observed only %d concurrent in-flight requests, want 8", atomic.LoadInt64(&bt.observed))
		default:
			time.Sleep(time.Millisecond)
		}
	}
	close(release)
	cancel()
	<-done
}

func TestRunRespectsContextCancellation(t *testing.T) {
	w := workload.New(noopTransport{}, workload.Request{Method: "x"})
	exec := executor.New(executor.Options{
		Threads:     1,
		Concurrency: 1,
		Warmup:      interval.Count(0),
		Duration:    interval.Unbounded(),
		Sampling:    interval.Unbounded(),
	}, w)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := exec.Run(ctx)
	if err == nil {
		t.Fatal("expected context deadline error for unbounded run")
	}
}
