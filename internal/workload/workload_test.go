package workload_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/latte-bench/floodrpc/internal/workload"
)

type fakeTransport struct {
	fail func(n int) bool
	n    int
}

func (f *fakeTransport) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	f.n++
	if f.fail != nil && f.fail(f.n) {
		return nil, errors.New("boom")
	}
	return json.RawMessage(`"ok"`), nil
}

func (f *fakeTransport) ChainID(ctx context.Context) (string, error) { return "0x1", nil }

func TestRunRecordsSuccess(t *testing.T) {
	w := workload.New(&fakeTransport{}, workload.Request{Method: "eth_blockNumber"})
	cycle, end := w.Run(context.Background(), 42)
	if cycle != 42 {
		t.Fatalf("cycle = %d, want 42", cycle)
	}
	if end.IsZero() {
		t.Fatal("end time should not be zero")
	}
	stats := w.TakeStats(time.Now())
	if stats.Session.RequestCount != 1 || stats.Session.SuccessCount != 1 {
		t.Fatalf("unexpected session stats: %+v", stats.Session)
	}
	if stats.Function.CallCount != 1 {
		t.Fatalf("unexpected function stats: %+v", stats.Function)
	}
}

func TestRunRecordsError(t *testing.T) {
	w := workload.New(&fakeTransport{fail: func(int) bool { return true }}, workload.Request{Method: "x"})
	w.Run(context.Background(), 1)
	stats := w.TakeStats(time.Now())
	if stats.Session.ErrorCount != 1 || stats.Session.SuccessCount != 0 {
		t.Fatalf("unexpected session stats: %+v", stats.Session)
	}
	if stats.Session.RequestCount != 0 {
		t.Fatalf("request count should not include the errored cycle: %+v", stats.Session)
	}
	if stats.Function.CallCount != 1 {
		t.Fatalf("cycle count should include errored cycles: %+v", stats.Function)
	}
}

func TestResetThenTakeStatsIsEmpty(t *testing.T) {
	w := workload.New(&fakeTransport{}, workload.Request{Method: "x"})
	w.Run(context.Background(), 1)
	w.Reset(time.Now())
	stats := w.TakeStats(time.Now())
	if stats.Session.RequestCount != 0 || stats.Function.CallCount != 0 {
		t.Fatalf("expected zeroed stats after reset, got %+v / %+v", stats.Session, stats.Function)
	}
	if stats.Session.RespTimesNs.TotalCount() != 0 {
		t.Fatal("expected empty histogram after reset")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	w := workload.New(&fakeTransport{}, workload.Request{Method: "x", Params: map[string]any{"a": 1}})
	w2, err := w.Clone()
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	w.Run(context.Background(), 1)
	s1 := w.TakeStats(time.Now())
	s2 := w2.TakeStats(time.Now())
	if s1.Session.RequestCount == s2.Session.RequestCount {
		t.Fatal("clone should not share request counters with the original")
	}
}

func TestQueueLengthSurvivesReset(t *testing.T) {
	// Simulate an in-flight request: start without completing, then
	// reset, then complete. The queue length must survive the reset, so
	// the completion brings it back to zero instead of underflowing, and
	// the next start folds that zero into the running mean.
	s := workload.NewSessionStats()
	s.StartRequest()
	s.Reset()
	s.CompleteRequest(1000, "")
	s.StartRequest()
	if s.MeanQueueLen != 0 {
		t.Fatalf("mean queue length = %v, want 0 (queue length underflowed across reset)", s.MeanQueueLen)
	}
	if s.RequestCount != 1 {
		t.Fatalf("expected one request after reset, got %d", s.RequestCount)
	}
}
