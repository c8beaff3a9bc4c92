package workload

import (
	"sync"
	"time"

	hdr "github.com/HdrHistogram/hdrhistogram-go"
)

// maxKeptErrors bounds the cardinality of the per-worker error set,
// preventing unbounded memory growth when an endpoint fails with
// high-cardinality error bodies.
const maxKeptErrors = 10

// histMin/histMax/histSigFigs bound the response-time and cycle-time
// histograms: 1ns to roughly an hour, 3 significant decimal digits.
const (
	histMin     = 1
	histMax     = int64(time.Hour)
	histSigFigs = 3
)

// SessionStats tracks per-worker request counters, outstanding queue
// depth, and a response-time histogram (in nanoseconds). Mutated on every
// request start/complete; the queue length is never reset mid-run because
// in-flight requests must still decrement it when they complete.
type SessionStats struct {
	mu sync.Mutex

	RequestCount  uint64
	SuccessCount  uint64
	ErrorCount    uint64
	Errors        map[string]struct{}
	RowCount      uint64
	queueLen      uint64
	MeanQueueLen  float32
	RespTimesNs   *hdr.Histogram
}

// NewSessionStats creates an empty SessionStats.
func NewSessionStats() *SessionStats {
	return &SessionStats{
		Errors:      make(map[string]struct{}),
		RespTimesNs: hdr.New(histMin, histMax, histSigFigs),
	}
}

// StartRequest records that one more request entered the queue and
// returns nothing; the caller is expected to capture its own start time
// for latency measurement (queue length bookkeeping is intentionally
// decoupled from wall-clock timing).
func (s *SessionStats) StartRequest() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.RequestCount > 0 {
		s.MeanQueueLen += (float32(s.queueLen) - s.MeanQueueLen) / float32(s.RequestCount)
	}
	s.queueLen++
}

// CompleteRequest records the completion of a request that took
// durationNs nanoseconds. errClass, if non-empty, is the stable
// classification of the failure; an empty errClass means success.
func (s *SessionStats) CompleteRequest(durationNs int64, errClass string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queueLen--
	if durationNs < 1 {
		durationNs = 1
	}
	_ = s.RespTimesNs.RecordValue(durationNs)
	if errClass == "" {
		s.RequestCount++
		s.SuccessCount++
		return
	}
	s.ErrorCount++
	if len(s.Errors) < maxKeptErrors {
		s.Errors[errClass] = struct{}{}
	}
}

// Reset zeroes all accumulators except the outstanding queue length,
// which must survive across resets because in-flight requests still
// need to decrement it when they land.
func (s *SessionStats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ErrorCount = 0
	s.SuccessCount = 0
	s.RequestCount = 0
	s.RowCount = 0
	s.MeanQueueLen = 0
	s.Errors = make(map[string]struct{})
	s.RespTimesNs = hdr.New(histMin, histMax, histSigFigs)
}

// snapshot returns a value copy safe to hand off to another goroutine.
// The histogram is copied via Merge into a fresh one so the original can
// keep recording without the copy observing further mutation.
func (s *SessionStats) snapshot() SessionStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := hdr.New(histMin, histMax, histSigFigs)
	h.Merge(s.RespTimesNs)
	errs := make(map[string]struct{}, len(s.Errors))
	for k := range s.Errors {
		errs[k] = struct{}{}
	}
	return SessionStats{
		RequestCount: s.RequestCount,
		SuccessCount: s.SuccessCount,
		ErrorCount:   s.ErrorCount,
		Errors:       errs,
		RowCount:     s.RowCount,
		queueLen:     s.queueLen,
		MeanQueueLen: s.MeanQueueLen,
		RespTimesNs:  h,
	}
}

// FunctionStats tracks per-worker cycle invocation counts and a
// cycle-time histogram (in nanoseconds). Kept distinct from SessionStats
// so a future multi-request cycle could populate them independently; for
// this system's one-request-per-cycle workload they track the same
// timings.
type FunctionStats struct {
	CallCount  uint64
	CallTimesNs *hdr.Histogram
}

// NewFunctionStats creates an empty FunctionStats.
func NewFunctionStats() *FunctionStats {
	return &FunctionStats{CallTimesNs: hdr.New(histMin, histMax, histSigFigs)}
}

// OperationCompleted records one more completed cycle of durationNs
// nanoseconds.
func (f *FunctionStats) OperationCompleted(durationNs int64) {
	if durationNs < 1 {
		durationNs = 1
	}
	f.CallCount++
	_ = f.CallTimesNs.RecordValue(durationNs)
}

func (f *FunctionStats) clone() *FunctionStats {
	h := hdr.New(histMin, histMax, histSigFigs)
	h.Merge(f.CallTimesNs)
	return &FunctionStats{CallCount: f.CallCount, CallTimesNs: h}
}
