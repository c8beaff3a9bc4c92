// Package sampler periodically drains a Workload's live statistics into an
// output channel without disturbing the generator, on a time or cycle-count
// boundary.
package sampler

import (
	"time"

	"github.com/latte-bench/floodrpc/internal/interval"
	"github.com/latte-bench/floodrpc/internal/workload"
)

// Sampler holds the run Interval, the sampling Interval, the Workload it
// samples from, and the channel snapshots are pushed to.
type Sampler struct {
	runDuration interval.Interval
	sampling    interval.Interval
	workload    *workload.Workload
	out         chan<- workload.WorkloadStats

	startTime        time.Time
	lastSnapshotTime time.Time
	lastSnapshotCycle uint64
}

// New creates a Sampler. out must have capacity >= 1; the Sampler blocks
// on sending into it, which is the system's only backpressure point
// between a worker and the Executor.
func New(runDuration, sampling interval.Interval, w *workload.Workload, out chan<- workload.WorkloadStats) *Sampler {
	now := time.Now()
	return &Sampler{
		runDuration:      runDuration,
		sampling:         sampling,
		workload:         w,
		out:              out,
		startTime:        now,
		lastSnapshotTime: now,
	}
}

// CycleCompleted should be called after every successful workload cycle.
// It may emit a snapshot to the output channel if a sampling boundary has
// been crossed and the run is not about to end (to avoid an excessively
// small trailing sample — Finish handles the trailing window instead).
func (s *Sampler) CycleCompleted(cycle uint64, now time.Time) {
	currentDuration := saturatingSub(now, s.lastSnapshotTime)
	currentCycleDelta := saturatingSubU64(cycle, s.lastSnapshotCycle)

	farFromEnd := s.isFarFromEnd(now, currentDuration, cycle, currentCycleDelta)

	switch {
	case s.sampling.IsTime():
		d, _ := s.sampling.Duration()
		if now.After(s.lastSnapshotTime.Add(d)) && farFromEnd {
			s.sendStats()
			// Advance by exactly d, not to now, so sampling lag never
			// accumulates even if we ran slightly late.
			s.lastSnapshotTime = s.lastSnapshotTime.Add(d)
			s.lastSnapshotCycle = cycle
		}
	case s.sampling.IsCount():
		cnt, _ := s.sampling.Cycles()
		if cycle > s.lastSnapshotCycle+cnt && farFromEnd {
			s.sendStats()
			s.lastSnapshotTime = now
			s.lastSnapshotCycle += cnt
		}
	default: // Unbounded: never emits mid-run.
	}
}

func (s *Sampler) isFarFromEnd(now time.Time, currentDuration time.Duration, cycle, currentCycleDelta uint64) bool {
	switch {
	case s.runDuration.IsTime():
		d, _ := s.runDuration.Duration()
		return now.Add(currentDuration / 2).Before(s.startTime.Add(d))
	case s.runDuration.IsCount():
		count, _ := s.runDuration.Cycles()
		return cycle+currentCycleDelta/2 < count
	default:
		return true
	}
}

// Finish emits one last snapshot for the trailing partial window. Safe to
// call exactly once, after the worker's cycle stream has ended.
func (s *Sampler) Finish() {
	s.sendStats()
}

func (s *Sampler) sendStats() {
	s.out <- s.workload.TakeStats(time.Now())
}

func saturatingSub(a, b time.Time) time.Duration {
	if a.Before(b) {
		return 0
	}
	return a.Sub(b)
}

func saturatingSubU64(a, b uint64) uint64 {
	if a < b {
		return 0
	}
	return a - b
}
