// Package recorder accumulates per-worker workload snapshots into a log of
// Samples and, on finish, computes the final BenchmarkStats: means with
// long-run standard errors, percentile distributions, and CPU utilization.
package recorder

import (
	"encoding/json"
	"math"
	"os"
	"runtime"
	"time"

	hdr "github.com/HdrHistogram/hdrhistogram-go"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/latte-bench/floodrpc/internal/histogram"
	"github.com/latte-bench/floodrpc/internal/stats"
	"github.com/latte-bench/floodrpc/internal/workload"
)

// maxKeptErrors bounds the cardinality of the run-wide error set.
const maxKeptErrors = 10

const (
	histMin     = 1
	histMax     = int64(time.Hour)
	histSigFigs = 3
)

// distributionRatio and distributionMinStep control the log-bucketed
// iteration over the total histogram used to build the Distribution:
// three buckets per decade (the ratio is the cube root of 10), starting
// at 100µs.
const (
	distributionRatio   = 2.15443469
	distributionMinStep = 100000 // ns
)

// Bucket is one row of a log-bucketed cumulative distribution.
type Bucket struct {
	Percentile       float64 `json:"percentile"`
	DurationMs       float64 `json:"duration_ms"`
	Count            int64   `json:"count"`
	CumulativeCount  int64   `json:"cumulative_count"`
}

// TimeDistribution bundles a weighted mean, the 15-point percentile
// vector (each itself a Mean over the sample log), and a log-bucketed
// histogram distribution.
type TimeDistribution struct {
	Mean        stats.Mean   `json:"mean"`
	Percentiles []stats.Mean `json:"percentiles"`
	Distribution []Bucket    `json:"distribution"`
}

// Sample is the merged snapshot across all workers for one sampling
// window.
type Sample struct {
	TimeS        float32 `json:"time_s"`
	DurationS    float32 `json:"duration_s"`
	CycleCount   uint64  `json:"cycle_count"`
	RequestCount uint64  `json:"request_count"`
	ErrorCount   uint64  `json:"error_count"`
	Errors       []string `json:"errors"`
	RowCount     uint64  `json:"row_count"`
	MeanQueueLen float32 `json:"mean_queue_len"`

	CycleThroughput float32 `json:"cycle_throughput"`
	ReqThroughput   float32 `json:"req_throughput"`
	RowThroughput   float32 `json:"row_throughput"`

	MeanCycleTimeMs float32 `json:"mean_cycle_time_ms"`
	MeanRespTimeMs  float32 `json:"mean_resp_time_ms"`

	CycleTimePercentiles [stats.NumPercentiles]float32 `json:"cycle_time_percentiles"`
	RespTimePercentiles  [stats.NumPercentiles]float32 `json:"resp_time_percentiles"`

	CycleTimeHistogramNs *hdr.Histogram `json:"-"`
	RespTimeHistogramNs  *hdr.Histogram `json:"-"`
}

// sampleJSON mirrors Sample for serialization, substituting the two
// histogram pointers with their histogram.Encode-d form so a saved
// Report can still drive the "hdr" export command after a round trip
// through JSON.
type sampleJSON struct {
	TimeS                float32                        `json:"time_s"`
	DurationS            float32                        `json:"duration_s"`
	CycleCount           uint64                         `json:"cycle_count"`
	RequestCount         uint64                         `json:"request_count"`
	ErrorCount           uint64                         `json:"error_count"`
	Errors               []string                       `json:"errors"`
	RowCount             uint64                         `json:"row_count"`
	MeanQueueLen         float32                        `json:"mean_queue_len"`
	CycleThroughput      float32                        `json:"cycle_throughput"`
	ReqThroughput        float32                        `json:"req_throughput"`
	RowThroughput        float32                        `json:"row_throughput"`
	MeanCycleTimeMs      float32                        `json:"mean_cycle_time_ms"`
	MeanRespTimeMs       float32                        `json:"mean_resp_time_ms"`
	CycleTimePercentiles [stats.NumPercentiles]float32  `json:"cycle_time_percentiles"`
	RespTimePercentiles  [stats.NumPercentiles]float32  `json:"resp_time_percentiles"`
	CycleTimeHistogramNs string                         `json:"cycle_time_histogram_ns"`
	RespTimeHistogramNs  string                         `json:"resp_time_histogram_ns"`
}

// MarshalJSON encodes the two histograms via the histogram package's
// compact codec so a saved report remains self-contained.
func (s Sample) MarshalJSON() ([]byte, error) {
	cycles, err := histogram.Encode(s.CycleTimeHistogramNs)
	if err != nil {
		return nil, err
	}
	requests, err := histogram.Encode(s.RespTimeHistogramNs)
	if err != nil {
		return nil, err
	}
	return json.Marshal(sampleJSON{
		TimeS: s.TimeS, DurationS: s.DurationS,
		CycleCount: s.CycleCount, RequestCount: s.RequestCount, ErrorCount: s.ErrorCount,
		Errors: s.Errors, RowCount: s.RowCount, MeanQueueLen: s.MeanQueueLen,
		CycleThroughput: s.CycleThroughput, ReqThroughput: s.ReqThroughput, RowThroughput: s.RowThroughput,
		MeanCycleTimeMs: s.MeanCycleTimeMs, MeanRespTimeMs: s.MeanRespTimeMs,
		CycleTimePercentiles: s.CycleTimePercentiles, RespTimePercentiles: s.RespTimePercentiles,
		CycleTimeHistogramNs: cycles, RespTimeHistogramNs: requests,
	})
}

// UnmarshalJSON reverses MarshalJSON.
func (s *Sample) UnmarshalJSON(data []byte) error {
	var j sampleJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	cycles, err := histogram.Decode(j.CycleTimeHistogramNs)
	if err != nil {
		return err
	}
	requests, err := histogram.Decode(j.RespTimeHistogramNs)
	if err != nil {
		return err
	}
	*s = Sample{
		TimeS: j.TimeS, DurationS: j.DurationS,
		CycleCount: j.CycleCount, RequestCount: j.RequestCount, ErrorCount: j.ErrorCount,
		Errors: j.Errors, RowCount: j.RowCount, MeanQueueLen: j.MeanQueueLen,
		CycleThroughput: j.CycleThroughput, ReqThroughput: j.ReqThroughput, RowThroughput: j.RowThroughput,
		MeanCycleTimeMs: j.MeanCycleTimeMs, MeanRespTimeMs: j.MeanRespTimeMs,
		CycleTimePercentiles: j.CycleTimePercentiles, RespTimePercentiles: j.RespTimePercentiles,
		CycleTimeHistogramNs: cycles, RespTimeHistogramNs: requests,
	}
	return nil
}

// newSample merges per-worker WorkloadStats collected during one
// sampling window into a single Sample. snaps must be non-empty.
func newSample(baseStartTime time.Time, snaps []workload.WorkloadStats) Sample {
	n := float32(len(snaps))

	cycleTimes := hdr.New(histMin, histMax, histSigFigs)
	respTimes := hdr.New(histMin, histMax, histSigFigs)

	var (
		cycleCount, requestCount, rowCount, errorCount uint64
		meanQueueLen, durationS                        float32
		errSet                                         = make(map[string]struct{})
	)

	for _, snap := range snaps {
		ss := snap.Session
		fs := snap.Function

		requestCount += ss.RequestCount
		rowCount += ss.RowCount
		for e := range ss.Errors {
			if len(errSet) >= maxKeptErrors {
				break
			}
			errSet[e] = struct{}{}
		}
		errorCount += ss.ErrorCount
		meanQueueLen += ss.MeanQueueLen / n
		durationS += float32(snap.EndTime.Sub(snap.StartTime).Seconds()) / n
		respTimes.Merge(ss.RespTimesNs)

		cycleCount += fs.CallCount
		cycleTimes.Merge(fs.CallTimesNs)
	}

	if math.IsNaN(float64(meanQueueLen)) {
		meanQueueLen = 0
	}

	errs := make([]string, 0, len(errSet))
	for e := range errSet {
		errs = append(errs, e)
	}

	s := Sample{
		TimeS:                float32(snaps[0].StartTime.Sub(baseStartTime).Seconds()),
		DurationS:            durationS,
		CycleCount:           cycleCount,
		RequestCount:         requestCount,
		ErrorCount:           errorCount,
		Errors:               errs,
		RowCount:             rowCount,
		MeanQueueLen:         meanQueueLen,
		CycleTimePercentiles: stats.PercentilesMs(cycleTimes),
		RespTimePercentiles:  stats.PercentilesMs(respTimes),
		CycleTimeHistogramNs: cycleTimes,
		RespTimeHistogramNs:  respTimes,
	}
	if durationS > 0 {
		s.CycleThroughput = float32(cycleCount) / durationS
		s.ReqThroughput = float32(requestCount) / durationS
		s.RowThroughput = float32(rowCount) / durationS
	}
	s.MeanCycleTimeMs = float32(cycleTimes.Mean() / 1e6)
	s.MeanRespTimeMs = float32(respTimes.Mean() / 1e6)
	return s
}

// BenchmarkStats is the final, immutable result of a benchmark run.
type BenchmarkStats struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	ElapsedTimeS float64 `json:"elapsed_time_s"`
	CPUTimeS     float64 `json:"cpu_time_s"`
	CPUUtil      float64 `json:"cpu_util"`

	CycleCount      uint64  `json:"cycle_count"`
	RequestCount    uint64  `json:"request_count"`
	RequestsPerCycle float64 `json:"requests_per_cycle"`

	Errors      []string `json:"errors"`
	ErrorCount  uint64   `json:"error_count"`
	ErrorsRatio *float64 `json:"errors_ratio,omitempty"`

	RowCount       uint64   `json:"row_count"`
	RowCountPerReq *float64 `json:"row_count_per_req,omitempty"`

	CycleThroughput      stats.Mean `json:"cycle_throughput"`
	CycleThroughputRatio *float64   `json:"cycle_throughput_ratio,omitempty"`
	ReqThroughput        stats.Mean `json:"req_throughput"`
	RowThroughput        stats.Mean `json:"row_throughput"`

	CycleTimeMs TimeDistribution  `json:"cycle_time_ms"`
	RespTimeMs  *TimeDistribution `json:"resp_time_ms,omitempty"`

	Concurrency      stats.Mean `json:"concurrency"`
	ConcurrencyRatio float64    `json:"concurrency_ratio"`

	Log []Sample `json:"log"`
}

// Recorder accumulates Samples over the lifetime of a run and produces
// the final BenchmarkStats. Owned solely by the Executor; never shared.
type Recorder struct {
	startTime    time.Time
	startCPUTime float64
	proc         *process.Process

	rateLimit        *float64
	concurrencyLimit int

	cycleCount, requestCount, rowCount, errorCount uint64
	errors                                         map[string]struct{}

	log []Sample
}

// Start begins recording. rateLimit and concurrencyLimit are used only as
// reference levels for relative throughput and relative concurrency in
// the final report; they do not affect measurement.
func Start(rateLimit *float64, concurrencyLimit int) *Recorder {
	r := &Recorder{
		startTime:        time.Now(),
		rateLimit:        rateLimit,
		concurrencyLimit: concurrencyLimit,
		errors:           make(map[string]struct{}),
	}
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		r.proc = proc
		if times, err := proc.Times(); err == nil {
			r.startCPUTime = times.Total()
		}
	}
	return r
}

// Record merges one sampling window's per-worker snapshots into a Sample,
// appends it to the log, and returns it (e.g. for progress printing).
func (r *Recorder) Record(snaps []workload.WorkloadStats) Sample {
	sample := newSample(r.startTime, snaps)
	r.cycleCount += sample.CycleCount
	r.requestCount += sample.RequestCount
	r.rowCount += sample.RowCount
	for _, e := range sample.Errors {
		if len(r.errors) >= maxKeptErrors {
			break
		}
		r.errors[e] = struct{}{}
	}
	r.errorCount += sample.ErrorCount
	r.log = append(r.log, sample)
	return sample
}

// Finish stops recording and computes the final BenchmarkStats.
func (r *Recorder) Finish() BenchmarkStats {
	endTime := time.Now()
	elapsed := endTime.Sub(r.startTime).Seconds()

	cpuTimeS := 0.0
	if r.proc != nil {
		if times, err := r.proc.Times(); err == nil {
			cpuTimeS = times.Total() - r.startCPUTime
		}
	}
	cpuUtil := 100.0 * cpuTimeS / elapsed / float64(runtime.NumCPU())

	cycleThroughput := r.meanOf(func(s Sample) float32 { return s.CycleThroughput }, r.durationWeights())
	var cycleThroughputRatio *float64
	if r.rateLimit != nil {
		v := 100.0 * cycleThroughput.Value / *r.rateLimit
		cycleThroughputRatio = &v
	}
	reqThroughput := r.meanOf(func(s Sample) float32 { return s.ReqThroughput }, r.durationWeights())
	rowThroughput := r.meanOf(func(s Sample) float32 { return s.RowThroughput }, r.durationWeights())

	concurrency := r.meanOf(func(s Sample) float32 { return s.MeanQueueLen }, r.weightsByRequestCount())
	if math.IsNaN(concurrency.Value) {
		concurrency = stats.Mean{N: 0, Value: 0}
	}
	concurrencyRatio := 100.0 * concurrency.Value / float64(r.concurrencyLimit)

	cycleTimePercentiles := make([]stats.Mean, stats.NumPercentiles)
	respTimePercentiles := make([]stats.Mean, stats.NumPercentiles)
	callWeights := r.weightsByCycleCount()
	reqWeights := r.weightsByRequestCount()
	for i := range cycleTimePercentiles {
		i := i
		cycleTimePercentiles[i] = r.meanOf(func(s Sample) float32 { return s.CycleTimePercentiles[i] }, callWeights)
		respTimePercentiles[i] = r.meanOf(func(s Sample) float32 { return s.RespTimePercentiles[i] }, reqWeights)
	}

	totalCycleHist := hdr.New(histMin, histMax, histSigFigs)
	totalRespHist := hdr.New(histMin, histMax, histSigFigs)
	for _, s := range r.log {
		totalCycleHist.Merge(s.CycleTimeHistogramNs)
		totalRespHist.Merge(s.RespTimeHistogramNs)
	}

	count := r.requestCount + r.errorCount
	errs := make([]string, 0, len(r.errors))
	for e := range r.errors {
		errs = append(errs, e)
	}

	result := BenchmarkStats{
		StartTime:        r.startTime,
		EndTime:          endTime,
		ElapsedTimeS:     elapsed,
		CPUTimeS:         cpuTimeS,
		CPUUtil:          cpuUtil,
		CycleCount:       r.cycleCount,
		RequestCount:     r.requestCount,
		RequestsPerCycle: safeDiv(float64(r.requestCount), float64(r.cycleCount)),
		Errors:           errs,
		ErrorCount:       r.errorCount,
		ErrorsRatio:      notNaN(100.0 * float64(r.errorCount) / float64(count)),
		RowCount:         r.rowCount,
		RowCountPerReq:   notNaN(float64(r.rowCount) / float64(r.requestCount)),

		CycleThroughput:      cycleThroughput,
		CycleThroughputRatio: cycleThroughputRatio,
		ReqThroughput:        reqThroughput,
		RowThroughput:        rowThroughput,

		CycleTimeMs: TimeDistribution{
			Mean:         r.meanOf(func(s Sample) float32 { return s.MeanCycleTimeMs }, callWeights),
			Percentiles:  cycleTimePercentiles,
			Distribution: distribution(totalCycleHist),
		},
		Concurrency:      concurrency,
		ConcurrencyRatio: concurrencyRatio,
		Log:              r.log,
	}

	if r.requestCount > 0 {
		result.RespTimeMs = &TimeDistribution{
			Mean:         r.meanOf(func(s Sample) float32 { return s.MeanRespTimeMs }, reqWeights),
			Percentiles:  respTimePercentiles,
			Distribution: distribution(totalRespHist),
		}
	}
	return result
}

func (r *Recorder) meanOf(f func(Sample) float32, weights []float32) stats.Mean {
	values := make([]float32, len(r.log))
	for i, s := range r.log {
		values[i] = f(s)
	}
	return stats.ComputeMean(values, weights)
}

func (r *Recorder) durationWeights() []float32 {
	w := make([]float32, len(r.log))
	for i, s := range r.log {
		w[i] = s.DurationS
	}
	return w
}

func (r *Recorder) weightsByCycleCount() []float32 {
	w := make([]float32, len(r.log))
	for i, s := range r.log {
		w[i] = float32(s.CycleCount)
	}
	return w
}

func (r *Recorder) weightsByRequestCount() []float32 {
	w := make([]float32, len(r.log))
	for i, s := range r.log {
		w[i] = float32(s.RequestCount)
	}
	return w
}

// distribution walks a histogram in log-spaced value buckets (ratio
// distributionRatio, minimum step distributionMinStep ns), producing
// three rows per decade of magnitude.
func distribution(h *hdr.Histogram) []Bucket {
	var out []Bucket
	if h.TotalCount() == 0 {
		return out
	}
	brackets := h.CumulativeDistribution()
	if len(brackets) == 0 {
		return out
	}
	total := h.TotalCount()

	cumAt := func(value int64) int64 {
		var cum int64
		for _, b := range brackets {
			if b.ValueAt > value {
				break
			}
			cum = b.Count
		}
		return cum
	}

	step := float64(distributionMinStep)
	maxValue := float64(h.Max())
	var lastCum int64
	for v := step; v <= maxValue*distributionRatio; v *= distributionRatio {
		value := int64(v)
		cum := cumAt(value)
		out = append(out, Bucket{
			Percentile:      100.0 * float64(cum) / float64(total),
			DurationMs:      v / 1e6,
			Count:           cum - lastCum,
			CumulativeCount: cum,
		})
		lastCum = cum
		if cum >= total {
			break
		}
	}
	return out
}

func notNaN(x float64) *float64 {
	if math.IsNaN(x) {
		return nil
	}
	return &x
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
