package stats

import hdr "github.com/HdrHistogram/hdrhistogram-go"

// Percentile enumerates the fifteen fixed points at which response-time and
// cycle-time distributions are reported, in ascending order.
type Percentile int

const (
	PMin Percentile = iota
	P1
	P2
	P5
	P10
	P25
	P50
	P75
	P90
	P95
	P98
	P99
	P99_9
	P99_99
	PMax
	percentileCount
)

// NumPercentiles is the fixed width of every percentile vector (15).
const NumPercentiles = int(percentileCount)

// Percentiles lists all percentile points in display order.
func Percentiles() []Percentile {
	out := make([]Percentile, percentileCount)
	for i := range out {
		out[i] = Percentile(i)
	}
	return out
}

// Value returns the quantile, expressed as a percentage in [0, 100].
func (p Percentile) Value() float64 {
	switch p {
	case PMin:
		return 0.0
	case P1:
		return 1.0
	case P2:
		return 2.0
	case P5:
		return 5.0
	case P10:
		return 10.0
	case P25:
		return 25.0
	case P50:
		return 50.0
	case P75:
		return 75.0
	case P90:
		return 90.0
	case P95:
		return 95.0
	case P98:
		return 98.0
	case P99:
		return 99.0
	case P99_9:
		return 99.9
	case P99_99:
		return 99.99
	default: // PMax
		return 100.0
	}
}

// Label returns a human-readable column header for tables.
func (p Percentile) Label() string {
	switch p {
	case PMin:
		return "Min"
	case P1:
		return "P1"
	case P2:
		return "P2"
	case P5:
		return "P5"
	case P10:
		return "P10"
	case P25:
		return "P25"
	case P50:
		return "P50"
	case P75:
		return "P75"
	case P90:
		return "P90"
	case P95:
		return "P95"
	case P98:
		return "P98"
	case P99:
		return "P99"
	case P99_9:
		return "P99.9"
	case P99_99:
		return "P99.99"
	default:
		return "Max"
	}
}

// PercentilesMs reads all NumPercentiles points from hist (in nanoseconds)
// and converts each to milliseconds.
func PercentilesMs(hist *hdr.Histogram) [NumPercentiles]float32 {
	var out [NumPercentiles]float32
	for i, p := range Percentiles() {
		out[i] = float32(hist.ValueAtQuantile(p.Value())) / 1e6
	}
	return out
}
