package stats

import (
	"math/rand"

	hdr "github.com/HdrHistogram/hdrhistogram-go"
)

// Bootstrap draws random samples from the empirical distribution recorded
// in an HDR histogram, weighted by how often each bucket's highest-equivalent
// value was observed. Used only by validation and test harnesses, never by
// the live measurement path.
type Bootstrap struct {
	values      []int64
	cumWeights  []int64
	totalWeight int64
	rng         *rand.Rand
}

// NewBootstrap builds a Bootstrap sampler from a recorded histogram.
func NewBootstrap(h *hdr.Histogram) *Bootstrap {
	b := &Bootstrap{rng: rand.New(rand.NewSource(rand.Int63()))}
	var prevCum int64
	for _, bar := range h.CumulativeDistribution() {
		// bar.Count is already cumulative (the count of all recorded
		// values <= bar.ValueAt); skip brackets with no new mass.
		if bar.Count <= prevCum {
			continue
		}
		b.values = append(b.values, bar.ValueAt)
		b.cumWeights = append(b.cumWeights, bar.Count)
		prevCum = bar.Count
	}
	b.totalWeight = prevCum
	return b
}

// Sample draws one value from the weighted empirical distribution.
func (b *Bootstrap) Sample() int64 {
	if b.totalWeight <= 0 {
		return 0
	}
	target := b.rng.Int63n(b.totalWeight) + 1
	lo, hi := 0, len(b.cumWeights)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if b.cumWeights[mid] < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return b.values[lo]
}
