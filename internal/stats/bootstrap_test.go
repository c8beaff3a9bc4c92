package stats_test

import (
	"testing"

	hdr "github.com/HdrHistogram/hdrhistogram-go"

	"github.com/latte-bench/floodrpc/internal/stats"
)

func TestBootstrapSamplesOnlyRecordedValues(t *testing.T) {
	h := hdr.New(1, 100000, 3)
	recorded := map[int64]bool{100: true, 500: true, 900: true}
	for v := range recorded {
		for i := 0; i < 100; i++ {
			h.RecordValue(v)
		}
	}

	b := stats.NewBootstrap(h)
	for i := 0; i < 1000; i++ {
		v := b.Sample()
		found := false
		for r := range recorded {
			// HDR histograms bucket values, so an exact match isn't
			// guaranteed; require the sample to land close to a
			// recorded value.
			diff := v - r
			if diff < 0 {
				diff = -diff
			}
			if diff < 50 {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("sampled value %d does not correspond to any recorded value", v)
		}
	}
}

func TestBootstrapEmptyHistogramReturnsZero(t *testing.T) {
	h := hdr.New(1, 100000, 3)
	b := stats.NewBootstrap(h)
	if v := b.Sample(); v != 0 {
		t.Fatalf("expected 0 from an empty histogram, got %d", v)
	}
}
