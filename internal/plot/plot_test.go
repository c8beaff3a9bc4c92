package plot_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/latte-bench/floodrpc/internal/plot"
	"github.com/latte-bench/floodrpc/internal/recorder"
	"github.com/latte-bench/floodrpc/internal/stats"
)

func TestSeriesFromReportThroughput(t *testing.T) {
	result := recorder.BenchmarkStats{
		Log: []recorder.Sample{
			{TimeS: 0, ReqThroughput: 100},
			{TimeS: 1, ReqThroughput: 120},
		},
	}
	s := plot.SeriesFromReport("run-a", result, plot.Options{Throughput: true})
	if len(s.Data) != 2 {
		t.Fatalf("expected 2 points, got %d", len(s.Data))
	}
	if s.Data[1].Y != 120 {
		t.Fatalf("expected second point y=120, got %v", s.Data[1].Y)
	}
}

func TestWriteProducesValidSVG(t *testing.T) {
	result := recorder.BenchmarkStats{
		Log: []recorder.Sample{
			{TimeS: 0, RespTimePercentiles: [stats.NumPercentiles]float32{1: 5}},
			{TimeS: 1, RespTimePercentiles: [stats.NumPercentiles]float32{1: 7}},
		},
	}
	s := plot.SeriesFromReport("run-a", result, plot.Options{Percentile: stats.P1})

	var buf bytes.Buffer
	if err := plot.Write(&buf, "latency", "response time [ms]", []plot.Series{s}, false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "<svg") || !strings.Contains(out, "</svg>") {
		t.Fatalf("expected well-formed svg output, got: %q", out)
	}
}
