package report_test

import (
	"path/filepath"
	"testing"
	"time"

	hdr "github.com/HdrHistogram/hdrhistogram-go"

	"github.com/latte-bench/floodrpc/internal/config"
	"github.com/latte-bench/floodrpc/internal/recorder"
	"github.com/latte-bench/floodrpc/internal/report"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	cycleHist := hdr.New(1, 3600000000000, 3)
	cycleHist.RecordValue(1000)
	respHist := hdr.New(1, 3600000000000, 3)
	respHist.RecordValue(2000)

	result := recorder.BenchmarkStats{
		StartTime:    time.Now(),
		EndTime:      time.Now(),
		CycleCount:   100,
		RequestCount: 100,
		Log: []recorder.Sample{
			{
				TimeS: 0, DurationS: 1,
				CycleCount: 100, RequestCount: 100,
				CycleTimeHistogramNs: cycleHist,
				RespTimeHistogramNs:  respHist,
			},
		},
	}
	conf := config.RpcCommand{Call: "eth_blockNumber", Threads: 1, Concurrency: 1}
	r := report.New(conf, result)

	path := filepath.Join(t.TempDir(), "report.json")
	if err := r.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := report.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Config.Call != "eth_blockNumber" {
		t.Fatalf("loaded call = %q, want eth_blockNumber", loaded.Config.Call)
	}
	if loaded.Result.CycleCount != 100 {
		t.Fatalf("loaded cycle count = %d, want 100", loaded.Result.CycleCount)
	}
	if len(loaded.Result.Log) != 1 {
		t.Fatalf("expected one log sample, got %d", len(loaded.Result.Log))
	}
	if loaded.Result.Log[0].CycleTimeHistogramNs.TotalCount() != 1 {
		t.Fatal("expected the cycle histogram to survive the JSON round trip")
	}
	if len(loaded.Percentiles) == 0 {
		t.Fatal("expected a non-empty percentile list")
	}
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	if _, err := report.Load("/nonexistent/report.json"); err == nil {
		t.Fatal("expected an error loading a missing file")
	}
}
