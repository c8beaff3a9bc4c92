// Package report holds the saved result of a benchmark run: the
// configuration it ran with, the percentile labels used, and the
// computed BenchmarkStats, loadable back from and savable to JSON.
package report

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/latte-bench/floodrpc/internal/config"
	"github.com/latte-bench/floodrpc/internal/recorder"
	"github.com/latte-bench/floodrpc/internal/stats"
)

// Report is the full saved artifact of one "rpc" run.
type Report struct {
	Config      config.RpcCommand        `json:"conf"`
	Percentiles []float64                `json:"percentiles"`
	Result      recorder.BenchmarkStats  `json:"result"`
}

// New builds a Report from a completed run's configuration and stats,
// recording the percentile set in effect at the time (so historical
// reports remain self-describing even if the percentile list changes).
func New(conf config.RpcCommand, result recorder.BenchmarkStats) Report {
	percentiles := make([]float64, 0, stats.NumPercentiles)
	for _, p := range stats.Percentiles() {
		percentiles = append(percentiles, p.Value())
	}
	return Report{Config: conf, Percentiles: percentiles, Result: result}
}

// Load reads a Report from a JSON file.
func Load(path string) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return Report{}, fmt.Errorf("report load %s: %w", path, err)
	}
	defer f.Close()

	var r Report
	if err := json.NewDecoder(f).Decode(&r); err != nil {
		return Report{}, fmt.Errorf("report load %s: %w", path, err)
	}
	return r, nil
}

// Save writes the Report as pretty-printed JSON to path.
func (r Report) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report save %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("report save %s: %w", path, err)
	}
	return nil
}
