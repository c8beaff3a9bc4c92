package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/latte-bench/floodrpc/internal/plot"
	"github.com/latte-bench/floodrpc/internal/report"
	"github.com/latte-bench/floodrpc/internal/stats"
)

var plotPercentiles []float64
var plotThroughput bool
var plotOutput string

var plotCmd = &cobra.Command{
	Use:   "plot <report.json>...",
	Short: "Render one or more reports as an SVG chart",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reports := make([]report.Report, 0, len(args))
		for _, path := range args {
			r, err := report.Load(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: failed to read report from %s: %v\n", path, err)
				os.Exit(1)
			}
			reports = append(reports, r)
		}

		output := plotOutput
		if output == "" {
			base := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			output = base + ".svg"
		}

		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating output file %s: %w", output, err)
		}
		defer f.Close()

		if plotThroughput {
			series := make([]plot.Series, len(reports))
			for i, r := range reports {
				series[i] = plot.SeriesFromReport(seriesLabel(args[i], r), r.Result, plot.Options{Throughput: true})
			}
			return plot.Write(f, "Throughput", "throughput [req/s]", series, false)
		}

		percentiles := plotPercentiles
		if len(percentiles) == 0 {
			percentiles = []float64{50, 99}
		}
		var series []plot.Series
		for _, pct := range percentiles {
			p := percentileFromValue(pct)
			for i, r := range reports {
				series = append(series, plot.SeriesFromReport(fmt.Sprintf("%s p%v", seriesLabel(args[i], r), pct), r.Result, plot.Options{Percentile: p}))
			}
		}
		return plot.Write(f, "Response time", "response time [ms]", series, false)
	},
}

func init() {
	plotCmd.Flags().Float64SliceVar(&plotPercentiles, "percentile", nil, "response-time percentile(s) to plot (repeatable; default 50,99)")
	plotCmd.Flags().BoolVar(&plotThroughput, "throughput", false, "plot request throughput instead of response time")
	plotCmd.Flags().StringVarP(&plotOutput, "output", "o", "", "output SVG file (default: derived from the first report's name)")
}

func seriesLabel(path string, r report.Report) string {
	if len(r.Config.Tags) > 0 {
		return strings.Join(r.Config.Tags, ",")
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func percentileFromValue(v float64) stats.Percentile {
	for _, p := range stats.Percentiles() {
		if p.Value() == v {
			return p
		}
	}
	// Fall back to the nearest defined percentile point rather than
	// silently plotting the wrong series for an unsupported value.
	best := stats.PMin
	bestDiff := math.MaxFloat64
	for _, p := range stats.Percentiles() {
		diff := math.Abs(p.Value() - v)
		if diff < bestDiff {
			bestDiff = diff
			best = p
		}
	}
	return best
}
