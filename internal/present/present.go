// Package present renders a Report (or a pair of Reports, for
// comparison) as plain text: a configuration summary, a throughput and
// error summary, and a percentile table. The log-bucketed distribution
// stored in a report is not printed.
package present

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/latte-bench/floodrpc/internal/config"
	"github.com/latte-bench/floodrpc/internal/recorder"
	"github.com/latte-bench/floodrpc/internal/stats"
)

const sectionWidth = 100

// Presenter writes a Report (with an optional baseline for comparison)
// to an io.Writer as a human-readable summary.
type Presenter struct {
	v1, v2 *config.RpcCommand
	r1, r2 *recorder.BenchmarkStats
}

// New creates a Presenter for a single report.
func New(conf config.RpcCommand, result recorder.BenchmarkStats) *Presenter {
	return &Presenter{v1: &conf, r1: &result}
}

// NewComparison creates a Presenter for two reports side by side, with
// statistical-significance columns.
func NewComparison(conf1 config.RpcCommand, result1 recorder.BenchmarkStats, conf2 config.RpcCommand, result2 recorder.BenchmarkStats) *Presenter {
	return &Presenter{v1: &conf1, r1: &result1, v2: &conf2, r2: &result2}
}

// Write renders the full report to w.
func (p *Presenter) Write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	p.writeSectionHeader(tw, "CONFIG")
	fmt.Fprintf(tw, "Call:\t%s\n", p.v1.Call)
	fmt.Fprintf(tw, "Threads:\t%d\n", p.v1.Threads)
	fmt.Fprintf(tw, "Concurrency:\t%d\n", p.v1.Concurrency)
	if p.v1.Rate != nil {
		fmt.Fprintf(tw, "Max rate:\t%.1f op/s\n", *p.v1.Rate)
	} else {
		fmt.Fprintf(tw, "Max rate:\tunbounded\n")
	}
	if len(p.v1.Tags) > 0 {
		fmt.Fprintf(tw, "Tags:\t%s\n", strings.Join(p.v1.Tags, ", "))
	}
	p.writeHorizontalRule(tw)

	p.writeSectionHeader(tw, "SUMMARY")
	p.writeLine(tw, "Cycle throughput", "op/s", p.r1.CycleThroughput, orientValueOf(p.r2, func(s *recorder.BenchmarkStats) stats.Mean { return s.CycleThroughput }))
	p.writeLine(tw, "Request throughput", "req/s", p.r1.ReqThroughput, orientValueOf(p.r2, func(s *recorder.BenchmarkStats) stats.Mean { return s.ReqThroughput }))
	p.writeLine(tw, "Row throughput", "row/s", p.r1.RowThroughput, orientValueOf(p.r2, func(s *recorder.BenchmarkStats) stats.Mean { return s.RowThroughput }))
	fmt.Fprintf(tw, "Errors:\t%d", p.r1.ErrorCount)
	if p.r1.ErrorsRatio != nil {
		fmt.Fprintf(tw, " (%.2f%%)", *p.r1.ErrorsRatio)
	}
	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "CPU utilization:\t%.1f%%\n", p.r1.CPUUtil)
	p.writeHorizontalRule(tw)

	p.writeSectionHeader(tw, "RESPONSE TIME [ms]")
	p.writePercentileTable(tw, p.r1.CycleTimeMs, orientPercentilesOf(p.r2, func(s *recorder.BenchmarkStats) *recorder.TimeDistribution { return &s.CycleTimeMs }))

	return tw.Flush()
}

func (p *Presenter) writeSectionHeader(w io.Writer, name string) {
	fmt.Fprintf(w, "%s %s\n", name, strings.Repeat("=", sectionWidth-len(name)-1))
}

func (p *Presenter) writeHorizontalRule(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("-", sectionWidth))
}

func (p *Presenter) writeLine(w io.Writer, label, unit string, v1 stats.Mean, v2 *stats.Mean) {
	if v2 == nil {
		fmt.Fprintf(w, "%s:\t%.2f %s\n", label, v1.Value, unit)
		return
	}
	change := 0.0
	if v1.Value != 0 {
		change = 100.0 * (v2.Value/v1.Value - 1.0)
	}
	sig := stats.Significance(stats.WelchTTest(v1, *v2))
	fmt.Fprintf(w, "%s:\t%.2f %s\t%.2f %s\t%+.1f%%\t%s\n", label, v1.Value, unit, v2.Value, unit, change, sig.Stars())
}

func (p *Presenter) writePercentileTable(w io.Writer, dist recorder.TimeDistribution, other *recorder.TimeDistribution) {
	fmt.Fprintf(w, "Mean:\t%.3f\n", dist.Mean.Value)
	for i, percentile := range stats.Percentiles() {
		m := dist.Percentiles[i]
		if other == nil {
			fmt.Fprintf(w, "%s:\t%.3f\n", percentile.Label(), m.Value)
			continue
		}
		o := other.Percentiles[i]
		fmt.Fprintf(w, "%s:\t%.3f\t%.3f\n", percentile.Label(), m.Value, o.Value)
	}
}

func orientValueOf(r *recorder.BenchmarkStats, f func(*recorder.BenchmarkStats) stats.Mean) *stats.Mean {
	if r == nil {
		return nil
	}
	v := f(r)
	return &v
}

func orientPercentilesOf(r *recorder.BenchmarkStats, f func(*recorder.BenchmarkStats) *recorder.TimeDistribution) *recorder.TimeDistribution {
	if r == nil {
		return nil
	}
	return f(r)
}
