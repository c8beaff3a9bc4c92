package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/latte-bench/floodrpc/internal/histogram"
	"github.com/latte-bench/floodrpc/internal/report"
)

const exitInvalidTag = exitInvalidArgument

var hdrTag string
var hdrOutput string

var hdrCmd = &cobra.Command{
	Use:   "hdr <report.json>",
	Short: "Export a report's histograms as an HDR interval log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.ContainsAny(hdrTag, ", \t\n") {
			fmt.Fprintln(os.Stderr, "error: hdr tags must not contain commas or whitespace")
			os.Exit(exitInvalidTag)
		}
		tagPrefix := ""
		if hdrTag != "" {
			tagPrefix = hdrTag + "."
		}

		r, err := report.Load(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: failed to read report from %s: %v\n", args[0], err)
			os.Exit(1)
		}

		var out io.Writer = os.Stdout
		if hdrOutput != "" {
			f, err := os.Create(hdrOutput)
			if err != nil {
				return fmt.Errorf("creating output file %s: %w", hdrOutput, err)
			}
			defer f.Close()
			out = f
		}

		var entries []histogram.IntervalEntry
		for _, sample := range r.Result.Log {
			start := time.Duration(sample.TimeS * float32(time.Second))
			dur := time.Duration(sample.DurationS * float32(time.Second))

			cycles, err := histogram.Encode(sample.CycleTimeHistogramNs)
			if err != nil {
				return fmt.Errorf("encoding cycle histogram: %w", err)
			}
			entries = append(entries, histogram.IntervalEntry{
				Tag: tagPrefix + "cycles", StartTime: start, Duration: dur, EncodedMax: cycles,
			})

			requests, err := histogram.Encode(sample.RespTimeHistogramNs)
			if err != nil {
				return fmt.Errorf("encoding response histogram: %w", err)
			}
			entries = append(entries, histogram.IntervalEntry{
				Tag: tagPrefix + "requests", StartTime: start, Duration: dur, EncodedMax: requests,
			})
		}

		return histogram.WriteIntervalLog(out, "Logged with floodrpc", r.Result.StartTime, entries)
	},
}

func init() {
	hdrCmd.Flags().StringVar(&hdrTag, "tag", "", "prefix applied to exported histogram tags")
	hdrCmd.Flags().StringVarP(&hdrOutput, "output", "o", "", "output file (default: stdout)")
}
