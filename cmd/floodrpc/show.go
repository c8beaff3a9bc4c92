package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/latte-bench/floodrpc/internal/present"
	"github.com/latte-bench/floodrpc/internal/report"
)

var showBaseline string

var showCmd = &cobra.Command{
	Use:   "show <report.json>",
	Short: "Display a saved report, optionally compared against a baseline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := report.Load(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: failed to read report from %s: %v\n", args[0], err)
			os.Exit(1)
		}

		p := present.New(r.Config, r.Result)
		if showBaseline != "" {
			base, err := report.Load(showBaseline)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: failed to read report from %s: %v\n", showBaseline, err)
				os.Exit(1)
			}
			p = present.NewComparison(base.Config, base.Result, r.Config, r.Result)
		}
		return p.Write(os.Stdout)
	},
}

func init() {
	showCmd.Flags().StringVar(&showBaseline, "baseline", "", "path to a second report for comparison")
}
