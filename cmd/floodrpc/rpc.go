package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/latte-bench/floodrpc/internal/config"
	"github.com/latte-bench/floodrpc/internal/executor"
	"github.com/latte-bench/floodrpc/internal/interrupt"
	"github.com/latte-bench/floodrpc/internal/present"
	"github.com/latte-bench/floodrpc/internal/report"
	"github.com/latte-bench/floodrpc/internal/transport"
	"github.com/latte-bench/floodrpc/internal/workload"
)

// ErrInterrupted is returned by the rpc command when the user presses
// Ctrl-C during warmup or the measured run.
var ErrInterrupted = errors.New("interrupted")

var rpcConf config.RpcCommand
var rpcRateFlag float64
var rpcHasRate bool

var rpcCmd = &cobra.Command{
	Use:   "rpc",
	Short: "Run a JSON-RPC benchmark",
	RunE: func(cmd *cobra.Command, args []string) error {
		if rpcHasRate && rpcRateFlag != 0 {
			rpcConf.Rate = &rpcRateFlag
		}
		rpcConf.Quiet = quiet
		rpcConf = rpcConf.SetStartTimeIfEmpty(time.Now())

		if err := rpcConf.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(exitInvalidArgument)
		}

		if err := runRPC(rpcConf); err != nil {
			if errors.Is(err, ErrInterrupted) {
				os.Exit(exitInterrupted)
			}
			return err
		}
		return nil
	},
}

func init() {
	f := rpcCmd.Flags()
	f.StringVar(&rpcConf.RPCURL, "rpc-url", "", "JSON-RPC endpoint URL (falls back to HTTP_PROVIDER_URL, then "+config.DefaultRPCURL+")")
	f.StringVar(&rpcConf.Call, "call", "", "JSON-RPC method to call (required)")
	f.StringVar(&rpcConf.Params, "params", "", "JSON array or object of call parameters")
	f.IntVar(&rpcConf.Threads, "threads", 1, "number of worker goroutines, each with its own share of --rate")
	f.IntVar(&rpcConf.Concurrency, "concurrency", 1, "number of concurrent in-flight requests")
	f.Float64Var(&rpcRateFlag, "rate", 0, "maximum aggregate cycle rate in ops/sec (0 = unbounded)")
	f.StringVar(&rpcConf.WarmupDuration, "warmup-duration", "0", "warmup interval: cycle count or duration like 30s")
	f.StringVar(&rpcConf.RunDuration, "run-duration", "30s", "run interval: cycle count or duration like 30s")
	f.StringVar(&rpcConf.SamplingInterval, "sampling-interval", "1s", "sampling interval: cycle count or duration like 1s")
	f.StringArrayVar(&rpcConf.Tags, "tag", nil, "tag to attach to this run (repeatable)")
	f.StringVar(&rpcConf.ClusterName, "cluster-name", "", "override the cluster name recorded in the report")
	f.StringVar(&rpcConf.ChainID, "chain-id", "", "override the chain id recorded in the report")
	f.StringVarP(&rpcConf.Output, "output", "o", "", "report output file (default: derived from tags)")
	f.BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")
	f.StringVar(&rpcConf.Baseline, "baseline", "", "path to a report to compare this run against")
	f.BoolVar(&rpcConf.Timestamp, "timestamp", false, "stamp the default output filename with the run's start time")

	rpcCmd.PreRun = func(cmd *cobra.Command, args []string) {
		rpcHasRate = cmd.Flags().Changed("rate")
	}
}

func runRPC(conf config.RpcCommand) error {
	var baseline *report.Report
	if conf.Baseline != "" {
		r, err := report.Load(conf.Baseline)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: failed to read baseline report: %v\n", err)
			os.Exit(1)
		}
		baseline = &r
	}

	url := conf.RPCURL
	if url == "" {
		if envURL := os.Getenv("HTTP_PROVIDER_URL"); envURL != "" {
			url = envURL
		} else {
			url = config.DefaultRPCURL
		}
	}
	log.Info().Str("url", url).Msg("connecting")

	t := transport.NewHTTPTransport(url, 30*time.Second)
	ctx := context.Background()
	if chainID, err := t.ChainID(ctx); err == nil {
		log.Info().Str("chain_id", chainID).Msg("connected")
		if conf.ClusterName == "" {
			conf.ClusterName = chainID
		}
	} else {
		log.Warn().Err(err).Msg("could not determine chain id")
	}

	params, err := conf.ParseParams()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitInvalidArgument)
	}

	w := workload.New(t, workload.Request{Method: conf.Call, Params: params})
	interruptHandler := interrupt.Install()

	warmup, run, sampling, err := conf.Intervals()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitInvalidArgument)
	}

	exec := executor.New(executor.Options{
		Threads:     conf.Threads,
		Concurrency: conf.Concurrency,
		Warmup:      warmup,
		Duration:    run,
		Sampling:    sampling,
		RateLimit:   conf.Rate,
	}, w)

	if !conf.Quiet {
		log.Info().Msg("running benchmark")
	}

	result, err := exec.Run(ctx)
	if err != nil {
		return fmt.Errorf("benchmark run failed: %w", err)
	}
	if interruptHandler.IsInterrupted() {
		return ErrInterrupted
	}

	p := present.New(conf, result)
	if baseline != nil {
		p = present.NewComparison(baseline.Config, baseline.Result, conf, result)
	}
	_ = p.Write(os.Stdout)

	path := conf.Output
	if path == "" {
		path = conf.OutputFileName()
	}
	r := report.New(conf, result)
	if err := r.Save(path); err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to save report to %s: %v\n", path, err)
		os.Exit(1)
	}
	log.Info().Str("path", path).Msg("saved report")
	return nil
}
