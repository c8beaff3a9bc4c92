// Package config defines the CLI-facing configuration structs shared
// between the cobra command tree and the Report persisted to disk.
package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/latte-bench/floodrpc/internal/interval"
)

// DefaultRPCURL is used when neither --rpc-url nor HTTP_PROVIDER_URL is
// set.
const DefaultRPCURL = "http://127.0.0.1:8545"

// RpcCommand holds the parsed configuration for the "rpc" subcommand. It
// is also embedded verbatim in a saved Report, so later "show"/"plot"
// invocations can display exactly what a run was configured with.
type RpcCommand struct {
	RPCURL  string `json:"rpc_url"`
	Call    string `json:"call"`
	Params  string `json:"params"`
	Threads int    `json:"threads"`

	Concurrency int      `json:"concurrency"`
	Rate        *float64 `json:"rate,omitempty"`

	WarmupDuration    string `json:"warmup_duration"`
	RunDuration       string `json:"run_duration"`
	SamplingInterval  string `json:"sampling_interval"`

	Tags        []string `json:"tags,omitempty"`
	ClusterName string   `json:"cluster_name,omitempty"`
	ChainID     string   `json:"chain_id,omitempty"`

	Output    string `json:"output,omitempty"`
	Quiet     bool   `json:"quiet"`
	Baseline  string `json:"baseline,omitempty"`
	Timestamp bool   `json:"timestamp"`

	StartTime time.Time `json:"start_time"`
}

// Validate checks field-level invariants that cobra's flag parser cannot
// express: tags must not contain characters that would break the "hdr"
// tag-prefix format or the output filename.
func (c RpcCommand) Validate() error {
	for _, tag := range c.Tags {
		if strings.ContainsAny(tag, ", \t\n") {
			return fmt.Errorf("invalid tag %q: tags must not contain commas or whitespace", tag)
		}
	}
	if c.Threads < 1 {
		return fmt.Errorf("--threads must be at least 1, got %d", c.Threads)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("--concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.Rate != nil && *c.Rate <= 0 {
		return fmt.Errorf("--rate must be positive when set, got %v", *c.Rate)
	}
	return nil
}

// Intervals parses the three interval-valued flags.
func (c RpcCommand) Intervals() (warmup, run, sampling interval.Interval, err error) {
	if warmup, err = interval.Parse(c.WarmupDuration); err != nil {
		return
	}
	if run, err = interval.Parse(c.RunDuration); err != nil {
		return
	}
	sampling, err = interval.Parse(c.SamplingInterval)
	return
}

// ParseParams decodes the --params flag (a JSON array or object) into the
// value used as the JSON-RPC request's params.
func (c RpcCommand) ParseParams() (any, error) {
	if strings.TrimSpace(c.Params) == "" {
		return []any{}, nil
	}
	var params any
	if err := json.Unmarshal([]byte(c.Params), &params); err != nil {
		return nil, fmt.Errorf("--params: invalid JSON: %w", err)
	}
	return params, nil
}

// SetStartTimeIfEmpty stamps StartTime with the current time if it has
// not already been set, mirroring the original's "timestamp this config
// the first time it's used" behavior so a later Clone/Report round-trip
// doesn't drift.
func (c RpcCommand) SetStartTimeIfEmpty(now time.Time) RpcCommand {
	if c.StartTime.IsZero() {
		c.StartTime = now
	}
	return c
}

// OutputFileName derives a default report filename from the configured
// tags and, when Timestamp is set, the run's start time, used whenever
// --output was not supplied explicitly.
func (c RpcCommand) OutputFileName() string {
	name := "rpc"
	if len(c.Tags) > 0 {
		name = strings.Join(c.Tags, "-")
	}
	if c.Timestamp {
		name = fmt.Sprintf("%s.%s", name, c.StartTime.Format("20060102.150405"))
	}
	return name + ".json"
}

// HdrCommand holds the parsed configuration for the "hdr" subcommand.
type HdrCommand struct {
	Report string
	Tag    string
	Output string
}

// ShowCommand holds the parsed configuration for the "show" subcommand.
type ShowCommand struct {
	Report   string
	Baseline string
}

// PlotCommand holds the parsed configuration for the "plot" subcommand.
type PlotCommand struct {
	Reports     []string
	Percentiles []float64
	Throughput  bool
	Output      string
}
