package config_test

import (
	"testing"
	"time"

	"github.com/latte-bench/floodrpc/internal/config"
)

func TestValidateRejectsTagsWithWhitespace(t *testing.T) {
	c := config.RpcCommand{Threads: 1, Concurrency: 1, Tags: []string{"bad tag"}}
	if err := c.Validate(); err == nil {
		t.Fatal("expected an error for a tag containing whitespace")
	}
}

func TestValidateRejectsZeroThreadsOrConcurrency(t *testing.T) {
	c := config.RpcCommand{Threads: 0, Concurrency: 1}
	if err := c.Validate(); err == nil {
		t.Fatal("expected an error for zero threads")
	}
	c = config.RpcCommand{Threads: 1, Concurrency: 0}
	if err := c.Validate(); err == nil {
		t.Fatal("expected an error for zero concurrency")
	}
}

func TestIntervalsParsesAllThreeFields(t *testing.T) {
	c := config.RpcCommand{WarmupDuration: "0", RunDuration: "30s", SamplingInterval: "1000"}
	warmup, run, sampling, err := c.Intervals()
	if err != nil {
		t.Fatalf("Intervals: %v", err)
	}
	if !warmup.IsZero() {
		t.Fatal("expected zero warmup")
	}
	if d, ok := run.Duration(); !ok || d != 30*time.Second {
		t.Fatalf("expected 30s run duration, got %v (ok=%v)", d, ok)
	}
	if n, ok := sampling.Cycles(); !ok || n != 1000 {
		t.Fatalf("expected 1000-cycle sampling interval, got %v (ok=%v)", n, ok)
	}
}

func TestParseParamsEmptyYieldsEmptyArray(t *testing.T) {
	c := config.RpcCommand{Params: ""}
	params, err := c.ParseParams()
	if err != nil {
		t.Fatalf("ParseParams: %v", err)
	}
	arr, ok := params.([]any)
	if !ok || len(arr) != 0 {
		t.Fatalf("expected an empty slice, got %#v", params)
	}
}

func TestParseParamsRejectsInvalidJSON(t *testing.T) {
	c := config.RpcCommand{Params: "{not json"}
	if _, err := c.ParseParams(); err == nil {
		t.Fatal("expected an error for invalid JSON params")
	}
}

func TestOutputFileNameUsesTags(t *testing.T) {
	c := config.RpcCommand{Tags: []string{"baseline", "v2"}}
	if got := c.OutputFileName(); got != "baseline-v2.json" {
		t.Fatalf("output file name = %q, want baseline-v2.json", got)
	}
}

func TestSetStartTimeIfEmptyOnlySetsOnce(t *testing.T) {
	fixed := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	c := config.RpcCommand{StartTime: fixed}
	c = c.SetStartTimeIfEmpty(time.Now())
	if !c.StartTime.Equal(fixed) {
		t.Fatalf("expected existing StartTime to be preserved, got %v", c.StartTime)
	}
}
