package histogram_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/latte-bench/floodrpc/internal/histogram"
)

func TestWriteIntervalLogContainsHeaderAndEntries(t *testing.T) {
	var buf bytes.Buffer
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	entries := []histogram.IntervalEntry{
		{Tag: "cycles", StartTime: 0, Duration: time.Second, EncodedMax: "abc123"},
		{Tag: "bad tag,name", StartTime: time.Second, Duration: time.Second, EncodedMax: "def456"},
	}
	if err := histogram.WriteIntervalLog(&buf, "test log", start, entries); err != nil {
		t.Fatalf("WriteIntervalLog: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "#[test log]\n") {
		t.Fatalf("expected comment header, got: %q", out)
	}
	if !strings.Contains(out, "Tag=cycles,0.000,1.000,abc123") {
		t.Fatalf("missing cycles entry, got: %q", out)
	}
	if strings.Contains(out, "bad tag,name") {
		t.Fatal("tag should have been sanitized to remove commas/spaces")
	}
	if !strings.Contains(out, "Tag=bad_tag_name,1.000,1.000,def456") {
		t.Fatalf("expected sanitized tag line, got: %q", out)
	}
}
