package progress_test

import (
	"strings"
	"testing"
	"time"

	"github.com/latte-bench/floodrpc/internal/progress"
)

func TestWithCountReaches100Percent(t *testing.T) {
	p := progress.WithCount("Running...", 10)
	for i := 0; i < 10; i++ {
		p.Tick()
	}
	s := p.String()
	if !strings.Contains(s, "100.0%") {
		t.Fatalf("expected 100%% at count bound, got: %q", s)
	}
	if !strings.Contains(s, "10/10") {
		t.Fatalf("expected 10/10 progress, got: %q", s)
	}
}

func TestWithCountClampsOverflow(t *testing.T) {
	p := progress.WithCount("x", 5)
	for i := 0; i < 50; i++ {
		p.Tick()
	}
	s := p.String()
	if !strings.Contains(s, "100.0%") {
		t.Fatalf("expected clamped 100%%, got: %q", s)
	}
}

func TestWithDurationNeverExceeds100Percent(t *testing.T) {
	p := progress.WithDuration("x", 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	s := p.String()
	if !strings.Contains(s, "100.0%") {
		t.Fatalf("expected clamped 100%% after deadline, got: %q", s)
	}
}
