package interval_test

import (
	"testing"
	"time"

	"github.com/latte-bench/floodrpc/internal/interval"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in       string
		wantTime time.Duration
		wantOK   bool
		count    uint64
		countOK  bool
		unbound  bool
	}{
		{in: "30s", wantTime: 30 * time.Second, wantOK: true},
		{in: "1000", count: 1000, countOK: true},
		{in: "", unbound: true},
		{in: "unbounded", unbound: true},
	}
	for _, c := range cases {
		got, err := interval.Parse(c.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", c.in, err)
		}
		if d, ok := got.Duration(); ok != c.wantOK || (ok && d != c.wantTime) {
			t.Errorf("Parse(%q).Duration() = %v,%v want %v,%v", c.in, d, ok, c.wantTime, c.wantOK)
		}
		if n, ok := got.Cycles(); ok != c.countOK || (ok && n != c.count) {
			t.Errorf("Parse(%q).Cycles() = %v,%v want %v,%v", c.in, n, ok, c.count, c.countOK)
		}
		if got.IsUnbounded() != c.unbound {
			t.Errorf("Parse(%q).IsUnbounded() = %v want %v", c.in, got.IsUnbounded(), c.unbound)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	if _, err := interval.Parse("not-a-duration"); err == nil {
		t.Fatal("expected error for invalid interval")
	}
}

func TestIsZero(t *testing.T) {
	if !interval.Time(0).IsZero() {
		t.Error("Time(0) should be zero")
	}
	if !interval.Count(0).IsZero() {
		t.Error("Count(0) should be zero")
	}
	if interval.Unbounded().IsZero() {
		t.Error("Unbounded should never be zero")
	}
}
