package histogram_test

import (
	"testing"

	hdr "github.com/HdrHistogram/hdrhistogram-go"

	"github.com/latte-bench/floodrpc/internal/histogram"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	h := hdr.New(1, 3600000000, 3)
	for _, v := range []int64{100, 200, 200, 5000, 123456} {
		if err := h.RecordValue(v); err != nil {
			t.Fatalf("RecordValue: %v", err)
		}
	}

	encoded, err := histogram.Encode(h)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if encoded == "" {
		t.Fatal("expected non-empty encoded string")
	}

	decoded, err := histogram.Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if decoded.TotalCount() != h.TotalCount() {
		t.Fatalf("total count = %d, want %d", decoded.TotalCount(), h.TotalCount())
	}
	for _, q := range []float64{50, 90, 99} {
		if decoded.ValueAtQuantile(q) != h.ValueAtQuantile(q) {
			t.Fatalf("quantile %v mismatch: got %d want %d", q, decoded.ValueAtQuantile(q), h.ValueAtQuantile(q))
		}
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := histogram.Decode("not-valid-base64!!"); err == nil {
		t.Fatal("expected an error decoding garbage input")
	}
}

func TestEncodeEmptyHistogram(t *testing.T) {
	h := hdr.New(1, 3600000000, 3)
	encoded, err := histogram.Encode(h)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := histogram.Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.TotalCount() != 0 {
		t.Fatalf("expected empty histogram, got %d entries", decoded.TotalCount())
	}
}
