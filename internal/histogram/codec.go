// Package histogram provides a compact serialization of HDR histograms,
// used to embed them in saved reports and in the interval logs written
// by the hdr subcommand. The payload format is private to floodrpc:
// only this package's Decode reads it back.
package histogram

import (
	"bytes"
	"compress/flate"
	"encoding/base64"
	"encoding/gob"
	"fmt"
	"io"

	hdr "github.com/HdrHistogram/hdrhistogram-go"
)

// snapshot is the minimal set of fields needed to reconstruct a histogram
// exactly: its configured range/precision plus its recorded counts,
// obtained by walking the recorded bar values rather than depending on
// the library's own binary wire format (which this package intentionally
// does not replicate — only round-trip stability within floodrpc itself
// is required).
const (
	histMinDefault     = 1
	histMaxDefault     = 3600000000000
	histSigFigsDefault = 3
)

type snapshot struct {
	LowestDiscernible int64
	HighestTrackable  int64
	SigFigs           int64
	Values            []int64
	Counts            []int64
}

// Encode serializes a histogram to a compact, standard (padded) base64
// string: a gob-encoded snapshot, deflate-compressed.
func Encode(h *hdr.Histogram) (string, error) {
	snap := toSnapshot(h)

	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(snap); err != nil {
		return "", fmt.Errorf("histogram encode: %w", err)
	}

	var compressed bytes.Buffer
	w, err := flate.NewWriter(&compressed, flate.BestCompression)
	if err != nil {
		return "", fmt.Errorf("histogram encode: %w", err)
	}
	if _, err := w.Write(raw.Bytes()); err != nil {
		return "", fmt.Errorf("histogram encode: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("histogram encode: %w", err)
	}

	return base64.StdEncoding.EncodeToString(compressed.Bytes()), nil
}

// Decode reverses Encode, reconstructing an equivalent histogram (same
// range, precision and recorded values; not necessarily the same
// internal bucket layout as the original process).
func Decode(encoded string) (*hdr.Histogram, error) {
	compressed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("histogram decode: bad base64: %w", err)
	}

	r := flate.NewReader(bytes.NewReader(compressed))
	defer r.Close()
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("histogram decode: %w", err)
	}

	var snap snapshot
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&snap); err != nil {
		return nil, fmt.Errorf("histogram decode: %w", err)
	}

	return fromSnapshot(snap), nil
}

func toSnapshot(h *hdr.Histogram) snapshot {
	if h == nil {
		return snapshot{LowestDiscernible: histMinDefault, HighestTrackable: histMaxDefault, SigFigs: histSigFigsDefault}
	}
	snap := snapshot{
		LowestDiscernible: h.LowestTrackableValue(),
		HighestTrackable:  h.HighestTrackableValue(),
		SigFigs:           h.SignificantFigures(),
	}
	for _, bar := range h.Distribution() {
		if bar.Count == 0 {
			continue
		}
		snap.Values = append(snap.Values, bar.To)
		snap.Counts = append(snap.Counts, bar.Count)
	}
	return snap
}

func fromSnapshot(snap snapshot) *hdr.Histogram {
	h := hdr.New(snap.LowestDiscernible, snap.HighestTrackable, int(snap.SigFigs))
	for i, v := range snap.Values {
		h.RecordValues(v, snap.Counts[i])
	}
	return h
}
