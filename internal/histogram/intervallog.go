package histogram

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// WriteIntervalLog writes a text-based HDR interval log in the classic
// "Tag=..." line format used by HdrHistogram log processors: a handful of
// '#'-prefixed comment/metadata lines followed by one data line per
// (tag, interval) pair:
//
//	Tag=<tag>,<StartTimestampSec>,<IntervalLengthSec>,<payload>
//
// The payload is produced by this package's own Encode, not the upstream
// V2 deflate wire format — only round-trips through floodrpc's own Decode
// are guaranteed. Lines carry no max-value field.
type IntervalEntry struct {
	Tag        string
	StartTime  time.Duration
	Duration   time.Duration
	EncodedMax string
}

// WriteIntervalLog writes entries to w, preceded by comment and start/base
// time headers. startTime is the wall-clock instant interval offsets are
// relative to.
func WriteIntervalLog(w io.Writer, comment string, startTime time.Time, entries []IntervalEntry) error {
	lines := []string{
		fmt.Sprintf("#[%s]", comment),
		fmt.Sprintf("#[StartTime: %.3f (seconds since epoch)]", float64(startTime.UnixNano())/1e9),
		fmt.Sprintf("#[BaseTime: %.3f (seconds since epoch)]", float64(startTime.UnixNano())/1e9),
		"#[MaxValueDivisor: 1000000.000000]",
	}
	for _, line := range lines {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	for _, e := range entries {
		line := fmt.Sprintf("Tag=%s,%.3f,%.3f,%s\n",
			sanitizeTag(e.Tag),
			e.StartTime.Seconds(),
			e.Duration.Seconds(),
			e.EncodedMax,
		)
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}
	return nil
}

// sanitizeTag strips characters the interval log format reserves as field
// separators (commas and whitespace) from a tag value.
func sanitizeTag(tag string) string {
	r := strings.NewReplacer(",", "_", " ", "_", "\t", "_", "\n", "_")
	return r.Replace(tag)
}
