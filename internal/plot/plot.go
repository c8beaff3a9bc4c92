// Package plot renders percentile and throughput time series from one or
// more Reports as an SVG chart, using github.com/ajstarks/svgo.
package plot

import (
	"fmt"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"

	"github.com/latte-bench/floodrpc/internal/recorder"
	"github.com/latte-bench/floodrpc/internal/stats"
)

const (
	width       = 900
	height      = 500
	marginLeft  = 70
	marginRight = 200
	marginTop   = 30
	marginBtm   = 50
)

var palette = []string{"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd", "#8c564b"}

// Series is one plotted line: a label and (x, y) points sorted by x.
type Series struct {
	Label string
	Color string
	Data  []Point
}

// Point is one (time_s, value) sample.
type Point struct {
	X, Y float64
}

// Options controls what Series are extracted from each report's log.
// LogScale is not read by SeriesFromReport; Write takes its own logScale
// argument.
type Options struct {
	// Percentile selects a response-time percentile series per report.
	// Ignored when Throughput is true.
	Percentile stats.Percentile
	Throughput bool
	LogScale   bool
}

// SeriesFromReport extracts one Series from a report's sample log,
// labeled with the given tag (typically derived from the report's
// filename or configured tags).
func SeriesFromReport(label string, result recorder.BenchmarkStats, opts Options) Series {
	s := Series{Label: label}
	for _, sample := range result.Log {
		var y float64
		if opts.Throughput {
			y = float64(sample.ReqThroughput)
		} else {
			y = float64(sample.RespTimePercentiles[opts.Percentile])
		}
		s.Data = append(s.Data, Point{X: float64(sample.TimeS), Y: y})
	}
	return s
}

// Write renders all series onto a single SVG chart.
func Write(w io.Writer, title string, yLabel string, series []Series, logScale bool) error {
	canvas := svg.New(w)
	canvas.Start(width, height)
	defer canvas.End()

	canvas.Title(title)
	canvas.Rect(0, 0, width, height, "fill:white")

	minX, maxX, minY, maxY := bounds(series, logScale)

	plotX := func(x float64) int { return marginLeft + int((x-minX)/(maxX-minX)*(width-marginLeft-marginRight)) }
	plotY := func(y float64) int {
		v := y
		if logScale {
			v = safeLog(y)
		}
		ratio := (v - minY) / (maxY - minY)
		return height - marginBtm - int(ratio*(height-marginTop-marginBtm))
	}

	canvas.Line(marginLeft, marginTop, marginLeft, height-marginBtm, "stroke:black")
	canvas.Line(marginLeft, height-marginBtm, width-marginRight, height-marginBtm, "stroke:black")
	canvas.Text(marginLeft/3, height/2, yLabel, "text-anchor:middle;font-size:12px", fmt.Sprintf("transform=\"rotate(-90 %d %d)\"", marginLeft/3, height/2))
	canvas.Text(width/2, height-10, "time [s]", "text-anchor:middle;font-size:12px")

	for i, s := range series {
		color := palette[i%len(palette)]
		if s.Color != "" {
			color = s.Color
		}
		for j := 1; j < len(s.Data); j++ {
			x1, y1 := plotX(s.Data[j-1].X), plotY(s.Data[j-1].Y)
			x2, y2 := plotX(s.Data[j].X), plotY(s.Data[j].Y)
			canvas.Line(x1, y1, x2, y2, fmt.Sprintf("stroke:%s;stroke-width:2;fill:none", color))
		}
		legendY := marginTop + i*18
		canvas.Line(width-marginRight+10, legendY, width-marginRight+30, legendY, fmt.Sprintf("stroke:%s;stroke-width:2", color))
		canvas.Text(width-marginRight+35, legendY+4, s.Label, "font-size:11px")
	}

	return nil
}

func bounds(series []Series, logScale bool) (minX, maxX, minY, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, s := range series {
		for _, p := range s.Data {
			minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
			v := p.Y
			if logScale {
				v = safeLog(p.Y)
			}
			minY, maxY = math.Min(minY, v), math.Max(maxY, v)
		}
	}
	if math.IsInf(minX, 1) {
		return 0, 1, 0, 1
	}
	if maxX == minX {
		maxX = minX + 1
	}
	if maxY == minY {
		maxY = minY + 1
	}
	return minX, maxX, minY, maxY
}

func safeLog(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return math.Log10(v)
}
