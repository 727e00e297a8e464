package report

import (
	"bytes"
	"fmt"
	"math"

	"github.com/waterprint/waterprint/internal/footprint"
	"github.com/wcharczuk/go-chart/v2"
)

const (
	chartTitle     = "Water Footprint by Category"
	noEntriesLabel = "No entries"
)

// ChartExporter renders a PNG bar chart with one bar per category.
type ChartExporter struct {
	width  int
	height int
}

func NewChartExporter(width, height int) *ChartExporter {
	if width <= 0 || height <= 0 {
		width, height = 1024, 576
	}
	return &ChartExporter{width: width, height: height}
}

func (e *ChartExporter) Format() Format      { return FormatChart }
func (e *ChartExporter) Filename() string    { return "water_footprint_plot.png" }
func (e *ChartExporter) ContentType() string { return "image/png" }

func (e *ChartExporter) Export(r *footprint.Report) ([]byte, error) {
	totals := footprint.ByCategory(r.Rows)
	if len(totals) == 0 {
		// go-chart refuses to render without bars
		totals = []footprint.CategoryTotal{{Category: noEntriesLabel}}
	}

	bars := make([]chart.Value, 0, len(totals))
	maxValue := 0.0
	for _, t := range totals {
		bars = append(bars, chart.Value{Label: t.Category, Value: t.Footprint})
		maxValue = max(maxValue, t.Footprint)
	}

	// an all-zero range cannot be scaled
	yMax := 1.0
	if maxValue > 0 {
		yMax = maxValue * 1.1
	}
	if math.IsInf(yMax, 0) || math.IsNaN(yMax) {
		return nil, fmt.Errorf("footprint %v cannot be charted: %w", maxValue, ErrExportFailure)
	}

	graph := chart.BarChart{
		Title:  chartTitle,
		Width:  e.width,
		Height: e.height,
		Background: chart.Style{
			Padding: chart.Box{Top: 60, Left: 20, Right: 20, Bottom: 20},
		},
		BarWidth:   e.barWidth(len(bars)),
		BarSpacing: e.barWidth(len(bars)) / 2,
		YAxis: chart.YAxis{
			Name:  "Footprint (liters)",
			Range: &chart.ContinuousRange{Min: 0, Max: yMax},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *ChartExporter) barWidth(n int) int {
	w := (e.width - 120) / (2 * max(n, 1))
	return min(max(w, 8), 80)
}
