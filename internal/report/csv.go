package report

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/waterprint/waterprint/internal/footprint"
)

var csvHeader = []string{"Category", "Amount", "Footprint"}

// CSVExporter writes one line per breakdown row.
type CSVExporter struct{}

func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

func (e *CSVExporter) Format() Format      { return FormatCSV }
func (e *CSVExporter) Filename() string    { return "water_footprint_report.csv" }
func (e *CSVExporter) ContentType() string { return "text/csv" }

func (e *CSVExporter) Export(r *footprint.Report) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, row := range r.Rows {
		if err := w.Write([]string{
			row.Category,
			formatFloat(row.Amount),
			formatFloat(row.Footprint),
		}); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// formatFloat returns the shortest representation that parses back to v.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
