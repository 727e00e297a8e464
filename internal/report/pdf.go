package report

import (
	"bytes"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/go-pdf/fpdf"
	"github.com/waterprint/waterprint/internal/footprint"
	"golang.org/x/text/encoding/charmap"
)

const pdfTitle = "Water Footprint Report"

// PDFExporter renders a one page document with the user's name, total and breakdown.
type PDFExporter struct {
	compress bool
}

// PDFOption configures a PDFExporter.
type PDFOption func(*PDFExporter)

// WithCompression toggles compression of the page content streams. It is on by default.
func WithCompression(enabled bool) PDFOption {
	return func(e *PDFExporter) {
		e.compress = enabled
	}
}

func NewPDFExporter(opts ...PDFOption) *PDFExporter {
	e := &PDFExporter{compress: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *PDFExporter) Format() Format      { return FormatPDF }
func (e *PDFExporter) Filename() string    { return "water_footprint_report.pdf" }
func (e *PDFExporter) ContentType() string { return "application/pdf" }

func (e *PDFExporter) Export(r *footprint.Report) ([]byte, error) {
	// the core fonts only cover windows-1252, so every string is encoded up front
	enc := charmap.Windows1252.NewEncoder()
	text := func(s string) (string, error) {
		out, err := enc.String(s)
		if err != nil {
			return "", fmt.Errorf("text %q cannot be rendered: %w", s, ErrExportFailure)
		}
		return out, nil
	}

	name, err := text("Name: " + r.UserName)
	if err != nil {
		return nil, err
	}
	total := fmt.Sprintf("Total Water Footprint: %s liters", humanize.Commaf(r.Total))

	rows := make([][3]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		category, err := text(row.Category)
		if err != nil {
			return nil, err
		}
		rows = append(rows, [3]string{category, humanize.Commaf(row.Amount), humanize.Commaf(row.Footprint)})
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(e.compress)
	pdf.SetTitle(pdfTitle, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, pdfTitle, "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 8, name, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 8, total, "", 1, "L", false, 0, "")

	if len(rows) > 0 {
		pdf.Ln(6)
		widths := []float64{90, 40, 50}
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetFillColor(220, 235, 250)
		for i, h := range []string{"Category", "Amount", "Footprint (liters)"} {
			pdf.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Helvetica", "", 11)
		for _, row := range rows {
			pdf.CellFormat(widths[0], 7, row[0], "1", 0, "L", false, 0, "")
			pdf.CellFormat(widths[1], 7, row[1], "1", 0, "R", false, 0, "")
			pdf.CellFormat(widths[2], 7, row[2], "1", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
