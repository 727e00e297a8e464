package report

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/waterprint/waterprint/internal/footprint"
)

var (
	// ErrExportFailure indicates that a report could not be rendered.
	ErrExportFailure = errors.New("export failed")
	// ErrUnsupportedFormat indicates an unknown export format.
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// Format names an export format.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatPDF   Format = "pdf"
	FormatChart Format = "chart"
)

// Formats lists every supported format.
var Formats = []Format{FormatCSV, FormatPDF, FormatChart}

// ParseFormat parses a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnsupportedFormat)
}

// Artifact is a fully rendered export.
type Artifact struct {
	Format      Format
	Filename    string
	ContentType string
	Data        []byte
}

// Exporter renders a report into one format. Exporters never modify the report.
type Exporter interface {
	Format() Format
	Filename() string
	ContentType() string
	Export(r *footprint.Report) ([]byte, error)
}

// Renderer dispatches reports to the registered exporters.
type Renderer struct {
	exporters map[Format]Exporter
}

// NewRenderer creates a renderer with the CSV, PDF and chart exporters.
func NewRenderer(chartWidth, chartHeight int) *Renderer {
	return NewRendererWith(
		NewCSVExporter(),
		NewPDFExporter(),
		NewChartExporter(chartWidth, chartHeight),
	)
}

// NewRendererWith creates a renderer from the given exporters.
func NewRendererWith(exporters ...Exporter) *Renderer {
	r := &Renderer{exporters: make(map[Format]Exporter, len(exporters))}
	for _, e := range exporters {
		r.exporters[e.Format()] = e
	}
	return r
}

// Render renders the report fully in memory. On failure no partial output is returned.
func (r *Renderer) Render(format Format, rep *footprint.Report) (*Artifact, error) {
	exporter, ok := r.exporters[format]
	if !ok {
		return nil, fmt.Errorf("%q: %w", format, ErrUnsupportedFormat)
	}
	if rep == nil {
		return nil, fmt.Errorf("%s: missing report: %w", format, ErrExportFailure)
	}

	data, err := exporter.Export(rep)
	if err != nil {
		log.Error("failed to export report", "format", format, "user", rep.UserID, "error", err)
		if errors.Is(err, ErrExportFailure) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w: %w", format, ErrExportFailure, err)
	}

	return &Artifact{
		Format:      format,
		Filename:    exporter.Filename(),
		ContentType: exporter.ContentType(),
		Data:        data,
	}, nil
}
