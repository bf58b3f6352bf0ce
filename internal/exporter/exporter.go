package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"switchrecon/internal/reconcile"
)

// Exporter writes results in any supported format
type Exporter struct {
	xlsx *WorkbookWriter
	csv  *CSVWriter
}

// New creates an exporter
func New(logger *slog.Logger) *Exporter {
	return &Exporter{
		xlsx: NewWorkbookWriter(logger),
		csv:  NewCSVWriter(logger),
	}
}

// Export writes res to out in format
func (e *Exporter) Export(out io.Writer, res *reconcile.Result, format Format) error {
	switch format {
	case FormatXLSX:
		return e.xlsx.Write(out, res)
	case FormatCSV:
		return e.csv.Write(out, RecordTable(res))
	}
	return fmt.Errorf("unsupported export format %q", format)
}

// ExportFile writes res to path, creating its directory
func (e *Exporter) ExportFile(path string, res *reconcile.Result, format Format) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Base(path), err)
	}
	if err := e.Export(file, res, format); err != nil {
		file.Close()
		os.Remove(path)
		return err
	}
	return file.Close()
}
