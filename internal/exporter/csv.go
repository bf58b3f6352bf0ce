package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"switchrecon/internal/infrastructure"
	"switchrecon/internal/reconcile"
)

// utf8BOM lets spreadsheet applications detect the encoding
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	return &CSVWriter{logger: infrastructure.WithComponent(logger, "csv_exporter")}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool
}

// RecordTable renders the record sheet of res as text rows. Numbers keep
// their full precision; trail lookups that matched a non-numeric cell keep
// its raw text.
func RecordTable(res *reconcile.Result) WriteOptions {
	cols := res.Schema.Columns()
	records := make([][]string, len(res.Records))
	for i := range res.Records {
		row := res.Records[i].Row(cols)
		records[i] = make([]string, len(row))
		for c, cell := range row {
			records[i][c] = cell.String()
		}
	}
	return WriteOptions{Headers: cols, Records: records, BOMPrefix: true}
}

// Write writes the table to out
func (w *CSVWriter) Write(out io.Writer, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := out.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}

	w.logger.Info("CSV written", slog.Int("record_count", len(options.Records)))
	return nil
}

// WriteFile writes the table to path, creating its directory
func (w *CSVWriter) WriteFile(path string, options WriteOptions) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := w.Write(file, options); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
