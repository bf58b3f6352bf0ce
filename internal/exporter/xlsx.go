package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"switchrecon/internal/analytics"
	"switchrecon/internal/infrastructure"
	"switchrecon/internal/reconcile"
	"switchrecon/pkg/contracts/domain"
)

// Workbook sheet names
const (
	SheetRecords        = "Extracted Data"
	SheetProcessingInfo = "Processing Information"
)

// WorkbookWriter renders a reconciliation result as an xlsx workbook
type WorkbookWriter struct {
	logger *slog.Logger
}

// NewWorkbookWriter creates a workbook writer
func NewWorkbookWriter(logger *slog.Logger) *WorkbookWriter {
	return &WorkbookWriter{logger: infrastructure.WithComponent(logger, "xlsx_exporter")}
}

// Write renders res to out: the record sheet, one sheet per analytics
// summary and the processing information sheet.
func (w *WorkbookWriter) Write(out io.Writer, res *reconcile.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	st, err := newStyles(f)
	if err != nil {
		return err
	}

	if err := f.SetSheetName(f.GetSheetName(0), SheetRecords); err != nil {
		return fmt.Errorf("failed to name record sheet: %w", err)
	}
	if err := writeRecords(f, st, res); err != nil {
		return fmt.Errorf("failed to write %s: %w", SheetRecords, err)
	}

	for _, summary := range res.Analytics {
		if err := writeSummary(f, st, summary); err != nil {
			return fmt.Errorf("failed to write %s: %w", summary.Sheet, err)
		}
	}

	if err := writeProcessingInfo(f, st, res); err != nil {
		return fmt.Errorf("failed to write %s: %w", SheetProcessingInfo, err)
	}

	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to serialize workbook: %w", err)
	}

	w.logger.Info("workbook written",
		slog.Int("records", len(res.Records)),
		slog.Int("highlighted", len(res.Highlighted)),
		slog.Int("analytics_sheets", len(res.Analytics)))
	return nil
}

// numericColumn reports whether header holds amounts or rates
func numericColumn(header string) bool {
	switch header {
	case domain.HeaderAmount, domain.HeaderTrailIn, domain.HeaderTrailInPrev, domain.HeaderTrailOut:
		return true
	}
	return strings.HasPrefix(header, domain.PayoutPrefix)
}

func writeRecords(f *excelize.File, st *styles, res *reconcile.Result) error {
	cols := res.Schema.Columns()
	rows := make([][]domain.Cell, len(res.Records))
	for i := range res.Records {
		rows[i] = res.Records[i].Row(cols)
	}

	sw, err := f.NewStreamWriter(SheetRecords)
	if err != nil {
		return err
	}
	if err := setWidths(sw, cols, rows); err != nil {
		return err
	}

	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = excelize.Cell{StyleID: st.header, Value: c}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	highlighted := make(map[int]bool, len(res.Highlighted))
	for _, i := range res.Highlighted {
		highlighted[i] = true
	}

	catCol, prevCol := -1, -1
	for i, c := range cols {
		switch c {
		case domain.HeaderRateCategory:
			catCol = i
		case domain.HeaderRateCategoryPrev:
			prevCol = i
		}
	}

	numeric := make([]bool, len(cols))
	for i, c := range cols {
		numeric[i] = numericColumn(c)
	}

	for r, row := range rows {
		rec := &res.Records[r]
		diff := catCol >= 0 && prevCol >= 0 && rec.RateCategory != rec.RateCategoryPrev

		values := make([]any, len(row))
		for c, cell := range row {
			style := st.text
			switch {
			case diff && (c == catCol || c == prevCol):
				style = st.categoryDiff
			case highlighted[r] && numeric[c]:
				style = st.highlightNumber
			case highlighted[r]:
				style = st.highlightText
			case numeric[c]:
				style = st.number
			}
			values[c] = excelize.Cell{StyleID: style, Value: cellValue(cell)}
		}

		axis, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(axis, values); err != nil {
			return err
		}
	}
	return sw.Flush()
}

// writeSummary lays out one analytics table: a merged title row, a merged
// subtitle row, the header row and the grouped rows.
func writeSummary(f *excelize.File, st *styles, s analytics.Summary) error {
	if _, err := f.NewSheet(s.Sheet); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(s.Sheet)
	if err != nil {
		return err
	}
	if err := setWidths(sw, s.Columns, s.Rows); err != nil {
		return err
	}

	last, err := excelize.ColumnNumberToName(len(s.Columns))
	if err != nil {
		return err
	}

	if err := sw.SetRow("A1", []any{excelize.Cell{StyleID: st.title, Value: s.Title}},
		excelize.RowOpts{Height: 30}); err != nil {
		return err
	}
	if err := sw.SetRow("A2", []any{excelize.Cell{StyleID: st.subtitle, Value: s.Subtitle}},
		excelize.RowOpts{Height: 20}); err != nil {
		return err
	}

	header := make([]any, len(s.Columns))
	for i, c := range s.Columns {
		header[i] = excelize.Cell{StyleID: st.tableHeader, Value: c}
	}
	if err := sw.SetRow("A3", header); err != nil {
		return err
	}

	for r, row := range s.Rows {
		values := make([]any, len(row))
		for c, cell := range row {
			style := st.text
			if cell.Number.Valid {
				style = st.number
			}
			values[c] = excelize.Cell{StyleID: style, Value: cellValue(cell)}
		}
		axis, err := excelize.CoordinatesToCellName(1, r+4)
		if err != nil {
			return err
		}
		if err := sw.SetRow(axis, values); err != nil {
			return err
		}
	}

	if len(s.Columns) > 1 {
		if err := sw.MergeCell("A1", last+"1"); err != nil {
			return err
		}
		if err := sw.MergeCell("A2", last+"2"); err != nil {
			return err
		}
	}
	return sw.Flush()
}

func writeProcessingInfo(f *excelize.File, st *styles, res *reconcile.Result) error {
	sheet := SheetProcessingInfo
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	count := func(role string) int {
		n := 0
		for _, in := range res.Inputs {
			if in.Role == role {
				n++
			}
		}
		return n
	}
	primary := ""
	for _, in := range res.Inputs {
		if in.Role == reconcile.RolePrimary {
			primary = in.File
			break
		}
	}

	rows := [][]any{
		{"PROCESSING INFORMATION"},
		{"Input File", primary},
		{"Distributor Files", count(reconcile.RoleCurrent)},
		{"Previous Month Distributor Files", count(reconcile.RolePrevious)},
		{"Payout Files", count(reconcile.RoleFunding)},
		{"Brokerage Files", count(reconcile.RoleBrokerage)},
		{"Processing Date", res.FinishedAt.Format(time.DateTime)},
		{"Total Columns Extracted", res.Summary.TotalColumns},
		{"Total Rows Processed", res.Summary.TotalRecords},
		{"Highlighted Rows", res.Summary.Highlighted},
		nil,
		{"Input Files"},
		{"Role", "File", "BLAKE2b-256"},
	}
	for _, in := range res.Inputs {
		digest := in.Digest
		if in.Unreadable {
			digest = "unreadable"
		}
		rows = append(rows, []any{in.Role, in.File, digest})
	}
	if len(res.Summary.Funding) > 0 {
		rows = append(rows, nil, []any{"Payout Months"}, []any{"Label", "File", "Agents"})
		for _, fr := range res.Summary.Funding {
			rows = append(rows, []any{fr.Label, fr.File, fr.Agents})
		}
	}
	if len(res.Warnings) > 0 {
		rows = append(rows, nil, []any{"Warnings"}, []any{"Kind", "Source", "Message"})
		for _, warn := range res.Warnings {
			rows = append(rows, []any{warn.Kind, warn.Source, warn.Message})
		}
	}

	for r, row := range rows {
		if row == nil {
			continue
		}
		axis, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, axis, &row); err != nil {
			return err
		}
		if len(row) == 1 {
			if err := f.SetCellStyle(sheet, axis, axis, st.label); err != nil {
				return err
			}
		}
	}

	if err := f.MergeCell(sheet, "A1", "B1"); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "B1", st.header); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", "A", 25); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "B", 40); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "C", "C", 66)
}

// setWidths sizes each column to its longest value plus padding, capped
func setWidths(sw *excelize.StreamWriter, cols []string, rows [][]domain.Cell) error {
	for i, c := range cols {
		width := utf8.RuneCountInString(c)
		for _, row := range rows {
			if n := utf8.RuneCountInString(row[i].String()); n > width {
				width = n
			}
		}
		if err := sw.SetColWidth(i+1, i+1, float64(min(width+2, maxColumnWidth))); err != nil {
			return err
		}
	}
	return nil
}

func cellValue(c domain.Cell) any {
	if c.Number.Valid {
		return c.Number.Decimal.InexactFloat64()
	}
	return c.Text
}
