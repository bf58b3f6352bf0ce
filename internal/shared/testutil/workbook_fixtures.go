package testutil

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// SheetData is one sheet of a fixture workbook. A nil row leaves a blank
// line in the sheet.
type SheetData struct {
	Name string
	Rows [][]any
}

// WriteWorkbook saves sheets, in order, as dir/name and returns the path.
func WriteWorkbook(t *testing.T, dir, name string, sheets ...SheetData) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet.Name); err != nil {
				t.Fatalf("failed to rename fixture sheet: %v", err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			t.Fatalf("failed to add fixture sheet %q: %v", sheet.Name, err)
		}

		for r, row := range sheet.Rows {
			if len(row) == 0 {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				t.Fatalf("bad fixture coordinates: %v", err)
			}
			values := row
			if err := f.SetSheetRow(sheet.Name, cell, &values); err != nil {
				t.Fatalf("failed to write fixture row %d of %q: %v", r, sheet.Name, err)
			}
		}
	}

	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save fixture workbook: %v", err)
	}
	return path
}

// WriteSheet is WriteWorkbook for a single sheet named "Sheet1"
func WriteSheet(t *testing.T, dir, name string, rows ...[]any) string {
	t.Helper()
	return WriteWorkbook(t, dir, name, SheetData{Name: "Sheet1", Rows: rows})
}

// WriteCSV saves rows as a comma-separated file dir/name and returns the path
func WriteCSV(t *testing.T, dir, name string, rows ...[]string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create fixture csv: %v", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("failed to write fixture csv: %v", err)
	}
	return path
}
