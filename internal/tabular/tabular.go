package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// utf8BOM is stripped from the first CSV cell; spreadsheet tools prepend it.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Table is a sheet sliced at its header row. Every row is padded to the
// header width so Rows[i][j] is always addressable.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// Sheet is the raw, header-less content of one workbook sheet.
type Sheet struct {
	Name string
	Rows [][]string
}

// IsCSV reports whether path is read as delimited text rather than a workbook
func IsCSV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}

// ReadFile reads the first sheet (or the CSV body) of path using row 0 as
// the header.
func ReadFile(path string) (*Table, error) {
	return ReadFileWithHeader(path, 0)
}

// ReadFileWithHeader reads path treating raw row headerRow as the header.
func ReadFileWithHeader(path string, headerRow int) (*Table, error) {
	raw, err := RawRows(path)
	if err != nil {
		return nil, err
	}
	if headerRow < 0 || headerRow >= len(raw) {
		return nil, fmt.Errorf("header row %d out of range for %s (%d rows)", headerRow, filepath.Base(path), len(raw))
	}
	return FromRows(filepath.Base(path), raw, headerRow), nil
}

// RawRows returns every row of the first sheet (or CSV) without header
// handling. Blank rows inside the sheet are kept as empty slices.
func RawRows(path string) ([][]string, error) {
	if IsCSV(path) {
		return readCSV(path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", filepath.Base(path))
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q of %s: %w", sheets[0], filepath.Base(path), err)
	}
	return rows, nil
}

// ReadWorkbook returns every sheet of a workbook in workbook order. A CSV
// file yields a single sheet named after the file.
func ReadWorkbook(path string) ([]Sheet, error) {
	if IsCSV(path) {
		rows, err := readCSV(path)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		return []Sheet{{Name: name, Rows: rows}}, nil
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	var sheets []Sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q of %s: %w", name, filepath.Base(path), err)
		}
		sheets = append(sheets, Sheet{Name: name, Rows: rows})
	}
	return sheets, nil
}

// FromRows slices raw at headerRow. Header cells are trimmed; rows below it
// that are entirely blank are dropped.
func FromRows(name string, raw [][]string, headerRow int) *Table {
	t := &Table{Name: name}
	if headerRow < 0 || headerRow >= len(raw) {
		return t
	}

	header := raw[headerRow]
	t.Columns = make([]string, len(header))
	for i, h := range header {
		t.Columns[i] = strings.TrimSpace(h)
	}

	for _, row := range raw[headerRow+1:] {
		if isBlank(row) {
			continue
		}
		padded := make([]string, len(t.Columns))
		copy(padded, row)
		t.Rows = append(t.Rows, padded)
	}
	return t
}

// Index returns the position of the first column whose name, passed through
// norm, equals key. norm may be nil for a literal comparison.
func (t *Table) Index(key string, norm func(string) string) int {
	for i, c := range t.Columns {
		if norm != nil {
			c = norm(c)
		}
		if c == key {
			return i
		}
	}
	return -1
}

// Has reports whether a column named exactly name exists
func (t *Table) Has(name string) bool {
	return t.Index(name, nil) >= 0
}

// Column returns the values of column i, trimmed; nil when i is out of range
func (t *Table) Column(i int) []string {
	if i < 0 || i >= len(t.Columns) {
		return nil
	}
	out := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = strings.TrimSpace(row[i])
	}
	return out
}

// MapColumns rewrites every column name through fn
func (t *Table) MapColumns(fn func(string) string) {
	for i, c := range t.Columns {
		t.Columns[i] = fn(c)
	}
}

func readCSV(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
