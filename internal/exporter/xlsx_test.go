package exporter

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"switchrecon/internal/analytics"
	"switchrecon/internal/shared/testutil"
	"switchrecon/pkg/contracts/domain"
)

func renderWorkbook(t *testing.T) *excelize.File {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)

	var buf bytes.Buffer
	require.NoError(t, New(logger).Export(&buf, sampleResult(), FormatXLSX))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func cellName(t *testing.T, col, row int) string {
	t.Helper()
	name, err := excelize.CoordinatesToCellName(col, row)
	require.NoError(t, err)
	return name
}

func fillColor(t *testing.T, f *excelize.File, sheet, cell string) string {
	t.Helper()
	id, err := f.GetCellStyle(sheet, cell)
	require.NoError(t, err)
	style, err := f.GetStyle(id)
	require.NoError(t, err)
	return strings.ToUpper(strings.Join(style.Fill.Color, ","))
}

func TestWorkbook_Sheets(t *testing.T) {
	f := renderWorkbook(t)

	assert.Equal(t, []string{
		SheetRecords,
		analytics.SheetTrailIncrease,
		analytics.SheetSwitchingRate,
		analytics.SheetDirectToRegular,
		SheetProcessingInfo,
	}, f.GetSheetList())
}

func TestWorkbook_RecordSheet(t *testing.T) {
	f := renderWorkbook(t)
	cols := sampleResult().Schema.Columns()

	rows, err := f.GetRows(SheetRecords, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, cols, rows[0])

	amount := indexOf(cols, domain.HeaderAmount) + 1
	v, err := f.GetCellValue(SheetRecords, cellName(t, amount, 2), excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "1000", v)

	id, err := f.GetCellStyle(SheetRecords, cellName(t, amount, 2))
	require.NoError(t, err)
	style, err := f.GetStyle(id)
	require.NoError(t, err)
	require.NotNil(t, style.CustomNumFmt)
	assert.Equal(t, numberFormat, *style.CustomNumFmt)

	folio := indexOf(cols, domain.HeaderFolio) + 1
	assert.Contains(t, fillColor(t, f, SheetRecords, cellName(t, folio, 3)), colorHighlight)
	assert.NotContains(t, fillColor(t, f, SheetRecords, cellName(t, folio, 2)), colorHighlight)
	assert.Contains(t, fillColor(t, f, SheetRecords, cellName(t, 1, 1)), colorHeader)
}

func TestWorkbook_RateCategoryDiff(t *testing.T) {
	f := renderWorkbook(t)
	cols := sampleResult().Schema.Columns()
	cat := indexOf(cols, domain.HeaderRateCategory) + 1
	prev := indexOf(cols, domain.HeaderRateCategoryPrev) + 1

	assert.Contains(t, fillColor(t, f, SheetRecords, cellName(t, cat, 2)), colorCategoryDiff)
	assert.Contains(t, fillColor(t, f, SheetRecords, cellName(t, prev, 2)), colorCategoryDiff)
	assert.NotContains(t, fillColor(t, f, SheetRecords, cellName(t, cat, 3)), colorCategoryDiff)
}

func TestWorkbook_AnalyticsSheet(t *testing.T) {
	f := renderWorkbook(t)

	merges, err := f.GetMergeCells(analytics.SheetTrailIncrease)
	require.NoError(t, err)
	require.Len(t, merges, 2)

	title, err := f.GetCellValue(analytics.SheetTrailIncrease, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Distributor wise Analytics", title)

	rows, err := f.GetRows(analytics.SheetTrailIncrease, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, domain.HeaderFolio, rows[2][0])
	assert.Equal(t, []string{"F1", "ARN-1", "ABC Fund - Regular", "1000"}, rows[3][:4])
}

func TestWorkbook_ProcessingInfo(t *testing.T) {
	f := renderWorkbook(t)

	value := func(cell string) string {
		v, err := f.GetCellValue(SheetProcessingInfo, cell)
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "PROCESSING INFORMATION", value("A1"))
	assert.Equal(t, "switches.xlsx", value("B2"))
	assert.Equal(t, "1", value("B3"))
	assert.Equal(t, "2024-03-01 10:00:05", value("B7"))
	assert.Equal(t, "2", value("B9"))

	rows, err := f.GetRows(SheetProcessingInfo)
	require.NoError(t, err)
	var sawWarning bool
	for _, row := range rows {
		if len(row) == 3 && row[0] == "UNRESOLVABLE" {
			sawWarning = true
			assert.Equal(t, "platinum", row[1])
		}
	}
	assert.True(t, sawWarning)
}

func TestExportFile(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	path := filepath.Join(t.TempDir(), "reports", "run.xlsx")

	require.NoError(t, New(logger).ExportFile(path, sampleResult(), FormatXLSX))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), SheetRecords)

	assert.Error(t, New(logger).ExportFile(path, sampleResult(), Format("pdf")))
}
