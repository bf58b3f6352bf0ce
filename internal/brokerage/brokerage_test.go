package brokerage

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"switchrecon/internal/shared/testutil"
)

// noO is 25 letters without 'o', so cleaning leaves it unchanged
const noO = "abcdefghijklmnpqrstuvwxyz"

func commissionRows(title int, funds ...[]string) [][]string {
	var rows [][]string
	for i := 0; i < title; i++ {
		rows = append(rows, []string{"Commission structure"})
	}
	rows = append(rows, []string{"Sr", "Name of the Fund", "Trail (% p.a.) 1st year", "Trail (% p.a.) 2nd year"})
	for _, f := range funds {
		rows = append(rows, append([]string{""}, f...))
	}
	return rows
}

func TestFindBestSheet(t *testing.T) {
	set := NewSheetSet(
		NewCommissionSheet("IB Category-X", "a.xlsx", nil),
		NewCommissionSheet("otherxyz", "a.xlsx", nil),
	)

	key, ok := set.FindBestSheet("ibcateg0ryx", 85)
	require.True(t, ok)
	assert.Equal(t, "ibcateg0ryx", key)
}

func TestFindBestSheet_Threshold(t *testing.T) {
	set := NewSheetSet(NewCommissionSheet(noO[:21]+"1234", "a.xlsx", nil))

	_, ok := set.FindBestSheet(noO, 85)
	assert.False(t, ok, "a best score of 84 is rejected")

	key, ok := set.FindBestSheet(noO, 84)
	assert.True(t, ok)
	assert.Equal(t, noO[:21]+"1234", key)
}

func TestFindBestSheet_TieKeepsFirstSeen(t *testing.T) {
	set := NewSheetSet(
		NewCommissionSheet("abcd", "a.xlsx", nil),
		NewCommissionSheet("abce", "a.xlsx", nil),
	)

	key, ok := set.FindBestSheet("abcx", 70)
	require.True(t, ok)
	assert.Equal(t, "abcd", key)
}

func TestNewSheetSet_FirstWinsOnCollision(t *testing.T) {
	first := NewCommissionSheet("IB Category-X", "first.xlsx", nil)
	second := NewCommissionSheet("ib category x", "second.xlsx", nil)
	set := NewSheetSet(first, second)

	assert.Equal(t, 1, set.Len())
	got, ok := set.Get("ibcateg0ryx")
	require.True(t, ok)
	assert.Equal(t, "first.xlsx", got.Source)
	assert.Equal(t, []string{"ibcateg0ryx"}, set.Keys())
}

func TestFindHeaderRow(t *testing.T) {
	tests := []struct {
		name    string
		rows    [][]string
		wantRow int
		wantOK  bool
	}{
		{"header first", commissionRows(0), 0, true},
		{"header after title rows", commissionRows(4), 4, true},
		{"last scanned row", commissionRows(9), 9, true},
		{"beyond scan bound", commissionRows(10), -1, false},
		{
			"case and whitespace insensitive",
			[][]string{{" NAME OF THE FUND ", "Trail (% p.a.)  1st  Year"}},
			0, true,
		},
		{"missing trail column", [][]string{{"Name of the Fund", "Trail 2nd year"}}, -1, false},
		{"empty sheet", nil, -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, ok := FindHeaderRow(tt.rows, RequiredColumns)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantRow, row)
		})
	}
}

func TestCommissionSheetLookup(t *testing.T) {
	sheet := NewCommissionSheet("IB Category-X", "a.xlsx", commissionRows(3,
		[]string{"ABC Fund - Direct Growth", "0.75", "0.5"},
		[]string{"ABC Fund - Regular Growth", "0.9", "0.5"},
		[]string{"XYZ Equity Fund", "", "0.4"},
		[]string{"Liquid Fund", "NIL", ""},
	))

	row, ok := sheet.HeaderRow()
	require.True(t, ok)
	assert.Equal(t, 3, row)
	assert.Equal(t, 3, sheet.Funds())

	got := sheet.Lookup("abcfund")
	assert.True(t, got.Found)
	assert.Equal(t, "0.75", got.Value.Decimal.String(), "first matching row wins")

	empty := sheet.Lookup("xyzequityfund")
	assert.True(t, empty.Found)
	assert.False(t, empty.Value.Valid)

	text := sheet.Lookup("liquidfund")
	assert.True(t, text.Found)
	assert.False(t, text.Value.Valid)
	assert.Equal(t, "NIL", text.Raw)

	assert.False(t, sheet.Lookup("unknownfund").Found)
}

func TestTrailMatcher(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	set := NewSheetSet(
		NewCommissionSheet("IB Category-X", "a.xlsx", commissionRows(2,
			[]string{"ABC Fund - Direct Growth", "0.75", "0.5"},
		)),
		NewCommissionSheet("Notes", "a.xlsx", [][]string{{"nothing here"}}),
	)
	m := NewTrailMatcher(set, 85, logger)

	t.Run("fuzzy sheet exact fund", func(t *testing.T) {
		got := m.FindTrail("ABC Fund - Regular Growth", "IB Categry X")
		require.True(t, got.Found)
		assert.Equal(t, "0.75", got.Value.Decimal.String())
	})

	t.Run("no fuzzy fallback within sheet", func(t *testing.T) {
		assert.False(t, m.FindTrail("ABC Funds - Regular Growth", "IB Category-X").Found)
	})

	t.Run("missing inputs", func(t *testing.T) {
		assert.False(t, m.FindTrail("", "IB Category-X").Found)
		assert.False(t, m.FindTrail("ABC Fund", "  ").Found)
	})

	t.Run("unresolvable category", func(t *testing.T) {
		assert.False(t, m.FindTrail("ABC Fund", "Platinum Partners").Found)
		assert.Contains(t, m.UnresolvedCategories(), "platinumpartners")
	})

	t.Run("sheet without header", func(t *testing.T) {
		assert.False(t, m.FindTrail("ABC Fund", "notes").Found)
		assert.False(t, m.FindTrail("XYZ Fund", "notes").Found)
		assert.Equal(t, []string{"Notes"}, m.HeadlessSheets())
		assert.Len(t, handler.GetRecordsByLevel(slog.LevelWarn), 1, "header warning is logged once")
	})
}

func TestLoadSheets(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	dir := t.TempDir()

	first := testutil.WriteWorkbook(t, dir, "brokerage_a.xlsx",
		testutil.SheetData{Name: "IB Category-X", Rows: [][]any{
			{"Name of the Fund", "Trail (% p.a.) 1st year"},
			{"ABC Fund - Direct", 0.75},
		}},
		testutil.SheetData{Name: "Gold", Rows: [][]any{{"x"}}},
	)
	second := testutil.WriteWorkbook(t, dir, "brokerage_b.xlsx",
		testutil.SheetData{Name: "IB Category X", Rows: [][]any{
			{"Name of the Fund", "Trail (% p.a.) 1st year"},
			{"ABC Fund - Direct", 0.1},
		}},
	)

	set, err := LoadSheets([]string{first, second}, logger)
	require.NoError(t, err)
	assert.Equal(t, []string{"ibcateg0ryx", "g0ld"}, set.Keys())

	m := NewTrailMatcher(set, 85, logger)
	got := m.FindTrail("ABC Fund - Regular", "IB Category-X")
	require.True(t, got.Found)
	assert.Equal(t, "0.75", got.Value.Decimal.String())

	_, err = LoadSheets([]string{dir + "/missing.xlsx"}, logger)
	assert.Error(t, err)
}
