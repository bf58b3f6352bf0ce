package brokerage

import (
	"strings"
	"sync"

	"switchrecon/internal/config"
	"switchrecon/internal/normalize"
	"switchrecon/internal/tabular"
	"switchrecon/pkg/contracts/domain"
)

// RequiredColumns identify the header row of a commission sheet
var RequiredColumns = []string{config.FundNameColumn, config.TrailColumn}

// CommissionSheet is one sheet of a brokerage workbook. The header row and
// the fund index are located on first use and cached for the sheet's lifetime.
type CommissionSheet struct {
	Key    string // cleaned sheet name
	Name   string
	Source string

	rows [][]string

	once  sync.Once
	index *trailIndex
}

type trailIndex struct {
	headerRow int
	// trails maps fund key to the raw trail cell of its first row; nil when
	// the header lacks a fund or trail column.
	trails map[string]string
}

// NewCommissionSheet wraps raw sheet rows read from source
func NewCommissionSheet(name, source string, rows [][]string) *CommissionSheet {
	return &CommissionSheet{
		Key:    normalize.CleanText(name),
		Name:   name,
		Source: source,
		rows:   rows,
	}
}

// HeaderRow returns the located header row index
func (s *CommissionSheet) HeaderRow() (int, bool) {
	idx := s.load()
	return idx.headerRow, idx.headerRow >= 0
}

// Lookup returns the trail rate of the fund whose key (normalize.FundKey)
// equals fundKey exactly.
func (s *CommissionSheet) Lookup(fundKey string) domain.MatchResult {
	raw, ok := s.load().trails[fundKey]
	if !ok {
		return domain.NotFound()
	}
	return domain.MatchResult{Value: tabular.Decimal(raw), Raw: raw, Found: true}
}

// Funds returns the number of distinct fund keys in the sheet
func (s *CommissionSheet) Funds() int {
	return len(s.load().trails)
}

func (s *CommissionSheet) load() *trailIndex {
	s.once.Do(func() {
		idx := &trailIndex{headerRow: -1}
		s.index = idx

		row, ok := FindHeaderRow(s.rows, RequiredColumns)
		if !ok {
			return
		}
		idx.headerRow = row

		table := tabular.FromRows(s.Name, s.rows, row)
		table.MapColumns(normalize.ColumnName)

		fundCol := table.Index(normalize.ColumnName(config.FundNameColumn), nil)
		trailCol := trailColumn(table.Columns)
		if fundCol < 0 || trailCol < 0 {
			return
		}

		idx.trails = make(map[string]string, len(table.Rows))
		for _, r := range table.Rows {
			key := normalize.FundKey(r[fundCol])
			if key == "" {
				continue
			}
			if _, seen := idx.trails[key]; !seen {
				idx.trails[key] = strings.TrimSpace(r[trailCol])
			}
		}
	})
	return s.index
}

// FindHeaderRow returns the first of the leading config.HeaderScanRows rows
// whose normalized cells include every normalized required column.
func FindHeaderRow(rows [][]string, required []string) (int, bool) {
	want := make([]string, len(required))
	for i, c := range required {
		want[i] = normalize.ColumnName(c)
	}

	limit := min(config.HeaderScanRows, len(rows))
	for i := 0; i < limit; i++ {
		present := make(map[string]struct{}, len(rows[i]))
		for _, cell := range rows[i] {
			present[normalize.ColumnName(strings.TrimSpace(cell))] = struct{}{}
		}

		all := true
		for _, w := range want {
			if _, ok := present[w]; !ok {
				all = false
				break
			}
		}
		if all {
			return i, true
		}
	}
	return -1, false
}

// trailColumn returns the first normalized column naming the 1st-year trail
func trailColumn(columns []string) int {
	for i, c := range columns {
		all := true
		for _, kw := range config.TrailColumnKeywords {
			if !strings.Contains(c, kw) {
				all = false
				break
			}
		}
		if all {
			return i
		}
	}
	return -1
}
