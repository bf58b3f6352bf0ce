package reconcile

import (
	"time"

	"switchrecon/internal/infrastructure"
	"switchrecon/pkg/contracts/domain"
)

// ColumnCount is the number of non-empty values in one output column
type ColumnCount struct {
	Column   string `json:"column"`
	NonEmpty int    `json:"non_empty"`
}

// LookupCount tallies one trail lookup column
type LookupCount struct {
	Column   string `json:"column"`
	Found    int    `json:"found"`
	NotFound int    `json:"not_found"`
}

// FundingFile describes one merged payout file
type FundingFile struct {
	Label  string `json:"label"`
	File   string `json:"file"`
	Agents int    `json:"agents"`
}

// Summary is the run overview shown to users and written to the
// processing information sheet.
type Summary struct {
	TotalRecords         int            `json:"total_records"`
	TotalColumns         int            `json:"total_columns"`
	Highlighted          int            `json:"highlighted"`
	Columns              []ColumnCount  `json:"columns"`
	Lookups              []LookupCount  `json:"lookups"`
	Flags                map[string]int `json:"flags"`
	Funding              []FundingFile  `json:"funding,omitempty"`
	UnresolvedCategories []string       `json:"unresolved_categories,omitempty"`
	HeadlessSheets       []string       `json:"headless_sheets,omitempty"`
}

// Summarize counts the enriched records
func Summarize(records []domain.SwitchRecord, schema domain.RecordSchema, funding []domain.FundingRecord, highlighted int) Summary {
	cols := schema.Columns()
	s := Summary{
		TotalRecords: len(records),
		TotalColumns: len(cols),
		Highlighted:  highlighted,
		Columns:      make([]ColumnCount, len(cols)),
		Lookups: []LookupCount{
			{Column: domain.HeaderTrailIn},
			{Column: domain.HeaderTrailInPrev},
			{Column: domain.HeaderTrailOut},
		},
		Flags: map[string]int{
			domain.HeaderTrailIncrease:   0,
			domain.HeaderSwitchingRate:   0,
			domain.HeaderDirectToRegular: 0,
		},
	}
	for i, c := range cols {
		s.Columns[i].Column = c
	}

	for i := range records {
		r := &records[i]
		for c, col := range cols {
			if !r.Cell(col).Empty() {
				s.Columns[c].NonEmpty++
			}
		}
		for l, m := range []domain.MatchResult{r.TrailIn, r.TrailInPrev, r.TrailOut} {
			if m.Found {
				s.Lookups[l].Found++
			} else {
				s.Lookups[l].NotFound++
			}
		}
		if r.TrailIncrease.IsSet() {
			s.Flags[domain.HeaderTrailIncrease]++
		}
		if r.SwitchingRateCheck.IsSet() {
			s.Flags[domain.HeaderSwitchingRate]++
		}
		if r.DirectToRegular.IsSet() {
			s.Flags[domain.HeaderDirectToRegular]++
		}
	}

	for _, f := range funding {
		s.Funding = append(s.Funding, FundingFile{Label: f.Label, File: f.File, Agents: len(f.Amounts)})
	}
	return s
}

// metric label values for flags
var flagMetricNames = map[string]string{
	domain.HeaderTrailIncrease:   "TRAIL_INCREASE",
	domain.HeaderSwitchingRate:   "SWITCHING_RATE",
	domain.HeaderDirectToRegular: "DIRECT_TO_REGULAR",
}

func (s Summary) observation(d time.Duration, warnings int) infrastructure.RunObservation {
	obs := infrastructure.RunObservation{
		Duration: d,
		Success:  true,
		Records:  s.TotalRecords,
		Warnings: warnings,
		Lookups:  make(map[string][2]int, len(s.Lookups)),
		Flags:    make(map[string]int, len(s.Flags)),
	}
	for _, l := range s.Lookups {
		obs.Lookups[l.Column] = [2]int{l.Found, l.NotFound}
	}
	for header, n := range s.Flags {
		obs.Flags[flagMetricNames[header]] = n
	}
	return obs
}
