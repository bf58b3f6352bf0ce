package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Output column headers
const (
	HeaderFolio            = "FOLIO_NO"
	HeaderBrokerCode       = "TRADES_BROK_DLR_CODE"
	HeaderRateCategory     = "RATECATEGORY"
	HeaderRateCategoryPrev = "RATECATEGORY -Previous"
	HeaderAmount           = "TRADES_AMOUNT"
	HeaderSchemeTypeIn     = "Scheme Type Switch IN"
	HeaderSwitchIn         = "switch in"
	HeaderSwitchOut        = "switch out"
	HeaderSchemeTypeOut    = "Scheme Type Switch Out"
	HeaderTrailIn          = "switch in TRAIL_1ST_YEAR"
	HeaderTrailInPrev      = "switch in TRAIL_1ST_YEAR -Previous"
	HeaderTrailIncrease    = "previous < current switch in TRAIL_1ST_YEAR"
	HeaderTrailOut         = "switch out TRAIL_1ST_YEAR"
	HeaderSwitchingRate    = "switching rate check"
	HeaderDirectToRegular  = "Direct to Regular"

	// PayoutPrefix precedes the month label of each payout column
	PayoutPrefix = "PAYOUT "
)

// Cell is one rendered output value. Number is set for numeric cells so
// writers can keep them typed; Text holds everything else.
type Cell struct {
	Text   string
	Number decimal.NullDecimal
}

// TextCell wraps a string value
func TextCell(s string) Cell {
	return Cell{Text: s}
}

// NumberCell wraps an optional decimal; an absent value renders empty
func NumberCell(d decimal.NullDecimal) Cell {
	return Cell{Number: d}
}

// String renders the cell as text
func (c Cell) String() string {
	if c.Number.Valid {
		return c.Number.Decimal.String()
	}
	return c.Text
}

// Empty reports whether the cell renders as blank
func (c Cell) Empty() bool {
	return !c.Number.Valid && strings.TrimSpace(c.Text) == ""
}

// trailCell renders a lookup result: the number when the matched cell was
// numeric, its raw text otherwise.
func trailCell(m MatchResult) Cell {
	if m.Value.Valid {
		return NumberCell(m.Value)
	}
	return TextCell(m.Raw)
}

// Columns returns the output headers in order. Primary and rate-category
// columns are omitted when their source was absent; derived columns are
// always present.
func (s RecordSchema) Columns() []string {
	var cols []string
	add := func(present bool, header string) {
		if present {
			cols = append(cols, header)
		}
	}

	add(s.Folio, HeaderFolio)
	add(s.BrokerCode, HeaderBrokerCode)
	add(s.RateCategory, HeaderRateCategory)
	add(s.RateCategoryPrev, HeaderRateCategoryPrev)
	add(s.Amount, HeaderAmount)
	add(true, HeaderSchemeTypeIn)
	add(s.SwitchIn, HeaderSwitchIn)
	add(s.SwitchOut, HeaderSwitchOut)
	add(true, HeaderSchemeTypeOut)
	add(true, HeaderTrailIn)
	add(true, HeaderTrailInPrev)
	add(true, HeaderTrailIncrease)
	add(true, HeaderTrailOut)
	add(true, HeaderSwitchingRate)
	add(true, HeaderDirectToRegular)
	for _, label := range s.PayoutLabels {
		cols = append(cols, PayoutPrefix+label)
	}
	return cols
}

// Cell returns the value of the output column named header
func (r *SwitchRecord) Cell(header string) Cell {
	switch header {
	case HeaderFolio:
		return TextCell(r.Folio)
	case HeaderBrokerCode:
		return TextCell(r.BrokerCode)
	case HeaderRateCategory:
		return TextCell(r.RateCategory)
	case HeaderRateCategoryPrev:
		return TextCell(r.RateCategoryPrev)
	case HeaderAmount:
		return NumberCell(r.Amount)
	case HeaderSchemeTypeIn:
		return TextCell(r.SchemeTypeIn)
	case HeaderSwitchIn:
		return TextCell(r.SwitchIn)
	case HeaderSwitchOut:
		return TextCell(r.SwitchOut)
	case HeaderSchemeTypeOut:
		return TextCell(r.SchemeTypeOut)
	case HeaderTrailIn:
		return trailCell(r.TrailIn)
	case HeaderTrailInPrev:
		return trailCell(r.TrailInPrev)
	case HeaderTrailIncrease:
		return TextCell(string(r.TrailIncrease))
	case HeaderTrailOut:
		return trailCell(r.TrailOut)
	case HeaderSwitchingRate:
		return TextCell(string(r.SwitchingRateCheck))
	case HeaderDirectToRegular:
		return TextCell(string(r.DirectToRegular))
	}
	if label, ok := strings.CutPrefix(header, PayoutPrefix); ok {
		return NumberCell(r.Payout(label))
	}
	return Cell{}
}

// Row renders the record across cols
func (r *SwitchRecord) Row(cols []string) []Cell {
	out := make([]Cell, len(cols))
	for i, c := range cols {
		out[i] = r.Cell(c)
	}
	return out
}
