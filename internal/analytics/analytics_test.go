package analytics

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"switchrecon/pkg/contracts/domain"
)

func amount(v string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(v))
}

func found(v string) domain.MatchResult {
	return domain.MatchResult{Value: amount(v), Raw: v, Found: true}
}

func render(rows [][]domain.Cell) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = make([]string, len(row))
		for j, c := range row {
			out[i][j] = c.String()
		}
	}
	return out
}

var fullSchema = domain.RecordSchema{
	Folio: true, BrokerCode: true, Amount: true, SwitchIn: true, SwitchOut: true,
	PayoutLabels: []string{"MAR"},
}

func sampleRecords() []domain.SwitchRecord {
	return []domain.SwitchRecord{
		{
			Folio: "F2", BrokerCode: "ARN-1", Amount: amount("100"), SwitchIn: "Fund B", SwitchOut: "Fund X",
			TrailIn: found("0.9"), TrailInPrev: found("0.5"), TrailOut: found("0.4"),
			SchemeTypeIn: "Equity Funds",
			Payouts:       map[string]decimal.NullDecimal{"MAR": amount("10")},
			TrailIncrease: domain.FlagCheck, SwitchingRateCheck: domain.FlagCheck,
		},
		{
			Folio: "F1", BrokerCode: "ARN-1", Amount: amount("50"), SwitchIn: "Fund A", SwitchOut: "Fund X",
			TrailIn: found("0.8"), TrailInPrev: found("0.6"),
			TrailIncrease: domain.FlagCheck,
		},
		{
			Folio: "F2", BrokerCode: "ARN-1", Amount: amount("25.5"), SwitchIn: "Fund B", SwitchOut: "Fund Y",
			TrailIn: found("0.9"), TrailInPrev: found("0.5"), TrailOut: found("0.3"),
			SchemeTypeIn: "Equity Funds", SchemeTypeOut: "Equity Funds",
			Payouts:       map[string]decimal.NullDecimal{"MAR": amount("5")},
			TrailIncrease: domain.FlagCheck, SwitchingRateCheck: domain.FlagCheck, DirectToRegular: domain.FlagCheck,
		},
		{
			Folio: "F3", BrokerCode: "ARN-2", Amount: amount("999"), SwitchIn: "Fund C",
		},
		{
			Folio: "", BrokerCode: "ARN-3", Amount: amount("1"), SwitchIn: "Fund D",
			TrailIncrease: domain.FlagCheck,
		},
	}
}

func TestTrailIncrease(t *testing.T) {
	s := TrailIncrease(sampleRecords(), fullSchema)

	assert.Equal(t, SheetTrailIncrease, s.Sheet)
	assert.Equal(t, "Distributor wise Analytics", s.Title)
	assert.Equal(t, "previous < current switch in TRAIL_1ST_YEAR", s.Subtitle)
	assert.Equal(t, []string{
		"FOLIO_NO", "ARN", "Switch In Scheme Name", "TRADES_AMOUNT(sum)",
		"switch in TRAIL_1ST_YEAR (CURRENT)", "switch in TRAIL_1ST_YEAR -Previous",
		"PAYOUT MAR", "Scheme Type Switch IN", "Scheme Type Switch Out",
	}, s.Columns)

	assert.Equal(t, [][]string{
		{"F1", "ARN-1", "Fund A", "50", "0.8", "0.6", "0", "", ""},
		{"F2", "ARN-1", "Fund B", "125.5", "0.9", "0.5", "15", "Equity Funds", "Equity Funds"},
	}, render(s.Rows), "blank folio rows are dropped and groups are sorted")
}

func TestTrailIncrease_WithoutFolio(t *testing.T) {
	schema := domain.RecordSchema{BrokerCode: true, SwitchIn: true}
	s := TrailIncrease(sampleRecords(), schema)

	assert.Equal(t, []string{
		"ARN", "Switch In Scheme Name",
		"switch in TRAIL_1ST_YEAR (CURRENT)", "switch in TRAIL_1ST_YEAR -Previous",
		"Scheme Type Switch IN", "Scheme Type Switch Out",
	}, s.Columns)
	require.Len(t, s.Rows, 3)
	assert.Equal(t, []string{"ARN-3", "Fund D", "", "", "", ""}, render(s.Rows)[2])
}

func TestSwitchingRate(t *testing.T) {
	s := SwitchingRate(sampleRecords(), fullSchema)

	assert.Equal(t, "Switching Rate Analytics", s.Title)
	assert.Equal(t, []string{
		"FOLIO_NO", "ARN", "Switch In Scheme Name", "Switch OUT Scheme Name", "TRADES_AMOUNT(sum)",
		"switch in TRAIL_1ST_YEAR", "switch OUT TRAIL_1ST_YEAR", "switching rate check",
		"PAYOUT MAR", "Scheme Type Switch IN", "Scheme Type Switch Out",
	}, s.Columns)
	assert.Equal(t, [][]string{
		{"F2", "ARN-1", "Fund B", "Fund X", "100", "0.9", "0.4", "check", "10", "Equity Funds", ""},
		{"F2", "ARN-1", "Fund B", "Fund Y", "25.5", "0.9", "0.3", "check", "5", "Equity Funds", "Equity Funds"},
	}, render(s.Rows))
}

func TestDirectToRegular(t *testing.T) {
	s := DirectToRegular(sampleRecords(), fullSchema)

	assert.Equal(t, "Direct to Regular", s.Subtitle)
	assert.Equal(t, []string{
		"FOLIO_NO", "ARN", "Switch In Scheme Name", "Switch OUT Scheme Name",
		"TRADES_AMOUNT(sum)", "PAYOUT MAR", "Scheme Type Switch IN", "Scheme Type Switch Out",
	}, s.Columns)
	assert.Equal(t, [][]string{
		{"F2", "ARN-1", "Fund B", "Fund Y", "25.5", "5", "Equity Funds", "Equity Funds"},
	}, render(s.Rows))
}

func TestBuild(t *testing.T) {
	withFolio := Build(sampleRecords(), fullSchema)
	require.Len(t, withFolio, 3)
	assert.Equal(t, []string{SheetTrailIncrease, SheetSwitchingRate, SheetDirectToRegular},
		[]string{withFolio[0].Sheet, withFolio[1].Sheet, withFolio[2].Sheet})

	noFolio := Build(sampleRecords(), domain.RecordSchema{BrokerCode: true, SwitchIn: true})
	require.Len(t, noFolio, 1)

	empty := Build(nil, fullSchema)
	require.Len(t, empty, 3)
	assert.Empty(t, empty[0].Rows)
}
