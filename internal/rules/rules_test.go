package rules

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"switchrecon/pkg/contracts/domain"
)

func trail(raw string) domain.MatchResult {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return domain.MatchResult{Raw: raw, Found: true}
	}
	return domain.MatchResult{Value: decimal.NewNullDecimal(d), Raw: raw, Found: true}
}

func TestTrailIncrease(t *testing.T) {
	tests := []struct {
		name     string
		current  domain.MatchResult
		previous domain.MatchResult
		want     bool
	}{
		{"increase", trail("0.75"), trail("0.50"), true},
		{"equal", trail("0.50"), trail("0.50"), false},
		{"decrease", trail("0.40"), trail("0.50"), false},
		{"non-numeric current", trail("NIL"), trail("0.50"), false},
		{"previous not found", trail("0.75"), domain.NotFound(), false},
		{"both absent", domain.NotFound(), domain.NotFound(), false},
		{"trailing zeros compare numerically", trail("1.000"), trail("0.9"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TrailIncrease(tt.current, tt.previous))

			rec := &domain.SwitchRecord{TrailIn: tt.current, TrailInPrev: tt.previous}
			Derive(rec)
			assert.Equal(t, domain.FlagIf(tt.want), rec.TrailIncrease)
		})
	}
}

func TestSwitchingRate(t *testing.T) {
	tests := []struct {
		name string
		in   domain.MatchResult
		out  domain.MatchResult
		want domain.Flag
	}{
		{"in higher", trail("1.10"), trail("0.80"), domain.FlagCheck},
		{"in lower", trail("0.60"), trail("0.80"), domain.FlagBlank},
		{"out missing", trail("1.10"), domain.NotFound(), domain.FlagBlank},
		{"in blank cell", domain.MatchResult{Found: true}, trail("0.10"), domain.FlagBlank},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &domain.SwitchRecord{TrailIn: tt.in, TrailOut: tt.out}
			Derive(rec)
			assert.Equal(t, tt.want, rec.SwitchingRateCheck)
		})
	}
}

func TestDirectToRegular(t *testing.T) {
	base := domain.SwitchRecord{
		SwitchIn:      "ABC Flexi Cap Fund - Regular Plan Growth",
		SwitchOut:     "ABC Flexi Cap Fund - Direct Plan Growth",
		SchemeTypeIn:  "Equity Funds",
		SchemeTypeOut: " equity funds ",
	}

	tests := []struct {
		name   string
		mutate func(r *domain.SwitchRecord)
		want   bool
	}{
		{"direct to regular of same fund", func(r *domain.SwitchRecord) {}, true},
		{"in leg not equity", func(r *domain.SwitchRecord) { r.SchemeTypeIn = "Debt Funds" }, false},
		{"out leg unclassified", func(r *domain.SwitchRecord) { r.SchemeTypeOut = "" }, false},
		{"in name not regular", func(r *domain.SwitchRecord) { r.SwitchIn = "ABC Flexi Cap Fund - Growth" }, false},
		{"out name not direct", func(r *domain.SwitchRecord) { r.SwitchOut = "ABC Flexi Cap Fund - Regular Plan" }, false},
		{"different funds", func(r *domain.SwitchRecord) { r.SwitchOut = "XYZ Midcap Fund - Direct Plan" }, false},
		{"regular to direct", func(r *domain.SwitchRecord) {
			r.SwitchIn, r.SwitchOut = r.SwitchOut, r.SwitchIn
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := base
			tt.mutate(&rec)
			assert.Equal(t, tt.want, DirectToRegular(&rec))

			Derive(&rec)
			assert.Equal(t, tt.want, rec.DirectToRegular.IsSet())
		})
	}
}

func TestDeriveClearsStaleFlags(t *testing.T) {
	rec := &domain.SwitchRecord{
		TrailIncrease:      domain.FlagCheck,
		SwitchingRateCheck: domain.FlagCheck,
		DirectToRegular:    domain.FlagCheck,
	}
	Derive(rec)

	assert.Equal(t, domain.FlagBlank, rec.TrailIncrease)
	assert.Equal(t, domain.FlagBlank, rec.SwitchingRateCheck)
	assert.Equal(t, domain.FlagBlank, rec.DirectToRegular)
}
