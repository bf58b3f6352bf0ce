// Package rules derives the review flags of a switch record from its own
// enriched columns.
package rules

import (
	"strings"

	"github.com/shopspring/decimal"

	"switchrecon/internal/normalize"
	"switchrecon/pkg/contracts/domain"
)

// equitySchemeType is the scheme classification both legs of a
// direct-to-regular switch must carry.
const equitySchemeType = "equity funds"

// Derive sets the three flags on rec. Absent or non-numeric trail values
// never raise a flag.
func Derive(rec *domain.SwitchRecord) {
	rec.TrailIncrease = domain.FlagIf(TrailIncrease(rec.TrailIn, rec.TrailInPrev))
	rec.SwitchingRateCheck = domain.FlagIf(SwitchingRate(rec))
	rec.DirectToRegular = domain.FlagIf(DirectToRegular(rec))
}

// TrailIncrease reports whether the current switch-in trail exceeds the
// previous month's.
func TrailIncrease(current, previous domain.MatchResult) bool {
	return greater(current.Value, previous.Value)
}

// SwitchingRate reports whether the switch-in trail exceeds the switch-out
// trail.
func SwitchingRate(rec *domain.SwitchRecord) bool {
	return greater(rec.TrailIn.Value, rec.TrailOut.Value)
}

// DirectToRegular reports a switch from the direct plan to the regular plan
// of the same equity fund.
func DirectToRegular(rec *domain.SwitchRecord) bool {
	if !isEquity(rec.SchemeTypeIn) || !isEquity(rec.SchemeTypeOut) {
		return false
	}
	if !strings.Contains(strings.ToLower(rec.SwitchIn), "regular") ||
		!strings.Contains(strings.ToLower(rec.SwitchOut), "direct") {
		return false
	}
	return normalize.FundKey(rec.SwitchIn) == normalize.FundKey(rec.SwitchOut)
}

func isEquity(schemeType string) bool {
	return strings.ToLower(strings.TrimSpace(schemeType)) == equitySchemeType
}

func greater(a, b decimal.NullDecimal) bool {
	return a.Valid && b.Valid && a.Decimal.GreaterThan(b.Decimal)
}
