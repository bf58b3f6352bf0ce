package tabular

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Decimal parses a spreadsheet cell as a number. Thousands separators are
// ignored; empty or non-numeric cells yield an absent value.
func Decimal(cell string) decimal.NullDecimal {
	s := strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// FormatDecimal renders an optional number; absent values render empty
func FormatDecimal(v decimal.NullDecimal) string {
	if !v.Valid {
		return ""
	}
	return v.Decimal.String()
}
