package merge

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"switchrecon/internal/config"
	apperrors "switchrecon/internal/errors"
	"switchrecon/internal/tabular"
	"switchrecon/pkg/contracts/domain"
)

var fundingNamePattern = regexp.MustCompile(config.FundingFilePattern)

var monthAbbreviations = map[string]string{
	"january":   "JAN",
	"february":  "FEB",
	"march":     "MAR",
	"april":     "APR",
	"may":       "MAY",
	"june":      "JUN",
	"july":      "JUL",
	"august":    "AUG",
	"september": "SEP",
	"october":   "OCT",
	"november":  "NOV",
	"december":  "DEC",
}

// FundingLabel derives the payout column label from a funding file name:
// the month abbreviation when the name carries FundingSummary_<Month><YYYY>,
// the upper-cased month token when the month is not recognised, and the file
// name itself otherwise.
func FundingLabel(fileName string) string {
	m := fundingNamePattern.FindStringSubmatch(fileName)
	if m == nil {
		return fileName
	}
	month := strings.ToLower(m[1])
	if abbr, ok := monthAbbreviations[month]; ok {
		return abbr
	}
	return strings.ToUpper(month)
}

// LoadFunding reads one payout file. The header row is searched at each of
// config.FundingHeaderOffsets; a file where none yields both AgentCode and
// Net_Amount (or that cannot be read at all) returns an unresolvable error
// and contributes nothing.
func LoadFunding(path string) (*domain.FundingRecord, *apperrors.AppError) {
	name := filepath.Base(path)

	raw, err := tabular.RawRows(path)
	if err != nil {
		appErr := apperrors.NewUnresolvableError(name, "payout file could not be read")
		appErr.Cause = err
		return nil, appErr
	}

	for _, offset := range config.FundingHeaderOffsets {
		table := tabular.FromRows(name, raw, offset)
		agentCol := table.Index(config.FundingAgentColumn, nil)
		amountCol := table.Index(config.FundingAmountColumn, nil)
		if agentCol < 0 || amountCol < 0 {
			continue
		}

		rec := &domain.FundingRecord{
			Label:   FundingLabel(name),
			File:    name,
			Amounts: make(map[string][]decimal.NullDecimal),
		}
		for _, row := range table.Rows {
			code := strings.TrimSpace(row[agentCol])
			if code == "" {
				continue
			}
			rec.Amounts[code] = append(rec.Amounts[code], tabular.Decimal(row[amountCol]))
		}
		return rec, nil
	}

	return nil, apperrors.NewUnresolvableError(name, "could not find header row in payout file").
		WithContext("offsets", config.FundingHeaderOffsets)
}
