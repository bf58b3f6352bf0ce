package domain

import (
	"github.com/shopspring/decimal"
)

// Flag is the two-valued marker used for derived review columns
type Flag string

const (
	FlagCheck Flag = "check"
	FlagBlank Flag = ""
)

// FlagIf returns FlagCheck when cond holds
func FlagIf(cond bool) Flag {
	if cond {
		return FlagCheck
	}
	return FlagBlank
}

// IsSet reports whether the flag is raised
func (f Flag) IsSet() bool {
	return f == FlagCheck
}

// Match status labels
const (
	StatusFound    = "Found"
	StatusNotFound = "Not Found"
)

// MatchResult is the outcome of a trail lookup. Found mirrors whether a
// commission row matched; Value is absent when the matched cell is empty or
// not numeric, in which case Raw keeps the cell text.
type MatchResult struct {
	Value decimal.NullDecimal `json:"value"`
	Raw   string              `json:"raw,omitempty"`
	Found bool                `json:"found"`
}

// NotFound is the empty lookup result
func NotFound() MatchResult {
	return MatchResult{}
}

// Status returns the Found/Not Found label
func (m MatchResult) Status() string {
	if m.Found {
		return StatusFound
	}
	return StatusNotFound
}

// SwitchRecord is one switch-in/switch-out transaction row with every
// column derived during reconciliation.
type SwitchRecord struct {
	Folio            string              `json:"folio,omitempty"`
	BrokerCode       string              `json:"broker_code"`
	Amount           decimal.NullDecimal `json:"amount"`
	SwitchIn         string              `json:"switch_in"`
	SwitchOut        string              `json:"switch_out"`
	RateCategory     string              `json:"rate_category,omitempty"`
	RateCategoryPrev string              `json:"rate_category_previous,omitempty"`

	// Payouts is keyed by month label; the label order lives on RecordSchema.
	Payouts map[string]decimal.NullDecimal `json:"payouts,omitempty"`

	SchemeTypeIn  string      `json:"scheme_type_in"`
	SchemeTypeOut string      `json:"scheme_type_out"`
	TrailIn       MatchResult `json:"trail_in"`
	TrailInPrev   MatchResult `json:"trail_in_previous"`
	TrailOut      MatchResult `json:"trail_out"`

	TrailIncrease      Flag `json:"trail_increase"`
	SwitchingRateCheck Flag `json:"switching_rate_check"`
	DirectToRegular    Flag `json:"direct_to_regular"`
}

// Payout returns the payout under label, absent when the agent had none
func (r *SwitchRecord) Payout(label string) decimal.NullDecimal {
	if r.Payouts == nil {
		return decimal.NullDecimal{}
	}
	return r.Payouts[label]
}

// RecordSchema records which source columns were available for a run.
// Columns whose source is absent are omitted from every output.
type RecordSchema struct {
	Folio            bool     `json:"folio"`
	BrokerCode       bool     `json:"broker_code"`
	Amount           bool     `json:"amount"`
	SwitchIn         bool     `json:"switch_in"`
	SwitchOut        bool     `json:"switch_out"`
	RateCategory     bool     `json:"rate_category"`
	RateCategoryPrev bool     `json:"rate_category_previous"`
	PayoutLabels     []string `json:"payout_labels"`
}

// FundingRecord is the agent code to net payout mapping of one payout file.
// An agent listed more than once keeps every amount in file order.
type FundingRecord struct {
	Label   string                           `json:"label"`
	File    string                           `json:"file"`
	Amounts map[string][]decimal.NullDecimal `json:"-"`
}

// Warning is a non-fatal input problem reported with a run's result
type Warning struct {
	Kind    string `json:"kind"`
	Source  string `json:"source"`
	Message string `json:"message"`
}

// ProgressFunc receives the completed fraction of a run and a stage label
type ProgressFunc func(fraction float64, message string)
