package config

import (
	"time"

	"switchrecon/pkg/contracts"
)

// Application constants
const (
	AppName    = "switchrecon"
	AppVersion = contracts.Version
	EnvPrefix  = "SWITCHRECON"

	DefaultWorkDir      = "data/runs"
	DefaultRunRetention = 2 * time.Hour
	DefaultRunTimeout   = 15 * time.Minute
)

// Matching constants
const (
	// HeaderScanRows bounds the search for a commission sheet's header row.
	HeaderScanRows = 10

	// DefaultMatchThreshold is the minimum 0-100 similarity accepted by the
	// sheet resolver and the scheme classifier.
	DefaultMatchThreshold = 85.0

	// ExcludedBrokerCode marks primary rows with no distributable broker.
	ExcludedBrokerCode = "000000-0"

	// FundingFilePattern captures the month name from a payout file name.
	FundingFilePattern = `FundingSummary_([A-Za-z]+)\d{4}`
)

// FundingHeaderOffsets are the raw row indices tried, in order, as the header
// row of a payout file.
var FundingHeaderOffsets = []int{3, 4, 5}

// Brokerage commission sheet columns
const (
	FundNameColumn = "Name of the Fund"
	TrailColumn    = "Trail (% p.a.) 1st year"
)

// TrailColumnKeywords must all appear in a normalized column name for it to
// be read as the 1st-year trail rate.
var TrailColumnKeywords = []string{"trail", "1st", "year"}

// Primary input columns, after upper-casing
const (
	ColumnFolio      = "SWITCH_DETAILS_FOLIO_NO"
	ColumnBrokerCode = "TRADES_BROK_DLR_CODE"
	ColumnAmount     = "TRADES_AMOUNT"
	ColumnSwitchIn   = "LONG_NAME"
	ColumnSwitchOut  = "LONG_NAME1"
)

// Distributor rate files, after upper-casing
const (
	ColumnAgent        = "AGENT"
	ColumnRateCategory = "RATECATEGORY"
)

// Payout (funding summary) columns, matched exactly
const (
	FundingAgentColumn  = "AgentCode"
	FundingAmountColumn = "Net_Amount"
)
