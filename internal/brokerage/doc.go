// Package brokerage resolves commission sheets and reads 1st-year trail
// rates from them.
//
// A rate category is matched to a sheet by character similarity of cleaned
// names (normalize.CleanText) with a configurable cutoff. Within the chosen
// sheet the header row is located by scanning the leading rows for the fund
// name and trail columns, and funds are matched exactly on their core name
// key (normalize.FundKey).
package brokerage
