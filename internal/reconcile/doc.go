// Package reconcile runs one switch reconciliation end to end: it merges the
// transaction export with the distributor, payout and brokerage inputs,
// looks up trail rates and scheme types for every record, derives the
// review flags and summarises the outcome.
//
// The Engine is stateless between runs. Enrichment fans out over a bounded
// worker pool; each record is written by exactly one worker.
package reconcile
