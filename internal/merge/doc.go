// Package merge builds the base switch record set of a run.
//
// The primary file is projected onto SwitchRecord through a RecordBuilder
// that tolerates missing columns. Current and previous distributor rate
// files and the monthly payout files are then left-joined onto it by broker
// code. A code listed more than once in a secondary source repeats the
// matching records, and the repetition is reported as a warning.
package merge
