// Package shared holds helpers used by tests across packages.
//
// The testutil subpackage captures slog output through a buffered handler
// and writes small CSV and xlsx input fixtures:
//
//	logger, logs := testutil.NewTestLogger(t)
//	primary := testutil.WriteCSV(t, dir, "switch.csv", rows...)
//
// Nothing here is imported by production code.
package shared
