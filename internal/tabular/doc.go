// Package tabular reads spreadsheet and delimited-text inputs into raw rows
// or header-sliced tables.
//
// Workbooks are read with excelize using raw cell values, so numeric cells
// come back unformatted. Files ending in .csv are read as comma-separated
// text. Callers decide where the header row is; FromRows only slices.
package tabular
