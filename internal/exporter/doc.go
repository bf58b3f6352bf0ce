// Package exporter writes reconciliation results to files.
//
// WorkbookWriter produces the xlsx report: the "Extracted Data" record sheet
// with highlighted rows and changed rate categories filled, one sheet per
// analytics summary, and a "Processing Information" sheet listing the
// inputs, their digests, counts and warnings.
//
// CSVWriter writes the record sheet alone, prefixed with a UTF-8 BOM so
// spreadsheet applications pick the right encoding.
package exporter
