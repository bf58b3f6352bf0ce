package exporter

import (
	"fmt"
	"strings"
)

// Format is an export file format
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// ParseFormat accepts a format name case-insensitively; empty means xlsx
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatXLSX:
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// Ext returns the file extension, dot included
func (f Format) Ext() string {
	return "." + string(f)
}

// ContentType returns the MIME type served for downloads
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
