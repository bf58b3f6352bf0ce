package scheme

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"switchrecon/internal/normalize"
	"switchrecon/internal/tabular"
)

// Master file columns, after normalize.ColumnName
const (
	columnScheme     = "scheme"
	columnSchemeType = "schemetype"
)

// ErrMissingColumns reports a master file without scheme/schemetype columns
var ErrMissingColumns = errors.New("scheme master lacks scheme and schemetype columns")

// Lookup maps fund keys (normalize.FundKey) to scheme types. Keys keep their
// first-insertion order; a repeated key takes the last value written.
type Lookup struct {
	keys  []string
	types map[string]string
}

// NewLookup returns an empty lookup
func NewLookup() *Lookup {
	return &Lookup{types: make(map[string]string)}
}

// Add records the scheme type of fundName. Names that normalize to an empty
// key are ignored.
func (l *Lookup) Add(fundName, schemeType string) {
	key := normalize.FundKey(fundName)
	if key == "" {
		return
	}
	if _, exists := l.types[key]; !exists {
		l.keys = append(l.keys, key)
	}
	l.types[key] = strings.TrimSpace(schemeType)
}

// Get returns the scheme type stored under key
func (l *Lookup) Get(key string) (string, bool) {
	v, ok := l.types[key]
	return v, ok
}

// Keys returns the fund keys in insertion order
func (l *Lookup) Keys() []string {
	out := make([]string, len(l.keys))
	copy(out, l.keys)
	return out
}

// Len returns the number of distinct keys
func (l *Lookup) Len() int {
	if l == nil {
		return 0
	}
	return len(l.keys)
}

// LoadLookup builds a lookup from a scheme master file. A readable file
// without the required columns yields an empty lookup and ErrMissingColumns.
func LoadLookup(path string, logger *slog.Logger) (*Lookup, error) {
	table, err := tabular.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load scheme master: %w", err)
	}
	table.MapColumns(normalize.ColumnName)

	lookup := NewLookup()
	schemeCol := table.Index(columnScheme, nil)
	typeCol := table.Index(columnSchemeType, nil)
	if schemeCol < 0 || typeCol < 0 {
		return lookup, fmt.Errorf("%s: %w", filepath.Base(path), ErrMissingColumns)
	}

	for _, row := range table.Rows {
		lookup.Add(row[schemeCol], row[typeCol])
	}

	logger.Info("scheme master loaded",
		slog.String("file", filepath.Base(path)),
		slog.Int("rows", len(table.Rows)),
		slog.Int("entries", lookup.Len()))
	return lookup, nil
}
