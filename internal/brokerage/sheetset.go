package brokerage

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"switchrecon/internal/fuzzy"
	"switchrecon/internal/tabular"
)

// SheetSet is the immutable, ordered collection of commission sheets keyed
// by cleaned sheet name.
type SheetSet struct {
	keys   []string
	sheets map[string]*CommissionSheet
}

// NewSheetSet builds a set from sheets in order. When two sheets clean to
// the same key the first one is kept.
func NewSheetSet(sheets ...*CommissionSheet) *SheetSet {
	s := &SheetSet{sheets: make(map[string]*CommissionSheet, len(sheets))}
	for _, sheet := range sheets {
		if _, exists := s.sheets[sheet.Key]; exists {
			continue
		}
		s.sheets[sheet.Key] = sheet
		s.keys = append(s.keys, sheet.Key)
	}
	return s
}

// LoadSheets reads every sheet of every workbook in paths, in order.
func LoadSheets(paths []string, logger *slog.Logger) (*SheetSet, error) {
	var all []*CommissionSheet
	for _, path := range paths {
		sheets, err := tabular.ReadWorkbook(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load brokerage workbook: %w", err)
		}
		for _, sh := range sheets {
			all = append(all, NewCommissionSheet(sh.Name, filepath.Base(path), sh.Rows))
		}
		logger.Debug("brokerage workbook loaded",
			slog.String("file", filepath.Base(path)),
			slog.Int("sheets", len(sheets)))
	}

	set := NewSheetSet(all...)
	if dropped := len(all) - set.Len(); dropped > 0 {
		logger.Info("duplicate commission sheet names ignored",
			slog.Int("kept", set.Len()),
			slog.Int("ignored", dropped))
	}
	return set, nil
}

// Len returns the number of distinct sheets
func (s *SheetSet) Len() int {
	return len(s.keys)
}

// Keys returns the sheet keys in insertion order
func (s *SheetSet) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Get returns the sheet stored under key
func (s *SheetSet) Get(key string) (*CommissionSheet, bool) {
	sheet, ok := s.sheets[key]
	return sheet, ok
}

// FindBestSheet returns the key most similar to the cleaned rate category,
// provided its score reaches threshold. Equal scores keep the first key seen.
func (s *SheetSet) FindBestSheet(category string, threshold float64) (string, bool) {
	m, ok := fuzzy.ExtractOne(category, s.keys, fuzzy.Ratio, threshold)
	if !ok {
		return "", false
	}
	return m.Choice, true
}
