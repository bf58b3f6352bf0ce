package brokerage

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"switchrecon/internal/infrastructure"
	"switchrecon/internal/normalize"
	"switchrecon/pkg/contracts/domain"
)

// TrailMatcher answers "what is the 1st-year trail rate of fund F under
// rate category R". The sheet is resolved fuzzily from the category; the
// fund is then matched exactly within that sheet.
//
// It is safe for concurrent use; resolved categories are memoized.
type TrailMatcher struct {
	sheets    *SheetSet
	threshold float64
	logger    *slog.Logger

	mu       sync.Mutex
	resolved map[string]string // cleaned category -> sheet key ("" when unresolved)
	headless map[string]bool
}

// NewTrailMatcher creates a matcher over sheets
func NewTrailMatcher(sheets *SheetSet, threshold float64, logger *slog.Logger) *TrailMatcher {
	return &TrailMatcher{
		sheets:    sheets,
		threshold: threshold,
		logger:    infrastructure.WithComponent(logger, "trail_matcher"),
		resolved:  make(map[string]string),
		headless:  make(map[string]bool),
	}
}

// FindTrail looks up the trail rate for fundName under rateCategory.
// Missing inputs, an unresolvable category, a sheet without a recognizable
// header and an unknown fund all yield a not-found result.
func (m *TrailMatcher) FindTrail(fundName, rateCategory string) domain.MatchResult {
	if strings.TrimSpace(fundName) == "" || strings.TrimSpace(rateCategory) == "" {
		return domain.NotFound()
	}

	key, ok := m.resolve(normalize.CleanText(rateCategory))
	if !ok {
		return domain.NotFound()
	}

	sheet, _ := m.sheets.Get(key)
	if _, ok := sheet.HeaderRow(); !ok {
		m.reportHeadless(sheet)
		return domain.NotFound()
	}

	return sheet.Lookup(normalize.FundKey(fundName))
}

// UnresolvedCategories lists, sorted, the cleaned rate categories seen so
// far that matched no sheet.
func (m *TrailMatcher) UnresolvedCategories() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []string
	for cat, key := range m.resolved {
		if key == "" {
			out = append(out, cat)
		}
	}
	sort.Strings(out)
	return out
}

// HeadlessSheets lists, sorted, the resolved sheets whose header row could
// not be located.
func (m *TrailMatcher) HeadlessSheets() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.headless))
	for name := range m.headless {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (m *TrailMatcher) resolve(category string) (string, bool) {
	m.mu.Lock()
	key, seen := m.resolved[category]
	m.mu.Unlock()
	if seen {
		return key, key != ""
	}

	key, ok := m.sheets.FindBestSheet(category, m.threshold)

	m.mu.Lock()
	m.resolved[category] = key
	m.mu.Unlock()

	if !ok {
		m.logger.Debug("rate category matched no commission sheet",
			slog.String("category", category),
			slog.Float64("threshold", m.threshold))
	}
	return key, ok
}

func (m *TrailMatcher) reportHeadless(sheet *CommissionSheet) {
	m.mu.Lock()
	already := m.headless[sheet.Name]
	m.headless[sheet.Name] = true
	m.mu.Unlock()

	if !already {
		m.logger.Warn("commission sheet header not found",
			slog.String("sheet", sheet.Name),
			slog.String("file", sheet.Source))
	}
}
