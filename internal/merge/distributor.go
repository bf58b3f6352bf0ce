package merge

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"switchrecon/internal/config"
	apperrors "switchrecon/internal/errors"
	"switchrecon/internal/tabular"
)

// CategoryIndex maps an agent code to every rate category listed for it,
// across all files of one role, in file then row order.
type CategoryIndex struct {
	values map[string][]string
	files  int
}

// Files returns how many files contributed rows
func (c *CategoryIndex) Files() int {
	return c.files
}

// Lookup returns the categories listed for code
func (c *CategoryIndex) Lookup(code string) []string {
	return c.values[code]
}

// Duplicates returns the number of agent codes listed more than once
func (c *CategoryIndex) Duplicates() int {
	n := 0
	for _, v := range c.values {
		if len(v) > 1 {
			n++
		}
	}
	return n
}

// LoadCategories reads distributor rate files. A file without both AGENT and
// RATECATEGORY columns is skipped with an optional-source warning; a file
// that cannot be read aborts the load.
func LoadCategories(paths []string, logger *slog.Logger) (*CategoryIndex, []*apperrors.AppError, error) {
	index := &CategoryIndex{values: make(map[string][]string)}
	var warnings []*apperrors.AppError

	for _, path := range paths {
		name := filepath.Base(path)
		table, err := tabular.ReadFile(path)
		if err != nil {
			return nil, warnings, apperrors.NewCatastrophicError("failed to read distributor file", err).
				WithContext("source", name)
		}
		table.MapColumns(strings.ToUpper)

		agentCol := table.Index(config.ColumnAgent, nil)
		categoryCol := table.Index(config.ColumnRateCategory, nil)
		if agentCol < 0 || categoryCol < 0 {
			warnings = append(warnings, apperrors.NewOptionalSourceError(name,
				fmt.Sprintf("no %s and %s columns; file skipped", config.ColumnAgent, config.ColumnRateCategory)))
			continue
		}

		rows := 0
		for _, row := range table.Rows {
			code := strings.TrimSpace(row[agentCol])
			if code == "" {
				continue
			}
			index.values[code] = append(index.values[code], strings.TrimSpace(row[categoryCol]))
			rows++
		}
		index.files++

		logger.Debug("distributor file loaded",
			slog.String("file", name),
			slog.Int("rows", rows))
	}
	return index, warnings, nil
}
