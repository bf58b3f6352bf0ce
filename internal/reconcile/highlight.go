package reconcile

import (
	"strings"

	"switchrecon/pkg/contracts/domain"
)

// Highlight returns the indices of records whose switch-in name contains
// in and whose switch-out name contains out, case-insensitively. Nothing
// is highlighted unless both filters are non-blank.
func Highlight(records []domain.SwitchRecord, in, out string) []int {
	in = strings.ToLower(strings.TrimSpace(in))
	out = strings.ToLower(strings.TrimSpace(out))
	if in == "" || out == "" {
		return nil
	}

	var idx []int
	for i := range records {
		if strings.Contains(strings.ToLower(records[i].SwitchIn), in) &&
			strings.Contains(strings.ToLower(records[i].SwitchOut), out) {
			idx = append(idx, i)
		}
	}
	return idx
}
