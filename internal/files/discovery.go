package files

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "switchrecon/internal/errors"
	"switchrecon/internal/infrastructure"
	"switchrecon/internal/reconcile"
)

// supportedExts are the tabular file types a run can read
var supportedExts = map[string]bool{".csv": true, ".xlsx": true, ".xlsm": true}

// roleRules map file-name fragments to input roles, first match wins. The
// previous-month rule precedes the distributor rule since both kinds of
// file usually mention the distributor.
var roleRules = []struct {
	role      string
	fragments []string
}{
	{reconcile.RoleFunding, []string{"fundingsummary", "payout"}},
	{reconcile.RoleBrokerage, []string{"brokerage", "commission"}},
	{reconcile.RoleSchemeMaster, []string{"scheme"}},
	{reconcile.RolePrevious, []string{"previous", "prev_", "prev-", "prev "}},
	{reconcile.RoleCurrent, []string{"distributor", "empanel", "impanel", "ratecategory"}},
	{reconcile.RolePrimary, []string{"switch"}},
}

// ClassifyName returns the input role suggested by a file name, or "" when
// the name matches no role or is not a supported tabular file.
func ClassifyName(name string) string {
	base := filepath.Base(name)
	if strings.HasPrefix(base, "~$") || strings.HasPrefix(base, ".") {
		return ""
	}
	ext := strings.ToLower(filepath.Ext(base))
	if !supportedExts[ext] {
		return ""
	}
	stem := strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
	for _, rule := range roleRules {
		for _, frag := range rule.fragments {
			if strings.Contains(stem, frag) {
				return rule.role
			}
		}
	}
	return ""
}

// Discovered is the outcome of scanning an input directory
type Discovered struct {
	Inputs  reconcile.Inputs
	Ignored []string
}

// Discovery assigns the files of a directory to input roles by name
type Discovery struct {
	logger *slog.Logger
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(logger *slog.Logger) *Discovery {
	return &Discovery{logger: infrastructure.WithComponent(logger, "discovery")}
}

// Discover classifies every file directly under dir. Exactly one primary
// file is required and at most one scheme master is allowed; files whose
// role cannot be told from the name are reported as ignored.
func (d *Discovery) Discover(dir string) (*Discovered, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	out := &Discovered{}
	var primaries, masters []string
	in := &out.Inputs
	for _, name := range names {
		path := filepath.Join(dir, name)
		switch ClassifyName(name) {
		case reconcile.RolePrimary:
			primaries = append(primaries, path)
		case reconcile.RoleCurrent:
			in.Current = append(in.Current, path)
		case reconcile.RolePrevious:
			in.Previous = append(in.Previous, path)
		case reconcile.RoleFunding:
			in.Funding = append(in.Funding, path)
		case reconcile.RoleBrokerage:
			in.Brokerage = append(in.Brokerage, path)
		case reconcile.RoleSchemeMaster:
			masters = append(masters, path)
		default:
			out.Ignored = append(out.Ignored, name)
		}
	}

	switch len(primaries) {
	case 0:
		return nil, apperrors.NewMissingInputError("primary switch file").WithContext("dir", dir)
	case 1:
		in.Primary = primaries[0]
	default:
		return nil, apperrors.NewAppValidationError(
			fmt.Sprintf("found %d primary switch files, expected one", len(primaries))).
			WithContext("files", baseNames(primaries))
	}
	if len(masters) > 1 {
		return nil, apperrors.NewAppValidationError(
			fmt.Sprintf("found %d scheme master files, expected at most one", len(masters))).
			WithContext("files", baseNames(masters))
	}
	if len(masters) == 1 {
		in.SchemeMaster = masters[0]
	}

	d.logger.Info("inputs discovered",
		slog.String("dir", dir),
		slog.String("primary", filepath.Base(in.Primary)),
		slog.Int("current", len(in.Current)),
		slog.Int("previous", len(in.Previous)),
		slog.Int("funding", len(in.Funding)),
		slog.Int("brokerage", len(in.Brokerage)),
		slog.Bool("scheme_master", in.SchemeMaster != ""),
		slog.Any("ignored", out.Ignored))
	return out, nil
}

func baseNames(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	return out
}
