package merge

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "switchrecon/internal/errors"
	"switchrecon/internal/infrastructure"
	"switchrecon/internal/tabular"
	"switchrecon/pkg/contracts/domain"
)

// Sources lists the files of one run by role
type Sources struct {
	Primary  string
	Current  []string
	Previous []string
	Funding  []string
}

// Dataset is the joined base record set handed to enrichment
type Dataset struct {
	Records  []domain.SwitchRecord
	Schema   domain.RecordSchema
	Funding  []domain.FundingRecord
	Warnings []domain.Warning
}

// Pipeline loads the primary file and left-joins every secondary source
// onto it by broker code.
type Pipeline struct {
	logger *slog.Logger
}

// NewPipeline creates a merge pipeline
func NewPipeline(logger *slog.Logger) *Pipeline {
	return &Pipeline{logger: infrastructure.WithComponent(logger, "merge_pipeline")}
}

// Run builds the dataset. A missing primary input or an unreadable primary
// or distributor file is fatal; every other problem becomes a warning.
func (p *Pipeline) Run(ctx context.Context, src Sources, progress domain.ProgressFunc) (*Dataset, error) {
	if progress == nil {
		progress = func(float64, string) {}
	}

	progress(0.05, "Reading input file")
	ds, err := p.loadPrimary(src.Primary)
	if err != nil {
		return nil, err
	}
	progress(0.15, "Processing columns")

	if len(src.Current) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		progress(0.25, "Merging distributor files")
		if err := p.joinCategories(ds, src.Current, "current", func(r *domain.SwitchRecord, v string) {
			r.RateCategory = v
		}); err != nil {
			return nil, err
		}
	}

	if len(src.Previous) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		progress(0.27, "Merging previous month distributor files")
		if err := p.joinCategories(ds, src.Previous, "previous", func(r *domain.SwitchRecord, v string) {
			r.RateCategoryPrev = v
		}); err != nil {
			return nil, err
		}
	}

	if len(src.Funding) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		progress(0.29, "Merging payout files")
		p.joinFunding(ds, src.Funding)
	}

	p.logger.InfoContext(ctx, "merge complete",
		slog.Int("records", len(ds.Records)),
		slog.Bool("rate_category", ds.Schema.RateCategory),
		slog.Bool("rate_category_previous", ds.Schema.RateCategoryPrev),
		slog.Int("payout_columns", len(ds.Schema.PayoutLabels)),
		slog.Int("warnings", len(ds.Warnings)))
	return ds, nil
}

func (p *Pipeline) loadPrimary(path string) (*Dataset, error) {
	if strings.TrimSpace(path) == "" {
		return nil, apperrors.NewMissingInputError("primary input")
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		appErr := apperrors.NewMissingInputError("primary input")
		appErr.Cause = err
		return nil, appErr
	}

	table, err := tabular.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewCatastrophicError("failed to read primary input", err).
			WithContext("source", filepath.Base(path))
	}
	table.MapColumns(strings.ToUpper)

	builder := NewRecordBuilder(table.Columns)
	ds := &Dataset{
		Schema:  builder.Schema(),
		Records: make([]domain.SwitchRecord, 0, len(table.Rows)),
	}

	excluded := 0
	for _, row := range table.Rows {
		if builder.Excluded(row) {
			excluded++
			continue
		}
		ds.Records = append(ds.Records, builder.Build(row))
	}

	p.logger.Info("primary input loaded",
		slog.String("file", filepath.Base(path)),
		slog.Int("rows", len(table.Rows)),
		slog.Int("excluded", excluded),
		slog.Bool("folio", ds.Schema.Folio),
		slog.Bool("broker_code", ds.Schema.BrokerCode))
	return ds, nil
}

func (p *Pipeline) joinCategories(ds *Dataset, paths []string, role string, set func(*domain.SwitchRecord, string)) error {
	index, warnings, err := LoadCategories(paths, p.logger)
	for _, w := range warnings {
		p.warn(ds, w)
	}
	if err != nil {
		return err
	}
	if index.Files() == 0 {
		return nil
	}
	if !ds.Schema.BrokerCode {
		p.warn(ds, apperrors.NewOptionalSourceError("primary input",
			fmt.Sprintf("no broker code column; %s rate categories not joined", role)))
		return nil
	}

	var fanned int
	ds.Records, fanned = fanOut(ds.Records, func(r *domain.SwitchRecord) int {
		return len(index.Lookup(r.BrokerCode))
	}, func(r *domain.SwitchRecord, i int) {
		set(r, index.Lookup(r.BrokerCode)[i])
	})
	if fanned > 0 {
		p.warn(ds, apperrors.NewMalformedError(role+" distributor files",
			fmt.Sprintf("%d records matched more than one rate category and were repeated", fanned)).
			WithContext("duplicate_agents", index.Duplicates()))
	}

	if role == "previous" {
		ds.Schema.RateCategoryPrev = true
	} else {
		ds.Schema.RateCategory = true
	}
	return nil
}

func (p *Pipeline) joinFunding(ds *Dataset, paths []string) {
	used := make(map[string]bool)
	for _, path := range paths {
		rec, appErr := LoadFunding(path)
		if appErr != nil {
			p.warn(ds, appErr)
			continue
		}
		if used[rec.Label] {
			rec.Label = rec.File
		}
		if used[rec.Label] {
			p.warn(ds, apperrors.NewOptionalSourceError(rec.File, "payout file listed twice; ignored"))
			continue
		}
		if !ds.Schema.BrokerCode {
			p.warn(ds, apperrors.NewOptionalSourceError("primary input",
				fmt.Sprintf("no broker code column; payouts %s not joined", rec.Label)))
			continue
		}
		used[rec.Label] = true

		label := rec.Label
		var fanned int
		ds.Records, fanned = fanOut(ds.Records, func(r *domain.SwitchRecord) int {
			return len(rec.Amounts[r.BrokerCode])
		}, func(r *domain.SwitchRecord, i int) {
			if r.Payouts == nil {
				r.Payouts = make(map[string]decimal.NullDecimal)
			}
			r.Payouts[label] = rec.Amounts[r.BrokerCode][i]
		})
		if fanned > 0 {
			p.warn(ds, apperrors.NewMalformedError(rec.File,
				fmt.Sprintf("%d records matched more than one payout row and were repeated", fanned)))
		}

		ds.Schema.PayoutLabels = append(ds.Schema.PayoutLabels, label)
		ds.Funding = append(ds.Funding, *rec)

		p.logger.Info("payout file merged",
			slog.String("file", rec.File),
			slog.String("label", label),
			slog.Int("agents", len(rec.Amounts)))
	}
}

func (p *Pipeline) warn(ds *Dataset, appErr *apperrors.AppError) {
	w := appErr.Warning()
	ds.Warnings = append(ds.Warnings, w)
	p.logger.Warn(w.Message,
		slog.String("kind", w.Kind),
		slog.String("source", w.Source))
}

// fanOut is a left join: a record with no matches is kept unchanged, a
// record with n matches is repeated n times and apply fills copy i. It
// returns the number of records that were repeated.
func fanOut(records []domain.SwitchRecord, matches func(*domain.SwitchRecord) int, apply func(*domain.SwitchRecord, int)) ([]domain.SwitchRecord, int) {
	out := make([]domain.SwitchRecord, 0, len(records))
	fanned := 0
	for i := range records {
		n := matches(&records[i])
		if n == 0 {
			out = append(out, records[i])
			continue
		}
		if n > 1 {
			fanned++
		}
		for j := 0; j < n; j++ {
			c := clone(records[i])
			apply(&c, j)
			out = append(out, c)
		}
	}
	return out, fanned
}

func clone(r domain.SwitchRecord) domain.SwitchRecord {
	if r.Payouts != nil {
		payouts := make(map[string]decimal.NullDecimal, len(r.Payouts))
		for k, v := range r.Payouts {
			payouts[k] = v
		}
		r.Payouts = payouts
	}
	return r
}
