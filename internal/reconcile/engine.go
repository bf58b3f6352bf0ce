package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"switchrecon/internal/analytics"
	"switchrecon/internal/brokerage"
	"switchrecon/internal/config"
	apperrors "switchrecon/internal/errors"
	"switchrecon/internal/infrastructure"
	"switchrecon/internal/merge"
	"switchrecon/internal/rules"
	"switchrecon/internal/scheme"
	"switchrecon/pkg/contracts/domain"
)

// progressEvery is how many enriched rows pass between progress reports
const progressEvery = 100

// Inputs are the files and filters of one run
type Inputs struct {
	merge.Sources
	Brokerage    []string
	SchemeMaster string

	// HighlightIn and HighlightOut select rows whose switch-in and
	// switch-out names contain them. Both must be set.
	HighlightIn  string
	HighlightOut string
}

// Options tune the resolvers and the enrichment pool
type Options struct {
	SheetThreshold  float64
	SchemeThreshold float64
	Workers         int
}

// OptionsFrom maps the matching section of the application config
func OptionsFrom(cfg config.MatchingConfig) Options {
	return Options{
		SheetThreshold:  cfg.SheetThreshold,
		SchemeThreshold: cfg.SchemeThreshold,
		Workers:         cfg.Workers,
	}
}

// Result is the complete output of a successful run
type Result struct {
	Records     []domain.SwitchRecord `json:"records"`
	Schema      domain.RecordSchema   `json:"schema"`
	Highlighted []int                 `json:"highlighted"`
	Warnings    []domain.Warning      `json:"warnings"`
	Summary     Summary               `json:"summary"`
	Analytics   []analytics.Summary   `json:"analytics"`
	Inputs      []InputFile           `json:"inputs"`
	StartedAt   time.Time             `json:"started_at"`
	FinishedAt  time.Time             `json:"finished_at"`
}

// Engine runs reconciliations. It holds no per-run state and may be shared.
type Engine struct {
	opts    Options
	logger  *slog.Logger
	metrics *infrastructure.RunMetrics
}

// NewEngine creates an engine. metrics may be nil.
func NewEngine(opts Options, logger *slog.Logger, metrics *infrastructure.RunMetrics) *Engine {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Engine{
		opts:    opts,
		logger:  infrastructure.WithComponent(logger, "reconcile"),
		metrics: metrics,
	}
}

// Run merges the inputs, enriches every record and derives its flags. Any
// fatal error aborts the run without a partial result.
func (e *Engine) Run(ctx context.Context, in Inputs, progress domain.ProgressFunc) (*Result, error) {
	started := time.Now()
	report := serialize(progress)

	infrastructure.RecordActiveRunChange(ctx, e.metrics, 1)
	defer infrastructure.RecordActiveRunChange(ctx, e.metrics, -1)

	res, err := e.run(ctx, in, report, started)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		infrastructure.RecordRunMetrics(ctx, e.metrics, infrastructure.RunObservation{
			Duration: time.Since(started),
		})
		infrastructure.WithError(e.logger, err).ErrorContext(ctx, "reconciliation failed",
			slog.Duration("elapsed", time.Since(started)))
		return nil, err
	}

	infrastructure.RecordRunMetrics(ctx, e.metrics, res.Summary.observation(res.FinishedAt.Sub(started), len(res.Warnings)))
	e.logger.InfoContext(ctx, "reconciliation complete",
		slog.Int("records", len(res.Records)),
		slog.Int("highlighted", len(res.Highlighted)),
		slog.Int("warnings", len(res.Warnings)),
		slog.Duration("elapsed", res.FinishedAt.Sub(started)))
	return res, nil
}

func (e *Engine) run(ctx context.Context, in Inputs, report domain.ProgressFunc, started time.Time) (*Result, error) {
	ds, err := merge.NewPipeline(e.logger).Run(ctx, in.Sources, report)
	if err != nil {
		return nil, err
	}
	warnings := ds.Warnings

	inputs, err := Fingerprint(in)
	if err != nil {
		return nil, apperrors.NewCatastrophicError("failed to fingerprint inputs", err)
	}

	var lookup *scheme.Lookup
	if in.SchemeMaster != "" {
		report(0.30, "Reading scheme master")
		lookup, err = scheme.LoadLookup(in.SchemeMaster, e.logger)
		switch {
		case errors.Is(err, scheme.ErrMissingColumns):
			w := apperrors.NewOptionalSourceError(filepath.Base(in.SchemeMaster), "scheme or schemetype column not found; scheme types left blank")
			warnings = append(warnings, w.Warning())
			e.logger.WarnContext(ctx, w.Message, slog.String("source", filepath.Base(in.SchemeMaster)))
		case err != nil:
			return nil, apperrors.NewCatastrophicError("failed to read scheme master", err).
				WithContext("source", filepath.Base(in.SchemeMaster))
		}
	}

	report(0.35, "Preparing for matching")
	sheets := brokerage.NewSheetSet()
	if len(in.Brokerage) > 0 {
		report(0.40, "Loading brokerage files")
		sheets, err = brokerage.LoadSheets(in.Brokerage, e.logger)
		if err != nil {
			return nil, apperrors.NewCatastrophicError("failed to read brokerage files", err)
		}
	}

	matcher := brokerage.NewTrailMatcher(sheets, e.opts.SheetThreshold, e.logger)
	classifier := scheme.NewClassifier(lookup, e.opts.SchemeThreshold, e.logger)

	if err := e.enrich(ctx, ds.Records, matcher, classifier, report); err != nil {
		return nil, err
	}

	for _, category := range matcher.UnresolvedCategories() {
		w := apperrors.NewUnresolvableError(category, "no commission sheet matches rate category")
		warnings = append(warnings, w.Warning())
	}
	for _, sheet := range matcher.HeadlessSheets() {
		w := apperrors.NewUnresolvableError(sheet, "commission sheet has no fund name and trail header")
		warnings = append(warnings, w.Warning())
	}

	report(0.95, "Summarising")
	res := &Result{
		Records:     ds.Records,
		Schema:      ds.Schema,
		Highlighted: Highlight(ds.Records, in.HighlightIn, in.HighlightOut),
		Warnings:    warnings,
		Analytics:   analytics.Build(ds.Records, ds.Schema),
		Inputs:      inputs,
		StartedAt:   started,
	}
	res.Summary = Summarize(res.Records, res.Schema, ds.Funding, len(res.Highlighted))
	res.Summary.UnresolvedCategories = matcher.UnresolvedCategories()
	res.Summary.HeadlessSheets = matcher.HeadlessSheets()
	res.FinishedAt = time.Now()

	report(1.0, "Reconciliation complete")
	return res, nil
}

// enrich fills the trail, scheme type and flag columns of every record. Each
// worker writes only the record it was handed.
func (e *Engine) enrich(ctx context.Context, records []domain.SwitchRecord, matcher *brokerage.TrailMatcher, classifier *scheme.Classifier, report domain.ProgressFunc) error {
	total := len(records)
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	for i := range records {
		if gctx.Err() != nil {
			break
		}
		rec := &records[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			rec.TrailIn = matcher.FindTrail(rec.SwitchIn, rec.RateCategory)
			rec.TrailInPrev = matcher.FindTrail(rec.SwitchIn, rec.RateCategoryPrev)
			rec.TrailOut = matcher.FindTrail(rec.SwitchOut, rec.RateCategory)
			rec.SchemeTypeIn = classifier.Classify(rec.SwitchIn)
			rec.SchemeTypeOut = classifier.Classify(rec.SwitchOut)
			rules.Derive(rec)

			if n := done.Add(1); n%progressEvery == 0 || int(n) == total {
				report(0.5+0.4*float64(n)/float64(total), "Matching rows")
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// serialize makes a progress callback safe to call from enrichment workers
func serialize(progress domain.ProgressFunc) domain.ProgressFunc {
	if progress == nil {
		return func(float64, string) {}
	}
	var mu sync.Mutex
	return func(fraction float64, message string) {
		mu.Lock()
		defer mu.Unlock()
		progress(fraction, message)
	}
}
