package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"switchrecon/internal/exporter"
	"switchrecon/internal/files"
	"switchrecon/internal/infrastructure"
	"switchrecon/internal/operations"
	"switchrecon/internal/reconcile"
	"switchrecon/internal/validation"
	"switchrecon/pkg/contracts/domain"
)

type runOptions struct {
	dir          string
	primary      string
	current      []string
	previous     []string
	funding      []string
	brokerage    []string
	schemeMaster string
	highlightIn  string
	highlightOut string
	out          string
	csv          string
}

func newRunCmd(c *cli) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Reconcile a set of input files",
		Long: `Run one reconciliation in the foreground and write the workbook.

Inputs are named per role, or discovered from a directory by file name:
  switch*          primary switch export
  distributor*     current rate categories
  previous*        previous month rate categories
  FundingSummary*  payout summaries
  brokerage*       commission workbooks
  scheme*          scheme master`,
		Example: `  switchrecon run --primary switches.xlsx --current distributors.xlsx --brokerage rates.xlsx
  switchrecon run --dir ./march --highlight-in "flexi cap" --highlight-out liquid --csv march.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.reconcile(ctx, cmd.OutOrStdout(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.dir, "dir", "d", "", "discover inputs in this directory by file name")
	f.StringVar(&opts.primary, "primary", "", "primary switch transaction file")
	f.StringSliceVar(&opts.current, "current", nil, "current distributor rate category file (repeatable)")
	f.StringSliceVar(&opts.previous, "previous", nil, "previous month distributor file (repeatable)")
	f.StringSliceVar(&opts.funding, "funding", nil, "payout summary file (repeatable)")
	f.StringSliceVar(&opts.brokerage, "brokerage", nil, "brokerage commission workbook (repeatable)")
	f.StringVar(&opts.schemeMaster, "scheme-master", "", "scheme master file")
	f.StringVar(&opts.highlightIn, "highlight-in", "", "highlight rows whose switch-in fund contains this text")
	f.StringVar(&opts.highlightOut, "highlight-out", "", "highlight rows whose switch-out fund contains this text")
	f.StringVarP(&opts.out, "out", "o", "switchrecon-output.xlsx", "workbook output path")
	f.StringVar(&opts.csv, "csv", "", "also write the record table as CSV to this path")

	cmd.MarkFlagsOneRequired("dir", "primary")
	for _, role := range []string{"primary", "current", "previous", "funding", "brokerage", "scheme-master"} {
		cmd.MarkFlagsMutuallyExclusive("dir", role)
	}
	return cmd
}

func (opts *runOptions) inputs(logger *slog.Logger, v *validation.FileValidator) (reconcile.Inputs, []string, error) {
	var in reconcile.Inputs
	if opts.dir != "" {
		if err := v.ValidateInputDirectory(opts.dir); err != nil {
			return in, nil, err
		}
		found, err := files.NewDiscovery(logger).Discover(opts.dir)
		if err != nil {
			return in, nil, err
		}
		in = found.Inputs
		return in, found.Ignored, nil
	}

	in.Primary = opts.primary
	in.Current = opts.current
	in.Previous = opts.previous
	in.Funding = opts.funding
	in.Brokerage = opts.brokerage
	in.SchemeMaster = opts.schemeMaster
	return in, nil, nil
}

func (c *cli) reconcile(ctx context.Context, stdout io.Writer, opts *runOptions) error {
	// Every log line of one invocation carries the same trace id
	logger := infrastructure.LoggerFromContext(infrastructure.EnsureTraceID(ctx))

	v := validation.NewFileValidator(logger)
	in, ignored, err := opts.inputs(logger, v)
	if err != nil {
		return err
	}
	if err := v.ValidateInputs(in); err != nil {
		return err
	}
	for _, path := range []string{opts.out, opts.csv} {
		if path == "" {
			continue
		}
		if err := v.ValidateOutputPath(path); err != nil {
			return err
		}
	}
	in.HighlightIn = opts.highlightIn
	in.HighlightOut = opts.highlightOut

	for _, name := range ignored {
		logger.Warn("input file ignored; role not recognised from name", slog.String("file", name))
	}

	tracker := operations.NewProgressTracker()
	engine := reconcile.NewEngine(reconcile.OptionsFrom(c.cfg.Matching), logger, nil)
	res, err := engine.Run(ctx, in, func(fraction float64, message string) {
		if tracker.Update(fraction, message) {
			progress, stage := tracker.GetProgress()
			logger.Info("run progress",
				slog.Int("progress", progress),
				slog.String("stage", stage),
				slog.String("eta", tracker.GetETA()))
		}
	})
	if err != nil {
		return err
	}

	exp := exporter.New(logger)
	if err := exp.ExportFile(opts.out, res, exporter.FormatXLSX); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	written := []string{opts.out}
	if opts.csv != "" {
		if err := exp.ExportFile(opts.csv, res, exporter.FormatCSV); err != nil {
			return fmt.Errorf("failed to write csv: %w", err)
		}
		written = append(written, opts.csv)
	}

	return printSummary(stdout, res, written)
}

// printSummary writes the human-readable run report
func printSummary(w io.Writer, res *reconcile.Result, written []string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	s := res.Summary

	fmt.Fprintf(tw, "Records:\t%d\n", s.TotalRecords)
	fmt.Fprintf(tw, "Columns:\t%d\n", s.TotalColumns)
	fmt.Fprintf(tw, "Highlighted:\t%d\n", s.Highlighted)
	for _, l := range s.Lookups {
		fmt.Fprintf(tw, "%s:\t%d found, %d not found\n", l.Column, l.Found, l.NotFound)
	}
	for _, flag := range []string{domain.HeaderTrailIncrease, domain.HeaderSwitchingRate, domain.HeaderDirectToRegular} {
		fmt.Fprintf(tw, "%s:\t%d\n", flag, s.Flags[flag])
	}
	for _, f := range s.Funding {
		fmt.Fprintf(tw, "Payout %s:\t%s (%d agents)\n", f.Label, f.File, f.Agents)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(res.Warnings) > 0 {
		fmt.Fprintf(w, "\nWarnings (%d):\n", len(res.Warnings))
		for _, warn := range res.Warnings {
			fmt.Fprintf(w, "  [%s] %s: %s\n", warn.Kind, warn.Source, warn.Message)
		}
	}

	fmt.Fprintln(w)
	for _, path := range written {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		fmt.Fprintf(w, "Wrote %s\n", abs)
	}
	return nil
}
