package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/sync/singleflight"

	"switchrecon/internal/config"
	apperrors "switchrecon/internal/errors"
	"switchrecon/internal/exporter"
	"switchrecon/internal/files"
	"switchrecon/internal/operations"
	"switchrecon/internal/reconcile"
)

// RunManager is the part of operations.Manager the service drives
type RunManager interface {
	Start(ctx context.Context, req operations.RunRequest) (operations.Run, error)
	Get(id string) (operations.Run, bool)
	List() []operations.Run
	Result(id string) (*reconcile.Result, error)
	Cancel(id string) error
}

// Upload is one file of a submitted run
type Upload struct {
	Role string    `json:"role" validate:"required,oneof=primary current previous funding brokerage scheme_master"`
	Name string    `json:"name" validate:"required,max=255"`
	Body io.Reader `json:"-"`
}

// NewRun is a run submitted over the API
type NewRun struct {
	Uploads      []Upload
	HighlightIn  string
	HighlightOut string
}

// RecordsPage is a window of the enriched record table. Numeric cells are
// decimals, serialized as strings to keep their precision.
type RecordsPage struct {
	Columns     []string `json:"columns"`
	Rows        [][]any  `json:"rows"`
	Highlighted []int    `json:"highlighted"`
	Total       int      `json:"total"`
	Offset      int      `json:"offset"`
	Limit       int      `json:"limit"`
}

// RunService stores uploads, starts runs and renders their results
type RunService struct {
	runs      RunManager
	files     *files.Manager
	exporter  *exporter.Exporter
	maxUpload int64
	reports   singleflight.Group
	logger    *slog.Logger
}

// NewRunService creates a run service. maxUpload caps each uploaded file.
func NewRunService(runs RunManager, fm *files.Manager, exp *exporter.Exporter, maxUpload int64, logger *slog.Logger) *RunService {
	return &RunService{
		runs:      runs,
		files:     fm,
		exporter:  exp,
		maxUpload: maxUpload,
		logger:    logger.With(slog.String("service", "runs")),
	}
}

// CreateRun stores the uploads under a new run ID and starts the run. On
// any error the stored files are removed.
func (s *RunService) CreateRun(ctx context.Context, nr NewRun) (operations.Run, error) {
	runID := operations.NewRunID()

	in, err := s.store(runID, nr)
	if err == nil {
		var run operations.Run
		if run, err = s.runs.Start(ctx, operations.RunRequest{ID: runID, Inputs: in}); err == nil {
			s.logger.InfoContext(ctx, "run submitted",
				slog.String("run_id", runID),
				slog.Int("files", len(nr.Uploads)))
			return run, nil
		}
	}

	if cleanupErr := s.files.RemoveRun(runID); cleanupErr != nil {
		s.logger.WarnContext(ctx, "failed to clean up rejected run",
			slog.String("run_id", runID),
			slog.String("error", cleanupErr.Error()))
	}
	return operations.Run{}, err
}

func (s *RunService) store(runID string, nr NewRun) (reconcile.Inputs, error) {
	in := reconcile.Inputs{
		HighlightIn:  nr.HighlightIn,
		HighlightOut: nr.HighlightOut,
	}

	for _, u := range nr.Uploads {
		path, err := s.files.SaveUpload(runID, u.Role, u.Name, u.Body, s.maxUpload)
		if errors.Is(err, files.ErrTooLarge) {
			return in, fmt.Errorf("%s: %w", u.Name, apperrors.ErrUploadTooLarge)
		}
		if err != nil {
			return in, apperrors.NewAppValidationError(err.Error())
		}

		switch u.Role {
		case reconcile.RolePrimary:
			if in.Primary != "" {
				return in, apperrors.NewAppValidationError("only one primary input may be uploaded")
			}
			in.Primary = path
		case reconcile.RoleCurrent:
			in.Current = append(in.Current, path)
		case reconcile.RolePrevious:
			in.Previous = append(in.Previous, path)
		case reconcile.RoleFunding:
			in.Funding = append(in.Funding, path)
		case reconcile.RoleBrokerage:
			in.Brokerage = append(in.Brokerage, path)
		case reconcile.RoleSchemeMaster:
			if in.SchemeMaster != "" {
				return in, apperrors.NewAppValidationError("only one scheme master may be uploaded")
			}
			in.SchemeMaster = path
		default:
			return in, apperrors.NewAppValidationError(fmt.Sprintf("unknown input role %q", u.Role))
		}
	}

	if in.Primary == "" {
		return in, apperrors.NewMissingInputError("primary input")
	}
	return in, nil
}

// Get returns the current snapshot of a run
func (s *RunService) Get(id string) (operations.Run, error) {
	run, ok := s.runs.Get(id)
	if !ok {
		return operations.Run{}, apperrors.NewNotFoundError("run " + id)
	}
	return run, nil
}

// List returns every retained run, newest first
func (s *RunService) List() []operations.Run {
	return s.runs.List()
}

// Cancel stops an active run
func (s *RunService) Cancel(id string) error {
	return s.runs.Cancel(id)
}

// Records returns limit records of a completed run starting at offset,
// together with the highlighted indices that fall inside the window.
func (s *RunService) Records(id string, offset, limit int) (RecordsPage, error) {
	res, err := s.runs.Result(id)
	if err != nil {
		return RecordsPage{}, err
	}

	total := len(res.Records)
	start := min(offset, total)
	end := min(start+limit, total)
	cols := res.Schema.Columns()

	page := RecordsPage{
		Columns:     cols,
		Rows:        make([][]any, 0, end-start),
		Highlighted: []int{},
		Total:       total,
		Offset:      offset,
		Limit:       limit,
	}
	for i := start; i < end; i++ {
		cells := res.Records[i].Row(cols)
		row := make([]any, len(cells))
		for c, cell := range cells {
			if cell.Number.Valid {
				row[c] = cell.Number.Decimal
			} else {
				row[c] = cell.Text
			}
		}
		page.Rows = append(page.Rows, row)
	}
	for _, h := range res.Highlighted {
		if h >= start && h < end {
			page.Highlighted = append(page.Highlighted, h)
		}
	}
	return page, nil
}

// Report returns the path of the run's report in format, rendering it on
// first request. Concurrent requests for the same report share one render.
func (s *RunService) Report(ctx context.Context, id string, format exporter.Format) (string, error) {
	res, err := s.runs.Result(id)
	if err != nil {
		return "", err
	}

	path := s.files.ReportPath(id, format.Ext())
	_, err, _ = s.reports.Do(path, func() (any, error) {
		if config.FileExists(path) {
			return nil, nil
		}
		tmp := path + ".tmp"
		if err := s.exporter.ExportFile(tmp, res, format); err != nil {
			return nil, err
		}
		if err := os.Rename(tmp, path); err != nil {
			os.Remove(tmp)
			return nil, fmt.Errorf("failed to publish report: %w", err)
		}
		s.logger.InfoContext(ctx, "report rendered",
			slog.String("run_id", id),
			slog.String("format", string(format)))
		return nil, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to render %s report: %w", format, err)
	}
	return path, nil
}
