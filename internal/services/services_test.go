package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"switchrecon/internal/config"
	apperrors "switchrecon/internal/errors"
	"switchrecon/internal/exporter"
	"switchrecon/internal/files"
	"switchrecon/internal/operations"
	"switchrecon/internal/reconcile"
	"switchrecon/internal/shared/testutil"
	"switchrecon/pkg/contracts/domain"
)

type fakeRuns struct {
	mu       sync.Mutex
	started  []operations.RunRequest
	startErr error
	results  map[string]*reconcile.Result
	runs     []operations.Run
}

func (f *fakeRuns) Start(_ context.Context, req operations.RunRequest) (operations.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return operations.Run{}, f.startErr
	}
	f.started = append(f.started, req)
	return operations.Run{ID: req.ID, Status: operations.RunStatusPending}, nil
}

func (f *fakeRuns) Get(id string) (operations.Run, bool) {
	for _, r := range f.runs {
		if r.ID == id {
			return r, true
		}
	}
	return operations.Run{}, false
}

func (f *fakeRuns) List() []operations.Run { return f.runs }

func (f *fakeRuns) Result(id string) (*reconcile.Result, error) {
	if res, ok := f.results[id]; ok {
		return res, nil
	}
	return nil, apperrors.NewNotFoundError("run " + id)
}

func (f *fakeRuns) Cancel(id string) error { return nil }

func newPaths(t *testing.T) *config.Paths {
	t.Helper()
	root := t.TempDir()
	paths := &config.Paths{
		WorkDir:    root,
		UploadsDir: filepath.Join(root, "uploads"),
		ReportsDir: filepath.Join(root, "reports"),
	}
	require.NoError(t, paths.EnsureDirectories())
	return paths
}

func newService(t *testing.T, runs *fakeRuns, maxUpload int64) (*RunService, *config.Paths) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	paths := newPaths(t)
	return NewRunService(runs, files.NewManager(paths, logger), exporter.New(logger), maxUpload, logger), paths
}

func upload(role, name, body string) Upload {
	return Upload{Role: role, Name: name, Body: strings.NewReader(body)}
}

func TestRunService_CreateRun(t *testing.T) {
	runs := &fakeRuns{}
	svc, paths := newService(t, runs, 1<<20)

	run, err := svc.CreateRun(context.Background(), NewRun{
		Uploads: []Upload{
			upload(reconcile.RolePrimary, "switches.csv", "a"),
			upload(reconcile.RoleCurrent, "dist1.csv", "b"),
			upload(reconcile.RoleCurrent, "dist2.csv", "c"),
			upload(reconcile.RolePrevious, "prev.csv", "d"),
			upload(reconcile.RoleFunding, "payout.csv", "e"),
			upload(reconcile.RoleBrokerage, "brokerage.xlsx", "f"),
			upload(reconcile.RoleSchemeMaster, `C:\tmp\master.csv`, "g"),
		},
		HighlightIn:  "flexi",
		HighlightOut: "liquid",
	})
	require.NoError(t, err)
	assert.Equal(t, operations.RunStatusPending, run.Status)

	require.Len(t, runs.started, 1)
	req := runs.started[0]
	assert.Equal(t, run.ID, req.ID)

	dir := paths.RunUploadDir(run.ID)
	in := req.Inputs
	assert.Equal(t, filepath.Join(dir, "primary", "switches.csv"), in.Primary)
	assert.Len(t, in.Current, 2)
	assert.Len(t, in.Previous, 1)
	assert.Len(t, in.Funding, 1)
	assert.Len(t, in.Brokerage, 1)
	assert.Equal(t, filepath.Join(dir, "scheme_master", "master.csv"), in.SchemeMaster)
	assert.Equal(t, "flexi", in.HighlightIn)
	assert.Equal(t, "liquid", in.HighlightOut)

	data, err := os.ReadFile(in.Current[1])
	require.NoError(t, err)
	assert.Equal(t, "c", string(data))
}

func TestRunService_CreateRun_DuplicateNames(t *testing.T) {
	runs := &fakeRuns{}
	svc, _ := newService(t, runs, 1<<20)

	_, err := svc.CreateRun(context.Background(), NewRun{
		Uploads: []Upload{
			upload(reconcile.RolePrimary, "switches.csv", "a"),
			upload(reconcile.RoleFunding, "FundingSummary_March2025.xlsx", "north"),
			upload(reconcile.RoleFunding, "FundingSummary_March2025.xlsx", "south"),
			upload(reconcile.RoleBrokerage, "rates.xlsx", "b1"),
			upload(reconcile.RoleBrokerage, "rates.xlsx", "b2"),
		},
	})
	require.NoError(t, err)
	require.Len(t, runs.started, 1)
	in := runs.started[0].Inputs

	for role, tc := range map[string]struct {
		paths []string
		want  []string
	}{
		reconcile.RoleFunding:   {in.Funding, []string{"north", "south"}},
		reconcile.RoleBrokerage: {in.Brokerage, []string{"b1", "b2"}},
	} {
		require.Len(t, tc.paths, 2, role)
		assert.NotEqual(t, tc.paths[0], tc.paths[1], role)
		for i, path := range tc.paths {
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tc.want[i], string(data), role)
		}
	}
}

func TestRunService_CreateRunRejected(t *testing.T) {
	tests := []struct {
		name     string
		uploads  []Upload
		startErr error
		maxBytes int64
		check    func(t *testing.T, err error)
	}{
		{
			name:    "no primary",
			uploads: []Upload{upload(reconcile.RoleCurrent, "d.csv", "x")},
			check: func(t *testing.T, err error) {
				typ, ok := apperrors.TypeOf(err)
				require.True(t, ok)
				assert.Equal(t, apperrors.ErrTypeMissingInput, typ)
			},
		},
		{
			name: "two primaries",
			uploads: []Upload{
				upload(reconcile.RolePrimary, "a.csv", "x"),
				upload(reconcile.RolePrimary, "b.csv", "y"),
			},
			check: func(t *testing.T, err error) {
				typ, _ := apperrors.TypeOf(err)
				assert.Equal(t, apperrors.ErrTypeValidation, typ)
			},
		},
		{
			name:    "unknown role",
			uploads: []Upload{upload("ledger", "a.csv", "x")},
			check: func(t *testing.T, err error) {
				typ, _ := apperrors.TypeOf(err)
				assert.Equal(t, apperrors.ErrTypeValidation, typ)
			},
		},
		{
			name:     "too large",
			uploads:  []Upload{upload(reconcile.RolePrimary, "a.csv", "0123456789")},
			maxBytes: 4,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, apperrors.ErrUploadTooLarge)
			},
		},
		{
			name:     "manager refuses",
			uploads:  []Upload{upload(reconcile.RolePrimary, "a.csv", "x")},
			startErr: apperrors.NewConflictError("run manager is shutting down"),
			check: func(t *testing.T, err error) {
				typ, _ := apperrors.TypeOf(err)
				assert.Equal(t, apperrors.ErrTypeConflict, typ)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			maxBytes := tt.maxBytes
			if maxBytes == 0 {
				maxBytes = 1 << 20
			}
			svc, paths := newService(t, &fakeRuns{startErr: tt.startErr}, maxBytes)

			_, err := svc.CreateRun(context.Background(), NewRun{Uploads: tt.uploads})
			require.Error(t, err)
			tt.check(t, err)

			entries, readErr := os.ReadDir(paths.UploadsDir)
			require.NoError(t, readErr)
			assert.Empty(t, entries, "rejected run left uploads behind")
		})
	}
}

func completedResult() *reconcile.Result {
	n := func(s string) decimal.NullDecimal { return decimal.NewNullDecimal(decimal.RequireFromString(s)) }
	schema := domain.RecordSchema{BrokerCode: true, Amount: true, SwitchIn: true, SwitchOut: true}
	records := make([]domain.SwitchRecord, 5)
	for i := range records {
		records[i] = domain.SwitchRecord{
			BrokerCode: "ARN-" + string(rune('1'+i)),
			Amount:     n("100.10"),
			SwitchIn:   "ABC Flexi Cap",
			SwitchOut:  "XYZ Liquid",
		}
	}
	res := &reconcile.Result{
		Records:     records,
		Schema:      schema,
		Highlighted: []int{0, 3, 4},
	}
	res.Summary = reconcile.Summarize(records, schema, nil, 3)
	return res
}

func TestRunService_Records(t *testing.T) {
	svc, _ := newService(t, &fakeRuns{results: map[string]*reconcile.Result{"r1": completedResult()}}, 1<<20)

	page, err := svc.Records("r1", 2, 2)
	require.NoError(t, err)

	assert.Equal(t, 5, page.Total)
	assert.Equal(t, domain.HeaderBrokerCode, page.Columns[0])
	require.Len(t, page.Rows, 2)
	assert.Equal(t, "ARN-3", page.Rows[0][0])
	amount, ok := page.Rows[0][1].(decimal.Decimal)
	require.True(t, ok)
	assert.Equal(t, "100.1", amount.String())
	assert.Equal(t, []int{3}, page.Highlighted)

	page, err = svc.Records("r1", 10, 5)
	require.NoError(t, err)
	assert.Empty(t, page.Rows)
	assert.Empty(t, page.Highlighted)

	_, err = svc.Records("missing", 0, 10)
	typ, _ := apperrors.TypeOf(err)
	assert.Equal(t, apperrors.ErrTypeNotFound, typ)
}

func TestRunService_Report(t *testing.T) {
	svc, paths := newService(t, &fakeRuns{results: map[string]*reconcile.Result{"r1": completedResult()}}, 1<<20)

	var wg sync.WaitGroup
	resultPaths := make([]string, 4)
	errs := make([]error, 4)
	for i := range resultPaths {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resultPaths[i], errs[i] = svc.Report(context.Background(), "r1", exporter.FormatCSV)
		}(i)
	}
	wg.Wait()

	want := paths.ReportPath("r1", ".csv")
	for i := range resultPaths {
		require.NoError(t, errs[i])
		assert.Equal(t, want, resultPaths[i])
	}

	data, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ARN-5")
	assert.NoFileExists(t, want+".tmp")

	xlsx, err := svc.Report(context.Background(), "r1", exporter.FormatXLSX)
	require.NoError(t, err)
	assert.FileExists(t, xlsx)
}

func TestRunService_GetAndList(t *testing.T) {
	runs := &fakeRuns{runs: []operations.Run{{ID: "a"}, {ID: "b"}}}
	svc, _ := newService(t, runs, 1<<20)

	run, err := svc.Get("b")
	require.NoError(t, err)
	assert.Equal(t, "b", run.ID)

	_, err = svc.Get("c")
	typ, _ := apperrors.TypeOf(err)
	assert.Equal(t, apperrors.ErrTypeNotFound, typ)

	assert.Len(t, svc.List(), 2)
}

type countingHub int

func (c countingHub) ClientCount() int { return int(c) }

func TestHealthService(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	paths := newPaths(t)
	runs := &fakeRuns{runs: []operations.Run{
		{ID: "a", Status: operations.RunStatusRunning},
		{ID: "b", Status: operations.RunStatusCompleted},
	}}
	hs := NewHealthService("1.2.3", paths, runs, countingHub(2), logger)

	health := hs.HealthCheck(context.Background())
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "1.2.3", health.Version)
	assert.Equal(t, 1, health.Runtime["active_runs"])
	assert.Equal(t, 2, health.Runtime["retained_runs"])
	assert.Equal(t, 2, health.Runtime["websocket_clients"])

	ready := hs.ReadinessCheck(context.Background())
	assert.Equal(t, "ready", ready.Status)
	assert.Equal(t, "ready", ready.Services["uploads"].Status)

	require.NoError(t, os.RemoveAll(paths.ReportsDir))
	notReady := hs.ReadinessCheck(context.Background())
	assert.Equal(t, "not_ready", notReady.Status)
	assert.Equal(t, "not_ready", notReady.Services["reports"].Status)

	assert.Equal(t, "alive", hs.LivenessCheck(context.Background()).Status)
	assert.Equal(t, "1.2.3", hs.Version()["version"])
}
