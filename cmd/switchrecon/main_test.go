package main

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"switchrecon/internal/config"
	apperrors "switchrecon/internal/errors"
	"switchrecon/internal/shared/testutil"
	"switchrecon/pkg/contracts"
)

var (
	primaryHeader = []string{"SWITCH_DETAILS_FOLIO_NO", "TRADES_BROK_DLR_CODE", "TRADES_AMOUNT", "LONG_NAME", "LONG_NAME1"}
	primaryRows   = [][]string{
		primaryHeader,
		{"F1", "ARN-1", "1000", "ABC Flexi Cap Fund - Regular", "ABC Flexi Cap Fund - Direct"},
		{"F2", "ARN-2", "500", "XYZ Liquid Fund", "ABC Flexi Cap Fund - Regular"},
	}
	currentRows = [][]string{
		{"AGENT", "RATECATEGORY"},
		{"ARN-1", "Gold"},
		{"ARN-2", "Silver"},
	}
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvPrefix+"_CONFIG", "")

	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "switchrecon v"+config.AppVersion)
	assert.Contains(t, out, "commit: "+contracts.GitCommit)
}

func TestRun_ExplicitInputs(t *testing.T) {
	dir := t.TempDir()
	primary := testutil.WriteCSV(t, dir, "switches.csv", primaryRows...)
	current := testutil.WriteCSV(t, dir, "distributors.csv", currentRows...)
	workbook := filepath.Join(dir, "out", "result.xlsx")
	table := filepath.Join(dir, "out", "result.csv")

	out, err := execute(t, "run",
		"--primary", primary,
		"--current", current,
		"--highlight-in", "flexi",
		"--highlight-out", "flexi",
		"--out", workbook,
		"--csv", table,
	)
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`Records:\s+2\n`), out)
	assert.Regexp(t, regexp.MustCompile(`Highlighted:\s+1\n`), out)
	assert.Contains(t, out, "Wrote "+workbook)
	assert.Contains(t, out, "Wrote "+table)

	for _, path := range []string{workbook, table} {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	csv, err := os.ReadFile(table)
	require.NoError(t, err)
	assert.Contains(t, string(csv), "Silver")
}

func TestRun_DirectoryDiscovery(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteCSV(t, dir, "switch_export.csv", primaryRows...)
	testutil.WriteCSV(t, dir, "distributor_march.csv", currentRows...)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.csv"), []byte("a,b\n"), 0o644))
	workbook := filepath.Join(t.TempDir(), "result.xlsx")

	out, err := execute(t, "run", "--dir", dir, "--out", workbook)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`Records:\s+2\n`), out)
	assert.Regexp(t, regexp.MustCompile(`Highlighted:\s+0\n`), out)
	assert.FileExists(t, workbook)
}

func TestRun_FlagValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no inputs", []string{"run"}, "at least one of the flags"},
		{"dir with role flag", []string{"run", "--dir", ".", "--primary", "x.csv"}, "none of the others can be"},
		{"positional args", []string{"run", "extra"}, "unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRun_MissingPrimary(t *testing.T) {
	_, err := execute(t, "run",
		"--primary", filepath.Join(t.TempDir(), "absent.csv"),
		"--out", filepath.Join(t.TempDir(), "result.xlsx"))
	require.Error(t, err)

	errType, ok := apperrors.TypeOf(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrTypeMissingInput, errType)
}

func TestRun_DirectoryWithoutPrimary(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteCSV(t, dir, "distributor_march.csv", currentRows...)

	_, err := execute(t, "run", "--dir", dir, "--out", filepath.Join(t.TempDir(), "result.xlsx"))
	require.Error(t, err)

	errType, ok := apperrors.TypeOf(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrTypeMissingInput, errType)
}

func TestInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "switchrecon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 0\n"), 0o644))

	_, err := execute(t, "run", "--config", path, "--primary", "x.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")

	errType, ok := apperrors.TypeOf(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrTypeConfig, errType)
}
