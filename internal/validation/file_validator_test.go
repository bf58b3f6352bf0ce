package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "switchrecon/internal/errors"
	"switchrecon/internal/merge"
	"switchrecon/internal/reconcile"
	"switchrecon/internal/shared/testutil"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n"), 0644))
	return path
}

func newValidator(t *testing.T) *FileValidator {
	logger, _ := testutil.NewTestLogger(t)
	return NewFileValidator(logger)
}

func TestFileValidator_ValidateInputDirectory(t *testing.T) {
	tests := []struct {
		name          string
		setupFunc     func(t *testing.T) string
		wantErr       bool
		wantType      apperrors.ErrorType
		errorContains string
	}{
		{
			name: "valid directory",
			setupFunc: func(t *testing.T) string {
				dir := t.TempDir()
				touch(t, dir, "switch.csv")
				return dir
			},
		},
		{
			name: "empty directory",
			setupFunc: func(t *testing.T) string {
				return t.TempDir()
			},
		},
		{
			name: "non-existent directory",
			setupFunc: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "missing")
			},
			wantErr:       true,
			wantType:      apperrors.ErrTypeMissingInput,
			errorContains: "is required",
		},
		{
			name: "path is file not directory",
			setupFunc: func(t *testing.T) string {
				return touch(t, t.TempDir(), "switch.csv")
			},
			wantErr:       true,
			wantType:      apperrors.ErrTypeValidation,
			errorContains: "not a directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newValidator(t).ValidateInputDirectory(tt.setupFunc(t))

			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
			errType, ok := apperrors.TypeOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantType, errType)
		})
	}
}

func TestFileValidator_ValidateOutputPath(t *testing.T) {
	tests := []struct {
		name          string
		setupFunc     func(t *testing.T) string
		wantErr       bool
		errorContains string
	}{
		{
			name: "existing directory",
			setupFunc: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "out.xlsx")
			},
		},
		{
			name: "creates missing parents",
			setupFunc: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "a", "b", "out.xlsx")
			},
		},
		{
			name: "output is a directory",
			setupFunc: func(t *testing.T) string {
				return t.TempDir()
			},
			wantErr:       true,
			errorContains: "is a directory",
		},
		{
			name: "parent is a file",
			setupFunc: func(t *testing.T) string {
				file := touch(t, t.TempDir(), "blocker")
				return filepath.Join(file, "out.xlsx")
			},
			wantErr:       true,
			errorContains: "failed to create output directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.setupFunc(t)
			err := newValidator(t).ValidateOutputPath(path)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				return
			}
			require.NoError(t, err)
			info, err := os.Stat(filepath.Dir(path))
			require.NoError(t, err)
			assert.True(t, info.IsDir())

			leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".write_test-*"))
			require.NoError(t, err)
			assert.Empty(t, leftovers)
		})
	}
}

func TestFileValidator_ValidateTabularFile(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name          string
		path          string
		wantErr       bool
		errorContains string
	}{
		{"csv", touch(t, dir, "switch.csv"), false, ""},
		{"xlsx upper case", touch(t, dir, "RATES.XLSX"), false, ""},
		{"xlsm", touch(t, dir, "brokerage.xlsm"), false, ""},
		{"legacy xls", touch(t, dir, "legacy.xls"), true, "unsupported file type"},
		{"unsupported extension", touch(t, dir, "notes.txt"), true, "unsupported file type"},
		{"excel lock file", touch(t, dir, "~$switch.xlsx"), true, "temporary Excel file"},
		{"directory", dir, true, "is a directory"},
		{"missing", filepath.Join(dir, "absent.csv"), true, "no such file"},
	}

	v := newValidator(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateTabularFile(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFileValidator_ValidateInputs(t *testing.T) {
	dir := t.TempDir()
	primary := touch(t, dir, "switch.csv")
	current := touch(t, dir, "distributor.xlsx")
	notes := touch(t, dir, "notes.txt")
	absent := filepath.Join(dir, "absent.csv")

	tests := []struct {
		name     string
		in       reconcile.Inputs
		wantType apperrors.ErrorType
		wantRole string
	}{
		{
			name: "valid",
			in: reconcile.Inputs{
				Sources:      merge.Sources{Primary: primary, Current: []string{current}},
				SchemeMaster: current,
			},
		},
		{
			name:     "no primary",
			in:       reconcile.Inputs{Sources: merge.Sources{Primary: "  "}},
			wantType: apperrors.ErrTypeMissingInput,
		},
		{
			name:     "primary does not exist",
			in:       reconcile.Inputs{Sources: merge.Sources{Primary: absent}},
			wantType: apperrors.ErrTypeMissingInput,
		},
		{
			name:     "primary unsupported",
			in:       reconcile.Inputs{Sources: merge.Sources{Primary: notes}},
			wantType: apperrors.ErrTypeValidation,
			wantRole: reconcile.RolePrimary,
		},
		{
			name: "funding does not exist",
			in: reconcile.Inputs{Sources: merge.Sources{
				Primary: primary,
				Funding: []string{absent},
			}},
			wantType: apperrors.ErrTypeValidation,
			wantRole: reconcile.RoleFunding,
		},
		{
			name: "brokerage unsupported",
			in: reconcile.Inputs{
				Sources:   merge.Sources{Primary: primary},
				Brokerage: []string{notes},
			},
			wantType: apperrors.ErrTypeValidation,
			wantRole: reconcile.RoleBrokerage,
		},
		{
			name: "scheme master is a directory",
			in: reconcile.Inputs{
				Sources:      merge.Sources{Primary: primary},
				SchemeMaster: dir,
			},
			wantType: apperrors.ErrTypeValidation,
			wantRole: reconcile.RoleSchemeMaster,
		},
	}

	v := newValidator(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateInputs(tt.in)
			if tt.wantType == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)

			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.wantType, appErr.Type)
			if tt.wantRole != "" {
				assert.Equal(t, tt.wantRole, appErr.Context["role"])
			}
		})
	}
}
