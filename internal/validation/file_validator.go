// Package validation checks run inputs and outputs on disk before a
// reconciliation starts, so the CLI can fail fast with a precise error.
package validation

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "switchrecon/internal/errors"
	"switchrecon/internal/infrastructure"
	"switchrecon/internal/reconcile"
)

// TabularExts are the file types a run can read
var TabularExts = []string{".csv", ".xlsx", ".xlsm"}

// FileValidator validates input and output paths
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: infrastructure.WithComponent(logger, "file_validator"),
	}
}

// ValidateInputDirectory checks that dir exists and is a directory
func (v *FileValidator) ValidateInputDirectory(dir string) error {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		v.logger.Error("Input directory does not exist", slog.String("directory", dir))
		return apperrors.NewMissingInputError("input directory " + dir)
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		v.logger.Error("Input path is not a directory", slog.String("path", dir))
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is not a directory", dir))
	}
	return nil
}

// ValidateOutputPath ensures the directory of path exists and is writable
func (v *FileValidator) ValidateOutputPath(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		infrastructure.WithError(v.logger, err).Error("Failed to create output directory",
			slog.String("directory", dir))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	probe, err := os.CreateTemp(dir, ".write_test-*")
	if err != nil {
		infrastructure.WithError(v.logger, err).Error("Output directory is not writable",
			slog.String("directory", dir))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	probe.Close()
	os.Remove(probe.Name())

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return apperrors.NewAppValidationError(fmt.Sprintf("output %s is a directory", path))
	}
	return nil
}

// ValidateFile checks that path exists and is a regular file
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}
	return nil
}

// ValidateTabularFile checks that path is a readable spreadsheet or CSV
// file and not an editor lock file.
func (v *FileValidator) ValidateTabularFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	if strings.HasPrefix(filepath.Base(path), "~$") {
		return fmt.Errorf("%s is a temporary Excel file", filepath.Base(path))
	}

	ext := strings.ToLower(filepath.Ext(path))
	for _, ok := range TabularExts {
		if ext == ok {
			return nil
		}
	}
	return fmt.Errorf("unsupported file type %q; expected one of %s", ext, strings.Join(TabularExts, ", "))
}

// ValidateInputs checks every file of a run. A missing primary file is a
// missing-input error; any other bad file is a validation error naming its
// role.
func (v *FileValidator) ValidateInputs(in reconcile.Inputs) error {
	if strings.TrimSpace(in.Primary) == "" {
		return apperrors.NewMissingInputError("primary input")
	}
	if err := v.ValidateTabularFile(in.Primary); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			appErr := apperrors.NewMissingInputError("primary input")
			appErr.Cause = err
			return appErr.WithContext("file", in.Primary)
		}
		return v.invalid(reconcile.RolePrimary, in.Primary, err)
	}

	roles := []struct {
		role  string
		paths []string
	}{
		{reconcile.RoleCurrent, in.Current},
		{reconcile.RolePrevious, in.Previous},
		{reconcile.RoleFunding, in.Funding},
		{reconcile.RoleBrokerage, in.Brokerage},
	}
	if in.SchemeMaster != "" {
		roles = append(roles, struct {
			role  string
			paths []string
		}{reconcile.RoleSchemeMaster, []string{in.SchemeMaster}})
	}

	for _, r := range roles {
		for _, path := range r.paths {
			if err := v.ValidateTabularFile(path); err != nil {
				return v.invalid(r.role, path, err)
			}
		}
	}
	return nil
}

func (v *FileValidator) invalid(role, path string, err error) error {
	infrastructure.WithError(v.logger, err).Error("Invalid input file",
		slog.String("role", role),
		slog.String("file", path))
	appErr := apperrors.NewAppValidationError(fmt.Sprintf("%s input %s: %v", role, filepath.Base(path), err))
	appErr.Cause = err
	return appErr.WithContext("role", role).WithContext("file", path)
}
