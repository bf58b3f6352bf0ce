package files

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"switchrecon/internal/config"
	"switchrecon/internal/infrastructure"
)

// ErrTooLarge is returned when an upload exceeds its size limit
var ErrTooLarge = errors.New("upload exceeds size limit")

// Manager stores the uploaded inputs and generated reports of runs
type Manager struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewManager creates a new file manager instance
func NewManager(paths *config.Paths, logger *slog.Logger) *Manager {
	return &Manager{paths: paths, logger: infrastructure.WithComponent(logger, "file_manager")}
}

// SaveUpload copies r into the upload directory of runID under role and
// returns the stored path. The first file of a name is stored as
// <role>/<name>; later files of the same name go to <role>/<n>/<name> so
// the base name is kept. At most limit bytes are accepted; a larger upload
// is removed and ErrTooLarge returned.
func (m *Manager) SaveUpload(runID, role, name string, r io.Reader, limit int64) (string, error) {
	clean := SanitizeName(name)
	if clean == "" {
		return "", fmt.Errorf("invalid file name %q", name)
	}

	dir := filepath.Join(m.paths.RunUploadDir(runID), role)
	file, err := createUnique(dir, clean)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	path := file.Name()

	n, err := io.Copy(file, io.LimitReader(r, limit+1))
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err == nil && n > limit {
		err = ErrTooLarge
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to store %s: %w", clean, err)
	}

	m.logger.Debug("upload stored",
		slog.String("run_id", runID),
		slog.String("role", role),
		slog.String("file", clean),
		slog.Int64("bytes", n))
	return path, nil
}

// createUnique creates name in dir, or in the first numbered subdirectory
// of dir where name does not exist yet.
func createUnique(dir, name string) (*os.File, error) {
	for n := 1; ; n++ {
		target := dir
		if n > 1 {
			target = filepath.Join(dir, strconv.Itoa(n))
		}
		if err := os.MkdirAll(target, 0755); err != nil {
			return nil, err
		}
		file, err := os.OpenFile(filepath.Join(target, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		return file, err
	}
}

// ReportPath returns where the report of runID in ext is written
func (m *Manager) ReportPath(runID, ext string) string {
	return m.paths.ReportPath(runID, ext)
}

// RemoveRun deletes the uploads and reports of runID
func (m *Manager) RemoveRun(runID string) error {
	var errs []error
	if err := os.RemoveAll(m.paths.RunUploadDir(runID)); err != nil {
		errs = append(errs, err)
	}
	matches, err := filepath.Glob(m.paths.ReportPath(runID, ".*"))
	if err != nil {
		errs = append(errs, err)
	}
	for _, p := range matches {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to remove files of run %s: %w", runID, err)
	}

	m.logger.Debug("run files removed", slog.String("run_id", runID))
	return nil
}

// SanitizeName reduces a client-supplied file name to a safe base name
func SanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(`<>:"|?*`, r) {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	return name
}
