package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths holds the directories a run touches. Relative entries are resolved
// against the working directory.
type Paths struct {
	WorkDir    string
	UploadsDir string
	ReportsDir string
	LogsDir    string
}

// GetPaths resolves the run directories for cfg
func GetPaths(cfg *Config) (*Paths, error) {
	workDir, err := filepath.Abs(cfg.Runs.WorkDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve work dir %s: %w", cfg.Runs.WorkDir, err)
	}

	logsDir := ""
	if cfg.Logging.FilePath != "" {
		if logsDir, err = filepath.Abs(filepath.Dir(cfg.Logging.FilePath)); err != nil {
			return nil, fmt.Errorf("failed to resolve logs dir: %w", err)
		}
	}

	return &Paths{
		WorkDir:    workDir,
		UploadsDir: filepath.Join(workDir, "uploads"),
		ReportsDir: filepath.Join(workDir, "reports"),
		LogsDir:    logsDir,
	}, nil
}

// RunUploadDir returns the directory holding the uploaded inputs of one run
func (p *Paths) RunUploadDir(runID string) string {
	return filepath.Join(p.UploadsDir, runID)
}

// ReportPath returns the path of a generated report file
func (p *Paths) ReportPath(runID, ext string) string {
	return filepath.Join(p.ReportsDir, runID+ext)
}

// EnsureDirectories creates all run directories
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.WorkDir, p.UploadsDir, p.ReportsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// LogPathResolution logs the resolved directories
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	logger.Info("Resolved paths",
		slog.String("work_dir", p.WorkDir),
		slog.String("uploads_dir", p.UploadsDir),
		slog.String("reports_dir", p.ReportsDir),
		slog.String("logs_dir", p.LogsDir))
}

// FileExists reports whether path names an existing regular file
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
