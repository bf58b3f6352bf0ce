package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"switchrecon/internal/config"
	"switchrecon/internal/operations"
	"switchrecon/pkg/contracts"
)

// RunLister reports the retained runs
type RunLister interface {
	List() []operations.Run
}

// ClientCounter reports connected websocket clients
type ClientCounter interface {
	ClientCount() int
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	paths     *config.Paths
	runs      RunLister
	hub       ClientCounter
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]any           `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a health service
func NewHealthService(version string, paths *config.Paths, runs RunLister, hub ClientCounter, logger *slog.Logger) *HealthService {
	return &HealthService{
		version:   version,
		paths:     paths,
		runs:      runs,
		hub:       hub,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// HealthCheck returns overall health status with run counts
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	active, total := 0, 0
	for _, run := range hs.runs.List() {
		total++
		if !run.Status.Terminal() {
			active++
		}
	}

	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]any{
			"uptime_seconds":    time.Since(hs.startTime).Seconds(),
			"goroutines":        runtime.NumGoroutine(),
			"active_runs":       active,
			"retained_runs":     total,
			"websocket_clients": hs.hub.ClientCount(),
		},
	}

	hs.logger.DebugContext(ctx, "health check",
		slog.Int("active_runs", active),
		slog.Int("retained_runs", total))
	return status
}

// ReadinessCheck reports whether the work directories accept new runs
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]ServiceHealth{
			"uploads": checkWritable(hs.paths.UploadsDir),
			"reports": checkWritable(hs.paths.ReportsDir),
		},
	}
	for name, svc := range status.Services {
		if svc.Status != "ready" {
			status.Status = "not_ready"
			hs.logger.WarnContext(ctx, "readiness check failed",
				slog.String("check", name),
				slog.String("message", svc.Message))
		}
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]any {
	info := contracts.GetVersionInfo()
	return map[string]any{
		"version":     hs.version,
		"api_version": info.APIVersion,
		"git_commit":  info.GitCommit,
		"build_time":  info.BuildTime,
		"go_version":  info.GoVersion,
		"os":          info.OS,
		"arch":        info.Architecture,
		"start_time":  hs.startTime.Format(time.RFC3339),
	}
}

func checkWritable(dir string) ServiceHealth {
	f, err := os.CreateTemp(dir, ".ready-*")
	if err != nil {
		return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("cannot write to %s: %v", dir, err)}
	}
	f.Close()
	os.Remove(f.Name())
	return ServiceHealth{Status: "ready"}
}
