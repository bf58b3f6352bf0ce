// Package contracts holds the identifiers shared by every surface of the
// service.
package contracts

import (
	"fmt"
	"runtime"
)

const (
	// Version is the current version of the application
	Version = "1.2.0"

	// APIVersion is the version of the HTTP and WebSocket contracts
	APIVersion = "v1"
)

// Set during build using ldflags
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionInfo contains detailed version information
type VersionInfo struct {
	Version      string `json:"version"`
	APIVersion   string `json:"api_version"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
}

// GetVersionInfo returns detailed version information
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:      Version,
		APIVersion:   APIVersion,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
	}
}

// GetFullVersionString returns a detailed version string
func GetFullVersionString() string {
	info := GetVersionInfo()
	return fmt.Sprintf("switchrecon v%s (api %s, built: %s, commit: %s, go: %s, os: %s/%s)",
		info.Version, info.APIVersion, info.BuildTime, info.GitCommit,
		info.GoVersion, info.OS, info.Architecture)
}
