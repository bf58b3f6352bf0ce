package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		yaml        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with no env vars",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, DefaultMatchThreshold, cfg.Matching.SheetThreshold)
				assert.Equal(t, DefaultMatchThreshold, cfg.Matching.SchemeThreshold)
				assert.Equal(t, 4, cfg.Matching.Workers)
				assert.Equal(t, DefaultRunRetention, cfg.Runs.Retention)
				assert.Equal(t, "prometheus", cfg.Telemetry.MetricExporter)
				assert.True(t, cfg.RateLimit.Enabled)
			},
		},
		{
			name: "environment overrides defaults",
			env: map[string]string{
				"SWITCHRECON_SERVER_PORT":      "9191",
				"SWITCHRECON_MATCHING_WORKERS": "12",
				"SWITCHRECON_RUNS_RETENTION":   "30m",
				"SWITCHRECON_LOGGING_LEVEL":    "debug",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9191, cfg.Server.Port)
				assert.Equal(t, 12, cfg.Matching.Workers)
				assert.Equal(t, 30*time.Minute, cfg.Runs.Retention)
				assert.Equal(t, "debug", cfg.Logging.Level)
			},
		},
		{
			name: "yaml file fills values and env still wins",
			yaml: "server:\n  port: 7000\nmatching:\n  workers: 2\n  sheet_threshold: 90\n",
			env: map[string]string{
				"SWITCHRECON_MATCHING_WORKERS": "6",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7000, cfg.Server.Port)
				assert.Equal(t, 6, cfg.Matching.Workers)
				assert.Equal(t, 90.0, cfg.Matching.SheetThreshold)
				// untouched keys keep their defaults
				assert.Equal(t, DefaultMatchThreshold, cfg.Matching.SchemeThreshold)
			},
		},
		{
			name:    "invalid port rejected",
			env:     map[string]string{"SWITCHRECON_SERVER_PORT": "70000"},
			wantErr: true,
		},
		{
			name:    "threshold above 100 rejected",
			env:     map[string]string{"SWITCHRECON_MATCHING_SCHEME_THRESHOLD": "101"},
			wantErr: true,
		},
		{
			name:    "unknown trace exporter rejected",
			env:     map[string]string{"SWITCHRECON_TELEMETRY_TRACE_EXPORTER": "otlp"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SWITCHRECON_CONFIG", "")
			if tt.yaml != "" {
				configPath := filepath.Join(t.TempDir(), "switchrecon.yaml")
				require.NoError(t, os.WriteFile(configPath, []byte(tt.yaml), 0644))
				t.Setenv("SWITCHRECON_CONFIG", configPath)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestValidate_FileOutputNeedsPath(t *testing.T) {
	cfg := Default()
	cfg.Logging.Output = "file"
	cfg.Logging.FilePath = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file_path")
}

func TestValidate_PongWaitMustExceedPing(t *testing.T) {
	cfg := Default()
	cfg.WebSocket.PongWait = cfg.WebSocket.PingPeriod

	assert.Error(t, cfg.Validate())
}

func TestFundingHeaderOffsets(t *testing.T) {
	assert.Equal(t, []int{3, 4, 5}, FundingHeaderOffsets)
	assert.Equal(t, 10, HeaderScanRows)
}
