package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Matching  MatchingConfig  `yaml:"matching" envconfig:"MATCHING"`
	Runs      RunsConfig      `yaml:"runs" envconfig:"RUNS"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	RunTimeout      time.Duration `yaml:"run_timeout" envconfig:"RUN_TIMEOUT" validate:"gt=0"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" validate:"gt=0"`
	// CORSOrigins lists browser origins allowed to call the API
	CORSOrigins []string `yaml:"cors_origins" envconfig:"CORS_ORIGINS"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"eq=json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// MatchingConfig tunes the fuzzy resolvers and the row-enrichment pool
type MatchingConfig struct {
	SheetThreshold  float64 `yaml:"sheet_threshold" envconfig:"SHEET_THRESHOLD" validate:"gte=0,lte=100"`
	SchemeThreshold float64 `yaml:"scheme_threshold" envconfig:"SCHEME_THRESHOLD" validate:"gte=0,lte=100"`
	Workers         int     `yaml:"workers" envconfig:"WORKERS" validate:"min=1,max=256"`
}

// RunsConfig controls where uploaded inputs live and how long finished runs are kept
type RunsConfig struct {
	WorkDir         string        `yaml:"work_dir" envconfig:"WORK_DIR" validate:"required"`
	Retention       time.Duration `yaml:"retention" envconfig:"RETENTION" validate:"gt=0"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" envconfig:"CLEANUP_INTERVAL" validate:"gt=0"`
}

// TelemetryConfig selects the OpenTelemetry exporters
type TelemetryConfig struct {
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=prometheus none"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gt=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"min=1"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" validate:"min=1"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" validate:"min=1"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" validate:"gt=0"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" validate:"gtfield=PingPeriod"`
	// AllowedOrigins lists cross-origin pages allowed to subscribe.
	// Same-host requests are always allowed.
	AllowedOrigins []string `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
}

// Load builds the configuration from defaults, an optional YAML file and
// SWITCHRECON_* environment variables, in increasing order of precedence.
// A .env file in the working directory is loaded into the environment first.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	if configFile := getConfigFilePath(); configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// No default tags: fields without a matching variable keep their value.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg; keys absent from the file keep their value
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks struct constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return fmt.Errorf("logging.file_path is required for output %q", c.Logging.Output)
	}
	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG"); explicit != "" {
		return explicit
	}

	locations := []string{
		"switchrecon.yaml",
		"configs/switchrecon.yaml",
		"../configs/switchrecon.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    2 * time.Minute,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RunTimeout:      DefaultRunTimeout,
			MaxUploadBytes:  64 << 20,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/switchrecon.log",
		},
		Matching: MatchingConfig{
			SheetThreshold:  DefaultMatchThreshold,
			SchemeThreshold: DefaultMatchThreshold,
			Workers:         4,
		},
		Runs: RunsConfig{
			WorkDir:         DefaultWorkDir,
			Retention:       DefaultRunRetention,
			CleanupInterval: 10 * time.Minute,
		},
		Telemetry: TelemetryConfig{
			MetricExporter: "prometheus",
			TraceExporter:  "none",
			SampleRatio:    1.0,
			Environment:    "development",
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			RPS:     50,
			Burst:   20,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
		},
	}
}
