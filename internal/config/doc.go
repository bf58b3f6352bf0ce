// Package config provides centralized configuration management for switchrecon.
// It handles loading configuration from multiple sources, validation, and the
// named constants shared by the matching engine.
//
// # Configuration Sources
//
// Configuration is assembled in the following order, later sources winning:
//
//	1. Default values (Default())
//	2. YAML file (switchrecon.yaml, configs/switchrecon.yaml or $SWITCHRECON_CONFIG)
//	3. Environment variables, including those loaded from a local .env file
//
// # Environment Variables
//
// All environment variables follow the pattern SWITCHRECON_<SECTION>_<FIELD>:
//
//	SWITCHRECON_SERVER_PORT=8080
//	SWITCHRECON_LOGGING_LEVEL=debug
//	SWITCHRECON_MATCHING_WORKERS=8
//	SWITCHRECON_RUNS_RETENTION=4h
//	SWITCHRECON_TELEMETRY_TRACE_EXPORTER=stdout
//
// # Validation
//
// Struct constraints are declared with validate tags and checked with
// go-playground/validator at load time. An invalid configuration is fatal.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Tests use config.Default() directly.
package config
