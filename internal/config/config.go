// Package config provides centralized configuration management for slexa.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
//
// Reference documents (schema, finish table, lookups, run document) are only
// located here; the reference package reads and parses them.
package config

import (
	"strconv"
	"time"
)

// Grade sources.
const (
	GradeSourcePostgres = "postgres"
	GradeSourceFile     = "file"
)

// Publish formats.
const (
	PublishXLSX = "xlsx"
	PublishCSV  = "csv"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Staging   StagingConfig
	Reference ReferenceConfig
	Pipeline  PipelineConfig
	Translate TranslateConfig
	Publish   PublishConfig
	Security  SecurityConfig
	Rate      RateConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 10m, a run can be slow)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"10m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 10m)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"10m"`
}

// DatabaseConfig holds settings for the grade reference database.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string, required when GRADE_SOURCE=postgres.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	// MinConns is the minimum number of connections to keep open (default: 0)
	MinConns int `env:"DB_MIN_CONNS" default:"0"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// StagingConfig locates the staging area.
type StagingConfig struct {
	// Dir is the root holding raw/, interim/, processed/ and reports/ (default: data)
	Dir string `env:"STAGING_DIR" default:"data"`
}

// ReferenceConfig locates the reference documents.
type ReferenceConfig struct {
	SchemaPath         string `env:"SCHEMA_PATH" default:"config/schema.yaml"`
	FinishPath         string `env:"FINISH_REPO_PATH" default:"config/finishes.yaml"`
	MaterialTablePath  string `env:"MATERIAL_TABLE_PATH" default:"config/materials.yaml"`
	CategoryMatrixPath string `env:"CATEGORY_MATRIX_PATH" default:"config/categories.yaml"`
	RunConfigPath      string `env:"RUN_CONFIG_PATH" default:"config/run.yaml"`

	// GradeSource selects where active grades come from: postgres or file (default: postgres)
	GradeSource string `env:"GRADE_SOURCE" default:"postgres"`

	// GradeListPath is the YAML grade list used when GradeSource is file
	GradeListPath string `env:"GRADE_LIST_PATH" default:"config/grades.yaml"`
}

// PipelineConfig holds the stage thresholds.
type PipelineConfig struct {
	// ColumnMatchThreshold is the minimum header similarity, 0-100 (default: 80)
	ColumnMatchThreshold int `env:"COLUMN_MATCH_THRESHOLD" default:"80"`

	// RowMissingThreshold is passed to the row pruner (default: 0.9)
	RowMissingThreshold float64 `env:"ROW_MISSING_THRESHOLD" default:"0.9"`

	// FormWidthThreshold separates coils from slit coils in mm (default: 600)
	FormWidthThreshold float64 `env:"FORM_WIDTH_THRESHOLD" default:"600"`

	// ExcelSheet names the worksheet to read; empty means the first sheet
	ExcelSheet string `env:"EXCEL_SHEET"`
}

// TranslateConfig configures the description translator. An empty URL
// disables translation.
type TranslateConfig struct {
	URL     string        `env:"TRANSLATE_URL"`
	Source  string        `env:"TRANSLATE_SOURCE" default:"de"`
	Target  string        `env:"TRANSLATE_TARGET" default:"en"`
	Timeout time.Duration `env:"TRANSLATE_TIMEOUT" default:"10s"`
}

// PublishConfig configures the load stage's publisher. An empty Dir
// disables publishing.
type PublishConfig struct {
	Dir        string `env:"PUBLISH_DIR"`
	Format     string `env:"PUBLISH_FORMAT" default:"xlsx"`
	LayoutPath string `env:"PUBLISH_LAYOUT_PATH"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// APIKeys is a comma-separated list of keys accepted on /api routes
	APIKeys []string `env:"API_KEYS"`

	// RequireAPIKey rejects /api requests without a valid X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// RateConfig holds per-IP rate limiting for the HTTP API.
type RateConfig struct {
	// Enabled turns rate limiting on (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// Requests is the number of requests allowed per window (default: 100)
	Requests int `env:"RATE_LIMIT_REQUESTS" default:"100"`

	// Window is the rate limit window (default: 1m)
	Window time.Duration `env:"RATE_LIMIT_WINDOW" default:"1m"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
