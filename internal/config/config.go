// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Inventory backends.
const (
	BackendSQL  = "sql"
	BackendHTTP = "http"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Inventory InventoryConfig
	Import    ImportConfig
	Security  SecurityConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `envconfig:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `envconfig:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing a response (default: 3m)
	WriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"3m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 150s)
	RequestTimeout time.Duration `envconfig:"SERVER_REQUEST_TIMEOUT" default:"150s"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string, required for the sql backend.
	// DB_URL is accepted as a fallback.
	URL string `envconfig:"DATABASE_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `envconfig:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `envconfig:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `envconfig:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// EnsureSchema creates the products table on startup (default: true)
	EnsureSchema bool `envconfig:"DB_ENSURE_SCHEMA" default:"true"`
}

// InventoryConfig selects where submitted products go.
type InventoryConfig struct {
	// Backend is "sql" (PostgreSQL) or "http" (remote inventory API) (default: sql)
	Backend string `envconfig:"INVENTORY_BACKEND" default:"sql"`

	// URL is the base URL of the inventory API, required for the http backend
	URL string `envconfig:"INVENTORY_URL"`

	// Timeout is the HTTP client timeout for the inventory API (default: 30s)
	Timeout time.Duration `envconfig:"INVENTORY_TIMEOUT" default:"30s"`
}

// ImportConfig holds staging pipeline settings.
type ImportConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 10MB)
	MaxFileSize int64 `envconfig:"IMPORT_MAX_FILE_SIZE" default:"10485760"`

	// MaxConcurrent is the maximum number of parallel parse/submit operations (default: 5)
	MaxConcurrent int `envconfig:"IMPORT_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long to wait for a processing slot (default: 30s)
	MaxWaitTime time.Duration `envconfig:"IMPORT_MAX_WAIT_TIME" default:"30s"`

	// Delimiter is the single-character field delimiter (default: ",")
	Delimiter string `envconfig:"IMPORT_DELIMITER" default:","`

	// LazyQuotes tolerates stray quotes instead of rejecting the file (default: false)
	LazyQuotes bool `envconfig:"IMPORT_LAZY_QUOTES" default:"false"`

	// PositionalColumns is the column order for files without a header.
	// Empty means every schema field in schema order.
	PositionalColumns []string `envconfig:"IMPORT_POSITIONAL_COLUMNS"`

	// SessionTTL is how long an untouched import session is kept (default: 2h)
	SessionTTL time.Duration `envconfig:"IMPORT_SESSION_TTL" default:"2h"`

	// JanitorInterval is how often idle sessions are swept (default: 5m)
	JanitorInterval time.Duration `envconfig:"IMPORT_JANITOR_INTERVAL" default:"5m"`

	// SubmitTimeout bounds a single submit call (default: 2m)
	SubmitTimeout time.Duration `envconfig:"IMPORT_SUBMIT_TIMEOUT" default:"2m"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `envconfig:"TRUSTED_PROXIES"`

	// RequireAPIKey enables API key authentication on /api routes (default: false)
	RequireAPIKey bool `envconfig:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `envconfig:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `envconfig:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `envconfig:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// Comma returns the delimiter as a rune. Validate guarantees it is one character.
func (c *ImportConfig) Comma() rune {
	for _, r := range c.Delimiter {
		return r
	}
	return ','
}
