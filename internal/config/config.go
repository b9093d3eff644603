// Package config provides centralized configuration for the service.
// Settings come from environment variables with defaults, and the whole
// set is validated on startup so misconfiguration fails fast.
package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Upload   UploadConfig
	Import   ImportConfig
	Export   ExportConfig
	Storage  StorageConfig
	Rate     RateLimitConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading a request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout bounds response writes; exports of photo-heavy
	// documents can take a while to stream (default: 2m)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"2m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is how long graceful shutdown may take (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 90s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"90s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required)
	URL string `env:"DATABASE_URL" required:"true"`

	// MaxConns is the pool ceiling (default: 20)
	MaxConns int `env:"DB_MAX_CONNS" default:"20"`

	// MinConns is the number of connections kept open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime closes connections idle this long (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// UploadConfig bounds incoming multipart uploads.
type UploadConfig struct {
	// MaxWorkbookSize caps an imported workbook in bytes (default: 20MB)
	MaxWorkbookSize int64 `env:"UPLOAD_MAX_WORKBOOK_SIZE" default:"20971520"`

	// MaxPhotoSize caps one photo upload in bytes (default: 10MB)
	MaxPhotoSize int64 `env:"UPLOAD_MAX_PHOTO_SIZE" default:"10485760"`
}

// Import commit disciplines. Exactly one runs per deployment; they have
// different idempotence guarantees and must never be mixed in one commit.
const (
	ImportModeUpsert  = "upsert"
	ImportModeReplace = "replace"
)

// ImportConfig selects workbook import behavior.
type ImportConfig struct {
	// Mode is the commit discipline: "upsert" (idempotent on the
	// document/category/evidence key) or "replace" (clear the document's
	// items, then insert the batch). (default: upsert)
	Mode string `env:"IMPORT_MODE" default:"upsert"`

	// QuantityFallback enables the opt-in heuristic that recovers a
	// quantity from any numeric cell in the row when the mapped quantity
	// cell fails to parse. (default: false)
	QuantityFallback bool `env:"IMPORT_QUANTITY_FALLBACK" default:"false"`
}

// ExportConfig locates the audit template.
type ExportConfig struct {
	// TemplatePath is the xlsx template on disk (required)
	TemplatePath string `env:"EXPORT_TEMPLATE_PATH" required:"true"`

	// PhotoSheet names the photo-template worksheet inside the template
	// (default: 사진대지)
	PhotoSheet string `env:"EXPORT_PHOTO_SHEET" default:"사진대지"`
}

// StorageConfig holds object-storage settings for evidence photos.
type StorageConfig struct {
	// Bucket is the primary photo bucket (required)
	Bucket string `env:"STORAGE_BUCKET" required:"true"`

	// FallbackBucket is tried once when a signed-URL fetch from the
	// primary bucket fails. Leftover from the bucket migration; it is a
	// single deliberate read-path retry, not a retry policy.
	FallbackBucket string `env:"STORAGE_FALLBACK_BUCKET"`

	// SignedURLTTL is the lifetime of issued read links (default: 10m)
	SignedURLTTL time.Duration `env:"STORAGE_SIGNED_URL_TTL" default:"10m"`
}

// RateLimitConfig holds per-IP request throttling.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default per-IP limit (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// UploadLimit is the tighter per-minute limit on import and photo
	// upload endpoints (default: 20)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"20"`
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
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
