package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Load reads configuration from environment variables, applies defaults
// for unset values, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := fillStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// fillStruct recursively populates struct fields from the environment
// using the `env`, `default`, and `required` tags.
func fillStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := fillStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		if envName == "" {
			continue
		}

		value := os.Getenv(envName)
		if value == "" {
			if field.Tag.Get("required") == "true" {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = field.Tag.Get("default")
		}
		if value == "" {
			continue
		}

		if err := assign(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// assign sets a reflect.Value from its string representation.
func assign(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.SetInt(int64(d))
			return nil
		}
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(i)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks the configuration and reports every failure at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Database.URL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if c.Database.MaxConns <= 0 {
		errs = append(errs, "DB_MAX_CONNS must be positive")
	}
	if c.Database.MinConns < 0 {
		errs = append(errs, "DB_MIN_CONNS must be non-negative")
	}
	if c.Database.MaxConns < c.Database.MinConns {
		errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
			c.Database.MaxConns, c.Database.MinConns))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	if c.Upload.MaxWorkbookSize <= 0 {
		errs = append(errs, "UPLOAD_MAX_WORKBOOK_SIZE must be positive")
	}
	if c.Upload.MaxPhotoSize <= 0 {
		errs = append(errs, "UPLOAD_MAX_PHOTO_SIZE must be positive")
	}

	switch c.Import.Mode {
	case ImportModeUpsert, ImportModeReplace:
	default:
		errs = append(errs, fmt.Sprintf("IMPORT_MODE (%q) must be %q or %q",
			c.Import.Mode, ImportModeUpsert, ImportModeReplace))
	}

	if c.Export.TemplatePath == "" {
		errs = append(errs, "EXPORT_TEMPLATE_PATH is required")
	}
	if c.Export.PhotoSheet == "" {
		errs = append(errs, "EXPORT_PHOTO_SHEET must not be empty")
	}

	if c.Storage.Bucket == "" {
		errs = append(errs, "STORAGE_BUCKET is required")
	}
	if c.Storage.SignedURLTTL <= 0 {
		errs = append(errs, "STORAGE_SIGNED_URL_TTL must be positive")
	}

	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}
	if c.Rate.Enabled && c.Rate.UploadLimit <= 0 {
		errs = append(errs, "RATE_LIMIT_UPLOAD must be positive when rate limiting is enabled")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a loggable representation with the database URL masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Server: {Addr: %q}, Database: {URL: [MASKED], MaxConns: %d}, Import: {Mode: %q}, Storage: {Bucket: %q, Fallback: %q}, Logging: {Level: %q, Format: %q}}",
		c.Server.Addr(), c.Database.MaxConns, c.Import.Mode,
		c.Storage.Bucket, c.Storage.FallbackBucket,
		c.Logging.Level, c.Logging.Format,
	)
}
