// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Data      DataConfig
	Server    ServerConfig
	RateLimit RateLimitConfig
	Views     ViewsConfig
	SSE       SSEConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig locates the dataset files.
type DataConfig struct {
	BooksPath    string
	KeywordsPath string
	EventsPath   string // Optional
	SchemaPath   string // Optional YAML dimension schema; empty uses the built-in one
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port            string        // Server port (default: 8080)
	ReadTimeout     time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout    time.Duration // HTTP write timeout (default: 0, streams stay open)
	IdleTimeout     time.Duration // HTTP idle timeout (default: 60s)
	RequestTimeout  time.Duration // Per-request handler timeout, streams excluded (default: 10s)
	ShutdownTimeout time.Duration // Graceful shutdown budget (default: 10s)
	CORSOrigins     []string      // Allowed browser origins
}

// RateLimitConfig bounds filter mutations per client IP.
type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

// ViewsConfig holds dashboard panel configuration.
type ViewsConfig struct {
	TopN int // Treemap size (default: 15)
}

// SSEConfig holds event stream configuration.
type SSEConfig struct {
	Heartbeat time.Duration // Keep-alive interval (default: 30s)
}

// Options carries values from the command line. Overrides are keyed by
// environment variable name, e.g. "SERVER_PORT", and win over the
// environment; empty values are ignored.
type Options struct {
	EnvFile   string
	Overrides map[string]string
}

// Load builds the configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		// godotenv.Load never overrides variables that are already set.
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file %q: %w", opts.EnvFile, err)
		}
	}

	l := loader{overrides: opts.Overrides}

	cfg := &Config{
		App: AppConfig{
			Environment: l.str("ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: l.str("LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BooksPath:    l.str("DATA_BOOKS_PATH", filepath.Join("data", "books_master_file.csv")),
			KeywordsPath: l.str("DATA_KEYWORDS_PATH", filepath.Join("data", "keywords.csv")),
			EventsPath:   l.str("DATA_EVENTS_PATH", filepath.Join("data", "space_exploration_events.tsv")),
			SchemaPath:   l.str("DATA_SCHEMA_PATH", ""),
		},
		Server: ServerConfig{
			Port:            l.str("SERVER_PORT", "8080"),
			ReadTimeout:     l.duration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    l.duration("SERVER_WRITE_TIMEOUT", 0),
			IdleTimeout:     l.duration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			RequestTimeout:  l.duration("SERVER_REQUEST_TIMEOUT", 10*time.Second),
			ShutdownTimeout: l.duration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CORSOrigins:     l.list("CORS_ORIGINS", []string{"http://localhost:5173"}),
		},
		RateLimit: RateLimitConfig{
			Enabled: l.boolean("RATE_LIMIT_ENABLED", true),
			RPS:     l.float("RATE_LIMIT_RPS", 10),
			Burst:   l.integer("RATE_LIMIT_BURST", 20),
		},
		Views: ViewsConfig{
			TopN: l.integer("VIEWS_TOP_N", 15),
		},
		SSE: SSEConfig{
			Heartbeat: l.duration("SSE_HEARTBEAT", 30*time.Second),
		},
	}

	if len(l.errs) > 0 {
		return nil, errors.Join(l.errs...)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BooksPath == "" {
		return errors.New("books path is required")
	}
	if c.Data.KeywordsPath == "" {
		return errors.New("keywords path is required")
	}

	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid server port: %q", c.Server.Port)
	}

	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst < 1) {
		return fmt.Errorf("invalid rate limit: rps %g, burst %d (both must be positive)", c.RateLimit.RPS, c.RateLimit.Burst)
	}

	if c.Views.TopN < 1 {
		return fmt.Errorf("invalid views top-n: %d (must be at least 1)", c.Views.TopN)
	}

	if c.SSE.Heartbeat <= 0 {
		return fmt.Errorf("invalid SSE heartbeat: %s", c.SSE.Heartbeat)
	}

	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Server.Port
}

// expandPath expands ~ and makes the path absolute.
// An empty path stays empty.
func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.Data.BooksPath, &c.Data.KeywordsPath, &c.Data.EventsPath, &c.Data.SchemaPath} {
		expanded, err := expandPath(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

// loader resolves keys against overrides, then the environment, then the
// default, collecting parse errors instead of failing on the first one.
type loader struct {
	overrides map[string]string
	errs      []error
}

// str returns the first non-empty value from flag, env var, or default.
func (l *loader) str(key, defaultValue string) string {
	// Priority 1: Command-line flag.
	if v := l.overrides[key]; v != "" {
		return v
	}

	// Priority 2: Environment variable (including values from .env).
	if v := os.Getenv(key); v != "" {
		return v
	}

	// Priority 3: Default value.
	return defaultValue
}

// boolean accepts "true", "1", "yes" (case-insensitive) as true; anything else is false.
func (l *loader) boolean(key string, defaultValue bool) bool {
	v := l.str(key, "")
	if v == "" {
		return defaultValue
	}
	v = strings.ToLower(v)
	return v == "true" || v == "1" || v == "yes"
}

func (l *loader) integer(key string, defaultValue int) int {
	v := l.str(key, "")
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("invalid %s %q: %w", key, v, err))
		return defaultValue
	}
	return n
}

func (l *loader) float(key string, defaultValue float64) float64 {
	v := l.str(key, "")
	if v == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("invalid %s %q: %w", key, v, err))
		return defaultValue
	}
	return f
}

func (l *loader) duration(key string, defaultValue time.Duration) time.Duration {
	v := l.str(key, "")
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("invalid %s %q: %w", key, v, err))
		return defaultValue
	}
	return d
}

// list splits a comma-separated value, dropping empty entries.
func (l *loader) list(key string, defaultValue []string) []string {
	v := l.str(key, "")
	if v == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
