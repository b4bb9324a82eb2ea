package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Refresh modes for the inventory reload that follows an accepted order.
const (
	RefreshModeDelay = "delay"
	RefreshModePoll  = "poll"
)

// Config holds all configuration for the application
// Following 12-factor app principles, all config is loaded from environment variables
type Config struct {
	Server      ServerConfig
	Backend     BackendConfig
	Sync        SyncConfig
	CORS        CORSConfig
	Diagnostics DiagnosticsConfig
	LogLevel    string
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     int
	WriteTimeout    int
	ShutdownTimeout int
}

// BackendConfig locates the catalog/inventory/order REST API.
type BackendConfig struct {
	BaseURL   string
	APIPrefix string
	Timeout   time.Duration
}

// SyncConfig tunes the controller's status messages and post-order refresh.
type SyncConfig struct {
	StatusTTL            time.Duration // 0 keeps messages until overwritten
	OrderRefreshMode     string
	OrderRefreshDelay    time.Duration
	OrderRefreshInterval time.Duration
	OrderRefreshMaxWait  time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type DiagnosticsConfig struct {
	Enabled bool
}

// Load reads configuration from environment variables.
// A .env file in the working directory is applied first when present;
// variables already set in the environment win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "0.0.0.0"),
			ReadTimeout:     getEnvAsInt("READ_TIMEOUT", 15),
			WriteTimeout:    getEnvAsInt("WRITE_TIMEOUT", 15),
			ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 30),
		},
		Backend: BackendConfig{
			BaseURL:   getEnv("BACKEND_URL", "http://localhost:8081"),
			APIPrefix: getEnv("API_PREFIX", "/api"),
			Timeout:   getEnvAsDuration("BACKEND_TIMEOUT", 10*time.Second),
		},
		Sync: SyncConfig{
			StatusTTL:            getEnvAsDuration("STATUS_TTL", 3*time.Second),
			OrderRefreshMode:     strings.ToLower(getEnv("ORDER_REFRESH_MODE", RefreshModePoll)),
			OrderRefreshDelay:    getEnvAsDuration("ORDER_REFRESH_DELAY", 500*time.Millisecond),
			OrderRefreshInterval: getEnvAsDuration("ORDER_REFRESH_INTERVAL", time.Second),
			OrderRefreshMaxWait:  getEnvAsDuration("ORDER_REFRESH_MAX_WAIT", 15*time.Second),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Diagnostics: DiagnosticsConfig{
			Enabled: getEnvAsBool("DIAGNOSTICS_ENABLED", false),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Backend.BaseURL == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid BACKEND_URL: %q", c.Backend.BaseURL)
	}

	if c.Backend.APIPrefix != "" && !strings.HasPrefix(c.Backend.APIPrefix, "/") {
		return fmt.Errorf("API_PREFIX must start with '/': %q", c.Backend.APIPrefix)
	}

	if c.Sync.StatusTTL < 0 {
		return fmt.Errorf("STATUS_TTL must not be negative")
	}

	switch c.Sync.OrderRefreshMode {
	case RefreshModeDelay:
	case RefreshModePoll:
		if c.Sync.OrderRefreshInterval <= 0 {
			return fmt.Errorf("ORDER_REFRESH_INTERVAL must be positive in poll mode")
		}
		if c.Sync.OrderRefreshMaxWait < c.Sync.OrderRefreshDelay {
			return fmt.Errorf("ORDER_REFRESH_MAX_WAIT must not be shorter than ORDER_REFRESH_DELAY")
		}
	default:
		return fmt.Errorf("invalid ORDER_REFRESH_MODE: %s (must be delay or poll)", c.Sync.OrderRefreshMode)
	}

	if c.Sync.OrderRefreshDelay < 0 {
		return fmt.Errorf("ORDER_REFRESH_DELAY must not be negative")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts Go durations ("500ms", "3s"); "0" disables.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}
