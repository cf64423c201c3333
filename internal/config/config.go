package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // zones must resolve on minimal kiosk images

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config represents the main application configuration structure
// containing all configuration sections
type Config struct {
	Server  ServerConfig  `toml:"server"`  // HTTP server settings
	Source  SourceConfig  `toml:"source"`  // Upstream backend settings
	Display DisplayConfig `toml:"display"` // Local wall-clock settings
	Logging LoggingConfig `toml:"logging"` // Application logging settings
	API     APIConfig     `toml:"api"`     // Manual refresh settings
	Metrics MetricsConfig `toml:"metrics"` // Prometheus settings
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port             int    `toml:"port"`                  // HTTP port the dashboard is served on
	Host             string `toml:"host"`                  // Host address to bind to (e.g., 127.0.0.1 for localhost only, 0.0.0.0 for all interfaces)
	ReadTimeoutSecs  int    `toml:"read_timeout_seconds"`  // Maximum duration for reading the entire request (0 = no timeout)
	WriteTimeoutSecs int    `toml:"write_timeout_seconds"` // Maximum duration for writing the response (0 = no timeout)
	IdleTimeoutSecs  int    `toml:"idle_timeout_seconds"`  // Maximum duration to wait for the next request when keep-alives are enabled
	StaticFilesDir   string `toml:"static_files_dir"`      // Directory holding index.html and icons/
}

// SourceConfig contains the upstream endpoint settings
type SourceConfig struct {
	BaseURL                 string `toml:"base_url"`                  // Base URL serving /clock, /weather and /departures
	RequestTimeoutSeconds   int    `toml:"request_timeout_seconds"`   // Deadline for one upstream request
	BreakerFailureThreshold int    `toml:"breaker_failure_threshold"` // Consecutive transport failures that open a breaker (0 = disabled)
	BreakerOpenSeconds      int    `toml:"breaker_open_seconds"`      // How long an open breaker fails fast
}

// DisplayConfig contains settings for the locally computed time
type DisplayConfig struct {
	Timezone string `toml:"timezone"` // IANA zone used for the clock and day/night icons (e.g., "Europe/Stockholm")
}

// LoggingConfig contains application logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`  // Log level: "debug", "info", "warn", or "error"
	Format string `toml:"format"` // Log format: "json" (structured) or "console" (human-readable)
}

// APIConfig contains settings for the manual refresh endpoint
type APIConfig struct {
	RefreshPerSecond float64 `toml:"refresh_per_second"` // Sustained rate of manual refreshes
	RefreshBurst     int     `toml:"refresh_burst"`      // Burst of manual refreshes
}

// MetricsConfig contains Prometheus settings
type MetricsConfig struct {
	Enabled   bool   `toml:"enabled"`   // Expose /metrics
	Namespace string `toml:"namespace"` // Metric name prefix
}

// Default returns the configuration used when no file sets a value
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:             8000,
			Host:             "0.0.0.0",
			ReadTimeoutSecs:  15,
			WriteTimeoutSecs: 15,
			IdleTimeoutSecs:  60,
			StaticFilesDir:   "web",
		},
		Source: SourceConfig{
			BaseURL:                 "http://localhost:8080",
			RequestTimeoutSeconds:   10,
			BreakerFailureThreshold: 5,
			BreakerOpenSeconds:      30,
		},
		Display: DisplayConfig{
			Timezone: "Local",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		API: APIConfig{
			RefreshPerSecond: 1,
			RefreshBurst:     3,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "infotavla",
		},
	}
}

// Load loads configuration from a TOML file on top of the defaults
func Load(path string) (*Config, error) {
	config := Default()

	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, fmt.Errorf("error decoding config file %s: %w", path, err)
	}

	return config, nil
}

// LoadWithFallback loads the preferred path, or the first config found in the
// usual locations, or the defaults when there is none. Environment overrides
// (including a .env file) are applied last.
func LoadWithFallback(preferredPath string) (*Config, error) {
	var config *Config

	if preferredPath != "" {
		c, err := Load(preferredPath)
		if err != nil {
			return nil, err
		}
		config = c
	} else {
		candidates := []string{
			"configs/config.toml",
			"config.toml",
		}
		for _, path := range candidates {
			if _, err := os.Stat(path); err != nil {
				continue
			}
			c, err := Load(path)
			if err != nil {
				return nil, err
			}
			config = c
			break
		}
		if config == nil {
			config = Default()
		}
	}

	// .env is optional
	_ = godotenv.Load()

	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return config, nil
}

// Environment variables that override file settings
const (
	EnvBaseURL  = "INFOTAVLA_BASE_URL"
	EnvPort     = "INFOTAVLA_PORT"
	EnvLogLevel = "INFOTAVLA_LOG_LEVEL"
	EnvTimezone = "INFOTAVLA_TIMEZONE"
)

// ApplyEnv overrides settings from the environment
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		c.Source.BaseURL = v
	}
	if v, ok := lookup(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		c.Server.Port = port
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := lookup(EnvTimezone); ok && v != "" {
		c.Display.Timezone = v
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate server configuration
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeoutSecs < 0 || c.Server.WriteTimeoutSecs < 0 || c.Server.IdleTimeoutSecs < 0 {
		return fmt.Errorf("server timeouts must be 0 or greater")
	}

	if err := c.ValidateSource(); err != nil {
		return err
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging format: %q", c.Logging.Format)
	}

	if c.API.RefreshPerSecond <= 0 {
		return fmt.Errorf("api refresh_per_second must be greater than 0: %v", c.API.RefreshPerSecond)
	}
	if c.API.RefreshBurst <= 0 {
		return fmt.Errorf("api refresh_burst must be greater than 0: %d", c.API.RefreshBurst)
	}

	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "infotavla"
	}

	return nil
}

// ValidateSource validates the upstream configuration
func (c *Config) ValidateSource() error {
	if c.Source.BaseURL == "" {
		return fmt.Errorf("source base_url cannot be empty")
	}
	u, err := url.Parse(c.Source.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid source base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("source base_url must be http or https: %q", c.Source.BaseURL)
	}

	if c.Source.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("source request_timeout_seconds must be greater than 0: %d", c.Source.RequestTimeoutSeconds)
	}
	if c.Source.BreakerFailureThreshold < 0 {
		return fmt.Errorf("source breaker_failure_threshold must be 0 or greater: %d", c.Source.BreakerFailureThreshold)
	}
	if c.Source.BreakerFailureThreshold > 0 && c.Source.BreakerOpenSeconds <= 0 {
		return fmt.Errorf("source breaker_open_seconds must be greater than 0 when the breaker is enabled")
	}
	return nil
}

// Location resolves the configured timezone
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Display.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid display timezone %q: %w", c.Display.Timezone, err)
	}
	return loc, nil
}

// RequestTimeout returns the upstream request deadline
func (s SourceConfig) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}

// BreakerOpenTimeout returns how long an open breaker fails fast
func (s SourceConfig) BreakerOpenTimeout() time.Duration {
	return time.Duration(s.BreakerOpenSeconds) * time.Second
}
