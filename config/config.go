// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig   `yaml:"server"`
	Providers ProviderConfig `yaml:"providers"`
	Storage   StorageConfig  `yaml:"storage"`
	Usage     UsageConfig    `yaml:"usage"`
	Breaker   BreakerConfig  `yaml:"breaker"`
	Logging   LoggingConfig  `yaml:"logging"`
	Metrics   MetricsConfig  `yaml:"metrics"`
	MCP       MCPConfig      `yaml:"mcp"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	BaseURL      string        `yaml:"base_url"`     // advertised in oauth resource metadata
	AuthServers  []string      `yaml:"auth_servers"` // authorization server URLs for oauth resource metadata
}

// ProviderConfig configures the two upstream AI providers.
type ProviderConfig struct {
	V0      ProviderEndpoint `yaml:"v0"`
	Gateway ProviderEndpoint `yaml:"gateway"`
}

// ProviderEndpoint configures one upstream provider.
type ProviderEndpoint struct {
	BaseURL          string        `yaml:"base_url"`
	APIKey           string        `yaml:"api_key"`
	Model            string        `yaml:"model"`
	SystemPromptFile string        `yaml:"system_prompt_file"`
	Timeout          time.Duration `yaml:"timeout"`
}

// StorageConfig configures subscription and usage storage.
type StorageConfig struct {
	Driver string `yaml:"driver"` // "memory" or "sqlite"
	DSN    string `yaml:"dsn"`
}

// UsageConfig configures the usage event recorder.
type UsageConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// BreakerConfig configures the provider circuit breakers.
type BreakerConfig struct {
	Enabled          bool          `yaml:"enabled"`
	MaxRequests      int           `yaml:"max_requests"`
	Interval         time.Duration `yaml:"interval"`
	Timeout          time.Duration `yaml:"timeout"`
	FailureThreshold int           `yaml:"failure_threshold"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// MCPConfig configures the MCP tool surface.
type MCPConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Name      string `yaml:"name"`
	Addr      string `yaml:"addr"`
	AuthToken string `yaml:"auth_token"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
// This is useful for Docker deployments where no config file is needed.
//
// Environment variables:
//
//	DUETGATE_SERVER_HOST       - Server host (default: 0.0.0.0)
//	DUETGATE_SERVER_PORT       - Server port (default: 8080)
//	DUETGATE_SERVER_BASE_URL   - Advertised base URL
//	DUETGATE_V0_API_KEY        - Server-side v0 API key
//	DUETGATE_V0_BASE_URL       - v0 API base URL
//	DUETGATE_GATEWAY_API_KEY   - Server-side AI gateway API key
//	DUETGATE_GATEWAY_BASE_URL  - AI gateway base URL
//	DUETGATE_STORAGE_DRIVER    - Storage driver: memory or sqlite (default: memory)
//	DUETGATE_STORAGE_DSN       - SQLite path (default: duetgate.db)
//	DUETGATE_LOG_LEVEL         - Log level: debug, info, warn, error (default: info)
//	DUETGATE_LOG_FORMAT        - Log format: json or console (default: json)
//	DUETGATE_METRICS_ENABLED   - Enable /metrics endpoint (default: true)
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback tries to load from file, falls back to environment
// variables when the file is absent.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

// HasEnvConfig reports whether enough environment configuration is
// present to run without a config file.
func HasEnvConfig() bool {
	return os.Getenv("DUETGATE_V0_API_KEY") != "" || os.Getenv("DUETGATE_GATEWAY_API_KEY") != ""
}

// applyEnvOverrides applies DUETGATE_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DUETGATE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("DUETGATE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DUETGATE_SERVER_BASE_URL"); v != "" {
		cfg.Server.BaseURL = v
	}

	if v := os.Getenv("DUETGATE_V0_BASE_URL"); v != "" {
		cfg.Providers.V0.BaseURL = v
	}
	if v := os.Getenv("DUETGATE_V0_API_KEY"); v != "" {
		cfg.Providers.V0.APIKey = v
	}
	if v := os.Getenv("DUETGATE_V0_MODEL"); v != "" {
		cfg.Providers.V0.Model = v
	}
	if v := os.Getenv("DUETGATE_GATEWAY_BASE_URL"); v != "" {
		cfg.Providers.Gateway.BaseURL = v
	}
	if v := os.Getenv("DUETGATE_GATEWAY_API_KEY"); v != "" {
		cfg.Providers.Gateway.APIKey = v
	}
	if v := os.Getenv("DUETGATE_GATEWAY_MODEL"); v != "" {
		cfg.Providers.Gateway.Model = v
	}

	if v := os.Getenv("DUETGATE_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("DUETGATE_STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}

	if v := os.Getenv("DUETGATE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("DUETGATE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("DUETGATE_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		// Generations can take a while; the write timeout bounds the
		// whole response.
		cfg.Server.WriteTimeout = 120 * time.Second
	}
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	if len(cfg.Server.AuthServers) == 0 {
		cfg.Server.AuthServers = []string{cfg.Server.BaseURL}
	}

	if cfg.Providers.V0.Timeout == 0 {
		cfg.Providers.V0.Timeout = 60 * time.Second
	}
	if cfg.Providers.Gateway.Timeout == 0 {
		cfg.Providers.Gateway.Timeout = 60 * time.Second
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "memory"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "duetgate.db"
	}

	if cfg.Usage.BatchSize == 0 {
		cfg.Usage.BatchSize = 100
	}
	if cfg.Usage.FlushInterval == 0 {
		cfg.Usage.FlushInterval = 10 * time.Second
	}

	if cfg.Breaker.MaxRequests == 0 {
		cfg.Breaker.MaxRequests = 3
	}
	if cfg.Breaker.Interval == 0 {
		cfg.Breaker.Interval = 10 * time.Second
	}
	if cfg.Breaker.Timeout == 0 {
		cfg.Breaker.Timeout = 30 * time.Second
	}
	if cfg.Breaker.FailureThreshold == 0 {
		cfg.Breaker.FailureThreshold = 5
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	if cfg.MCP.Name == "" {
		cfg.MCP.Name = "duetgate"
	}
	if cfg.MCP.Addr == "" {
		cfg.MCP.Addr = "127.0.0.1:8081"
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}
	switch cfg.Storage.Driver {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("unknown storage driver: %q", cfg.Storage.Driver)
	}
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %q", cfg.Logging.Level)
	}
	return nil
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}
