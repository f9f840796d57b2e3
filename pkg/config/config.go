package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the full RouteNet service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" validate:"required"`
	Discovery DiscoveryConfig `yaml:"discovery" validate:"required"`
	Pricing   PricingConfig   `yaml:"pricing"`
	Policy    PolicyConfig    `yaml:"policy"`
	Store     StoreConfig     `yaml:"store"`
	Logging   LoggingConfig   `yaml:"logging"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Synonyms  SynonymsConfig  `yaml:"synonyms"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// ListenAddr is the HTTP listen address.
	ListenAddr string `yaml:"listen_addr" validate:"required"`

	// CORSOrigins are accepted origins; ["*"] allows any.
	CORSOrigins []string `yaml:"cors_origins"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DiscoveryConfig configures the Discovery API client and cache.
type DiscoveryConfig struct {
	// APIURL is the Discovery API base URL.
	APIURL string `yaml:"api_url" validate:"required,url"`

	// RequestTimeout bounds each Discovery API call.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// CacheTTL is how long lookups are served without network access.
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// CacheMaxEntries caps the lookup cache.
	CacheMaxEntries int `yaml:"cache_max_entries" validate:"gte=0"`

	// Limit is the default result-count bound per lookup.
	Limit int `yaml:"limit" validate:"gt=0,lte=100"`
}

// PricingConfig configures Pricing Model 3 fee collection.
type PricingConfig struct {
	// Wallet is the settlement wallet address. Empty disables fee
	// collection; fees are still computed and surfaced.
	Wallet string `yaml:"wallet"`
}

// PolicyConfig configures the admission policy engine.
type PolicyConfig struct {
	// Enabled turns admission policy evaluation on.
	Enabled bool `yaml:"enabled"`

	// Dir optionally holds operator .rego policies loaded at startup.
	Dir string `yaml:"dir"`
}

// StoreConfig configures the route history store.
type StoreConfig struct {
	// Path is the SQLite DSN. Empty keeps history in memory only.
	Path string `yaml:"path"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn error fatal"`
	Format string `yaml:"format" validate:"oneof=console json"`
}

// TracingConfig configures distributed tracing.
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter" validate:"omitempty,oneof=otlp stdout none"`
	Endpoint string `yaml:"endpoint"`
}

// SynonymsConfig configures the capability synonym table.
type SynonymsConfig struct {
	// Path optionally replaces the built-in synonym table from a YAML
	// file mapping capability phrases to term lists.
	Path string `yaml:"path"`

	// Watch hot-reloads the table when the file changes.
	Watch bool `yaml:"watch"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:      ":8080",
			CORSOrigins:     []string{"*"},
			ShutdownTimeout: 10 * time.Second,
		},
		Discovery: DiscoveryConfig{
			APIURL:          "https://x402-discovery-api.onrender.com",
			RequestTimeout:  10 * time.Second,
			CacheTTL:        30 * time.Second,
			CacheMaxEntries: 1024,
			Limit:           10,
		},
		Policy: PolicyConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Tracing: TracingConfig{
			Enabled:  false,
			Exporter: "stdout",
		},
	}
}

// Load reads the configuration file at path, merges it over the defaults,
// applies environment overrides, and validates the result. An empty path
// returns the validated defaults (plus environment overrides).
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides maps deployment environment variables over the file
// configuration, matching the original deployment contract.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DISCOVERY_API_URL"); v != "" {
		cfg.Discovery.APIURL = v
	}
	if v := os.Getenv("ROUTENET_WALLET"); v != "" {
		cfg.Pricing.Wallet = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.ListenAddr = ":" + v
	}
}

// Validate checks the configuration for structural errors.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Discovery.RequestTimeout <= 0 {
		return fmt.Errorf("invalid configuration: discovery request_timeout must be positive")
	}
	if c.Discovery.CacheTTL <= 0 {
		return fmt.Errorf("invalid configuration: discovery cache_ttl must be positive")
	}
	return nil
}
