package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/SKB-CADDep/Balance-plus/pkg/leakoff"
)

// AlertsConfig holds alerting rules and webhook delivery targets.
type AlertsConfig struct {
	Rules    []AlertRule     `yaml:"rules"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// AlertRule defines one threshold-based alert condition.
type AlertRule struct {
	// Name is the human-readable alert identifier, used as the deduplication key.
	Name string `yaml:"name"`

	// Condition is a simple expression over result fields:
	// "total_ejector_flow > 2", "deaerator_flow < 0", "terminal_floor_hits > 0".
	Condition string `yaml:"condition"`

	// Severity is one of: critical | warning | info.
	Severity string `yaml:"severity"`

	// Cooldown suppresses re-fires for the same valve after an alert fires.
	// Defaults to 15 minutes if zero.
	Cooldown time.Duration `yaml:"cooldown"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: teams | slack | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable that holds the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// Default values for the server configuration.
const (
	DefaultHTTPPort     = 8080
	DefaultLogLevel     = "info"
	DefaultResultTTL    = 24 * time.Hour
	DefaultCacheTTL     = 10 * time.Minute
	DefaultRateLimit    = 120
	DefaultSamplingRate = 1.0
	DefaultServiceName  = "balance-plus"
)

// Config holds the server-side configuration parsed from the `server:` section
// of config.yaml. Other top-level keys are ignored.
type Config struct {
	Server ServerConfig `yaml:"server"`
}

// ServerConfig holds all server-side settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API and WebSocket hub listen on (default 8080).
	HTTPPort int `yaml:"http_port"`

	// LogLevel is one of: debug | info | warn | error.
	LogLevel string `yaml:"log_level"`

	// Auth configures how the server authenticates REST clients.
	Auth AuthConfig `yaml:"auth"`

	// Solver overrides the bisection tuning of the leak-off calculator.
	Solver leakoff.SolverConfig `yaml:"solver"`

	// Store selects where calculation records are kept.
	Store StoreConfig `yaml:"store"`

	Cache     CacheConfig     `yaml:"cache"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// Alerts holds rule definitions and webhook delivery targets.
	Alerts AlertsConfig `yaml:"alerts"`

	// Catalog points at the YAML file with turbines and their valves.
	Catalog CatalogConfig `yaml:"catalog"`
}

// AuthConfig controls client authentication on the server side.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable that holds the expected API key.
	// Used when Mode == "apikey".
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header name to read the key from.
	// Defaults to "x-api-key" if empty.
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "x-api-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "x-api-key"
}

// StoreConfig controls calculation record retention.
type StoreConfig struct {
	// Backend is one of: memory | sqlite.
	Backend string `yaml:"backend"`

	// TTL is how long a record stays in the memory backend. Zero keeps records
	// until they are deleted. Ignored by sqlite.
	TTL time.Duration `yaml:"ttl"`

	// Path is the sqlite database file.
	Path string `yaml:"path"`
}

// CacheConfig controls the Redis result cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Addr    string        `yaml:"addr"`
	TTL     time.Duration `yaml:"ttl"`

	// PasswordEnv names the environment variable holding the Redis password.
	PasswordEnv string `yaml:"password_env"`
}

// Password returns the Redis password resolved from the environment.
func (c CacheConfig) Password() string {
	if c.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(c.PasswordEnv)
}

// TelemetryConfig controls OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled bool `yaml:"enabled"`

	// Exporter is one of: grpc | http.
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	ServiceName  string  `yaml:"service_name"`
	SamplingRate float64 `yaml:"sampling_rate"`
}

// RateLimitConfig caps requests per client IP.
type RateLimitConfig struct {
	// RequestsPerMinute of zero disables limiting.
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

// CatalogConfig locates the valve catalog.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// Load reads and parses the config file at path, returning the server configuration.
// Missing fields are filled with sensible defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("server config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("server config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("server config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
			LogLevel: DefaultLogLevel,
			Solver:   leakoff.DefaultSolverConfig(),
			Store: StoreConfig{
				Backend: "memory",
				TTL:     DefaultResultTTL,
			},
			Cache: CacheConfig{
				TTL: DefaultCacheTTL,
			},
			Telemetry: TelemetryConfig{
				Exporter:     "grpc",
				ServiceName:  DefaultServiceName,
				SamplingRate: DefaultSamplingRate,
			},
			RateLimit: RateLimitConfig{
				RequestsPerMinute: DefaultRateLimit,
			},
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	s := cfg.Server
	if s.HTTPPort <= 0 || s.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", s.HTTPPort)
	}
	switch s.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("server.log_level %q unknown: want debug|info|warn|error", s.LogLevel)
	}
	switch s.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", s.Auth.Mode)
	}
	if s.Auth.Mode == "apikey" && s.Auth.KeyEnv == "" {
		return fmt.Errorf("server.auth.key_env is required when mode is apikey")
	}
	if err := s.Solver.Validate(); err != nil {
		return fmt.Errorf("server.%w", err)
	}
	switch s.Store.Backend {
	case "memory":
	case "sqlite":
		if s.Store.Path == "" {
			return fmt.Errorf("server.store.path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("server.store.backend %q unknown: want memory|sqlite", s.Store.Backend)
	}
	if s.Store.TTL < 0 {
		return fmt.Errorf("server.store.ttl must not be negative")
	}
	if s.Cache.Enabled && s.Cache.Addr == "" {
		return fmt.Errorf("server.cache.addr is required when the cache is enabled")
	}
	if s.Cache.TTL < 0 {
		return fmt.Errorf("server.cache.ttl must not be negative")
	}
	if s.Telemetry.Enabled {
		switch s.Telemetry.Exporter {
		case "grpc", "http":
		default:
			return fmt.Errorf("server.telemetry.exporter %q unknown: want grpc|http", s.Telemetry.Exporter)
		}
	}
	if s.Telemetry.SamplingRate < 0 || s.Telemetry.SamplingRate > 1 {
		return fmt.Errorf("server.telemetry.sampling_rate %g is out of range [0, 1]", s.Telemetry.SamplingRate)
	}
	if s.RateLimit.RequestsPerMinute < 0 {
		return fmt.Errorf("server.rate_limit.requests_per_minute must not be negative")
	}
	for i, r := range s.Alerts.Rules {
		if r.Name == "" || r.Condition == "" {
			return fmt.Errorf("server.alerts.rules[%d] needs a name and a condition", i)
		}
	}
	return nil
}
