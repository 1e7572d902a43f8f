package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultServerURL         = "http://localhost:8080"
	DefaultTimeout           = 30 * time.Second
	DefaultRequestsPerSecond = 5.0
	DefaultBurst             = 5
	DefaultMaxRetries        = 4
	DefaultConcurrency       = 4
)

// Config is the top-level client configuration. Fields map 1:1 to
// valvecalc.example.yaml.
type Config struct {
	Client ClientConfig `yaml:"client"`
}

// ClientConfig holds the settings used by the submit and stats commands and
// the worker count of batch runs.
type ClientConfig struct {
	// ServerURL is the base URL of balance-plus-server.
	ServerURL string `yaml:"server_url"`

	// User is sent in the X-User header and recorded with stored results.
	User string `yaml:"user"`

	Timeout time.Duration `yaml:"timeout"`

	// RequestsPerSecond and Burst throttle submissions.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`

	// MaxRetries bounds retries of one request on transient failures.
	MaxRetries int `yaml:"max_retries"`

	// Concurrency is the number of requests processed at once.
	Concurrency int `yaml:"concurrency"`

	Auth AuthConfig `yaml:"auth"`
	TLS  TLSConfig  `yaml:"tls"`
}

// AuthConfig specifies how the client authenticates to the server.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// Header is the HTTP header name to send the key in. Defaults to x-api-key.
	Header string `yaml:"header"`

	// KeyEnv is the name of the environment variable that holds the key value.
	KeyEnv string `yaml:"key_env"`
}

// Key returns the API key value resolved from the environment.
// Returns empty string if KeyEnv is unset or the variable is not found.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or "x-api-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "x-api-key"
}

// TLSConfig holds TLS dial options for https server URLs.
type TLSConfig struct {
	// CAFile adds a private CA to the trusted roots.
	CAFile string `yaml:"ca_file"`

	// InsecureSkipVerify disables TLS certificate verification.
	// Only use this for internal CAs in development environments.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a Config pre-populated with default values.
func Default() *Config {
	return &Config{
		Client: ClientConfig{
			ServerURL:         DefaultServerURL,
			Timeout:           DefaultTimeout,
			RequestsPerSecond: DefaultRequestsPerSecond,
			Burst:             DefaultBurst,
			MaxRetries:        DefaultMaxRetries,
			Concurrency:       DefaultConcurrency,
		},
	}
}

// Validate checks required fields and structural constraints.
func (cfg *Config) Validate() error {
	c := cfg.Client
	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: client.server_url %q must be an http(s) URL", c.ServerURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("config: client.timeout must be positive")
	}
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("config: client.requests_per_second must be positive")
	}
	if c.Burst <= 0 {
		return fmt.Errorf("config: client.burst must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("config: client.max_retries must not be negative")
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("config: client.concurrency must be positive")
	}
	switch c.Auth.Mode {
	case "apikey":
		if c.Auth.KeyEnv == "" {
			return fmt.Errorf("config: client.auth.key_env is required when mode is apikey")
		}
	case "none", "":
	default:
		return fmt.Errorf("config: client.auth.mode %q unknown: want apikey|none", c.Auth.Mode)
	}
	return nil
}
