package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Valid(t *testing.T) {
	yaml := `
client:
  server_url: "https://balance.example.local"
  user: petrov
  timeout: 5s
  requests_per_second: 2.5
  burst: 1
  max_retries: 0
  concurrency: 8
  auth:
    mode: apikey
    key_env: VALVECALC_KEY
    header: X-Balance-Key
`
	cfg := loadFromString(t, yaml)
	c := cfg.Client

	if c.ServerURL != "https://balance.example.local" {
		t.Errorf("server_url: got %q", c.ServerURL)
	}
	if c.User != "petrov" {
		t.Errorf("user: got %q", c.User)
	}
	if c.Timeout != 5*time.Second {
		t.Errorf("timeout: got %v", c.Timeout)
	}
	if c.RequestsPerSecond != 2.5 || c.Burst != 1 {
		t.Errorf("rate: got %v/%d", c.RequestsPerSecond, c.Burst)
	}
	if c.MaxRetries != 0 {
		t.Errorf("max_retries: got %d, want 0", c.MaxRetries)
	}
	if c.Concurrency != 8 {
		t.Errorf("concurrency: got %d", c.Concurrency)
	}
	if c.Auth.EffectiveHeader() != "X-Balance-Key" {
		t.Errorf("header: got %q", c.Auth.EffectiveHeader())
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := loadFromString(t, "client: {}\n")
	c := cfg.Client

	if c.ServerURL != DefaultServerURL {
		t.Errorf("server_url: got %q, want %q", c.ServerURL, DefaultServerURL)
	}
	if c.Timeout != DefaultTimeout {
		t.Errorf("timeout: got %v, want %v", c.Timeout, DefaultTimeout)
	}
	if c.MaxRetries != DefaultMaxRetries {
		t.Errorf("max_retries: got %d, want %d", c.MaxRetries, DefaultMaxRetries)
	}
	if c.Concurrency != DefaultConcurrency {
		t.Errorf("concurrency: got %d, want %d", c.Concurrency, DefaultConcurrency)
	}
	if c.Auth.EffectiveHeader() != "x-api-key" {
		t.Errorf("default header: got %q", c.Auth.EffectiveHeader())
	}
}

func TestAuthKey_FromEnv(t *testing.T) {
	t.Setenv("VALVECALC_TEST_KEY", "k-123")
	a := AuthConfig{Mode: "apikey", KeyEnv: "VALVECALC_TEST_KEY"}
	if a.Key() != "k-123" {
		t.Errorf("Key(): got %q", a.Key())
	}
	if (AuthConfig{}).Key() != "" {
		t.Error("Key() without key_env should be empty")
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"bad url", "client:\n  server_url: localhost:8080\n", "server_url"},
		{"zero timeout", "client:\n  timeout: 0s\n", "timeout"},
		{"negative retries", "client:\n  max_retries: -1\n", "max_retries"},
		{"zero concurrency", "client:\n  concurrency: 0\n", "concurrency"},
		{"zero rate", "client:\n  requests_per_second: 0\n", "requests_per_second"},
		{"apikey without env", "client:\n  auth:\n    mode: apikey\n", "key_env"},
		{"unknown mode", "client:\n  auth:\n    mode: mtls\n", "auth.mode"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := loadStringErr(t, tc.yaml)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

// --- helpers ----------------------------------------------------------------

func loadFromString(t *testing.T, content string) *Config {
	t.Helper()
	cfg, err := loadStringErr(t, content)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	return cfg
}

// loadStringErr writes yaml to a temp file and calls Load, returning any error.
func loadStringErr(t *testing.T, content string) (*Config, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "valvecalc.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return Load(path)
}
