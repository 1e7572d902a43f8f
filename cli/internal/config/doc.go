// Package config loads the valvecalc client configuration (valvecalc.yaml).
//
// Top-level types:
//   - Config{Client}: full config tree parsed from YAML
//   - ClientConfig: server_url, user, timeout, requests_per_second, burst,
//     max_retries, concurrency, auth, tls
//   - AuthConfig: mode (apikey|none), header, key_env; Key() resolves the key
//     from the environment
//   - TLSConfig: ca_file, insecure_skip_verify
//
// Load(path) reads the YAML file, applies defaults (5 req/s, burst 5, 4
// retries, 4 workers, 30s timeout), then validates. Default() returns the same
// defaults for runs without a config file; commands layer flags on top.
package config
