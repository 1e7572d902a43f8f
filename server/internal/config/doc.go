// Package config loads the server-side configuration from the `server:` section
// of config.yaml.
//
// Config fields:
//   - HTTPPort       port for the REST API and WebSocket hub (default 8080)
//   - LogLevel       slog level name (default info)
//   - Auth           "apikey" or "none", key resolved from KeyEnv
//   - Solver         bisection bracket, tolerance and iteration cap
//   - Store          memory (with TTL) or sqlite
//   - Cache          optional Redis result cache
//   - Telemetry      OTLP tracing
//   - RateLimit      requests per minute per client IP
//   - Alerts         result-threshold rules and webhooks
//   - Catalog.Path   YAML file with turbines and valves
//
// Load(path) applies defaults before unmarshalling, then validates. Watch
// reloads the file on change.
package config
