// Package types defines the request, valve and result records shared by the
// server, the CLI and the leak-off core. These are the canonical wire shapes:
// JSON tags for the HTTP API, YAML tags for request and catalog files.
package types
