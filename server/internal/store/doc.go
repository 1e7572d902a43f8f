// Package store keeps calculation records. Two backends implement Store:
// Memory, a mutex-guarded map with optional TTL eviction, and SQLite, which
// persists records as JSON columns in a WAL-mode database.
package store
