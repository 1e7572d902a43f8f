// Package cache memoises calculation results in Redis, keyed by a hash of
// everything that determines the result: valve geometry, request values and
// solver tuning.
package cache
