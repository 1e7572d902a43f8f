// Package client is the HTTP client valvecalc uses to reach
// balance-plus-server.
//
// Submit posts a calculation request (or a preview) and returns the stored
// record. Calls share a golang.org/x/time/rate token bucket and are retried
// with truncated exponential backoff (500ms→30s, ±25% jitter) on transport
// errors and 5xx, 408 or 429 answers. Other 4xx answers, including rejected
// calculations (422), are returned at once as *StatusError.
//
// Stats scrapes the server's /metrics endpoint and sums the leakoff_*
// counters by label.
//
// Check reads /api/v1/health and, for https servers, dials the server to
// report the leaf certificate as valid, expiring (30 days or less), expired or
// unreachable.
//
// Auth: API key header injected by a RoundTripper; optional private CA for
// https servers.
package client
