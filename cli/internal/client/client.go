package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/SKB-CADDep/Balance-plus/cli/internal/config"
	"github.com/SKB-CADDep/Balance-plus/pkg/types"
)

const (
	backoffInitial    = 500 * time.Millisecond
	backoffMax        = 30 * time.Second
	backoffMultiplier = 2.0
)

// StatusError is a non-2xx answer from the server.
type StatusError struct {
	Code    int
	Message string
	Kind    string // leak-off error kind on 422
	Section int
}

func (e *StatusError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "server answered %d", e.Code)
	if e.Kind != "" {
		fmt.Fprintf(&b, " (%s", e.Kind)
		if e.Section > 0 {
			fmt.Fprintf(&b, ", section %d", e.Section)
		}
		b.WriteString(")")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Temporary reports whether retrying the same request may succeed.
func (e *StatusError) Temporary() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests || e.Code == http.StatusRequestTimeout
}

// Client talks to balance-plus-server. Calls are throttled by a shared token
// bucket and retried with truncated exponential backoff on transient failures.
// It is safe for concurrent use.
type Client struct {
	base       string
	http       *http.Client
	user       string
	limiter    *rate.Limiter
	maxRetries int

	initialBackoff time.Duration
}

// New builds a Client from cfg.
func New(cfg config.ClientConfig) (*Client, error) {
	hc, err := buildHTTPClient(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{
		base:           strings.TrimRight(cfg.ServerURL, "/"),
		http:           hc,
		user:           cfg.User,
		limiter:        rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		maxRetries:     cfg.MaxRetries,
		initialBackoff: backoffInitial,
	}, nil
}

// Submit posts req to the server. With preview set the server calculates
// without storing and the returned record has no ID.
func (c *Client) Submit(ctx context.Context, req types.CalculationRequest, preview bool) (types.CalculationRecord, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return types.CalculationRecord{}, fmt.Errorf("client: encode request: %w", err)
	}
	path := "/api/v1/calculations"
	if preview {
		path += "/preview"
	}

	var rec types.CalculationRecord
	err = c.retry(ctx, req.ValveDrawing, func(ctx context.Context) error {
		return c.do(ctx, http.MethodPost, path, body, &rec)
	})
	return rec, err
}

// retry runs call until it succeeds, fails permanently or runs out of
// attempts. Every attempt waits for the rate limiter first.
func (c *Client) retry(ctx context.Context, label string, call func(context.Context) error) error {
	bo := newBackoff(c.initialBackoff)
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		err := call(ctx)
		if err == nil {
			return nil
		}
		if !isTransient(err) || attempt >= c.maxRetries || ctx.Err() != nil {
			return err
		}
		wait := bo.next()
		slog.Warn("client: request failed, will retry",
			"valve", label,
			"attempt", attempt+1,
			"err", err,
			"retry_in", wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// isTransient returns true for failures worth retrying: transport errors and
// 5xx, 408 or 429 answers. Rejected calculations and auth failures are final.
func isTransient(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.user != "" {
		req.Header.Set("X-User", c.user)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Code: resp.StatusCode}
		var eb struct {
			Error   string `json:"error"`
			Kind    string `json:"kind"`
			Section int    `json:"section"`
		}
		if json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&eb) == nil {
			se.Message, se.Kind, se.Section = eb.Error, eb.Kind, eb.Section
		}
		return se
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// authRoundTripper injects the API key into every outgoing request.
type authRoundTripper struct {
	base   http.RoundTripper
	header string
	key    string
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set(t.header, t.key)
	return t.base.RoundTrip(req)
}

// buildHTTPClient constructs an http.Client for the configured auth and TLS
// settings.
func buildHTTPClient(cfg config.ClientConfig) (*http.Client, error) {
	tlsCfg := &tls.Config{
		InsecureSkipVerify: cfg.TLS.InsecureSkipVerify, //nolint:gosec // user-configured
	}
	if cfg.TLS.CAFile != "" {
		caPEM, err := os.ReadFile(cfg.TLS.CAFile)
		if err != nil {
			return nil, fmt.Errorf("client: read ca file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, fmt.Errorf("client: no valid certs found in ca file %q", cfg.TLS.CAFile)
		}
		tlsCfg.RootCAs = pool
	}

	var transport http.RoundTripper = &http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		TLSClientConfig: tlsCfg,
	}
	if cfg.Auth.Mode == "apikey" {
		transport = &authRoundTripper{base: transport, header: cfg.Auth.EffectiveHeader(), key: cfg.Auth.Key()}
	}
	return &http.Client{Transport: transport, Timeout: cfg.Timeout}, nil
}
