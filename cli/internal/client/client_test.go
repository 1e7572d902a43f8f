package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SKB-CADDep/Balance-plus/cli/internal/config"
	"github.com/SKB-CADDep/Balance-plus/pkg/types"
)

func testClient(t *testing.T, url string, mutate func(*config.ClientConfig)) *Client {
	t.Helper()
	cfg := config.Default().Client
	cfg.ServerURL = url
	cfg.RequestsPerSecond = 1000
	cfg.Burst = 100
	if mutate != nil {
		mutate(&cfg)
	}
	c, err := New(cfg)
	require.NoError(t, err)
	c.initialBackoff = time.Millisecond
	return c
}

func request() types.CalculationRequest {
	return types.CalculationRequest{
		ValveDrawing:            "VS-215.40",
		StartTemperature:        555,
		AirTemperature:          40,
		ValveCount:              2,
		SectionPressures:        []float64{130, 10, 1.03},
		EjectorSuctionPressures: []float64{0.97, 0.97},
	}
}

func TestSubmit_Success(t *testing.T) {
	var got types.CalculationRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/calculations", r.URL.Path)
		assert.Equal(t, "sidorov", r.Header.Get("X-User"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(types.CalculationRecord{ID: "c-1", ValveDrawing: got.ValveDrawing})
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, func(cfg *config.ClientConfig) { cfg.User = "sidorov" })
	rec, err := c.Submit(context.Background(), request(), false)
	require.NoError(t, err)
	assert.Equal(t, "c-1", rec.ID)
	assert.Equal(t, []float64{130, 10, 1.03}, got.SectionPressures)
}

func TestSubmit_PreviewPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/calculations/preview", r.URL.Path)
		_ = json.NewEncoder(w).Encode(types.CalculationRecord{})
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL, nil).Submit(context.Background(), request(), true)
	require.NoError(t, err)
}

func TestSubmit_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(types.CalculationRecord{ID: "c-3"})
	}))
	defer srv.Close()

	rec, err := testClient(t, srv.URL, nil).Submit(context.Background(), request(), false)
	require.NoError(t, err)
	assert.Equal(t, "c-3", rec.ID)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSubmit_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, func(cfg *config.ClientConfig) { cfg.MaxRetries = 2 })
	_, err := c.Submit(context.Background(), request(), false)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSubmit_RejectedCalculationIsFinal(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"leakoff: cascade: section 2: upstream pressure","kind":"flow_direction","section":2}`))
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL, nil).Submit(context.Background(), request(), false)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "flow_direction", se.Kind)
	assert.Equal(t, 2, se.Section)
	assert.False(t, se.Temporary())
	assert.Contains(t, err.Error(), "section 2")
	assert.Equal(t, int32(1), calls.Load())
}

func TestSubmit_SendsAPIKey(t *testing.T) {
	t.Setenv("VALVECALC_TEST_KEY", "s3cret")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(types.CalculationRecord{ID: "c-1"})
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, func(cfg *config.ClientConfig) {
		cfg.Auth = config.AuthConfig{Mode: "apikey", KeyEnv: "VALVECALC_TEST_KEY"}
	})
	_, err := c.Submit(context.Background(), request(), false)
	require.NoError(t, err)
}

func TestSubmit_CancelledContextStopsRetrying(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, func(cfg *config.ClientConfig) { cfg.MaxRetries = 1000 })
	c.initialBackoff = 50 * time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	_, err := c.Submit(ctx, request(), false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded))
}

func TestBackoff_GrowsAndCaps(t *testing.T) {
	b := newBackoff(backoffMax / 4)
	prev := time.Duration(0)
	for i := 0; i < 6; i++ {
		d := b.next()
		assert.LessOrEqual(t, d, backoffMax+backoffMax/4)
		if i < 2 {
			assert.Greater(t, d, prev/2)
		}
		prev = d
	}
	assert.Equal(t, backoffMax, b.current)
}
