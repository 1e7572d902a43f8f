package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SKB-CADDep/Balance-plus/pkg/leakoff"
	"github.com/SKB-CADDep/Balance-plus/pkg/types"
)

const keyPrefix = "leakoff:result:"

// Entry is what gets cached for one calculation.
type Entry struct {
	Result      types.CalculationResult    `json:"result"`
	Diagnostics []types.SectionDiagnostics `json:"diagnostics,omitempty"`
}

// Cache looks up and stores calculation results.
type Cache interface {
	Get(ctx context.Context, key string) (Entry, bool)
	Set(ctx context.Context, key string, e Entry)
	Stats() Stats
}

// Stats counts cache traffic since start.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
}

// Key derives the cache key for one calculation. Fields that do not affect
// the numbers (names, ids, user) are left out.
func Key(valve types.Valve, req types.CalculationRequest, cfg leakoff.SolverConfig) string {
	lengths := make([]float64, 0, len(valve.SectionLengths))
	for _, l := range valve.SectionLengths {
		if l == nil {
			break
		}
		lengths = append(lengths, *l)
	}
	canon := struct {
		Diameter    float64              `json:"d"`
		Clearance   float64              `json:"c"`
		RoundRadius float64              `json:"r"`
		Lengths     []float64            `json:"l"`
		T0          float64              `json:"t0"`
		TAir        float64              `json:"ta"`
		Count       int                  `json:"n"`
		Pressures   []float64            `json:"p"`
		Suctions    []float64            `json:"pe"`
		Unit        types.PressureUnit   `json:"u"`
		Solver      leakoff.SolverConfig `json:"s"`
	}{
		valve.Diameter, valve.Clearance, valve.RoundRadius, lengths,
		req.StartTemperature, req.AirTemperature, req.ValveCount,
		req.SectionPressures, req.EjectorSuctionPressures, req.Unit(), cfg,
	}
	b, _ := json.Marshal(canon) // plain numeric fields cannot fail
	sum := sha1.Sum(b)
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Redis is a Redis-backed Cache. Failures are logged and treated as misses so
// the calculation path never depends on Redis being up.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	stats  struct {
		hits   atomic.Int64
		misses atomic.Int64
		sets   atomic.Int64
	}
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: redis connection failed: %w", err)
	}

	slog.Info("cache: connected to redis", "addr", cfg.Addr, "db", cfg.DB, "ttl", cfg.TTL)
	return &Redis{client: client, ttl: cfg.TTL}, nil
}

// Get returns the cached entry for key.
func (c *Redis) Get(ctx context.Context, key string) (Entry, bool) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("cache: redis get failed", "key", key, "err", err)
		}
		c.stats.misses.Add(1)
		return Entry{}, false
	}

	var e Entry
	if err := json.Unmarshal(val, &e); err != nil {
		slog.Warn("cache: decode failed", "key", key, "err", err)
		c.stats.misses.Add(1)
		return Entry{}, false
	}
	c.stats.hits.Add(1)
	return e, true
}

// Set stores e under key with the configured TTL.
func (c *Redis) Set(ctx context.Context, key string, e Entry) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	data, err := json.Marshal(e)
	if err != nil {
		slog.Warn("cache: encode failed", "key", key, "err", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		slog.Warn("cache: redis set failed", "key", key, "err", err)
		return
	}
	c.stats.sets.Add(1)
}

// Stats returns hit/miss counters.
func (c *Redis) Stats() Stats {
	return Stats{Hits: c.stats.hits.Load(), Misses: c.stats.misses.Load(), Sets: c.stats.sets.Load()}
}

// HealthCheck pings Redis.
func (c *Redis) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *Redis) Close() error {
	return c.client.Close()
}

// Nop is a Cache that never hits.
type Nop struct{}

func (Nop) Get(context.Context, string) (Entry, bool) { return Entry{}, false }
func (Nop) Set(context.Context, string, Entry)        {}
func (Nop) Stats() Stats                              { return Stats{} }
