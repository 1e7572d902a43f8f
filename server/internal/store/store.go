package store

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/SKB-CADDep/Balance-plus/pkg/types"
)

// ErrNotFound is returned by Get and Delete for unknown IDs.
var ErrNotFound = errors.New("store: record not found")

// Store persists calculation records. Implementations must be safe for
// concurrent use. List results are ordered newest first.
type Store interface {
	Put(ctx context.Context, rec types.CalculationRecord) error
	Get(ctx context.Context, id string) (types.CalculationRecord, error)
	List(ctx context.Context) ([]types.CalculationRecord, error)
	ListByValve(ctx context.Context, drawing string) ([]types.CalculationRecord, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// Memory is a thread-safe in-memory record store keyed by record ID.
// When a TTL is set, Run periodically evicts records older than it.
type Memory struct {
	mu   sync.RWMutex
	data map[string]types.CalculationRecord
	ttl  time.Duration
	now  func() time.Time // injectable for deterministic tests
}

// NewMemory creates a Memory store. A zero ttl keeps records until deleted.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		data: make(map[string]types.CalculationRecord),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Put stores or replaces rec under rec.ID.
func (s *Memory) Put(_ context.Context, rec types.CalculationRecord) error {
	if rec.ID == "" {
		return errors.New("store: record has no id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[rec.ID] = rec
	return nil
}

// Get returns the record with the given ID, stale or not.
func (s *Memory) Get(_ context.Context, id string) (types.CalculationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.data[id]
	if !ok {
		return types.CalculationRecord{}, ErrNotFound
	}
	return rec, nil
}

// List returns all live records. Stale entries that have not yet been evicted
// are excluded.
func (s *Memory) List(_ context.Context) ([]types.CalculationRecord, error) {
	return s.filter(func(types.CalculationRecord) bool { return true }), nil
}

// ListByValve returns the live records calculated for one valve drawing.
func (s *Memory) ListByValve(_ context.Context, drawing string) ([]types.CalculationRecord, error) {
	return s.filter(func(r types.CalculationRecord) bool { return r.ValveDrawing == drawing }), nil
}

func (s *Memory) filter(keep func(types.CalculationRecord) bool) []types.CalculationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.CalculationRecord, 0, len(s.data))
	for _, r := range s.data {
		if s.live(r, s.now()) && keep(r) {
			out = append(out, r)
		}
	}
	sortNewestFirst(out)
	return out
}

func (s *Memory) live(r types.CalculationRecord, now time.Time) bool {
	return s.ttl <= 0 || r.CreatedAt.After(now.Add(-s.ttl))
}

// Delete removes the record with the given ID.
func (s *Memory) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[id]; !ok {
		return ErrNotFound
	}
	delete(s.data, id)
	return nil
}

// Count returns the number of records currently held, including stale ones.
func (s *Memory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data), nil
}

// Evict removes records created before now minus TTL and returns how many
// were removed.
func (s *Memory) Evict(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, r := range s.data {
		if !s.live(r, now) {
			delete(s.data, id)
			removed++
		}
	}
	return removed
}

// Run starts the background TTL eviction loop. It ticks at half the TTL
// (minimum 1 second) and blocks until ctx is cancelled. Without a TTL it
// returns immediately.
func (s *Memory) Run(ctx context.Context) {
	if s.ttl <= 0 {
		return
	}
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Evict(now); n > 0 {
				slog.Debug("store: evicted stale records", "count", n)
			}
		}
	}
}

func sortNewestFirst(recs []types.CalculationRecord) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].ID < recs[j].ID
		}
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})
}
