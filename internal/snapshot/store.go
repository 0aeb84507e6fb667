// internal/snapshot/store.go
//
// Shared snapshot cache entry.
//
// Context
// -------
// Every resolver reads the same Snapshot.  Store keeps it under one key in a
// RawCache (memory or Redis) with a fixed TTL and rebuilds it from storage
// on a miss.  Concurrent misses inside one process collapse into a single
// rebuild through singleflight.  Across processes a short stampede of
// redundant rebuilds is tolerated; rebuilds are read-only against storage
// so the last writer wins.
//
// Notes
// -----
//   - Cache backend failures degrade to a rebuild; they are logged, never
//     returned.
//   - Build errors are returned and never cached.
//   - Invalidate bumps a generation counter.  A build that started under an
//     older generation is returned to its callers but never written back,
//     and Get flights are keyed by generation so a Get issued after
//     Invalidate never joins a stale flight.
package snapshot

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/adept-locale/internal/cache"
	"github.com/yanizio/adept-locale/internal/metrics"
	"github.com/yanizio/adept-locale/internal/site"
)

// Cache placement.
const (
	Namespace  = "adept-localization"
	Key        = "configuration"
	DefaultTTL = 30 * time.Minute
)

// Store loads and caches the Snapshot.
type Store struct {
	cache  cache.RawCache
	repo   site.Reader
	policy FallbackPolicy
	ttl    time.Duration
	sfg    singleflight.Group

	// mu orders Invalidate against cache writes.
	mu  sync.Mutex
	gen uint64
}

// Option customises a Store.
type Option func(*Store)

// WithTTL overrides DefaultTTL.  Non-positive values are ignored.
func WithTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithFallbackPolicy sets the policy passed to Build.
func WithFallbackPolicy(p FallbackPolicy) Option {
	return func(s *Store) { s.policy = p }
}

// NewStore keys raw under Namespace.
func NewStore(raw cache.RawCache, repo site.Reader, opts ...Option) *Store {
	s := &Store{
		cache:  cache.Namespaced(raw, Namespace),
		repo:   repo,
		policy: NoFallbacks,
		ttl:    DefaultTTL,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// TTL reports the configured expiry.
func (s *Store) TTL() time.Duration { return s.ttl }

// Get returns the cached Snapshot, building and saving it on a miss.
func (s *Store) Get(ctx context.Context) (*Snapshot, error) {
	if snap, ok := s.load(ctx); ok {
		metrics.SnapshotCacheHitsTotal.Inc()
		return snap, nil
	}
	metrics.SnapshotCacheMissesTotal.Inc()

	gen := s.generation()
	v, err, _ := s.sfg.Do("get:"+strconv.FormatUint(gen, 10), func() (any, error) {
		// Double-check after singleflight barrier.
		if snap, ok := s.load(ctx); ok {
			return snap, nil
		}
		return s.rebuild(context.WithoutCancel(ctx), gen)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// Rebuild builds from storage and overwrites the cache entry regardless of
// what it holds.
func (s *Store) Rebuild(ctx context.Context) (*Snapshot, error) {
	v, err, _ := s.sfg.Do("rebuild", func() (any, error) {
		return s.rebuild(context.WithoutCancel(ctx), s.generation())
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// Invalidate removes the cache entry so the next Get rebuilds.
func (s *Store) Invalidate(ctx context.Context) error {
	metrics.SnapshotInvalidationsTotal.Inc()
	s.mu.Lock()
	s.gen++
	err := s.cache.Delete(ctx, Key)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	zap.L().Info("localization snapshot invalidated")
	return nil
}

func (s *Store) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

func (s *Store) load(ctx context.Context) (*Snapshot, bool) {
	b, ok, err := s.cache.Get(ctx, Key)
	if err != nil {
		zap.L().Warn("snapshot cache read failed", zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		zap.L().Warn("snapshot cache entry undecodable, rebuilding", zap.Error(err))
		return nil, false
	}
	return &snap, true
}

func (s *Store) rebuild(ctx context.Context, gen uint64) (*Snapshot, error) {
	start := time.Now()
	snap, err := Build(ctx, s.repo, s.policy)
	metrics.SnapshotBuildSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SnapshotBuildErrorsTotal.Inc()
		zap.L().Error("snapshot build failed", zap.Error(err))
		return nil, err
	}
	metrics.SnapshotBuildTotal.Inc()

	b, err := json.Marshal(snap)
	if err != nil {
		zap.L().Warn("snapshot encode failed", zap.Error(err))
		return snap, nil
	}
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		zap.L().Info("snapshot invalidated during build, not caching")
		return snap, nil
	}
	err = s.cache.Set(ctx, Key, b, s.ttl)
	s.mu.Unlock()
	if err != nil {
		zap.L().Warn("snapshot cache write failed", zap.Error(err))
	}
	zap.L().Debug("snapshot built",
		zap.Int("domains", len(snap.domainEnvironment)),
		zap.Int("locales", len(snap.available)),
		zap.Duration("took", time.Since(start)))
	return snap, nil
}
