package reco

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"

	"github.com/msflix/reco-engine/internal/logging"
	"github.com/msflix/reco-engine/internal/metrics"
	"github.com/msflix/reco-engine/internal/store"
	"github.com/msflix/reco-engine/internal/tmdb"
)

// DefaultPoolCacheTTL is how long a cached pool stays valid absent a taste
// change.
const DefaultPoolCacheTTL = 24 * time.Hour

// poolCacheVersion guards the stored payload format. A version mismatch is a
// miss, discarding data written by older builds.
const poolCacheVersion = 1

// ErrPoolCacheMiss is returned when no fresh cached pool exists: absent,
// expired, wrong version, or unreadable.
var ErrPoolCacheMiss = errors.New("no fresh cached candidate pool")

type cachedPool struct {
	Version   int          `json:"v"`
	CreatedAt time.Time    `json:"created_at"`
	Pool      []tmdb.Movie `json:"pool"`
}

// PoolCache persists the candidate pool with its creation timestamp so the
// engine can reuse it within the TTL and drop it on taste changes.
type PoolCache struct {
	store store.Store
	ttl   time.Duration

	// now is swappable for expiry tests.
	now func() time.Time
}

// NewPoolCache creates a pool cache with the given TTL (0 means the default).
func NewPoolCache(st store.Store, ttl time.Duration) *PoolCache {
	if ttl <= 0 {
		ttl = DefaultPoolCacheTTL
	}
	return &PoolCache{store: st, ttl: ttl, now: time.Now}
}

// Load returns the cached pool, or ErrPoolCacheMiss when none is usable.
func (c *PoolCache) Load(ctx context.Context) ([]tmdb.Movie, error) {
	data, err := c.store.Get(ctx, store.KeyPoolCache)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logging.Warn().Err(err).Msg("loading pool cache")
		}
		metrics.PoolCacheMisses.Inc()
		return nil, ErrPoolCacheMiss
	}

	var cached cachedPool
	if err := json.Unmarshal(data, &cached); err != nil {
		logging.Warn().Err(err).Msg("parsing pool cache, discarding")
		metrics.PoolCacheMisses.Inc()
		return nil, ErrPoolCacheMiss
	}

	if cached.Version != poolCacheVersion || c.now().Sub(cached.CreatedAt) > c.ttl {
		metrics.PoolCacheMisses.Inc()
		return nil, ErrPoolCacheMiss
	}

	metrics.PoolCacheHits.Inc()
	return cached.Pool, nil
}

// Save persists pool with the current timestamp. Failures are logged and
// swallowed; the pool is rebuilt next time either way.
func (c *PoolCache) Save(ctx context.Context, pool []tmdb.Movie) {
	data, err := json.Marshal(cachedPool{
		Version:   poolCacheVersion,
		CreatedAt: c.now(),
		Pool:      pool,
	})
	if err != nil {
		logging.Warn().Err(err).Msg("marshaling pool cache")
		return
	}
	if err := c.store.Set(ctx, store.KeyPoolCache, data); err != nil {
		logging.Warn().Err(err).Msg("persisting pool cache")
	}
}

// Invalidate drops the cached pool. Called whenever the user's taste changes.
func (c *PoolCache) Invalidate(ctx context.Context) {
	if err := c.store.Delete(ctx, store.KeyPoolCache); err != nil {
		logging.Warn().Err(err).Msg("invalidating pool cache")
	}
}
