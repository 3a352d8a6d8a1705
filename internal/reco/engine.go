package reco

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"

	"github.com/msflix/reco-engine/internal/logging"
	"github.com/msflix/reco-engine/internal/metrics"
	"github.com/msflix/reco-engine/internal/store"
	"github.com/msflix/reco-engine/internal/tmdb"
	"github.com/msflix/reco-engine/internal/userstate"
)

// ErrSuperseded is returned when a recommendation request finished after a
// newer one started; its results must be discarded, not applied out of
// order.
var ErrSuperseded = errors.New("recommendation request superseded")

// Options holds engine tunables, typically sourced from config.
type Options struct {
	MinRating       float64
	MinVotes        int
	MaxPoolSize     int
	HistoryCapacity int
}

// Engine is the facade the UI layer drives: candidate pool lifecycle,
// ranked recommendations, weighted single picks and history.
type Engine struct {
	users     *userstate.Service
	keywords  *KeywordResolver
	profiles  *ProfileBuilder
	pools     *PoolBuilder
	poolCache *PoolCache
	rec       *Recommender
	history   *History
	opts      Options

	// latest tags the most recent recommendation request; completions
	// carrying an older tag are discarded.
	mu     sync.Mutex
	latest uuid.UUID
}

// KeywordCatalog is the full catalog surface the engine consumes.
type KeywordCatalog interface {
	Catalog
	KeywordFetcher
}

// NewEngine wires the recommendation engine onto catalog and st. The engine
// registers itself for taste-change invalidation on users.
func NewEngine(catalog KeywordCatalog, st store.Store, users *userstate.Service, poolCache *PoolCache, opts Options) *Engine {
	keywords := NewKeywordResolver(catalog, st)
	profiles := NewProfileBuilder(keywords)
	scorer := NewScorer(keywords)

	e := &Engine{
		users:     users,
		keywords:  keywords,
		profiles:  profiles,
		pools:     NewPoolBuilder(catalog, profiles),
		poolCache: poolCache,
		rec:       NewRecommender(profiles, scorer, keywords),
		history:   NewHistory(st, opts.HistoryCapacity),
		opts:      opts,
	}
	users.OnTasteChange(e)
	return e
}

// TasteChanged implements userstate.TasteChangeListener: any like, dislike
// or unlike drops the cached pool.
func (e *Engine) TasteChanged(ctx context.Context) {
	e.poolCache.Invalidate(ctx)
}

// History exposes the history tracker.
func (e *Engine) History() *History { return e.history }

// BuildTasteProfile derives the current taste profile from persisted state.
func (e *Engine) BuildTasteProfile(ctx context.Context) *TasteProfile {
	return e.profiles.Build(ctx, e.users.Load(ctx))
}

// BuildCandidatePool builds a fresh pool for mood and caches it. An empty
// pool (every source failed or everything filtered) is not cached, so the
// next request retries the build instead of serving nothing for a full TTL.
func (e *Engine) BuildCandidatePool(ctx context.Context, mood tmdb.Mood) []tmdb.Movie {
	st := e.users.Load(ctx)
	pool := e.pools.Build(ctx, st, e.poolOptions(mood))
	if len(pool) > 0 {
		e.poolCache.Save(ctx, pool)
	}
	return pool
}

// candidatePool returns the cached pool when fresh, rebuilding otherwise.
func (e *Engine) candidatePool(ctx context.Context, mood tmdb.Mood) []tmdb.Movie {
	pool, err := e.poolCache.Load(ctx)
	if err == nil {
		return pool
	}
	return e.BuildCandidatePool(ctx, mood)
}

// RecommendTopN returns up to n ranked recommendations for mood and records
// the surfaced IDs in history. Returns ErrSuperseded if a newer request
// started while this one was in flight.
func (e *Engine) RecommendTopN(ctx context.Context, mood tmdb.Mood, n int) ([]Recommendation, error) {
	results, err := e.recommend(ctx, mood, n)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(results))
	for i, r := range results {
		ids[i] = r.Movie.ID
	}
	e.recordShown(ctx, ids)
	return results, nil
}

// PickOne returns a single weighted-random pick over the ranked list,
// down-weighting recent repeats, and records only the surfaced movie. ok is
// false when nothing is recommendable.
func (e *Engine) PickOne(ctx context.Context, mood tmdb.Mood, rng *rand.Rand) (Recommendation, bool, error) {
	ranked, err := e.recommend(ctx, mood, weightedPickWindow)
	if err != nil {
		return Recommendation{}, false, err
	}
	pick, ok := WeightedPick(ctx, ranked, e.history, rng)
	if ok {
		e.recordShown(ctx, []int64{pick.Movie.ID})
	}
	return pick, ok, nil
}

// recommend runs the filter-score-rank pipeline under a request tag.
func (e *Engine) recommend(ctx context.Context, mood tmdb.Mood, n int) ([]Recommendation, error) {
	tag := e.beginRequest()
	metrics.Recommendations.WithLabelValues(string(mood)).Inc()

	st := e.users.Load(ctx)
	pool := e.candidatePool(ctx, mood)

	// Warm the keyword cache for the whole pool up front; scoring and
	// attribution then hit the cache instead of fetching serially.
	ids := make([]int64, len(pool))
	for i, m := range pool {
		ids[i] = m.ID
	}
	e.keywords.Prefetch(ctx, ids)

	results := e.rec.Recommend(ctx, st, pool, mood, n)

	if !e.isLatest(tag) {
		return nil, ErrSuperseded
	}
	return results, nil
}

func (e *Engine) recordShown(ctx context.Context, ids []int64) {
	if len(ids) == 0 {
		return
	}
	if err := e.history.Record(ctx, ids); err != nil {
		logging.Warn().Err(err).Msg("recording reco history")
	}
}

func (e *Engine) poolOptions(mood tmdb.Mood) PoolOptions {
	return PoolOptions{
		Mood:        mood,
		MinRating:   e.opts.MinRating,
		MinVotes:    e.opts.MinVotes,
		MaxPoolSize: e.opts.MaxPoolSize,
	}
}

func (e *Engine) beginRequest() uuid.UUID {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.latest = uuid.New()
	return e.latest
}

func (e *Engine) isLatest(tag uuid.UUID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.latest == tag
}
