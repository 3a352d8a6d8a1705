package reco

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/msflix/reco-engine/internal/logging"
	"github.com/msflix/reco-engine/internal/metrics"
	"github.com/msflix/reco-engine/internal/tmdb"
	"github.com/msflix/reco-engine/internal/userstate"
)

// Catalog is the subset of the TMDB client the pool builder consumes.
type Catalog interface {
	Trending(ctx context.Context) ([]tmdb.Movie, error)
	DiscoverMood(ctx context.Context, mood tmdb.Mood) ([]tmdb.Movie, error)
	DiscoverByGenres(ctx context.Context, genreIDs []int, opts tmdb.DiscoverOptions) ([]tmdb.Movie, error)
	Recommendations(ctx context.Context, movieID int64) ([]tmdb.Movie, error)
	Similar(ctx context.Context, movieID int64) ([]tmdb.Movie, error)
}

// Pool builder defaults.
const (
	DefaultMinRating   = 6.0
	DefaultMinVotes    = 200
	DefaultMaxPoolSize = 120

	// recentLikedCount limits the per-liked-movie lookups to the most recent
	// likes to bound the fan-out.
	recentLikedCount = 3

	topGenreCount = 3
)

// PoolOptions holds the tunables of a candidate pool build.
type PoolOptions struct {
	Mood        tmdb.Mood
	MinRating   float64
	MinVotes    int
	MaxPoolSize int
}

// withDefaults fills in unset options.
func (o PoolOptions) withDefaults() PoolOptions {
	if o.Mood == "" {
		o.Mood = tmdb.MoodPick
	}
	if o.MinRating <= 0 {
		o.MinRating = DefaultMinRating
	}
	if o.MinVotes <= 0 {
		o.MinVotes = DefaultMinVotes
	}
	if o.MaxPoolSize <= 0 {
		o.MaxPoolSize = DefaultMaxPoolSize
	}
	return o
}

// PoolBuilder assembles the deduplicated, quality-gated candidate pool from
// several discovery sources. Pure given its inputs; caching is the caller's
// concern.
type PoolBuilder struct {
	catalog  Catalog
	profiles *ProfileBuilder
}

// NewPoolBuilder creates a pool builder.
func NewPoolBuilder(catalog Catalog, profiles *ProfileBuilder) *PoolBuilder {
	return &PoolBuilder{catalog: catalog, profiles: profiles}
}

// Build assembles the candidate pool for st under opts. Every source fetch is
// independently fallible: a failure degrades pool richness but never aborts
// the build. Duplicate IDs keep their first occurrence in source order.
func (b *PoolBuilder) Build(ctx context.Context, st *userstate.State, opts PoolOptions) []tmdb.Movie {
	opts = opts.withDefaults()
	metrics.PoolBuilds.Inc()

	profile := b.profiles.Build(ctx, st)
	topGenres := TopGenres(profile, topGenreCount)
	moodGenres := MoodPoolGenres(opts.Mood)
	recentLiked := st.RecentLikedIDs(recentLikedCount)

	// One result slot per source keeps assembly order deterministic while the
	// fetches run concurrently.
	slots := make([][]tmdb.Movie, len(recentLiked)+4)
	g, gctx := errgroup.WithContext(ctx)

	// Recommendation + similar lists of the most recently liked movies: the
	// strongest signal when present.
	for i, likedID := range recentLiked {
		g.Go(func() error {
			rec := b.fetch(gctx, "recommendations", func() ([]tmdb.Movie, error) {
				return b.catalog.Recommendations(gctx, likedID)
			})
			sim := b.fetch(gctx, "similar", func() ([]tmdb.Movie, error) {
				return b.catalog.Similar(gctx, likedID)
			})
			slots[i] = append(rec, sim...)
			return nil
		})
	}

	// Discovery from the user's top taste genres.
	tasteSlot := len(recentLiked)
	if len(topGenres) > 0 {
		g.Go(func() error {
			slots[tasteSlot] = b.fetch(gctx, "taste discover", func() ([]tmdb.Movie, error) {
				return b.catalog.DiscoverByGenres(gctx, topGenres, tmdb.DiscoverOptions{
					MinRating: opts.MinRating,
					MinVotes:  opts.MinVotes,
				})
			})
			return nil
		})
	}

	// Mood discovery keeps the pool "right now" relevant.
	g.Go(func() error {
		slots[tasteSlot+1] = b.fetch(gctx, "mood discover", func() ([]tmdb.Movie, error) {
			return b.catalog.DiscoverMood(gctx, opts.Mood)
		})
		return nil
	})

	// Second, quality-gated pass over the mood genres reinforces alignment.
	if len(moodGenres) > 0 {
		g.Go(func() error {
			slots[tasteSlot+2] = b.fetch(gctx, "mood genre discover", func() ([]tmdb.Movie, error) {
				return b.catalog.DiscoverByGenres(gctx, moodGenres, tmdb.DiscoverOptions{
					MinRating: opts.MinRating,
					MinVotes:  opts.MinVotes,
				})
			})
			return nil
		})
	}

	// Trending as a freshness fallback.
	g.Go(func() error {
		slots[tasteSlot+3] = b.fetch(gctx, "trending", func() ([]tmdb.Movie, error) {
			return b.catalog.Trending(gctx)
		})
		return nil
	})

	_ = g.Wait() // source goroutines never return errors

	var merged []tmdb.Movie
	for _, part := range slots {
		merged = append(merged, part...)
	}

	pool := dedupeByID(merged)
	pool = excludeSeen(pool, st)
	pool = applyQualityGate(pool, opts.MinRating, opts.MinVotes)
	if len(pool) > opts.MaxPoolSize {
		pool = pool[:opts.MaxPoolSize]
	}
	return pool
}

// fetch runs one catalog call, degrading a failure to an empty result.
func (b *PoolBuilder) fetch(ctx context.Context, source string, fn func() ([]tmdb.Movie, error)) []tmdb.Movie {
	movies, err := fn()
	if err != nil {
		logging.Warn().Err(err).Str("source", source).Msg("pool source fetch failed, skipping")
		return nil
	}
	return movies
}

// dedupeByID removes duplicate IDs keeping the first occurrence.
func dedupeByID(movies []tmdb.Movie) []tmdb.Movie {
	seen := make(map[int64]struct{}, len(movies))
	out := make([]tmdb.Movie, 0, len(movies))
	for _, m := range movies {
		if m.ID == 0 {
			continue
		}
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}

// excludeSeen removes movies the user already watched, disliked or liked.
func excludeSeen(movies []tmdb.Movie, st *userstate.State) []tmdb.Movie {
	out := movies[:0]
	for _, m := range movies {
		if _, ok := st.Watched[m.ID]; ok {
			continue
		}
		if _, ok := st.Disliked[m.ID]; ok {
			continue
		}
		if _, ok := st.Liked[m.ID]; ok {
			continue
		}
		out = append(out, m)
	}
	return out
}

// applyQualityGate keeps movies meeting both the rating and vote thresholds.
func applyQualityGate(movies []tmdb.Movie, minRating float64, minVotes int) []tmdb.Movie {
	out := movies[:0]
	for _, m := range movies {
		if m.VoteAverage < minRating || m.VoteCount < minVotes {
			continue
		}
		out = append(out, m)
	}
	return out
}
