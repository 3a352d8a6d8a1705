package reco

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/msflix/reco-engine/internal/tmdb"
	"github.com/msflix/reco-engine/internal/userstate"
)

// Profile weight contributions. Dislikes penalize genres harder than likes
// reward them so disliked categories fade faster than liked ones grow.
const (
	likeGenreWeight       = 3
	dislikeGenreWeight    = -4
	likeKeywordWeight     = 2
	dislikeKeywordWeight  = -2
	keywordLookupParallel = 5
)

// TasteProfile is the derived weighting of genres and keywords from the
// user's feedback history. Rebuilt from user state on every request, never
// persisted.
type TasteProfile struct {
	GenreWeights   map[int]int    `json:"genre_weights"`
	KeywordWeights map[string]int `json:"keyword_weights"`
	LikedMovieIDs  []int64        `json:"liked_movie_ids"`
}

// ProfileBuilder derives taste profiles from user state.
type ProfileBuilder struct {
	keywords *KeywordResolver
}

// NewProfileBuilder creates a profile builder using keywords for lookups.
func NewProfileBuilder(keywords *KeywordResolver) *ProfileBuilder {
	return &ProfileBuilder{keywords: keywords}
}

// Build computes the taste profile for st. Keyword lookups for the rated
// movies run concurrently; only the summed weights matter.
func (b *ProfileBuilder) Build(ctx context.Context, st *userstate.State) *TasteProfile {
	profile := &TasteProfile{
		GenreWeights:   make(map[int]int),
		KeywordWeights: make(map[string]int),
		LikedMovieIDs:  make([]int64, 0, len(st.Liked)),
	}

	liked := st.LikedMovies()
	disliked := st.DislikedMovies()

	for _, m := range liked {
		profile.LikedMovieIDs = append(profile.LikedMovieIDs, m.ID)
		for _, g := range m.GenreIDs {
			profile.GenreWeights[g] += likeGenreWeight
		}
	}
	for _, m := range disliked {
		for _, g := range m.GenreIDs {
			profile.GenreWeights[g] += dislikeGenreWeight
		}
	}

	keywords := b.lookupKeywords(ctx, append(append([]tmdb.Movie{}, liked...), disliked...))

	for _, m := range liked {
		for _, kw := range keywords[m.ID] {
			profile.KeywordWeights[kw] += likeKeywordWeight
		}
	}
	for _, m := range disliked {
		for _, kw := range keywords[m.ID] {
			profile.KeywordWeights[kw] += dislikeKeywordWeight
		}
	}

	return profile
}

// lookupKeywords resolves cleaned keywords for each movie concurrently.
// Lookups are independent; a failed one simply contributes nothing.
func (b *ProfileBuilder) lookupKeywords(ctx context.Context, movies []tmdb.Movie) map[int64][]string {
	results := make(map[int64][]string, len(movies))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(keywordLookupParallel)
	for _, m := range movies {
		g.Go(func() error {
			kws := b.keywords.MovieKeywords(ctx, m.ID)
			mu.Lock()
			results[m.ID] = kws
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // lookups never return errors

	return results
}
