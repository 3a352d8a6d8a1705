package reco

import (
	"context"
	"fmt"
	"sort"

	"github.com/msflix/reco-engine/internal/tmdb"
	"github.com/msflix/reco-engine/internal/userstate"
)

// Recommender-side quality gate, separate from the pool builder's. The vote
// floor here is fixed regardless of pool options.
const (
	recommendMinRating = 6.0
	recommendMinVotes  = 150
)

// Because-you-liked overlap weights.
const (
	becauseGenreWeight   = 3
	becauseKeywordWeight = 5
)

// GenericBecause is the attribution fallback when no liked movie overlaps.
const GenericBecause = "Because it fits your taste"

// Recommendation is a catalog movie ranked for the user, with a score, a
// one-line justification and a "because you liked" attribution.
type Recommendation struct {
	Movie       tmdb.Movie `json:"movie"`
	Score       float64    `json:"score"`
	Explanation string     `json:"explanation"`
	Because     string     `json:"because"`
}

// Recommender filters, scores and ranks a candidate pool.
type Recommender struct {
	profiles *ProfileBuilder
	scorer   *Scorer
	keywords *KeywordResolver
}

// NewRecommender creates a recommender.
func NewRecommender(profiles *ProfileBuilder, scorer *Scorer, keywords *KeywordResolver) *Recommender {
	return &Recommender{profiles: profiles, scorer: scorer, keywords: keywords}
}

// Recommend returns up to n recommendations from candidates, strictly
// non-increasing by score with ties kept in encounter order. An empty result
// means "no recommendations available", not an error.
func (r *Recommender) Recommend(ctx context.Context, st *userstate.State, candidates []tmdb.Movie, mood tmdb.Mood, n int) []Recommendation {
	filtered := make([]tmdb.Movie, 0, len(candidates))
	for _, m := range candidates {
		if _, ok := st.Watched[m.ID]; ok {
			continue
		}
		if _, ok := st.Disliked[m.ID]; ok {
			continue
		}
		if _, ok := st.Liked[m.ID]; ok {
			continue
		}
		if m.VoteAverage < recommendMinRating || m.VoteCount < recommendMinVotes {
			continue
		}
		filtered = append(filtered, m)
	}
	if len(filtered) == 0 || n <= 0 {
		return []Recommendation{}
	}

	profile := r.profiles.Build(ctx, st)

	ranked := make([]Recommendation, 0, len(filtered))
	for _, m := range filtered {
		res := r.scorer.Score(ctx, profile, m, mood)
		ranked = append(ranked, Recommendation{
			Movie:       m,
			Score:       res.Score,
			Explanation: res.Explanation,
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if n < len(ranked) {
		ranked = ranked[:n]
	}

	liked := st.LikedMovies()
	for i := range ranked {
		ranked[i].Because = r.becauseYouLiked(ctx, liked, ranked[i].Movie)
	}
	return ranked
}

// becauseYouLiked names the liked movie with the highest weighted genre and
// keyword overlap with candidate, or a generic fallback when nothing
// overlaps.
func (r *Recommender) becauseYouLiked(ctx context.Context, liked []tmdb.Movie, candidate tmdb.Movie) string {
	if len(liked) == 0 {
		return GenericBecause
	}

	candKeywords := r.keywords.MovieKeywords(ctx, candidate.ID)

	var best *tmdb.Movie
	bestScore := 0
	for i := range liked {
		likedKeywords := r.keywords.MovieKeywords(ctx, liked[i].ID)

		score := overlapCount(candidate.GenreIDs, liked[i].GenreIDs)*becauseGenreWeight +
			overlapStrings(candKeywords, likedKeywords)*becauseKeywordWeight
		if score > bestScore {
			bestScore = score
			best = &liked[i]
		}
	}

	if best == nil {
		return GenericBecause
	}
	return fmt.Sprintf("Because you liked %q", best.Title)
}

func overlapCount(a, b []int) int {
	set := make(map[int]struct{}, len(b))
	for _, v := range b {
		set[v] = struct{}{}
	}
	count := 0
	for _, v := range a {
		if _, ok := set[v]; ok {
			count++
		}
	}
	return count
}

func overlapStrings(a, b []string) int {
	set := make(map[string]struct{}, len(b))
	for _, v := range b {
		set[v] = struct{}{}
	}
	count := 0
	for _, v := range a {
		if _, ok := set[v]; ok {
			count++
		}
	}
	return count
}
