package reco

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/msflix/reco-engine/internal/tmdb"
)

// Scoring term factors. The score is a plain sum of independent terms; the
// rating term dominates, so well-rated movies are rarely buried by taste
// mismatches.
const (
	keywordWeightFactor = 0.8
	ratingFactor        = 3.5
	voteCountFactor     = 2.0
	popularityFactor    = 1.0

	highlyRatedThreshold = 7.5
)

// ScoreResult is a candidate's affinity score with a one-line justification.
type ScoreResult struct {
	Score       float64
	Explanation string
}

// Scorer computes affinity scores against a taste profile and mood.
type Scorer struct {
	keywords *KeywordResolver
}

// NewScorer creates a scorer using keywords for candidate keyword lookups.
func NewScorer(keywords *KeywordResolver) *Scorer {
	return &Scorer{keywords: keywords}
}

// Score computes the affinity of movie for profile under mood.
func (s *Scorer) Score(ctx context.Context, profile *TasteProfile, movie tmdb.Movie, mood tmdb.Mood) ScoreResult {
	var score float64

	for _, g := range movie.GenreIDs {
		score += float64(profile.GenreWeights[g])
		score += float64(MoodBoost(mood, g))
	}

	movieKeywords := s.keywords.MovieKeywords(ctx, movie.ID)

	keywordHits := 0
	for _, kw := range movieKeywords {
		if w := profile.KeywordWeights[kw]; w != 0 {
			score += float64(w) * keywordWeightFactor
			keywordHits++
		}
	}

	score += movie.VoteAverage * ratingFactor
	score += math.Log10(float64(movie.VoteCount)+1) * voteCountFactor
	score += math.Log10(movie.Popularity+1) * popularityFactor

	return ScoreResult{
		Score:       score,
		Explanation: buildExplanation(profile, movieKeywords, keywordHits, movie.VoteAverage),
	}
}

// buildExplanation picks the first matching justification: named positive
// keyword matches, then any keyword match, then high rating, then a generic
// mood-fit message.
func buildExplanation(profile *TasteProfile, movieKeywords []string, keywordHits int, rating float64) string {
	type match struct {
		keyword string
		weight  int
	}
	var matches []match
	for _, kw := range movieKeywords {
		if w := profile.KeywordWeights[kw]; w > 0 {
			matches = append(matches, match{keyword: kw, weight: w})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].weight > matches[j].weight
	})
	if len(matches) > 2 {
		matches = matches[:2]
	}

	if len(matches) > 0 {
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.keyword
		}
		return fmt.Sprintf("Matched your taste: %s", strings.Join(names, ", "))
	}

	if keywordHits > 0 {
		return "Matched your taste keywords"
	}

	if rating >= highlyRatedThreshold {
		return "Highly rated pick"
	}
	return "Good pick + mood match"
}
