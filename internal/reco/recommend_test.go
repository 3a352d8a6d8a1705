package reco

import (
	"context"
	"strings"
	"testing"

	"github.com/msflix/reco-engine/internal/store"
	"github.com/msflix/reco-engine/internal/tmdb"
	"github.com/msflix/reco-engine/internal/userstate"
)

func newTestRecommender(keywords map[int64][]string) *Recommender {
	fetcher := &countingFetcher{keywords: keywords}
	resolver := NewKeywordResolver(fetcher, store.NewMemory())
	return NewRecommender(NewProfileBuilder(resolver), NewScorer(resolver), resolver)
}

func TestRecommend_ScoresNonIncreasing(t *testing.T) {
	candidates := []tmdb.Movie{
		movie(1, "Okay", 6.2, 200),
		movie(2, "Great", 8.9, 9000),
		movie(3, "Fine", 7.0, 800),
	}

	results := newTestRecommender(nil).Recommend(context.Background(), userstate.NewState(), candidates, tmdb.MoodPick, 10)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("score at %d (%.2f) greater than at %d (%.2f)", i, results[i].Score, i-1, results[i-1].Score)
		}
	}
}

func TestRecommend_AppliesOwnQualityGate(t *testing.T) {
	// The recommender's vote floor is 150, independent of the pool gate.
	candidates := []tmdb.Movie{
		movie(1, "Thin attestation", 8.0, 149),
		movie(2, "Enough votes", 8.0, 150),
		movie(3, "Low rating", 5.9, 5000),
	}

	results := newTestRecommender(nil).Recommend(context.Background(), userstate.NewState(), candidates, tmdb.MoodPick, 10)

	if len(results) != 1 || results[0].Movie.ID != 2 {
		t.Fatalf("expected only movie 2 to survive, got %v", resultIDs(results))
	}
}

func TestRecommend_ExcludesSeen(t *testing.T) {
	candidates := []tmdb.Movie{
		movie(1, "Liked", 8.0, 500),
		movie(2, "New", 8.0, 500),
	}

	st := userstate.NewState()
	st.Liked[1] = candidates[0]
	st.LikedOrder = []int64{1}

	results := newTestRecommender(nil).Recommend(context.Background(), st, candidates, tmdb.MoodPick, 10)

	if len(results) != 1 || results[0].Movie.ID != 2 {
		t.Fatalf("expected liked movie filtered out, got %v", resultIDs(results))
	}
}

func TestRecommend_EmptyPoolIsNotAnError(t *testing.T) {
	results := newTestRecommender(nil).Recommend(context.Background(), userstate.NewState(), nil, tmdb.MoodPick, 5)
	if results == nil || len(results) != 0 {
		t.Fatalf("expected empty slice, got %v", results)
	}
}

func TestRecommend_TakesTopN(t *testing.T) {
	var candidates []tmdb.Movie
	for i := int64(1); i <= 20; i++ {
		candidates = append(candidates, movie(i, "Movie", 7.0, 500))
	}

	results := newTestRecommender(nil).Recommend(context.Background(), userstate.NewState(), candidates, tmdb.MoodPick, 5)
	if len(results) != 5 {
		t.Errorf("expected 5 results, got %d", len(results))
	}
}

func TestRecommend_BecauseYouLiked(t *testing.T) {
	st := userstate.NewState()
	st.Liked[10] = movie(10, "Heat", 8.0, 5000, tmdb.GenreAction, tmdb.GenreCrime)
	st.Liked[11] = movie(11, "Before Sunrise", 8.0, 3000, tmdb.GenreRomance)
	st.LikedOrder = []int64{10, 11}

	candidate := movie(1, "Ronin", 7.2, 900, tmdb.GenreAction, tmdb.GenreCrime)

	rec := newTestRecommender(map[int64][]string{
		10: {"heist"},
		1:  {"heist"},
	})

	results := rec.Recommend(context.Background(), st, []tmdb.Movie{candidate}, tmdb.MoodPick, 1)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if !strings.Contains(results[0].Because, "Heat") {
		t.Errorf("because = %q, want attribution to Heat", results[0].Because)
	}
}

func TestRecommend_BecauseFallsBackWithoutOverlap(t *testing.T) {
	st := userstate.NewState()
	st.Liked[10] = movie(10, "Before Sunrise", 8.0, 3000, tmdb.GenreRomance)
	st.LikedOrder = []int64{10}

	candidate := movie(1, "Alien", 8.1, 9000, tmdb.GenreSciFi, tmdb.GenreHorror)

	results := newTestRecommender(nil).Recommend(context.Background(), st, []tmdb.Movie{candidate}, tmdb.MoodPick, 1)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Because != GenericBecause {
		t.Errorf("because = %q, want %q", results[0].Because, GenericBecause)
	}
}

func resultIDs(results []Recommendation) []int64 {
	ids := make([]int64, len(results))
	for i, r := range results {
		ids[i] = r.Movie.ID
	}
	return ids
}
