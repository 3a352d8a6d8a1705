package reco

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/msflix/reco-engine/internal/store"
	"github.com/msflix/reco-engine/internal/tmdb"
	"github.com/msflix/reco-engine/internal/userstate"
)

func newTestEngine(catalog *fakeCatalog) (*Engine, *userstate.Service, *store.MemoryStore) {
	st := store.NewMemory()
	users := userstate.NewService(st)
	engine := NewEngine(catalog, st, users, NewPoolCache(st, 0), Options{})
	return engine, users, st
}

func TestEngine_ReusesCachedPool(t *testing.T) {
	ctx := context.Background()
	catalog := &fakeCatalog{
		trending: []tmdb.Movie{movie(1, "Trending", 7.5, 900)},
	}
	engine, _, _ := newTestEngine(catalog)

	if _, err := engine.RecommendTopN(ctx, tmdb.MoodPick, 5); err != nil {
		t.Fatal(err)
	}

	// A fresh cache means the catalog must not be hit again.
	catalog.failTrending = true
	catalog.failMood = true
	results, err := engine.RecommendTopN(ctx, tmdb.MoodPick, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Movie.ID != 1 {
		t.Errorf("results = %v, want cached movie 1", resultIDs(results))
	}
}

func TestEngine_RebuildsExpiredPool(t *testing.T) {
	ctx := context.Background()
	catalog := &fakeCatalog{
		trending: []tmdb.Movie{movie(1, "Old trending", 7.5, 900)},
	}

	st := store.NewMemory()
	users := userstate.NewService(st)
	cache := NewPoolCache(st, 24*time.Hour)
	engine := NewEngine(catalog, st, users, cache, Options{})

	base := time.Now()
	cache.now = func() time.Time { return base }
	if _, err := engine.RecommendTopN(ctx, tmdb.MoodPick, 5); err != nil {
		t.Fatal(err)
	}

	catalog.trending = []tmdb.Movie{movie(2, "New trending", 7.5, 900)}
	cache.now = func() time.Time { return base.Add(25 * time.Hour) }

	results, err := engine.RecommendTopN(ctx, tmdb.MoodPick, 5)
	if err != nil {
		t.Fatal(err)
	}
	if !containsResultID(results, 2) {
		t.Errorf("results = %v, want rebuilt pool containing movie 2", resultIDs(results))
	}
}

func TestEngine_TasteChangeInvalidatesPool(t *testing.T) {
	ctx := context.Background()
	catalog := &fakeCatalog{
		trending: []tmdb.Movie{movie(1, "Old trending", 7.5, 900)},
	}
	engine, users, _ := newTestEngine(catalog)

	if _, err := engine.RecommendTopN(ctx, tmdb.MoodPick, 5); err != nil {
		t.Fatal(err)
	}

	catalog.trending = []tmdb.Movie{movie(2, "New trending", 7.5, 900)}
	if err := users.Like(ctx, movie(99, "Liked", 8.0, 5000, tmdb.GenreDrama)); err != nil {
		t.Fatal(err)
	}

	results, err := engine.RecommendTopN(ctx, tmdb.MoodPick, 5)
	if err != nil {
		t.Fatal(err)
	}
	if !containsResultID(results, 2) {
		t.Errorf("results = %v, want rebuilt pool containing movie 2", resultIDs(results))
	}
}

func TestEngine_RecommendRecordsHistory(t *testing.T) {
	ctx := context.Background()
	catalog := &fakeCatalog{
		trending: []tmdb.Movie{
			movie(1, "First", 8.0, 900),
			movie(2, "Second", 7.0, 900),
		},
	}
	engine, _, _ := newTestEngine(catalog)

	results, err := engine.RecommendTopN(ctx, tmdb.MoodPick, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if !engine.History().IsRecent(ctx, r.Movie.ID) {
			t.Errorf("movie %d not recorded in history", r.Movie.ID)
		}
	}
}

func TestEngine_PickOneRecordsOnlyThePick(t *testing.T) {
	ctx := context.Background()
	catalog := &fakeCatalog{
		trending: []tmdb.Movie{
			movie(1, "First", 8.0, 900),
			movie(2, "Second", 7.8, 900),
			movie(3, "Third", 7.0, 900),
		},
	}
	engine, _, _ := newTestEngine(catalog)

	pick, ok, err := engine.PickOne(ctx, tmdb.MoodPick, rand.New(rand.NewPCG(1, 2)))
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected a pick")
	}

	ids := engine.History().IDs(ctx)
	if len(ids) != 1 || ids[0] != pick.Movie.ID {
		t.Errorf("history = %v, want only pick %d", ids, pick.Movie.ID)
	}
}

func TestEngine_PickOneEmptyPool(t *testing.T) {
	engine, _, _ := newTestEngine(&fakeCatalog{})

	_, ok, err := engine.PickOne(context.Background(), tmdb.MoodPick, nil)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected no pick from an empty catalog")
	}
}

func TestEngine_BuildTasteProfile(t *testing.T) {
	ctx := context.Background()
	engine, users, _ := newTestEngine(&fakeCatalog{})

	if err := users.Like(ctx, movie(10, "Liked", 8.0, 5000, tmdb.GenreSciFi)); err != nil {
		t.Fatal(err)
	}

	profile := engine.BuildTasteProfile(ctx)
	if got := profile.GenreWeights[tmdb.GenreSciFi]; got != 3 {
		t.Errorf("sci-fi weight = %d, want 3", got)
	}
}

func containsResultID(results []Recommendation, id int64) bool {
	for _, r := range results {
		if r.Movie.ID == id {
			return true
		}
	}
	return false
}

// gatedCatalog blocks DiscoverMood for one mood until released, letting a
// test hold a request mid-build while a newer one runs to completion.
type gatedCatalog struct {
	*fakeCatalog
	blockMood tmdb.Mood
	entered   chan struct{}
	release   chan struct{}
}

func (c *gatedCatalog) DiscoverMood(ctx context.Context, mood tmdb.Mood) ([]tmdb.Movie, error) {
	if mood == c.blockMood {
		close(c.entered)
		<-c.release
	}
	return c.fakeCatalog.DiscoverMood(ctx, mood)
}

func TestEngine_SupersededRequestIsDiscarded(t *testing.T) {
	ctx := context.Background()
	catalog := &gatedCatalog{
		fakeCatalog: &fakeCatalog{
			moodLists: map[tmdb.Mood][]tmdb.Movie{
				tmdb.MoodChill: {movie(1, "Chill pick", 7.5, 900)},
				tmdb.MoodHype:  {movie(2, "Hype pick", 7.5, 900)},
			},
		},
		blockMood: tmdb.MoodChill,
		entered:   make(chan struct{}),
		release:   make(chan struct{}),
	}

	st := store.NewMemory()
	users := userstate.NewService(st)
	engine := NewEngine(catalog, st, users, NewPoolCache(st, 0), Options{})

	firstErr := make(chan error, 1)
	go func() {
		_, err := engine.RecommendTopN(ctx, tmdb.MoodChill, 5)
		firstErr <- err
	}()

	// Wait until the first request is held inside its pool build, then run a
	// newer request to completion.
	<-catalog.entered
	results, err := engine.RecommendTopN(ctx, tmdb.MoodHype, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Movie.ID != 2 {
		t.Fatalf("newer request results = %v", resultIDs(results))
	}

	close(catalog.release)
	if err := <-firstErr; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("first request err = %v, want ErrSuperseded", err)
	}

	// Only the newer request's results may reach the history.
	if engine.History().IsRecent(ctx, 1) {
		t.Error("superseded request recorded its movie in history")
	}
	if !engine.History().IsRecent(ctx, 2) {
		t.Error("newer request's movie missing from history")
	}
}

func TestEngine_EmptyPoolIsNotCached(t *testing.T) {
	ctx := context.Background()
	catalog := &fakeCatalog{failTrending: true, failMood: true}
	engine, _, _ := newTestEngine(catalog)

	results, err := engine.RecommendTopN(ctx, tmdb.MoodPick, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Fatalf("results during outage = %v", resultIDs(results))
	}

	// Once the catalog recovers, the next request must rebuild instead of
	// serving a cached empty pool.
	catalog.failTrending = false
	catalog.failMood = false
	catalog.trending = []tmdb.Movie{movie(1, "Recovered", 7.5, 900)}

	results, err = engine.RecommendTopN(ctx, tmdb.MoodPick, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Movie.ID != 1 {
		t.Errorf("results after recovery = %v, want movie 1", resultIDs(results))
	}
}
