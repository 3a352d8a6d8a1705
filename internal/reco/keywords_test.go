package reco

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/msflix/reco-engine/internal/store"
)

// countingFetcher wraps keyword results with a call counter.
type countingFetcher struct {
	keywords map[int64][]string
	err      error
	calls    atomic.Int32
}

func (f *countingFetcher) Keywords(ctx context.Context, movieID int64) ([]string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.keywords[movieID], nil
}

func TestMovieKeywords_Cleaning(t *testing.T) {
	fetcher := &countingFetcher{keywords: map[int64][]string{
		1: {"  Time Travel ", "spy", "sequel", "love", "dystopia", "ai"},
	}}
	r := NewKeywordResolver(fetcher, store.NewMemory())

	got := r.MovieKeywords(context.Background(), 1)

	want := []string{"time travel", "dystopia"}
	if len(got) != len(want) {
		t.Fatalf("MovieKeywords = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("MovieKeywords = %v, want %v", got, want)
		}
	}
}

func TestMovieKeywords_FetchesOnce(t *testing.T) {
	fetcher := &countingFetcher{keywords: map[int64][]string{
		1: {"dystopia"},
	}}
	r := NewKeywordResolver(fetcher, store.NewMemory())

	ctx := context.Background()
	r.MovieKeywords(ctx, 1)
	r.MovieKeywords(ctx, 1)
	r.MovieKeywords(ctx, 1)

	if calls := fetcher.calls.Load(); calls != 1 {
		t.Errorf("expected a single catalog fetch, got %d", calls)
	}
}

func TestMovieKeywords_FailureYieldsEmpty(t *testing.T) {
	fetcher := &countingFetcher{err: errors.New("network down")}
	r := NewKeywordResolver(fetcher, store.NewMemory())

	got := r.MovieKeywords(context.Background(), 1)
	if len(got) != 0 {
		t.Errorf("expected empty keywords on failure, got %v", got)
	}
}

func TestMovieKeywords_PersistsAcrossResolvers(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()

	first := NewKeywordResolver(&countingFetcher{keywords: map[int64][]string{
		1: {"dystopia"},
	}}, st)
	first.MovieKeywords(ctx, 1)

	// A fresh resolver over the same store must not refetch.
	failing := &countingFetcher{err: errors.New("should not be called")}
	second := NewKeywordResolver(failing, st)

	got := second.MovieKeywords(ctx, 1)
	if len(got) != 1 || got[0] != "dystopia" {
		t.Errorf("expected cached keywords from store, got %v", got)
	}
	if failing.calls.Load() != 0 {
		t.Error("cache hit should not reach the fetcher")
	}
}

func TestMovieKeywords_StoresRawReturnsCleaned(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()

	r := NewKeywordResolver(&countingFetcher{keywords: map[int64][]string{
		1: {"sequel", "dystopia"},
	}}, st)
	r.MovieKeywords(ctx, 1)

	// The raw entry keeps the stoplisted keyword; the cleaned view drops it.
	second := NewKeywordResolver(&countingFetcher{}, st)
	got := second.MovieKeywords(ctx, 1)
	if len(got) != 1 || got[0] != "dystopia" {
		t.Errorf("cleaned view = %v, want [dystopia]", got)
	}
}

func TestPrefetch_WarmsCache(t *testing.T) {
	fetcher := &countingFetcher{keywords: map[int64][]string{
		1: {"time travel"},
		2: {"dystopia"},
	}}
	resolver := NewKeywordResolver(fetcher, store.NewMemory())

	resolver.Prefetch(context.Background(), []int64{1, 2})
	if got := fetcher.calls.Load(); got != 2 {
		t.Fatalf("fetches after prefetch = %d, want 2", got)
	}

	// Subsequent lookups are cache hits.
	if kws := resolver.MovieKeywords(context.Background(), 1); len(kws) != 1 || kws[0] != "time travel" {
		t.Errorf("keywords for 1 = %v", kws)
	}
	resolver.MovieKeywords(context.Background(), 2)
	if got := fetcher.calls.Load(); got != 2 {
		t.Errorf("fetches after lookups = %d, want 2", got)
	}
}
