package reco

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/msflix/reco-engine/internal/logging"
	"github.com/msflix/reco-engine/internal/metrics"
	"github.com/msflix/reco-engine/internal/store"
)

// KeywordFetcher abstracts the catalog's per-movie keyword endpoint.
type KeywordFetcher interface {
	Keywords(ctx context.Context, movieID int64) ([]string, error)
}

// minKeywordLen drops tiny words that carry no signal.
const minKeywordLen = 4

// keywordStoplist removes near-universal or non-discriminative keywords that
// would otherwise match almost everything.
var keywordStoplist = map[string]struct{}{
	"sequel":                 {},
	"based on novel or book": {},
	"based on novel":         {},
	"based on book":          {},
	"duringcreditsstinger":   {},
	"aftercreditsstinger":    {},
	"third part":             {},
	"second part":            {},
	"woman director":         {},
	"independent film":       {},
	"friendship":             {},
	"love":                   {},
	"adaptation":             {},
	"remake":                 {},
	"reboot":                 {},
	"los angeles":            {},
	"new york city":          {},
	"murder":                 {},
	"death":                  {},
	"police":                 {},
	"fight":                  {},
}

// KeywordResolver returns the cleaned keyword list for a movie, fetching from
// the catalog at most once per movie. Raw fetch results are persisted under a
// versioned key and never expire; keywords are treated as immutable catalog
// data. A failed fetch yields an empty list so scoring degrades instead of
// aborting.
type KeywordResolver struct {
	fetcher KeywordFetcher
	store   store.Store

	mu     sync.RWMutex
	raw    map[int64][]string
	loaded bool
}

// NewKeywordResolver creates a resolver backed by fetcher and st.
func NewKeywordResolver(fetcher KeywordFetcher, st store.Store) *KeywordResolver {
	return &KeywordResolver{
		fetcher: fetcher,
		store:   st,
		raw:     make(map[int64][]string),
	}
}

// MovieKeywords returns the cleaned keywords for movieID. Never fails: cache
// and fetch errors degrade to an empty list.
func (r *KeywordResolver) MovieKeywords(ctx context.Context, movieID int64) []string {
	r.ensureLoaded(ctx)

	r.mu.RLock()
	raw, ok := r.raw[movieID]
	r.mu.RUnlock()
	if ok {
		metrics.KeywordCacheHits.Inc()
		return cleanKeywords(raw)
	}

	metrics.KeywordCacheMisses.Inc()
	fetched, err := r.fetcher.Keywords(ctx, movieID)
	if err != nil {
		logging.Debug().Err(err).Int64("movie_id", movieID).Msg("keyword fetch failed")
		return []string{}
	}
	if fetched == nil {
		fetched = []string{}
	}

	r.mu.Lock()
	r.raw[movieID] = fetched
	r.persistLocked(ctx)
	r.mu.Unlock()

	return cleanKeywords(fetched)
}

// Prefetch warms the cache for a batch of movie IDs with bounded
// concurrency, so later sequential lookups are cache hits.
func (r *KeywordResolver) Prefetch(ctx context.Context, movieIDs []int64) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(keywordLookupParallel)
	for _, id := range movieIDs {
		g.Go(func() error {
			r.MovieKeywords(ctx, id)
			return nil
		})
	}
	_ = g.Wait() // lookups never return errors
}

// ensureLoaded populates the in-process cache from the store once.
func (r *KeywordResolver) ensureLoaded(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded {
		return
	}
	r.loadLocked(ctx)
	r.loaded = true
}

func (r *KeywordResolver) loadLocked(ctx context.Context) {
	data, err := r.store.Get(ctx, store.KeyKeywordCache)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logging.Warn().Err(err).Msg("loading keyword cache, starting empty")
		}
		return
	}

	// Stored as string-keyed JSON for stability across formats.
	var stored map[string][]string
	if err := json.Unmarshal(data, &stored); err != nil {
		logging.Warn().Err(err).Msg("parsing keyword cache, starting empty")
		return
	}
	for key, kws := range stored {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		r.raw[id] = kws
	}
}

func (r *KeywordResolver) persistLocked(ctx context.Context) {
	stored := make(map[string][]string, len(r.raw))
	for id, kws := range r.raw {
		stored[strconv.FormatInt(id, 10)] = kws
	}
	data, err := json.Marshal(stored)
	if err != nil {
		logging.Warn().Err(err).Msg("marshaling keyword cache")
		return
	}
	if err := r.store.Set(ctx, store.KeyKeywordCache, data); err != nil {
		logging.Warn().Err(err).Msg("persisting keyword cache")
	}
}

// cleanKeywords lower-cases, trims and filters a raw keyword list.
func cleanKeywords(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, kw := range raw {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if len(kw) < minKeywordLen {
			continue
		}
		if _, stopped := keywordStoplist[kw]; stopped {
			continue
		}
		out = append(out, kw)
	}
	return out
}
