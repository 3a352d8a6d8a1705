package tmdb

import (
	"context"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/msflix/reco-engine/internal/logging"
)

// BreakerClient wraps Client with a circuit breaker so that a down catalog
// trips fast instead of stalling every pool build on timeouts. Callers treat
// an open circuit like any other fetch failure: empty result.
type BreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[any]
}

// NewBreakerClient wraps client with a circuit breaker. The breaker opens
// after a 60% failure rate over at least 10 requests and retries after 30s.
func NewBreakerClient(client *Client) *BreakerClient {
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "tmdb",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("catalog circuit breaker state change")
		},
	})
	return &BreakerClient{client: client, cb: cb}
}

func movies(c *BreakerClient, fn func() ([]Movie, error)) ([]Movie, error) {
	out, err := c.cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		return nil, err
	}
	return out.([]Movie), nil
}

// Trending fetches this week's trending movies.
func (c *BreakerClient) Trending(ctx context.Context) ([]Movie, error) {
	return movies(c, func() ([]Movie, error) { return c.client.Trending(ctx) })
}

// Search performs a free-text movie search.
func (c *BreakerClient) Search(ctx context.Context, query string) ([]Movie, error) {
	return movies(c, func() ([]Movie, error) { return c.client.Search(ctx, query) })
}

// DiscoverMood fetches the discovery list for a mood.
func (c *BreakerClient) DiscoverMood(ctx context.Context, mood Mood) ([]Movie, error) {
	return movies(c, func() ([]Movie, error) { return c.client.DiscoverMood(ctx, mood) })
}

// DiscoverByGenres fetches a quality-gated discovery list for a genre set.
func (c *BreakerClient) DiscoverByGenres(ctx context.Context, genreIDs []int, opts DiscoverOptions) ([]Movie, error) {
	return movies(c, func() ([]Movie, error) { return c.client.DiscoverByGenres(ctx, genreIDs, opts) })
}

// Recommendations fetches TMDB's recommendation list for a movie.
func (c *BreakerClient) Recommendations(ctx context.Context, movieID int64) ([]Movie, error) {
	return movies(c, func() ([]Movie, error) { return c.client.Recommendations(ctx, movieID) })
}

// Similar fetches TMDB's similar list for a movie.
func (c *BreakerClient) Similar(ctx context.Context, movieID int64) ([]Movie, error) {
	return movies(c, func() ([]Movie, error) { return c.client.Similar(ctx, movieID) })
}

// Keywords fetches the raw keyword names for a movie.
func (c *BreakerClient) Keywords(ctx context.Context, movieID int64) ([]string, error) {
	out, err := c.cb.Execute(func() (any, error) {
		return c.client.Keywords(ctx, movieID)
	})
	if err != nil {
		return nil, err
	}
	return out.([]string), nil
}
