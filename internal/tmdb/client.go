// Package tmdb provides a TMDB API client for the endpoints the reco engine
// consumes: trending, discovery, search, and per-movie keywords,
// recommendations and similar lists.
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/msflix/reco-engine/internal/metrics"
)

const userAgent = "msflix-reco/1.0"

// Sentinel errors.
var (
	// ErrMissingAPIKey is returned when the client is built without a key.
	ErrMissingAPIKey = errors.New("missing TMDB API key")

	// ErrUnauthorized is returned when TMDB rejects the API key.
	ErrUnauthorized = errors.New("TMDB rejected API key")
)

// TMDB status codes. The API reports errors in a JSON envelope alongside the
// HTTP status.
const statusInvalidAPIKey = 7

// Config holds TMDB client configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client is a TMDB API client. All list calls return an empty slice rather
// than nil on an empty page, exclude adult titles, and request page 1 only.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a TMDB client from the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.themoviedb.org/3"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Trending fetches this week's trending movies.
func (c *Client) Trending(ctx context.Context) ([]Movie, error) {
	return c.list(ctx, "/trending/movie/week", nil)
}

// Search performs a free-text movie search.
func (c *Client) Search(ctx context.Context, query string) ([]Movie, error) {
	return c.list(ctx, "/search/movie", url.Values{
		"query":         {query},
		"include_adult": {"false"},
	})
}

// DiscoverMood fetches the discovery list for a mood using a fixed
// mood-to-filter mapping.
func (c *Client) DiscoverMood(ctx context.Context, mood Mood) ([]Movie, error) {
	params := moodDiscoverParams(mood)
	params.Set("include_adult", "false")
	return c.list(ctx, "/discover/movie", params)
}

// DiscoverOptions constrain a genre discovery call.
type DiscoverOptions struct {
	MinRating float64
	MinVotes  int
	SortBy    string // default "popularity.desc"
}

// DiscoverByGenres fetches a quality-gated discovery list for a genre set.
func (c *Client) DiscoverByGenres(ctx context.Context, genreIDs []int, opts DiscoverOptions) ([]Movie, error) {
	sortBy := opts.SortBy
	if sortBy == "" {
		sortBy = "popularity.desc"
	}

	params := url.Values{
		"include_adult":    {"false"},
		"sort_by":          {sortBy},
		"vote_average.gte": {strconv.FormatFloat(opts.MinRating, 'f', -1, 64)},
		"vote_count.gte":   {strconv.Itoa(opts.MinVotes)},
	}
	if joined := joinGenres(genreIDs); joined != "" {
		params.Set("with_genres", joined)
	}
	return c.list(ctx, "/discover/movie", params)
}

// Recommendations fetches TMDB's recommendation list for a movie.
func (c *Client) Recommendations(ctx context.Context, movieID int64) ([]Movie, error) {
	return c.list(ctx, fmt.Sprintf("/movie/%d/recommendations", movieID), url.Values{
		"include_adult": {"false"},
	})
}

// Similar fetches TMDB's similar list for a movie.
func (c *Client) Similar(ctx context.Context, movieID int64) ([]Movie, error) {
	return c.list(ctx, fmt.Sprintf("/movie/%d/similar", movieID), url.Values{
		"include_adult": {"false"},
	})
}

// Keywords fetches the raw keyword names for a movie, lower-cased.
func (c *Client) Keywords(ctx context.Context, movieID int64) ([]string, error) {
	body, err := c.doRequest(ctx, fmt.Sprintf("/movie/%d/keywords", movieID), nil)
	if err != nil {
		metrics.CatalogFetchFailures.WithLabelValues("keywords").Inc()
		return nil, err
	}

	var resp keywordsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		metrics.CatalogFetchFailures.WithLabelValues("keywords").Inc()
		return nil, fmt.Errorf("parsing keywords response: %w", err)
	}

	names := make([]string, 0, len(resp.Keywords))
	for _, kw := range resp.Keywords {
		names = append(names, strings.ToLower(kw.Name))
	}
	return names, nil
}

// list performs a GET for an endpoint returning the common paged shape.
func (c *Client) list(ctx context.Context, path string, params url.Values) ([]Movie, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("page", "1")

	body, err := c.doRequest(ctx, path, params)
	if err != nil {
		metrics.CatalogFetchFailures.WithLabelValues(endpointLabel(path)).Inc()
		return nil, err
	}

	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		metrics.CatalogFetchFailures.WithLabelValues(endpointLabel(path)).Inc()
		return nil, fmt.Errorf("parsing list response: %w", err)
	}

	if resp.Results == nil {
		return []Movie{}, nil
	}
	return resp.Results, nil
}

// doRequest performs a single HTTP GET and surfaces TMDB's error envelope.
func (c *Client) doRequest(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	params.Set("language", "en-US")

	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.StatusCode != 0 {
			if apiErr.StatusCode == statusInvalidAPIKey {
				return nil, ErrUnauthorized
			}
			return nil, fmt.Errorf("TMDB error %d: %s", apiErr.StatusCode, apiErr.StatusMessage)
		}
		return nil, fmt.Errorf("TMDB returned status %d", resp.StatusCode)
	}

	return body, nil
}

// moodDiscoverParams maps a mood to discovery filters. These are contextual
// genre mappings, not user preferences.
func moodDiscoverParams(mood Mood) url.Values {
	switch mood {
	case MoodChill:
		return url.Values{
			"with_genres": {joinGenres([]int{GenreComedy, GenreRomance})},
			"sort_by":     {"popularity.desc"},
		}
	case MoodHype:
		return url.Values{
			"with_genres": {joinGenres([]int{GenreAction, GenreAdventure})},
			"sort_by":     {"popularity.desc"},
		}
	case MoodMind:
		return url.Values{
			"with_genres":    {joinGenres([]int{GenreSciFi, GenreMystery, GenreThriller})},
			"sort_by":        {"vote_average.desc"},
			"vote_count.gte": {"500"},
		}
	case MoodEmotional:
		return url.Values{
			"with_genres":    {joinGenres([]int{GenreDrama})},
			"sort_by":        {"vote_average.desc"},
			"vote_count.gte": {"300"},
		}
	case MoodHorror:
		return url.Values{
			"with_genres": {joinGenres([]int{GenreHorror, GenreThriller, GenreMystery})},
			"sort_by":     {"popularity.desc"},
		}
	default:
		return url.Values{"sort_by": {"popularity.desc"}}
	}
}

func joinGenres(genreIDs []int) string {
	parts := make([]string, 0, len(genreIDs))
	for _, id := range genreIDs {
		if id > 0 {
			parts = append(parts, strconv.Itoa(id))
		}
	}
	return strings.Join(parts, ",")
}

func endpointLabel(path string) string {
	switch {
	case strings.HasPrefix(path, "/trending"):
		return "trending"
	case strings.HasPrefix(path, "/discover"):
		return "discover"
	case strings.HasPrefix(path, "/search"):
		return "search"
	case strings.HasSuffix(path, "/recommendations"):
		return "recommendations"
	case strings.HasSuffix(path, "/similar"):
		return "similar"
	default:
		return "other"
	}
}
