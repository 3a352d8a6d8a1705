package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/msflix/reco-engine/internal/logging"
	"github.com/msflix/reco-engine/internal/reco"
	"github.com/msflix/reco-engine/internal/tmdb"
	"github.com/msflix/reco-engine/internal/userstate"
)

// DefaultRecommendationCount is the top-N size when the request omits n.
const DefaultRecommendationCount = 5

// NoRecommendationsMessage is shown when the pipeline produces nothing. An
// empty result is a valid state, not an error.
const NoRecommendationsMessage = "No recommendations available right now. Try rating a few movies first."

// SearchCatalog is the catalog surface the browse handlers consume.
type SearchCatalog interface {
	Search(ctx context.Context, query string) ([]tmdb.Movie, error)
	Trending(ctx context.Context) ([]tmdb.Movie, error)
}

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	engine  *reco.Engine
	users   *userstate.Service
	catalog SearchCatalog
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(engine *reco.Engine, users *userstate.Service, catalog SearchCatalog) *Handlers {
	return &Handlers{engine: engine, users: users, catalog: catalog}
}

// Health handles GET /healthz.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// recommendationsResponse is the payload of the recommendation endpoints.
type recommendationsResponse struct {
	Results []reco.Recommendation `json:"results"`
	Message string                `json:"message,omitempty"`
}

// Recommendations handles GET /api/recommendations?mood=&n=.
func (h *Handlers) Recommendations(w http.ResponseWriter, r *http.Request) {
	mood := tmdb.ParseMood(r.URL.Query().Get("mood"))

	n := DefaultRecommendationCount
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "n must be a positive integer")
			return
		}
		n = parsed
	}

	results, err := h.engine.RecommendTopN(r.Context(), mood, n)
	if err != nil {
		if errors.Is(err, reco.ErrSuperseded) {
			respondError(w, http.StatusConflict, "request superseded by a newer one")
			return
		}
		logging.Error().Err(err).Msg("recommendations failed")
		respondError(w, http.StatusInternalServerError, "recommendations failed")
		return
	}

	resp := recommendationsResponse{Results: results}
	if len(results) == 0 {
		resp.Results = []reco.Recommendation{}
		resp.Message = NoRecommendationsMessage
	}
	respondJSON(w, http.StatusOK, resp)
}

// Pick handles POST /api/recommendations/pick?mood=.
func (h *Handlers) Pick(w http.ResponseWriter, r *http.Request) {
	mood := tmdb.ParseMood(r.URL.Query().Get("mood"))

	pick, ok, err := h.engine.PickOne(r.Context(), mood, nil)
	if err != nil {
		if errors.Is(err, reco.ErrSuperseded) {
			respondError(w, http.StatusConflict, "request superseded by a newer one")
			return
		}
		logging.Error().Err(err).Msg("pick failed")
		respondError(w, http.StatusInternalServerError, "pick failed")
		return
	}
	if !ok {
		respondJSON(w, http.StatusOK, recommendationsResponse{
			Results: []reco.Recommendation{},
			Message: NoRecommendationsMessage,
		})
		return
	}
	respondJSON(w, http.StatusOK, recommendationsResponse{Results: []reco.Recommendation{pick}})
}

// RebuildPool handles POST /api/pool/rebuild?mood=.
func (h *Handlers) RebuildPool(w http.ResponseWriter, r *http.Request) {
	mood := tmdb.ParseMood(r.URL.Query().Get("mood"))
	pool := h.engine.BuildCandidatePool(r.Context(), mood)
	respondJSON(w, http.StatusOK, map[string]any{"size": len(pool)})
}

// Profile handles GET /api/profile.
func (h *Handlers) Profile(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.engine.BuildTasteProfile(r.Context()))
}

// History handles GET /api/history.
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	ids := h.engine.History().IDs(r.Context())
	if ids == nil {
		ids = []int64{}
	}
	respondJSON(w, http.StatusOK, map[string][]int64{"movie_ids": ids})
}

// State handles GET /api/state.
func (h *Handlers) State(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.users.Load(r.Context()))
}

// Search handles GET /api/search?q=.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	movies, err := h.catalog.Search(r.Context(), query)
	if err != nil {
		logging.Warn().Err(err).Msg("search failed")
		respondError(w, http.StatusBadGateway, "catalog search failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string][]tmdb.Movie{"results": movies})
}

// Trending handles GET /api/trending.
func (h *Handlers) Trending(w http.ResponseWriter, r *http.Request) {
	movies, err := h.catalog.Trending(r.Context())
	if err != nil {
		logging.Warn().Err(err).Msg("trending failed")
		respondError(w, http.StatusBadGateway, "catalog trending failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string][]tmdb.Movie{"results": movies})
}

// Like handles POST /api/movies/{id}/like with the movie snapshot as body.
func (h *Handlers) Like(w http.ResponseWriter, r *http.Request) {
	movie, ok := h.movieFromRequest(w, r)
	if !ok {
		return
	}
	h.mutate(w, r, func(ctx context.Context) error { return h.users.Like(ctx, movie) })
}

// Dislike handles POST /api/movies/{id}/dislike with the movie snapshot as
// body.
func (h *Handlers) Dislike(w http.ResponseWriter, r *http.Request) {
	movie, ok := h.movieFromRequest(w, r)
	if !ok {
		return
	}
	h.mutate(w, r, func(ctx context.Context) error { return h.users.Dislike(ctx, movie) })
}

// Unlike handles POST /api/movies/{id}/unlike.
func (h *Handlers) Unlike(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(w, r)
	if !ok {
		return
	}
	h.mutate(w, r, func(ctx context.Context) error { return h.users.Unlike(ctx, id) })
}

// Undislike handles POST /api/movies/{id}/undislike.
func (h *Handlers) Undislike(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(w, r)
	if !ok {
		return
	}
	h.mutate(w, r, func(ctx context.Context) error { return h.users.Undislike(ctx, id) })
}

// MarkWatched handles POST /api/movies/{id}/watched with the movie snapshot
// as body.
func (h *Handlers) MarkWatched(w http.ResponseWriter, r *http.Request) {
	movie, ok := h.movieFromRequest(w, r)
	if !ok {
		return
	}
	h.mutate(w, r, func(ctx context.Context) error { return h.users.MarkWatched(ctx, movie) })
}

// AddToWatchlist handles POST /api/movies/{id}/watchlist with the movie
// snapshot as body.
func (h *Handlers) AddToWatchlist(w http.ResponseWriter, r *http.Request) {
	movie, ok := h.movieFromRequest(w, r)
	if !ok {
		return
	}
	h.mutate(w, r, func(ctx context.Context) error { return h.users.AddToWatchlist(ctx, movie) })
}

// RemoveFromWatchlist handles DELETE /api/movies/{id}/watchlist.
func (h *Handlers) RemoveFromWatchlist(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(w, r)
	if !ok {
		return
	}
	h.mutate(w, r, func(ctx context.Context) error { return h.users.RemoveFromWatchlist(ctx, id) })
}

// mutate runs a state mutation and reports the outcome.
func (h *Handlers) mutate(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context) error) {
	if err := fn(r.Context()); err != nil {
		logging.Error().Err(err).Msg("state mutation failed")
		respondError(w, http.StatusInternalServerError, "saving state failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// movieFromRequest decodes the movie snapshot body and checks it against the
// path ID.
func (h *Handlers) movieFromRequest(w http.ResponseWriter, r *http.Request) (tmdb.Movie, bool) {
	id, ok := movieID(w, r)
	if !ok {
		return tmdb.Movie{}, false
	}

	var movie tmdb.Movie
	if err := json.NewDecoder(r.Body).Decode(&movie); err != nil {
		respondError(w, http.StatusBadRequest, "invalid movie payload")
		return tmdb.Movie{}, false
	}
	if movie.ID == 0 {
		movie.ID = id
	}
	if movie.ID != id {
		respondError(w, http.StatusBadRequest, "movie ID mismatch between path and body")
		return tmdb.Movie{}, false
	}
	return movie, true
}

func movieID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid movie ID")
		return 0, false
	}
	return id, true
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Warn().Err(err).Msg("encoding response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
