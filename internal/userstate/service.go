package userstate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/msflix/reco-engine/internal/logging"
	"github.com/msflix/reco-engine/internal/store"
	"github.com/msflix/reco-engine/internal/tmdb"
)

// TasteChangeListener is notified after every mutation that changes the
// user's taste (like, dislike, unlike, undislike). The recommendation layer
// uses it to invalidate the candidate pool cache.
type TasteChangeListener interface {
	TasteChanged(ctx context.Context)
}

// TasteChangeFunc adapts a function to the TasteChangeListener interface.
type TasteChangeFunc func(ctx context.Context)

// TasteChanged calls f.
func (f TasteChangeFunc) TasteChanged(ctx context.Context) { f(ctx) }

// Service loads, mutates and persists user state.
type Service struct {
	store     store.Store
	listeners []TasteChangeListener
}

// NewService creates a user state service backed by st.
func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// OnTasteChange registers a listener for taste-changing mutations.
func (s *Service) OnTasteChange(l TasteChangeListener) {
	s.listeners = append(s.listeners, l)
}

// Load reads the persisted state. A missing or unreadable value yields an
// empty state rather than an error.
func (s *Service) Load(ctx context.Context) *State {
	data, err := s.store.Get(ctx, store.KeyUserState)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logging.Warn().Err(err).Msg("loading user state, starting empty")
		}
		return NewState()
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		logging.Warn().Err(err).Msg("parsing user state, starting empty")
		return NewState()
	}
	st.normalize()
	return &st
}

// Like records a like for movie and removes any prior dislike of it.
func (s *Service) Like(ctx context.Context, movie tmdb.Movie) error {
	st := s.Load(ctx)
	delete(st.Disliked, movie.ID)
	if _, already := st.Liked[movie.ID]; !already {
		st.LikedOrder = append(st.LikedOrder, movie.ID)
	}
	st.Liked[movie.ID] = movie
	return s.saveAndNotify(ctx, st)
}

// Dislike records a dislike for movie and removes any prior like of it.
func (s *Service) Dislike(ctx context.Context, movie tmdb.Movie) error {
	st := s.Load(ctx)
	if _, wasLiked := st.Liked[movie.ID]; wasLiked {
		delete(st.Liked, movie.ID)
		st.LikedOrder = removeID(st.LikedOrder, movie.ID)
	}
	st.Disliked[movie.ID] = movie
	return s.saveAndNotify(ctx, st)
}

// Unlike removes a like.
func (s *Service) Unlike(ctx context.Context, movieID int64) error {
	st := s.Load(ctx)
	delete(st.Liked, movieID)
	st.LikedOrder = removeID(st.LikedOrder, movieID)
	return s.saveAndNotify(ctx, st)
}

// Undislike removes a dislike.
func (s *Service) Undislike(ctx context.Context, movieID int64) error {
	st := s.Load(ctx)
	delete(st.Disliked, movieID)
	return s.saveAndNotify(ctx, st)
}

// MarkWatched records that movie was watched now.
func (s *Service) MarkWatched(ctx context.Context, movie tmdb.Movie) error {
	st := s.Load(ctx)
	st.Watched[movie.ID] = WatchedRecord{Movie: movie, WatchedAt: time.Now()}
	return s.save(ctx, st)
}

// AddToWatchlist adds movie to the watchlist.
func (s *Service) AddToWatchlist(ctx context.Context, movie tmdb.Movie) error {
	st := s.Load(ctx)
	st.Watchlist[movie.ID] = movie
	return s.save(ctx, st)
}

// RemoveFromWatchlist removes movie from the watchlist.
func (s *Service) RemoveFromWatchlist(ctx context.Context, movieID int64) error {
	st := s.Load(ctx)
	delete(st.Watchlist, movieID)
	return s.save(ctx, st)
}

// TasteVersion returns the persisted taste version counter.
func (s *Service) TasteVersion(ctx context.Context) int {
	data, err := s.store.Get(ctx, store.KeyTasteVersion)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return 0
	}
	return n
}

// save persists the state without treating the mutation as taste-changing.
func (s *Service) save(ctx context.Context, st *State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshaling user state: %w", err)
	}
	if err := s.store.Set(ctx, store.KeyUserState, data); err != nil {
		return fmt.Errorf("persisting user state: %w", err)
	}
	return nil
}

// saveAndNotify persists the state, bumps the taste version and notifies
// listeners. Taste version write failures are logged, not fatal.
func (s *Service) saveAndNotify(ctx context.Context, st *State) error {
	if err := s.save(ctx, st); err != nil {
		return err
	}

	next := s.TasteVersion(ctx) + 1
	if err := s.store.Set(ctx, store.KeyTasteVersion, []byte(strconv.Itoa(next))); err != nil {
		logging.Warn().Err(err).Msg("persisting taste version")
	}

	for _, l := range s.listeners {
		l.TasteChanged(ctx)
	}
	return nil
}

func removeID(ids []int64, id int64) []int64 {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
