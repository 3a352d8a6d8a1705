// Package userstate holds the user's explicit feedback (likes, dislikes,
// watched, watchlist) and the mutations the UI drives. State is persisted
// whole after every mutation and lives for the application install.
package userstate

import (
	"time"

	"github.com/msflix/reco-engine/internal/tmdb"
)

// WatchedRecord is a watched movie snapshot with its watch timestamp.
type WatchedRecord struct {
	Movie     tmdb.Movie `json:"movie"`
	WatchedAt time.Time  `json:"watched_at"`
}

// State is the full user state. A movie ID appears in at most one of
// Liked/Disliked at any time; Watched and Watchlist are independent.
type State struct {
	Liked     map[int64]tmdb.Movie    `json:"liked"`
	Disliked  map[int64]tmdb.Movie    `json:"disliked"`
	Watched   map[int64]WatchedRecord `json:"watched"`
	Watchlist map[int64]tmdb.Movie    `json:"watchlist"`

	// LikedOrder records like order, oldest first, so the pool builder can
	// favor the most recently liked movies.
	LikedOrder []int64 `json:"liked_order"`
}

// NewState returns an empty state with all maps allocated.
func NewState() *State {
	return &State{
		Liked:     make(map[int64]tmdb.Movie),
		Disliked:  make(map[int64]tmdb.Movie),
		Watched:   make(map[int64]WatchedRecord),
		Watchlist: make(map[int64]tmdb.Movie),
	}
}

// normalize allocates any nil maps after unmarshaling old payloads.
func (s *State) normalize() {
	if s.Liked == nil {
		s.Liked = make(map[int64]tmdb.Movie)
	}
	if s.Disliked == nil {
		s.Disliked = make(map[int64]tmdb.Movie)
	}
	if s.Watched == nil {
		s.Watched = make(map[int64]WatchedRecord)
	}
	if s.Watchlist == nil {
		s.Watchlist = make(map[int64]tmdb.Movie)
	}
	// Rebuild like order for payloads written before it was tracked.
	if len(s.LikedOrder) == 0 && len(s.Liked) > 0 {
		for id := range s.Liked {
			s.LikedOrder = append(s.LikedOrder, id)
		}
	}
}

// LikedMovies returns the liked snapshots in like order, oldest first.
func (s *State) LikedMovies() []tmdb.Movie {
	out := make([]tmdb.Movie, 0, len(s.Liked))
	for _, id := range s.LikedOrder {
		if m, ok := s.Liked[id]; ok {
			out = append(out, m)
		}
	}
	return out
}

// RecentLikedIDs returns up to n most recently liked movie IDs, newest last.
func (s *State) RecentLikedIDs(n int) []int64 {
	if n <= 0 || len(s.LikedOrder) == 0 {
		return nil
	}
	start := len(s.LikedOrder) - n
	if start < 0 {
		start = 0
	}
	out := make([]int64, len(s.LikedOrder[start:]))
	copy(out, s.LikedOrder[start:])
	return out
}

// DislikedMovies returns the disliked snapshots.
func (s *State) DislikedMovies() []tmdb.Movie {
	out := make([]tmdb.Movie, 0, len(s.Disliked))
	for _, m := range s.Disliked {
		out = append(out, m)
	}
	return out
}
