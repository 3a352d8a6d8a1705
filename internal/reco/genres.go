package reco

import (
	"sort"

	"github.com/msflix/reco-engine/internal/tmdb"
)

// moodBoosts maps each mood to per-genre score boosts. MoodPick applies no
// boost. These are contextual mappings layered on top of long-term taste.
var moodBoosts = map[tmdb.Mood]map[int]int{
	tmdb.MoodChill: {
		tmdb.GenreComedy:  5,
		tmdb.GenreFamily:  4,
		tmdb.GenreRomance: 2,
		tmdb.GenreDrama:   1,
	},
	tmdb.MoodHype: {
		tmdb.GenreAction:    6,
		tmdb.GenreAdventure: 5,
		tmdb.GenreThriller:  2,
	},
	tmdb.MoodMind: {
		tmdb.GenreSciFi:    6,
		tmdb.GenreMystery:  5,
		tmdb.GenreThriller: 4,
		tmdb.GenreCrime:    2,
	},
	tmdb.MoodEmotional: {
		tmdb.GenreDrama:   6,
		tmdb.GenreRomance: 2,
		tmdb.GenreHistory: 2,
	},
	// MoodHorror shapes the pool (see MoodPoolGenres) but carries no scoring
	// boost; the horror discover lists are already genre-pure.
}

// MoodBoost returns the boost mood gives to a genre, 0 if none.
func MoodBoost(mood tmdb.Mood, genreID int) int {
	return moodBoosts[mood][genreID]
}

// MoodPoolGenres returns the genres a mood pulls into the candidate pool.
func MoodPoolGenres(mood tmdb.Mood) []int {
	switch mood {
	case tmdb.MoodHype:
		return []int{tmdb.GenreAction, tmdb.GenreAdventure, tmdb.GenreThriller}
	case tmdb.MoodMind:
		return []int{tmdb.GenreSciFi, tmdb.GenreMystery, tmdb.GenreThriller}
	case tmdb.MoodChill:
		return []int{tmdb.GenreComedy, tmdb.GenreFamily, tmdb.GenreRomance}
	case tmdb.MoodEmotional:
		return []int{tmdb.GenreDrama, tmdb.GenreRomance}
	case tmdb.MoodHorror:
		return []int{tmdb.GenreHorror, tmdb.GenreThriller, tmdb.GenreMystery}
	default:
		return nil
	}
}

// TopGenres returns the n highest-weighted genres in profile, weight
// descending with ties broken by ascending genre ID so the order is stable.
func TopGenres(profile *TasteProfile, n int) []int {
	type entry struct {
		genreID int
		weight  int
	}
	entries := make([]entry, 0, len(profile.GenreWeights))
	for g, w := range profile.GenreWeights {
		entries = append(entries, entry{genreID: g, weight: w})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].weight != entries[j].weight {
			return entries[i].weight > entries[j].weight
		}
		return entries[i].genreID < entries[j].genreID
	})

	if n > len(entries) {
		n = len(entries)
	}
	out := make([]int, 0, n)
	for _, e := range entries[:n] {
		out = append(out, e.genreID)
	}
	return out
}
