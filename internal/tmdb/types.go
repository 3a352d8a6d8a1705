package tmdb

// Movie is a catalog movie record. Immutable once fetched; records with the
// same ID coming from different endpoints are the same entity.
type Movie struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
	ReleaseDate  string  `json:"release_date"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	GenreIDs     []int   `json:"genre_ids"`
	Overview     string  `json:"overview"`
	Popularity   float64 `json:"popularity"`
}

// TMDB genre IDs for movies.
const (
	GenreAction      = 28
	GenreAdventure   = 12
	GenreAnimation   = 16
	GenreComedy      = 35
	GenreCrime       = 80
	GenreDocumentary = 99
	GenreDrama       = 18
	GenreFamily      = 10751
	GenreFantasy     = 14
	GenreHistory     = 36
	GenreHorror      = 27
	GenreMusic       = 10402
	GenreMystery     = 9648
	GenreRomance     = 10749
	GenreSciFi       = 878
	GenreTVMovie     = 10770
	GenreThriller    = 53
	GenreWar         = 10752
	GenreWestern     = 37
)

// Mood is a contextual tag biasing discovery and scoring independent of
// long-term taste.
type Mood string

// Known moods. MoodPick is the default and applies no bias.
const (
	MoodPick      Mood = "pick"
	MoodChill     Mood = "chill"
	MoodHype      Mood = "hype"
	MoodMind      Mood = "mind"
	MoodEmotional Mood = "emotional"
	MoodHorror    Mood = "horror"
)

// ParseMood maps a request string to a known mood, defaulting to MoodPick.
func ParseMood(s string) Mood {
	switch Mood(s) {
	case MoodChill, MoodHype, MoodMind, MoodEmotional, MoodHorror:
		return Mood(s)
	default:
		return MoodPick
	}
}

// listResponse is the common paged list shape returned by TMDB.
type listResponse struct {
	Page    int     `json:"page"`
	Results []Movie `json:"results"`
}

// keywordsResponse is the response of /movie/{id}/keywords.
type keywordsResponse struct {
	ID       int64 `json:"id"`
	Keywords []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"keywords"`
}

// apiError is TMDB's error envelope.
type apiError struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}
