package tmdb

import (
	"strconv"
	"time"
)

// MediaTypeMovie is the only media type list mutations are issued for
const MediaTypeMovie = "movie"

// Movie is a catalog entry as returned by list and discover endpoints
type Movie struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title"`
	OriginalLanguage string  `json:"original_language"`
	Overview         string  `json:"overview"`
	ReleaseDate      string  `json:"release_date"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
	GenreIDs         []int   `json:"genre_ids"`
	Adult            bool    `json:"adult"`
	Video            bool    `json:"video"`
	Popularity       float64 `json:"popularity"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
}

// Released parses ReleaseDate; zero time if absent or malformed
func (m Movie) Released() time.Time {
	t, err := time.Parse("2006-01-02", m.ReleaseDate)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Year returns the release year or 0
func (m Movie) Year() int {
	if len(m.ReleaseDate) < 4 {
		return 0
	}
	y, err := strconv.Atoi(m.ReleaseDate[:4])
	if err != nil {
		return 0
	}
	return y
}

// HasGenre reports whether the movie is tagged with the genre id
func (m Movie) HasGenre(id int) bool {
	for _, g := range m.GenreIDs {
		if g == id {
			return true
		}
	}
	return false
}

// MoviePage is one page of a paginated movie listing
type MoviePage struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// HasMorePages checks if there are more pages after this one
func (p *MoviePage) HasMorePages() bool {
	return p.Page < p.TotalPages
}

// Contains reports whether the page lists the movie id
func (p *MoviePage) Contains(movieID int64) bool {
	for _, m := range p.Results {
		if m.ID == movieID {
			return true
		}
	}
	return false
}

// Genre is a TMDB movie genre
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// GenreList is the response of genre/movie/list
type GenreList struct {
	Genres []Genre `json:"genres"`
}

// Person is an actor detail record
type Person struct {
	ID                 int64    `json:"id"`
	Name               string   `json:"name"`
	Biography          string   `json:"biography"`
	Birthday           string   `json:"birthday"`
	Deathday           string   `json:"deathday"`
	PlaceOfBirth       string   `json:"place_of_birth"`
	ProfilePath        string   `json:"profile_path"`
	KnownForDepartment string   `json:"known_for_department"`
	IMDbID             string   `json:"imdb_id"`
	AlsoKnownAs        []string `json:"also_known_as"`
	Popularity         float64  `json:"popularity"`
}

// MovieDetails is the response of movie/{id} with videos and credits appended
type MovieDetails struct {
	ID               int64   `json:"id"`
	IMDbID           string  `json:"imdb_id"`
	Title            string  `json:"title"`
	Tagline          string  `json:"tagline"`
	Overview         string  `json:"overview"`
	ReleaseDate      string  `json:"release_date"`
	Runtime          int     `json:"runtime"`
	Status           string  `json:"status"`
	Homepage         string  `json:"homepage"`
	OriginalLanguage string  `json:"original_language"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
	Genres           []Genre `json:"genres"`
	Popularity       float64 `json:"popularity"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	SpokenLanguages  []struct {
		ISO6391     string `json:"iso_639_1"`
		EnglishName string `json:"english_name"`
	} `json:"spoken_languages"`
	Videos  VideoList `json:"videos"`
	Credits Credits   `json:"credits"`
}

// Year returns the release year or 0
func (d *MovieDetails) Year() int {
	return Movie{ReleaseDate: d.ReleaseDate}.Year()
}

// Trailer returns the first YouTube trailer, if any
func (d *MovieDetails) Trailer() (Video, bool) {
	for _, v := range d.Videos.Results {
		if v.Site == "YouTube" && v.Type == "Trailer" {
			return v, true
		}
	}
	if len(d.Videos.Results) > 0 {
		return d.Videos.Results[0], true
	}
	return Video{}, false
}

// VideoList wraps appended videos
type VideoList struct {
	Results []Video `json:"results"`
}

// Video is a trailer, teaser or clip
type Video struct {
	ID       string `json:"id"`
	Key      string `json:"key"`
	Name     string `json:"name"`
	Site     string `json:"site"`
	Type     string `json:"type"`
	Official bool   `json:"official"`
}

// Credits wraps appended cast and crew
type Credits struct {
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// CastMember is one billed actor
type CastMember struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path"`
	Order       int    `json:"order"`
}

// CrewMember is one crew credit
type CrewMember struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Job        string `json:"job"`
	Department string `json:"department"`
}

// Account is the user profile resolved from a session id
type Account struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Name         string `json:"name"`
	IncludeAdult bool   `json:"include_adult"`
	ISO6391      string `json:"iso_639_1"`
	ISO31661     string `json:"iso_3166_1"`
	Avatar       struct {
		Gravatar struct {
			Hash string `json:"hash"`
		} `json:"gravatar"`
		TMDB struct {
			AvatarPath string `json:"avatar_path"`
		} `json:"tmdb"`
	} `json:"avatar"`
}

// GetDisplayName returns the best available name for the account
func (a *Account) GetDisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.Username
}

// RequestToken is the response of authentication/token/new
type RequestToken struct {
	Success   bool   `json:"success"`
	ExpiresAt string `json:"expires_at"`
	Token     string `json:"request_token"`
}

type sessionResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id"`
}

// statusResponse is TMDB's generic write acknowledgment and error body
type statusResponse struct {
	Success       *bool  `json:"success,omitempty"`
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

// ListMembership is the body of a favorite/watchlist POST. Exactly one of
// Favorite and Watchlist is set.
type ListMembership struct {
	MediaType string `json:"media_type"`
	MediaID   int64  `json:"media_id"`
	Favorite  *bool  `json:"favorite,omitempty"`
	Watchlist *bool  `json:"watchlist,omitempty"`
}
