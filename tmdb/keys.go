package tmdb

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"
)

//nolint:gochecknoglobals // validator caches struct metadata and is safe for concurrent use
var validate = validator.New()

// MaxPage is the highest page TMDB serves for paginated listings
const MaxPage = 500

// Kind identifies the endpoint family of a Key
type Kind string

const (
	KindGenres          Kind = "genres"
	KindMovies          Kind = "movies"
	KindPerson          Kind = "person"
	KindPersonMovies    Kind = "person_movies"
	KindMovie           Kind = "movie"
	KindRecommendations Kind = "recommendations"
	KindList            Kind = "list"
)

// ListName names an account list endpoint
type ListName string

const (
	ListFavorites ListName = "favorite/movies"
	ListWatchlist ListName = "watchlist/movies"
)

// Key uniquely identifies a cacheable read. Keys with equal fields share a
// cache entry.
type Key struct {
	Kind       Kind
	Descriptor Descriptor
	PersonID   int64
	MovieID    int64
	ListName   ListName
	AccountID  int64
	SessionID  string
	Page       int
}

// GenresKey identifies the genre list
func GenresKey() Key {
	return Key{Kind: KindGenres}
}

// MoviesKey identifies one page of a catalog listing
func MoviesKey(d Descriptor, page int) Key {
	return d.Key(page)
}

// PersonKey identifies an actor's detail record
func PersonKey(personID int64) Key {
	return Key{Kind: KindPerson, PersonID: personID}
}

// PersonMoviesKey identifies one page of movies featuring an actor
func PersonMoviesKey(personID int64, page int) Key {
	return Key{Kind: KindPersonMovies, PersonID: personID, Page: normalizePage(page)}
}

// MovieKey identifies a movie's detail record
func MovieKey(movieID int64) Key {
	return Key{Kind: KindMovie, MovieID: movieID}
}

// RecommendationsKey identifies a movie's recommendations
func RecommendationsKey(movieID int64) Key {
	return Key{Kind: KindRecommendations, MovieID: movieID}
}

// ListKey identifies one page of an account list
func ListKey(list ListName, accountID int64, sessionID string, page int) Key {
	return Key{
		Kind:      KindList,
		ListName:  list,
		AccountID: accountID,
		SessionID: sessionID,
		Page:      normalizePage(page),
	}
}

// IsList reports whether k is any page of list for the given account and session
func (k Key) IsList(list ListName, accountID int64, sessionID string) bool {
	return k.Kind == KindList && k.ListName == list && k.AccountID == accountID && k.SessionID == sessionID
}

// String returns the canonical cache identity of the key
func (k Key) String() string {
	switch k.Kind {
	case KindGenres:
		return string(k.Kind)
	case KindMovies:
		return fmt.Sprintf("%s:%s:%d", k.Kind, k.Descriptor, k.Page)
	case KindPerson:
		return fmt.Sprintf("%s:%d", k.Kind, k.PersonID)
	case KindPersonMovies:
		return fmt.Sprintf("%s:%d:%d", k.Kind, k.PersonID, k.Page)
	case KindMovie, KindRecommendations:
		return fmt.Sprintf("%s:%d", k.Kind, k.MovieID)
	case KindList:
		return fmt.Sprintf("%s:%s:%d:%s:%d", k.Kind, k.ListName, k.AccountID, k.SessionID, k.Page)
	default:
		return fmt.Sprintf("unknown:%s", k.Kind)
	}
}

// Validate checks that the key can be turned into a request
func (k Key) Validate() error {
	switch k.Kind {
	case KindGenres:
		return nil
	case KindMovies:
		if err := k.Descriptor.Validate(); err != nil {
			return err
		}
		return validatePage(k.Page)
	case KindPerson:
		return validateID("person id", k.PersonID)
	case KindPersonMovies:
		if err := validateID("person id", k.PersonID); err != nil {
			return err
		}
		return validatePage(k.Page)
	case KindMovie, KindRecommendations:
		return validateID("movie id", k.MovieID)
	case KindList:
		if err := validate.Var(string(k.ListName), "oneof=favorite/movies watchlist/movies"); err != nil {
			return validationError("unknown list %q", k.ListName)
		}
		if err := validateID("account id", k.AccountID); err != nil {
			return err
		}
		if err := validate.Var(k.SessionID, "required"); err != nil {
			return validationError("session id is required")
		}
		return validatePage(k.Page)
	default:
		return validationError("unknown key kind %q", k.Kind)
	}
}

// Path builds the endpoint path, relative to the API base, for the key.
// Parameter order matches TMDB's documented examples.
func (k Key) Path(apiKey string) string {
	key := url.QueryEscape(apiKey)
	switch k.Kind {
	case KindGenres:
		return "genre/movie/list?api_key=" + key
	case KindMovies:
		page := strconv.Itoa(k.Page)
		switch k.Descriptor.kind {
		case DescriptorCategory:
			return fmt.Sprintf("movie/%s?page=%s&api_key=%s", url.PathEscape(k.Descriptor.category), page, key)
		case DescriptorGenre:
			return fmt.Sprintf("discover/movie?with_genres=%d&page=%s&api_key=%s", k.Descriptor.genreID, page, key)
		case DescriptorQuery:
			return fmt.Sprintf("search/movie?query=%s&page=%s&api_key=%s", url.QueryEscape(k.Descriptor.query), page, key)
		default:
			return fmt.Sprintf("movie/popular?page=%s&api_key=%s", page, key)
		}
	case KindPerson:
		return fmt.Sprintf("person/%d?api_key=%s", k.PersonID, key)
	case KindPersonMovies:
		return fmt.Sprintf("discover/movie?with_cast=%d&page=%d&api_key=%s", k.PersonID, k.Page, key)
	case KindMovie:
		return fmt.Sprintf("movie/%d?api_key=%s&append_to_response=videos,credits", k.MovieID, key)
	case KindRecommendations:
		return fmt.Sprintf("movie/%d/recommendations?api_key=%s", k.MovieID, key)
	case KindList:
		return fmt.Sprintf("account/%d/%s?session_id=%s&page=%d&api_key=%s",
			k.AccountID, k.ListName, url.QueryEscape(k.SessionID), k.Page, key)
	default:
		return ""
	}
}

func normalizePage(page int) int {
	if page == 0 {
		return 1
	}
	return page
}

func validatePage(page int) error {
	if err := validate.Var(page, "min=1,max=500"); err != nil {
		return validationError("page must be between 1 and %d, got %d", MaxPage, page)
	}
	return nil
}

func validateID(name string, id int64) error {
	if err := validate.Var(id, "gt=0"); err != nil {
		return validationError("%s must be positive, got %d", name, id)
	}
	return nil
}
