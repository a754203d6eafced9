package query

import (
	"context"

	"github.com/s0up4200/filmpire/tmdb"
)

// Genres returns the movie genre list
func (c *Client) Genres(ctx context.Context) ([]tmdb.Genre, error) {
	list, err := Get[tmdb.GenreList](ctx, c, tmdb.GenresKey())
	if err != nil {
		return nil, err
	}
	return list.Genres, nil
}

// Movies returns one page of movies for a descriptor
func (c *Client) Movies(ctx context.Context, d tmdb.Descriptor, page int) (*tmdb.MoviePage, error) {
	return Get[tmdb.MoviePage](ctx, c, tmdb.MoviesKey(d, page))
}

// Person returns a person's profile
func (c *Client) Person(ctx context.Context, personID int64) (*tmdb.Person, error) {
	return Get[tmdb.Person](ctx, c, tmdb.PersonKey(personID))
}

// PersonMovies returns one page of movies featuring a person
func (c *Client) PersonMovies(ctx context.Context, personID int64, page int) (*tmdb.MoviePage, error) {
	return Get[tmdb.MoviePage](ctx, c, tmdb.PersonMoviesKey(personID, page))
}

// Movie returns movie details with videos and credits
func (c *Client) Movie(ctx context.Context, movieID int64) (*tmdb.MovieDetails, error) {
	return Get[tmdb.MovieDetails](ctx, c, tmdb.MovieKey(movieID))
}

// Recommendations returns movies recommended for a movie
func (c *Client) Recommendations(ctx context.Context, movieID int64) (*tmdb.MoviePage, error) {
	return Get[tmdb.MoviePage](ctx, c, tmdb.RecommendationsKey(movieID))
}

// List returns one page of an account list
func (c *Client) List(ctx context.Context, list tmdb.ListName, accountID int64, sessionID string, page int) (*tmdb.MoviePage, error) {
	return Get[tmdb.MoviePage](ctx, c, tmdb.ListKey(list, accountID, sessionID, page))
}
