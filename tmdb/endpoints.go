package tmdb

import (
	"context"
	"fmt"
)

// GetGenres retrieves the movie genre list
func (c *Client) GetGenres(ctx context.Context) ([]Genre, error) {
	list, err := getJSON[GenreList](ctx, c, GenresKey())
	if err != nil {
		return nil, fmt.Errorf("failed to get genres: %w", err)
	}
	return list.Genres, nil
}

// GetMovies retrieves one page of a catalog listing
func (c *Client) GetMovies(ctx context.Context, d Descriptor, page int) (*MoviePage, error) {
	p, err := getJSON[MoviePage](ctx, c, MoviesKey(d, page))
	if err != nil {
		return nil, fmt.Errorf("failed to get movies (%s): %w", d, err)
	}

	c.logger.Debug().
		Str("descriptor", d.String()).
		Int("page", p.Page).
		Int("count", len(p.Results)).
		Msg("Retrieved movies from TMDB")
	return p, nil
}

// GetPerson retrieves an actor's details
func (c *Client) GetPerson(ctx context.Context, personID int64) (*Person, error) {
	p, err := getJSON[Person](ctx, c, PersonKey(personID))
	if err != nil {
		return nil, fmt.Errorf("failed to get person %d: %w", personID, err)
	}
	return p, nil
}

// GetMoviesByPerson retrieves one page of movies featuring an actor
func (c *Client) GetMoviesByPerson(ctx context.Context, personID int64, page int) (*MoviePage, error) {
	p, err := getJSON[MoviePage](ctx, c, PersonMoviesKey(personID, page))
	if err != nil {
		return nil, fmt.Errorf("failed to get movies for person %d: %w", personID, err)
	}
	return p, nil
}

// GetMovie retrieves a movie with its videos and credits
func (c *Client) GetMovie(ctx context.Context, movieID int64) (*MovieDetails, error) {
	m, err := getJSON[MovieDetails](ctx, c, MovieKey(movieID))
	if err != nil {
		return nil, fmt.Errorf("failed to get movie %d: %w", movieID, err)
	}
	return m, nil
}

// GetRecommendations retrieves recommendations for a movie
func (c *Client) GetRecommendations(ctx context.Context, movieID int64) (*MoviePage, error) {
	p, err := getJSON[MoviePage](ctx, c, RecommendationsKey(movieID))
	if err != nil {
		return nil, fmt.Errorf("failed to get recommendations for movie %d: %w", movieID, err)
	}
	return p, nil
}

// GetList retrieves one page of an account's favorite or watchlist movies
func (c *Client) GetList(ctx context.Context, list ListName, accountID int64, sessionID string, page int) (*MoviePage, error) {
	p, err := getJSON[MoviePage](ctx, c, ListKey(list, accountID, sessionID, page))
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", list, err)
	}
	return p, nil
}
