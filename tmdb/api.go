package tmdb

import (
	"context"
)

// Fetcher performs the network read behind a cache key
type Fetcher interface {
	Fetch(ctx context.Context, key Key) ([]byte, error)
}

// Catalog defines typed, uncached catalog reads
type Catalog interface {
	GetGenres(ctx context.Context) ([]Genre, error)
	GetMovies(ctx context.Context, d Descriptor, page int) (*MoviePage, error)
	GetPerson(ctx context.Context, personID int64) (*Person, error)
	GetMoviesByPerson(ctx context.Context, personID int64, page int) (*MoviePage, error)
	GetMovie(ctx context.Context, movieID int64) (*MovieDetails, error)
	GetRecommendations(ctx context.Context, movieID int64) (*MoviePage, error)
	GetList(ctx context.Context, list ListName, accountID int64, sessionID string, page int) (*MoviePage, error)
}

// Authenticator defines the request-token/session handshake
type Authenticator interface {
	// NewRequestToken asks TMDB for an unapproved request token
	NewRequestToken(ctx context.Context) (*RequestToken, error)

	// ApprovalURL is the page where the user approves token
	ApprovalURL(token, redirectTo string) string

	// NewSession exchanges an approved token for a session id
	NewSession(ctx context.Context, requestToken string) (string, error)

	// GetAccount resolves the account behind a session id
	GetAccount(ctx context.Context, sessionID string) (*Account, error)

	// DeleteSession revokes a session id upstream
	DeleteSession(ctx context.Context, sessionID string) error
}

// ListWriter posts favorite/watchlist membership changes
type ListWriter interface {
	SetListMembership(ctx context.Context, accountID int64, sessionID string, list ListMutation, mediaID int64, member bool) error
}

var (
	_ Fetcher       = (*Client)(nil)
	_ Catalog       = (*Client)(nil)
	_ Authenticator = (*Client)(nil)
	_ ListWriter    = (*Client)(nil)
)
