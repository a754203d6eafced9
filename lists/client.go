package lists

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/s0up4200/filmpire/query"
	"github.com/s0up4200/filmpire/session"
	"github.com/s0up4200/filmpire/tmdb"
)

// Dependencies lists, per writable list, the cached lists a successful
// write makes stale
var Dependencies = map[tmdb.ListMutation][]tmdb.ListName{
	tmdb.MutateFavorite:  {tmdb.ListFavorites},
	tmdb.MutateWatchlist: {tmdb.ListWatchlist},
}

// SessionSource provides the signed-in session
type SessionSource interface {
	Session() (session.Session, bool)
}

type toggleRequest struct {
	Kind      string `validate:"oneof=favorite watchlist"`
	MediaID   int64  `validate:"gt=0"`
	AccountID int64  `validate:"gt=0"`
	SessionID string `validate:"required"`
}

// Client writes favorite/watchlist membership and keeps cached lists in step
type Client struct {
	writer   tmdb.ListWriter
	cache    *query.Client
	sessions SessionSource
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewClient creates a list mutation client
func NewClient(writer tmdb.ListWriter, cache *query.Client, sessions SessionSource, logger zerolog.Logger) *Client {
	return &Client{
		writer:   writer,
		cache:    cache,
		sessions: sessions,
		validate: validator.New(),
		logger:   logger.With().Str("component", "lists").Logger(),
	}
}

// Toggle sets the movie's membership in kind to desired. Dependent cached
// lists are invalidated only after TMDB acknowledges the write; on failure
// nothing is invalidated and the caller should revert any optimistic state.
func (c *Client) Toggle(ctx context.Context, kind tmdb.ListMutation, mediaID int64, desired bool) error {
	s, err := c.session()
	if err != nil {
		return err
	}

	req := toggleRequest{
		Kind:      string(kind),
		MediaID:   mediaID,
		AccountID: s.AccountID,
		SessionID: s.ID,
	}
	if err := c.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", tmdb.ErrValidation, err)
	}

	if err := c.writer.SetListMembership(ctx, s.AccountID, s.ID, kind, mediaID, desired); err != nil {
		return err
	}

	for _, list := range Dependencies[kind] {
		err := c.cache.InvalidateMatching(ctx, func(k tmdb.Key) bool {
			return k.IsList(list, s.AccountID, s.ID)
		})
		if err != nil {
			// the write itself succeeded; stale pages recover on the next fetch
			c.logger.Warn().Err(err).Str("list", string(list)).Msg("Failed to refresh list after update")
		}
	}
	return nil
}

// Page returns one page of the signed-in account's list
func (c *Client) Page(ctx context.Context, list tmdb.ListName, page int) (*tmdb.MoviePage, error) {
	s, err := c.session()
	if err != nil {
		return nil, err
	}
	return c.cache.List(ctx, list, s.AccountID, s.ID, page)
}

// IsMember reports whether the movie is currently in the list written by kind
func (c *Client) IsMember(ctx context.Context, kind tmdb.ListMutation, movieID int64) (bool, error) {
	if err := kind.Validate(); err != nil {
		return false, err
	}

	for _, list := range Dependencies[kind] {
		for page := 1; page <= tmdb.MaxPage; page++ {
			p, err := c.Page(ctx, list, page)
			if err != nil {
				return false, err
			}
			if p.Contains(movieID) {
				return true, nil
			}
			if !p.HasMorePages() {
				break
			}
		}
	}
	return false, nil
}

func (c *Client) session() (session.Session, error) {
	s, ok := c.sessions.Session()
	if !ok {
		return session.Session{}, fmt.Errorf("%w: not signed in", tmdb.ErrAuth)
	}
	return s, nil
}
