package tmdb

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// ListMutation names an account list that accepts membership writes
type ListMutation string

const (
	MutateFavorite  ListMutation = "favorite"
	MutateWatchlist ListMutation = "watchlist"
)

// Validate checks that m is a known list
func (m ListMutation) Validate() error {
	if err := validate.Var(string(m), "oneof=favorite watchlist"); err != nil {
		return validationError("unknown list mutation %q", m)
	}
	return nil
}

// SetListMembership adds the movie to, or removes it from, the account's
// favorite or watchlist list
func (c *Client) SetListMembership(ctx context.Context, accountID int64, sessionID string, list ListMutation, mediaID int64, member bool) error {
	if err := list.Validate(); err != nil {
		return err
	}

	body := ListMembership{MediaType: MediaTypeMovie, MediaID: mediaID}
	switch list {
	case MutateFavorite:
		body.Favorite = &member
	case MutateWatchlist:
		body.Watchlist = &member
	}

	path := fmt.Sprintf("account/%d/%s?api_key=%s&session_id=%s",
		accountID, list, url.QueryEscape(c.apiKey), url.QueryEscape(sessionID))
	if _, err := c.doRequest(ctx, http.MethodPost, path, body); err != nil {
		return fmt.Errorf("failed to update %s for movie %d: %w", list, mediaID, err)
	}

	c.logger.Info().
		Str("list", string(list)).
		Int64("media_id", mediaID).
		Bool("member", member).
		Msg("Updated list membership")
	return nil
}
