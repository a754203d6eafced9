package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// NewRequestToken asks TMDB for a fresh, unapproved request token
func (c *Client) NewRequestToken(ctx context.Context) (*RequestToken, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "authentication/token/new?api_key="+url.QueryEscape(c.apiKey), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to request token: %w", authError(err))
	}

	token, err := Decode[RequestToken](body)
	if err != nil {
		return nil, err
	}
	if !token.Success || token.Token == "" {
		return nil, fmt.Errorf("%w: token request was not successful", ErrAuth)
	}

	c.logger.Debug().Str("expires_at", token.ExpiresAt).Msg("Request token issued")
	return token, nil
}

// ApprovalURL returns the page where the user approves token. When
// redirectTo is set, TMDB sends the browser back there afterwards.
func (c *Client) ApprovalURL(token, redirectTo string) string {
	u := fmt.Sprintf("%s/%s", c.approvalURL, url.PathEscape(token))
	if redirectTo != "" {
		u += "?redirect_to=" + url.QueryEscape(redirectTo)
	}
	return u
}

// NewSession exchanges an approved request token for a session id
func (c *Client) NewSession(ctx context.Context, requestToken string) (string, error) {
	if requestToken == "" {
		return "", fmt.Errorf("%w: request token is required", ErrValidation)
	}

	payload := map[string]string{"request_token": requestToken}
	body, err := c.doRequest(ctx, http.MethodPost, "authentication/session/new?api_key="+url.QueryEscape(c.apiKey), payload)
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", authError(err))
	}

	resp, err := Decode[sessionResponse](body)
	if err != nil {
		return "", err
	}
	if !resp.Success || resp.SessionID == "" {
		return "", fmt.Errorf("%w: session exchange was rejected", ErrAuth)
	}

	c.logger.Info().Msg("Session established")
	return resp.SessionID, nil
}

// GetAccount resolves the account profile behind a session id
func (c *Client) GetAccount(ctx context.Context, sessionID string) (*Account, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrValidation)
	}

	path := fmt.Sprintf("account?session_id=%s&api_key=%s", url.QueryEscape(sessionID), url.QueryEscape(c.apiKey))
	body, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return Decode[Account](body)
}

// DeleteSession revokes a session id upstream
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	payload := map[string]string{"session_id": sessionID}
	if _, err := c.doRequest(ctx, http.MethodDelete, "authentication/session?api_key="+url.QueryEscape(c.apiKey), payload); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// authError reclassifies rejections during the handshake. TMDB answers an
// unapproved or expired token with 401, but also with 404 for unknown tokens.
func authError(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.IsNotFound() {
		return fmt.Errorf("%w: %w", ErrAuth, err)
	}
	return err
}
