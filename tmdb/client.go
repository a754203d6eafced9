package tmdb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the TMDB v3 API root
	DefaultBaseURL = "https://api.themoviedb.org/3"
	// DefaultApprovalURL is where users approve a request token
	DefaultApprovalURL = "https://www.themoviedb.org/authenticate"
	// DefaultTimeout bounds every request; there are no retries
	DefaultTimeout = 15 * time.Second
)

// Client represents a TMDB API client
type Client struct {
	baseURL     string
	approvalURL string
	apiKey      string
	httpClient  *http.Client
	limiter     *rate.Limiter
	logger      zerolog.Logger
}

// NewClient creates a new TMDB client
func NewClient(apiKey string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: TMDB API key is required", ErrValidation)
	}

	client := &Client{
		baseURL:     DefaultBaseURL,
		approvalURL: DefaultApprovalURL,
		apiKey:      apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		// TMDB tolerates roughly 40 requests per 10 seconds per key
		limiter: rate.NewLimiter(rate.Every(250*time.Millisecond), 40),
		logger:  logger.With().Str("component", "tmdb").Logger(),
	}

	for _, opt := range opts {
		opt(client)
	}

	client.baseURL = strings.TrimRight(client.baseURL, "/")
	client.approvalURL = strings.TrimRight(client.approvalURL, "/")

	return client, nil
}

// Fetch performs the GET request identified by key and returns the raw
// response body. It is the network half of the query cache.
func (c *Client) Fetch(ctx context.Context, key Key) ([]byte, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	return c.doRequest(ctx, http.MethodGet, key.Path(c.apiKey), nil)
}

// doRequest performs an HTTP request against the API base. path is relative
// and already carries its query string.
func (c *Client) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %w", ErrNetwork, err)
		}
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	reqURL := c.baseURL + "/" + path
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json;charset=utf-8")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// *url.Error embeds the full URL, api_key included
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("%w: %s %s: %w", ErrNetwork, method, redact(path), err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %w", ErrNetwork, err)
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", redact(path)).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("TMDB request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var status statusResponse
		if json.Unmarshal(respBody, &status) == nil {
			apiErr.Code = status.StatusCode
			apiErr.Message = status.StatusMessage
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return nil, apiErr
	}

	return respBody, nil
}

// getJSON fetches key and decodes the body into T
func getJSON[T any](ctx context.Context, c *Client, key Key) (*T, error) {
	body, err := c.Fetch(ctx, key)
	if err != nil {
		return nil, err
	}
	return Decode[T](body)
}

// Decode unmarshals a response body fetched for a Key
func Decode[T any](body []byte) (*T, error) {
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %w", ErrNetwork, err)
	}
	return &v, nil
}

// redact strips credentials from a path before it is logged or wrapped into errors
func redact(path string) string {
	i := strings.IndexByte(path, '?')
	if i < 0 {
		return path
	}
	return path[:i]
}
