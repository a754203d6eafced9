package query

import "github.com/rs/zerolog"

// Option configures a Client
type Option func(*Client)

// WithLogger sets the logger used for cache diagnostics
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger.With().Str("component", "query").Logger()
	}
}

// WithObserver registers fn to receive every entry state transition.
// fn runs synchronously and must not call back into the Client.
func WithObserver(fn func(Result)) Option {
	return func(c *Client) {
		c.observer = fn
	}
}

// WithRetainUnused keeps up to n released entries so a later subscriber
// for the same key is served without a refetch. Zero disables retention.
func WithRetainUnused(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retainSize = n
		}
	}
}
