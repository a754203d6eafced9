// Package tmdb provides a client for the TMDB (The Movie Database) v3 API.
//
// The package covers the slice of the API a movie discovery client needs:
// catalog listings, movie and actor details, recommendations, account lists,
// and the request-token/session handshake.
//
// # Keys and descriptors
//
// Every cacheable read is identified by a Key. Catalog listings are selected
// with a tagged Descriptor:
//
//	tmdb.ByCategory("top_rated").Key(2).Path(apiKey) // movie/top_rated?page=2&api_key=...
//	tmdb.ByGenre(28).Key(1).Path(apiKey)             // discover/movie?with_genres=28&page=1&api_key=...
//	tmdb.Default().Key(0).Path(apiKey)               // movie/popular?page=1&api_key=...
//
// Key.String is the cache identity used by the query package.
//
// # Usage
//
//	logger := zerolog.New(os.Stdout)
//	client, err := tmdb.NewClient(
//		"your-api-key",
//		logger,
//		tmdb.WithTimeout(15*time.Second),
//		tmdb.WithRateLimit(4, 40),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	page, err := client.GetMovies(ctx, tmdb.ByCategory(tmdb.CategoryUpcoming), 1)
//
// Requests are never retried. Each one is bounded by the client timeout and
// passes through a token-bucket limiter.
//
// # Error Handling
//
// Every error wraps one of ErrNetwork, ErrAuth, ErrNotFound or ErrValidation:
//
//	if errors.Is(err, tmdb.ErrNotFound) {
//		// entity absent upstream
//	}
//
// Non-2xx responses are returned as *APIError, which carries the HTTP status
// and TMDB's status_message.
package tmdb
