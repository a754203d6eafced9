// Package query caches TMDB reads by request identity.
//
// Every read is named by a tmdb.Key. Consumers Subscribe to a key and Release
// it when done; an entry is dropped once its last subscriber is gone, unless
// WithRetainUnused parks it. Concurrent fetches of the same key share one
// network call. Failed fetches are not retried.
//
// Writes elsewhere call Invalidate with the keys they affect; subscribed
// entries are refetched so consumers see the new state.
package query
