package query

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/s0up4200/filmpire/tmdb"
)

// Client caches TMDB reads keyed by tmdb.Key. Entries live as long as they
// have subscribers; identical in-flight fetches are collapsed into one.
type Client struct {
	fetcher  tmdb.Fetcher
	logger   zerolog.Logger
	observer func(Result)

	retainSize int
	// retained parks released entries until capacity pushes them out
	retained *lru.Cache[tmdb.Key, *entry]

	mu      sync.Mutex
	entries map[tmdb.Key]*entry
	// flights numbers fetches client-wide; an entry joins only its own
	flights uint64
	group   singleflight.Group
}

// ErrReleased is returned when fetching through a released subscription
var ErrReleased = errors.New("query: subscription released")

// New creates a query client backed by fetcher
func New(fetcher tmdb.Fetcher, opts ...Option) (*Client, error) {
	c := &Client{
		fetcher: fetcher,
		logger:  zerolog.Nop(),
		entries: make(map[tmdb.Key]*entry),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.retainSize > 0 {
		retained, err := lru.New[tmdb.Key, *entry](c.retainSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create retained entry cache: %w", err)
		}
		c.retained = retained
	}

	return c, nil
}

// Subscription holds a reference on one cache entry. Release it when the
// consumer goes away.
type Subscription struct {
	client   *Client
	key      tmdb.Key
	once     sync.Once
	released atomic.Bool
}

// Subscribe registers a consumer for key, creating the entry if needed.
// Subscribing does not fetch.
func (c *Client) Subscribe(key tmdb.Key) *Subscription {
	c.mu.Lock()
	e := c.lookupLocked(key)
	if e == nil {
		e = &entry{key: key}
		c.entries[key] = e
	}
	e.subscribers++
	c.mu.Unlock()

	return &Subscription{client: c, key: key}
}

// Key returns the subscribed key
func (s *Subscription) Key() tmdb.Key { return s.key }

// Fetch returns cached data, or waits for the (possibly shared) fetch
func (s *Subscription) Fetch(ctx context.Context) ([]byte, error) {
	if s.released.Load() {
		return nil, ErrReleased
	}
	return s.client.load(ctx, s.key, false)
}

// Refetch ignores cached data and fetches again. It joins a fetch that is
// already in flight for the key.
func (s *Subscription) Refetch(ctx context.Context) ([]byte, error) {
	if s.released.Load() {
		return nil, ErrReleased
	}
	return s.client.load(ctx, s.key, true)
}

// Snapshot returns the entry's current state without fetching
func (s *Subscription) Snapshot() Result {
	r, _ := s.client.Snapshot(s.key)
	return r
}

// Release drops the subscription. Safe to call more than once.
func (s *Subscription) Release() {
	s.once.Do(func() {
		s.released.Store(true)
		s.client.release(s.key)
	})
}

// Query resolves key once: from cache when present, else from the network
func (c *Client) Query(ctx context.Context, key tmdb.Key) ([]byte, error) {
	sub := c.Subscribe(key)
	defer sub.Release()

	return sub.Fetch(ctx)
}

// Get resolves key through the cache and decodes the response into T
func Get[T any](ctx context.Context, c *Client, key tmdb.Key) (*T, error) {
	body, err := c.Query(ctx, key)
	if err != nil {
		return nil, err
	}
	return tmdb.Decode[T](body)
}

// Snapshot returns the state of key's entry, if one exists
func (c *Client) Snapshot(key tmdb.Key) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		return e.result(), true
	}
	if c.retained != nil {
		if e, ok := c.retained.Peek(key); ok {
			return e.result(), true
		}
	}
	return Result{Key: key}, false
}

// Invalidate marks keys stale. Entries with subscribers are refetched before
// Invalidate returns; unsubscribed entries are dropped. A fetch already in
// flight for an invalidated entry is superseded and its result discarded.
func (c *Client) Invalidate(ctx context.Context, keys ...tmdb.Key) error {
	type refetch struct {
		key tmdb.Key
		ch  <-chan singleflight.Result
	}
	var pending []refetch
	seen := make(map[tmdb.Key]bool, len(keys))

	c.mu.Lock()
	for _, key := range keys {
		if seen[key] {
			continue
		}
		seen[key] = true

		e, ok := c.entries[key]
		if !ok || e.subscribers == 0 {
			delete(c.entries, key)
			if c.retained != nil {
				c.retained.Remove(key)
			}
			continue
		}
		pending = append(pending, refetch{key: key, ch: c.startLocked(ctx, e, true)})
	}
	c.mu.Unlock()

	var errs []error
	for _, r := range pending {
		c.logger.Debug().Str("key", r.key.String()).Msg("Refetching invalidated entry")
		if _, err := c.wait(ctx, r.key, r.ch); err != nil {
			errs = append(errs, fmt.Errorf("refetch %s: %w", r.key, err))
		}
	}
	return errors.Join(errs...)
}

// InvalidateMatching invalidates every cached key for which match returns true
func (c *Client) InvalidateMatching(ctx context.Context, match func(tmdb.Key) bool) error {
	return c.Invalidate(ctx, c.Keys(match)...)
}

// Keys lists cached keys, live and retained, that satisfy match
func (c *Client) Keys(match func(tmdb.Key) bool) []tmdb.Key {
	c.mu.Lock()
	defer c.mu.Unlock()

	var keys []tmdb.Key
	for key := range c.entries {
		if match == nil || match(key) {
			keys = append(keys, key)
		}
	}
	if c.retained != nil {
		for _, key := range c.retained.Keys() {
			if _, live := c.entries[key]; live {
				continue
			}
			if match == nil || match(key) {
				keys = append(keys, key)
			}
		}
	}
	return keys
}

// Reset discards all cached data. Subscribed entries stay registered but go
// back to idle; results of fetches already in flight are dropped.
func (c *Client) Reset() {
	var snaps []Result

	c.mu.Lock()
	for key, e := range c.entries {
		if e.subscribers == 0 {
			delete(c.entries, key)
			continue
		}
		e.flight = 0
		e.status = StatusIdle
		e.data = nil
		e.err = nil
		e.updatedAt = time.Time{}
		snaps = append(snaps, e.result())
	}
	if c.retained != nil {
		c.retained.Purge()
	}
	c.mu.Unlock()

	for _, snap := range snaps {
		c.notify(snap)
	}
	c.logger.Debug().Msg("Query cache reset")
}

func (c *Client) load(ctx context.Context, key tmdb.Key, force bool) ([]byte, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || e.subscribers == 0 {
		c.mu.Unlock()
		return nil, ErrReleased
	}

	if !force && e.status == StatusSuccess {
		data := e.data
		c.mu.Unlock()
		c.logger.Debug().Str("key", key.String()).Msg("Cache hit")
		return data, nil
	}

	ch := c.startLocked(ctx, e, false)
	c.mu.Unlock()

	return c.wait(ctx, key, ch)
}

// startLocked joins the entry's fetch in flight, or starts one when there is
// none or supersede is set. The loading transition is reported from the
// flight itself so observers see it before the result.
func (c *Client) startLocked(ctx context.Context, e *entry, supersede bool) <-chan singleflight.Result {
	if e.flight == 0 || supersede {
		c.flights++
		e.flight = c.flights
	}
	id := e.flight

	entered := e.status != StatusLoading
	e.status = StatusLoading
	snap := e.result()

	// shared fetch ignores caller cancellation; the HTTP timeout still bounds it
	fetchCtx := context.WithoutCancel(ctx)
	return c.group.DoChan(flightKey(e.key, id), func() (any, error) {
		if entered {
			c.notify(snap)
		}
		c.logger.Debug().Str("key", e.key.String()).Msg("Cache miss, fetching")
		data, err := c.fetcher.Fetch(fetchCtx, e.key)
		c.apply(e, id, data, err)
		return data, err
	})
}

func (c *Client) wait(ctx context.Context, key tmdb.Key, ch <-chan singleflight.Result) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.logger.Debug().Str("key", key.String()).Msg("Joined in-flight fetch")
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// apply stores the result of fetch id unless the entry was dropped or a newer
// fetch superseded it. An entry abandoned while loading is evicted here.
func (c *Client) apply(e *entry, id uint64, data []byte, err error) {
	c.mu.Lock()
	if cur, ok := c.entries[e.key]; !ok || cur != e || e.flight != id {
		c.mu.Unlock()
		c.logger.Debug().Str("key", e.key.String()).Msg("Discarding stale fetch result")
		return
	}

	e.flight = 0
	if err != nil {
		e.status = StatusError
		e.err = err
	} else {
		e.status = StatusSuccess
		e.data = data
		e.err = nil
		e.updatedAt = time.Now()
	}
	snap := e.result()
	if e.subscribers == 0 {
		c.evictLocked(e)
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Debug().Err(err).Str("key", e.key.String()).Msg("Fetch failed")
	}
	c.notify(snap)
}

// release drops one reference. The last one evicts the entry, unless a fetch
// is still running; apply evicts it then.
func (c *Client) release(key tmdb.Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return
	}
	e.subscribers--
	if e.subscribers > 0 || e.flight != 0 {
		return
	}
	c.evictLocked(e)
}

func (c *Client) evictLocked(e *entry) {
	delete(c.entries, e.key)
	if c.retained != nil && e.status == StatusSuccess {
		c.retained.Add(e.key, e)
	}
}

// lookupLocked finds a live entry, promoting a retained one if present
func (c *Client) lookupLocked(key tmdb.Key) *entry {
	if e, ok := c.entries[key]; ok {
		return e
	}
	if c.retained == nil {
		return nil
	}
	e, ok := c.retained.Peek(key)
	if !ok {
		return nil
	}
	c.retained.Remove(key)
	c.entries[key] = e
	return e
}

func (c *Client) notify(r Result) {
	if c.observer != nil {
		c.observer(r)
	}
}

func flightKey(key tmdb.Key, id uint64) string {
	return fmt.Sprintf("%s#%d", key, id)
}
