package query

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/filmpire/tmdb"
)

type fakeFetcher struct {
	calls   atomic.Int32
	version atomic.Int32
	err     error
	gate    chan struct{}
	started chan struct{}
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{started: make(chan struct{}, 16)}
}

func (f *fakeFetcher) Fetch(ctx context.Context, key tmdb.Key) ([]byte, error) {
	f.calls.Add(1)
	f.started <- struct{}{}
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return nil, f.err
	}
	return []byte(fmt.Sprintf(`{"key":%q,"v":%d}`, key.String(), f.version.Load())), nil
}

func newTestClient(t *testing.T, f tmdb.Fetcher, opts ...Option) *Client {
	t.Helper()
	c, err := New(f, opts...)
	require.NoError(t, err)
	return c
}

func TestQueryDeduplicatesConcurrentFetches(t *testing.T) {
	f := newFakeFetcher()
	f.gate = make(chan struct{})
	c := newTestClient(t, f)
	key := tmdb.MoviesKey(tmdb.ByCategory(tmdb.CategoryTopRated), 2)

	var wg sync.WaitGroup
	results := make([][]byte, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			data, err := c.Query(context.Background(), key)
			assert.NoError(t, err)
			results[i] = data
		}(i)
	}

	<-f.started
	assert.Eventually(t, func() bool {
		r, ok := c.Snapshot(key)
		return ok && r.Subscribers == 2
	}, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(f.gate)
	wg.Wait()

	assert.Equal(t, int32(1), f.calls.Load())
	assert.Equal(t, results[0], results[1])
}

func TestConcurrentRefetchesShareOneFetch(t *testing.T) {
	f := newFakeFetcher()
	c := newTestClient(t, f)
	ctx := context.Background()

	sub := c.Subscribe(tmdb.GenresKey())
	defer sub.Release()
	_, err := sub.Fetch(ctx)
	require.NoError(t, err)
	<-f.started

	f.gate = make(chan struct{})
	var wg sync.WaitGroup
	results := make([][]byte, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			data, err := sub.Refetch(ctx)
			assert.NoError(t, err)
			results[i] = data
		}(i)
	}

	<-f.started
	time.Sleep(20 * time.Millisecond)
	close(f.gate)
	wg.Wait()

	assert.Equal(t, int32(2), f.calls.Load(), "initial fetch plus one shared refetch")
	assert.Equal(t, results[0], results[1])
	assert.Equal(t, StatusSuccess, sub.Snapshot().Status)
}

func TestAbandonedFetchFillsLaterSubscriber(t *testing.T) {
	f := newFakeFetcher()
	f.gate = make(chan struct{})
	c := newTestClient(t, f)
	key := tmdb.MovieKey(550)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Query(ctx, key)
		done <- err
	}()
	<-f.started
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	sub := c.Subscribe(key)
	defer sub.Release()

	fetched := make(chan []byte, 1)
	go func() {
		data, err := sub.Fetch(context.Background())
		assert.NoError(t, err)
		fetched <- data
	}()
	close(f.gate)

	data := <-fetched
	require.NotNil(t, data)
	assert.Equal(t, int32(1), f.calls.Load())

	snap := sub.Snapshot()
	assert.Equal(t, StatusSuccess, snap.Status)
	assert.Equal(t, data, snap.Data)
}

func TestReleaseWhileLoadingEvictsOnCompletion(t *testing.T) {
	f := newFakeFetcher()
	f.gate = make(chan struct{})
	c := newTestClient(t, f)
	key := tmdb.PersonKey(287)

	sub := c.Subscribe(key)
	done := make(chan error, 1)
	go func() {
		_, err := sub.Fetch(context.Background())
		done <- err
	}()
	<-f.started

	sub.Release()
	r, ok := c.Snapshot(key)
	require.True(t, ok, "entry stays until its fetch settles")
	assert.Equal(t, 0, r.Subscribers)
	assert.Equal(t, StatusLoading, r.Status)

	close(f.gate)
	require.NoError(t, <-done)

	_, ok = c.Snapshot(key)
	assert.False(t, ok)
}

func TestFetchAfterRelease(t *testing.T) {
	f := newFakeFetcher()
	c := newTestClient(t, f)
	ctx := context.Background()
	key := tmdb.GenresKey()

	sub := c.Subscribe(key)
	sub.Release()

	_, err := sub.Fetch(ctx)
	assert.ErrorIs(t, err, ErrReleased)
	_, err = sub.Refetch(ctx)
	assert.ErrorIs(t, err, ErrReleased)

	_, ok := c.Snapshot(key)
	assert.False(t, ok)
	assert.Zero(t, f.calls.Load())
}

func TestSubscriptionServesFromCache(t *testing.T) {
	f := newFakeFetcher()
	c := newTestClient(t, f)
	key := tmdb.GenresKey()

	sub := c.Subscribe(key)
	defer sub.Release()

	assert.Equal(t, StatusIdle, sub.Snapshot().Status)
	assert.True(t, sub.Snapshot().Pending())

	first, err := sub.Fetch(context.Background())
	require.NoError(t, err)

	second, err := c.Query(context.Background(), key)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), f.calls.Load())
	assert.Equal(t, StatusSuccess, sub.Snapshot().Status)
}

func TestReleaseEvictsEntry(t *testing.T) {
	f := newFakeFetcher()
	c := newTestClient(t, f)
	key := tmdb.PersonKey(819)

	_, err := c.Query(context.Background(), key)
	require.NoError(t, err)

	_, ok := c.Snapshot(key)
	assert.False(t, ok, "entry should be gone once its only consumer released it")

	_, err = c.Query(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestSubscriptionReleaseIsIdempotent(t *testing.T) {
	c := newTestClient(t, newFakeFetcher())
	key := tmdb.MovieKey(550)

	a := c.Subscribe(key)
	b := c.Subscribe(key)
	a.Release()
	a.Release()

	r, ok := c.Snapshot(key)
	require.True(t, ok)
	assert.Equal(t, 1, r.Subscribers)

	b.Release()
	_, ok = c.Snapshot(key)
	assert.False(t, ok)
}

func TestRetainUnused(t *testing.T) {
	f := newFakeFetcher()
	c := newTestClient(t, f, WithRetainUnused(1))
	ctx := context.Background()
	first := tmdb.MovieKey(550)
	second := tmdb.MovieKey(680)

	_, err := c.Query(ctx, first)
	require.NoError(t, err)
	_, err = c.Query(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.calls.Load(), "retained entry should be reused")

	_, err = c.Query(ctx, second)
	require.NoError(t, err)
	_, ok := c.Snapshot(first)
	assert.False(t, ok, "capacity of one should push out the older entry")

	_, err = c.Query(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, int32(3), f.calls.Load())
}

func TestFetchErrorIsNotRetried(t *testing.T) {
	f := newFakeFetcher()
	f.err = fmt.Errorf("%w: connection refused", tmdb.ErrNetwork)

	var mu sync.Mutex
	var seen []Status
	c := newTestClient(t, f, WithObserver(func(r Result) {
		mu.Lock()
		seen = append(seen, r.Status)
		mu.Unlock()
	}))

	sub := c.Subscribe(tmdb.GenresKey())
	defer sub.Release()

	_, err := sub.Fetch(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, tmdb.ErrNetwork)

	snap := sub.Snapshot()
	assert.Equal(t, StatusError, snap.Status)
	assert.ErrorIs(t, snap.Err, tmdb.ErrNetwork)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), f.calls.Load())

	mu.Lock()
	assert.Equal(t, []Status{StatusLoading, StatusError}, seen)
	mu.Unlock()
}

func TestInvalidateRefetchesSubscribed(t *testing.T) {
	f := newFakeFetcher()
	c := newTestClient(t, f)
	ctx := context.Background()
	key := tmdb.ListKey(tmdb.ListFavorites, 42, "sess", 1)

	sub := c.Subscribe(key)
	defer sub.Release()

	before, err := sub.Fetch(ctx)
	require.NoError(t, err)

	f.version.Store(1)
	require.NoError(t, c.Invalidate(ctx, key))

	after := sub.Snapshot()
	assert.Equal(t, StatusSuccess, after.Status)
	assert.NotEqual(t, before, after.Data)
	assert.Contains(t, string(after.Data), `"v":1`)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestInvalidateSupersedesFetchInFlight(t *testing.T) {
	gates := []chan struct{}{make(chan struct{}), make(chan struct{})}
	started := make(chan struct{}, 2)
	var calls atomic.Int32
	c := newTestClient(t, fetcherFunc(func(ctx context.Context, key tmdb.Key) ([]byte, error) {
		n := calls.Add(1)
		started <- struct{}{}
		<-gates[n-1]
		return []byte(fmt.Sprintf(`{"call":%d}`, n)), nil
	}))
	ctx := context.Background()
	key := tmdb.ListKey(tmdb.ListWatchlist, 42, "sess", 1)

	sub := c.Subscribe(key)
	defer sub.Release()

	fetched := make(chan []byte, 1)
	go func() {
		data, _ := sub.Fetch(ctx)
		fetched <- data
	}()
	<-started

	invalidated := make(chan error, 1)
	go func() { invalidated <- c.Invalidate(ctx, key, key) }()
	<-started

	close(gates[1])
	require.NoError(t, <-invalidated)
	assert.Equal(t, `{"call":2}`, string(sub.Snapshot().Data))

	close(gates[0])
	assert.Equal(t, `{"call":1}`, string(<-fetched))
	assert.Equal(t, `{"call":2}`, string(sub.Snapshot().Data), "older fetch must not overwrite")
	assert.Equal(t, int32(2), calls.Load())
}

func TestInvalidateDropsUnsubscribed(t *testing.T) {
	f := newFakeFetcher()
	c := newTestClient(t, f, WithRetainUnused(4))
	ctx := context.Background()
	key := tmdb.RecommendationsKey(550)

	_, err := c.Query(ctx, key)
	require.NoError(t, err)
	_, ok := c.Snapshot(key)
	require.True(t, ok)

	require.NoError(t, c.Invalidate(ctx, key))
	_, ok = c.Snapshot(key)
	assert.False(t, ok)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestInvalidateMatching(t *testing.T) {
	f := newFakeFetcher()
	c := newTestClient(t, f)
	ctx := context.Background()

	page1 := c.Subscribe(tmdb.ListKey(tmdb.ListWatchlist, 42, "sess", 1))
	page2 := c.Subscribe(tmdb.ListKey(tmdb.ListWatchlist, 42, "sess", 2))
	other := c.Subscribe(tmdb.ListKey(tmdb.ListFavorites, 42, "sess", 1))
	defer page1.Release()
	defer page2.Release()
	defer other.Release()

	for _, sub := range []*Subscription{page1, page2, other} {
		_, err := sub.Fetch(ctx)
		require.NoError(t, err)
	}

	err := c.InvalidateMatching(ctx, func(k tmdb.Key) bool {
		return k.IsList(tmdb.ListWatchlist, 42, "sess")
	})
	require.NoError(t, err)
	assert.Equal(t, int32(5), f.calls.Load())
}

func TestInvalidateReportsRefetchErrors(t *testing.T) {
	f := newFakeFetcher()
	c := newTestClient(t, f)
	ctx := context.Background()

	sub := c.Subscribe(tmdb.GenresKey())
	defer sub.Release()
	_, err := sub.Fetch(ctx)
	require.NoError(t, err)

	f.err = errors.New("boom")
	err = c.Invalidate(ctx, tmdb.GenresKey())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, StatusError, sub.Snapshot().Status)
}

func TestCancelledWaiterDoesNotAbortSharedFetch(t *testing.T) {
	f := newFakeFetcher()
	f.gate = make(chan struct{})
	c := newTestClient(t, f)
	key := tmdb.MovieKey(603)

	sub := c.Subscribe(key)
	defer sub.Release()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := sub.Fetch(ctx)
		done <- err
	}()

	<-f.started
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(f.gate)
	assert.Eventually(t, func() bool {
		return sub.Snapshot().Status == StatusSuccess
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestReset(t *testing.T) {
	f := newFakeFetcher()
	c := newTestClient(t, f, WithRetainUnused(4))
	ctx := context.Background()

	_, err := c.Query(ctx, tmdb.GenresKey())
	require.NoError(t, err)

	sub := c.Subscribe(tmdb.MovieKey(550))
	defer sub.Release()
	_, err = sub.Fetch(ctx)
	require.NoError(t, err)

	c.Reset()

	_, ok := c.Snapshot(tmdb.GenresKey())
	assert.False(t, ok)

	snap := sub.Snapshot()
	assert.Equal(t, StatusIdle, snap.Status)
	assert.Nil(t, snap.Data)
	assert.Equal(t, 1, snap.Subscribers)
}

func TestGetDecodes(t *testing.T) {
	c := newTestClient(t, fetcherFunc(func(ctx context.Context, key tmdb.Key) ([]byte, error) {
		return []byte(`{"genres":[{"id":28,"name":"Action"},{"id":18,"name":"Drama"}]}`), nil
	}))

	genres, err := c.Genres(context.Background())
	require.NoError(t, err)
	require.Len(t, genres, 2)
	assert.Equal(t, "Drama", genres[1].Name)
}

type fetcherFunc func(ctx context.Context, key tmdb.Key) ([]byte, error)

func (f fetcherFunc) Fetch(ctx context.Context, key tmdb.Key) ([]byte, error) { return f(ctx, key) }
