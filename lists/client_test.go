package lists

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/filmpire/query"
	"github.com/s0up4200/filmpire/session"
	"github.com/s0up4200/filmpire/tmdb"
)

// fakeTMDB keeps list membership in memory and serves it as list pages
type fakeTMDB struct {
	mu       sync.Mutex
	members  map[tmdb.ListName]map[int64]bool
	writeErr error
	fetches  map[tmdb.ListName]int
}

func newFakeTMDB() *fakeTMDB {
	return &fakeTMDB{
		members: map[tmdb.ListName]map[int64]bool{
			tmdb.ListFavorites: {},
			tmdb.ListWatchlist: {},
		},
		fetches: map[tmdb.ListName]int{},
	}
}

func (f *fakeTMDB) Fetch(ctx context.Context, key tmdb.Key) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fetches[key.ListName]++
	page := tmdb.MoviePage{Page: key.Page, TotalPages: 1}
	for id, in := range f.members[key.ListName] {
		if in {
			page.Results = append(page.Results, tmdb.Movie{ID: id})
		}
	}
	return json.Marshal(page)
}

func (f *fakeTMDB) SetListMembership(ctx context.Context, accountID int64, sessionID string, list tmdb.ListMutation, mediaID int64, member bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writeErr != nil {
		return f.writeErr
	}
	name := tmdb.ListFavorites
	if list == tmdb.MutateWatchlist {
		name = tmdb.ListWatchlist
	}
	f.members[name][mediaID] = member
	return nil
}

func (f *fakeTMDB) fetchCount(list tmdb.ListName) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches[list]
}

type staticSession struct {
	s  session.Session
	ok bool
}

func (s staticSession) Session() (session.Session, bool) { return s.s, s.ok }

func signedIn() staticSession {
	return staticSession{s: session.Session{ID: "sess", AccountID: 42}, ok: true}
}

func newTestClient(t *testing.T, api *fakeTMDB, sessions SessionSource) (*Client, *query.Client) {
	t.Helper()
	cache, err := query.New(api)
	require.NoError(t, err)
	return NewClient(api, cache, sessions, zerolog.Nop()), cache
}

func TestToggleFavoriteRefreshesSubscribedList(t *testing.T) {
	api := newFakeTMDB()
	client, cache := newTestClient(t, api, signedIn())
	ctx := context.Background()

	sub := cache.Subscribe(tmdb.ListKey(tmdb.ListFavorites, 42, "sess", 1))
	defer sub.Release()

	body, err := sub.Fetch(ctx)
	require.NoError(t, err)
	page, err := tmdb.Decode[tmdb.MoviePage](body)
	require.NoError(t, err)
	assert.False(t, page.Contains(550))

	require.NoError(t, client.Toggle(ctx, tmdb.MutateFavorite, 550, true))

	snap := sub.Snapshot()
	require.Equal(t, query.StatusSuccess, snap.Status)
	page, err = tmdb.Decode[tmdb.MoviePage](snap.Data)
	require.NoError(t, err)
	assert.True(t, page.Contains(550))
	assert.Equal(t, 2, api.fetchCount(tmdb.ListFavorites))
}

func TestToggleOnlyInvalidatesDependentList(t *testing.T) {
	api := newFakeTMDB()
	client, cache := newTestClient(t, api, signedIn())
	ctx := context.Background()

	favorites := cache.Subscribe(tmdb.ListKey(tmdb.ListFavorites, 42, "sess", 1))
	watchlist := cache.Subscribe(tmdb.ListKey(tmdb.ListWatchlist, 42, "sess", 1))
	otherAccount := cache.Subscribe(tmdb.ListKey(tmdb.ListWatchlist, 7, "other", 1))
	defer favorites.Release()
	defer watchlist.Release()
	defer otherAccount.Release()

	for _, sub := range []*query.Subscription{favorites, watchlist, otherAccount} {
		_, err := sub.Fetch(ctx)
		require.NoError(t, err)
	}

	require.NoError(t, client.Toggle(ctx, tmdb.MutateWatchlist, 680, true))

	assert.Equal(t, 1, api.fetchCount(tmdb.ListFavorites))
	// own watchlist refetched once, the other account's page untouched
	assert.Equal(t, 3, api.fetchCount(tmdb.ListWatchlist))
}

func TestToggleFailureInvalidatesNothing(t *testing.T) {
	api := newFakeTMDB()
	api.writeErr = &tmdb.APIError{StatusCode: 401, Message: "Authentication failed"}
	client, cache := newTestClient(t, api, signedIn())
	ctx := context.Background()

	sub := cache.Subscribe(tmdb.ListKey(tmdb.ListFavorites, 42, "sess", 1))
	defer sub.Release()
	_, err := sub.Fetch(ctx)
	require.NoError(t, err)

	err = client.Toggle(ctx, tmdb.MutateFavorite, 550, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, tmdb.ErrAuth)
	assert.Equal(t, 1, api.fetchCount(tmdb.ListFavorites))
}

func TestToggleValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("signed out", func(t *testing.T) {
		client, _ := newTestClient(t, newFakeTMDB(), staticSession{})
		err := client.Toggle(ctx, tmdb.MutateFavorite, 550, true)
		assert.ErrorIs(t, err, tmdb.ErrAuth)
	})

	t.Run("bad media id", func(t *testing.T) {
		client, _ := newTestClient(t, newFakeTMDB(), signedIn())
		err := client.Toggle(ctx, tmdb.MutateFavorite, 0, true)
		assert.ErrorIs(t, err, tmdb.ErrValidation)
	})

	t.Run("unknown list", func(t *testing.T) {
		client, _ := newTestClient(t, newFakeTMDB(), signedIn())
		err := client.Toggle(ctx, tmdb.ListMutation("rated"), 550, true)
		assert.ErrorIs(t, err, tmdb.ErrValidation)
	})
}

func TestIsMember(t *testing.T) {
	api := newFakeTMDB()
	client, _ := newTestClient(t, api, signedIn())
	ctx := context.Background()

	in, err := client.IsMember(ctx, tmdb.MutateWatchlist, 603)
	require.NoError(t, err)
	assert.False(t, in)

	require.NoError(t, client.Toggle(ctx, tmdb.MutateWatchlist, 603, true))

	in, err = client.IsMember(ctx, tmdb.MutateWatchlist, 603)
	require.NoError(t, err)
	assert.True(t, in)

	_, err = client.IsMember(ctx, tmdb.ListMutation("rated"), 603)
	assert.True(t, errors.Is(err, tmdb.ErrValidation))
}
