package tmdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptorPath(t *testing.T) {
	tests := []struct {
		name     string
		key      Key
		expected string
	}{
		{
			name:     "category",
			key:      ByCategory("top_rated").Key(2),
			expected: "movie/top_rated?page=2&api_key=KEY",
		},
		{
			name:     "genre",
			key:      ByGenre(28).Key(1),
			expected: "discover/movie?with_genres=28&page=1&api_key=KEY",
		},
		{
			name:     "default",
			key:      Default().Key(0),
			expected: "movie/popular?page=1&api_key=KEY",
		},
		{
			name:     "zero value descriptor",
			key:      MoviesKey(Descriptor{}, 3),
			expected: "movie/popular?page=3&api_key=KEY",
		},
		{
			name:     "search",
			key:      ByQuery("blade runner").Key(1),
			expected: "search/movie?query=blade+runner&page=1&api_key=KEY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.key.Validate())
			assert.Equal(t, tt.expected, tt.key.Path("KEY"))
		})
	}
}

func TestDescriptorCategoriesRouteToMoviePath(t *testing.T) {
	for _, category := range Categories {
		t.Run(category, func(t *testing.T) {
			assert.Equal(t, "movie/"+category+"?page=1&api_key=KEY", ByCategory(category).Key(1).Path("KEY"))
		})
	}
}

func TestKeyPath(t *testing.T) {
	tests := []struct {
		name     string
		key      Key
		expected string
	}{
		{"genres", GenresKey(), "genre/movie/list?api_key=KEY"},
		{"person", PersonKey(31), "person/31?api_key=KEY"},
		{"person movies", PersonMoviesKey(31, 2), "discover/movie?with_cast=31&page=2&api_key=KEY"},
		{"movie", MovieKey(550), "movie/550?api_key=KEY&append_to_response=videos,credits"},
		{"recommendations", RecommendationsKey(550), "movie/550/recommendations?api_key=KEY"},
		{
			"favorites",
			ListKey(ListFavorites, 7, "sess", 1),
			"account/7/favorite/movies?session_id=sess&page=1&api_key=KEY",
		},
		{
			"watchlist",
			ListKey(ListWatchlist, 7, "sess", 0),
			"account/7/watchlist/movies?session_id=sess&page=1&api_key=KEY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.key.Validate())
			assert.Equal(t, tt.expected, tt.key.Path("KEY"))
		})
	}
}

func TestKeyValidate(t *testing.T) {
	tests := []struct {
		name string
		key  Key
	}{
		{"unknown category", ByCategory("now_showing").Key(1)},
		{"negative genre", ByGenre(-1).Key(1)},
		{"empty search", ByQuery("").Key(1)},
		{"page too large", ByCategory("popular").Key(MaxPage + 1)},
		{"negative page", Default().Key(-2)},
		{"zero movie id", MovieKey(0)},
		{"zero person id", PersonKey(0)},
		{"unknown list", ListKey("rated/movies", 7, "sess", 1)},
		{"missing session", ListKey(ListFavorites, 7, "", 1)},
		{"missing account", ListKey(ListFavorites, 0, "sess", 1)},
		{"unknown kind", Key{Kind: "tv"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.key.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestKeyIdentity(t *testing.T) {
	assert.Equal(t, ByGenre(28).Key(1), ByGenre(28).Key(0))
	assert.Equal(t, ByGenre(28).Key(1).String(), MoviesKey(ByGenre(28), 1).String())
	assert.NotEqual(t, ByGenre(28).Key(1).String(), ByGenre(28).Key(2).String())
	assert.NotEqual(t, ByCategory("popular").Key(1).String(), Default().Key(1).String())
	assert.NotEqual(t, MovieKey(5).String(), RecommendationsKey(5).String())
}

func TestKeyIsList(t *testing.T) {
	key := ListKey(ListFavorites, 7, "sess", 3)

	assert.True(t, key.IsList(ListFavorites, 7, "sess"))
	assert.False(t, key.IsList(ListWatchlist, 7, "sess"))
	assert.False(t, key.IsList(ListFavorites, 8, "sess"))
	assert.False(t, key.IsList(ListFavorites, 7, "other"))
	assert.False(t, MovieKey(7).IsList(ListFavorites, 7, "sess"))
}

func TestMatchGenre(t *testing.T) {
	genres := []Genre{
		{ID: 28, Name: "Action"},
		{ID: 878, Name: "Science Fiction"},
		{ID: 35, Name: "Comedy"},
	}

	g, ok := MatchGenre(genres, "comedy")
	require.True(t, ok)
	assert.Equal(t, 35, g.ID)

	g, ok = MatchGenre(genres, "sci fi")
	require.True(t, ok)
	assert.Equal(t, 878, g.ID)

	_, ok = MatchGenre(genres, "")
	assert.False(t, ok)

	_, ok = MatchGenre(genres, "zzz")
	assert.False(t, ok)
}

func TestMovieHelpers(t *testing.T) {
	m := Movie{ReleaseDate: "1999-03-31", GenreIDs: []int{28, 878}}
	assert.Equal(t, 1999, m.Year())
	assert.True(t, m.HasGenre(878))
	assert.False(t, m.HasGenre(35))
	assert.False(t, m.Released().IsZero())

	assert.Equal(t, 0, Movie{}.Year())
	assert.True(t, Movie{ReleaseDate: "soon"}.Released().IsZero())

	page := MoviePage{Page: 1, TotalPages: 2, Results: []Movie{{ID: 603}}}
	assert.True(t, page.HasMorePages())
	assert.True(t, page.Contains(603))
	assert.False(t, page.Contains(604))
}
