package tmdb

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

type genreSource []Genre

func (g genreSource) String(i int) string { return g[i].Name }
func (g genreSource) Len() int            { return len(g) }

// MatchGenre resolves a user-typed genre name. Exact (case-insensitive)
// matches win; otherwise the best fuzzy match is returned.
func MatchGenre(genres []Genre, name string) (Genre, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Genre{}, false
	}

	for _, g := range genres {
		if strings.EqualFold(g.Name, name) {
			return g, true
		}
	}

	matches := fuzzy.FindFrom(name, genreSource(genres))
	if len(matches) == 0 {
		return Genre{}, false
	}
	return genres[matches[0].Index], true
}
