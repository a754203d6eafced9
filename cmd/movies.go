package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/filmpire/filter"
	"github.com/s0up4200/filmpire/tmdb"
)

var (
	category   string
	genreFlag  string
	searchText string
	page       int
	filterExpr string
	preset     string
)

var genresCmd = &cobra.Command{
	Use:   "genres",
	Short: "List movie genres",
	RunE:  runGenres,
}

var moviesCmd = &cobra.Command{
	Use:   "movies",
	Short: "List movies by category, genre or search",
	Long: `List one page of movies. Without flags the popular list is shown.

Examples:
  filmpire movies --category top_rated --page 2
  filmpire movies --genre "sci fi"
  filmpire movies --search "blade runner"
  filmpire movies --filter 'Rating >= 7.5 and Year > 2000'`,
	RunE: runMovies,
}

var movieCmd = &cobra.Command{
	Use:   "movie <id>",
	Short: "Show movie details, trailer, cast and recommendations",
	Args:  cobra.ExactArgs(1),
	RunE:  runMovie,
}

var actorCmd = &cobra.Command{
	Use:   "actor <id>",
	Short: "Show an actor and the movies they appear in",
	Args:  cobra.ExactArgs(1),
	RunE:  runActor,
}

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "Show configured filter presets and their matches on the popular list",
	RunE:  runPresets,
}

func init() {
	moviesCmd.Flags().StringVarP(&category, "category", "c", "", "category: popular, top_rated or upcoming")
	moviesCmd.Flags().StringVarP(&genreFlag, "genre", "g", "", "genre id or name")
	moviesCmd.Flags().StringVarP(&searchText, "search", "s", "", "free-text title search")
	moviesCmd.Flags().IntVar(&page, "page", 1, "page number")
	moviesCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression applied to the page")
	moviesCmd.Flags().StringVarP(&preset, "preset", "p", "", "use a preset filter from config")
	moviesCmd.MarkFlagsMutuallyExclusive("category", "genre", "search")
	moviesCmd.MarkFlagsMutuallyExclusive("filter", "preset")

	actorCmd.Flags().IntVar(&page, "page", 1, "page of the actor's movies")

	rootCmd.AddCommand(genresCmd, moviesCmd, movieCmd, actorCmd, presetsCmd)
}

func runGenres(cmd *cobra.Command, args []string) error {
	genres, err := queries.Genres(cmd.Context())
	if err != nil {
		return err
	}

	for _, g := range genres {
		fmt.Printf("%6d  %s\n", g.ID, g.Name)
	}
	return nil
}

func runMovies(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var genres []tmdb.Genre
	loadGenres := func() ([]tmdb.Genre, error) {
		if genres != nil {
			return genres, nil
		}
		var err error
		genres, err = queries.Genres(ctx)
		return genres, err
	}

	desc, err := buildDescriptor(category, genreFlag, searchText, loadGenres)
	if err != nil {
		return err
	}

	logger.Debug().Str("descriptor", desc.String()).Int("page", page).Msg("Fetching movies")

	result, err := queries.Movies(ctx, desc, page)
	if err != nil {
		return err
	}

	if result, err = applyFilter(ctx, result, loadGenres); err != nil {
		return err
	}

	printMoviePage(desc.String(), result)
	return nil
}

// buildDescriptor turns the mutually exclusive flags into a request descriptor.
// Genre names are resolved lazily, so plain listings cost no genre lookup.
func buildDescriptor(category, genre, search string, genres func() ([]tmdb.Genre, error)) (tmdb.Descriptor, error) {
	var desc tmdb.Descriptor
	switch {
	case category != "":
		desc = tmdb.ByCategory(category)
	case search != "":
		desc = tmdb.ByQuery(search)
	case genre != "":
		if id, err := strconv.Atoi(genre); err == nil {
			desc = tmdb.ByGenre(id)
			break
		}
		list, err := genres()
		if err != nil {
			return tmdb.Descriptor{}, err
		}
		match, ok := tmdb.MatchGenre(list, genre)
		if !ok {
			return tmdb.Descriptor{}, fmt.Errorf("%w: no genre matches %q", tmdb.ErrValidation, genre)
		}
		desc = tmdb.ByGenre(match.ID)
	default:
		desc = tmdb.Default()
	}

	if err := desc.Validate(); err != nil {
		return tmdb.Descriptor{}, err
	}
	return desc, nil
}

// applyFilter narrows the page with the --filter expression, the --preset, or
// the configured default expression, in that order of priority
func applyFilter(ctx context.Context, page *tmdb.MoviePage, genres func() ([]tmdb.Genre, error)) (*tmdb.MoviePage, error) {
	expr := getFilterExpression()
	if expr == "" && preset == "" {
		return page, nil
	}

	g, err := genres()
	if err != nil {
		return nil, err
	}

	if expr == "" {
		manager, err := newPresetManager(g)
		if err != nil {
			return nil, err
		}
		filtered, err := manager.ApplyToPage(ctx, preset, page)
		if errors.Is(err, filter.ErrUnknownFilter) {
			return nil, fmt.Errorf("preset '%s' not found in config", preset)
		}
		return filtered, err
	}

	f, err := filter.CompileFilter(expr, filter.WithGenres(g))
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}
	return filter.ApplyToPage(ctx, f, page)
}

// getFilterExpression returns the ad hoc expression to apply: --filter wins,
// a --preset suppresses the default, empty means no expression.
func getFilterExpression() string {
	if filterExpr != "" {
		return filterExpr
	}
	if preset != "" {
		return ""
	}
	return cfg.Filter.DefaultExpression
}

// newPresetManager compiles the configured presets
func newPresetManager(genres []tmdb.Genre) (*filter.Manager, error) {
	manager := filter.NewManager(filter.WithCompiler(filter.NewExprCompiler(filter.WithGenres(genres))))
	if err := manager.RegisterFilters(cfg.Filter.Presets); err != nil {
		return nil, err
	}
	return manager, nil
}

func runMovie(cmd *cobra.Command, args []string) error {
	movieID, err := parseID(args[0])
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	var (
		details         *tmdb.MovieDetails
		recommendations *tmdb.MoviePage
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		details, err = queries.Movie(gctx, movieID)
		return err
	})
	g.Go(func() error {
		var err error
		recommendations, err = queries.Recommendations(gctx, movieID)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Printf("%s (%d)  ★ %.1f  [%d]\n", details.Title, details.Year(), details.VoteAverage, details.ID)
	if details.Tagline != "" {
		fmt.Printf("  %s\n", details.Tagline)
	}
	if len(details.Genres) > 0 {
		names := make([]string, len(details.Genres))
		for i, genre := range details.Genres {
			names[i] = genre.Name
		}
		fmt.Printf("  Genres: %s\n", strings.Join(names, ", "))
	}
	if details.Runtime > 0 {
		fmt.Printf("  Runtime: %dm\n", details.Runtime)
	}
	if trailer, ok := details.Trailer(); ok && trailer.Site == "YouTube" {
		fmt.Printf("  Trailer: https://www.youtube.com/watch?v=%s\n", trailer.Key)
	}
	if details.Overview != "" {
		fmt.Printf("\n%s\n", details.Overview)
	}

	if cast := details.Credits.Cast; len(cast) > 0 {
		fmt.Println("\nTop cast:")
		for _, member := range cast[:min(6, len(cast))] {
			fmt.Printf("  %-28s %s  [%d]\n", member.Name, member.Character, member.ID)
		}
	}

	printMembership(ctx, movieID)

	if len(recommendations.Results) > 0 {
		fmt.Println("\nYou might also like:")
		for _, m := range recommendations.Results[:min(5, len(recommendations.Results))] {
			fmt.Printf("  • %s (%d)  [%d]\n", m.Title, m.Year(), m.ID)
		}
	}
	return nil
}

// printMembership shows favorite/watchlist state when signed in; otherwise nothing
func printMembership(ctx context.Context, movieID int64) {
	if _, err := requireSession(ctx); err != nil {
		logger.Debug().Err(err).Msg("Skipping list membership")
		return
	}

	var favorite, watchlist bool
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		favorite, err = listsClient.IsMember(gctx, tmdb.MutateFavorite, movieID)
		return err
	})
	g.Go(func() error {
		var err error
		watchlist, err = listsClient.IsMember(gctx, tmdb.MutateWatchlist, movieID)
		return err
	})
	if err := g.Wait(); err != nil {
		logger.Warn().Err(err).Msg("Failed to load list membership")
		return
	}

	fmt.Printf("\n  Favorite: %s   Watchlist: %s\n", yesNo(favorite), yesNo(watchlist))
}

func runActor(cmd *cobra.Command, args []string) error {
	personID, err := parseID(args[0])
	if err != nil {
		return err
	}

	var (
		person *tmdb.Person
		movies *tmdb.MoviePage
	)
	g, gctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		var err error
		person, err = queries.Person(gctx, personID)
		return err
	})
	g.Go(func() error {
		var err error
		movies, err = queries.PersonMovies(gctx, personID, page)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Printf("%s  [%d]\n", person.Name, person.ID)
	if person.Birthday != "" {
		fmt.Printf("  Born: %s", person.Birthday)
		if person.PlaceOfBirth != "" {
			fmt.Printf(" in %s", person.PlaceOfBirth)
		}
		fmt.Println()
	}
	if person.Biography != "" {
		fmt.Printf("\n%s\n", person.Biography)
	}
	if person.IMDbID != "" {
		fmt.Printf("\n  IMDb: https://www.imdb.com/name/%s\n", person.IMDbID)
	}

	printMoviePage("movies with "+person.Name, movies)
	return nil
}

func runPresets(cmd *cobra.Command, args []string) error {
	if len(cfg.Filter.Presets) == 0 {
		fmt.Println("No presets configured. Add them under filter.presets in the config file.")
		return nil
	}
	ctx := cmd.Context()

	genres, err := queries.Genres(ctx)
	if err != nil {
		return err
	}
	popular, err := queries.Movies(ctx, tmdb.Default(), 1)
	if err != nil {
		return err
	}

	manager, err := newPresetManager(genres)
	if err != nil {
		return err
	}

	results, err := manager.EvaluateAll(ctx, popular.Results)
	if err != nil {
		return err
	}

	for _, name := range manager.ListFilters() {
		fmt.Printf("%-16s %2d/%d  %s\n", name, len(results[name]), len(popular.Results), cfg.Filter.Presets[name])
	}
	return nil
}

func printMoviePage(title string, p *tmdb.MoviePage) {
	if len(p.Results) == 0 {
		fmt.Println("No movies found.")
		return
	}

	fmt.Printf("\n%s, page %d of %d (%d results)\n", title, p.Page, p.TotalPages, p.TotalResults)
	fmt.Println(strings.Repeat("-", 80))

	for _, m := range p.Results {
		year := ""
		if y := m.Year(); y > 0 {
			year = fmt.Sprintf(" (%d)", y)
		}
		fmt.Printf("• %s%s  ★ %.1f  [%d]\n", m.Title, year, m.VoteAverage, m.ID)
	}
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", tmdb.ErrValidation, arg)
	}
	return id, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
