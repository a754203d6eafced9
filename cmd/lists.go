package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/filmpire/tmdb"
)

var remove bool

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show your favorite movies and watchlist",
	RunE:  runProfile,
}

var favoriteCmd = &cobra.Command{
	Use:   "favorite <movie-id>",
	Short: "Add a movie to your favorites",
	Args:  cobra.ExactArgs(1),
	RunE:  runToggle(tmdb.MutateFavorite),
}

var watchlistCmd = &cobra.Command{
	Use:   "watchlist <movie-id>",
	Short: "Add a movie to your watchlist",
	Args:  cobra.ExactArgs(1),
	RunE:  runToggle(tmdb.MutateWatchlist),
}

func init() {
	profileCmd.Flags().IntVar(&page, "page", 1, "page of each list")
	favoriteCmd.Flags().BoolVar(&remove, "remove", false, "remove instead of add")
	watchlistCmd.Flags().BoolVar(&remove, "remove", false, "remove instead of add")

	rootCmd.AddCommand(profileCmd, favoriteCmd, watchlistCmd)
}

func runProfile(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := requireSession(ctx)
	if err != nil {
		return err
	}

	var favorites, watchlist *tmdb.MoviePage
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		favorites, err = listsClient.Page(gctx, tmdb.ListFavorites, page)
		return err
	})
	g.Go(func() error {
		var err error
		watchlist, err = listsClient.Page(gctx, tmdb.ListWatchlist, page)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Printf("Profile: %s\n", s.Account.GetDisplayName())
	printMoviePage("Favorite movies", favorites)
	printMoviePage("Watchlist", watchlist)
	return nil
}

func runToggle(kind tmdb.ListMutation) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		movieID, err := parseID(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if _, err := requireSession(ctx); err != nil {
			return err
		}

		if err := listsClient.Toggle(ctx, kind, movieID, !remove); err != nil {
			return fmt.Errorf("failed to update %s: %w", kind, err)
		}

		in, err := listsClient.IsMember(ctx, kind, movieID)
		if err != nil {
			return err
		}

		if in == remove {
			logger.Warn().Int64("movie_id", movieID).Msg("TMDB has not reflected the change yet")
		}

		verb := "Added to"
		if remove {
			verb = "Removed from"
		}
		fmt.Printf("✓ %s %s: movie %d\n", verb, kind, movieID)
		return nil
	}
}
