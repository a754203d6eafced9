package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/filmpire/config"
	"github.com/s0up4200/filmpire/lists"
	"github.com/s0up4200/filmpire/query"
	"github.com/s0up4200/filmpire/session"
	"github.com/s0up4200/filmpire/tmdb"
)

var (
	cfgFile     string
	cfg         *config.Config
	logger      zerolog.Logger
	tmdbClient  *tmdb.Client
	queries     *query.Client
	store       session.Store
	flow        *session.Flow
	listsClient *lists.Client
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "filmpire",
	Short: "Browse TMDB and manage your favorites and watchlist",
	Long: `filmpire is a CLI for The Movie Database. It browses movies by category,
genre or search, shows movie and actor details, and signs in to your TMDB
account to manage favorites and the watchlist.`,
	SilenceUsage:       true,
	PersistentPreRunE:  initializeApp,
	PersistentPostRunE: closeApp,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml or ~/.filmpire/config.yaml)")
}

// initializeApp initializes the configuration and clients
func initializeApp(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger = setupLogger(cfg.Logging)

	tmdbClient, err = tmdb.NewClient(cfg.TMDB.APIKey, logger,
		tmdb.WithBaseURL(cfg.TMDB.BaseURL),
		tmdb.WithApprovalURL(cfg.TMDB.ApprovalURL),
		tmdb.WithTimeout(cfg.TMDB.Timeout),
		tmdb.WithRateLimit(cfg.TMDB.RateLimit, cfg.TMDB.RateBurst),
	)
	if err != nil {
		return fmt.Errorf("failed to create TMDB client: %w", err)
	}

	queries, err = query.New(tmdbClient,
		query.WithLogger(logger),
		query.WithRetainUnused(cfg.Cache.RetainUnused),
	)
	if err != nil {
		return fmt.Errorf("failed to create query cache: %w", err)
	}

	store, err = session.OpenBoltStore(cfg.Session.Path)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}

	flow = session.NewFlow(tmdbClient, store,
		session.WithCache(queries),
		session.WithRedirectURL(cfg.TMDB.RedirectURL),
		session.WithLogger(logger),
	)
	listsClient = lists.NewClient(tmdbClient, queries, flow, logger)

	logger.Debug().Str("session_path", cfg.Session.Path).Msg("Initialized")
	return nil
}

func closeApp(cmd *cobra.Command, args []string) error {
	if store != nil {
		return store.Close()
	}
	return nil
}

// skipInit replaces initializeApp for commands that need neither config nor API access
func skipInit(cmd *cobra.Command, args []string) error { return nil }

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "trace":
		level = zerolog.TraceLevel
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color,
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

// requireSession resumes the persisted login or fails with a hint to log in
func requireSession(ctx context.Context) (session.Session, error) {
	state, err := flow.Start(ctx)
	if err != nil {
		return session.Session{}, err
	}
	if state != session.StateSessionEstablished {
		return session.Session{}, fmt.Errorf("not signed in, run 'filmpire login' first")
	}
	s, _ := flow.Session()
	return s, nil
}
