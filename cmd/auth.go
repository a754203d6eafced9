package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/s0up4200/filmpire/session"
)

var noWait bool

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to your TMDB account",
	Long: `Sign in with TMDB's request token flow: a token is requested, you approve
it in the browser, and it is exchanged for a session that is stored locally.

With --no-wait the approval URL is printed and the command exits; the next
command that needs your account finishes the sign-in.`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	RunE:  runWhoami,
}

func init() {
	loginCmd.Flags().BoolVar(&noWait, "no-wait", false, "print the approval URL and exit")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	state, err := flow.Start(ctx)
	switch {
	case err == nil && state == session.StateSessionEstablished:
		s, _ := flow.Session()
		fmt.Printf("Already signed in as %s.\n", s.Account.GetDisplayName())
		return nil
	case err != nil && state == session.StateAwaitingApproval:
		// an earlier token was never approved; start over with a fresh one
		logger.Debug().Err(err).Msg("Pending request token not usable")
	case err != nil:
		logger.Warn().Err(err).Msg("Could not restore previous session")
	}

	approvalURL, err := flow.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start sign-in: %w", err)
	}

	fmt.Println("Approve filmpire in your browser:")
	fmt.Printf("\n  %s\n\n", approvalURL)

	if noWait {
		fmt.Println("Run any account command once approved to finish signing in.")
		return nil
	}

	fmt.Print("Press Enter once you have approved the request... ")
	if _, err := bufio.NewReader(os.Stdin).ReadString('\n'); err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}

	s, err := flow.Complete(ctx)
	if err != nil {
		return fmt.Errorf("sign-in failed: %w", err)
	}

	fmt.Printf("✓ Signed in as %s.\n", s.Account.GetDisplayName())
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	if err := flow.Logout(cmd.Context()); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	fmt.Println("Signed out.")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	s, err := requireSession(cmd.Context())
	if err != nil {
		if errors.Is(err, session.ErrInvalidState) {
			return fmt.Errorf("sign-in still pending approval, run 'filmpire login'")
		}
		return err
	}

	account := s.Account
	fmt.Printf("%s (id %d)\n", account.GetDisplayName(), account.ID)
	if account.Username != "" && account.Username != account.GetDisplayName() {
		fmt.Printf("  Username: %s\n", account.Username)
	}
	if account.ISO31661 != "" {
		fmt.Printf("  Region: %s, language: %s\n", account.ISO31661, account.ISO6391)
	}
	return nil
}
