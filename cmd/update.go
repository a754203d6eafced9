package cmd

import (
	"fmt"
	"runtime"

	"github.com/blang/semver"
	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

const repoSlug = "s0up4200/filmpire"

var (
	version   = "dev"
	buildTime = "unknown"
)

// SetVersion records build metadata injected via ldflags
func SetVersion(v, t string) {
	version = v
	buildTime = t
	rootCmd.Version = v
}

var versionCmd = &cobra.Command{
	Use:                "version",
	Short:              "Print version information",
	PersistentPreRunE:  skipInit,
	PersistentPostRunE: skipInit,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("filmpire %s (built %s, %s/%s)\n", version, buildTime, runtime.GOOS, runtime.GOARCH)
	},
}

var updateCmd = &cobra.Command{
	Use:                "update",
	Short:              "Update filmpire to the latest release",
	PersistentPreRunE:  skipInit,
	PersistentPostRunE: skipInit,
	RunE:               runUpdate,
}

func init() {
	rootCmd.AddCommand(versionCmd, updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	current, err := semver.ParseTolerant(version)
	if err != nil {
		return fmt.Errorf("cannot update a development build (%s)", version)
	}

	ctx := cmd.Context()
	latest, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(repoSlug))
	if err != nil {
		return fmt.Errorf("failed to detect latest version: %w", err)
	}
	if !found {
		return fmt.Errorf("no release found for %s/%s", runtime.GOOS, runtime.GOARCH)
	}

	if latest.LessOrEqual(current.String()) {
		fmt.Printf("Already up to date (%s).\n", current)
		return nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("could not locate executable path: %w", err)
	}

	if err := selfupdate.UpdateTo(ctx, latest.AssetURL, latest.AssetName, exe); err != nil {
		return fmt.Errorf("failed to update binary: %w", err)
	}

	fmt.Printf("✓ Updated %s -> %s\n", current, latest.Version())
	return nil
}
