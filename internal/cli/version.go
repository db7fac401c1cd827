/*
Package cli implements the cadence command-line interface.
*/
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmtran/cadence/internal/version"
)

// NewVersionCmd creates the 'version' command
func NewVersionCmd() *cobra.Command {
	var checkUpdate bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the current version, commit hash, and build date.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(checkUpdate)
		},
	}

	cmd.Flags().BoolVarP(&checkUpdate, "check-update", "c", false, "Check GitHub for a newer release")

	return cmd
}

func runVersion(checkUpdate bool) error {
	fmt.Printf("cadence %s\n", version.GetVersion())

	if checkUpdate {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		newer, err := version.CheckUpdate(ctx)
		if err != nil {
			return fmt.Errorf("update check failed: %w", err)
		}
		if newer == "" {
			fmt.Println("Up to date.")
		} else {
			fmt.Printf("Newer version available: %s\n", newer)
			fmt.Printf("  https://github.com/%s/%s/releases/latest\n", version.RepoOwner, version.RepoName)
		}
	}

	return nil
}
