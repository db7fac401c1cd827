/*
Package main is the entry point for the cadence CLI.

cadence is an adaptive work/rest interval scheduler. It runs timed
work and rest cycles, learns which rhythm works for you from recorded
session outcomes, and can fold anonymized summaries into a shared
community model.

Usage:
  cadence [command]

Available Commands:
  run         Run the interval scheduler in the foreground
  models      List available work/rest models
  recommend   Recommend a model for the current context
  stats       Show recorded session statistics
  share       Manage privacy-preserving community sharing
  benchmark   Measure recommendation latency
  version     Show version information
  help        Help about any command

Examples:
  # Start the scheduler with the configured model
  cadence run

  # Start a 90/20 deep work rhythm
  cadence run --model deep-90-20

  # See what fits this time of day
  cadence recommend
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vmtran/cadence/internal/cli"
	"github.com/vmtran/cadence/internal/version"
)

// Version information (set via ldflags during build)
var (
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

func main() {
	version.Version = buildVersion
	version.Commit = buildCommit
	version.Date = buildDate

	rootCmd := &cobra.Command{
		Use:   "cadence",
		Short: "Adaptive work/rest interval scheduler",
		Long: `cadence runs timed work and rest cycles with built-in or custom
work/rest models, prompts you at each transition, and learns from your
recorded outcomes which rhythm suits each time of day and kind of work.

With consent, anonymized and noised session summaries can be folded
into a shared community model. Raw history never leaves this machine.`,
		Version: version.FormatVersion(buildVersion, buildCommit, buildDate),
	}

	rootCmd.AddCommand(cli.NewRunCmd())
	rootCmd.AddCommand(cli.NewModelsCmd())
	rootCmd.AddCommand(cli.NewRecommendCmd())
	rootCmd.AddCommand(cli.NewStatsCmd())
	rootCmd.AddCommand(cli.NewShareCmd())
	rootCmd.AddCommand(cli.NewBenchmarkCmd())
	rootCmd.AddCommand(cli.NewVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
