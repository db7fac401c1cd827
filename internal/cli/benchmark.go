package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vmtran/cadence/internal/benchmark"
)

// NewBenchmarkCmd creates the 'benchmark' command for measuring
// recommendation latency.
func NewBenchmarkCmd() *cobra.Command {
	var iterations int

	cmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Measure recommendation latency over synthetic history",
		Long: `Run the recommendation engine against synthetic performance history
of increasing size and report per-call latency percentiles.`,
		Example: `  cadence benchmark
  cadence benchmark --iterations 5000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBenchmark(iterations)
		},
	}

	cmd.Flags().IntVarP(&iterations, "iterations", "n", 0, "Recommendations per history size (0 = default)")

	return cmd
}

func runBenchmark(iterations int) error {
	results := benchmark.Run(iterations)
	fmt.Print(benchmark.Format(results))
	return nil
}
