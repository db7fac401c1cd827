package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmtran/cadence/internal/catalog"
	"github.com/vmtran/cadence/internal/detect"
	"github.com/vmtran/cadence/internal/learning"
	"github.com/vmtran/cadence/internal/storage"
)

// NewRecommendCmd creates the 'recommend' command.
func NewRecommendCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend a work/rest model for right now",
		Long: `Score the catalog against your recorded session history for the
current time of day and inferred work type, and print the best match
with up to three alternatives.

With fewer than three relevant sessions recorded, a time-of-day
heuristic is used instead.`,
		Example: `  cadence recommend
  cadence recommend --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecommend(jsonOutput)
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}

func runRecommend(jsonOutput bool) error {
	cat := catalog.Load()
	store := storage.NewStore()
	defer store.Close()

	recorder := learning.NewRecorder(store)
	defer recorder.Stop()
	engine := learning.NewEngine(cat, recorder)

	analyzer := detect.NewAnalyzer(nil)
	ctx := analyzer.Classify(time.Now())

	rec := engine.Recommend(ctx)
	if rec == nil {
		fmt.Println("No models available to recommend.")
		return nil
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}

	fmt.Printf("Context: %s, %s energy, %s\n\n", ctx.TimeOfDay, ctx.EnergyLevel, ctx.WorkType)
	fmt.Printf("Recommended: %s (%s)\n", rec.Model.Name, rec.Model.ID)
	fmt.Printf("  Rhythm:     %dm work / %dm rest\n", rec.Model.WorkMinutes, rec.Model.RestMinutes)
	fmt.Printf("  Confidence: %.0f%%\n", rec.Confidence*100)
	fmt.Printf("  Reasoning:  %s\n", rec.Reason)

	if len(rec.Alternatives) > 0 {
		fmt.Println("\nAlternatives:")
		for _, alt := range rec.Alternatives {
			fmt.Printf("  %-14s %s\n", alt.Model.ID, alt.Suitability)
		}
	}

	return nil
}
