package cli

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/vmtran/cadence/internal/catalog"
)

// NewModelsCmd creates the 'models' command for listing work/rest models.
func NewModelsCmd() *cobra.Command {
	var jsonOutput bool
	var search string

	cmd := &cobra.Command{
		Use:     "models",
		Aliases: []string{"ls"},
		Short:   "List available work/rest models",
		Long: `Display the built-in work/rest models together with any custom
models defined in ~/.cadence-models.yaml`,
		Example: `  cadence models
  cadence models --search "deep focus"
  cadence models --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModels(jsonOutput, search)
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Full-text search over name, description and category")

	return cmd
}

// runModels lists the catalog, optionally filtered by a search query.
func runModels(jsonOutput bool, search string) error {
	cat := catalog.Load()

	models := cat.List()
	if search != "" {
		idx, err := catalog.NewIndex(cat)
		if err != nil {
			return fmt.Errorf("failed to build search index: %w", err)
		}
		defer idx.Close()

		results, err := idx.Search(search, 10)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		models = models[:0]
		for _, r := range results {
			models = append(models, r.Model)
		}
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(models); err != nil {
			log.Printf("Warning: failed to encode models: %v", err)
		}
		return nil
	}

	if len(models) == 0 {
		fmt.Println("No models matched.")
		return nil
	}

	fmt.Printf("Work/rest models (%d):\n\n", len(models))
	for _, m := range models {
		fmt.Printf("  %s\n", m.ID)
		fmt.Printf("    Name:     %s\n", m.Name)
		fmt.Printf("    Rhythm:   %dm work / %dm rest", m.WorkMinutes, m.RestMinutes)
		if m.Cycles > 0 {
			fmt.Printf(" × %d cycles", m.Cycles)
			if m.HasLongRest() {
				fmt.Printf(", then %dm long rest", m.LongRestMinutes)
			}
		}
		fmt.Println()
		if m.Category != "" {
			fmt.Printf("    Category: %s\n", m.Category)
		}
		if m.Description != "" {
			fmt.Printf("    About:    %s\n", m.Description)
		}
		fmt.Println()
	}

	return nil
}
