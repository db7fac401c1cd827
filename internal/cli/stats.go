package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmtran/cadence/internal/storage"
)

// modelStats aggregates recorded sessions for one model.
type modelStats struct {
	ModelID         string  `json:"modelId"`
	Sessions        int     `json:"sessions"`
	TotalMinutes    float64 `json:"totalMinutes"`
	AvgCompletion   float64 `json:"avgCompletion"`
	AvgSatisfaction float64 `json:"avgSatisfaction,omitempty"`
	RatedSessions   int     `json:"ratedSessions"`
}

// NewStatsCmd creates the 'stats' command.
func NewStatsCmd() *cobra.Command {
	var jsonOutput bool
	var days int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show recorded session statistics per model",
		Example: `  cadence stats
  cadence stats --days 7
  cadence stats --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(jsonOutput, days)
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	cmd.Flags().IntVarP(&days, "days", "d", 30, "How many days of history to include")

	return cmd
}

func runStats(jsonOutput bool, days int) error {
	store := storage.NewStore()
	if err := store.Init(); err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer store.Close()

	since := time.Now().AddDate(0, 0, -days)
	records, err := store.GetPerformanceHistory(since)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	if len(records) == 0 {
		fmt.Printf("No sessions recorded in the last %d days.\n", days)
		return nil
	}

	stats := aggregateStats(records)

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	fmt.Printf("Sessions in the last %d days: %d\n\n", days, len(records))
	fmt.Printf("  %-16s %8s %10s %12s %12s\n", "MODEL", "COUNT", "MINUTES", "COMPLETION", "SATISFACTION")
	for _, s := range stats {
		satisfaction := "unrated"
		if s.RatedSessions > 0 {
			satisfaction = fmt.Sprintf("%.1f/5", s.AvgSatisfaction)
		}
		fmt.Printf("  %-16s %8d %10.0f %11.0f%% %12s\n",
			s.ModelID, s.Sessions, s.TotalMinutes, s.AvgCompletion*100, satisfaction)
	}

	return nil
}

// aggregateStats groups records by model, sorted by session count.
func aggregateStats(records []storage.PerformanceRecord) []modelStats {
	byModel := make(map[string]*modelStats)
	for _, rec := range records {
		s, ok := byModel[rec.ModelID]
		if !ok {
			s = &modelStats{ModelID: rec.ModelID}
			byModel[rec.ModelID] = s
		}
		s.Sessions++
		s.TotalMinutes += rec.EffectiveWorkMinutes
		s.AvgCompletion += rec.CompletionRate
		if rec.SatisfactionScore > 0 {
			s.AvgSatisfaction += float64(rec.SatisfactionScore)
			s.RatedSessions++
		}
	}

	stats := make([]modelStats, 0, len(byModel))
	for _, s := range byModel {
		s.AvgCompletion /= float64(s.Sessions)
		if s.RatedSessions > 0 {
			s.AvgSatisfaction /= float64(s.RatedSessions)
		}
		stats = append(stats, *s)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Sessions != stats[j].Sessions {
			return stats[i].Sessions > stats[j].Sessions
		}
		return stats[i].ModelID < stats[j].ModelID
	})
	return stats
}
