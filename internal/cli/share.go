package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmtran/cadence/internal/config"
	"github.com/vmtran/cadence/internal/federated"
	"github.com/vmtran/cadence/internal/storage"
)

// NewShareCmd creates the 'share' command group for federated
// aggregation.
func NewShareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Manage privacy-preserving community sharing",
		Long: `Control whether anonymized session summaries are contributed to the
community model, submit pending history, and inspect the current
global model.

Summaries are noised (differential privacy), committed and sealed
before they are queued. Nothing is shared without consent.`,
	}

	cmd.AddCommand(newShareConsentCmd())
	cmd.AddCommand(newShareSubmitCmd())
	cmd.AddCommand(newShareStatusCmd())

	return cmd
}

func newShareConsentCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "consent <on|off>",
		Short:     "Grant or revoke sharing consent",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShareConsent(args[0])
		},
	}
}

func newShareSubmitCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Summarize recent history and queue a contribution",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShareSubmit(days)
		},
	}
	cmd.Flags().IntVarP(&days, "days", "d", 7, "How many days of history to summarize")

	return cmd
}

func newShareStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show consent, queue length and the global model",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShareStatus()
		},
	}
}

func runShareConsent(value string) error {
	cfg, err := config.LoadOrCreate()
	if err != nil {
		return err
	}
	path, err := config.GetDefaultConfigPath()
	if err != nil {
		return err
	}

	if cfg.Federation == nil {
		cfg.Federation = &config.Federation{Epsilon: 1.0}
	}

	switch value {
	case "on":
		cfg.Federation.Consent = true
	case "off":
		cfg.Federation.Consent = false
	default:
		return fmt.Errorf("invalid consent value %q (want on or off)", value)
	}

	if err := config.Save(cfg, path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	if cfg.Federation.Consent {
		fmt.Println("✓ Sharing consent granted. Session summaries will be noised, sealed and queued.")
	} else {
		fmt.Println("✓ Sharing consent revoked. Nothing will leave this machine.")
	}
	return nil
}

func runShareSubmit(days int) error {
	cfg, err := config.LoadOrCreate()
	if err != nil {
		return err
	}
	if !cfg.HasConsent() {
		fmt.Println("Sharing consent is off. Run 'cadence share consent on' first.")
		return nil
	}

	store := storage.NewStore()
	if err := store.Init(); err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer store.Close()

	history, err := store.GetPerformanceHistory(time.Now().AddDate(0, 0, -days))
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	if len(history) == 0 {
		fmt.Printf("No sessions recorded in the last %d days; nothing to contribute.\n", days)
		return nil
	}

	agg, err := federated.NewAggregator(store, cfg.Epsilon())
	if err != nil {
		return fmt.Errorf("failed to initialize aggregator: %w", err)
	}

	queued, err := agg.Submit(history, true)
	if err != nil {
		return fmt.Errorf("contribution failed: %w", err)
	}
	if !queued {
		fmt.Println("Nothing was queued.")
		return nil
	}

	fmt.Printf("✓ Contribution queued (%d sessions summarized). Queue length: %d\n",
		len(history), agg.QueueLength())
	return nil
}

func runShareStatus() error {
	cfg, err := config.LoadOrCreate()
	if err != nil {
		return err
	}

	consent := "off"
	if cfg.HasConsent() {
		consent = "on"
	}
	fmt.Printf("Consent: %s (epsilon %.1f)\n", consent, cfg.Epsilon())

	store := storage.NewStore()
	if err := store.Init(); err != nil {
		fmt.Println("History database unavailable; no queue or model to show.")
		return nil
	}
	defer store.Close()

	queue, err := store.GetContributionQueue()
	if err == nil {
		fmt.Printf("Queued contributions: %d\n", len(queue))
	}

	model, err := store.GetGlobalModel()
	if err != nil || model == nil {
		fmt.Println("No global model yet.")
		return nil
	}

	fmt.Printf("\nGlobal model %s\n", model.Version)
	fmt.Printf("  Baseline completion: %.0f%%\n", model.BasePerformance*100)
	fmt.Printf("  Contributors:        %d\n", model.ContributorCount)
	fmt.Printf("  Insights folded:     %d\n", len(model.Insights))
	fmt.Printf("  Last updated:        %s\n", model.LastUpdated.Format(time.RFC1123))
	return nil
}
