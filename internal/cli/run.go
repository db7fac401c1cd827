package cli

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmtran/cadence/internal/activity"
	"github.com/vmtran/cadence/internal/bus"
	"github.com/vmtran/cadence/internal/catalog"
	"github.com/vmtran/cadence/internal/config"
	"github.com/vmtran/cadence/internal/detect"
	"github.com/vmtran/cadence/internal/learning"
	"github.com/vmtran/cadence/internal/scheduler"
	"github.com/vmtran/cadence/internal/session"
	"github.com/vmtran/cadence/internal/storage"
)

// NewRunCmd creates the 'run' command, the foreground scheduler.
func NewRunCmd() *cobra.Command {
	var modelID string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the interval scheduler in the foreground",
		Long: `Start the cadence scheduler with the configured (or given) work/rest
model and keep it in the foreground.

The scheduler prints phase transitions and prompts to stdout and reads
one-line commands from stdin:

  rest            accept the rest when prompted
  snooze [min]    keep working a little longer (default 5 min)
  break           take a manual break now
  resume          end the current rest early
  switch <id>     switch to another model (restarts the session)
  yes / no        confirm or dismiss a suggested model switch
  rate <1-5>      rate the completed session
  done            mark a break exercise as completed
  status          show the current phase and remaining time
  stop            end the session
  quit            stop the session and exit`,
		Example: `  # Run with the configured startup model
  cadence run

  # Run a specific model
  cadence run --model deep-90-20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScheduler(modelID)
		},
	}

	cmd.Flags().StringVarP(&modelID, "model", "m", "", "Model id to start with (defaults to configured activeModel)")

	return cmd
}

// consoleUI implements scheduler.UI on stdout.
type consoleUI struct {
	// lastRestPrompt holds the id of the most recent rest prompt so
	// typed answers can reference it.
	lastRestPrompt atomic.Uint64
}

func (u *consoleUI) Notify(msg string) {
	fmt.Printf("• %s\n", msg)
}

func (u *consoleUI) PromptRest(p session.Prompt) {
	u.lastRestPrompt.Store(p.ID)
	fmt.Printf("⏰ Work interval %d finished. Type 'rest' to start the break or 'snooze [min]' to keep going.\n", p.Cycle)
}

func (u *consoleUI) PromptSwitch(target catalog.WorkRestModel, reason string, benefit float64) {
	fmt.Printf("💡 Suggested switch to %s (%s; expected benefit %.0f). Type 'yes' to switch or 'no' to dismiss.\n",
		target.Name, reason, benefit)
}

func (u *consoleUI) PromptRating() {
	fmt.Println("⭐ How did that session go? Type 'rate <1-5>' (optional).")
}

// runScheduler wires the full engine and processes stdin commands until
// quit or SIGINT/SIGTERM.
func runScheduler(modelID string) error {
	cfg, err := config.LoadOrCreate()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfgPath, err := config.GetDefaultConfigPath()
	if err != nil {
		return err
	}

	if modelID == "" {
		modelID = cfg.ActiveModel
	}

	cat := catalog.Load()
	store := storage.NewStore()
	if err := store.Init(); err != nil {
		log.Printf("Warning: running without persistence: %v", err)
	}
	defer store.Close()

	provider := activity.NewProvider(cfg.ActivityCommand)
	defer provider.Close()

	events := bus.New()
	recorder := learning.NewRecorder(store)
	recEngine := learning.NewEngine(cat, recorder)
	policy := learning.NewPolicy(recEngine)
	analyzer := detect.NewAnalyzer(signalAdapter{provider})

	ui := &consoleUI{}
	engine := scheduler.New(scheduler.Deps{
		Catalog:    cat,
		Analyzer:   analyzer,
		Recommend:  recEngine,
		Policy:     policy,
		Recorder:   recorder,
		Events:     events,
		Config:     cfg,
		ConfigPath: cfgPath,
		UI:         ui,
	})

	if err := engine.StartSession(modelID); err != nil {
		return err
	}
	printStatus(engine)

	// Signal handling: stop cleanly on SIGINT/SIGTERM.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		engine.Shutdown()
		os.Exit(0)
	}()

	go readCommands(os.Stdin, engine, ui, events)

	engine.Run()
	return nil
}

// signalAdapter bridges the activity provider to the detect package.
type signalAdapter struct {
	provider *activity.Provider
}

func (a signalAdapter) Current() *detect.Signal {
	s := a.provider.Current()
	if s == nil {
		return nil
	}
	return &detect.Signal{
		FatigueSignals:        s.FatigueSignals,
		AdaptationSuggestions: s.AdaptationSuggestions,
	}
}

// readCommands processes one-line commands from in until EOF or quit.
func readCommands(in io.Reader, engine *scheduler.Engine, ui *consoleUI, events *bus.Bus) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		fields := strings.Fields(strings.ToLower(scanner.Text()))
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "rest":
			if !engine.AnswerRest(ui.lastRestPrompt.Load(), session.ChoiceAcceptRest, 0) {
				fmt.Println("No rest prompt is waiting.")
			}

		case "snooze":
			minutes := 5
			if len(fields) > 1 {
				if n, err := strconv.Atoi(fields[1]); err == nil {
					minutes = n
				}
			}
			if engine.AnswerRest(ui.lastRestPrompt.Load(), session.ChoiceSnooze, minutes) {
				fmt.Printf("Snoozed for %d minutes.\n", minutes)
			} else {
				fmt.Println("No rest prompt is waiting.")
			}

		case "break":
			if engine.TakeBreak() {
				fmt.Println("Manual break started.")
			} else {
				fmt.Println("Not working right now; no break to take.")
			}

		case "resume":
			if engine.ResumeWork() {
				fmt.Println("Back to work.")
			} else {
				fmt.Println("Not resting right now.")
			}

		case "switch":
			if len(fields) < 2 {
				fmt.Println("Usage: switch <model-id>")
				continue
			}
			if err := engine.SwitchSession(fields[1]); err != nil {
				fmt.Printf("Switch failed: %v\n", err)
			} else {
				fmt.Printf("Switched to %s.\n", fields[1])
			}

		case "yes":
			if engine.ConfirmSwitch() {
				fmt.Println("Switched to the suggested model.")
			} else {
				fmt.Println("No switch suggestion is waiting.")
			}

		case "no":
			engine.DismissSwitch()

		case "rate":
			if len(fields) < 2 {
				fmt.Println("Usage: rate <1-5>")
				continue
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil || !engine.RateSession(n) {
				fmt.Println("Nothing to rate (or rating out of range).")
			} else {
				fmt.Println("Thanks, noted.")
			}

		case "done":
			events.Publish(bus.ExerciseCompleted, nil)

		case "status":
			printStatus(engine)

		case "stop":
			if engine.StopSession() {
				fmt.Println("Session stopped.")
			} else {
				fmt.Println("No session is running.")
			}

		case "quit", "exit":
			engine.Shutdown()
			return

		default:
			fmt.Printf("Unknown command %q.\n", fields[0])
		}
	}
}

// printStatus shows the current phase, cycle and remaining time.
func printStatus(engine *scheduler.Engine) {
	snap := engine.Clock().Snapshot()
	if snap.State == session.Idle {
		fmt.Println("Idle; no session running.")
		return
	}

	remaining := engine.Clock().TimeRemaining().Round(time.Second)
	cycle := fmt.Sprintf("cycle %d", snap.CurrentCycle)
	if snap.TotalCycles > 0 {
		cycle = fmt.Sprintf("cycle %d/%d", snap.CurrentCycle, snap.TotalCycles)
	}
	fmt.Printf("%s [%s] %s, %s remaining\n", snap.Model.Name, snap.State, cycle, remaining)
}
