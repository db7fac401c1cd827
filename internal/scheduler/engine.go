/*
Package scheduler composes the session clock, context analyzer,
recommendation engine, switch policy, performance recorder and
federated aggregator into one running engine.

A single mutex serializes every state mutation: deadline callbacks, the
evaluation ticks and user commands all funnel through it. Nothing here
blocks its caller; prompts are fire-and-forget and federated work runs
off the scheduling path.
*/
package scheduler

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/vmtran/cadence/internal/bus"
	"github.com/vmtran/cadence/internal/catalog"
	"github.com/vmtran/cadence/internal/config"
	"github.com/vmtran/cadence/internal/detect"
	"github.com/vmtran/cadence/internal/learning"
	"github.com/vmtran/cadence/internal/session"
)

// ratingTimeout is how long a completed session waits for a rating
// before it is recorded unrated.
const ratingTimeout = 2 * time.Minute

// UI receives prompts and notices from the engine. Implementations
// must not block; answers come back through engine methods.
type UI interface {
	// Notify shows a one-line notice.
	Notify(msg string)

	// PromptRest asks whether to start the rest now or snooze.
	PromptRest(p session.Prompt)

	// PromptSwitch asks for confirmation of an automatic model switch.
	PromptSwitch(target catalog.WorkRestModel, reason string, benefit float64)

	// PromptRating asks for a 1-5 session rating.
	PromptRating()
}

// Engine is the top-level scheduler.
type Engine struct {
	catalog   *catalog.Catalog
	clock     *session.Clock
	analyzer  *detect.Analyzer
	recommend *learning.Engine
	policy    *learning.Policy
	recorder  *learning.Recorder
	events    *bus.Bus
	cfg       *config.Config
	cfgPath   string
	ui        UI

	mu             sync.Mutex
	prevContext    detect.Context
	pendingSwitch  *learning.Decision
	pendingOutcome *session.Outcome
	ratingTimer    *time.Timer

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Deps bundles the engine's collaborators.
type Deps struct {
	Catalog    *catalog.Catalog
	Analyzer   *detect.Analyzer
	Recommend  *learning.Engine
	Policy     *learning.Policy
	Recorder   *learning.Recorder
	Events     *bus.Bus
	Config     *config.Config
	ConfigPath string
	UI         UI
}

// New creates an engine. The session clock is constructed here so its
// prompts and events flow back through the engine.
func New(deps Deps) *Engine {
	e := &Engine{
		catalog:   deps.Catalog,
		analyzer:  deps.Analyzer,
		recommend: deps.Recommend,
		policy:    deps.Policy,
		recorder:  deps.Recorder,
		events:    deps.Events,
		cfg:       deps.Config,
		cfgPath:   deps.ConfigPath,
		ui:        deps.UI,
		stopChan:  make(chan struct{}),
	}

	promptTimeout := time.Duration(deps.Config.PromptTimeoutMinutes()) * time.Minute
	e.clock = session.NewClock(e, deps.Events, session.WithPromptTimeout(promptTimeout))

	deps.Events.Subscribe(bus.SessionCompleted, e.onSessionCompleted)
	deps.Events.Subscribe(bus.BreakTaken, e.onBreakTaken)
	deps.Events.Subscribe(bus.ExerciseCompleted, e.onExerciseCompleted)

	return e
}

// Clock exposes the session clock for status queries.
func (e *Engine) Clock() *session.Clock {
	return e.clock
}

// Run starts the evaluation tickers and blocks until Stop is called.
func (e *Engine) Run() {
	evalInterval := time.Duration(e.cfg.EvaluationIntervalMinutes()) * time.Minute
	quickInterval := time.Duration(e.cfg.QuickCheckIntervalMinutes()) * time.Minute

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		evalTicker := time.NewTicker(evalInterval)
		defer evalTicker.Stop()
		quickTicker := time.NewTicker(quickInterval)
		defer quickTicker.Stop()

		for {
			select {
			case <-evalTicker.C:
				e.evaluateSwitch()
			case <-quickTicker.C:
				e.quickCheck()
			case <-e.stopChan:
				return
			}
		}
	}()

	e.wg.Wait()
}

// Shutdown stops the engine: tickers stop, the session ends without a
// record, the recorder flushes.
func (e *Engine) Shutdown() {
	e.stopOnce.Do(func() {
		close(e.stopChan)
		e.clock.Stop()
		e.flushPendingOutcome(0)
		e.recorder.Stop()
	})
	e.wg.Wait()
}

// StartSession starts a session with the given model id.
func (e *Engine) StartSession(modelID string) error {
	model, ok := e.catalog.ByID(modelID)
	if !ok {
		return fmt.Errorf("model %q not found in catalog", modelID)
	}
	// Starting a new session forfeits any unrated previous outcome.
	e.flushPendingOutcome(0)
	return e.clock.Start(model)
}

// StopSession ends the running session without recording an outcome.
func (e *Engine) StopSession() bool {
	return e.clock.Stop()
}

// SwitchSession switches to another model, discarding cycle progress.
func (e *Engine) SwitchSession(modelID string) error {
	model, ok := e.catalog.ByID(modelID)
	if !ok {
		return fmt.Errorf("model %q not found in catalog", modelID)
	}
	if err := e.clock.SwitchModel(model); err != nil {
		return err
	}
	e.writeBackActiveModel(modelID)
	return nil
}

// TakeBreak starts a manual break.
func (e *Engine) TakeBreak() bool {
	return e.clock.TakeManualBreak()
}

// ResumeWork ends a rest early.
func (e *Engine) ResumeWork() bool {
	return e.clock.EndRestEarly()
}

// AnswerRest forwards a rest prompt answer to the clock.
func (e *Engine) AnswerRest(promptID uint64, choice string, snoozeMinutes int) bool {
	return e.clock.Answer(promptID, choice, snoozeMinutes)
}

// RateSession applies a 1-5 rating to the most recently completed
// session. Returns false if no session is awaiting a rating.
func (e *Engine) RateSession(rating int) bool {
	if rating < 1 || rating > 5 {
		return false
	}
	return e.flushPendingOutcome(rating)
}

// ConfirmSwitch executes a pending automatic switch.
func (e *Engine) ConfirmSwitch() bool {
	e.mu.Lock()
	decision := e.pendingSwitch
	e.pendingSwitch = nil
	e.mu.Unlock()

	if decision == nil || decision.Target == nil {
		return false
	}

	if err := e.clock.SwitchModel(*decision.Target); err != nil {
		log.Printf("Warning: failed to switch model: %v", err)
		return false
	}
	e.policy.MarkSwitched()
	e.writeBackActiveModel(decision.Target.ID)
	return true
}

// DismissSwitch discards a pending automatic switch.
func (e *Engine) DismissSwitch() {
	e.mu.Lock()
	e.pendingSwitch = nil
	e.mu.Unlock()
}

// Prompt implements session.Prompter: rest confirmations pass straight
// through to the UI.
func (e *Engine) Prompt(p session.Prompt) {
	if e.ui != nil {
		e.ui.PromptRest(p)
	}
}

// evaluateSwitch runs the full 10-minute evaluation: classify, score,
// gate, and on acceptance ask the user to confirm the switch.
func (e *Engine) evaluateSwitch() {
	if !e.clock.IsWorking() {
		return
	}

	snap := e.clock.Snapshot()
	ctx := e.analyzer.Classify(snap.StartTime)

	decision := e.policy.Evaluate(learning.SessionView{
		ModelID:   snap.ModelID,
		IsWorking: snap.State == session.Working,
		StartTime: snap.StartTime,
	}, ctx)

	if !decision.ShouldSwitch {
		return
	}

	e.mu.Lock()
	e.pendingSwitch = &decision
	e.mu.Unlock()

	if e.ui != nil {
		e.ui.PromptSwitch(*decision.Target, decision.Reason, decision.ExpectedBenefit)
	}
}

// quickCheck runs the lighter 5-minute prompt-only triggers.
func (e *Engine) quickCheck() {
	snap := e.clock.Snapshot()
	if snap.State == session.Idle {
		return
	}

	ctx := e.analyzer.Classify(snap.StartTime)

	e.mu.Lock()
	prev := e.prevContext
	e.prevContext = ctx
	e.mu.Unlock()

	for _, msg := range e.policy.CheckPromptTriggers(prev, ctx, snap.Model) {
		if e.ui != nil {
			e.ui.Notify(msg)
		}
	}
}

// onSessionCompleted stashes the outcome and waits briefly for a
// rating before recording it unrated.
func (e *Engine) onSessionCompleted(payload interface{}) {
	outcome, ok := payload.(session.Outcome)
	if !ok {
		return
	}

	e.mu.Lock()
	e.pendingOutcome = &outcome
	if e.ratingTimer != nil {
		e.ratingTimer.Stop()
	}
	e.ratingTimer = time.AfterFunc(ratingTimeout, func() { e.flushPendingOutcome(0) })
	e.mu.Unlock()

	if e.ui != nil {
		e.ui.Notify(fmt.Sprintf("session complete: %.0f%% of planned time", outcome.CompletionRate*100))
		e.ui.PromptRating()
	}
}

// flushPendingOutcome records the stashed outcome with the given
// rating (0 = unrated). Returns false if nothing was pending.
func (e *Engine) flushPendingOutcome(rating int) bool {
	e.mu.Lock()
	outcome := e.pendingOutcome
	e.pendingOutcome = nil
	if e.ratingTimer != nil {
		e.ratingTimer.Stop()
		e.ratingTimer = nil
	}
	e.mu.Unlock()

	if outcome == nil {
		return false
	}

	ctx := e.analyzer.Classify(outcome.StartedAt)
	e.recorder.Record(outcome.ModelID, ctx, outcome.ElapsedMinutes, outcome.CompletionRate, rating)
	return true
}

// onBreakTaken surfaces break starts as notices.
func (e *Engine) onBreakTaken(payload interface{}) {
	event, ok := payload.(session.BreakEvent)
	if !ok || e.ui == nil {
		return
	}
	kind := "short"
	if event.Long {
		kind = "long"
	}
	e.ui.Notify(fmt.Sprintf("%s break started (%d min)", kind, event.Minutes))
}

// onExerciseCompleted acknowledges a finished break exercise.
func (e *Engine) onExerciseCompleted(payload interface{}) {
	if e.ui != nil {
		e.ui.Notify("exercise logged, enjoy the rest of the break")
	}
}

// writeBackActiveModel persists the confirmed model id to config.
func (e *Engine) writeBackActiveModel(modelID string) {
	e.cfg.ActiveModel = modelID
	if e.cfgPath == "" {
		return
	}
	if err := config.Save(e.cfg, e.cfgPath); err != nil {
		log.Printf("Warning: failed to persist active model: %v", err)
	}
}
