/*
Package session implements the work/rest session state machine.

A Clock owns at most one live session and advances it through working
and resting phases on absolute deadlines. Exactly one deadline timer is
armed at a time, keyed to a generation counter: every state mutation
cancels the previous timer and bumps the generation, so a stale timer
firing against a superseded session is a no-op.

All remaining-time queries recompute phaseEnd - now, never elapsed-tick
counts, so a suspended process resumes with the correct remaining
duration.
*/
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vmtran/cadence/internal/bus"
	"github.com/vmtran/cadence/internal/catalog"
)

// State is the session phase.
type State int

const (
	// Idle means no session is running.
	Idle State = iota
	// Working means a work interval is in progress.
	Working
	// RestingShort means a short rest is in progress.
	RestingShort
	// RestingLong means the closing long rest is in progress.
	RestingLong
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Working:
		return "working"
	case RestingShort:
		return "resting_short"
	case RestingLong:
		return "resting_long"
	default:
		return "unknown"
	}
}

// IsResting reports whether the state is one of the rest phases.
func (s State) IsResting() bool {
	return s == RestingShort || s == RestingLong
}

var (
	// ErrSessionActive is returned by Start when a session is already running.
	ErrSessionActive = errors.New("a session is already active")
)

// defaultPromptTimeout is how long a work-complete confirmation waits
// before rest starts automatically.
const defaultPromptTimeout = 5 * time.Minute

// Prompt choices.
const (
	ChoiceAcceptRest = "acceptRest"
	ChoiceSnooze     = "snooze"
)

// Prompt is a fire-and-forget confirmation request. ID identifies the
// session generation the prompt belongs to; answers carrying a stale ID
// are ignored.
type Prompt struct {
	ID      uint64
	ModelID string
	Cycle   int
	Choices []string
}

// Prompter receives prompts. Implementations must not block.
type Prompter interface {
	Prompt(p Prompt)
}

// Outcome describes a completed session, published on the
// sessionCompleted bus topic.
type Outcome struct {
	SessionID            string
	ModelID              string
	CompletionRate       float64
	ElapsedMinutes       float64
	EffectiveWorkMinutes float64
	StartedAt            time.Time
	EndedAt              time.Time
}

// BreakEvent is published on the breakTaken bus topic whenever a rest
// phase begins.
type BreakEvent struct {
	SessionID string
	ModelID   string
	Long      bool
	Manual    bool
	Minutes   int
}

// PhaseChange notifies an observer of every phase transition. Used by
// the run loop for display; may be nil.
type PhaseChange struct {
	State    State
	Cycle    int
	Deadline time.Time
}

// timerFactory arms a deadline callback and returns its cancel func.
type timerFactory func(d time.Duration, fn func()) func()

func realTimerFactory(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// Clock is the session state machine. All mutation is serialized behind
// a single mutex; timer callbacks, ticks and user commands all contend
// for it.
type Clock struct {
	mu sync.Mutex

	now           func() time.Time
	newTimer      timerFactory
	promptTimeout time.Duration

	prompter Prompter
	events   *bus.Bus
	onPhase  func(PhaseChange)

	gen    uint64
	cancel func()

	sessionID    string
	model        catalog.WorkRestModel
	state        State
	currentCycle int
	startTime    time.Time
	phaseStart   time.Time
	phaseEnd     time.Time
	awaiting     bool
}

// Option configures a Clock.
type Option func(*Clock)

// WithNow injects a clock source for deterministic tests.
func WithNow(now func() time.Time) Option {
	return func(c *Clock) { c.now = now }
}

// WithTimerFactory injects a timer implementation for tests.
func WithTimerFactory(f timerFactory) Option {
	return func(c *Clock) { c.newTimer = f }
}

// WithPromptTimeout overrides the no-answer confirmation timeout.
func WithPromptTimeout(d time.Duration) Option {
	return func(c *Clock) { c.promptTimeout = d }
}

// WithPhaseObserver registers a callback invoked on every phase
// transition. The callback runs with the clock lock held and must not
// call back into the clock.
func WithPhaseObserver(fn func(PhaseChange)) Option {
	return func(c *Clock) { c.onPhase = fn }
}

// NewClock creates an idle session clock. prompter may be nil (prompts
// are then skipped and rest starts immediately when work ends). events
// may be nil.
func NewClock(prompter Prompter, events *bus.Bus, opts ...Option) *Clock {
	c := &Clock{
		now:           time.Now,
		newTimer:      realTimerFactory,
		promptTimeout: defaultPromptTimeout,
		prompter:      prompter,
		events:        events,
		state:         Idle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start begins a new session with the given model. Fails if a session
// is already active.
func (c *Clock) Start(model catalog.WorkRestModel) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Idle {
		return ErrSessionActive
	}

	now := c.now()
	c.sessionID = uuid.NewString()
	c.model = model
	c.currentCycle = 1
	c.state = Working
	c.startTime = now
	c.awaiting = false
	c.beginPhaseLocked(Working, model.WorkDuration())
	return nil
}

// Stop ends any running session without recording an outcome.
// Returns true if a session was active.
func (c *Clock) Stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Idle {
		return false
	}
	c.resetLocked()
	return true
}

// SwitchModel stops the current session and starts a new one with the
// given model, discarding in-flight cycle progress.
func (c *Clock) SwitchModel(model catalog.WorkRestModel) error {
	c.mu.Lock()
	if c.state != Idle {
		c.resetLocked()
	}
	c.mu.Unlock()
	return c.Start(model)
}

// TakeManualBreak transitions from Working directly into the
// appropriate rest phase, bypassing the confirmation prompt. Returns
// false without mutation if the session is not working.
func (c *Clock) TakeManualBreak() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Working {
		return false
	}
	c.startRestLocked(true)
	return true
}

// EndRestEarly cancels a running rest and returns to Working for the
// same cycle. Returns false without mutation if not resting.
func (c *Clock) EndRestEarly() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.IsResting() {
		return false
	}
	c.state = Working
	c.awaiting = false
	c.beginPhaseLocked(Working, c.model.WorkDuration())
	return true
}

// Answer delivers a prompt answer. Answers for superseded prompts are
// ignored. snoozeMinutes applies only to the snooze choice.
func (c *Clock) Answer(promptID uint64, choice string, snoozeMinutes int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.awaiting || promptID != c.gen {
		return false
	}

	switch choice {
	case ChoiceAcceptRest:
		c.startRestLocked(false)
		return true
	case ChoiceSnooze:
		if snoozeMinutes <= 0 {
			snoozeMinutes = 5
		}
		c.awaiting = false
		c.beginPhaseLocked(Working, time.Duration(snoozeMinutes)*time.Minute)
		return true
	default:
		return false
	}
}

// TimeRemaining returns the time until the current phase deadline,
// always computed from the absolute deadline and clamped to zero.
func (c *Clock) TimeRemaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Idle {
		return 0
	}
	remaining := c.phaseEnd.Sub(c.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Snapshot describes the current session state.
type Snapshot struct {
	SessionID    string
	ModelID      string
	Model        catalog.WorkRestModel
	State        State
	CurrentCycle int
	TotalCycles  int
	StartTime    time.Time
	PhaseEnd     time.Time
	Awaiting     bool
}

// Snapshot returns a copy of the current session state.
func (c *Clock) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		SessionID:    c.sessionID,
		ModelID:      c.model.ID,
		Model:        c.model,
		State:        c.state,
		CurrentCycle: c.currentCycle,
		TotalCycles:  c.model.Cycles,
		StartTime:    c.startTime,
		PhaseEnd:     c.phaseEnd,
		Awaiting:     c.awaiting,
	}
}

// IsWorking reports whether a work interval is in progress.
func (c *Clock) IsWorking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == Working
}

// beginPhaseLocked sets the phase window and arms the deadline timer.
// Caller must hold c.mu and have set c.state.
func (c *Clock) beginPhaseLocked(state State, d time.Duration) {
	now := c.now()
	c.state = state
	c.phaseStart = now
	c.phaseEnd = now.Add(d)
	c.armLocked(d)
	c.notifyPhaseLocked()
}

// armLocked cancels any armed timer and installs a new one tied to the
// next generation. Caller must hold c.mu.
func (c *Clock) armLocked(d time.Duration) {
	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	gen := c.gen
	c.cancel = c.newTimer(d, func() { c.deadline(gen) })
}

// deadline handles a fired timer. Stale generations are discarded.
func (c *Clock) deadline(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return
	}

	switch {
	case c.state == Working && !c.awaiting:
		c.workCompleteLocked()
	case c.state == Working && c.awaiting:
		// No answer to the confirmation prompt: rest starts
		// automatically after the bounded timeout.
		c.startRestLocked(false)
	case c.state.IsResting():
		c.restCompleteLocked()
	}
}

// workCompleteLocked handles a work interval reaching its deadline:
// emit a confirmation prompt and arm the no-answer timeout.
func (c *Clock) workCompleteLocked() {
	if c.prompter == nil {
		c.startRestLocked(false)
		return
	}

	c.awaiting = true
	c.armLocked(c.promptTimeout)
	c.prompter.Prompt(Prompt{
		ID:      c.gen,
		ModelID: c.model.ID,
		Cycle:   c.currentCycle,
		Choices: []string{ChoiceAcceptRest, ChoiceSnooze},
	})
}

// startRestLocked enters the short or long rest phase. The rest is long
// only on the final cycle of a model that defines a long rest.
func (c *Clock) startRestLocked(manual bool) {
	long := c.model.HasLongRest() && c.currentCycle >= c.model.Cycles

	state := RestingShort
	d := c.model.RestDuration()
	if long {
		state = RestingLong
		d = c.model.LongRestDuration()
	}

	c.awaiting = false
	c.beginPhaseLocked(state, d)

	if c.events != nil {
		c.events.Publish(bus.BreakTaken, BreakEvent{
			SessionID: c.sessionID,
			ModelID:   c.model.ID,
			Long:      long,
			Manual:    manual,
			Minutes:   int(d.Minutes()),
		})
	}
}

// restCompleteLocked handles a rest interval reaching its deadline. The
// long rest closes the session; a short rest advances the cycle or, for
// a cycled model without a long rest, closes the session after the
// final cycle.
func (c *Clock) restCompleteLocked() {
	if c.state == RestingLong {
		c.completeLocked()
		return
	}

	if c.model.Cycles > 0 && c.currentCycle+1 > c.model.Cycles {
		c.completeLocked()
		return
	}

	c.currentCycle++
	c.beginPhaseLocked(Working, c.model.WorkDuration())
}

// completeLocked records the session outcome and returns to Idle.
func (c *Clock) completeLocked() {
	now := c.now()
	elapsed := now.Sub(c.startTime).Minutes()

	completionRate := 1.0
	if planned := c.model.PlannedMinutes(); planned > 0 {
		completionRate = elapsed / float64(planned)
		if completionRate > 1 {
			completionRate = 1
		}
	}

	outcome := Outcome{
		SessionID:            c.sessionID,
		ModelID:              c.model.ID,
		CompletionRate:       completionRate,
		ElapsedMinutes:       elapsed,
		EffectiveWorkMinutes: float64(c.model.WorkMinutes * c.model.Cycles),
		StartedAt:            c.startTime,
		EndedAt:              now,
	}

	c.resetLocked()

	if c.events != nil {
		c.events.Publish(bus.SessionCompleted, outcome)
	}
}

// resetLocked cancels the armed timer and returns to Idle. Caller must
// hold c.mu.
func (c *Clock) resetLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++
	c.state = Idle
	c.sessionID = ""
	c.model = catalog.WorkRestModel{}
	c.currentCycle = 0
	c.startTime = time.Time{}
	c.phaseStart = time.Time{}
	c.phaseEnd = time.Time{}
	c.awaiting = false
	c.notifyPhaseLocked()
}

// notifyPhaseLocked invokes the phase observer, if any.
func (c *Clock) notifyPhaseLocked() {
	if c.onPhase != nil {
		c.onPhase(PhaseChange{State: c.state, Cycle: c.currentCycle, Deadline: c.phaseEnd})
	}
}
