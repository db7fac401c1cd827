package learning

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/vmtran/cadence/internal/catalog"
	"github.com/vmtran/cadence/internal/detect"
)

const (
	// minSwitchConfidence gates automatic switches on recommendation
	// confidence.
	minSwitchConfidence = 0.7

	// switchCooldown is the minimum time between automatic switches.
	switchCooldown = 30 * time.Minute

	// minElapsedWork is the minimum session age before an automatic
	// switch may fire.
	minElapsedWork = 30 * time.Minute

	// minExpectedBenefit is the minimum benefit (in points) to justify
	// a switch.
	minExpectedBenefit = 15.0

	// timeOfDayPromptRate is the probability a time-of-day boundary
	// crossing produces a prompt (the rest are suppressed to limit
	// frequency).
	timeOfDayPromptRate = 0.3
)

// Decision is the outcome of one switch evaluation.
type Decision struct {
	ShouldSwitch    bool
	Target          *catalog.WorkRestModel
	Reason          string
	Confidence      float64
	ExpectedBenefit float64
}

// SessionView is the slice of session state the policy needs.
type SessionView struct {
	ModelID   string
	IsWorking bool
	StartTime time.Time
}

// Policy gates whether a recommendation becomes an actual automatic
// switch. The cooldown state is guarded internally: Evaluate runs on
// the scheduler's ticker goroutine while MarkSwitched arrives from the
// command path.
type Policy struct {
	engine *Engine
	now    func() time.Time
	rng    *rand.Rand

	mu         sync.Mutex
	lastSwitch time.Time
}

// NewPolicy creates a switch decision policy.
func NewPolicy(engine *Engine) *Policy {
	return &Policy{
		engine: engine,
		now:    time.Now,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewPolicyWithClock creates a policy with injected clock and RNG for
// deterministic tests.
func NewPolicyWithClock(engine *Engine, now func() time.Time, rng *rand.Rand) *Policy {
	return &Policy{engine: engine, now: now, rng: rng}
}

// Evaluate decides whether the working session should switch models.
func (p *Policy) Evaluate(sess SessionView, ctx detect.Context) Decision {
	if !sess.IsWorking {
		return reject("session is not working")
	}

	rec := p.engine.Recommend(ctx)
	if rec == nil {
		return reject("no recommendation available")
	}
	if rec.Model.ID == sess.ModelID {
		return reject("already on the recommended model")
	}
	if rec.Confidence < minSwitchConfidence {
		return reject(fmt.Sprintf("confidence %.2f below threshold", rec.Confidence))
	}

	now := p.now()
	p.mu.Lock()
	cooling := !p.lastSwitch.IsZero() && now.Sub(p.lastSwitch) < switchCooldown
	p.mu.Unlock()
	if cooling {
		return reject("switch cooldown active")
	}
	if now.Sub(sess.StartTime) < minElapsedWork {
		return reject("session too young to switch")
	}

	benefit := p.expectedBenefit(ctx, rec.Model.ID, sess.ModelID)
	if benefit < minExpectedBenefit {
		return reject(fmt.Sprintf("expected benefit %.1f below threshold", benefit))
	}

	target := rec.Model
	return Decision{
		ShouldSwitch:    true,
		Target:          &target,
		Reason:          rec.Reason,
		Confidence:      rec.Confidence,
		ExpectedBenefit: benefit,
	}
}

// MarkSwitched records the time of an executed switch for the cooldown.
func (p *Policy) MarkSwitched() {
	p.mu.Lock()
	p.lastSwitch = p.now()
	p.mu.Unlock()
}

// expectedBenefit is the rating gap between the candidate and current
// model, scaled to points and floored at zero.
func (p *Policy) expectedBenefit(ctx detect.Context, newModelID, currentModelID string) float64 {
	newRating := rating(p.engine.RelevantHistoryFor(ctx, newModelID))
	curRating := rating(p.engine.RelevantHistoryFor(ctx, currentModelID))

	benefit := (newRating - curRating) * 100
	if benefit < 0 {
		return 0
	}
	return benefit
}

func reject(reason string) Decision {
	return Decision{ShouldSwitch: false, Reason: reason}
}

// CheckPromptTriggers runs the lighter 5-minute checks. These only ever
// produce suggestion prompts, never automatic switches: a time-of-day
// boundary crossing (suppressed ~70% of the time) and a mismatch
// between the active model's inferred work type and the detected one.
func (p *Policy) CheckPromptTriggers(prev, cur detect.Context, model catalog.WorkRestModel) []string {
	var prompts []string

	if prev.TimeOfDay != "" && prev.TimeOfDay != cur.TimeOfDay {
		if p.rng.Float64() < timeOfDayPromptRate {
			prompts = append(prompts, fmt.Sprintf(
				"it's %s now; a different interval model may fit better", cur.TimeOfDay))
		}
	}

	if inferred := model.InferredWorkType(); inferred != cur.WorkType {
		prompts = append(prompts, fmt.Sprintf(
			"active model is shaped for %s but current work looks like %s", inferred, cur.WorkType))
	}

	return prompts
}
