package learning

import (
	"fmt"
	"sort"
	"time"

	"github.com/vmtran/cadence/internal/catalog"
	"github.com/vmtran/cadence/internal/detect"
	"github.com/vmtran/cadence/internal/storage"
)

const (
	// historyWindow bounds how far back history counts toward a
	// recommendation.
	historyWindow = 30 * 24 * time.Hour

	// minRelevantSamples is the matching-history size below which the
	// engine falls back to the static time-of-day recommendation.
	minRelevantSamples = 3

	// fallbackConfidence is the confidence of the static fallback.
	fallbackConfidence = 0.6

	// maxAlternatives is how many runner-up models a recommendation
	// carries.
	maxAlternatives = 3
)

// Alternative is a runner-up model in a recommendation.
type Alternative struct {
	Model       catalog.WorkRestModel `json:"model"`
	Score       float64               `json:"score"`
	Suitability string                `json:"suitability"`
}

// Recommendation is the engine's ranked answer for a context.
type Recommendation struct {
	Model        catalog.WorkRestModel `json:"model"`
	Score        float64               `json:"score"`
	Confidence   float64               `json:"confidence"`
	Reason       string                `json:"reason"`
	Alternatives []Alternative         `json:"alternatives,omitempty"`
}

// Engine scores catalog models against a context using performance
// history.
type Engine struct {
	catalog  *catalog.Catalog
	recorder *Recorder
	now      func() time.Time
}

// NewEngine creates a recommendation engine.
func NewEngine(c *catalog.Catalog, recorder *Recorder) *Engine {
	return &Engine{catalog: c, recorder: recorder, now: time.Now}
}

// NewEngineWithClock creates an engine with an injected clock for
// deterministic tests.
func NewEngineWithClock(c *catalog.Catalog, recorder *Recorder, now func() time.Time) *Engine {
	return &Engine{catalog: c, recorder: recorder, now: now}
}

// Recommend ranks catalog models for the context. Returns nil only if
// the catalog is empty.
func (e *Engine) Recommend(ctx detect.Context) *Recommendation {
	models := e.catalog.List()
	if len(models) == 0 {
		return nil
	}

	relevant := e.relevantHistory(ctx)
	if len(relevant) < minRelevantSamples {
		return e.fallback(ctx, models)
	}

	type scored struct {
		model      catalog.WorkRestModel
		score      float64
		confidence float64
	}

	ranked := make([]scored, 0, len(models))
	for _, m := range models {
		s, conf := score(forModel(relevant, m.ID))
		ranked = append(ranked, scored{model: m, score: s, confidence: conf})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	top := ranked[0]
	rec := &Recommendation{
		Model:      top.model,
		Score:      top.score,
		Confidence: top.confidence,
		Reason: fmt.Sprintf("best historical fit for %s %s work (%d matching sessions)",
			ctx.TimeOfDay, ctx.WorkType, len(relevant)),
	}

	for _, alt := range ranked[1:] {
		if len(rec.Alternatives) >= maxAlternatives {
			break
		}
		rec.Alternatives = append(rec.Alternatives, Alternative{
			Model:       alt.model,
			Score:       alt.score,
			Suitability: suitability(alt.model, ctx.EnergyLevel),
		})
	}

	return rec
}

// RelevantHistoryFor exposes the matching-history subset for one model,
// used by the switch policy's benefit rating.
func (e *Engine) RelevantHistoryFor(ctx detect.Context, modelID string) []storage.PerformanceRecord {
	return forModel(e.relevantHistory(ctx), modelID)
}

// relevantHistory filters history down to entries matching the
// context's time of day and work type within the history window.
func (e *Engine) relevantHistory(ctx detect.Context) []storage.PerformanceRecord {
	history := e.recorder.History(e.now().Add(-historyWindow))

	var relevant []storage.PerformanceRecord
	for _, r := range history {
		if r.TimeOfDay == ctx.TimeOfDay && r.WorkType == ctx.WorkType {
			relevant = append(relevant, r)
		}
	}
	return relevant
}

// fallback is the static time-of-day recommendation used when there is
// not enough matching history: mornings get the longest work interval,
// afternoons a medium one, evenings the shortest.
func (e *Engine) fallback(ctx detect.Context, models []catalog.WorkRestModel) *Recommendation {
	byWork := make([]catalog.WorkRestModel, len(models))
	copy(byWork, models)
	sort.SliceStable(byWork, func(i, j int) bool { return byWork[i].WorkMinutes < byWork[j].WorkMinutes })

	var pick catalog.WorkRestModel
	switch ctx.TimeOfDay {
	case detect.Morning:
		pick = byWork[len(byWork)-1]
	case detect.Afternoon:
		pick = byWork[len(byWork)/2]
	default:
		pick = byWork[0]
	}

	return &Recommendation{
		Model:      pick,
		Score:      0,
		Confidence: fallbackConfidence,
		Reason:     fmt.Sprintf("default %s pick (not enough matching history)", ctx.TimeOfDay),
	}
}

// suitability describes how well a model fits the current energy level.
func suitability(m catalog.WorkRestModel, energy string) string {
	switch energy {
	case detect.EnergyHigh:
		if m.WorkMinutes >= 45 {
			return "good fit for high energy"
		}
		return "may underuse high energy"
	case detect.EnergyLow:
		if m.WorkMinutes <= 25 {
			return "gentle enough for low energy"
		}
		return "demanding for low energy"
	default:
		return "reasonable for medium energy"
	}
}
