/*
Package detect derives a situational context snapshot from the wall
clock, the running session and an optional external activity signal.

The snapshot is recomputed on every evaluation and never persisted.
*/
package detect

import (
	"strings"
	"time"
)

// Time-of-day buckets.
const (
	Morning   = "morning"
	Afternoon = "afternoon"
	Evening   = "evening"
)

// Energy levels.
const (
	EnergyHigh   = "high"
	EnergyMedium = "medium"
	EnergyLow    = "low"
)

// Work types.
const (
	WorkDeepCoding     = "deep_coding"
	WorkDebugging      = "debugging"
	WorkCreative       = "creative"
	WorkAdministrative = "administrative"
)

// Context is an ephemeral situational snapshot used to score models.
type Context struct {
	TimeOfDay          string       `json:"timeOfDay"`
	EnergyLevel        string       `json:"energyLevel"`
	WorkType           string       `json:"workType"`
	SessionDurationMin int          `json:"sessionDurationMin"`
	DayOfWeek          time.Weekday `json:"dayOfWeek"`
}

// Signal is an external activity reading used to infer the work type.
type Signal struct {
	// FatigueSignals is a 0-10 fatigue estimate from the provider.
	FatigueSignals int `json:"fatigueSignals"`

	// AdaptationSuggestions are free-form hints, checked in order.
	AdaptationSuggestions []string `json:"adaptationSuggestions"`
}

// SignalSource supplies the current activity signal, or nil when no
// provider is available.
type SignalSource interface {
	Current() *Signal
}

// Analyzer classifies the current situation.
type Analyzer struct {
	now    func() time.Time
	source SignalSource
}

// NewAnalyzer creates an analyzer using the system clock and an
// optional signal source (may be nil).
func NewAnalyzer(source SignalSource) *Analyzer {
	return &Analyzer{now: time.Now, source: source}
}

// NewAnalyzerWithClock creates an analyzer with an injected clock for
// deterministic tests.
func NewAnalyzerWithClock(source SignalSource, now func() time.Time) *Analyzer {
	return &Analyzer{now: now, source: source}
}

// Classify builds a context snapshot. sessionStart is the zero time
// when no session is running.
func (a *Analyzer) Classify(sessionStart time.Time) Context {
	now := a.now()

	var signal *Signal
	if a.source != nil {
		signal = a.source.Current()
	}

	sessionMinutes := 0
	if !sessionStart.IsZero() {
		sessionMinutes = int(now.Sub(sessionStart).Minutes())
	}

	return Context{
		TimeOfDay:          classifyTimeOfDay(now.Hour()),
		EnergyLevel:        classifyEnergy(now.Hour()),
		WorkType:           classifyWorkType(signal),
		SessionDurationMin: sessionMinutes,
		DayOfWeek:          now.Weekday(),
	}
}

// classifyTimeOfDay buckets the hour: [6,12) morning, [12,17)
// afternoon, everything else evening.
func classifyTimeOfDay(hour int) string {
	switch {
	case hour >= 6 && hour < 12:
		return Morning
	case hour >= 12 && hour < 17:
		return Afternoon
	default:
		return Evening
	}
}

// classifyEnergy is a static heuristic stand-in: peak hours [9,14] are
// high, working hours [7,17] medium, otherwise low.
func classifyEnergy(hour int) string {
	switch {
	case hour >= 9 && hour <= 14:
		return EnergyHigh
	case hour >= 7 && hour <= 17:
		return EnergyMedium
	default:
		return EnergyLow
	}
}

// classifyWorkType inspects the activity signal's suggestions in
// priority order. A missing signal degrades to deep_coding.
func classifyWorkType(signal *Signal) string {
	if signal == nil {
		return WorkDeepCoding
	}

	if signal.FatigueSignals >= 6 && mentions(signal.AdaptationSuggestions, "debugging") {
		return WorkDebugging
	}
	if mentions(signal.AdaptationSuggestions, "creative") {
		return WorkCreative
	}
	if mentions(signal.AdaptationSuggestions, "task switching") {
		return WorkAdministrative
	}
	if mentions(signal.AdaptationSuggestions, "deep work") {
		return WorkDeepCoding
	}
	return WorkDeepCoding
}

// mentions reports whether any suggestion contains the phrase,
// case-insensitively.
func mentions(suggestions []string, phrase string) bool {
	for _, s := range suggestions {
		if strings.Contains(strings.ToLower(s), phrase) {
			return true
		}
	}
	return false
}
