package learning

import (
	"math"
	"testing"

	"github.com/vmtran/cadence/internal/storage"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestScore_EmptySubset(t *testing.T) {
	s, conf := score(nil)
	if s != unscoredScore {
		t.Errorf("expected score %v for no history, got %v", unscoredScore, s)
	}
	if conf != unscoredConfidence {
		t.Errorf("expected confidence %v for no history, got %v", unscoredConfidence, conf)
	}
}

func TestScore_WeightedComposite(t *testing.T) {
	records := []storage.PerformanceRecord{
		{CompletionRate: 1.0, SatisfactionScore: 5, BreakEffectiveness: 1.0},
		{CompletionRate: 0.5, SatisfactionScore: 3, BreakEffectiveness: 0.5},
	}

	// avgCompletion 0.75, avgSatisfaction 4 -> (4-1)/4 = 0.75, avgBreak 0.75
	want := 0.4*0.75 + 0.3*0.75 + 0.3*0.75
	s, conf := score(records)
	if !almostEqual(s, want) {
		t.Errorf("expected score %v, got %v", want, s)
	}
	if !almostEqual(conf, 0.2) {
		t.Errorf("expected confidence 0.2 for 2 samples, got %v", conf)
	}
}

func TestScore_ConfidenceCapped(t *testing.T) {
	records := make([]storage.PerformanceRecord, 20)
	for i := range records {
		records[i] = storage.PerformanceRecord{CompletionRate: 1, SatisfactionScore: 5, BreakEffectiveness: 1}
	}

	_, conf := score(records)
	if conf != maxConfidence {
		t.Errorf("expected confidence capped at %v, got %v", maxConfidence, conf)
	}
}

func TestScore_UnratedSessionsUseNeutralSatisfaction(t *testing.T) {
	records := []storage.PerformanceRecord{
		{CompletionRate: 1.0, SatisfactionScore: 0, BreakEffectiveness: 0.5},
		{CompletionRate: 1.0, SatisfactionScore: 0, BreakEffectiveness: 0.5},
	}

	// No rated sessions: satisfaction term falls back to 0.5.
	want := 0.4*1.0 + 0.3*0.5 + 0.3*0.5
	s, _ := score(records)
	if !almostEqual(s, want) {
		t.Errorf("expected score %v, got %v", want, s)
	}
}

func TestScore_MixedRatingsExcludeUnrated(t *testing.T) {
	records := []storage.PerformanceRecord{
		{CompletionRate: 1.0, SatisfactionScore: 5, BreakEffectiveness: 1.0},
		{CompletionRate: 1.0, SatisfactionScore: 0, BreakEffectiveness: 1.0},
	}

	// Only the rated session counts for satisfaction: (5-1)/4 = 1.
	want := 0.4*1.0 + 0.3*1.0 + 0.3*1.0
	s, _ := score(records)
	if !almostEqual(s, want) {
		t.Errorf("expected score %v, got %v", want, s)
	}
}

func TestRating_DefaultsToNeutral(t *testing.T) {
	if got := rating(nil); got != neutralRating {
		t.Errorf("expected neutral rating %v, got %v", neutralRating, got)
	}
}

func TestRating_WeightedComposite(t *testing.T) {
	records := []storage.PerformanceRecord{
		{CompletionRate: 0.8, SatisfactionScore: 5},
	}

	want := 0.6*0.8 + 0.4*1.0
	if got := rating(records); !almostEqual(got, want) {
		t.Errorf("expected rating %v, got %v", want, got)
	}
}

func TestBreakEffectiveness(t *testing.T) {
	if got := breakEffectiveness(60, 0); got != 0.5 {
		t.Errorf("unrated session should get neutral 0.5, got %v", got)
	}

	// Rated 5 after 60 minutes: 0.6*1 + 0.4*(1-0.5) = 0.8
	if got := breakEffectiveness(60, 5); !almostEqual(got, 0.8) {
		t.Errorf("expected 0.8, got %v", got)
	}

	// Very long sessions: the length term saturates at zero.
	if got := breakEffectiveness(300, 5); !almostEqual(got, 0.6) {
		t.Errorf("expected 0.6 for a saturated session, got %v", got)
	}
}
