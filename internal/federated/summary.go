package federated

import (
	"math"
	"math/rand"

	"github.com/vmtran/cadence/internal/storage"
)

// Per-field Laplace sensitivities. One session's influence on each
// mean is bounded by these values.
const (
	workMinutesSensitivity  = 5.0
	completionSensitivity   = 0.1
	satisfactionSensitivity = 0.5
)

// Summary is the mean of one participant's local performance, the unit
// that gets privatized and contributed.
type Summary struct {
	AvgWorkMinutes    float64 `json:"avg_work_minutes"`
	AvgCompletionRate float64 `json:"avg_completion_rate"`
	AvgSatisfaction   float64 `json:"avg_satisfaction"`
	SampleCount       int     `json:"sample_count"`
}

// Summarize reduces performance history to a Summary. Unrated sessions
// do not count toward the satisfaction mean; with no rated sessions the
// neutral midpoint 3 applies.
func Summarize(history []storage.PerformanceRecord) Summary {
	if len(history) == 0 {
		return Summary{AvgSatisfaction: 3}
	}

	var workSum, completionSum, satSum float64
	rated := 0
	for _, r := range history {
		workSum += r.EffectiveWorkMinutes
		completionSum += r.CompletionRate
		if r.SatisfactionScore > 0 {
			satSum += float64(r.SatisfactionScore)
			rated++
		}
	}

	n := float64(len(history))
	avgSat := 3.0
	if rated > 0 {
		avgSat = satSum / float64(rated)
	}

	return Summary{
		AvgWorkMinutes:    workSum / n,
		AvgCompletionRate: completionSum / n,
		AvgSatisfaction:   avgSat,
		SampleCount:       len(history),
	}
}

// Privatize adds Laplace noise scaled by sensitivity/epsilon to each
// field and clamps the results back into their valid ranges.
func Privatize(s Summary, epsilon float64, rng *rand.Rand) Summary {
	if epsilon <= 0 {
		epsilon = 1.0
	}

	out := s
	out.AvgWorkMinutes = s.AvgWorkMinutes + laplace(workMinutesSensitivity/epsilon, rng)
	if out.AvgWorkMinutes < 0 {
		out.AvgWorkMinutes = 0
	}

	out.AvgCompletionRate = clamp(
		s.AvgCompletionRate+laplace(completionSensitivity/epsilon, rng), 0, 1)
	out.AvgSatisfaction = clamp(
		s.AvgSatisfaction+laplace(satisfactionSensitivity/epsilon, rng), 1, 5)

	return out
}

// laplace draws from a zero-mean Laplace distribution with the given
// scale via inverse transform sampling.
func laplace(scale float64, rng *rand.Rand) float64 {
	u := rng.Float64() - 0.5
	return -scale * sign(u) * math.Log(1-2*math.Abs(u))
}

func sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
