package learning

import (
	"github.com/vmtran/cadence/internal/storage"
)

const (
	// completionWeight, satisfactionWeight and breakWeight combine into
	// the recommendation score (0.4/0.3/0.3).
	completionWeight   = 0.4
	satisfactionWeight = 0.3
	breakWeight        = 0.3

	// ratingCompletionWeight and ratingSatisfactionWeight combine into
	// the benefit rating (0.6/0.4).
	ratingCompletionWeight   = 0.6
	ratingSatisfactionWeight = 0.4

	// unscoredScore and unscoredConfidence apply to models with no
	// matching history.
	unscoredScore      = 0.3
	unscoredConfidence = 0.2

	// maxConfidence caps history-derived confidence.
	maxConfidence = 0.95

	// confidenceSamples is the sample count that yields full confidence.
	confidenceSamples = 10

	// neutralRating is the benefit rating for models with no history.
	neutralRating = 0.5
)

// score computes the recommendation score and confidence for one
// model's matching history subset.
// Formula: 0.4*avgCompletionRate + 0.3*((avgSatisfaction-1)/4) + 0.3*avgBreakEffectiveness
func score(records []storage.PerformanceRecord) (scoreValue, confidence float64) {
	if len(records) == 0 {
		return unscoredScore, unscoredConfidence
	}

	scoreValue = completionWeight*avgCompletion(records) +
		satisfactionWeight*avgSatisfactionNorm(records) +
		breakWeight*avgBreakEffectiveness(records)

	confidence = float64(len(records)) / confidenceSamples
	if confidence > maxConfidence {
		confidence = maxConfidence
	}
	return scoreValue, confidence
}

// rating computes the benefit rating used by the switch policy.
// Formula: 0.6*avgCompletionRate + 0.4*((avgSatisfaction-1)/4)
func rating(records []storage.PerformanceRecord) float64 {
	if len(records) == 0 {
		return neutralRating
	}
	return ratingCompletionWeight*avgCompletion(records) +
		ratingSatisfactionWeight*avgSatisfactionNorm(records)
}

// avgCompletion averages completion rates.
func avgCompletion(records []storage.PerformanceRecord) float64 {
	sum := 0.0
	for _, r := range records {
		sum += r.CompletionRate
	}
	return sum / float64(len(records))
}

// avgSatisfactionNorm averages satisfaction ratings normalized to 0-1.
// Unrated records (score 0) are excluded; with no rated records the
// neutral 0.5 applies.
func avgSatisfactionNorm(records []storage.PerformanceRecord) float64 {
	sum := 0.0
	count := 0
	for _, r := range records {
		if r.SatisfactionScore > 0 {
			sum += float64(r.SatisfactionScore)
			count++
		}
	}
	if count == 0 {
		return 0.5
	}
	avg := sum / float64(count)
	return (avg - 1) / 4
}

// avgBreakEffectiveness averages break effectiveness scores.
func avgBreakEffectiveness(records []storage.PerformanceRecord) float64 {
	sum := 0.0
	for _, r := range records {
		sum += r.BreakEffectiveness
	}
	return sum / float64(len(records))
}

// forModel filters records down to one model id.
func forModel(records []storage.PerformanceRecord, modelID string) []storage.PerformanceRecord {
	var out []storage.PerformanceRecord
	for _, r := range records {
		if r.ModelID == modelID {
			out = append(out, r)
		}
	}
	return out
}
