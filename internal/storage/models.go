/*
Package storage provides data models for performance history and the
federated aggregation state.

These models represent completed session outcomes, queued federated
contributions and the versioned community global model.
*/
package storage

import "time"

// PerformanceRecord is the outcome of one completed session or session
// segment, together with the context it was recorded under.
type PerformanceRecord struct {
	// ModelID is the work/rest model the session ran.
	ModelID string `json:"model_id"`

	// TimeOfDay is the detected time-of-day bucket (morning, afternoon, evening).
	TimeOfDay string `json:"time_of_day"`

	// WorkType is the detected kind of work (deep_coding, debugging, creative, administrative).
	WorkType string `json:"work_type"`

	// EnergyLevel is the detected energy bucket (high, medium, low).
	EnergyLevel string `json:"energy_level"`

	// DayOfWeek is the weekday the session ran on.
	DayOfWeek time.Weekday `json:"day_of_week"`

	// CompletionRate is how much of the planned session was completed (0-1).
	CompletionRate float64 `json:"completion_rate"`

	// SatisfactionScore is the user's rating (1-5), or 0 if not rated.
	SatisfactionScore int `json:"satisfaction_score"`

	// EffectiveWorkMinutes is the work time actually spent.
	EffectiveWorkMinutes float64 `json:"effective_work_minutes"`

	// BreakEffectiveness is the derived break quality score (0-1).
	BreakEffectiveness float64 `json:"break_effectiveness"`

	// Timestamp is when the outcome was recorded.
	Timestamp time.Time `json:"timestamp"`
}

// Contribution is one privatized, sealed performance summary queued for
// federated aggregation.
type Contribution struct {
	// ID is a unique identifier for this contribution (UUID).
	ID string `json:"id"`

	// Proof is the hex HMAC commitment over the privatized payload.
	Proof string `json:"proof"`

	// Ciphertext is the sealed (authenticated encryption) payload.
	Ciphertext []byte `json:"ciphertext"`

	// Nonce is the AEAD nonce used to seal the payload.
	Nonce []byte `json:"nonce"`

	// ValidFrom and ValidUntil bound the window the contribution may be
	// aggregated in.
	ValidFrom  time.Time `json:"valid_from"`
	ValidUntil time.Time `json:"valid_until"`

	// Timestamp is when the contribution was created.
	Timestamp time.Time `json:"timestamp"`
}

// FederatedInsight is one aggregated batch result folded into the
// global model.
type FederatedInsight struct {
	// ID is a synthetic fingerprint for the batch (UUID).
	ID string `json:"id"`

	// AvgWorkMinutes is the batch-average preferred work duration.
	AvgWorkMinutes float64 `json:"avg_work_minutes"`

	// AvgCompletionRate is the batch-average completion rate (0-1).
	AvgCompletionRate float64 `json:"avg_completion_rate"`

	// AvgSatisfaction is the batch-average satisfaction (1-5).
	AvgSatisfaction float64 `json:"avg_satisfaction"`

	// Contributors is the number of valid contributions in the batch.
	Contributors int `json:"contributors"`

	// CreatedAt is when the batch was aggregated.
	CreatedAt time.Time `json:"created_at"`
}

// GlobalModel is the versioned community-level aggregate.
type GlobalModel struct {
	// Version is the monotonically bumped model version (e.g. "1.0.7").
	Version string `json:"version"`

	// BasePerformance is the community baseline completion rate,
	// clamped to [0.5, 0.95].
	BasePerformance float64 `json:"base_performance"`

	// ContributorCount is the total number of contributions folded in.
	ContributorCount int `json:"contributor_count"`

	// Insights is the list of aggregated batch insights, oldest first.
	Insights []FederatedInsight `json:"insights"`

	// LastUpdated is when the model was last folded.
	LastUpdated time.Time `json:"last_updated"`

	// VerificationProof is the hex HMAC over the model state.
	VerificationProof string `json:"verification_proof"`
}
