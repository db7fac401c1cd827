package federated

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vmtran/cadence/internal/storage"
)

const (
	// minBatchSize is the queue length that triggers aggregation.
	minBatchSize = 5

	// minValidContributions is the fewest verified entries a batch may
	// aggregate; below this the batch is skipped and the queue kept.
	minValidContributions = 3

	// contributionValidity is how long a contribution stays eligible.
	contributionValidity = 24 * time.Hour

	// insightWindow is how many recent insights feed the community
	// baseline.
	insightWindow = 10

	// Baseline clamp bounds.
	baseFloor   = 0.5
	baseCeiling = 0.95
)

// Aggregator manages the contribution queue and the community global
// model.
type Aggregator struct {
	store   storage.Store
	sealer  *Sealer
	epsilon float64
	now     func() time.Time
	rng     *rand.Rand
	mu      sync.Mutex
}

// NewAggregator creates an aggregator whose sealer secret persists at
// ~/.cadence/sealer.key, so contributions queued by earlier runs stay
// openable when a later run triggers the batch. Falls back to an
// in-memory sealer when the secret cannot be persisted.
func NewAggregator(store storage.Store, epsilon float64) (*Aggregator, error) {
	sealer, err := defaultSealer()
	if err != nil {
		return nil, err
	}
	return &Aggregator{
		store:   store,
		sealer:  sealer,
		epsilon: epsilon,
		now:     time.Now,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// defaultSealer persists the master secret beside the database.
func defaultSealer() (*Sealer, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Printf("Warning: failed to get home directory, using in-memory sealer: %v", err)
		return NewSealer()
	}
	sealer, err := LoadOrCreateSealer(filepath.Join(home, ".cadence", "sealer.key"))
	if err != nil {
		log.Printf("Warning: failed to persist sealer secret, using in-memory sealer: %v", err)
		return NewSealer()
	}
	return sealer, nil
}

// NewAggregatorWith creates an aggregator with explicit collaborators
// for deterministic tests.
func NewAggregatorWith(store storage.Store, sealer *Sealer, epsilon float64, now func() time.Time, rng *rand.Rand) *Aggregator {
	return &Aggregator{store: store, sealer: sealer, epsilon: epsilon, now: now, rng: rng}
}

// Submit privatizes, commits, seals and enqueues a summary of the given
// history. Returns false without any side effect when consent is
// absent or the history is empty. When the queue reaches the batch
// size, aggregation runs before returning.
func (a *Aggregator) Submit(history []storage.PerformanceRecord, consent bool) (bool, error) {
	if !consent {
		return false, nil
	}
	if len(history) == 0 {
		return false, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	summary := Privatize(Summarize(history), a.epsilon, a.rng)

	payload, err := json.Marshal(summary)
	if err != nil {
		return false, fmt.Errorf("failed to marshal summary: %w", err)
	}

	proof := a.sealer.Commit(payload)
	ciphertext, nonce, err := a.sealer.Seal(payload)
	if err != nil {
		return false, fmt.Errorf("failed to seal contribution: %w", err)
	}

	now := a.now()
	contribution := storage.Contribution{
		ID:         uuid.NewString(),
		Proof:      proof,
		Ciphertext: ciphertext,
		Nonce:      nonce,
		ValidFrom:  now,
		ValidUntil: now.Add(contributionValidity),
		Timestamp:  now,
	}

	if err := a.store.EnqueueContribution(contribution); err != nil {
		return false, fmt.Errorf("failed to enqueue contribution: %w", err)
	}

	a.maybeAggregateLocked()
	return true, nil
}

// QueueLength returns the number of pending contributions.
func (a *Aggregator) QueueLength() int {
	queue, err := a.store.GetContributionQueue()
	if err != nil {
		return 0
	}
	return len(queue)
}

// GlobalModel returns the current community model, or nil if none has
// been aggregated yet.
func (a *Aggregator) GlobalModel() *storage.GlobalModel {
	m, err := a.store.GetGlobalModel()
	if err != nil {
		return nil
	}
	return m
}

// maybeAggregateLocked folds a full batch into the global model.
// Caller must hold a.mu.
func (a *Aggregator) maybeAggregateLocked() {
	queue, err := a.store.GetContributionQueue()
	if err != nil || len(queue) < minBatchSize {
		return
	}

	now := a.now()

	// Verify: fresh timestamp and a non-trivial proof.
	var valid []storage.Contribution
	for _, c := range queue {
		if now.Sub(c.Timestamp) > contributionValidity {
			continue
		}
		if len(c.Proof) < 32 {
			continue
		}
		valid = append(valid, c)
	}

	if len(valid) < minValidContributions {
		// Not enough verifiable entries; keep the queue for next time.
		log.Printf("Warning: aggregation skipped, only %d of %d contributions verified", len(valid), len(queue))
		return
	}

	// Open and average. An undecryptable entry is dropped alone.
	var summaries []Summary
	for _, c := range valid {
		payload, err := a.sealer.Open(c.Ciphertext, c.Nonce)
		if err != nil {
			log.Printf("Warning: dropping undecryptable contribution %s: %v", c.ID, err)
			continue
		}
		if !a.sealer.VerifyCommit(payload, c.Proof) {
			log.Printf("Warning: dropping contribution %s with mismatched proof", c.ID)
			continue
		}
		var s Summary
		if err := json.Unmarshal(payload, &s); err != nil {
			log.Printf("Warning: dropping malformed contribution %s: %v", c.ID, err)
			continue
		}
		summaries = append(summaries, s)
	}

	if len(summaries) == 0 {
		return
	}

	insight := buildInsight(summaries, now)
	a.foldLocked(insight)

	if err := a.store.ClearContributionQueue(); err != nil {
		log.Printf("Warning: failed to clear contribution queue: %v", err)
	}
}

// buildInsight averages a batch of opened summaries.
func buildInsight(summaries []Summary, now time.Time) storage.FederatedInsight {
	var workSum, completionSum, satSum float64
	for _, s := range summaries {
		workSum += s.AvgWorkMinutes
		completionSum += s.AvgCompletionRate
		satSum += s.AvgSatisfaction
	}

	n := float64(len(summaries))
	return storage.FederatedInsight{
		ID:                uuid.NewString(),
		AvgWorkMinutes:    workSum / n,
		AvgCompletionRate: completionSum / n,
		AvgSatisfaction:   satSum / n,
		Contributors:      len(summaries),
		CreatedAt:         now,
	}
}

// foldLocked applies an insight to the global model: bump the patch
// version, append the insight, recompute the baseline from the last
// insightWindow insights and refresh the verification proof.
func (a *Aggregator) foldLocked(insight storage.FederatedInsight) {
	model, err := a.store.GetGlobalModel()
	if err != nil || model == nil {
		model = &storage.GlobalModel{Version: "1.0.0"}
	}

	model.Version = bumpPatch(model.Version)
	model.Insights = append(model.Insights, insight)
	model.ContributorCount += insight.Contributors
	model.BasePerformance = basePerformance(model.Insights)
	model.LastUpdated = a.now()

	model.VerificationProof = ""
	if payload, err := json.Marshal(model); err == nil {
		model.VerificationProof = a.sealer.Commit(payload)
	}

	if err := a.store.SaveGlobalModel(*model); err != nil {
		log.Printf("Warning: failed to persist global model: %v", err)
	}
}

// basePerformance is the mean completion rate of the most recent
// insights, clamped to [baseFloor, baseCeiling].
func basePerformance(insights []storage.FederatedInsight) float64 {
	if len(insights) == 0 {
		return baseFloor
	}

	recent := insights
	if len(recent) > insightWindow {
		recent = recent[len(recent)-insightWindow:]
	}

	sum := 0.0
	for _, in := range recent {
		sum += in.AvgCompletionRate
	}
	return clamp(sum/float64(len(recent)), baseFloor, baseCeiling)
}

// bumpPatch increments the patch component of a semver-ish version
// string, resetting to 1.0.1 on anything unparsable.
func bumpPatch(version string) string {
	parts := strings.Split(version, ".")
	if len(parts) != 3 {
		return "1.0.1"
	}
	patch, err := strconv.Atoi(parts[2])
	if err != nil {
		return "1.0.1"
	}
	return fmt.Sprintf("%s.%s.%d", parts[0], parts[1], patch+1)
}
