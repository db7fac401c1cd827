package federated

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/vmtran/cadence/internal/storage"
)

var aggNow = time.Date(2026, 8, 12, 15, 0, 0, 0, time.UTC)

// queueStore is an in-memory storage.Store covering the federated
// surface; the performance methods are unused here.
type queueStore struct {
	queue       []storage.Contribution
	model       *storage.GlobalModel
	enqueueErr  error
	clearCalled int
}

func (q *queueStore) Init() error                                             { return nil }
func (q *queueStore) RecordPerformance(rec storage.PerformanceRecord) error   { return nil }
func (q *queueStore) GetPerformanceHistory(since time.Time) ([]storage.PerformanceRecord, error) {
	return nil, nil
}
func (q *queueStore) EnqueueContribution(c storage.Contribution) error {
	if q.enqueueErr != nil {
		return q.enqueueErr
	}
	q.queue = append(q.queue, c)
	return nil
}
func (q *queueStore) GetContributionQueue() ([]storage.Contribution, error) {
	return q.queue, nil
}
func (q *queueStore) ClearContributionQueue() error {
	q.clearCalled++
	q.queue = nil
	return nil
}
func (q *queueStore) SaveGlobalModel(gm storage.GlobalModel) error {
	q.model = &gm
	return nil
}
func (q *queueStore) GetGlobalModel() (*storage.GlobalModel, error) {
	return q.model, nil
}
func (q *queueStore) Close() error { return nil }

func testAggregator(t *testing.T, store storage.Store) *Aggregator {
	t.Helper()
	sealer, err := NewSealerFromSecret(make([]byte, 32))
	if err != nil {
		t.Fatalf("failed to create sealer: %v", err)
	}
	return NewAggregatorWith(store, sealer, 1.0, func() time.Time { return aggNow }, rand.New(rand.NewSource(1)))
}

func sampleHistory() []storage.PerformanceRecord {
	return []storage.PerformanceRecord{
		{EffectiveWorkMinutes: 100, CompletionRate: 0.9, SatisfactionScore: 4},
		{EffectiveWorkMinutes: 90, CompletionRate: 0.8, SatisfactionScore: 5},
	}
}

func TestAggregator_NoConsentNoSideEffects(t *testing.T) {
	store := &queueStore{}
	agg := testAggregator(t, store)

	queued, err := agg.Submit(sampleHistory(), false)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if queued {
		t.Error("nothing may be queued without consent")
	}
	if len(store.queue) != 0 {
		t.Errorf("queue mutated without consent: %d entries", len(store.queue))
	}
}

func TestAggregator_EmptyHistoryNotQueued(t *testing.T) {
	store := &queueStore{}
	agg := testAggregator(t, store)

	queued, err := agg.Submit(nil, true)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if queued || len(store.queue) != 0 {
		t.Error("empty history must not produce a contribution")
	}
}

func TestAggregator_SubmitQueuesSealedContribution(t *testing.T) {
	store := &queueStore{}
	agg := testAggregator(t, store)

	queued, err := agg.Submit(sampleHistory(), true)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if !queued || len(store.queue) != 1 {
		t.Fatalf("expected 1 queued contribution, got %d", len(store.queue))
	}

	c := store.queue[0]
	if c.ID == "" || len(c.Proof) < 32 || len(c.Ciphertext) == 0 || len(c.Nonce) == 0 {
		t.Errorf("contribution is missing fields: %+v", c)
	}
	if !c.ValidUntil.Equal(c.ValidFrom.Add(24 * time.Hour)) {
		t.Errorf("unexpected validity window %v..%v", c.ValidFrom, c.ValidUntil)
	}

	// The queued payload must be opaque: opening and verifying only
	// works with the sealing keys.
	payload, err := agg.sealer.Open(c.Ciphertext, c.Nonce)
	if err != nil {
		t.Fatalf("round-trip open failed: %v", err)
	}
	if !agg.sealer.VerifyCommit(payload, c.Proof) {
		t.Error("proof does not verify against the sealed payload")
	}
}

func TestAggregator_BatchTriggersAggregation(t *testing.T) {
	store := &queueStore{}
	agg := testAggregator(t, store)

	for i := 0; i < 5; i++ {
		if _, err := agg.Submit(sampleHistory(), true); err != nil {
			t.Fatalf("Submit %d failed: %v", i, err)
		}
	}

	if store.clearCalled != 1 {
		t.Fatalf("expected the queue cleared once, cleared %d times", store.clearCalled)
	}
	if agg.QueueLength() != 0 {
		t.Errorf("expected empty queue after aggregation, got %d", agg.QueueLength())
	}

	model := agg.GlobalModel()
	if model == nil {
		t.Fatal("expected a global model after aggregation")
	}
	if model.Version != "1.0.1" {
		t.Errorf("expected version 1.0.1, got %s", model.Version)
	}
	if model.ContributorCount != 5 {
		t.Errorf("expected 5 contributors, got %d", model.ContributorCount)
	}
	if len(model.Insights) != 1 {
		t.Fatalf("expected 1 insight, got %d", len(model.Insights))
	}
	if model.Insights[0].Contributors != 5 {
		t.Errorf("expected 5 contributors in the insight, got %d", model.Insights[0].Contributors)
	}
	if model.BasePerformance < 0.5 || model.BasePerformance > 0.95 {
		t.Errorf("baseline out of bounds: %v", model.BasePerformance)
	}
	if model.VerificationProof == "" {
		t.Error("global model carries no verification proof")
	}
}

func TestAggregator_SecondBatchBumpsVersion(t *testing.T) {
	store := &queueStore{}
	agg := testAggregator(t, store)

	for i := 0; i < 10; i++ {
		if _, err := agg.Submit(sampleHistory(), true); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}

	model := agg.GlobalModel()
	if model == nil || model.Version != "1.0.2" {
		t.Fatalf("expected version 1.0.2 after two batches, got %+v", model)
	}
	if model.ContributorCount != 10 {
		t.Errorf("expected 10 total contributors, got %d", model.ContributorCount)
	}
	if len(model.Insights) != 2 {
		t.Errorf("expected 2 insights, got %d", len(model.Insights))
	}
}

func TestAggregator_ExpiredContributionsSkipBatch(t *testing.T) {
	store := &queueStore{}
	agg := testAggregator(t, store)

	// Four stale entries plus one fresh: only one verifies, which is
	// below the minimum, so the batch must be skipped and kept.
	stale := aggNow.Add(-48 * time.Hour)
	for i := 0; i < 4; i++ {
		store.queue = append(store.queue, storage.Contribution{
			ID:        "stale",
			Proof:     "0123456789abcdef0123456789abcdef",
			Timestamp: stale,
			ValidFrom: stale,
		})
	}

	if _, err := agg.Submit(sampleHistory(), true); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if store.clearCalled != 0 {
		t.Error("a skipped batch must keep the queue")
	}
	if agg.GlobalModel() != nil {
		t.Error("a skipped batch must not produce a model")
	}
	if agg.QueueLength() != 5 {
		t.Errorf("expected the queue intact at 5, got %d", agg.QueueLength())
	}
}

func TestAggregator_UndecryptableEntryDroppedAlone(t *testing.T) {
	store := &queueStore{}
	agg := testAggregator(t, store)

	for i := 0; i < 4; i++ {
		if _, err := agg.Submit(sampleHistory(), true); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}

	// A garbage entry that passes verification but cannot be opened.
	store.queue = append(store.queue, storage.Contribution{
		ID:         "garbage",
		Proof:      "0123456789abcdef0123456789abcdef",
		Ciphertext: []byte("not a real ciphertext"),
		Nonce:      make([]byte, 12),
		Timestamp:  aggNow,
		ValidFrom:  aggNow,
		ValidUntil: aggNow.Add(24 * time.Hour),
	})

	// The next submit completes the batch of 6.
	if _, err := agg.Submit(sampleHistory(), true); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	model := agg.GlobalModel()
	if model == nil {
		t.Fatal("expected aggregation despite one bad entry")
	}
	if model.Insights[0].Contributors != 5 {
		t.Errorf("expected the bad entry dropped (5 contributors), got %d", model.Insights[0].Contributors)
	}
	if store.clearCalled != 1 {
		t.Errorf("expected the queue cleared, cleared %d times", store.clearCalled)
	}
}

func TestAggregator_EnqueueFailureSurfaces(t *testing.T) {
	store := &queueStore{enqueueErr: errors.New("disk full")}
	agg := testAggregator(t, store)

	if _, err := agg.Submit(sampleHistory(), true); err == nil {
		t.Error("expected the enqueue failure to surface")
	}
}

func TestBumpPatch(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1.0.0", "1.0.1"},
		{"1.0.9", "1.0.10"},
		{"2.3.4", "2.3.5"},
		{"garbage", "1.0.1"},
		{"1.0.x", "1.0.1"},
	}
	for _, tc := range cases {
		if got := bumpPatch(tc.in); got != tc.want {
			t.Errorf("bumpPatch(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
