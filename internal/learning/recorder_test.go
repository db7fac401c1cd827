package learning

import (
	"testing"
	"time"

	"github.com/vmtran/cadence/internal/detect"
)

func TestRecorder_RecordDoesNotBlock(t *testing.T) {
	store := newMockStorage()
	recorder := NewRecorder(store)
	defer recorder.Stop()

	ctx := morningCoding()
	recorder.Record("classic-25-5", ctx, 115, 1.0, 4)

	// Give the background flusher time to drain.
	time.Sleep(100 * time.Millisecond)

	if store.count() != 1 {
		t.Fatalf("expected 1 record, got %d", store.count())
	}

	records, err := store.GetPerformanceHistory(time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("history read failed: %v", err)
	}
	rec := records[0]
	if rec.ModelID != "classic-25-5" || rec.TimeOfDay != detect.Morning {
		t.Errorf("unexpected record %+v", rec)
	}
	if rec.SatisfactionScore != 4 {
		t.Errorf("expected satisfaction 4, got %d", rec.SatisfactionScore)
	}
	if rec.BreakEffectiveness != breakEffectiveness(115, 4) {
		t.Errorf("break effectiveness not derived, got %v", rec.BreakEffectiveness)
	}
}

func TestRecorder_StopFlushesQueue(t *testing.T) {
	store := newMockStorage()
	recorder := NewRecorder(store)

	ctx := morningCoding()
	for i := 0; i < 10; i++ {
		recorder.Record("classic-25-5", ctx, 25, 1.0, 0)
	}
	recorder.Stop()

	if store.count() != 10 {
		t.Errorf("expected all 10 records flushed on Stop, got %d", store.count())
	}
}

func TestRecorder_SurvivesStorageFailure(t *testing.T) {
	store := newMockStorage()
	store.failAll = true
	recorder := NewRecorder(store)
	defer recorder.Stop()

	// Writes fail behind the scenes; callers never see an error.
	recorder.Record("classic-25-5", morningCoding(), 25, 1.0, 3)

	if history := recorder.History(time.Now().Add(-time.Hour)); history != nil {
		t.Errorf("expected empty history on storage failure, got %v", history)
	}
}
