package scheduler

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vmtran/cadence/internal/bus"
	"github.com/vmtran/cadence/internal/catalog"
	"github.com/vmtran/cadence/internal/config"
	"github.com/vmtran/cadence/internal/detect"
	"github.com/vmtran/cadence/internal/learning"
	"github.com/vmtran/cadence/internal/session"
	"github.com/vmtran/cadence/internal/storage"
)

// memStore is an in-memory storage.Store.
type memStore struct {
	mu      sync.Mutex
	records []storage.PerformanceRecord
}

func (m *memStore) Init() error { return nil }
func (m *memStore) RecordPerformance(rec storage.PerformanceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}
func (m *memStore) GetPerformanceHistory(since time.Time) ([]storage.PerformanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]storage.PerformanceRecord, len(m.records))
	copy(out, m.records)
	return out, nil
}
func (m *memStore) EnqueueContribution(c storage.Contribution) error      { return nil }
func (m *memStore) GetContributionQueue() ([]storage.Contribution, error) { return nil, nil }
func (m *memStore) ClearContributionQueue() error                         { return nil }
func (m *memStore) SaveGlobalModel(gm storage.GlobalModel) error          { return nil }
func (m *memStore) GetGlobalModel() (*storage.GlobalModel, error)         { return nil, nil }
func (m *memStore) Close() error                                          { return nil }

func (m *memStore) recorded() []storage.PerformanceRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]storage.PerformanceRecord, len(m.records))
	copy(out, m.records)
	return out
}

// captureUI records everything the engine surfaces.
type captureUI struct {
	mu       sync.Mutex
	notices  []string
	rests    []session.Prompt
	switches []catalog.WorkRestModel
	ratings  int
}

func (u *captureUI) Notify(msg string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.notices = append(u.notices, msg)
}

func (u *captureUI) PromptRest(p session.Prompt) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.rests = append(u.rests, p)
}

func (u *captureUI) PromptSwitch(target catalog.WorkRestModel, reason string, benefit float64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.switches = append(u.switches, target)
}

func (u *captureUI) PromptRating() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.ratings++
}

func (u *captureUI) noticeContaining(substr string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, n := range u.notices {
		if strings.Contains(n, substr) {
			return true
		}
	}
	return false
}

func newTestEngine(t *testing.T) (*Engine, *captureUI, *memStore, *bus.Bus) {
	t.Helper()

	cat := catalog.New()
	store := &memStore{}
	events := bus.New()
	recorder := learning.NewRecorder(store)
	recEngine := learning.NewEngine(cat, recorder)
	policy := learning.NewPolicy(recEngine)
	analyzer := detect.NewAnalyzer(nil)
	ui := &captureUI{}

	engine := New(Deps{
		Catalog:   cat,
		Analyzer:  analyzer,
		Recommend: recEngine,
		Policy:    policy,
		Recorder:  recorder,
		Events:    events,
		Config:    config.NewConfig(),
		UI:        ui,
	})
	t.Cleanup(engine.Shutdown)

	return engine, ui, store, events
}

func TestEngine_StartSessionUnknownModel(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)

	err := engine.StartSession("no-such-model")
	if err == nil {
		t.Fatal("expected an error for an unknown model")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestEngine_SessionLifecycle(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)

	if err := engine.StartSession("classic-25-5"); err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	if err := engine.StartSession("deep-90-20"); !errors.Is(err, session.ErrSessionActive) {
		t.Errorf("expected ErrSessionActive, got %v", err)
	}

	if !engine.TakeBreak() {
		t.Error("TakeBreak failed while working")
	}
	if !engine.ResumeWork() {
		t.Error("ResumeWork failed while resting")
	}
	if engine.ResumeWork() {
		t.Error("ResumeWork must fail while working")
	}

	if !engine.StopSession() {
		t.Error("StopSession failed")
	}
	if engine.StopSession() {
		t.Error("second StopSession should report no session")
	}
}

func TestEngine_SwitchSessionRestartsCycle(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)

	if err := engine.StartSession("classic-25-5"); err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	if err := engine.SwitchSession("deep-90-20"); err != nil {
		t.Fatalf("SwitchSession failed: %v", err)
	}

	snap := engine.Clock().Snapshot()
	if snap.ModelID != "deep-90-20" || snap.CurrentCycle != 1 {
		t.Errorf("switch did not restart the session: %+v", snap)
	}
}

func TestEngine_CompletionPromptsForRating(t *testing.T) {
	engine, ui, store, events := newTestEngine(t)

	events.Publish(bus.SessionCompleted, session.Outcome{
		SessionID:      "s1",
		ModelID:        "classic-25-5",
		CompletionRate: 1.0,
		ElapsedMinutes: 115,
		StartedAt:      time.Now().Add(-115 * time.Minute),
		EndedAt:        time.Now(),
	})

	ui.mu.Lock()
	ratings := ui.ratings
	ui.mu.Unlock()
	if ratings != 1 {
		t.Fatalf("expected 1 rating prompt, got %d", ratings)
	}

	if engine.RateSession(6) {
		t.Error("out-of-range rating must be rejected")
	}
	if !engine.RateSession(4) {
		t.Fatal("RateSession failed with a pending outcome")
	}
	if engine.RateSession(4) {
		t.Error("second rating must find nothing pending")
	}

	// The recorder flushes in the background.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if len(store.recorded()) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	records := store.recorded()
	if len(records) != 1 {
		t.Fatalf("expected 1 recorded outcome, got %d", len(records))
	}
	if records[0].SatisfactionScore != 4 || records[0].CompletionRate != 1.0 {
		t.Errorf("unexpected record %+v", records[0])
	}
}

func TestEngine_UnratedOutcomeFlushedOnNextStart(t *testing.T) {
	engine, _, store, events := newTestEngine(t)

	events.Publish(bus.SessionCompleted, session.Outcome{
		SessionID:      "s1",
		ModelID:        "classic-25-5",
		CompletionRate: 0.8,
		ElapsedMinutes: 92,
		StartedAt:      time.Now().Add(-92 * time.Minute),
		EndedAt:        time.Now(),
	})

	// Starting the next session forfeits the rating window.
	if err := engine.StartSession("classic-25-5"); err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if len(store.recorded()) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	records := store.recorded()
	if len(records) != 1 {
		t.Fatalf("expected the unrated outcome recorded, got %d records", len(records))
	}
	if records[0].SatisfactionScore != 0 {
		t.Errorf("expected an unrated record, got satisfaction %d", records[0].SatisfactionScore)
	}
}

func TestEngine_BreakEventsSurfaceAsNotices(t *testing.T) {
	engine, ui, _, _ := newTestEngine(t)

	if err := engine.StartSession("classic-25-5"); err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	if !engine.TakeBreak() {
		t.Fatal("TakeBreak failed")
	}

	if !ui.noticeContaining("break started") {
		t.Errorf("expected a break notice, got %v", ui.notices)
	}
}

func TestEngine_ConfirmSwitchWithoutPendingDecision(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)

	if engine.ConfirmSwitch() {
		t.Error("ConfirmSwitch must fail with no pending decision")
	}
	engine.DismissSwitch() // no-op, must not panic
}
