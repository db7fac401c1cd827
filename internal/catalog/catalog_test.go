package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNew_BuiltinModels(t *testing.T) {
	c := New()
	if c.Len() != 5 {
		t.Fatalf("expected 5 builtin models, got %d", c.Len())
	}

	m, ok := c.ByID("classic-25-5")
	if !ok {
		t.Fatal("classic-25-5 missing from builtins")
	}
	if m.WorkMinutes != 25 || m.RestMinutes != 5 || m.Cycles != 4 || m.LongRestMinutes != 15 {
		t.Errorf("unexpected classic-25-5 shape: %+v", m)
	}

	if _, ok := c.ByID("no-such-model"); ok {
		t.Error("ByID returned a model for an unknown id")
	}
}

func TestList_SortedCopy(t *testing.T) {
	c := New()
	list := c.List()
	for i := 1; i < len(list); i++ {
		if list[i-1].ID >= list[i].ID {
			t.Fatalf("list not sorted: %s before %s", list[i-1].ID, list[i].ID)
		}
	}

	// Mutating the returned slice must not affect the catalog.
	list[0].WorkMinutes = 999
	if m, _ := c.ByID(list[0].ID); m.WorkMinutes == 999 {
		t.Error("List leaked internal state")
	}
}

func TestLoadFrom_MergesCustomModels(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "models.yaml")
	yaml := `models:
  - id: my-50-10
    name: My Fifty Ten
    workMinutes: 50
    restMinutes: 10
  - id: classic-25-5
    name: Overridden Classic
    workMinutes: 30
    restMinutes: 6
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("failed to write model file: %v", err)
	}

	c := LoadFrom(path)
	if c.Len() != 6 {
		t.Fatalf("expected 5 builtins + 1 custom, got %d", c.Len())
	}

	custom, ok := c.ByID("my-50-10")
	if !ok || custom.WorkMinutes != 50 {
		t.Errorf("custom model not loaded: %+v", custom)
	}

	// Same id as a builtin replaces it.
	classic, _ := c.ByID("classic-25-5")
	if classic.Name != "Overridden Classic" || classic.WorkMinutes != 30 {
		t.Errorf("builtin not overridden: %+v", classic)
	}
}

func TestLoadFrom_SkipsInvalidModels(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "models.yaml")
	yaml := `models:
  - id: ""
    workMinutes: 25
    restMinutes: 5
  - id: no-work
    restMinutes: 5
  - id: unnamed-20-4
    workMinutes: 20
    restMinutes: 4
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("failed to write model file: %v", err)
	}

	c := LoadFrom(path)
	if c.Len() != 6 {
		t.Fatalf("expected only 1 valid custom model, got %d total", c.Len())
	}

	// A missing name defaults to the id.
	m, ok := c.ByID("unnamed-20-4")
	if !ok || m.Name != "unnamed-20-4" {
		t.Errorf("expected name to default to id, got %+v", m)
	}
}

func TestLoadFrom_MissingFileDegrades(t *testing.T) {
	c := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	if c.Len() != 5 {
		t.Errorf("expected builtins on a missing file, got %d models", c.Len())
	}
}

func TestLoadFrom_MalformedFileDegrades(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "models.yaml")
	if err := os.WriteFile(path, []byte("models: [not: valid"), 0644); err != nil {
		t.Fatalf("failed to write model file: %v", err)
	}

	c := LoadFrom(path)
	if c.Len() != 5 {
		t.Errorf("expected builtins on a malformed file, got %d models", c.Len())
	}
}

func TestWorkRestModel_Durations(t *testing.T) {
	m := WorkRestModel{WorkMinutes: 52, RestMinutes: 17, Cycles: 3, LongRestMinutes: 30}

	if m.WorkDuration() != 52*time.Minute {
		t.Errorf("unexpected work duration %v", m.WorkDuration())
	}
	if m.RestDuration() != 17*time.Minute {
		t.Errorf("unexpected rest duration %v", m.RestDuration())
	}
	if m.LongRestDuration() != 30*time.Minute {
		t.Errorf("unexpected long rest duration %v", m.LongRestDuration())
	}
}

func TestWorkRestModel_HasLongRest(t *testing.T) {
	if (WorkRestModel{Cycles: 4, LongRestMinutes: 15}).HasLongRest() != true {
		t.Error("cycled model with a long rest should have one")
	}
	if (WorkRestModel{Cycles: 4}).HasLongRest() {
		t.Error("no long rest duration means no long rest")
	}
	if (WorkRestModel{LongRestMinutes: 15}).HasLongRest() {
		t.Error("an open-ended model has no long rest")
	}
}

func TestWorkRestModel_PlannedMinutes(t *testing.T) {
	classic := WorkRestModel{WorkMinutes: 25, RestMinutes: 5, Cycles: 4, LongRestMinutes: 15}
	if got := classic.PlannedMinutes(); got != 115 {
		t.Errorf("expected 115 planned minutes, got %d", got)
	}

	openEnded := WorkRestModel{WorkMinutes: 52, RestMinutes: 17}
	if got := openEnded.PlannedMinutes(); got != 0 {
		t.Errorf("expected 0 for an open-ended model, got %d", got)
	}
}

func TestWorkRestModel_InferredWorkType(t *testing.T) {
	cases := []struct {
		model WorkRestModel
		want  string
	}{
		{WorkRestModel{WorkMinutes: 90, RestMinutes: 20}, "deep_coding"},
		{WorkRestModel{WorkMinutes: 45, RestMinutes: 20}, "debugging"},
		{WorkRestModel{WorkMinutes: 25, RestMinutes: 5}, "administrative"},
		{WorkRestModel{WorkMinutes: 45, RestMinutes: 10}, "creative"},
	}
	for _, tc := range cases {
		if got := tc.model.InferredWorkType(); got != tc.want {
			t.Errorf("%d/%d: expected %s, got %s", tc.model.WorkMinutes, tc.model.RestMinutes, tc.want, got)
		}
	}
}
