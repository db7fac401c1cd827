package catalog

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Catalog is an immutable collection of work/rest models.
type Catalog struct {
	models []WorkRestModel
	byID   map[string]WorkRestModel
}

// builtinModels is the default model set shipped with cadence.
var builtinModels = []WorkRestModel{
	{
		ID:              "classic-25-5",
		Name:            "Classic 25/5",
		Description:     "Four 25 minute work intervals with 5 minute breaks and a 15 minute long rest",
		WorkMinutes:     25,
		RestMinutes:     5,
		Cycles:          4,
		LongRestMinutes: 15,
		Category:        "balanced",
	},
	{
		ID:              "deep-90-20",
		Name:            "Deep Work 90/20",
		Description:     "Long 90 minute focus blocks with 20 minute recovery breaks",
		WorkMinutes:     90,
		RestMinutes:     20,
		Cycles:          3,
		LongRestMinutes: 30,
		Category:        "deep-focus",
	},
	{
		ID:              "sprint-52-17",
		Name:            "Sprint 52/17",
		Description:     "52 minutes of focused work followed by a 17 minute break",
		WorkMinutes:     52,
		RestMinutes:     17,
		Category:        "balanced",
	},
	{
		ID:              "quick-15-3",
		Name:            "Quick 15/3",
		Description:     "Short 15 minute bursts for low-energy or administrative work",
		WorkMinutes:     15,
		RestMinutes:     3,
		Cycles:          6,
		LongRestMinutes: 10,
		Category:        "light",
	},
	{
		ID:              "steady-45-10",
		Name:            "Steady 45/10",
		Description:     "45 minute work intervals with 10 minute breaks for sustained output",
		WorkMinutes:     45,
		RestMinutes:     10,
		Cycles:          4,
		LongRestMinutes: 25,
		Category:        "balanced",
	},
}

// customModelsFile is the YAML file holding user-defined models.
type customModelsFile struct {
	Models []WorkRestModel `yaml:"models"`
}

// New builds a catalog from the built-in model set.
func New() *Catalog {
	return fromModels(builtinModels)
}

// NewWithModels builds a catalog from an explicit model list. Intended
// for tests and for callers that manage their own model sources.
func NewWithModels(models []WorkRestModel) *Catalog {
	return fromModels(models)
}

// Load builds a catalog from the built-in set merged with any models in
// ~/.cadence-models.yaml. A custom model with the same id as a built-in
// replaces it. A missing or unreadable custom file degrades to the
// built-in set with a logged warning.
func Load() *Catalog {
	home, err := os.UserHomeDir()
	if err != nil {
		return New()
	}
	return LoadFrom(filepath.Join(home, ".cadence-models.yaml"))
}

// LoadFrom builds a catalog from the built-in set merged with a custom
// YAML model file at the given path.
func LoadFrom(path string) *Catalog {
	models := make([]WorkRestModel, len(builtinModels))
	copy(models, builtinModels)

	custom, err := readCustomModels(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: failed to load custom models from %s: %v", path, err)
		}
		return fromModels(models)
	}

	index := make(map[string]int, len(models))
	for i, m := range models {
		index[m.ID] = i
	}
	for _, m := range custom {
		if i, ok := index[m.ID]; ok {
			models[i] = m
			continue
		}
		index[m.ID] = len(models)
		models = append(models, m)
	}

	return fromModels(models)
}

// readCustomModels parses and validates a custom model YAML file.
func readCustomModels(path string) ([]WorkRestModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file customModelsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse model file: %w", err)
	}

	valid := make([]WorkRestModel, 0, len(file.Models))
	for _, m := range file.Models {
		if m.ID == "" || m.WorkMinutes <= 0 || m.RestMinutes <= 0 {
			log.Printf("Warning: skipping invalid custom model %q (id, workMinutes and restMinutes are required)", m.ID)
			continue
		}
		if m.Name == "" {
			m.Name = m.ID
		}
		valid = append(valid, m)
	}
	return valid, nil
}

func fromModels(models []WorkRestModel) *Catalog {
	byID := make(map[string]WorkRestModel, len(models))
	for _, m := range models {
		byID[m.ID] = m
	}
	return &Catalog{models: models, byID: byID}
}

// List returns all models sorted by id. The returned slice is a copy.
func (c *Catalog) List() []WorkRestModel {
	out := make([]WorkRestModel, len(c.models))
	copy(out, c.models)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ByID looks up a model by id.
func (c *Catalog) ByID(id string) (WorkRestModel, bool) {
	m, ok := c.byID[id]
	return m, ok
}

// Len returns the number of models in the catalog.
func (c *Catalog) Len() int {
	return len(c.models)
}
