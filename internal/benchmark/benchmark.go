/*
Package benchmark measures recommendation latency over synthetic
performance history.

It answers the practical question of how expensive the 10-minute
evaluation tick is at various history sizes, so interval changes to the
scheduler stay honest about their cost.
*/
package benchmark

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/vmtran/cadence/internal/catalog"
	"github.com/vmtran/cadence/internal/detect"
	"github.com/vmtran/cadence/internal/learning"
	"github.com/vmtran/cadence/internal/storage"
)

// Result is one benchmark measurement.
type Result struct {
	HistorySize int           `json:"historySize"`
	Iterations  int           `json:"iterations"`
	Total       time.Duration `json:"total"`
	PerCall     time.Duration `json:"perCall"`
}

// historySizes are the synthetic history lengths measured. 200 is the
// persisted history cap.
var historySizes = []int{10, 50, 200}

// defaultIterations is how many Recommend calls each measurement runs.
const defaultIterations = 1000

// memoryStore is an in-memory Store feeding synthetic history to the
// engine.
type memoryStore struct {
	records []storage.PerformanceRecord
}

func (m *memoryStore) Init() error { return nil }
func (m *memoryStore) RecordPerformance(rec storage.PerformanceRecord) error {
	m.records = append(m.records, rec)
	return nil
}
func (m *memoryStore) GetPerformanceHistory(since time.Time) ([]storage.PerformanceRecord, error) {
	return m.records, nil
}
func (m *memoryStore) EnqueueContribution(c storage.Contribution) error     { return nil }
func (m *memoryStore) GetContributionQueue() ([]storage.Contribution, error) { return nil, nil }
func (m *memoryStore) ClearContributionQueue() error                        { return nil }
func (m *memoryStore) SaveGlobalModel(gm storage.GlobalModel) error         { return nil }
func (m *memoryStore) GetGlobalModel() (*storage.GlobalModel, error)        { return nil, nil }
func (m *memoryStore) Close() error                                         { return nil }

// Run measures Recommend latency for each history size.
func Run(iterations int) []Result {
	if iterations <= 0 {
		iterations = defaultIterations
	}

	cat := catalog.New()
	rng := rand.New(rand.NewSource(42))

	results := make([]Result, 0, len(historySizes))
	for _, size := range historySizes {
		store := &memoryStore{records: syntheticHistory(cat, size, rng)}
		recorder := learning.NewRecorder(store)
		engine := learning.NewEngine(cat, recorder)

		ctx := detect.Context{
			TimeOfDay:   detect.Morning,
			EnergyLevel: detect.EnergyHigh,
			WorkType:    detect.WorkDeepCoding,
			DayOfWeek:   time.Monday,
		}

		start := time.Now()
		for i := 0; i < iterations; i++ {
			engine.Recommend(ctx)
		}
		total := time.Since(start)
		recorder.Stop()

		results = append(results, Result{
			HistorySize: size,
			Iterations:  iterations,
			Total:       total,
			PerCall:     total / time.Duration(iterations),
		})
	}

	return results
}

// syntheticHistory fabricates plausible matching records.
func syntheticHistory(cat *catalog.Catalog, n int, rng *rand.Rand) []storage.PerformanceRecord {
	models := cat.List()
	now := time.Now()

	records := make([]storage.PerformanceRecord, n)
	for i := range records {
		m := models[rng.Intn(len(models))]
		records[i] = storage.PerformanceRecord{
			ModelID:              m.ID,
			TimeOfDay:            detect.Morning,
			WorkType:             detect.WorkDeepCoding,
			EnergyLevel:          detect.EnergyHigh,
			DayOfWeek:            time.Monday,
			CompletionRate:       0.5 + rng.Float64()*0.5,
			SatisfactionScore:    1 + rng.Intn(5),
			EffectiveWorkMinutes: float64(m.WorkMinutes),
			BreakEffectiveness:   rng.Float64(),
			Timestamp:            now.Add(-time.Duration(i) * time.Hour),
		}
	}
	return records
}

// Format renders results as aligned text lines.
func Format(results []Result) string {
	out := ""
	for _, r := range results {
		out += fmt.Sprintf("  history=%-4d  %d calls in %-12s  %s/call\n",
			r.HistorySize, r.Iterations, r.Total.Round(time.Microsecond), r.PerCall.Round(time.Nanosecond))
	}
	return out
}
