/*
Package learning implements performance recording, model recommendation
and the switch decision policy.

This package provides background recording of session outcomes, scoring
of work/rest models against the detected context, and the confidence,
cooldown and benefit gates that decide whether a recommendation becomes
an actual model switch.
*/
package learning

import (
	"log"
	"sync"
	"time"

	"github.com/vmtran/cadence/internal/detect"
	"github.com/vmtran/cadence/internal/storage"
)

const (
	// recordQueueSize is the buffer size for the outcome queue.
	// If full, records are dropped (non-blocking).
	recordQueueSize = 64
)

// Recorder appends performance records in the background with
// non-blocking writes.
type Recorder struct {
	store    storage.Store
	queue    chan storage.PerformanceRecord
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	now      func() time.Time
}

// NewRecorder creates a recorder with background processing.
func NewRecorder(store storage.Store) *Recorder {
	r := &Recorder{
		store:    store,
		queue:    make(chan storage.PerformanceRecord, recordQueueSize),
		stopChan: make(chan struct{}),
		now:      time.Now,
	}

	if err := store.Init(); err != nil {
		log.Printf("Warning: performance storage initialization failed: %v", err)
	}

	r.wg.Add(1)
	go r.processRecords()

	return r
}

// Record queues a performance record (non-blocking). satisfaction is
// the 1-5 user rating, or 0 when the session was not rated.
//
// Break effectiveness is derived here: unrated sessions get the neutral
// 0.5, rated ones weight the rating against how long the session ran
// (short sessions leave more recovery headroom).
func (r *Recorder) Record(modelID string, ctx detect.Context, durationMinutes, completionRate float64, satisfaction int) {
	rec := storage.PerformanceRecord{
		ModelID:              modelID,
		TimeOfDay:            ctx.TimeOfDay,
		WorkType:             ctx.WorkType,
		EnergyLevel:          ctx.EnergyLevel,
		DayOfWeek:            ctx.DayOfWeek,
		CompletionRate:       completionRate,
		SatisfactionScore:    satisfaction,
		EffectiveWorkMinutes: durationMinutes,
		BreakEffectiveness:   breakEffectiveness(durationMinutes, satisfaction),
		Timestamp:            r.now(),
	}

	select {
	case r.queue <- rec:
	default:
		log.Printf("Warning: performance queue full, dropping record for model: %s", modelID)
	}
}

// breakEffectiveness derives the break quality score from the rating
// and the session length.
func breakEffectiveness(durationMinutes float64, satisfaction int) float64 {
	if satisfaction <= 0 {
		return 0.5
	}
	lengthPenalty := durationMinutes / 120
	if lengthPenalty > 1 {
		lengthPenalty = 1
	}
	return 0.6*(float64(satisfaction-1)/4) + 0.4*(1-lengthPenalty)
}

// History retrieves performance records newer than since, most recent
// first.
func (r *Recorder) History(since time.Time) []storage.PerformanceRecord {
	records, err := r.store.GetPerformanceHistory(since)
	if err != nil {
		log.Printf("Warning: failed to load performance history: %v", err)
		return nil
	}
	return records
}

// Stop flushes remaining records and shuts the recorder down.
func (r *Recorder) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopChan)
		r.wg.Wait()
	})
}

// processRecords runs in the background, flushing queued records.
func (r *Recorder) processRecords() {
	defer r.wg.Done()

	for {
		select {
		case rec := <-r.queue:
			r.flush(rec)

		case <-r.stopChan:
			for {
				select {
				case rec := <-r.queue:
					r.flush(rec)
				default:
					return
				}
			}
		}
	}
}

// flush writes one record to storage.
func (r *Recorder) flush(rec storage.PerformanceRecord) {
	if err := r.store.RecordPerformance(rec); err != nil {
		log.Printf("Warning: failed to record performance: %v", err)
	}
}
