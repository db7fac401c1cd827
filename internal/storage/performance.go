package storage

import (
	"log"
	"time"
)

// RecordPerformance appends a performance record and prunes old history.
func (s *SQLiteStore) RecordPerformance(rec PerformanceRecord) error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO performance_records (
			model_id, time_of_day, work_type, energy_level, day_of_week,
			completion_rate, satisfaction_score, effective_work_minutes,
			break_effectiveness, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		rec.ModelID,
		rec.TimeOfDay,
		rec.WorkType,
		rec.EnergyLevel,
		int(rec.DayOfWeek),
		rec.CompletionRate,
		rec.SatisfactionScore,
		rec.EffectiveWorkMinutes,
		rec.BreakEffectiveness,
		rec.Timestamp.Format(time.RFC3339),
	)
	if err != nil {
		log.Printf("Warning: failed to record performance: %v", err)
		return nil
	}

	s.prunePerformanceLocked()
	return nil
}

// prunePerformanceLocked removes records past the retention window and
// truncates the table to the most recent maxPerformanceRecords rows.
// Caller must hold s.mu.
func (s *SQLiteStore) prunePerformanceLocked() {
	cutoff := time.Now().Add(-performanceRetention).Format(time.RFC3339)
	if _, err := s.db.Exec(
		"DELETE FROM performance_records WHERE timestamp < ?", cutoff,
	); err != nil {
		log.Printf("Warning: failed to prune performance records: %v", err)
	}

	if _, err := s.db.Exec(`
		DELETE FROM performance_records WHERE id NOT IN (
			SELECT id FROM performance_records
			ORDER BY timestamp DESC
			LIMIT ?
		)
	`, maxPerformanceRecords); err != nil {
		log.Printf("Warning: failed to truncate performance records: %v", err)
	}
}

// GetPerformanceHistory retrieves performance records newer than since,
// most recent first.
func (s *SQLiteStore) GetPerformanceHistory(since time.Time) ([]PerformanceRecord, error) {
	if !s.enabled || s.db == nil {
		return []PerformanceRecord{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		SELECT model_id, time_of_day, work_type, energy_level, day_of_week,
		       completion_rate, satisfaction_score, effective_work_minutes,
		       break_effectiveness, timestamp
		FROM performance_records
		WHERE timestamp >= ?
		ORDER BY timestamp DESC
	`

	rows, err := s.db.Query(query, since.Format(time.RFC3339))
	if err != nil {
		log.Printf("Warning: failed to query performance history: %v", err)
		return []PerformanceRecord{}, nil
	}
	defer rows.Close()

	var records []PerformanceRecord
	for rows.Next() {
		var rec PerformanceRecord
		var timestampStr string
		var dayOfWeek int

		if err := rows.Scan(
			&rec.ModelID,
			&rec.TimeOfDay,
			&rec.WorkType,
			&rec.EnergyLevel,
			&dayOfWeek,
			&rec.CompletionRate,
			&rec.SatisfactionScore,
			&rec.EffectiveWorkMinutes,
			&rec.BreakEffectiveness,
			&timestampStr,
		); err != nil {
			log.Printf("Warning: failed to scan performance row: %v", err)
			continue
		}

		rec.DayOfWeek = time.Weekday(dayOfWeek)
		rec.Timestamp, err = time.Parse(time.RFC3339, timestampStr)
		if err != nil {
			log.Printf("Warning: failed to parse timestamp: %v", err)
			continue
		}

		records = append(records, rec)
	}

	return records, nil
}
