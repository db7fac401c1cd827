package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

// EnqueueContribution appends a contribution to the pending queue.
func (s *SQLiteStore) EnqueueContribution(c Contribution) error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO contribution_queue (id, proof, ciphertext, nonce, valid_from, valid_until, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		c.ID,
		c.Proof,
		c.Ciphertext,
		c.Nonce,
		c.ValidFrom.Format(time.RFC3339),
		c.ValidUntil.Format(time.RFC3339),
		c.Timestamp.Format(time.RFC3339),
	)
	if err != nil {
		log.Printf("Warning: failed to enqueue contribution: %v", err)
	}

	return nil
}

// GetContributionQueue retrieves all queued contributions, oldest first.
func (s *SQLiteStore) GetContributionQueue() ([]Contribution, error) {
	if !s.enabled || s.db == nil {
		return []Contribution{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		SELECT id, proof, ciphertext, nonce, valid_from, valid_until, timestamp
		FROM contribution_queue
		ORDER BY timestamp ASC
	`

	rows, err := s.db.Query(query)
	if err != nil {
		log.Printf("Warning: failed to query contribution queue: %v", err)
		return []Contribution{}, nil
	}
	defer rows.Close()

	var queue []Contribution
	for rows.Next() {
		var c Contribution
		var validFrom, validUntil, timestamp string

		if err := rows.Scan(&c.ID, &c.Proof, &c.Ciphertext, &c.Nonce, &validFrom, &validUntil, &timestamp); err != nil {
			log.Printf("Warning: failed to scan contribution row: %v", err)
			continue
		}

		c.ValidFrom, _ = time.Parse(time.RFC3339, validFrom)
		c.ValidUntil, _ = time.Parse(time.RFC3339, validUntil)
		c.Timestamp, err = time.Parse(time.RFC3339, timestamp)
		if err != nil {
			log.Printf("Warning: failed to parse contribution timestamp: %v", err)
			continue
		}

		queue = append(queue, c)
	}

	return queue, nil
}

// ClearContributionQueue removes all queued contributions.
func (s *SQLiteStore) ClearContributionQueue() error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM contribution_queue"); err != nil {
		log.Printf("Warning: failed to clear contribution queue: %v", err)
	}
	return nil
}

// SaveGlobalModel persists the community global model as a JSON payload.
func (s *SQLiteStore) SaveGlobalModel(m GlobalModel) error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal global model: %w", err)
	}

	query := `
		INSERT INTO global_model (id, payload, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`
	if _, err := s.db.Exec(query, string(payload), m.LastUpdated.Format(time.RFC3339)); err != nil {
		log.Printf("Warning: failed to save global model: %v", err)
	}
	return nil
}

// GetGlobalModel retrieves the community global model, or nil if none
// exists yet.
func (s *SQLiteStore) GetGlobalModel() (*GlobalModel, error) {
	if !s.enabled || s.db == nil {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var payload string
	row := s.db.QueryRow("SELECT payload FROM global_model WHERE id = 1")
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		log.Printf("Warning: failed to load global model: %v", err)
		return nil, nil
	}

	var m GlobalModel
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		log.Printf("Warning: failed to parse global model: %v", err)
		return nil, nil
	}
	return &m, nil
}
