/*
Package storage implements a persistent storage layer for performance
history and federated aggregation state.

This package provides SQLite-based storage with graceful degradation if
the database is unavailable: reads fall back to empty state, writes
become no-ops with a logged warning, and the scheduler keeps running.

The database is stored at ~/.cadence/cadence.db and uses
modernc.org/sqlite (a pure Go, CGo-free implementation).
*/
package storage

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store defines the interface for persistent storage operations.
type Store interface {
	// Init initializes the database and runs migrations.
	Init() error

	// RecordPerformance appends a performance record, prunes entries
	// older than the retention window and truncates to the most recent
	// maxPerformanceRecords entries.
	RecordPerformance(rec PerformanceRecord) error

	// GetPerformanceHistory retrieves performance records newer than
	// since, most recent first.
	GetPerformanceHistory(since time.Time) ([]PerformanceRecord, error)

	// EnqueueContribution appends a contribution to the pending queue.
	EnqueueContribution(c Contribution) error

	// GetContributionQueue retrieves all queued contributions, oldest first.
	GetContributionQueue() ([]Contribution, error)

	// ClearContributionQueue removes all queued contributions.
	ClearContributionQueue() error

	// SaveGlobalModel persists the community global model.
	SaveGlobalModel(m GlobalModel) error

	// GetGlobalModel retrieves the community global model, or nil if
	// none has been aggregated yet.
	GetGlobalModel() (*GlobalModel, error)

	// Close closes the database connection.
	Close() error
}

const (
	// performanceRetention is how long performance records are kept.
	performanceRetention = 90 * 24 * time.Hour

	// maxPerformanceRecords caps the persisted history length.
	maxPerformanceRecords = 200
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db       *sql.DB
	dbPath   string
	enabled  bool
	mu       sync.Mutex
	initOnce sync.Once
}

// NewStore creates a new SQLite store at ~/.cadence/cadence.db.
//
// If the directory doesn't exist, it will be created. If the database
// cannot be opened, the store is disabled but operations will not fail.
func NewStore() *SQLiteStore {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Printf("Warning: failed to get home directory: %v", err)
		return &SQLiteStore{enabled: false}
	}

	return NewStoreAt(filepath.Join(home, ".cadence", "cadence.db"))
}

// NewStoreAt creates a new SQLite store at an explicit path.
func NewStoreAt(dbPath string) *SQLiteStore {
	return &SQLiteStore{
		dbPath:  dbPath,
		enabled: true,
	}
}

// Init initializes the database and runs migrations.
//
// If initialization fails, the store is disabled and subsequent
// operations become no-ops (graceful degradation).
func (s *SQLiteStore) Init() error {
	if !s.enabled {
		return nil
	}

	var initErr error
	s.initOnce.Do(func() {
		dbDir := filepath.Dir(s.dbPath)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			initErr = fmt.Errorf("failed to create db directory: %w", err)
			s.enabled = false
			return
		}

		db, err := sql.Open("sqlite", s.dbPath)
		if err != nil {
			initErr = fmt.Errorf("failed to open database: %w", err)
			s.enabled = false
			log.Printf("Warning: %v", initErr)
			return
		}
		s.db = db

		if err := db.Ping(); err != nil {
			initErr = fmt.Errorf("failed to ping database: %w", err)
			s.enabled = false
			log.Printf("Warning: %v", initErr)
			return
		}

		if err := s.runMigrations(); err != nil {
			initErr = fmt.Errorf("failed to run migrations: %w", err)
			s.enabled = false
			log.Printf("Warning: %v", initErr)
			return
		}
	})

	return initErr
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	s.db = nil
	return nil
}
